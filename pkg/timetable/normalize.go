package timetable

import (
	"regexp"
	"strings"
	"unicode"
)

// hourMarker matches an hour letter with the whitespace around it and an
// optional trailing colon: "13H:30", "13h30", " 13 H 30".
var hourMarker = regexp.MustCompile(`[\s\v\x{85}\x{1c}-\x{1f}\p{Z}]*[Hh][\s\v\x{85}\x{1c}-\x{1f}\p{Z}]*:?`)

// NormalizeTime rewrites French-style hour markers as colons and trims the
// result. It does not validate the time: "99H99" becomes "99:99".
func NormalizeTime(s string) string {
	if s == "" {
		return s
	}
	return trimSpace(hourMarker.ReplaceAllLiteralString(s, ":"))
}

// isSpace also treats the information separators U+001C..U+001F as space,
// as line-oriented text tools do.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}

func trimSpace(s string) string {
	return strings.TrimFunc(s, isSpace)
}
