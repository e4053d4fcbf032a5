package timetable

import (
	"strings"
	"unicode"

	"github.com/pyhub-apps/pdfschedule/pkg/pdf"
)

// CellKind tells event blocks apart from everything else in a row
type CellKind int

const (
	// NoiseCell is absent, empty or free of digits (breaks, merged slots, labels)
	NoiseCell CellKind = iota
	// EventCell contains at least one decimal digit and is read as an event block
	EventCell
)

func (k CellKind) String() string {
	switch k {
	case EventCell:
		return "event"
	case NoiseCell:
		return "noise"
	default:
		return "unknown"
	}
}

// ClassifyCell reports whether a cell holds an event block. The only signal
// is the presence of a decimal digit, so a purely numeric subject or room
// cell cannot be told apart from a time.
func ClassifyCell(c pdf.Cell) CellKind {
	if c.Empty() {
		return NoiseCell
	}
	if strings.IndexFunc(c.Text, unicode.IsDigit) < 0 {
		return NoiseCell
	}
	return EventCell
}

// EventLines is the ordered, non-empty lines of an event cell. Position 0
// is the time, 1 the subject, 2 the class and everything after is the room.
type EventLines []string

// SplitEventLines splits cell text on "\n", trimming each line and dropping
// blank ones
func SplitEventLines(text string) EventLines {
	var lines EventLines
	for _, line := range strings.Split(text, "\n") {
		if line = trimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func (l EventLines) at(i int) string {
	if i < len(l) {
		return l[i]
	}
	return ""
}

// Time returns the normalized first line
func (l EventLines) Time() string {
	return NormalizeTime(l.at(0))
}

// Subject returns the second line
func (l EventLines) Subject() string {
	return l.at(1)
}

// Class returns the third line
func (l EventLines) Class() string {
	return l.at(2)
}

// Room joins the fourth and later lines with single spaces
func (l EventLines) Room() string {
	if len(l) <= 3 {
		return ""
	}
	return strings.Join(l[3:], " ")
}

// Event maps the lines onto event fields; missing lines give ""
func (l EventLines) Event() Event {
	return Event{
		Time:    l.Time(),
		Subject: l.Subject(),
		Class:   l.Class(),
		Room:    l.Room(),
	}
}
