package pdf

import (
	"cmp"
	"slices"
	"strings"
)

// clusterLines groups characters into text lines. Characters are sorted by
// top; a character starts a new line when its top is more than tolerance
// below the previous one. Each line is returned sorted left to right.
// Characters at the same position keep content order.
func clusterLines(chars []CharObject, tolerance float64) [][]CharObject {
	if len(chars) == 0 {
		return nil
	}

	sorted := make([]CharObject, len(chars))
	copy(sorted, chars)
	slices.SortFunc(sorted, func(a, b CharObject) int {
		return cmp.Or(cmp.Compare(a.Y0, b.Y0), cmp.Compare(a.Seq, b.Seq))
	})

	var lines [][]CharObject
	current := []CharObject{sorted[0]}
	for _, c := range sorted[1:] {
		if c.Y0-current[len(current)-1].Y0 > tolerance {
			lines = append(lines, current)
			current = nil
		}
		current = append(current, c)
	}
	lines = append(lines, current)

	for _, line := range lines {
		slices.SortFunc(line, byPosition)
	}
	return lines
}

func byPosition(a, b CharObject) int {
	return cmp.Or(cmp.Compare(a.X0, b.X0), cmp.Compare(a.Seq, b.Seq))
}

// splitWords cuts a sorted line of characters wherever the horizontal gap
// exceeds tolerance
func splitWords(line []CharObject, tolerance float64) []Word {
	var words []Word
	var current []CharObject

	for _, c := range line {
		if len(current) > 0 && c.X0 > current[len(current)-1].X1+tolerance {
			words = append(words, createWord(current))
			current = nil
		}
		current = append(current, c)
	}
	if len(current) > 0 {
		words = append(words, createWord(current))
	}
	return words
}

// createWord creates a Word from a group of characters
func createWord(chars []CharObject) Word {
	word := Word{
		X0:         chars[0].X0,
		Y0:         chars[0].Y0,
		X1:         chars[0].X1,
		Y1:         chars[0].Y1,
		Characters: chars,
	}

	var text strings.Builder
	for _, c := range chars {
		text.WriteString(c.Text)
		word.X0 = min(word.X0, c.X0)
		word.Y0 = min(word.Y0, c.Y0)
		word.X1 = max(word.X1, c.X1)
		word.Y1 = max(word.Y1, c.Y1)
	}
	word.Text = text.String()

	return word
}

// charsToText renders characters as lines of space-separated words
func charsToText(chars []CharObject, xTolerance, yTolerance float64) string {
	lines := clusterLines(chars, yTolerance)
	out := make([]string, 0, len(lines))

	for _, line := range lines {
		words := splitWords(line, xTolerance)
		texts := make([]string, len(words))
		for i, w := range words {
			texts[i] = w.Text
		}
		out = append(out, strings.Join(texts, " "))
	}
	return strings.Join(out, "\n")
}
