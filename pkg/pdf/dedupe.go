package pdf

import (
	"cmp"
	"math"
	"slices"
)

// coordTolerance is the distance under which two coordinates are the same
const coordTolerance = 0.1

func near(a, b float64) bool {
	return math.Abs(a-b) < coordTolerance
}

// dedupeLines drops lines drawn more than once, in either direction.
// Ruled tables often stroke a shared cell border once per cell.
func dedupeLines(lines []LineObject) []LineObject {
	if len(lines) < 2 {
		return lines
	}

	out := make([]LineObject, len(lines))
	for i, l := range lines {
		if l.X1 < l.X0 || (l.X1 == l.X0 && l.Y1 < l.Y0) {
			l.X0, l.Y0, l.X1, l.Y1 = l.X1, l.Y1, l.X0, l.Y0
		}
		out[i] = l
	}

	slices.SortStableFunc(out, func(a, b LineObject) int {
		return cmp.Or(
			cmp.Compare(a.Y0, b.Y0),
			cmp.Compare(a.X0, b.X0),
			cmp.Compare(a.Y1, b.Y1),
			cmp.Compare(a.X1, b.X1),
		)
	})
	return slices.CompactFunc(out, func(a, b LineObject) bool {
		return near(a.X0, b.X0) && near(a.Y0, b.Y0) && near(a.X1, b.X1) && near(a.Y1, b.Y1)
	})
}

// dedupeRects drops rectangles drawn more than once, merging their paint
func dedupeRects(rects []RectObject) []RectObject {
	if len(rects) < 2 {
		return rects
	}

	out := slices.Clone(rects)
	slices.SortStableFunc(out, func(a, b RectObject) int {
		return cmp.Or(
			cmp.Compare(a.Y0, b.Y0),
			cmp.Compare(a.X0, b.X0),
			cmp.Compare(a.Y1, b.Y1),
			cmp.Compare(a.X1, b.X1),
		)
	})

	result := out[:1]
	for _, r := range out[1:] {
		last := &result[len(result)-1]
		if near(last.X0, r.X0) && near(last.Y0, r.Y0) && near(last.X1, r.X1) && near(last.Y1, r.Y1) {
			last.Stroked = last.Stroked || r.Stroked
			last.Filled = last.Filled || r.Filled
			continue
		}
		result = append(result, r)
	}
	return result
}
