package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyhub-apps/pdfschedule/internal/pdftest"
)

func TestDedupeLines(t *testing.T) {
	lines := []LineObject{
		{X0: 10, Y0: 50, X1: 110, Y1: 50, Width: 1},
		{X0: 110, Y0: 50.05, X1: 10, Y1: 50, Width: 1},
		{X0: 10, Y0: 10, X1: 10, Y1: 50, Width: 1},
		{X0: 10, Y0: 50, X1: 10, Y1: 10, Width: 1},
		{X0: 10, Y0: 20, X1: 110, Y1: 20, Width: 1},
	}

	got := dedupeLines(lines)
	assert.Equal(t, []LineObject{
		{X0: 10, Y0: 10, X1: 10, Y1: 50, Width: 1},
		{X0: 10, Y0: 20, X1: 110, Y1: 20, Width: 1},
		{X0: 10, Y0: 50, X1: 110, Y1: 50, Width: 1},
	}, got)
	assert.Equal(t, 110.0, lines[1].X0, "input untouched")

	assert.Empty(t, dedupeLines(nil))
}

func TestDedupeRects(t *testing.T) {
	rects := []RectObject{
		{X0: 0, Y0: 0, X1: 10, Y1: 10, Filled: true},
		{X0: 20, Y0: 0, X1: 30, Y1: 10, Stroked: true},
		{X0: 0.05, Y0: 0, X1: 10, Y1: 10, Stroked: true},
	}

	got := dedupeRects(rects)
	require.Len(t, got, 2)
	assert.Equal(t, RectObject{X0: 0, Y0: 0, X1: 10, Y1: 10, Stroked: true, Filled: true}, got[0])
	assert.Equal(t, RectObject{X0: 20, Y0: 0, X1: 30, Y1: 10, Stroked: true}, got[1])
	assert.False(t, rects[0].Stroked, "input untouched")
}

func TestPageDropsRepeatedBorders(t *testing.T) {
	fixture := pdftest.New()
	fixture.AddPage(200, 200).
		Line(20, 180, 120, 180).
		Line(120, 180, 20, 180).
		Rect(20, 100, 100, 80).
		Rect(20, 100, 100, 80)
	doc, err := Open(fixture.Write(t))
	require.NoError(t, err)
	defer doc.Close()

	page, err := doc.GetPage(0)
	require.NoError(t, err)
	objects := page.GetObjects()
	assert.Len(t, objects.Lines, 1)
	assert.Len(t, objects.Rects, 1)
}
