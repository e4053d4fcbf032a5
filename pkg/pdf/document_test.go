package pdf

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyhub-apps/pdfschedule/internal/pdftest"
)

func TestOpenReadsPagesAndObjects(t *testing.T) {
	fixture := pdftest.New()
	fixture.AddPage(400, 300).
		Line(20, 280, 220, 280).
		Rect(20, 100, 200, 50).
		Text(30, 200, 10, "Géographie")
	fixture.AddPage(200, 100)
	path := fixture.Write(t)

	doc, err := Open(path)
	require.NoError(t, err)
	defer doc.Close()

	require.Equal(t, 2, doc.PageCount())
	pages := doc.GetPages()
	require.Len(t, pages, 2)

	page := pages[0]
	assert.Equal(t, 1, page.GetPageNumber())
	assert.Equal(t, 400.0, page.GetWidth())
	assert.Equal(t, 300.0, page.GetHeight())
	assert.Equal(t, BoundingBox{X1: 400, Y1: 300}, page.GetBBox())

	objects := page.GetObjects()
	require.Len(t, objects.Lines, 1)
	assert.Equal(t, LineObject{X0: 20, Y0: 20, X1: 220, Y1: 20, Width: 1}, objects.Lines[0])

	require.Len(t, objects.Rects, 1)
	rect := objects.Rects[0]
	assert.InDelta(t, 150.0, rect.Y0, 0.001, "top of rectangle")
	assert.InDelta(t, 200.0, rect.Y1, 0.001, "bottom of rectangle")
	assert.True(t, rect.Stroked)

	require.Len(t, objects.Chars, 10)
	first := objects.Chars[0]
	assert.Equal(t, "G", first.Text)
	assert.InDelta(t, 30.0, first.X0, 0.01)
	assert.InDelta(t, 35.0, first.X1, 0.01)
	assert.InDelta(t, 92.0, first.Y0, 0.01)
	assert.InDelta(t, 102.0, first.Y1, 0.01)
	assert.Equal(t, "é", objects.Chars[1].Text)

	assert.Equal(t, "Géographie", page.ExtractText())
	assert.Empty(t, pages[1].GetObjects().Chars)
}

func TestOpenSplitsWordsOnSpaces(t *testing.T) {
	fixture := pdftest.New()
	fixture.AddPage(300, 200).
		Text(10, 150, 8, "Salle B12").
		Text(10, 130, 8, "L1 Info")
	doc, err := Open(fixture.Write(t))
	require.NoError(t, err)
	defer doc.Close()

	page, err := doc.GetPage(0)
	require.NoError(t, err)

	words := page.ExtractWords()
	texts := make([]string, len(words))
	for i, w := range words {
		texts[i] = w.Text
	}
	assert.Equal(t, []string{"Salle", "B12", "L1", "Info"}, texts)
	assert.Equal(t, "Salle B12\nL1 Info", page.ExtractText())
}

func TestGetPageOutOfRange(t *testing.T) {
	fixture := pdftest.New()
	fixture.AddPage(100, 100)
	doc, err := Open(fixture.Write(t))
	require.NoError(t, err)
	defer doc.Close()

	for _, index := range []int{-1, 1} {
		_, err := doc.GetPage(index)
		assert.True(t, errors.Is(err, ErrPageOutOfRange), "index %d", index)
	}
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()

	garbage := filepath.Join(dir, "garbage.pdf")
	require.NoError(t, os.WriteFile(garbage, []byte("this is not a pdf"), 0o644))

	truncated := filepath.Join(dir, "truncated.pdf")
	fixture := pdftest.New()
	fixture.AddPage(100, 100).Text(10, 50, 10, "x")
	data := fixture.Bytes()
	require.NoError(t, os.WriteFile(truncated, data[:len(data)/3], 0o644))

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "missing.pdf")},
		{"not a pdf", garbage},
		{"truncated", truncated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Open(tt.path)
			assert.Error(t, err)
			assert.Nil(t, doc)
		})
	}
}

func TestTextLayerFallbackOrder(t *testing.T) {
	fixture := pdftest.New()
	fixture.AddPage(100, 100)
	doc, err := Open(fixture.Write(t))
	require.NoError(t, err)
	defer doc.Close()

	assert.Equal(t, "ledongthuc", doc.(*PDFDocument).TextLayer())
}

func TestRecoverErrorConvertsPanics(t *testing.T) {
	run := func() (err error) {
		defer recoverError(&err, "reader")
		panic("malformed xref")
	}
	err := run()
	require.Error(t, err)
	assert.Equal(t, "reader: malformed xref", err.Error())
}

func TestOpenLaysOutStandardFontWithoutWidths(t *testing.T) {
	fixture := pdftest.New()
	fixture.OmitWidths = true
	fixture.AddPage(300, 200).
		Text(30, 150, 10, "Lundi").
		Text(30, 120, 12, "Salle B12")
	doc, err := Open(fixture.Write(t))
	require.NoError(t, err)
	defer doc.Close()

	page, err := doc.GetPage(0)
	require.NoError(t, err)

	chars := page.GetObjects().Chars
	require.Len(t, chars, 13)
	// Helvetica: L, u, n, d are 556 units wide
	for i, want := range []struct {
		text   string
		x0, x1 float64
	}{
		{"L", 30, 35.56},
		{"u", 35.56, 41.12},
		{"n", 41.12, 46.68},
	} {
		assert.Equal(t, want.text, chars[i].Text)
		assert.InDelta(t, want.x0, chars[i].X0, 0.01, "x0 of %s", want.text)
		assert.InDelta(t, want.x1, chars[i].X1, 0.01, "x1 of %s", want.text)
		assert.Equal(t, i, chars[i].Seq)
	}

	assert.Equal(t, "Lundi\nSalle B12", page.ExtractText())
}

func TestLayoutZeroWidthsKeepsReportedSpacing(t *testing.T) {
	glyphs := []glyph{
		{Font: "Helvetica", FontSize: 10, X: 10, Y: 50, S: "A"},
		{Font: "Helvetica", FontSize: 10, X: 11, Y: 50, S: "B"},
		{Font: "Helvetica", FontSize: 10, X: 80, Y: 50, S: "C"},
		{Font: "Embedded+Subset", FontSize: 10, X: 90, Y: 50, S: "D"},
		{Font: "Helvetica", FontSize: 10, X: 100, Y: 50, W: 4, S: "E"},
	}

	out := layoutZeroWidths(glyphs)
	// A and B are 667 units wide; C is 722
	assert.InDelta(t, 10.0, out[0].X, 0.001)
	assert.InDelta(t, 6.67, out[0].W, 0.001)
	assert.InDelta(t, 17.67, out[1].X, 0.001, "one unit of character spacing kept")
	assert.InDelta(t, 80.0, out[2].X, 0.001, "a glyph past the run starts a new one")
	assert.InDelta(t, 7.22, out[2].W, 0.001)
	assert.Equal(t, glyphs[3], out[3], "fonts without core metrics are left alone")
	assert.Equal(t, glyphs[4], out[4])
	assert.Equal(t, 11.0, glyphs[1].X, "input is not modified")
}
