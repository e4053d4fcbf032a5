package pdf

import (
	"fmt"
	"io"

	gopdf "github.com/dslipak/pdf"
	lpdf "github.com/ledongthuc/pdf"
)

// glyph is one positioned run of text as reported by a text layer, in
// default user space with the baseline at Y
type glyph struct {
	Font     string
	FontSize float64
	X        float64
	Y        float64
	W        float64
	S        string
}

// textLayer decodes fonts and positions glyphs. Both readers panic on
// some malformed input, so every call goes through recoverError.
type textLayer interface {
	Name() string
	NumPage() int
	Glyphs(pageNumber int) ([]glyph, error)
}

// openTextLayer opens the text layer with ledongthuc/pdf, falling back to
// dslipak/pdf when the first reader rejects the file
func openTextLayer(r io.ReaderAt, size int64) (textLayer, error) {
	primary, err := newLedongthucLayer(r, size)
	if err == nil {
		return primary, nil
	}

	fallback, fallbackErr := newDslipakLayer(r, size)
	if fallbackErr == nil {
		return fallback, nil
	}

	return nil, fmt.Errorf("%w: ledongthuc: %v; dslipak: %v", ErrNoTextLayer, err, fallbackErr)
}

// recoverError turns a panic raised by a PDF reader into an error
func recoverError(err *error, what string) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%s: %v", what, r)
	}
}

type ledongthucLayer struct {
	reader *lpdf.Reader
}

func newLedongthucLayer(r io.ReaderAt, size int64) (layer *ledongthucLayer, err error) {
	defer recoverError(&err, "ledongthuc reader")

	reader, err := lpdf.NewReader(r, size)
	if err != nil {
		return nil, err
	}
	return &ledongthucLayer{reader: reader}, nil
}

func (l *ledongthucLayer) Name() string { return "ledongthuc" }

func (l *ledongthucLayer) NumPage() int { return l.reader.NumPage() }

func (l *ledongthucLayer) Glyphs(pageNumber int) (glyphs []glyph, err error) {
	defer recoverError(&err, fmt.Sprintf("ledongthuc page %d", pageNumber))

	page := l.reader.Page(pageNumber)
	if page.V.IsNull() {
		return nil, nil
	}
	for _, t := range page.Content().Text {
		glyphs = append(glyphs, glyph{Font: t.Font, FontSize: t.FontSize, X: t.X, Y: t.Y, W: t.W, S: t.S})
	}
	return glyphs, nil
}

type dslipakLayer struct {
	reader *gopdf.Reader
}

func newDslipakLayer(r io.ReaderAt, size int64) (layer *dslipakLayer, err error) {
	defer recoverError(&err, "dslipak reader")

	reader, err := gopdf.NewReader(r, size)
	if err != nil {
		return nil, err
	}
	return &dslipakLayer{reader: reader}, nil
}

func (l *dslipakLayer) Name() string { return "dslipak" }

func (l *dslipakLayer) NumPage() int { return l.reader.NumPage() }

func (l *dslipakLayer) Glyphs(pageNumber int) (glyphs []glyph, err error) {
	defer recoverError(&err, fmt.Sprintf("dslipak page %d", pageNumber))

	page := l.reader.Page(pageNumber)
	if page.V.IsNull() {
		return nil, nil
	}
	for _, t := range page.Content().Text {
		glyphs = append(glyphs, glyph{Font: t.Font, FontSize: t.FontSize, X: t.X, Y: t.Y, W: t.W, S: t.S})
	}
	return glyphs, nil
}
