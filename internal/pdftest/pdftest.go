// Package pdftest writes small single-font PDF documents for tests. The
// output carries ruling lines and WinAnsi-encoded Helvetica text with
// explicit glyph widths, so every reader in the stack can position glyphs,
// unless Document.OmitWidths is set.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// GlyphWidth is the advance of every glyph, in thousandths of the font size
const GlyphWidth = 500

// Document is a PDF under construction
type Document struct {
	// OmitWidths leaves /Widths out of the font, as many producers do for
	// the standard 14 fonts
	OmitWidths bool

	pages []*Page
}

// Page is one page of a Document. Coordinates are PDF user space with the
// origin at the bottom-left corner.
type Page struct {
	Width   float64
	Height  float64
	content bytes.Buffer
	forms   []form
}

type form struct {
	name   string
	matrix []float64
	body   *Page
}

// New starts an empty document
func New() *Document {
	return &Document{}
}

// AddPage appends a page of the given size
func (d *Document) AddPage(width, height float64) *Page {
	p := &Page{Width: width, Height: height}
	d.pages = append(d.pages, p)
	return p
}

// Text shows s with its baseline starting at (x, y)
func (p *Page) Text(x, y, size float64, s string) *Page {
	fmt.Fprintf(&p.content, "BT /F1 %s Tf 1 0 0 1 %s %s Tm (%s) Tj ET\n",
		num(size), num(x), num(y), encodeString(s))
	return p
}

// Line strokes a straight line
func (p *Page) Line(x0, y0, x1, y1 float64) *Page {
	fmt.Fprintf(&p.content, "%s %s m %s %s l S\n", num(x0), num(y0), num(x1), num(y1))
	return p
}

// Rect strokes a rectangle with lower-left corner (x, y)
func (p *Page) Rect(x, y, w, h float64) *Page {
	fmt.Fprintf(&p.content, "%s %s %s %s re S\n", num(x), num(y), num(w), num(h))
	return p
}

// Raw appends content stream operators verbatim
func (p *Page) Raw(ops string) *Page {
	p.content.WriteString(ops)
	p.content.WriteByte('\n')
	return p
}

// Form draws into a form XObject named name and paints it with Do.
// matrix is the form's /Matrix; nil leaves it out.
func (p *Page) Form(name string, matrix []float64, draw func(f *Page)) *Page {
	body := &Page{Width: p.Width, Height: p.Height}
	draw(body)
	p.forms = append(p.forms, form{name: name, matrix: matrix, body: body})
	return p.Raw(fmt.Sprintf("q /%s Do Q", name))
}

// Grid describes a fully ruled table. Left and Top locate the top-left
// corner; each row is RowHeight tall and cells hold "\n"-separated lines.
type Grid struct {
	Left      float64
	Top       float64
	ColWidths []float64
	RowHeight float64
	FontSize  float64
	Rows      [][]string
}

// Grid draws the rules of g and the text of its cells
func (p *Page) Grid(g Grid) *Page {
	size := g.FontSize
	if size == 0 {
		size = 8
	}

	width := 0.0
	for _, w := range g.ColWidths {
		width += w
	}
	height := g.RowHeight * float64(len(g.Rows))

	for i := 0; i <= len(g.Rows); i++ {
		y := g.Top - float64(i)*g.RowHeight
		p.Line(g.Left, y, g.Left+width, y)
	}
	x := g.Left
	for i := 0; i <= len(g.ColWidths); i++ {
		p.Line(x, g.Top, x, g.Top-height)
		if i < len(g.ColWidths) {
			x += g.ColWidths[i]
		}
	}

	for r, row := range g.Rows {
		rowTop := g.Top - float64(r)*g.RowHeight
		x := g.Left
		for c, cell := range row {
			if c >= len(g.ColWidths) {
				break
			}
			p.CellText(x, rowTop, size, cell)
			x += g.ColWidths[c]
		}
	}
	return p
}

// CellText writes "\n"-separated lines inside a cell whose top-left corner
// is (left, top), one line every 1.2 font sizes
func (p *Page) CellText(left, top, size float64, text string) *Page {
	if text == "" {
		return p
	}
	baseline := top - 2 - size*0.8
	for _, line := range strings.Split(text, "\n") {
		if line != "" {
			p.Text(left+2, baseline, size, line)
		}
		baseline -= size * 1.2
	}
	return p
}

// Bytes renders the document
func (d *Document) Bytes() []byte {
	w := &writer{}
	w.out.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")

	catalog, pages, font := w.alloc(), w.alloc(), w.alloc()
	kids := make([]string, len(d.pages))
	pageNums := make([]int, len(d.pages))
	for i := range d.pages {
		pageNums[i] = w.alloc()
		kids[i] = fmt.Sprintf("%d 0 R", pageNums[i])
	}

	w.object(catalog, "<< /Type /Catalog /Pages %d 0 R >>", pages)
	w.object(pages, "<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(d.pages))

	widths := ""
	if !d.OmitWidths {
		list := make([]string, 256-32)
		for i := range list {
			list[i] = fmt.Sprint(GlyphWidth)
		}
		widths = fmt.Sprintf(" /FirstChar 32 /LastChar 255 /Widths [%s]", strings.Join(list, " "))
	}
	w.object(font, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding%s >>", widths)

	for i, p := range d.pages {
		xobjects := w.forms(p, font)
		content := w.alloc()
		w.object(pageNums[i], "<< /Type /Page /Parent %d 0 R /MediaBox [0 0 %s %s] "+
			"/Resources << /Font << /F1 %d 0 R >>%s >> /Contents %d 0 R >>",
			pages, num(p.Width), num(p.Height), font, xobjects, content)
		w.stream(content, "", p.content.Bytes())
	}

	xref := w.out.Len()
	fmt.Fprintf(&w.out, "xref\n0 %d\n0000000000 65535 f \n", len(w.offsets)+1)
	for _, off := range w.offsets {
		fmt.Fprintf(&w.out, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&w.out, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(w.offsets)+1, catalog, xref)

	return w.out.Bytes()
}

// writer numbers objects and records their offsets. Objects may be
// written in any order.
type writer struct {
	out     bytes.Buffer
	offsets []int
}

func (w *writer) alloc() int {
	w.offsets = append(w.offsets, 0)
	return len(w.offsets)
}

func (w *writer) object(n int, format string, args ...any) {
	w.offsets[n-1] = w.out.Len()
	fmt.Fprintf(&w.out, "%d 0 obj\n", n)
	fmt.Fprintf(&w.out, format, args...)
	w.out.WriteString("\nendobj\n")
}

func (w *writer) stream(n int, dict string, content []byte) {
	w.offsets[n-1] = w.out.Len()
	fmt.Fprintf(&w.out, "%d 0 obj\n<< %s/Length %d >>\nstream\n", n, dict, len(content))
	w.out.Write(content)
	w.out.WriteString("\nendstream\nendobj\n")
}

// forms writes the form XObjects of p and returns its /XObject resource
// entry, or "" when it has none
func (w *writer) forms(p *Page, font int) string {
	if len(p.forms) == 0 {
		return ""
	}
	refs := make([]string, len(p.forms))
	for i, f := range p.forms {
		xobjects := w.forms(f.body, font)
		n := w.alloc()
		matrix := ""
		if f.matrix != nil {
			m := make([]string, 6)
			for j, v := range f.matrix {
				m[j] = num(v)
			}
			matrix = fmt.Sprintf("/Matrix [%s] ", strings.Join(m, " "))
		}
		dict := fmt.Sprintf("/Type /XObject /Subtype /Form /BBox [0 0 %s %s] %s"+
			"/Resources << /Font << /F1 %d 0 R >>%s >> ",
			num(p.Width), num(p.Height), matrix, font, xobjects)
		w.stream(n, dict, f.body.content.Bytes())
		refs[i] = fmt.Sprintf("/%s %d 0 R", f.name, n)
	}
	return fmt.Sprintf(" /XObject << %s >>", strings.Join(refs, " "))
}

// Write stores the document in a temporary directory and returns its path
func (d *Document) Write(t testing.TB) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.pdf")
	require.NoError(t, os.WriteFile(path, d.Bytes(), 0o644))
	return path
}

// encodeString converts s to a WinAnsi literal string body. Runes outside
// Latin-1 become '?'.
func encodeString(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '(' || r == ')' || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r >= 0x20 && r < 0x7f:
			b.WriteRune(r)
		case r >= 0xa0 && r <= 0xff:
			fmt.Fprintf(&b, "\\%03o", r)
		default:
			b.WriteByte('?')
		}
	}
	return b.String()
}

func num(f float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.3f", f), "0"), ".")
}
