package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/font"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/pyhub-apps/pdfschedule/pkg/contentstream"
)

var (
	// ErrNoTextLayer is returned when no reader can decode the text of a file
	ErrNoTextLayer = errors.New("no readable text layer")

	// ErrPageOutOfRange is returned by GetPage for an invalid index
	ErrPageOutOfRange = errors.New("page index out of range")
)

func init() {
	// pdfcpu would otherwise create a configuration directory on first use.
	api.DisableConfigDir()
}

// PDFDocument implements the Document interface. pdfcpu provides the page
// tree and content streams (ruling graphics); a text layer provides glyphs.
type PDFDocument struct {
	ctx       *model.Context
	filepath  string
	textLayer string
	pages     []Page
}

// Open opens a PDF file and returns a Document
func Open(filepath string) (Document, error) {
	return OpenWithPassword(filepath, "")
}

// OpenWithPassword opens a password-protected PDF file
func OpenWithPassword(filepath string, password string) (Document, error) {
	f, err := os.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	if password != "" {
		conf.UserPW = password
		conf.OwnerPW = password
	}

	ctx, err := readContext(f, conf)
	if err != nil {
		return nil, err
	}

	text, err := openTextLayer(f, info.Size())
	if err != nil {
		return nil, err
	}

	doc := &PDFDocument{
		ctx:       ctx,
		filepath:  filepath,
		textLayer: text.Name(),
	}

	if err := doc.initializePages(text); err != nil {
		return nil, fmt.Errorf("failed to initialize pages: %w", err)
	}

	return doc, nil
}

func readContext(f *os.File, conf *model.Configuration) (ctx *model.Context, err error) {
	defer recoverError(&err, "pdfcpu")

	ctx, err = api.ReadContext(f, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}

	if err := api.ValidateContext(ctx); err != nil {
		return nil, fmt.Errorf("invalid PDF: %w", err)
	}
	return ctx, nil
}

// initializePages loads every page in document order
func (d *PDFDocument) initializePages(text textLayer) error {
	pageCount := d.ctx.PageCount
	if n := text.NumPage(); n != pageCount {
		slog.Warn("page count mismatch", "file", d.filepath, "pdfcpu", pageCount, text.Name(), n)
	}

	d.pages = make([]Page, pageCount)
	for i := 1; i <= pageCount; i++ {
		page, err := newPDFPage(d.ctx, text, i)
		if err != nil {
			return fmt.Errorf("failed to create page %d: %w", i, err)
		}
		d.pages[i-1] = page
	}

	return nil
}

// GetPages returns all pages in the document
func (d *PDFDocument) GetPages() []Page {
	return d.pages
}

// GetPage returns a specific page by index (0-based)
func (d *PDFDocument) GetPage(index int) (Page, error) {
	if index < 0 || index >= len(d.pages) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrPageOutOfRange, index, len(d.pages))
	}
	return d.pages[index], nil
}

// PageCount returns the total number of pages
func (d *PDFDocument) PageCount() int {
	return len(d.pages)
}

// TextLayer names the reader that decoded the document text
func (d *PDFDocument) TextLayer() string {
	return d.textLayer
}

// Close releases resources associated with the document
func (d *PDFDocument) Close() error {
	d.ctx = nil
	d.pages = nil
	return nil
}

// PDFPage implements the Page interface. Coordinates use pdfplumber's
// convention: origin at the top-left corner of the MediaBox, y growing down.
type PDFPage struct {
	pageNumber int
	width      float64
	height     float64
	rotation   int
	objects    Objects
}

func newPDFPage(ctx *model.Context, text textLayer, pageNumber int) (page *PDFPage, err error) {
	defer recoverError(&err, fmt.Sprintf("page %d", pageNumber))

	pageDict, _, attrs, err := ctx.PageDict(pageNumber, false)
	if err != nil {
		return nil, fmt.Errorf("failed to get page dict: %w", err)
	}

	// US Letter when the page tree carries no MediaBox
	mediaBox := types.NewRectangle(0, 0, 612, 792)
	rotation := 0
	if attrs != nil {
		if attrs.MediaBox != nil {
			mediaBox = attrs.MediaBox
		}
		rotation = attrs.Rotate
	}

	page = &PDFPage{
		pageNumber: pageNumber,
		width:      mediaBox.Width(),
		height:     mediaBox.Height(),
		rotation:   rotation,
	}
	origin := pageOrigin{x: mediaBox.LL.X, top: mediaBox.UR.Y}

	content, err := pageContent(ctx, pageDict)
	if err != nil {
		return nil, fmt.Errorf("failed to extract content: %w", err)
	}
	var resources types.Dict
	if attrs != nil {
		resources = attrs.Resources
	}
	forms, err := newXObjectForms(ctx, resources)
	if err != nil {
		return nil, err
	}
	graphics, err := contentstream.NewScanner(contentstream.Identity()).WithForms(forms).Scan(content)
	if err != nil {
		return nil, fmt.Errorf("failed to scan content: %w", err)
	}
	page.addGraphics(graphics, origin)
	page.objects.Lines = dedupeLines(page.objects.Lines)
	page.objects.Rects = dedupeRects(page.objects.Rects)

	if pageNumber <= text.NumPage() {
		glyphs, err := text.Glyphs(pageNumber)
		if err != nil {
			return nil, fmt.Errorf("failed to read text: %w", err)
		}
		page.addGlyphs(glyphs, origin)
	}

	slog.Debug("page loaded",
		"page", pageNumber,
		"chars", len(page.objects.Chars),
		"lines", len(page.objects.Lines),
		"rects", len(page.objects.Rects))

	return page, nil
}

// pageOrigin maps default user space onto top-left page coordinates
type pageOrigin struct {
	x   float64
	top float64
}

func (o pageOrigin) point(x, y float64) (float64, float64) {
	return x - o.x, o.top - y
}

func (p *PDFPage) addGraphics(g contentstream.Graphics, origin pageOrigin) {
	for _, s := range g.Segments {
		x0, y0 := origin.point(s.X0, s.Y0)
		x1, y1 := origin.point(s.X1, s.Y1)
		p.objects.Lines = append(p.objects.Lines, LineObject{X0: x0, Y0: y0, X1: x1, Y1: y1, Width: s.Width})
	}
	for _, r := range g.Rects {
		x0, top := origin.point(r.X0, r.Y1)
		x1, bottom := origin.point(r.X1, r.Y0)
		p.objects.Rects = append(p.objects.Rects, RectObject{
			X0: x0, Y0: top, X1: x1, Y1: bottom,
			Stroked: r.Stroked,
			Filled:  r.Filled,
		})
	}
}

// addGlyphs converts text runs into one CharObject per non-space rune.
// Runs holding several runes (ligatures, multi-byte codes) share the run
// width evenly.
func (p *PDFPage) addGlyphs(glyphs []glyph, origin pageOrigin) {
	seq := 0
	for _, g := range layoutZeroWidths(glyphs) {
		runes := []rune(g.S)
		if len(runes) == 0 {
			continue
		}

		size := g.FontSize
		// The baseline sits at 80% of the em box from the top.
		x, top := origin.point(g.X, g.Y+size*0.8)
		width := g.W / float64(len(runes))

		for _, r := range runes {
			if !unicode.IsSpace(r) && unicode.IsPrint(r) {
				p.objects.Chars = append(p.objects.Chars, CharObject{
					Text:     string(r),
					Font:     g.Font,
					FontSize: size,
					X0:       x,
					Y0:       top,
					X1:       x + width,
					Y1:       top + size,
					Seq:      seq,
				})
			}
			seq++
			x += width
		}
	}
}

// layoutZeroWidths positions glyphs of standard 14 fonts whose font
// dictionary has no /Widths. The text layer reports them with zero width and
// without advancing; they get the font's own metrics and each one is moved
// past its predecessor. A glyph reported short of the predecessor's end
// continues the run, keeping whatever spacing the text layer did apply.
func layoutZeroWidths(glyphs []glyph) []glyph {
	out := make([]glyph, len(glyphs))
	copy(out, glyphs)

	var prev *glyph
	shift := 0.0
	for i := range out {
		g := &out[i]
		if g.W != 0 || !font.IsCoreFont(g.Font) {
			prev = nil
			continue
		}
		for _, r := range g.S {
			g.W += float64(font.CharWidth(g.Font, r)) / 1000 * g.FontSize
		}

		reported := glyphs[i].X
		if prev != nil && g.Y == prev.Y && g.Font == prev.Font && g.FontSize == prev.FontSize {
			step := reported - glyphs[i-1].X
			if step >= 0 && step < prev.W {
				shift += prev.W
			} else {
				shift = 0
			}
		} else {
			shift = 0
		}
		g.X = reported + shift
		prev = g
	}
	return out
}

// pageContent concatenates the decoded content streams of a page
func pageContent(ctx *model.Context, pageDict types.Dict) ([]byte, error) {
	obj, found := pageDict.Find("Contents")
	if !found || obj == nil {
		return nil, nil
	}

	resolved, err := ctx.Dereference(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference contents: %w", err)
	}

	streams := []types.Object{obj}
	if arr, ok := resolved.(types.Array); ok {
		streams = arr
	}

	var buf bytes.Buffer
	for i, s := range streams {
		sd, _, err := ctx.DereferenceStreamDict(s)
		if err != nil {
			return nil, fmt.Errorf("content stream %d: %w", i, err)
		}
		if sd == nil {
			continue
		}
		content, err := decodeStream(sd)
		if err != nil {
			return nil, fmt.Errorf("content stream %d: %w", i, err)
		}
		buf.Write(content)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// decodeStream decodes a stream dictionary
func decodeStream(stream *types.StreamDict) ([]byte, error) {
	if len(stream.Content) > 0 {
		return stream.Content, nil
	}
	if err := stream.Decode(); err != nil {
		return nil, err
	}
	return stream.Content, nil
}

// GetPageNumber returns the page number (1-based)
func (p *PDFPage) GetPageNumber() int {
	return p.pageNumber
}

// GetWidth returns the page width
func (p *PDFPage) GetWidth() float64 {
	return p.width
}

// GetHeight returns the page height
func (p *PDFPage) GetHeight() float64 {
	return p.height
}

// GetRotation returns the page rotation in degrees
func (p *PDFPage) GetRotation() int {
	return p.rotation
}

// GetBBox returns the page bounding box
func (p *PDFPage) GetBBox() BoundingBox {
	return BoundingBox{X0: 0, Y0: 0, X1: p.width, Y1: p.height}
}

// GetObjects returns all objects on the page
func (p *PDFPage) GetObjects() Objects {
	return p.objects
}

// ExtractText extracts text from the page, one line per text row
func (p *PDFPage) ExtractText(opts ...TextExtractionOption) string {
	config := newTextExtractionConfig(opts)
	return charsToText(p.objects.Chars, config.XTolerance, config.YTolerance)
}

// ExtractWords groups the page characters into words, top to bottom
func (p *PDFPage) ExtractWords(opts ...TextExtractionOption) []Word {
	config := newTextExtractionConfig(opts)

	var words []Word
	for _, line := range clusterLines(p.objects.Chars, config.YTolerance) {
		words = append(words, splitWords(line, config.XTolerance)...)
	}
	return words
}

// ExtractTables extracts tables from the page
func (p *PDFPage) ExtractTables(opts ...TableExtractionOption) ([]Table, error) {
	return newTableExtractor(p, opts...).ExtractTables()
}

// String describes the page for debug output
func (p *PDFPage) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "page %d (%.0fx%.0f", p.pageNumber, p.width, p.height)
	if p.rotation != 0 {
		fmt.Fprintf(&b, ", rotated %d", p.rotation)
	}
	b.WriteString(")")
	return b.String()
}
