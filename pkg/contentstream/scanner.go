// Package contentstream scans PDF page content streams for the ruling
// graphics (stroked segments and rectangles) that delimit table cells.
// Coordinates are reported in default user space, origin at the bottom left.
package contentstream

import (
	"bytes"
	"fmt"
	"math"
)

// Segment is a painted straight line
type Segment struct {
	X0, Y0, X1, Y1 float64
	Width          float64
}

// Rect is a painted axis-aligned rectangle
type Rect struct {
	X0, Y0, X1, Y1 float64
	Stroked        bool
	Filled         bool
}

// Graphics holds the painted geometry of one content stream
type Graphics struct {
	Segments []Segment
	Rects    []Rect
}

// Matrix is a PDF transformation matrix [a b c d e f]
type Matrix struct {
	A, B, C, D, E, F float64
}

// Identity returns the identity matrix
func Identity() Matrix {
	return Matrix{A: 1, D: 1}
}

// Multiply returns m × n (apply m first, then n)
func (m Matrix) Multiply(n Matrix) Matrix {
	return Matrix{
		A: m.A*n.A + m.B*n.C,
		B: m.A*n.B + m.B*n.D,
		C: m.C*n.A + m.D*n.C,
		D: m.C*n.B + m.D*n.D,
		E: m.E*n.A + m.F*n.C + n.E,
		F: m.E*n.B + m.F*n.D + n.F,
	}
}

// Apply transforms a point
func (m Matrix) Apply(x, y float64) (float64, float64) {
	return m.A*x + m.C*y + m.E, m.B*x + m.D*y + m.F
}

// maxFormDepth bounds form XObject nesting; deeper forms are not painted
const maxFormDepth = 8

// Form is a form XObject ready to be scanned
type Form struct {
	Content []byte

	// Matrix maps form space to the space of the invoking stream;
	// the zero value means identity
	Matrix Matrix

	// Resources resolves forms named inside this one; nil inherits the
	// resolver of the invoking stream
	Resources FormResolver
}

// FormResolver looks up form XObjects by resource name. ok is false for
// unknown names and for XObjects that are not forms.
type FormResolver interface {
	Form(name string) (form Form, ok bool, err error)
}

type point struct{ X, Y float64 }

type subpath struct {
	points []point
	closed bool
	isRect bool
}

type graphicsState struct {
	ctm       Matrix
	lineWidth float64
}

// Scanner walks content stream operators and records painted paths
type Scanner struct {
	state    graphicsState
	stack    []graphicsState
	operands []float64
	path     []subpath
	current  point
	name     string
	forms    FormResolver
	depth    int
	out      Graphics
}

// NewScanner creates a scanner starting from the given CTM
func NewScanner(ctm Matrix) *Scanner {
	return &Scanner{
		state: graphicsState{ctm: ctm, lineWidth: 1},
	}
}

// WithForms makes Do paint the form XObjects found through r
func (s *Scanner) WithForms(r FormResolver) *Scanner {
	s.forms = r
	return s
}

// Scan tokenizes content and returns the painted geometry
func Scan(content []byte) (Graphics, error) {
	return NewScanner(Identity()).Scan(content)
}

// Scan processes one content stream. Scanning can be repeated for
// streams that continue the same page; results accumulate.
func (s *Scanner) Scan(content []byte) (Graphics, error) {
	lexer := NewLexer(bytes.NewReader(content))
	arrayDepth := 0

	for {
		tok, err := lexer.NextToken()
		if err != nil {
			return s.out, fmt.Errorf("content stream offset %d: %w", lexer.Position(), err)
		}

		switch tok.Type {
		case TokenEOF:
			return s.out, nil
		case TokenNumber:
			if arrayDepth == 0 {
				s.operands = append(s.operands, tok.Num)
			}
		case TokenName:
			if arrayDepth == 0 {
				s.name = tok.Text
			}
		case TokenArrayStart:
			arrayDepth++
		case TokenArrayEnd:
			if arrayDepth > 0 {
				arrayDepth--
			}
		case TokenOperator:
			arrayDepth = 0
			switch tok.Text {
			case "ID":
				if err := lexer.SkipInlineImage(); err != nil {
					return s.out, err
				}
			case "Do":
				if err := s.paintForm(); err != nil {
					return s.out, err
				}
			default:
				s.apply(tok.Text)
			}
			s.operands = s.operands[:0]
			s.name = ""
		}
	}
}

func (s *Scanner) apply(op string) {
	switch op {
	case "q":
		s.stack = append(s.stack, s.state)
	case "Q":
		if n := len(s.stack); n > 0 {
			s.state = s.stack[n-1]
			s.stack = s.stack[:n-1]
		}
	case "cm":
		if m, ok := s.matrix(); ok {
			s.state.ctm = m.Multiply(s.state.ctm)
		}
	case "w":
		if len(s.operands) == 1 {
			s.state.lineWidth = s.operands[0]
		}
	case "m":
		if x, y, ok := s.xy(0); ok {
			s.moveTo(x, y)
		}
	case "l":
		if x, y, ok := s.xy(0); ok {
			s.lineTo(x, y)
		}
	case "c":
		if x, y, ok := s.xy(4); ok {
			s.curveTo(x, y)
		}
	case "v", "y":
		if x, y, ok := s.xy(2); ok {
			s.curveTo(x, y)
		}
	case "h":
		s.closePath()
	case "re":
		s.rectangle()
	case "S":
		s.paint(true, false)
	case "s":
		s.closePath()
		s.paint(true, false)
	case "f", "F", "f*":
		s.paint(false, true)
	case "B", "B*":
		s.paint(true, true)
	case "b", "b*":
		s.closePath()
		s.paint(true, true)
	case "n":
		s.path = nil
	}
}

// paintForm scans the form XObject named by the Do operand under the
// current CTM combined with the form matrix
func (s *Scanner) paintForm() error {
	if s.forms == nil || s.name == "" || s.depth >= maxFormDepth {
		return nil
	}

	form, ok, err := s.forms.Form(s.name)
	if err != nil {
		return fmt.Errorf("form %s: %w", s.name, err)
	}
	if !ok {
		return nil
	}

	matrix := form.Matrix
	if matrix == (Matrix{}) {
		matrix = Identity()
	}
	resolver := form.Resources
	if resolver == nil {
		resolver = s.forms
	}

	child := &Scanner{
		state: graphicsState{ctm: matrix.Multiply(s.state.ctm), lineWidth: s.state.lineWidth},
		forms: resolver,
		depth: s.depth + 1,
	}
	g, err := child.Scan(form.Content)
	if err != nil {
		return fmt.Errorf("form %s: %w", s.name, err)
	}
	s.out.Segments = append(s.out.Segments, g.Segments...)
	s.out.Rects = append(s.out.Rects, g.Rects...)
	return nil
}

func (s *Scanner) matrix() (Matrix, bool) {
	if len(s.operands) != 6 {
		return Matrix{}, false
	}
	o := s.operands
	return Matrix{A: o[0], B: o[1], C: o[2], D: o[3], E: o[4], F: o[5]}, true
}

// xy returns the operand pair starting at index i, requiring exactly i+2 operands
func (s *Scanner) xy(i int) (float64, float64, bool) {
	if len(s.operands) != i+2 {
		return 0, 0, false
	}
	return s.operands[i], s.operands[i+1], true
}

func (s *Scanner) moveTo(x, y float64) {
	s.current = point{x, y}
	s.path = append(s.path, subpath{points: []point{s.current}})
}

func (s *Scanner) lineTo(x, y float64) {
	if len(s.path) == 0 {
		s.moveTo(s.current.X, s.current.Y)
	}
	s.current = point{x, y}
	last := &s.path[len(s.path)-1]
	last.points = append(last.points, s.current)
}

// curveTo moves the current point; curves never form table rules.
func (s *Scanner) curveTo(x, y float64) {
	s.current = point{x, y}
	s.path = append(s.path, subpath{points: []point{s.current}})
}

func (s *Scanner) closePath() {
	if len(s.path) == 0 {
		return
	}
	last := &s.path[len(s.path)-1]
	last.closed = true
	if len(last.points) > 0 {
		s.current = last.points[0]
	}
}

func (s *Scanner) rectangle() {
	if len(s.operands) != 4 {
		return
	}
	x, y, w, h := s.operands[0], s.operands[1], s.operands[2], s.operands[3]
	s.path = append(s.path, subpath{
		points: []point{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}},
		closed: true,
		isRect: true,
	})
	s.current = point{x, y}
}

func (s *Scanner) paint(stroke, fill bool) {
	ctm := s.state.ctm
	width := s.state.lineWidth * math.Sqrt(math.Abs(ctm.A*ctm.D-ctm.B*ctm.C))

	for _, sp := range s.path {
		pts := make([]point, len(sp.points))
		for i, p := range sp.points {
			pts[i].X, pts[i].Y = ctm.Apply(p.X, p.Y)
		}

		if (sp.isRect || isRectangle(pts, sp.closed)) && isAxisAligned(pts) {
			x0, y0, x1, y1 := bounds(pts)
			s.out.Rects = append(s.out.Rects, Rect{
				X0: x0, Y0: y0, X1: x1, Y1: y1,
				Stroked: stroke,
				Filled:  fill,
			})
			continue
		}

		for i := 1; i < len(pts); i++ {
			s.out.Segments = append(s.out.Segments, Segment{
				X0: pts[i-1].X, Y0: pts[i-1].Y, X1: pts[i].X, Y1: pts[i].Y, Width: width,
			})
		}
		if sp.closed && len(pts) > 2 {
			first, last := pts[0], pts[len(pts)-1]
			if first != last {
				s.out.Segments = append(s.out.Segments, Segment{
					X0: last.X, Y0: last.Y, X1: first.X, Y1: first.Y, Width: width,
				})
			}
		}
	}
	s.path = nil
}

// isRectangle reports whether a hand-drawn path (m l l l h) outlines a box
func isRectangle(pts []point, closed bool) bool {
	switch {
	case len(pts) == 4 && closed:
		return true
	case len(pts) == 5 && pts[0] == pts[4]:
		return true
	}
	return false
}

func isAxisAligned(pts []point) bool {
	const eps = 0.01
	n := len(pts)
	for i := 0; i < n; i++ {
		a, b := pts[i], pts[(i+1)%n]
		if math.Abs(a.X-b.X) > eps && math.Abs(a.Y-b.Y) > eps {
			return false
		}
	}
	return true
}

func bounds(pts []point) (x0, y0, x1, y1 float64) {
	x0, y0 = pts[0].X, pts[0].Y
	x1, y1 = x0, y0
	for _, p := range pts[1:] {
		x0 = math.Min(x0, p.X)
		y0 = math.Min(y0, p.Y)
		x1 = math.Max(x1, p.X)
		y1 = math.Max(y1, p.Y)
	}
	return
}
