package pdf

// BoundingBox represents a rectangular area with top-left origin coordinates
type BoundingBox struct {
	X0 float64 // Left
	Y0 float64 // Top
	X1 float64 // Right
	Y1 float64 // Bottom
}

// Width returns the width of the bounding box
func (b BoundingBox) Width() float64 {
	return b.X1 - b.X0
}

// Height returns the height of the bounding box
func (b BoundingBox) Height() float64 {
	return b.Y1 - b.Y0
}

// Union returns the smallest box containing both boxes
func (b BoundingBox) Union(other BoundingBox) BoundingBox {
	return BoundingBox{
		X0: min(b.X0, other.X0),
		Y0: min(b.Y0, other.Y0),
		X1: max(b.X1, other.X1),
		Y1: max(b.Y1, other.Y1),
	}
}

// Objects represents the objects found on a page
type Objects struct {
	Chars []CharObject
	Lines []LineObject
	Rects []RectObject
}

// CharObject represents a single glyph on the page
type CharObject struct {
	Text     string
	Font     string
	FontSize float64
	X0       float64
	Y0       float64
	X1       float64
	Y1       float64

	// Seq is the position of the glyph in content order on its page
	Seq int
}

// Center returns the midpoint of the character box
func (c CharObject) Center() (float64, float64) {
	return (c.X0 + c.X1) / 2, (c.Y0 + c.Y1) / 2
}

// LineObject represents a stroked straight line
type LineObject struct {
	X0    float64
	Y0    float64
	X1    float64
	Y1    float64
	Width float64
}

// RectObject represents a painted rectangle
type RectObject struct {
	X0      float64
	Y0      float64
	X1      float64
	Y1      float64
	Stroked bool
	Filled  bool
}

// Word is a run of characters on one line without a gap wider than the
// word tolerance
type Word struct {
	Text       string
	X0         float64
	Y0         float64
	X1         float64
	Y1         float64
	Characters []CharObject
}

// Cell is one grid slot of a table. Valid is false for a slot covered by
// a merged neighbour, which carries no text of its own.
type Cell struct {
	Text  string
	Valid bool
}

// Empty reports whether the cell is absent or holds no text
func (c Cell) Empty() bool {
	return !c.Valid || c.Text == ""
}

// Table represents an extracted table
type Table struct {
	Rows [][]Cell
	BBox BoundingBox
}

// Strings returns the table as plain text rows; absent cells become ""
func (t Table) Strings() [][]string {
	rows := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rows[i] = make([]string, len(row))
		for j, cell := range row {
			rows[i][j] = cell.Text
		}
	}
	return rows
}
