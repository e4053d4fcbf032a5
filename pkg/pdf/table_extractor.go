package pdf

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sort"

	"github.com/tidwall/rtree"
	"golang.org/x/text/unicode/norm"
)

// tableExtractor finds tables on a single page
type tableExtractor struct {
	page   Page
	config tableExtractionConfig
}

// newTableExtractor creates a new table extractor with default settings
func newTableExtractor(page Page, opts ...TableExtractionOption) *tableExtractor {
	return &tableExtractor{
		page:   page,
		config: newTableExtractionConfig(opts),
	}
}

// ExtractTables extracts tables from the page in detection order:
// top to bottom, then left to right
func (te *tableExtractor) ExtractTables() ([]Table, error) {
	objects := te.page.GetObjects()

	var tables []Table
	switch te.config.Strategy {
	case StrategyLines:
		tables = te.extractLineBasedTables(objects)
	case StrategyText:
		tables = te.extractTextBasedTables()
	case StrategyAuto:
		tables = te.extractLineBasedTables(objects)
		if len(tables) == 0 {
			tables = te.extractTextBasedTables()
		}
	default:
		return nil, fmt.Errorf("unknown table strategy %q", te.config.Strategy)
	}

	result := make([]Table, 0, len(tables))
	for _, table := range tables {
		if len(table.Rows) >= te.config.MinTableSize {
			result = append(result, table)
		}
	}
	return result, nil
}

// edge is a horizontal or vertical ruling. For horizontal edges pos is the
// y coordinate and start/end span x; for vertical edges the reverse.
type edge struct {
	horizontal bool
	pos        float64
	start      float64
	end        float64
}

func (e edge) length() float64 {
	return e.end - e.start
}

// intersection is a point where vertical and horizontal edges cross,
// with the indices of the edges that meet there
type intersection struct {
	x, y   float64
	hEdges []int
	vEdges []int
}

// cellBox is a detected cell in top-left page coordinates
type cellBox struct {
	x0, top, x1, bottom float64
}

func (c cellBox) corners() [4][2]float64 {
	return [4][2]float64{
		{c.x0, c.top}, {c.x1, c.top},
		{c.x0, c.bottom}, {c.x1, c.bottom},
	}
}

// extractLineBasedTables builds cells from the page's ruling lines and
// rectangle edges and groups the cells into tables
func (te *tableExtractor) extractLineBasedTables(objects Objects) []Table {
	pageNum := te.page.GetPageNumber()

	hEdges, vEdges := te.collectEdges(objects)
	slog.Debug("merged edges", "page", pageNum, "hEdges", len(hEdges), "vEdges", len(vEdges))
	if len(hEdges) < 2 || len(vEdges) < 2 {
		return nil
	}

	var tr rtree.RTreeG[*intersection]
	points := findIntersections(hEdges, vEdges, te.config.IntersectionTolerance, &tr)
	slog.Debug("found intersection points", "page", pageNum, "count", len(points))
	if len(points) < 4 {
		return nil
	}

	cells := findCells(points, &tr)
	slog.Debug("found cells", "page", pageNum, "count", len(cells))

	groups := groupCells(cells)
	if len(groups) == 0 {
		return nil
	}

	chars := indexChars(objects.Chars)
	tables := make([]Table, 0, len(groups))
	for _, group := range groups {
		tables = append(tables, te.buildTable(group, chars))
	}
	slog.Debug("found tables", "page", pageNum, "count", len(tables))

	return tables
}

// collectEdges turns lines and rectangle sides into snapped, joined edges
func (te *tableExtractor) collectEdges(objects Objects) ([]edge, []edge) {
	var hEdges, vEdges []edge
	snap := te.config.SnapTolerance

	for _, line := range objects.Lines {
		switch {
		case math.Abs(line.Y0-line.Y1) <= snap:
			hEdges = append(hEdges, edge{
				horizontal: true,
				pos:        (line.Y0 + line.Y1) / 2,
				start:      min(line.X0, line.X1),
				end:        max(line.X0, line.X1),
			})
		case math.Abs(line.X0-line.X1) <= snap:
			vEdges = append(vEdges, edge{
				pos:   (line.X0 + line.X1) / 2,
				start: min(line.Y0, line.Y1),
				end:   max(line.Y0, line.Y1),
			})
		}
	}

	for _, rect := range objects.Rects {
		hEdges = append(hEdges,
			edge{horizontal: true, pos: rect.Y0, start: rect.X0, end: rect.X1},
			edge{horizontal: true, pos: rect.Y1, start: rect.X0, end: rect.X1})
		vEdges = append(vEdges,
			edge{pos: rect.X0, start: rect.Y0, end: rect.Y1},
			edge{pos: rect.X1, start: rect.Y0, end: rect.Y1})
	}

	hEdges = te.mergeEdges(hEdges)
	vEdges = te.mergeEdges(vEdges)
	return hEdges, vEdges
}

// mergeEdges snaps parallel edges onto shared positions, joins collinear
// pieces and drops edges that are too short to bound a cell
func (te *tableExtractor) mergeEdges(edges []edge) []edge {
	edges = joinEdges(snapEdges(edges, te.config.SnapTolerance), te.config.JoinTolerance)

	result := edges[:0]
	for _, e := range edges {
		if e.length() >= te.config.EdgeMinLength {
			result = append(result, e)
		}
	}
	return result
}

// snapEdges clusters edge positions (a new cluster starts when the gap to
// the previous position exceeds tolerance) and moves each edge to the mean
// position of its cluster
func snapEdges(edges []edge, tolerance float64) []edge {
	if len(edges) == 0 {
		return nil
	}

	sorted := make([]edge, len(edges))
	copy(sorted, edges)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].pos < sorted[j].pos
	})

	start := 0
	for i := 1; i <= len(sorted); i++ {
		if i < len(sorted) && sorted[i].pos-sorted[i-1].pos <= tolerance {
			continue
		}
		sum := 0.0
		for _, e := range sorted[start:i] {
			sum += e.pos
		}
		mean := sum / float64(i-start)
		for k := start; k < i; k++ {
			sorted[k].pos = mean
		}
		start = i
	}
	return sorted
}

// joinEdges merges edges on the same position whose gap is within tolerance
func joinEdges(edges []edge, tolerance float64) []edge {
	sort.SliceStable(edges, func(i, j int) bool {
		if edges[i].pos != edges[j].pos {
			return edges[i].pos < edges[j].pos
		}
		return edges[i].start < edges[j].start
	})

	var joined []edge
	for _, e := range edges {
		if n := len(joined); n > 0 {
			last := &joined[n-1]
			if last.pos == e.pos && e.start <= last.end+tolerance {
				last.end = max(last.end, e.end)
				continue
			}
		}
		joined = append(joined, e)
	}
	return joined
}

// findIntersections records every crossing of a vertical and a horizontal
// edge in tr and returns the distinct points
func findIntersections(hEdges, vEdges []edge, tolerance float64, tr *rtree.RTreeG[*intersection]) []*intersection {
	var points []*intersection

	for vi, v := range vEdges {
		for hi, h := range hEdges {
			if v.start > h.pos+tolerance || v.end < h.pos-tolerance {
				continue
			}
			if v.pos < h.start-tolerance || v.pos > h.end+tolerance {
				continue
			}

			p := lookupIntersection(tr, v.pos, h.pos)
			if p == nil {
				p = &intersection{x: v.pos, y: h.pos}
				pt := [2]float64{p.x, p.y}
				tr.Insert(pt, pt, p)
				points = append(points, p)
			}
			p.hEdges = append(p.hEdges, hi)
			p.vEdges = append(p.vEdges, vi)
		}
	}
	return points
}

func lookupIntersection(tr *rtree.RTreeG[*intersection], x, y float64) *intersection {
	var found *intersection
	pt := [2]float64{x, y}
	tr.Search(pt, pt, func(_, _ [2]float64, p *intersection) bool {
		if p.x == x && p.y == y {
			found = p
			return false
		}
		return true
	})
	return found
}

// edgeConnects reports whether two intersections lie on a common edge
func edgeConnects(a, b *intersection) bool {
	switch {
	case a.x == b.x:
		return sharesIndex(a.vEdges, b.vEdges)
	case a.y == b.y:
		return sharesIndex(a.hEdges, b.hEdges)
	}
	return false
}

func sharesIndex(a, b []int) bool {
	for _, i := range a {
		for _, j := range b {
			if i == j {
				return true
			}
		}
	}
	return false
}

// findCells finds, for each intersection, the smallest rectangle having it
// as top-left corner whose four corners are intersections joined by edges
func findCells(points []*intersection, tr *rtree.RTreeG[*intersection]) []cellBox {
	sorted := make([]*intersection, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].x != sorted[j].x {
			return sorted[i].x < sorted[j].x
		}
		return sorted[i].y < sorted[j].y
	})

	// Points sharing a y, ordered left to right.
	rows := make(map[float64][]*intersection)
	for _, p := range sorted {
		rows[p.y] = append(rows[p.y], p)
	}

	var cells []cellBox
points:
	for i, p := range sorted {
		for j := i + 1; j < len(sorted) && sorted[j].x == p.x; j++ {
			below := sorted[j]
			if !edgeConnects(p, below) {
				continue
			}
			for _, right := range rows[p.y] {
				if right.x <= p.x || !edgeConnects(p, right) {
					continue
				}
				corner := lookupIntersection(tr, right.x, below.y)
				if corner != nil && edgeConnects(corner, right) && edgeConnects(corner, below) {
					cells = append(cells, cellBox{x0: p.x, top: p.y, x1: right.x, bottom: below.y})
					continue points
				}
			}
		}
	}
	return cells
}

// groupCells splits cells into tables: connected groups of cells sharing a
// corner. Single-cell groups are dropped. Tables are ordered by their
// top-most, then left-most corner.
func groupCells(cells []cellBox) [][]cellBox {
	parent := make([]int, len(cells))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}

	owner := make(map[[2]float64]int)
	for i, c := range cells {
		for _, corner := range c.corners() {
			if j, ok := owner[corner]; ok {
				parent[find(i)] = find(j)
			} else {
				owner[corner] = i
			}
		}
	}

	var order []int
	members := make(map[int][]cellBox)
	for i, c := range cells {
		root := find(i)
		if _, ok := members[root]; !ok {
			order = append(order, root)
		}
		members[root] = append(members[root], c)
	}

	var groups [][]cellBox
	for _, root := range order {
		if len(members[root]) > 1 {
			groups = append(groups, members[root])
		}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		ti, xi := groupOrigin(groups[i])
		tj, xj := groupOrigin(groups[j])
		if ti != tj {
			return ti < tj
		}
		return xi < xj
	})
	return groups
}

// groupOrigin returns the smallest (top, x0) pair among the cells
func groupOrigin(cells []cellBox) (float64, float64) {
	top, x0 := cells[0].top, cells[0].x0
	for _, c := range cells[1:] {
		if c.top < top || (c.top == top && c.x0 < x0) {
			top, x0 = c.top, c.x0
		}
	}
	return top, x0
}

// indexChars stores characters by their centre point
func indexChars(chars []CharObject) *rtree.RTreeG[CharObject] {
	var tr rtree.RTreeG[CharObject]
	for _, c := range chars {
		cx, cy := c.Center()
		pt := [2]float64{cx, cy}
		tr.Insert(pt, pt, c)
	}
	return &tr
}

// buildTable lays cells out on the grid of distinct cell tops and lefts.
// Grid slots that no cell starts in stay invalid.
func (te *tableExtractor) buildTable(cells []cellBox, chars *rtree.RTreeG[CharObject]) Table {
	xs := distinct(cells, func(c cellBox) float64 { return c.x0 })
	tops := distinct(cells, func(c cellBox) float64 { return c.top })

	column := make(map[float64]int, len(xs))
	for i, x := range xs {
		column[x] = i
	}
	row := make(map[float64]int, len(tops))
	for i, y := range tops {
		row[y] = i
	}

	rows := make([][]Cell, len(tops))
	for i := range rows {
		rows[i] = make([]Cell, len(xs))
	}

	bbox := BoundingBox{X0: cells[0].x0, Y0: cells[0].top, X1: cells[0].x1, Y1: cells[0].bottom}
	for _, c := range cells {
		rows[row[c.top]][column[c.x0]] = Cell{
			Text:  te.cellText(c, chars),
			Valid: true,
		}
		bbox = bbox.Union(BoundingBox{X0: c.x0, Y0: c.top, X1: c.x1, Y1: c.bottom})
	}

	return Table{Rows: rows, BBox: bbox}
}

func distinct(cells []cellBox, key func(cellBox) float64) []float64 {
	seen := make(map[float64]bool)
	var values []float64
	for _, c := range cells {
		if v := key(c); !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	}
	sort.Float64s(values)
	return values
}

// cellText joins the characters whose centre lies inside the cell into
// lines separated by "\n"
func (te *tableExtractor) cellText(c cellBox, chars *rtree.RTreeG[CharObject]) string {
	var inside []CharObject
	chars.Search([2]float64{c.x0, c.top}, [2]float64{c.x1, c.bottom}, func(_, _ [2]float64, ch CharObject) bool {
		cx, cy := ch.Center()
		if cx >= c.x0 && cx < c.x1 && cy >= c.top && cy < c.bottom {
			inside = append(inside, ch)
		}
		return true
	})
	if len(inside) == 0 {
		return ""
	}

	text := charsToText(inside, te.config.TextXTolerance, te.config.TextTolerance)
	return norm.NFC.String(text)
}

// wordLine is a row of words sharing a baseline region
type wordLine struct {
	Words []Word
	Y     float64
	BBox  BoundingBox
}

// extractTextBasedTables infers a table from words aligned in columns.
// It is used for timetables drawn without ruling lines.
func (te *tableExtractor) extractTextBasedTables() []Table {
	words := te.page.ExtractWords(
		WithXTolerance(te.config.TextXTolerance),
		WithYTolerance(te.config.TextTolerance),
	)
	if len(words) == 0 {
		return nil
	}

	lines := te.groupWordsIntoLines(words)
	columns := te.findAlignedColumnsFromWords(lines)
	slog.Debug("text strategy", "page", te.page.GetPageNumber(), "lines", len(lines), "columns", len(columns))

	if len(columns) < 2 || len(lines) < 2 {
		return nil
	}
	return []Table{te.createTableFromWordLines(lines, columns)}
}

// groupWordsIntoLines groups words into lines based on Y position
func (te *tableExtractor) groupWordsIntoLines(words []Word) []wordLine {
	sortedWords := make([]Word, len(words))
	copy(sortedWords, words)
	sort.SliceStable(sortedWords, func(i, j int) bool {
		return sortedWords[i].Y0 < sortedWords[j].Y0
	})

	var lines []wordLine
	currentLine := wordLine{
		Words: []Word{sortedWords[0]},
		Y:     sortedWords[0].Y0,
	}

	for _, word := range sortedWords[1:] {
		if math.Abs(word.Y0-currentLine.Y) <= te.config.TextTolerance {
			currentLine.Words = append(currentLine.Words, word)
			continue
		}
		lines = append(lines, finalizeWordLine(currentLine))
		currentLine = wordLine{
			Words: []Word{word},
			Y:     word.Y0,
		}
	}
	lines = append(lines, finalizeWordLine(currentLine))

	return lines
}

// finalizeWordLine sorts the words left to right and computes the line box
func finalizeWordLine(line wordLine) wordLine {
	slices.SortStableFunc(line.Words, func(a, b Word) int {
		return byPosition(a.Characters[0], b.Characters[0])
	})

	first := line.Words[0]
	line.BBox = BoundingBox{X0: first.X0, Y0: first.Y0, X1: first.X1, Y1: first.Y1}
	for _, word := range line.Words[1:] {
		line.BBox = line.BBox.Union(BoundingBox{X0: word.X0, Y0: word.Y0, X1: word.X1, Y1: word.Y1})
	}

	return line
}

// findAlignedColumnsFromWords returns the x positions where words start in
// at least two lines and at least 30% of all lines
func (te *tableExtractor) findAlignedColumnsFromWords(lines []wordLine) []float64 {
	if len(lines) < 2 {
		return nil
	}

	snap := te.config.SnapTolerance
	xPositions := make(map[float64]int)
	for _, line := range lines {
		seen := make(map[float64]bool)
		for _, word := range line.Words {
			x := math.Round(word.X0/snap) * snap
			if !seen[x] {
				seen[x] = true
				xPositions[x]++
			}
		}
	}

	minCount := max(2, len(lines)*3/10)
	var columns []float64
	for x, count := range xPositions {
		if count >= minCount {
			columns = append(columns, x)
		}
	}

	sort.Float64s(columns)
	return columns
}

// createTableFromWordLines creates a table with one row per line
func (te *tableExtractor) createTableFromWordLines(lines []wordLine, columns []float64) Table {
	rows := make([][]Cell, len(lines))
	bbox := lines[0].BBox

	for i, line := range lines {
		bbox = bbox.Union(line.BBox)

		texts := make([]string, len(columns))
		for _, word := range line.Words {
			col := te.findWordColumn(word.X0, columns)
			if texts[col] != "" {
				texts[col] += " "
			}
			texts[col] += word.Text
		}

		rows[i] = make([]Cell, len(columns))
		for j, text := range texts {
			rows[i][j] = Cell{Text: norm.NFC.String(text), Valid: true}
		}
	}

	return Table{Rows: rows, BBox: bbox}
}

// findWordColumn returns the column whose anchor is nearest to wordX when
// within three snap distances, otherwise the last column starting left of it
func (te *tableExtractor) findWordColumn(wordX float64, columns []float64) int {
	bestCol := -1
	minDist := math.MaxFloat64
	for i, colX := range columns {
		dist := math.Abs(wordX - colX)
		if dist < minDist && dist < te.config.SnapTolerance*3 {
			minDist = dist
			bestCol = i
		}
	}
	if bestCol >= 0 {
		return bestCol
	}

	bestCol = 0
	for i, colX := range columns {
		if colX <= wordX {
			bestCol = i
		}
	}
	return bestCol
}
