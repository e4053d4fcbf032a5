package pdf

import "fmt"

// TextExtractionOption is a function that modifies text extraction behavior
type TextExtractionOption func(*textExtractionConfig)

type textExtractionConfig struct {
	XTolerance float64
	YTolerance float64
}

func newTextExtractionConfig(opts []TextExtractionOption) textExtractionConfig {
	config := textExtractionConfig{
		XTolerance: 3.0,
		YTolerance: 3.0,
	}
	for _, opt := range opts {
		opt(&config)
	}
	return config
}

// WithXTolerance sets the horizontal gap that splits two words
func WithXTolerance(tolerance float64) TextExtractionOption {
	return func(c *textExtractionConfig) {
		c.XTolerance = tolerance
	}
}

// WithYTolerance sets the vertical distance within which chars share a line
func WithYTolerance(tolerance float64) TextExtractionOption {
	return func(c *textExtractionConfig) {
		c.YTolerance = tolerance
	}
}

// Strategy selects how table boundaries are found
type Strategy string

const (
	// StrategyLines builds cells from ruling lines and rectangle edges
	StrategyLines Strategy = "lines"
	// StrategyText infers columns from aligned words
	StrategyText Strategy = "text"
	// StrategyAuto uses lines and falls back to text on pages without ruled tables
	StrategyAuto Strategy = "auto"
)

// ParseStrategy validates a strategy name
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyLines, StrategyText, StrategyAuto:
		return Strategy(s), nil
	}
	return "", fmt.Errorf("unknown table strategy %q (want lines, text or auto)", s)
}

// TableExtractionOption is a function that modifies table extraction behavior
type TableExtractionOption func(*tableExtractionConfig)

type tableExtractionConfig struct {
	Strategy              Strategy
	MinTableSize          int
	SnapTolerance         float64
	JoinTolerance         float64
	IntersectionTolerance float64
	EdgeMinLength         float64
	TextTolerance         float64
	TextXTolerance        float64
}

func newTableExtractionConfig(opts []TableExtractionOption) tableExtractionConfig {
	config := tableExtractionConfig{
		Strategy:              StrategyLines,
		MinTableSize:          1,
		SnapTolerance:         3.0,
		JoinTolerance:         3.0,
		IntersectionTolerance: 3.0,
		EdgeMinLength:         3.0,
		TextTolerance:         3.0,
		TextXTolerance:        3.0,
	}
	for _, opt := range opts {
		opt(&config)
	}
	return config
}

// WithStrategy selects the table finding strategy
func WithStrategy(strategy Strategy) TableExtractionOption {
	return func(c *tableExtractionConfig) {
		c.Strategy = strategy
	}
}

// WithMinTableSize drops tables with fewer rows
func WithMinTableSize(rows int) TableExtractionOption {
	return func(c *tableExtractionConfig) {
		c.MinTableSize = rows
	}
}

// WithSnapTolerance sets the distance within which parallel edges are aligned
func WithSnapTolerance(tolerance float64) TableExtractionOption {
	return func(c *tableExtractionConfig) {
		c.SnapTolerance = tolerance
	}
}

// WithJoinTolerance sets the gap across which collinear edges are merged
func WithJoinTolerance(tolerance float64) TableExtractionOption {
	return func(c *tableExtractionConfig) {
		c.JoinTolerance = tolerance
	}
}

// WithIntersectionTolerance sets how far an edge may stop short of a crossing
func WithIntersectionTolerance(tolerance float64) TableExtractionOption {
	return func(c *tableExtractionConfig) {
		c.IntersectionTolerance = tolerance
	}
}

// WithTextTolerance sets the vertical tolerance used to group cell text into lines
func WithTextTolerance(tolerance float64) TableExtractionOption {
	return func(c *tableExtractionConfig) {
		c.TextTolerance = tolerance
	}
}
