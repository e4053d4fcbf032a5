package timetable

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pyhub-apps/pdfschedule/pkg/pdf"
)

// ErrExtractionFailed marks any failure while opening or reading a document.
// The cause is wrapped alongside it.
var ErrExtractionFailed = errors.New("failed to extract schedule from PDF")

// TableSource is an open document seen as pages of tables
type TableSource interface {
	// PageCount returns the number of pages
	PageCount() int

	// PageTables returns the tables of a page (0-based) in detection order
	PageTables(index int) ([]pdf.Table, error)

	// Close releases the document
	Close() error
}

// Opener opens the document at path
type Opener func(path string) (TableSource, error)

// OpenPDF returns an Opener backed by the pdf package
func OpenPDF(opts ...pdf.TableExtractionOption) Opener {
	return func(path string) (TableSource, error) {
		doc, err := pdf.Open(path)
		if err != nil {
			return nil, err
		}
		return &pdfSource{doc: doc, opts: opts}, nil
	}
}

type pdfSource struct {
	doc  pdf.Document
	opts []pdf.TableExtractionOption
}

func (s *pdfSource) PageCount() int {
	return s.doc.PageCount()
}

func (s *pdfSource) PageTables(index int) ([]pdf.Table, error) {
	page, err := s.doc.GetPage(index)
	if err != nil {
		return nil, err
	}
	return page.ExtractTables(s.opts...)
}

func (s *pdfSource) Close() error {
	return s.doc.Close()
}

// Extractor reads schedules from timetable documents
type Extractor struct {
	open   Opener
	logger *slog.Logger
}

// Option configures an Extractor
type Option func(*Extractor)

// WithOpener replaces the document opener
func WithOpener(open Opener) Option {
	return func(e *Extractor) {
		e.open = open
	}
}

// WithLogger sets the logger that receives extraction failures
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// WithTableOptions configures table detection of the default opener
func WithTableOptions(opts ...pdf.TableExtractionOption) Option {
	return func(e *Extractor) {
		e.open = OpenPDF(opts...)
	}
}

// NewExtractor creates an extractor reading PDFs with default table settings
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		open:   OpenPDF(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract reads every table of the document at path and returns the day
// records in page, table and row order. Extraction is all or nothing: on
// any failure the cause is logged, the schedule is nil and the error wraps
// ErrExtractionFailed. A document without timetable rows yields an empty,
// non-nil schedule.
func (e *Extractor) Extract(ctx context.Context, path string) (Schedule, error) {
	schedule, err := e.extract(ctx, path)
	if err != nil {
		e.logger.Error("Error processing PDF: "+err.Error(), "path", path)
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	return schedule, nil
}

func (e *Extractor) extract(ctx context.Context, path string) (schedule Schedule, err error) {
	defer func() {
		if r := recover(); r != nil {
			schedule, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()

	src, err := e.open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := src.Close(); cerr != nil && err == nil {
			schedule, err = nil, fmt.Errorf("close: %w", cerr)
		}
	}()

	schedule = Schedule{}
	for i := 0; i < src.PageCount(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tables, err := src.PageTables(i)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		for _, table := range tables {
			schedule = append(schedule, InterpretTable(table)...)
		}
	}

	return schedule, nil
}
