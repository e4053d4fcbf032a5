// Package pdfschedule extracts class timetables from PDF documents.
//
// A timetable is a ruled table whose rows start with a day cell and whose
// other cells hold events: a time, a subject, a class and a room on
// successive lines.
//
//	schedule, err := pdfschedule.ExtractSchedule(ctx, "timetable.pdf")
package pdfschedule

import (
	"context"

	"github.com/pyhub-apps/pdfschedule/pkg/pdf"
	"github.com/pyhub-apps/pdfschedule/pkg/timetable"
)

// Re-export types for the public API
type (
	Document              = pdf.Document
	Page                  = pdf.Page
	Table                 = pdf.Table
	Cell                  = pdf.Cell
	Strategy              = pdf.Strategy
	TableExtractionOption = pdf.TableExtractionOption
	Schedule              = timetable.Schedule
	DayRecord             = timetable.DayRecord
	Event                 = timetable.Event
	Summary               = timetable.Summary
)

// Re-export table detection options
var (
	WithStrategy              = pdf.WithStrategy
	WithMinTableSize          = pdf.WithMinTableSize
	WithSnapTolerance         = pdf.WithSnapTolerance
	WithJoinTolerance         = pdf.WithJoinTolerance
	WithIntersectionTolerance = pdf.WithIntersectionTolerance
	WithTextTolerance         = pdf.WithTextTolerance
)

// ErrExtractionFailed is wrapped by every error of ExtractSchedule
var ErrExtractionFailed = timetable.ErrExtractionFailed

// Open opens a PDF file and returns a Document
func Open(path string) (Document, error) {
	return pdf.Open(path)
}

// OpenWithPassword opens a password-protected PDF file
func OpenWithPassword(path string, password string) (Document, error) {
	return pdf.OpenWithPassword(path, password)
}

// ExtractSchedule reads the timetable of the PDF at path. It is all or
// nothing: on failure the schedule is nil and the error wraps
// ErrExtractionFailed.
func ExtractSchedule(ctx context.Context, path string, opts ...TableExtractionOption) (Schedule, error) {
	return timetable.NewExtractor(timetable.WithTableOptions(opts...)).Extract(ctx, path)
}

// Summarize wraps a schedule with its event and day totals
func Summarize(schedule Schedule) Summary {
	return timetable.Summarize(schedule)
}
