// Package exporter writes schedules as JSON, YAML or iCalendar.
package exporter

import (
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pyhub-apps/pdfschedule/pkg/timetable"
)

// Format names an output format
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatICS  Format = "ics"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatYAML, FormatICS:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown output format %q (want json, yaml or ics)", s)
}

// Options controls how a schedule is written
type Options struct {
	// Summary wraps JSON and YAML output in an object carrying totals
	Summary bool

	// ICS configures calendar output
	ICS ICSOptions
}

// Write renders the schedule in the given format
func Write(w io.Writer, format Format, schedule timetable.Schedule, opts Options) error {
	if schedule == nil {
		schedule = timetable.Schedule{}
	}

	var doc any = schedule
	if opts.Summary {
		doc = timetable.Summarize(schedule)
	}

	switch format {
	case FormatJSON:
		return WriteJSON(w, doc)
	case FormatYAML:
		return WriteYAML(w, doc)
	case FormatICS:
		_, err := WriteICS(w, schedule, opts.ICS)
		return err
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// WriteJSON writes v as JSON indented by two spaces, followed by a newline.
// Non-ASCII and HTML characters are written literally.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// WriteYAML writes v as a YAML document indented by two spaces
func WriteYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return enc.Close()
}
