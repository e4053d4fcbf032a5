// Command debug_tables prints every table detected on each page of a PDF
// together with the day records read from it.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/pyhub-apps/pdfschedule/pkg/pdf"
	"github.com/pyhub-apps/pdfschedule/pkg/timetable"
)

// absentCell marks a grid slot covered by a merged neighbour
const absentCell = "·"

var (
	pageStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true)
	tableStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	dayStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
)

func main() {
	cmd := newRootCmd(os.Stdout)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	var (
		strategy string
		width    int
		verbose  bool
	)

	cmd := &cobra.Command{
		Use:   "debug_tables <pdf_path>",
		Short: "Show the tables detected in a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := pdf.ParseStrategy(strategy)
			if err != nil {
				return err
			}
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))

			return dump(out, args[0], width, pdf.WithStrategy(s))
		},
	}
	cmd.SetOut(out)
	cmd.Flags().StringVar(&strategy, "strategy", string(pdf.StrategyLines), "table detection: lines, text or auto")
	cmd.Flags().IntVar(&width, "width", 24, "maximum display width of a cell line")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log detection details")
	return cmd
}

func dump(out io.Writer, path string, width int, opts ...pdf.TableExtractionOption) error {
	doc, err := pdf.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer doc.Close()

	fmt.Fprintf(out, "%s: %d page(s)\n", path, doc.PageCount())

	for _, page := range doc.GetPages() {
		objects := page.GetObjects()
		fmt.Fprintln(out, pageStyle.Render(fmt.Sprintf("\n=== Page %d ===", page.GetPageNumber())))
		fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("%.0fx%.0f, %d chars, %d lines, %d rects",
			page.GetWidth(), page.GetHeight(), len(objects.Chars), len(objects.Lines), len(objects.Rects))))

		tables, err := page.ExtractTables(opts...)
		if err != nil {
			return fmt.Errorf("page %d: %w", page.GetPageNumber(), err)
		}
		if len(tables) == 0 {
			fmt.Fprintln(out, mutedStyle.Render("no tables"))
			continue
		}

		for i, t := range tables {
			fmt.Fprintln(out, tableStyle.Render(fmt.Sprintf("Table %d: %d row(s), %.1fx%.1f at (%.1f, %.1f)",
				i+1, len(t.Rows), t.BBox.Width(), t.BBox.Height(), t.BBox.X0, t.BBox.Y0)))
			fmt.Fprintln(out, render(t, width))
			printRecords(out, t)
		}
	}
	return nil
}

// render draws the table grid with every cell line cut to width columns
func render(t pdf.Table, width int) string {
	grid := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle)

	for _, row := range t.Rows {
		texts := make([]string, len(row))
		for j, cell := range row {
			texts[j] = displayCell(cell, width)
		}
		grid.Row(texts...)
	}
	return grid.String()
}

func displayCell(cell pdf.Cell, width int) string {
	if !cell.Valid {
		return absentCell
	}
	lines := strings.Split(cell.Text, "\n")
	for i, line := range lines {
		lines[i] = runewidth.Truncate(line, width, "…")
	}
	return strings.Join(lines, "\n")
}

func printRecords(out io.Writer, t pdf.Table) {
	if !timetable.AcceptTable(t) {
		fmt.Fprintln(out, mutedStyle.Render("  skipped: first row has fewer than two cells"))
		return
	}
	records := timetable.InterpretTable(t)
	if len(records) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("  no day rows"))
		return
	}
	for _, r := range records {
		fmt.Fprintf(out, "  %s %s\n", dayStyle.Render(r.Day), mutedStyle.Render(r.Date))
		for _, e := range r.Events {
			fmt.Fprintf(out, "    %-6s %s / %s / %s\n", e.Time, e.Subject, e.Class, e.Room)
		}
	}
}
