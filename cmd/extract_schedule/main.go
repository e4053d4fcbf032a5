// Command extract_schedule reads the timetable tables of a PDF and prints
// the schedule as JSON.
//
//	extract_schedule [flags] <pdf_path>
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pyhub-apps/pdfschedule/pkg/config"
	"github.com/pyhub-apps/pdfschedule/pkg/exporter"
	"github.com/pyhub-apps/pdfschedule/pkg/timetable"
)

const usage = "Usage: extract_schedule <pdf_path>"

// errReported marks failures whose message was already written to stderr
var errReported = errors.New("reported")

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract_schedule <pdf_path>",
		Short: "Extract a class timetable from a PDF as JSON",
		Long: `extract_schedule finds the ruled tables of a timetable PDF and turns every
row whose first cell names a day into a record of timed events. Event cells
hold a time, a subject, a class and a room on successive lines.

The schedule is printed as JSON by default. Settings may also come from
EXTRACT_SCHEDULE_* environment variables or from extract-schedule.yaml in the
working directory or in ~/.config/extract-schedule/.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				fmt.Fprintln(stderr, usage)
				return errReported
			}
			return extract(cmd, args[0], stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		fmt.Fprintln(stderr, usage)
		return err
	})

	flags := cmd.Flags()
	flags.String("config", "", "config file (default: ./extract-schedule.yaml or ~/.config/extract-schedule/extract-schedule.yaml)")
	flags.String("format", string(exporter.FormatJSON), "output format: json, yaml or ics")
	flags.Bool("summary", false, "wrap the schedule with totalEvents and totalDays")
	flags.String("strategy", "lines", "table detection: lines, text or auto")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.String("timezone", "", "IANA time zone for calendar events (default: local)")
	flags.Duration("event-duration", exporter.DefaultEventDuration, "calendar event length when a time has no end")
	flags.Float64("snap-tolerance", 3, "distance within which parallel ruling lines are aligned")
	flags.Float64("join-tolerance", 3, "gap across which collinear ruling lines are joined")
	flags.Float64("text-tolerance", 3, "vertical distance within which characters share a line")
	flags.Float64("intersection-tolerance", 3, "distance within which ruling lines are considered to cross")

	return cmd
}

func extract(cmd *cobra.Command, path string, stdout, stderr io.Writer) error {
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(stderr, "Error: File %s does not exist\n", path)
		return errReported
	}

	v := config.New()
	if err := config.BindFlags(v, cmd.Flags()); err != nil {
		return err
	}
	cfgFile, _ := cmd.Flags().GetString("config")
	if _, err := config.ReadFile(v, cfgFile); err != nil {
		return err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	previous := slog.Default()
	slog.SetDefault(logger)
	defer slog.SetDefault(previous)

	extractor := timetable.NewExtractor(
		timetable.WithLogger(logger),
		timetable.WithTableOptions(cfg.TableOptions()...),
	)
	schedule, err := extractor.Extract(cmd.Context(), path)
	if err != nil {
		fmt.Fprintln(stderr, "Error: Failed to extract schedule from PDF")
		return errReported
	}

	var out bytes.Buffer
	if err := exporter.Write(&out, cfg.Format, schedule, cfg.ExportOptions()); err != nil {
		return err
	}
	_, err = out.WriteTo(stdout)
	return err
}
