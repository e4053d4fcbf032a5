package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyhub-apps/pdfschedule/internal/pdftest"
)

func timetablePDF(t *testing.T) string {
	t.Helper()
	fixture := pdftest.New()
	fixture.AddPage(400, 300).
		Line(20, 280, 240, 280).
		Line(80, 230, 240, 230).
		Line(20, 180, 240, 180).
		Line(20, 280, 20, 180).
		Line(80, 280, 80, 180).
		Line(240, 280, 240, 180).
		CellText(20, 280, 8, "Lundi\n02/09/2024").
		CellText(80, 280, 8, "08H30\nMaths\nL1\nSalle B12").
		CellText(80, 230, 8, "Anglaisdelaprofessionsupérieure")
	return fixture.Write(t)
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestDumpTables(t *testing.T) {
	path := timetablePDF(t)
	stdout, _, err := execute(t, "--width", "10", path)
	require.NoError(t, err)

	for _, want := range []string{
		path + ": 1 page(s)",
		"=== Page 1 ===",
		"400x300",
		"6 lines",
		"Table 1: 2 row(s), 220.0x100.0 at (20.0, 20.0)",
		"Lundi",
		"02/09/2024",
		absentCell,
		"Anglaisde…",
		"08:30  Maths / L1 / Salle B12",
	} {
		assert.Contains(t, stdout, want)
	}
	assert.NotContains(t, stdout, "Anglaisdelaprofession")
}

func TestDumpPageWithoutTables(t *testing.T) {
	fixture := pdftest.New()
	fixture.AddPage(200, 100).Text(10, 50, 8, "Notes")

	stdout, _, err := execute(t, fixture.Write(t))
	require.NoError(t, err)
	assert.Contains(t, stdout, "no tables")
}

func TestDumpSkipsNarrowTables(t *testing.T) {
	fixture := pdftest.New()
	fixture.AddPage(200, 200).
		Line(20, 180, 120, 180).
		Line(20, 140, 120, 140).
		Line(20, 100, 120, 100).
		Line(20, 180, 20, 100).
		Line(120, 180, 120, 100).
		CellText(20, 180, 8, "Lundi").
		CellText(20, 140, 8, "Mardi")

	stdout, _, err := execute(t, fixture.Write(t))
	require.NoError(t, err)
	assert.Contains(t, stdout, "skipped: first row has fewer than two cells")
}

func TestDumpVerboseLogsToStderr(t *testing.T) {
	_, stderr, err := execute(t, "-v", "--strategy", "text", timetablePDF(t))
	require.NoError(t, err)
	assert.Contains(t, stderr, "level=DEBUG")
}

func TestDumpErrors(t *testing.T) {
	_, _, err := execute(t, "--strategy", "stream", timetablePDF(t))
	assert.Error(t, err)

	_, _, err = execute(t, filepath.Join(t.TempDir(), "absent.pdf"))
	assert.ErrorContains(t, err, "failed to open")

	_, _, err = execute(t)
	assert.Error(t, err)
}
