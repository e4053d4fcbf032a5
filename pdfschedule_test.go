package pdfschedule

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyhub-apps/pdfschedule/internal/pdftest"
)

func TestExtractSchedule(t *testing.T) {
	fixture := pdftest.New()
	fixture.AddPage(400, 300).Grid(pdftest.Grid{
		Left:      20,
		Top:       280,
		ColWidths: []float64{60, 80, 80},
		RowHeight: 50,
		Rows: [][]string{
			{"Lundi\n02/09/2024", "08H30\nMaths\nL1\nB12", "Pause"},
		},
	})
	fixture.AddPage(400, 300).Grid(pdftest.Grid{
		Left:      20,
		Top:       280,
		ColWidths: []float64{60, 80, 80},
		RowHeight: 50,
		Rows: [][]string{
			{"Mardi", "", "9 H 15\nArt"},
		},
	})
	path := fixture.Write(t)

	schedule, err := ExtractSchedule(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, Schedule{
		{Day: "Lundi", Date: "02/09/2024", Events: []Event{{Time: "08:30", Subject: "Maths", Class: "L1", Room: "B12"}}},
		{Day: "Mardi", Events: []Event{{Time: "9:15", Subject: "Art"}}},
	}, schedule)

	summary := Summarize(schedule)
	assert.Equal(t, 2, summary.TotalEvents)
	assert.Equal(t, 2, summary.TotalDays)

	doc, err := Open(path)
	require.NoError(t, err)
	defer doc.Close()
	assert.Equal(t, 2, doc.PageCount())
}

func TestExtractScheduleFailure(t *testing.T) {
	schedule, err := ExtractSchedule(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Nil(t, schedule)
	assert.ErrorIs(t, err, ErrExtractionFailed)
}
