package timetable

import (
	"strings"

	"github.com/pyhub-apps/pdfschedule/pkg/pdf"
)

// minRowCells is the narrowest row read as a day: day cell plus two slots
const minRowCells = 3

// AcceptTable rejects empty tables and tables whose first row has fewer
// than two cells. Only the shape is inspected.
func AcceptTable(t pdf.Table) bool {
	return len(t.Rows) > 0 && len(t.Rows[0]) >= 2
}

// InterpretRow converts one table row into a day record. ok is false when
// the row has fewer than three cells or its first cell is empty.
func InterpretRow(row []pdf.Cell) (DayRecord, bool) {
	if len(row) < minRowCells || row[0].Empty() {
		return DayRecord{}, false
	}

	dayDate := strings.Split(trimSpace(row[0].Text), "\n")
	record := DayRecord{
		Day:    dayDate[0],
		Events: []Event{},
	}
	if len(dayDate) > 1 {
		record.Date = dayDate[1]
	}

	for _, cell := range row[1:] {
		if ClassifyCell(cell) != EventCell {
			continue
		}
		record.Events = append(record.Events, SplitEventLines(cell.Text).Event())
	}

	return record, true
}

// InterpretTable applies AcceptTable and then InterpretRow to every row
func InterpretTable(t pdf.Table) []DayRecord {
	if !AcceptTable(t) {
		return nil
	}

	var records []DayRecord
	for _, row := range t.Rows {
		if record, ok := InterpretRow(row); ok {
			records = append(records, record)
		}
	}
	return records
}
