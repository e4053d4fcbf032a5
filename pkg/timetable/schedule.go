// Package timetable turns the tables detected in a timetable PDF into a
// schedule of days and timed events.
package timetable

// Event is one timed block of a day
type Event struct {
	Time    string `json:"time" yaml:"time"`
	Subject string `json:"subject" yaml:"subject"`
	Class   string `json:"class" yaml:"class"`
	Room    string `json:"room" yaml:"room"`
}

// DayRecord holds the events of one timetable row. Events is never nil.
type DayRecord struct {
	Day    string  `json:"day" yaml:"day"`
	Date   string  `json:"date" yaml:"date"`
	Events []Event `json:"events" yaml:"events"`
}

// Schedule is the ordered list of day records found in a document:
// page order, then table order, then row order
type Schedule []DayRecord

// Summary wraps a schedule with its totals
type Summary struct {
	Schedule    Schedule `json:"schedule" yaml:"schedule"`
	TotalEvents int      `json:"totalEvents" yaml:"totalEvents"`
	TotalDays   int      `json:"totalDays" yaml:"totalDays"`
}

// Summarize counts the days and events of a schedule
func Summarize(s Schedule) Summary {
	if s == nil {
		s = Schedule{}
	}
	summary := Summary{Schedule: s, TotalDays: len(s)}
	for _, day := range s {
		summary.TotalEvents += len(day.Events)
	}
	return summary
}
