package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/pyhub-apps/pdfschedule/pkg/timetable"
)

// DefaultEventDuration is used for events whose time has no end
const DefaultEventDuration = 90 * time.Minute

// uidNamespace scopes the name-based event UIDs
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/pyhub-apps/pdfschedule"))

var (
	datePattern = regexp.MustCompile(`\d{1,4}[./-]\d{1,2}[./-]\d{1,4}`)
	timePattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})?(?:\s*(?:-|–|à)\s*(\d{1,2}):(\d{2})?)?`)
)

var dateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02/01/06",
	"2006-01-02",
	"02.01.2006",
	"2.1.2006",
	"02-01-2006",
}

// ICSOptions configures calendar output
type ICSOptions struct {
	// Location interprets dates and times; defaults to time.Local
	Location *time.Location

	// EventDuration applies to events without an end time
	EventDuration time.Duration

	// Now stamps DTSTAMP; defaults to time.Now
	Now func() time.Time
}

// WriteICS writes the events of the schedule as an iCalendar feed and
// returns how many events were skipped because their date or time could
// not be read
func WriteICS(w io.Writer, schedule timetable.Schedule, opts ICSOptions) (int, error) {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	duration := opts.EventDuration
	if duration <= 0 {
		duration = DefaultEventDuration
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	stamp := now()

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//pyhub-apps//pdfschedule//EN")

	skipped := 0
	for d, day := range schedule {
		date, ok := parseDate(day, loc)
		if !ok {
			skipped += len(day.Events)
			continue
		}

		for i, e := range day.Events {
			start, end, ok := parseTimes(date, e.Time, duration)
			if !ok {
				skipped++
				continue
			}

			event := cal.AddEvent(eventUID(d, day, i, e))
			event.SetDtStampTime(stamp)
			event.SetStartAt(start)
			event.SetEndAt(end)
			event.SetSummary(eventSummary(e))
			if e.Room != "" {
				event.SetLocation(e.Room)
			}
			if e.Class != "" {
				event.SetDescription(fmt.Sprintf("Class: %s", e.Class))
			}
		}
	}

	if skipped > 0 {
		slog.Warn("events without a readable date or time were left out of the calendar", "skipped", skipped)
	}

	return skipped, cal.SerializeTo(w)
}

// parseDate reads the day's date, looking in the date line first and then
// in the day line
func parseDate(day timetable.DayRecord, loc *time.Location) (time.Time, bool) {
	for _, s := range []string{day.Date, day.Day} {
		token := datePattern.FindString(s)
		if token == "" {
			continue
		}
		for _, layout := range dateLayouts {
			if t, err := time.ParseInLocation(layout, token, loc); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// parseTimes reads "HH:MM" or "HH:MM-HH:MM" at the start of an event time
func parseTimes(date time.Time, s string, duration time.Duration) (time.Time, time.Time, bool) {
	m := timePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return time.Time{}, time.Time{}, false
	}

	start, ok := clock(date, m[1], m[2])
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	if m[3] == "" {
		return start, start.Add(duration), true
	}

	end, ok := clock(date, m[3], m[4])
	if !ok || !end.After(start) {
		return start, start.Add(duration), true
	}
	return start, end, true
}

func clock(date time.Time, hour, minute string) (time.Time, bool) {
	h, err := strconv.Atoi(hour)
	if err != nil || h > 23 {
		return time.Time{}, false
	}
	mins := 0
	if minute != "" {
		if mins, err = strconv.Atoi(minute); err != nil || mins > 59 {
			return time.Time{}, false
		}
	}
	y, mo, d := date.Date()
	return time.Date(y, mo, d, h, mins, 0, 0, date.Location()), true
}

func eventSummary(e timetable.Event) string {
	if e.Subject != "" {
		return e.Subject
	}
	return e.Time
}

// eventUID derives a name-based UID from the event's position in the
// schedule and its content
func eventUID(record int, day timetable.DayRecord, index int, e timetable.Event) string {
	name := strings.Join([]string{
		strconv.Itoa(record), day.Day, day.Date, strconv.Itoa(index), e.Time, e.Subject, e.Class, e.Room,
	}, "\x1f")
	return uuid.NewSHA1(uidNamespace, []byte(name)).String() + "@pdfschedule"
}
