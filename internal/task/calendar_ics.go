package task

import (
	"fmt"
	"strings"
	"time"
)

const icsDateLayout = "20060102"

// BuildTaskCalendarICS builds an all-day iCalendar event on the task's due
// date repeating every Recurrence days.
func BuildTaskCalendarICS(t Task, now time.Time) (string, error) {
	if t.DueDate.IsZero() {
		return "", fmt.Errorf("task due date required for calendar export")
	}
	due := Day(t.DueDate)
	end := due.AddDate(0, 0, 1)

	title := strings.TrimSpace(t.Name)
	if title == "" {
		title = "Household Task"
	}

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//hometasks//Task Export//EN",
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
		"BEGIN:VEVENT",
		"UID:" + escapeICSText(fmt.Sprintf("task-%d@hometasks", t.ID)),
		"DTSTAMP:" + now.UTC().Format("20060102T150405Z"),
		"SUMMARY:" + escapeICSText(title),
		"DTSTART;VALUE=DATE:" + due.Format(icsDateLayout),
		"DTEND;VALUE=DATE:" + end.Format(icsDateLayout),
	}
	if notes := strings.TrimSpace(t.Notes); notes != "" {
		lines = append(lines, "DESCRIPTION:"+escapeICSText(notes))
	}
	if t.Recurrence > 0 {
		lines = append(lines, fmt.Sprintf("RRULE:FREQ=DAILY;INTERVAL=%d", t.Recurrence))
	}
	lines = append(lines, "END:VEVENT", "END:VCALENDAR", "")

	return strings.Join(lines, "\r\n"), nil
}

func escapeICSText(s string) string {
	repl := strings.NewReplacer(
		"\\", "\\\\",
		";", "\\;",
		",", "\\,",
		"\r\n", "\\n",
		"\n", "\\n",
		"\r", "\\n",
	)
	return repl.Replace(s)
}
