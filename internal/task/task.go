package task

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// DateLayout is the on-store format of due dates.
const DateLayout = "2006-01-02"

var (
	ErrNotFound          = errors.New("task not found")
	ErrEmptyName         = errors.New("task name is required")
	ErrInvalidRecurrence = errors.New("recurrence must be at least 1 day")
	ErrInvalidDate       = errors.New("due date must be YYYY-MM-DD")
	ErrStoreUnreadable   = errors.New("task store unreadable")
	ErrMalformedRows     = errors.New("task store has rows that cannot be read")
)

// Task is a recurring chore. DueDate is a calendar day held at midnight UTC.
type Task struct {
	ID         int
	Name       string
	DueDate    time.Time
	Recurrence int
	Notes      string
}

type taskJSON struct {
	ID         int    `json:"id"`
	Name       string `json:"task"`
	DueDate    string `json:"dueDate"`
	Recurrence int    `json:"recurrence"`
	Notes      string `json:"notes"`
}

func (t Task) MarshalJSON() ([]byte, error) {
	return json.Marshal(taskJSON{
		ID:         t.ID,
		Name:       t.Name,
		DueDate:    FormatDate(t.DueDate),
		Recurrence: t.Recurrence,
		Notes:      t.Notes,
	})
}

// Day truncates t to its calendar date, read in t's own location, and
// returns that date at midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays moves a calendar date by n days.
func AddDays(d time.Time, n int) time.Time {
	return Day(d).AddDate(0, 0, n)
}

// DaysBetween returns the number of calendar days from -> to.
func DaysBetween(from, to time.Time) int {
	return int(math.Round(Day(to).Sub(Day(from)).Hours() / 24))
}

func FormatDate(d time.Time) string {
	if d.IsZero() {
		return ""
	}
	return Day(d).Format(DateLayout)
}

// ParseDate accepts YYYY-MM-DD. Timestamps written by spreadsheet tools
// ("2024-01-05 00:00:00", RFC 3339) are cut to their date part; any other
// trailing text is an error.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(DateLayout) {
		if sep := s[len(DateLayout)]; sep != ' ' && sep != 'T' {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
		}
		s = s[:len(DateLayout)]
	}
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}
