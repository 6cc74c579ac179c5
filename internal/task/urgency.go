package task

import "time"

// DueSoonDays is the last day offset still classified as due soon.
const DueSoonDays = 7

type Urgency string

const (
	Overdue  Urgency = "overdue"
	DueSoon  Urgency = "due_soon"
	Upcoming Urgency = "upcoming"
)

func (u Urgency) Label() string {
	switch u {
	case Overdue:
		return "Overdue"
	case DueSoon:
		return "Due Soon"
	case Upcoming:
		return "Upcoming"
	default:
		return string(u)
	}
}

// ClassifyUrgency buckets a task by how many days remain until it is due.
// It is recomputed on every view and never stored.
func ClassifyUrgency(t Task, today time.Time) Urgency {
	delta := DaysBetween(today, t.DueDate)
	switch {
	case delta < 0:
		return Overdue
	case delta <= DueSoonDays:
		return DueSoon
	default:
		return Upcoming
	}
}
