package page

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"hometasks/internal/task"
)

type DashboardData struct {
	Board             task.Board
	Flash             string
	DefaultRecurrence int
	// AuthEnabled shows the sign out button.
	AuthEnabled bool
}

func (d DashboardData) recurrence() int {
	if d.DefaultRecurrence < 1 {
		return task.DefaultRecurrenceDays
	}
	return d.DefaultRecurrence
}

func urgencyIcon(u task.Urgency) string {
	switch u {
	case task.Overdue:
		return "🔴"
	case task.DueSoon:
		return "🟠"
	default:
		return "🟢"
	}
}

func deltaText(days int) string {
	if days == 1 || days == -1 {
		return fmt.Sprintf("%d day", days)
	}
	return fmt.Sprintf("%d days", days)
}

func hasNotes(notes string) bool {
	return strings.TrimSpace(notes) != ""
}

func completeURL(id int) templ.SafeURL {
	return templ.URL("/tasks/" + strconv.Itoa(id) + "/complete")
}
