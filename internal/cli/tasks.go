package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"hometasks/internal/task"
)

func newAddCmd(st *state) *cobra.Command {
	var (
		due        string
		recurrence int
		notes      string
	)
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a recurring task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := task.NewTask{Name: strings.Join(args, " "), Recurrence: recurrence, Notes: notes}
			if cmd.Flags().Changed("every") && recurrence < 1 {
				return task.ErrInvalidRecurrence
			}
			if due != "" {
				d, err := task.ParseDate(due)
				if err != nil {
					return err
				}
				in.DueDate = d
			}
			return st.withService(cmd.Context(), func(svc *task.Service) error {
				t, err := svc.Add(cmd.Context(), in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added: %s (#%d, due %s, every %d days)\n",
					t.Name, t.ID, task.FormatDate(t.DueDate), t.Recurrence)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&due, "due", "", "first due date, YYYY-MM-DD (default today)")
	cmd.Flags().IntVar(&recurrence, "every", 0, "repeat interval in days (default tasks.default_recurrence_days)")
	cmd.Flags().StringVar(&notes, "notes", "", "free-text notes")
	return cmd
}

var (
	overdueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	dueSoonStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	upcomingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func urgencyStyle(u task.Urgency) lipgloss.Style {
	switch u {
	case task.Overdue:
		return overdueStyle
	case task.DueSoon:
		return dueSoonStyle
	default:
		return upcomingStyle
	}
}

func printBoard(w io.Writer, b task.Board) {
	if len(b.Cards) == 0 {
		fmt.Fprintln(w, "No tasks found. Add one with `hometasks add`.")
		return
	}
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-4s %-10s %-9s %-10s %s", "ID", "Due", "In", "Status", "Task")))
	for _, c := range b.Cards {
		status := urgencyStyle(c.Urgency).Render(fmt.Sprintf("%-10s", c.Label))
		fmt.Fprintf(w, "%-4d %-10s %-9s %s %s %s\n",
			c.Task.ID,
			task.FormatDate(c.Task.DueDate),
			fmt.Sprintf("%+dd", c.DaysUntilDue),
			status,
			c.Task.Name,
			mutedStyle.Render(fmt.Sprintf("(every %d days)", c.Task.Recurrence)),
		)
	}
}

func newListCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks sorted by due date",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return st.withService(cmd.Context(), func(svc *task.Service) error {
				printBoard(cmd.OutOrStdout(), svc.Board(cmd.Context()))
				return nil
			})
		},
	}
}

func newCompleteCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <id>",
		Short: "Mark a task done and roll its due date forward",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}
			return st.withService(cmd.Context(), func(svc *task.Service) error {
				t, err := svc.Complete(cmd.Context(), id)
				if errors.Is(err, task.ErrNotFound) {
					return fmt.Errorf("task #%d: %w", id, err)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Done! Next due: %s\n", task.FormatDate(t.DueDate))
				return nil
			})
		},
	}
}

func newDeleteCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete every task with the given name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			return st.withService(cmd.Context(), func(svc *task.Service) error {
				removed, err := svc.Delete(cmd.Context(), name)
				if err != nil {
					return err
				}
				if removed == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No task named %q.\n", name)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d task(s) named %q.\n", removed, name)
				return nil
			})
		},
	}
}
