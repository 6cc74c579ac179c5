package task

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"hometasks/internal/gateway"
)

// Canonical column names of the backing table.
const (
	ColID         = "ID"
	ColTask       = "Task"
	ColDueDate    = "Due Date"
	ColRecurrence = "Recurrence"
	ColNotes      = "Notes"
)

// Columns is the fixed column set written on every save.
var Columns = []string{ColID, ColTask, ColDueDate, ColRecurrence, ColNotes}

// EmptyTable is what a new or unreadable store is treated as.
func EmptyTable() gateway.Table {
	return gateway.Table{Columns: append([]string(nil), Columns...), Rows: [][]string{}}
}

// FromTable decodes rows by column name; column order does not matter.
// A table without the ID column cannot be decoded at all. Rows that fail to
// decode are left out of the result and reported together in an error
// wrapping ErrMalformedRows. Blank rows are skipped.
func FromTable(t gateway.Table) ([]Task, error) {
	if !t.HasColumn(ColID) {
		return nil, fmt.Errorf("missing %q column", ColID)
	}

	tasks := make([]Task, 0, len(t.Rows))
	var bad []error
	for i, row := range t.Rows {
		if blankRow(row) {
			continue
		}
		tk, err := decodeRow(t, i)
		if err != nil {
			bad = append(bad, fmt.Errorf("row %d: %w", i+1, err))
			continue
		}
		tasks = append(tasks, tk)
	}
	if len(bad) > 0 {
		return tasks, fmt.Errorf("%w: %w", ErrMalformedRows, errors.Join(bad...))
	}
	return tasks, nil
}

func decodeRow(t gateway.Table, i int) (Task, error) {
	id, err := parseWholeNumber(t.Cell(i, ColID))
	if err != nil {
		return Task{}, fmt.Errorf("%s: %w", ColID, err)
	}
	due, err := ParseDate(t.Cell(i, ColDueDate))
	if err != nil {
		return Task{}, fmt.Errorf("%s: %w", ColDueDate, err)
	}
	rec, err := parseWholeNumber(t.Cell(i, ColRecurrence))
	if err != nil {
		return Task{}, fmt.Errorf("%s: %w", ColRecurrence, err)
	}
	if rec < 1 {
		return Task{}, ErrInvalidRecurrence
	}
	return Task{
		ID:         id,
		Name:       t.Cell(i, ColTask),
		DueDate:    due,
		Recurrence: rec,
		Notes:      t.Cell(i, ColNotes),
	}, nil
}

// ToTable encodes tasks with the canonical columns, in slice order.
func ToTable(tasks []Task) gateway.Table {
	t := EmptyTable()
	for _, tk := range tasks {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(tk.ID),
			tk.Name,
			FormatDate(tk.DueDate),
			strconv.Itoa(tk.Recurrence),
			tk.Notes,
		})
	}
	return t
}

// parseWholeNumber accepts "3" and the "3.0" spreadsheets produce for
// numeric columns. Values outside the int32 range are rejected.
func parseWholeNumber(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 32); err == nil {
		return int(n), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return 0, fmt.Errorf("not a whole number: %q", s)
	}
	return int(f), nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
