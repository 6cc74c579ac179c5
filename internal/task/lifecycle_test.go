package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func date(t testing.TB, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

var epoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

func drawDate(t *rapid.T, label string) time.Time {
	return epoch.AddDate(0, 0, rapid.IntRange(0, 3650).Draw(t, label))
}

func drawTasks(t *rapid.T) []Task {
	ids := rapid.SliceOf(rapid.IntRange(1, 10_000)).Draw(t, "ids")
	tasks := make([]Task, 0, len(ids))
	for i, id := range ids {
		tasks = append(tasks, Task{
			ID:         id,
			Name:       rapid.SampledFrom([]string{"Sweep", "Mop", "Dust"}).Draw(t, "name"),
			DueDate:    drawDate(t, "due"),
			Recurrence: 1 + i%30,
		})
	}
	return tasks
}

func TestCreate_EmptyStoreAssignsOne(t *testing.T) {
	got, err := Create(nil, NewTask{Name: "Water plants", DueDate: date(t, "2024-01-01"), Recurrence: 3})
	require.NoError(t, err)
	assert.Equal(t, 1, got.ID)
	assert.Equal(t, "Water plants", got.Name)
	assert.Equal(t, "2024-01-01", FormatDate(got.DueDate))
}

func TestCreate_UsesMaxPlusOneNotLength(t *testing.T) {
	existing := []Task{{ID: 2}, {ID: 9}, {ID: 4}}
	got, err := Create(existing, NewTask{Name: "Mop", DueDate: epoch, Recurrence: 1})
	require.NoError(t, err)
	assert.Equal(t, 10, got.ID)
	assert.Len(t, existing, 3, "input list is not modified")
}

func TestCreate_RejectsInvalidInput(t *testing.T) {
	_, err := Create(nil, NewTask{Name: "   ", DueDate: epoch, Recurrence: 1})
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = Create(nil, NewTask{Name: "Mop", DueDate: epoch, Recurrence: 0})
	assert.ErrorIs(t, err, ErrInvalidRecurrence)

	_, err = Create(nil, NewTask{Name: "Mop", Recurrence: 1})
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestCreate_IDGreaterThanEveryExisting(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tasks := drawTasks(t)
		got, err := Create(tasks, NewTask{Name: "New", DueDate: epoch, Recurrence: 7})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if len(tasks) == 0 && got.ID != 1 {
			t.Fatalf("empty store: got id %d", got.ID)
		}
		for _, tk := range tasks {
			if got.ID <= tk.ID {
				t.Fatalf("id %d not greater than existing %d", got.ID, tk.ID)
			}
		}
	})
}

func TestClassifyUrgency_Boundaries(t *testing.T) {
	today := date(t, "2024-03-10")
	tests := []struct {
		due  string
		want Urgency
	}{
		{"2024-03-09", Overdue},
		{"2023-12-31", Overdue},
		{"2024-03-10", DueSoon},
		{"2024-03-17", DueSoon},
		{"2024-03-18", Upcoming},
		{"2025-01-01", Upcoming},
	}
	for _, tc := range tests {
		t.Run(tc.due, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyUrgency(Task{DueDate: date(t, tc.due)}, today))
		})
	}
}

func TestClassifyUrgency_PartitionAndIdempotence(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		today := drawDate(t, "today")
		delta := rapid.IntRange(-400, 400).Draw(t, "delta")
		tk := Task{DueDate: today.AddDate(0, 0, delta), Recurrence: 1}

		got := ClassifyUrgency(tk, today)
		var want Urgency
		switch {
		case delta < 0:
			want = Overdue
		case delta <= 7:
			want = DueSoon
		default:
			want = Upcoming
		}
		if got != want {
			t.Fatalf("delta %d: got %s want %s", delta, got, want)
		}
		if again := ClassifyUrgency(tk, today); again != got {
			t.Fatalf("not idempotent: %s then %s", got, again)
		}
	})
}

func TestClassifyUrgency_IgnoresTimeOfDayAndZone(t *testing.T) {
	loc := time.FixedZone("UTC-8", -8*3600)
	lateEvening := time.Date(2024, 3, 10, 23, 30, 0, 0, loc)
	tk := Task{DueDate: date(t, "2024-03-10")}

	assert.Equal(t, DueSoon, ClassifyUrgency(tk, lateEvening))
	assert.Equal(t, 0, DaysBetween(lateEvening, tk.DueDate))
}

func TestComplete_RegularCase(t *testing.T) {
	tk := Task{ID: 1, DueDate: date(t, "2024-01-01"), Recurrence: 30}
	got := Complete(tk, date(t, "2024-01-05"))
	assert.Equal(t, "2024-01-31", FormatDate(got.DueDate))
	assert.Equal(t, "2024-01-01", FormatDate(tk.DueDate), "input task is a value copy")
}

func TestComplete_CatchUpCase(t *testing.T) {
	tk := Task{ID: 1, DueDate: date(t, "2023-01-01"), Recurrence: 30}
	got := Complete(tk, date(t, "2024-06-01"))
	assert.Equal(t, "2024-07-01", FormatDate(got.DueDate))
}

func TestRollover_CandidateOnTodayRestartsFromToday(t *testing.T) {
	next, caughtUp := Rollover(date(t, "2024-05-25"), 7, date(t, "2024-06-01"))
	assert.True(t, caughtUp)
	assert.Equal(t, "2024-06-08", FormatDate(next))
}

func TestRollover_EarlyCompletionKeepsSchedule(t *testing.T) {
	next, caughtUp := Rollover(date(t, "2024-06-10"), 7, date(t, "2024-06-01"))
	assert.False(t, caughtUp)
	assert.Equal(t, "2024-06-17", FormatDate(next))
}

func TestComplete_AlwaysStrictlyAfterToday(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tk := Task{
			DueDate:    drawDate(t, "due"),
			Recurrence: rapid.IntRange(1, 400).Draw(t, "recurrence"),
		}
		today := drawDate(t, "today")

		got := Complete(tk, today)
		if !got.DueDate.After(today) {
			t.Fatalf("due %s rec %d today %s -> %s not after today",
				FormatDate(tk.DueDate), tk.Recurrence, FormatDate(today), FormatDate(got.DueDate))
		}
	})
}

func TestDelete_RemovesAllDuplicatesByName(t *testing.T) {
	tasks := []Task{
		{ID: 1, Name: "Sweep"},
		{ID: 2, Name: "Mop"},
		{ID: 3, Name: "Sweep"},
		{ID: 4, Name: "sweep"},
	}

	got := Delete(tasks, "Sweep")
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].ID)
	assert.Equal(t, 4, got[1].ID, "match is exact and case-sensitive")
	assert.Len(t, tasks, 4)

	assert.Len(t, Delete(tasks, "Vacuum"), 4)
}

func TestDelete_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tasks := drawTasks(t)
		name := rapid.SampledFrom([]string{"Sweep", "Mop", "Dust", "Vacuum"}).Draw(t, "delete")

		got := Delete(tasks, name)
		want := 0
		for _, tk := range tasks {
			if tk.Name != name {
				want++
			}
		}
		if len(got) != want {
			t.Fatalf("kept %d, want %d", len(got), want)
		}
		for _, tk := range got {
			if tk.Name == name {
				t.Fatalf("task %d named %q survived", tk.ID, name)
			}
		}
	})
}

func TestSortByDueDate_StableForTies(t *testing.T) {
	tasks := []Task{
		{ID: 1, DueDate: date(t, "2024-02-01")},
		{ID: 2, DueDate: date(t, "2024-01-01")},
		{ID: 3, DueDate: date(t, "2024-02-01")},
		{ID: 4, DueDate: date(t, "2023-12-01")},
	}

	got := SortByDueDate(tasks)
	ids := make([]int, 0, len(got))
	for _, tk := range got {
		ids = append(ids, tk.ID)
	}
	assert.Equal(t, []int{4, 2, 1, 3}, ids)
	assert.Equal(t, 1, tasks[0].ID, "input order untouched")
}

func TestFindAndNames(t *testing.T) {
	tasks := []Task{{ID: 5, Name: "Mop"}, {ID: 7, Name: "Dust"}, {ID: 9, Name: "Mop"}}

	i, ok := Find(tasks, 7)
	assert.True(t, ok)
	assert.Equal(t, 1, i)

	_, ok = Find(tasks, 8)
	assert.False(t, ok)

	assert.Equal(t, []string{"Mop", "Dust"}, Names(tasks))
}

func TestParseDate(t *testing.T) {
	for _, in := range []string{"2024-01-05", " 2024-01-05 ", "2024-01-05 00:00:00", "2024-01-05T00:00:00Z"} {
		d, err := ParseDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, "2024-01-05", FormatDate(d))
	}
	for _, in := range []string{"05/01/2024", "2024-01-05junk", "2024-01-055"} {
		_, err := ParseDate(in)
		assert.ErrorIs(t, err, ErrInvalidDate, in)
	}
	_, err := ParseDate("2024-01-05x00:00")
	assert.ErrorIs(t, err, ErrInvalidDate)
	_, err = ParseDate("")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestTask_MarshalJSON(t *testing.T) {
	b, err := Task{ID: 3, Name: "Dust", DueDate: date(t, "2024-04-01"), Recurrence: 14}.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":3,"task":"Dust","dueDate":"2024-04-01","recurrence":14,"notes":""}`, string(b))
}
