package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hometasks/internal/gateway"
	"hometasks/internal/telemetry"
)

type failingGateway struct {
	readErr   error
	updateErr error
	updates   int
}

func (g *failingGateway) Read(context.Context) (gateway.Table, error) {
	if g.readErr != nil {
		return gateway.Table{}, g.readErr
	}
	return EmptyTable(), nil
}

func (g *failingGateway) Update(context.Context, gateway.Table) error {
	g.updates++
	return g.updateErr
}

func canonicalTable() gateway.Table {
	return gateway.Table{
		Columns: []string{"ID", "Task", "Due Date", "Recurrence", "Notes"},
		Rows: [][]string{
			{"1", "Water plants", "2024-01-03", "3", ""},
			{"4", "Furnace filter", "2024-02-10", "90", "16x25x1"},
		},
	}
}

func newTestStore(gw gateway.Gateway) (*Store, *test.Hook, *telemetry.MemoryRepository) {
	logger, hook := test.NewNullLogger()
	events := telemetry.NewMemoryRepository(0)
	return NewStore(gw, logger, events), hook, events
}

func TestFromTable_ColumnOrderNotSignificant(t *testing.T) {
	tb := gateway.Table{
		Columns: []string{"Notes", "Recurrence", "Due Date", "Task", "ID"},
		Rows:    [][]string{{"n", "7.0", "2024-01-02 00:00:00", "Sweep", "3.0"}},
	}

	got, err := FromTable(tb)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, Task{ID: 3, Name: "Sweep", DueDate: date(t, "2024-01-02"), Recurrence: 7, Notes: "n"}, got[0])
}

func TestFromTable_SkipsBlankRowsAndReadsMissingNotes(t *testing.T) {
	tb := gateway.Table{
		Columns: []string{"ID", "Task", "Due Date", "Recurrence"},
		Rows:    [][]string{{"1", "Sweep", "2024-01-02", "7"}, {"", " ", "", ""}, {}},
	}

	got, err := FromTable(tb)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "", got[0].Notes)
}

func TestFromTable_NoIDColumn(t *testing.T) {
	_, err := FromTable(gateway.Table{Columns: []string{"Task"}, Rows: [][]string{{"Sweep"}}})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformedRows)
}

func TestFromTable_MalformedRowsKeepTheRest(t *testing.T) {
	good := []string{"1", "Mop", "2024-01-02", "7", ""}
	tests := map[string][]string{
		"bad id":        {"x", "Sweep", "2024-01-02", "7", ""},
		"fractional":    {"1.5", "Sweep", "2024-01-02", "7", ""},
		"huge id":       {"1e300", "Sweep", "2024-01-02", "7", ""},
		"bad date":      {"2", "Sweep", "1/5/2024", "7", ""},
		"trailing junk": {"2", "Sweep", "2024-01-05junk", "7", ""},
		"zero repeat":   {"2", "Sweep", "2024-01-02", "0", ""},
		"huge repeat":   {"2", "Sweep", "2024-01-02", "99999999999", ""},
	}
	for name, bad := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := FromTable(gateway.Table{Columns: Columns, Rows: [][]string{good, bad}})
			require.ErrorIs(t, err, ErrMalformedRows)
			assert.ErrorContains(t, err, "row 2")
			require.Len(t, got, 1)
			assert.Equal(t, "Mop", got[0].Name)
		})
	}
}

func badDateTable() gateway.Table {
	return gateway.Table{
		Columns: Columns,
		Rows: [][]string{
			{"1", "Sweep", "2024-01-01", "7", ""},
			{"2", "Mop", "2024-01-02", "7", ""},
			{"3", "Dust", "1/5/2024", "7", ""},
		},
	}
}

func TestStore_LoadReportsMalformedRowsWithReadableTasks(t *testing.T) {
	store, _, _ := newTestStore(gateway.NewMemory(badDateTable()))

	res := store.Load(context.Background())
	assert.ErrorIs(t, res.Err, ErrMalformedRows)
	assert.NotErrorIs(t, res.Err, ErrStoreUnreadable)
	assert.Len(t, res.Tasks, 2)
}

func TestStore_LoadOrEmptyShowsReadableRows(t *testing.T) {
	store, hook, events := newTestStore(gateway.NewMemory(badDateTable()))

	got := store.LoadOrEmpty(context.Background())
	assert.Len(t, got, 2)
	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)

	evs, _ := events.GetEvents(time.Time{}, []telemetry.EventType{telemetry.EventStoreFallback})
	assert.Empty(t, evs, "partial rows are not a fallback")
}

func TestStore_LoadForUpdate(t *testing.T) {
	ctx := context.Background()

	store, _, _ := newTestStore(gateway.NewMemory(badDateTable()))
	got, err := store.LoadForUpdate(ctx)
	assert.ErrorIs(t, err, ErrMalformedRows)
	assert.Nil(t, got)

	store, _, events := newTestStore(&failingGateway{readErr: errors.New("network down")})
	got, err = store.LoadForUpdate(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
	evs, _ := events.GetEvents(time.Time{}, []telemetry.EventType{telemetry.EventStoreFallback})
	assert.Len(t, evs, 1)

	store, _, _ = newTestStore(gateway.NewMemory(canonicalTable()))
	got, err = store.LoadForUpdate(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestStore_LoadOK(t *testing.T) {
	store, hook, _ := newTestStore(gateway.NewMemory(canonicalTable()))

	res := store.Load(context.Background())
	require.NoError(t, res.Err)
	assert.Len(t, res.Tasks, 2)
	assert.Empty(t, hook.AllEntries())
}

func TestStore_LoadReportsUnreadable(t *testing.T) {
	store, _, _ := newTestStore(&failingGateway{readErr: errors.New("quota exceeded")})

	res := store.Load(context.Background())
	assert.ErrorIs(t, res.Err, ErrStoreUnreadable)
	assert.ErrorContains(t, res.Err, "quota exceeded")
	assert.NotNil(t, res.Tasks)
	assert.Empty(t, res.Tasks)
}

func TestStore_LoadOrEmptyFallsBackAndLogs(t *testing.T) {
	cases := map[string]gateway.Gateway{
		"read error":   &failingGateway{readErr: errors.New("network down")},
		"no id column": gateway.NewMemory(gateway.Table{Columns: []string{"Task"}, Rows: [][]string{{"x"}}}),
	}
	for name, gw := range cases {
		t.Run(name, func(t *testing.T) {
			store, hook, events := newTestStore(gw)

			got := store.LoadOrEmpty(context.Background())
			assert.Empty(t, got)

			require.Len(t, hook.AllEntries(), 1)
			assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
			assert.Contains(t, hook.LastEntry().Data, "reason")

			evs, _ := events.GetEvents(time.Time{}, []telemetry.EventType{telemetry.EventStoreFallback})
			assert.Len(t, evs, 1)
		})
	}
}

func TestStore_NewStoreTreatedAsEmpty(t *testing.T) {
	store, hook, _ := newTestStore(gateway.NewMemory(gateway.Table{}))

	assert.Empty(t, store.LoadOrEmpty(context.Background()))
	assert.Len(t, hook.AllEntries(), 1, "missing ID column is reported as a fallback")
}

func TestStore_SaveLoadRoundTripIsNoOp(t *testing.T) {
	ctx := context.Background()
	gw := gateway.NewMemory(canonicalTable())
	store, _, _ := newTestStore(gw)

	res := store.Load(ctx)
	require.NoError(t, res.Err)
	require.NoError(t, store.Save(ctx, res.Tasks))

	got, err := gw.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, canonicalTable(), got)
}

func TestStore_SaveNormalizesEmptyStoreColumns(t *testing.T) {
	ctx := context.Background()
	gw := gateway.NewMemory(gateway.Table{Columns: []string{"junk"}})
	store, _, _ := newTestStore(gw)

	require.NoError(t, store.Save(ctx, store.LoadOrEmpty(ctx)))

	got, err := gw.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, Columns, got.Columns)
	assert.Empty(t, got.Rows)
}

func TestStore_SaveWrapsWriteFailure(t *testing.T) {
	store, _, _ := newTestStore(&failingGateway{updateErr: errors.New("read-only")})

	err := store.Save(context.Background(), []Task{{ID: 1, Name: "x", DueDate: epoch, Recurrence: 1}})
	assert.ErrorContains(t, err, "save tasks: read-only")
}
