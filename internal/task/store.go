package task

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"hometasks/internal/gateway"
	"hometasks/internal/telemetry"
)

// LoadResult is the outcome of a store read. When the read fails or the
// table has no ID column, Err wraps ErrStoreUnreadable and Tasks is empty.
// When only some rows fail to decode, Err wraps ErrMalformedRows and Tasks
// holds the rows that did.
type LoadResult struct {
	Tasks []Task
	Err   error
}

// Store turns gateway tables into tasks and back. It holds no state between
// calls; every Load is a fresh read.
type Store struct {
	gw     gateway.Gateway
	log    logrus.FieldLogger
	events telemetry.Recorder
}

func NewStore(gw gateway.Gateway, log logrus.FieldLogger, events telemetry.Recorder) *Store {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if events == nil {
		events = telemetry.Nop{}
	}
	return &Store{gw: gw, log: log, events: events}
}

func (s *Store) Load(ctx context.Context) LoadResult {
	t, err := s.gw.Read(ctx)
	if err != nil {
		return LoadResult{Tasks: []Task{}, Err: fmt.Errorf("%w: read: %w", ErrStoreUnreadable, err)}
	}
	tasks, err := FromTable(t)
	switch {
	case errors.Is(err, ErrMalformedRows):
		return LoadResult{Tasks: tasks, Err: err}
	case err != nil:
		return LoadResult{Tasks: []Task{}, Err: fmt.Errorf("%w: %w", ErrStoreUnreadable, err)}
	}
	return LoadResult{Tasks: tasks}
}

// LoadOrEmpty is the read path for views. An unreadable store is treated as
// an empty one; the failure is logged and counted, never returned. Rows that
// cannot be decoded are logged and left out.
func (s *Store) LoadOrEmpty(ctx context.Context) []Task {
	res := s.Load(ctx)
	switch {
	case errors.Is(res.Err, ErrMalformedRows):
		s.log.WithField("reason", res.Err.Error()).Warn("task store has unreadable rows, showing the rest")
		return res.Tasks
	case res.Err != nil:
		s.fallback(res.Err)
		return []Task{}
	}
	return res.Tasks
}

// LoadForUpdate is the read path for commands that save afterwards. It
// applies the same empty-store fallback as LoadOrEmpty, but refuses to hand
// back a partial list: saving one would drop the rows that failed to decode.
func (s *Store) LoadForUpdate(ctx context.Context) ([]Task, error) {
	res := s.Load(ctx)
	switch {
	case errors.Is(res.Err, ErrMalformedRows):
		s.log.WithField("reason", res.Err.Error()).Warn("task store has unreadable rows, refusing to save")
		return nil, res.Err
	case res.Err != nil:
		s.fallback(res.Err)
		return []Task{}, nil
	}
	return res.Tasks, nil
}

func (s *Store) fallback(err error) {
	s.log.WithField("reason", err.Error()).Warn("task store unreadable, using empty task list")
	_ = s.events.RecordEvent(telemetry.EventStoreFallback, telemetry.EventMetadata{"reason": err.Error()})
}

// Save overwrites the whole table with tasks.
func (s *Store) Save(ctx context.Context, tasks []Task) error {
	if err := s.gw.Update(ctx, ToTable(tasks)); err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}
	return nil
}
