package task

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"hometasks/internal/telemetry"
)

// DefaultRecurrenceDays is used when a caller gives no interval.
const DefaultRecurrenceDays = 30

// Service runs each command as one load, mutate, save cycle.
type Service struct {
	store             *Store
	now               func() time.Time
	loc               *time.Location
	defaultRecurrence int
	events            telemetry.Recorder
	log               logrus.FieldLogger
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the zone in which "today" is read.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

func WithDefaultRecurrence(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.defaultRecurrence = days
		}
	}
}

func WithEvents(r telemetry.Recorder) Option {
	return func(s *Service) { s.events = r }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Service) { s.log = log }
}

func NewService(store *Store, opts ...Option) *Service {
	s := &Service{
		store:             store,
		now:               time.Now,
		loc:               time.Local,
		defaultRecurrence: DefaultRecurrenceDays,
		events:            telemetry.Nop{},
		log:               logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today is the current calendar date in the service's location.
func (s *Service) Today() time.Time {
	return Day(s.now().In(s.loc))
}

func (s *Service) DefaultRecurrence() int {
	return s.defaultRecurrence
}

func (s *Service) Add(ctx context.Context, in NewTask) (Task, error) {
	if in.Recurrence == 0 {
		in.Recurrence = s.defaultRecurrence
	}
	if in.DueDate.IsZero() {
		in.DueDate = s.Today()
	}

	tasks, err := s.store.LoadForUpdate(ctx)
	if err != nil {
		return Task{}, err
	}
	t, err := Create(tasks, in)
	if err != nil {
		return Task{}, err
	}
	if err := s.store.Save(ctx, append(tasks, t)); err != nil {
		return Task{}, err
	}

	s.log.WithFields(logrus.Fields{"id": t.ID, "task": t.Name, "due": FormatDate(t.DueDate)}).Info("task added")
	_ = s.events.RecordEvent(telemetry.EventTaskCreated, telemetry.EventMetadata{"id": t.ID, "name": t.Name})
	return t, nil
}

// Complete rolls the task's due date forward and returns the updated task.
func (s *Service) Complete(ctx context.Context, id int) (Task, error) {
	tasks, err := s.store.LoadForUpdate(ctx)
	if err != nil {
		return Task{}, err
	}
	i, ok := Find(tasks, id)
	if !ok {
		return Task{}, ErrNotFound
	}

	today := s.Today()
	next, caughtUp := Rollover(tasks[i].DueDate, tasks[i].Recurrence, today)
	tasks[i].DueDate = next
	if err := s.store.Save(ctx, tasks); err != nil {
		return Task{}, err
	}

	s.log.WithFields(logrus.Fields{"id": id, "next_due": FormatDate(next), "catch_up": caughtUp}).Info("task completed")
	_ = s.events.RecordEvent(telemetry.EventTaskCompleted, telemetry.EventMetadata{
		"id":       id,
		"next_due": FormatDate(next),
		"catch_up": caughtUp,
	})
	return tasks[i], nil
}

// Delete removes every task with the given name and reports how many were
// removed. Nothing is written when no task matches.
func (s *Service) Delete(ctx context.Context, name string) (int, error) {
	tasks, err := s.store.LoadForUpdate(ctx)
	if err != nil {
		return 0, err
	}
	kept := Delete(tasks, name)
	removed := len(tasks) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := s.store.Save(ctx, kept); err != nil {
		return 0, err
	}

	s.log.WithFields(logrus.Fields{"task": name, "removed": removed}).Info("task deleted")
	_ = s.events.RecordEvent(telemetry.EventTaskDeleted, telemetry.EventMetadata{"name": name, "removed": removed})
	return removed, nil
}

func (s *Service) Get(ctx context.Context, id int) (Task, error) {
	tasks := s.store.LoadOrEmpty(ctx)
	i, ok := Find(tasks, id)
	if !ok {
		return Task{}, ErrNotFound
	}
	return tasks[i], nil
}

// Check reads the store strictly, without the empty-list fallback.
func (s *Service) Check(ctx context.Context) error {
	return s.store.Load(ctx).Err
}

type Card struct {
	Task         Task    `json:"task"`
	Urgency      Urgency `json:"urgency"`
	Label        string  `json:"label"`
	DaysUntilDue int     `json:"daysUntilDue"`
}

// Board is the dashboard view: every task sorted by due date with its
// urgency as of Today.
type Board struct {
	Today time.Time `json:"-"`
	Cards []Card    `json:"cards"`
	Names []string  `json:"names"`
}

func (s *Service) Board(ctx context.Context) Board {
	today := s.Today()
	sorted := SortByDueDate(s.store.LoadOrEmpty(ctx))

	b := Board{Today: today, Cards: make([]Card, 0, len(sorted)), Names: Names(sorted)}
	for _, t := range sorted {
		u := ClassifyUrgency(t, today)
		b.Cards = append(b.Cards, Card{
			Task:         t,
			Urgency:      u,
			Label:        u.Label(),
			DaysUntilDue: DaysBetween(today, t.DueDate),
		})
	}
	return b
}
