package autogen

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"tradeidea/internal/models"
)

type memStore struct {
	mu     sync.Mutex
	nextID uint
	rows   map[uint]*models.AutoGenerationSchedule
	saves  int

	QueryDueFunc func(ctx context.Context, now time.Time) ([]models.AutoGenerationSchedule, error)
	SaveFunc     func(ctx context.Context, id uint, version int64, update models.ScheduleUpdate) error
}

func newMemStore(rows ...*models.AutoGenerationSchedule) *memStore {
	s := &memStore{rows: make(map[uint]*models.AutoGenerationSchedule)}
	for _, r := range rows {
		s.nextID++
		r.ID = s.nextID
		if r.Version == 0 {
			r.Version = 1
		}
		s.rows[r.ID] = r
	}
	return s
}

func (s *memStore) get(id uint) models.AutoGenerationSchedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.rows[id]
}

func (s *memStore) LoadActive(_ context.Context, userID string) (*models.AutoGenerationSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.UserID == userID && r.IsActive {
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrScheduleNotFound
}

func (s *memStore) LoadLatest(_ context.Context, userID string) (*models.AutoGenerationSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.AutoGenerationSchedule
	for _, r := range s.rows {
		if r.UserID == userID && (latest == nil || r.ID > latest.ID) {
			latest = r
		}
	}
	if latest == nil {
		return nil, ErrScheduleNotFound
	}
	cp := *latest
	return &cp, nil
}

func (s *memStore) Save(ctx context.Context, id uint, version int64, u models.ScheduleUpdate) error {
	if s.SaveFunc != nil {
		if err := s.SaveFunc(ctx, id, version, u); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	if !ok || r.Version != version {
		return ErrVersionConflict
	}
	r.NextTrigger = u.NextTrigger
	r.RetryCount = u.RetryCount
	if u.LastError != nil {
		r.LastError = sql.NullString{String: *u.LastError, Valid: true}
	} else {
		r.LastError = sql.NullString{}
	}
	if u.LastTriggered != nil {
		r.LastTriggered = sql.NullTime{Time: *u.LastTriggered, Valid: true}
	}
	r.Version++
	s.saves++
	return nil
}

func (s *memStore) QueryDue(ctx context.Context, now time.Time) ([]models.AutoGenerationSchedule, error) {
	if s.QueryDueFunc != nil {
		return s.QueryDueFunc(ctx, now)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.AutoGenerationSchedule
	for _, r := range s.rows {
		if r.Due(now) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) Replace(_ context.Context, sched *models.AutoGenerationSchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.UserID == sched.UserID {
			r.IsActive = false
		}
	}
	s.nextID++
	sched.ID = s.nextID
	cp := *sched
	s.rows[cp.ID] = &cp
	return nil
}

func (s *memStore) DeactivateAll(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.UserID == userID {
			r.IsActive = false
		}
	}
	return nil
}

func (s *memStore) SetPaused(_ context.Context, userID string, paused bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.UserID == userID && r.IsActive {
			r.IsPaused = paused
			r.Version++
			return nil
		}
	}
	return ErrScheduleNotFound
}

type fakeGenerator struct {
	GenerateFunc func(ctx context.Context, userID string) (*Idea, error)
	calls        []string
}

func (g *fakeGenerator) Generate(ctx context.Context, userID string) (*Idea, error) {
	g.calls = append(g.calls, userID)
	return g.GenerateFunc(ctx, userID)
}

type sentEvent struct {
	UserID string
	Event  Event
}

type fakeNotifier struct {
	err  error
	sent []sentEvent
}

func (n *fakeNotifier) Notify(_ context.Context, userID string, e Event) error {
	n.sent = append(n.sent, sentEvent{UserID: userID, Event: e})
	return n.err
}

type fakeLease struct{ released *bool }

func (l fakeLease) Release(context.Context) error {
	*l.released = true
	return nil
}

type fakeLocker struct {
	held     map[string]bool
	err      error
	released bool
}

func (l *fakeLocker) Acquire(_ context.Context, key string, _ time.Duration) (Lease, bool, error) {
	if l.err != nil {
		return nil, false, l.err
	}
	if l.held[key] {
		return nil, false, nil
	}
	return fakeLease{released: &l.released}, true, nil
}

func fixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func hourlySchedule(userID string, next time.Time) *models.AutoGenerationSchedule {
	return &models.AutoGenerationSchedule{
		UserID:       userID,
		IntervalType: IntervalHourly,
		Timezone:     "UTC",
		IsActive:     true,
		NextTrigger:  next,
	}
}
