package plan

import (
	"context"
	"fmt"
	"time"
)

// Store is the external plan persistence collaborator, keyed by user and
// week. Load returns (nil, nil) when no plan has been persisted yet.
type Store interface {
	Load(ctx context.Context, userID string, key WeekKey) (*WeekPlan, error)
	Save(ctx context.Context, userID string, key WeekKey, p *WeekPlan) error
}

// Session is one user's active plan-editing session. It owns the engine for
// the week currently being viewed; navigating to another week discards the
// in-memory plan and any pending save timer (the stored copy is untouched).
type Session struct {
	userID string
	store  Store
	auth   AuthGate
	opts   []SchedulerOption

	engine *Engine
	sched  *SaveScheduler
}

// NewSession creates a session with no week loaded yet.
func NewSession(userID string, store Store, auth AuthGate, opts ...SchedulerOption) *Session {
	return &Session{userID: userID, store: store, auth: auth, opts: opts}
}

// Navigate loads the plan for the week containing t and makes it current.
// A missing stored plan is the normal case and yields an empty grid. A load
// failure also yields an empty grid but is surfaced to the caller; the
// engine is usable either way.
func (s *Session) Navigate(ctx context.Context, t time.Time) (*Engine, error) {
	key := WeekKeyFor(t)
	s.discard()

	var loadErr error
	p, err := s.store.Load(ctx, s.userID, key)
	if err != nil {
		loadErr = fmt.Errorf("failed to load plan for week %s: %w", key, err)
		p = nil
	}
	if p == nil {
		p = NewWeekPlan()
	}

	var engine *Engine
	sched := NewSaveScheduler(key,
		func() *WeekPlan { return engine.Snapshot() },
		func(ctx context.Context, key WeekKey, snapshot *WeekPlan) error {
			return s.store.Save(ctx, s.userID, key, snapshot)
		},
		s.auth, s.opts...)
	engine = NewEngine(key, p, sched)

	s.engine = engine
	s.sched = sched
	return engine, loadErr
}

// Engine returns the engine for the current week, or nil before the first
// Navigate.
func (s *Session) Engine() *Engine {
	return s.engine
}

// Scheduler returns the current week's save scheduler, or nil before the
// first Navigate.
func (s *Session) Scheduler() *SaveScheduler {
	return s.sched
}

// Close discards the current week's pending timer. An in-flight save is left
// to complete on its own.
func (s *Session) Close() {
	s.discard()
}

func (s *Session) discard() {
	if s.sched != nil {
		s.sched.Cancel()
	}
	s.engine = nil
	s.sched = nil
}
