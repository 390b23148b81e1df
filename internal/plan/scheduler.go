package plan

import (
	"context"
	"sync"
	"time"
)

// SchedulerState is the persistence scheduler's lifecycle state.
type SchedulerState string

const (
	StateIdle    SchedulerState = "IDLE"
	StatePending SchedulerState = "PENDING"
	StateSaving  SchedulerState = "SAVING"
)

// Trigger identifies what kind of mutation requested a save. Removals use a
// shorter debounce window than additions.
type Trigger string

const (
	TriggerAssign Trigger = "assign"
	TriggerRemove Trigger = "remove"
)

const (
	defaultAssignWindow = 2 * time.Second
	defaultRemoveWindow = 1 * time.Second
)

// SaveFunc performs the outbound save of a grid snapshot.
type SaveFunc func(ctx context.Context, key WeekKey, snapshot *WeekPlan) error

// AuthGate gates outbound saves. When no authenticated session exists the
// scheduler still walks its states but skips the actual save call.
type AuthGate interface {
	IsAuthenticated() bool
}

// SaveScheduler debounces and coalesces save requests: any burst of
// mutations inside the debounce window produces exactly one outbound save
// carrying the latest grid snapshot. A mutation arriving while a save is in
// flight re-arms a follow-up save once the in-flight one completes, so the
// persisted copy always converges on the in-memory grid.
type SaveScheduler struct {
	mu    sync.Mutex
	state SchedulerState
	timer *time.Timer

	save   SaveFunc
	auth   AuthGate
	notify func(error)

	assignWindow time.Duration
	removeWindow time.Duration

	key      WeekKey
	snapshot func() *WeekPlan

	followUp       bool
	followUpWindow time.Duration

	// saveDone is closed each time an outbound save cycle finishes; tests
	// use Wait to observe completion without sleeping.
	saveDone chan struct{}
}

// SchedulerOption customizes a SaveScheduler.
type SchedulerOption func(*SaveScheduler)

// WithDebounceWindows overrides the per-trigger debounce durations.
func WithDebounceWindows(assign, remove time.Duration) SchedulerOption {
	return func(s *SaveScheduler) {
		s.assignWindow = assign
		s.removeWindow = remove
	}
}

// WithSaveNotifier installs a non-fatal handler for failed saves. The grid
// stays the source of truth regardless of save outcome, so failures are
// reported upward instead of rolling anything back.
func WithSaveNotifier(fn func(error)) SchedulerOption {
	return func(s *SaveScheduler) {
		s.notify = fn
	}
}

// NewSaveScheduler creates an idle scheduler bound to one week's plan.
func NewSaveScheduler(key WeekKey, snapshot func() *WeekPlan, save SaveFunc, auth AuthGate, opts ...SchedulerOption) *SaveScheduler {
	s := &SaveScheduler{
		state:        StateIdle,
		save:         save,
		auth:         auth,
		notify:       func(error) {},
		assignWindow: defaultAssignWindow,
		removeWindow: defaultRemoveWindow,
		key:          key,
		snapshot:     snapshot,
		saveDone:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the scheduler's current state.
func (s *SaveScheduler) State() SchedulerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *SaveScheduler) window(trigger Trigger) time.Duration {
	if trigger == TriggerRemove {
		return s.removeWindow
	}
	return s.assignWindow
}

// Schedule requests a debounced save. While pending, each request resets the
// timer rather than queuing a second save. While a save is in flight, the
// request records that a follow-up save is owed.
func (s *SaveScheduler) Schedule(trigger Trigger) {
	s.mu.Lock()
	defer s.mu.Unlock()

	window := s.window(trigger)
	switch s.state {
	case StateIdle:
		s.state = StatePending
		s.timer = time.AfterFunc(window, s.fire)
	case StatePending:
		s.timer.Reset(window)
	case StateSaving:
		s.followUp = true
		s.followUpWindow = window
	}
}

// Flush performs an immediate save, bypassing the debounce window. Clearing
// the plan is a deliberate, infrequent action and should persist promptly.
func (s *SaveScheduler) Flush() {
	s.mu.Lock()
	switch s.state {
	case StateSaving:
		// Let the in-flight save finish, then follow up without delay.
		s.followUp = true
		s.followUpWindow = 0
		s.mu.Unlock()
		return
	case StatePending:
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	s.fire()
}

// Cancel discards a pending un-fired timer, used when navigating away from
// the current week. An in-flight save is allowed to complete fire-and-forget
// but no follow-up is owed for the abandoned plan.
func (s *SaveScheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.state == StatePending {
		s.state = StateIdle
	}
	s.followUp = false
}

// Wait blocks until the next outbound save cycle completes. Test helper.
func (s *SaveScheduler) Wait() {
	s.mu.Lock()
	done := s.saveDone
	s.mu.Unlock()
	<-done
}

func (s *SaveScheduler) fire() {
	s.mu.Lock()
	s.state = StateSaving
	s.timer = nil
	key := s.key
	s.mu.Unlock()

	// The snapshot closure takes the engine's lock, so it must run outside
	// the scheduler's own.
	snap := s.snapshot()

	if s.auth.IsAuthenticated() {
		if err := s.save(context.Background(), key, snap); err != nil {
			s.notify(err)
		}
	}

	s.mu.Lock()
	if s.followUp {
		s.followUp = false
		s.state = StatePending
		s.timer = time.AfterFunc(s.followUpWindow, s.fire)
	} else {
		s.state = StateIdle
	}
	done := s.saveDone
	s.saveDone = make(chan struct{})
	s.mu.Unlock()
	close(done)
}
