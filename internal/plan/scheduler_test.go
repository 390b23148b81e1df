package plan

import (
	"context"
	"sync"
	"testing"
	"time"
)

// mockSink records outbound saves and can hold a save open to simulate an
// in-flight write.
type mockSink struct {
	mu        sync.Mutex
	saveCalls int
	lastKey   WeekKey
	lastSnap  *WeekPlan
	block     chan struct{}
	err       error
}

func (m *mockSink) save(ctx context.Context, key WeekKey, snapshot *WeekPlan) error {
	m.mu.Lock()
	block := m.block
	m.mu.Unlock()
	if block != nil {
		<-block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCalls++
	m.lastKey = key
	m.lastSnap = snapshot
	return m.err
}

func (m *mockSink) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveCalls
}

type mockAuth struct {
	authenticated bool
}

func (m *mockAuth) IsAuthenticated() bool { return m.authenticated }

func newTestScheduler(sink *mockSink, auth AuthGate, snap *WeekPlan, opts ...SchedulerOption) *SaveScheduler {
	opts = append([]SchedulerOption{
		WithDebounceWindows(20*time.Millisecond, 10*time.Millisecond),
	}, opts...)
	return NewSaveScheduler(
		"2026-08-24",
		func() *WeekPlan { return snap },
		sink.save,
		auth,
		opts...,
	)
}

func TestSchedulerCoalescesBurst(t *testing.T) {
	sink := &mockSink{}
	s := newTestScheduler(sink, &mockAuth{authenticated: true}, NewWeekPlan())

	// Five rapid-fire mutations inside one window must yield one save.
	for i := 0; i < 5; i++ {
		s.Schedule(TriggerAssign)
	}
	if got := s.State(); got != StatePending {
		t.Errorf("Expected PENDING during the debounce window, got %s", got)
	}

	s.Wait()
	if got := sink.calls(); got != 1 {
		t.Errorf("Expected 1 coalesced save, got %d", got)
	}
	if got := s.State(); got != StateIdle {
		t.Errorf("Expected IDLE after save completes, got %s", got)
	}
}

func TestSchedulerSecondSaveAfterWindowExpiry(t *testing.T) {
	sink := &mockSink{}
	s := newTestScheduler(sink, &mockAuth{authenticated: true}, NewWeekPlan())

	s.Schedule(TriggerAssign)
	s.Wait()
	s.Schedule(TriggerAssign)
	s.Wait()

	if got := sink.calls(); got != 2 {
		t.Errorf("Expected 2 saves for two separated mutations, got %d", got)
	}
}

func TestSchedulerFollowUpDuringInFlightSave(t *testing.T) {
	block := make(chan struct{})
	sink := &mockSink{block: block}
	s := newTestScheduler(sink, &mockAuth{authenticated: true}, NewWeekPlan())

	s.Schedule(TriggerAssign)

	// Wait for the save to enter flight, then mutate while it is held open.
	deadline := time.Now().Add(time.Second)
	for s.State() != StateSaving {
		if time.Now().After(deadline) {
			t.Fatal("Scheduler never entered SAVING")
		}
		time.Sleep(time.Millisecond)
	}
	s.Schedule(TriggerRemove)

	// Release the in-flight save; the follow-up must fire a second one.
	sink.mu.Lock()
	sink.block = nil
	sink.mu.Unlock()
	close(block)

	deadline = time.Now().Add(time.Second)
	for sink.calls() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("Expected in-flight save plus follow-up, got %d saves", sink.calls())
		}
		time.Sleep(time.Millisecond)
	}
	for s.State() != StateIdle {
		if time.Now().After(deadline) {
			t.Fatalf("Expected IDLE after follow-up, got %s", s.State())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSchedulerRemoveUsesShorterWindow(t *testing.T) {
	sink := &mockSink{}
	s := newTestScheduler(sink, &mockAuth{authenticated: true}, NewWeekPlan(),
		WithDebounceWindows(500*time.Millisecond, 10*time.Millisecond))

	start := time.Now()
	s.Schedule(TriggerRemove)
	s.Wait()

	if elapsed := time.Since(start); elapsed >= 400*time.Millisecond {
		t.Errorf("Remove trigger took %v, expected the short window", elapsed)
	}
	if got := sink.calls(); got != 1 {
		t.Errorf("Expected 1 save, got %d", got)
	}
}

func TestSchedulerFlushBypassesWindow(t *testing.T) {
	sink := &mockSink{}
	s := newTestScheduler(sink, &mockAuth{authenticated: true}, NewWeekPlan(),
		WithDebounceWindows(time.Hour, time.Hour))

	s.Schedule(TriggerAssign)
	s.Flush()

	if got := sink.calls(); got != 1 {
		t.Errorf("Expected Flush to save immediately, got %d saves", got)
	}
	if got := s.State(); got != StateIdle {
		t.Errorf("Expected IDLE after flush, got %s", got)
	}
}

func TestSchedulerCancelDropsPendingSave(t *testing.T) {
	sink := &mockSink{}
	s := newTestScheduler(sink, &mockAuth{authenticated: true}, NewWeekPlan(),
		WithDebounceWindows(20*time.Millisecond, 20*time.Millisecond))

	s.Schedule(TriggerAssign)
	s.Cancel()

	time.Sleep(60 * time.Millisecond)
	if got := sink.calls(); got != 0 {
		t.Errorf("Expected cancelled timer to never save, got %d saves", got)
	}
	if got := s.State(); got != StateIdle {
		t.Errorf("Expected IDLE after cancel, got %s", got)
	}
}

func TestSchedulerUnauthenticatedSkipsSaveButTransitions(t *testing.T) {
	sink := &mockSink{}
	s := newTestScheduler(sink, &mockAuth{authenticated: false}, NewWeekPlan())

	s.Schedule(TriggerAssign)
	if got := s.State(); got != StatePending {
		t.Errorf("Expected PENDING even without auth, got %s", got)
	}

	s.Wait()
	if got := sink.calls(); got != 0 {
		t.Errorf("Expected no outbound save without auth, got %d", got)
	}
	if got := s.State(); got != StateIdle {
		t.Errorf("Expected IDLE after the gated cycle, got %s", got)
	}
}

func TestSchedulerSaveFailureNotifies(t *testing.T) {
	sink := &mockSink{err: context.DeadlineExceeded}
	var notified error
	var mu sync.Mutex
	s := newTestScheduler(sink, &mockAuth{authenticated: true}, NewWeekPlan(),
		WithSaveNotifier(func(err error) {
			mu.Lock()
			notified = err
			mu.Unlock()
		}))

	s.Schedule(TriggerAssign)
	s.Wait()

	mu.Lock()
	defer mu.Unlock()
	if notified == nil {
		t.Error("Expected the save failure to reach the notifier")
	}
	if got := s.State(); got != StateIdle {
		t.Errorf("Expected IDLE after a failed save, got %s", got)
	}
}

func TestSchedulerSavesLatestSnapshot(t *testing.T) {
	sink := &mockSink{}
	snap := NewWeekPlan()
	s := newTestScheduler(sink, &mockAuth{authenticated: true}, snap)

	snap.SetAssignment(Monday, Dinner, testAssignment("r1", "Pasta"))
	s.Schedule(TriggerAssign)
	snap.SetAssignment(Tuesday, Lunch, testAssignment("r2", "Soup"))
	s.Schedule(TriggerAssign)
	s.Wait()

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.lastKey != "2026-08-24" {
		t.Errorf("Expected week key 2026-08-24, got %s", sink.lastKey)
	}
	if sink.lastSnap.Len() != 2 {
		t.Errorf("Expected the coalesced save to carry both mutations, got %d", sink.lastSnap.Len())
	}
}
