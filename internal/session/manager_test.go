package session

import (
	"sync"
	"testing"
	"time"
)

func testClock(start time.Time) (func() time.Time, *time.Time) {
	now := start
	return func() time.Time { return now }, &now
}

func TestGetLazyExpiry(t *testing.T) {
	start := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	clock, now := testClock(start)
	m := NewManager(300*time.Second, clock)

	m.Start(1, 10, StateWaitingName, nil)

	*now = start.Add(299 * time.Second)
	if _, ok := m.Get(1); !ok {
		t.Fatal("session should still be actionable before the TTL")
	}

	*now = start.Add(300 * time.Second)
	if _, ok := m.Get(1); !ok {
		t.Fatal("session at exactly the TTL should still be actionable")
	}

	*now = start.Add(301 * time.Second)
	if _, ok := m.Get(1); ok {
		t.Fatal("session past the TTL should be gone")
	}
	// Expired sessions are removed on read, not just hidden.
	*now = start
	if _, ok := m.Get(1); ok {
		t.Fatal("expired session must not reappear")
	}
}

func TestStartLastWriterWins(t *testing.T) {
	clock, _ := testClock(time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC))
	m := NewManager(0, clock)

	m.Start(1, 10, StateWaitingName, nil)
	m.Start(1, 11, StateWaitingGoalName, nil)

	s, ok := m.Get(1)
	if !ok {
		t.Fatal("expected a session")
	}
	if s.UserID != 11 || s.State != StateWaitingGoalName {
		t.Fatalf("last writer should win, got user=%d state=%q", s.UserID, s.State)
	}
}

func TestAdvanceRefreshesTTL(t *testing.T) {
	start := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	clock, now := testClock(start)
	m := NewManager(300*time.Second, clock)

	m.Start(1, 10, StateWaitingGoalName, nil)
	*now = start.Add(200 * time.Second)
	m.Advance(1, StateWaitingGoalTarget, GoalNameDraft{Name: "Бег"})

	*now = start.Add(450 * time.Second) // 250s after the advance
	s, ok := m.Get(1)
	if !ok {
		t.Fatal("advance should have refreshed the TTL")
	}
	if s.State != StateWaitingGoalTarget {
		t.Fatalf("unexpected state %q", s.State)
	}
	draft, ok := s.Payload.(GoalNameDraft)
	if !ok || draft.Name != "Бег" {
		t.Fatalf("unexpected payload %#v", s.Payload)
	}
}

func TestAdvanceWithoutSessionIsNoop(t *testing.T) {
	clock, _ := testClock(time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC))
	m := NewManager(0, clock)
	m.Advance(1, StateWaitingGoalTarget, nil)
	if _, ok := m.Get(1); ok {
		t.Fatal("advance must not create a session")
	}
}

func TestClearIdempotent(t *testing.T) {
	clock, _ := testClock(time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC))
	m := NewManager(0, clock)
	m.Start(1, 10, StateWaitingName, nil)
	m.Clear(1)
	m.Clear(1)
	if _, ok := m.Get(1); ok {
		t.Fatal("cleared session should be gone")
	}
}

func TestChatsAreIndependent(t *testing.T) {
	clock, _ := testClock(time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC))
	m := NewManager(0, clock)
	m.Start(1, 10, StateWaitingName, nil)
	m.Start(2, 20, StateWaitingAmount, ProgressDraft{GoalID: 7})

	s1, _ := m.Get(1)
	s2, _ := m.Get(2)
	if s1.UserID != 10 || s2.UserID != 20 {
		t.Fatalf("chat slots leaked: %#v / %#v", s1, s2)
	}
}

func TestWithChatSerializes(t *testing.T) {
	m := NewManager(0, nil)
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		running int
		peak    int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.WithChat(1, func() error {
				mu.Lock()
				running++
				if running > peak {
					peak = running
				}
				mu.Unlock()
				time.Sleep(time.Millisecond)
				mu.Lock()
				running--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()
	if peak != 1 {
		t.Fatalf("expected strictly serialized execution, peak=%d", peak)
	}
}
