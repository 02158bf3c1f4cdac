// Package session keeps the per-chat dialog state in memory: at most one
// active multi-step dialog per chat, expiring after a fixed TTL.
package session

import (
	"errors"
	"sync"
	"time"
)

// State names a step of a multi-step dialog.
type State string

const (
	// StateWaitingName asks a new member for their display name.
	StateWaitingName State = "waiting_for_name"
	// StateWaitingNewName asks an existing member for a replacement name.
	StateWaitingNewName State = "waiting_for_new_name"
	// StateWaitingGoalName asks for a new goal's title.
	StateWaitingGoalName State = "waiting_for_goal_name"
	// StateWaitingGoalTarget asks for the goal's numeric target.
	StateWaitingGoalTarget State = "waiting_for_goal_target"
	// StateWaitingGoalType asks whether the goal is daily or monthly.
	StateWaitingGoalType State = "waiting_for_goal_type"
	// StateWaitingAmount asks how much progress to record.
	StateWaitingAmount State = "waiting_for_complete_number"
)

var (
	// ErrConflict is returned when a chat member tries to act while a
	// different member holds the chat's dialog.
	ErrConflict = errors.New("session: chat busy with another user's dialog")
	// ErrStale is returned when an update references a dialog step that
	// no longer matches the stored session.
	ErrStale = errors.New("session: stale dialog state")
)

// DefaultTTL is how long a dialog stays actionable without input.
const DefaultTTL = 300 * time.Second

// Session is one chat's active dialog.
type Session struct {
	ChatID    int64
	UserID    int64
	State     State
	Payload   Payload
	StartedAt time.Time
}

// Manager owns every chat's dialog slot. Expiry is lazy: an expired session
// is discarded the first time it is read, never by a background sweeper.
type Manager struct {
	mu       sync.Mutex
	sessions map[int64]Session
	locks    map[int64]*sync.Mutex
	ttl      time.Duration
	now      func() time.Time
}

// NewManager builds a Manager. ttl <= 0 selects DefaultTTL; now is
// injectable for tests and defaults to time.Now.
func NewManager(ttl time.Duration, now func() time.Time) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Manager{
		sessions: map[int64]Session{},
		locks:    map[int64]*sync.Mutex{},
		ttl:      ttl,
		now:      now,
	}
}

// WithChat runs fn while holding the chat's serialization lock, so updates
// for one chat are processed strictly one at a time.
func (m *Manager) WithChat(chatID int64, fn func() error) error {
	m.mu.Lock()
	l := m.locks[chatID]
	if l == nil {
		l = &sync.Mutex{}
		m.locks[chatID] = l
	}
	m.mu.Unlock()

	l.Lock()
	defer l.Unlock()
	return fn()
}

// Get returns the chat's active session. A session older than the TTL is
// removed and reported as absent. Exactly TTL seconds old is still active.
func (m *Manager) Get(chatID int64) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[chatID]
	if !ok {
		return Session{}, false
	}
	if m.now().Sub(s.StartedAt) > m.ttl {
		delete(m.sessions, chatID)
		return Session{}, false
	}
	return s, true
}

// Start installs a new dialog for the chat, unconditionally replacing
// whatever was there. The caller decides whether replacement is allowed.
func (m *Manager) Start(chatID, userID int64, state State, payload Payload) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[chatID] = Session{
		ChatID:    chatID,
		UserID:    userID,
		State:     state,
		Payload:   payload,
		StartedAt: m.now(),
	}
}

// Advance moves the chat's dialog to the next step, refreshing the TTL.
func (m *Manager) Advance(chatID int64, state State, payload Payload) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[chatID]
	if !ok {
		return
	}
	s.State = state
	s.Payload = payload
	s.StartedAt = m.now()
	m.sessions[chatID] = s
}

// Clear removes the chat's dialog. Clearing an absent session is a no-op.
func (m *Manager) Clear(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, chatID)
}
