package booth

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/playperu/demovote/internal/scenario"
)

// DefaultSessionLimit caps live sessions when NewManager is given no limit.
const DefaultSessionLimit = 1000

// Manager keeps the live booth sessions of the process, keyed by ID. At most
// limit sessions are held; creating one more evicts the least recently used.
type Manager struct {
	opts   Options
	limit  int
	notify func(sessionID string, e Event)

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates sessions with opts, holding at most limit of them
// (DefaultSessionLimit when limit < 1). Every session event is passed to
// notify together with the session ID; opts.Notify is ignored.
func NewManager(opts Options, limit int, notify func(sessionID string, e Event)) *Manager {
	if notify == nil {
		notify = func(string, Event) {}
	}
	if limit < 1 {
		limit = DefaultSessionLimit
	}
	return &Manager{
		opts:     opts,
		limit:    limit,
		notify:   notify,
		sessions: make(map[string]*Session),
	}
}

// Create starts a session over the given controls.
func (m *Manager) Create(controls []scenario.Control) *Session {
	id := uuid.NewString()
	opts := m.opts
	opts.Notify = func(e Event) { m.notify(id, e) }
	s := NewSession(id, controls, opts)

	m.mu.Lock()
	var evicted *Session
	if len(m.sessions) >= m.limit {
		evicted = m.leastRecentLocked()
		delete(m.sessions, evicted.id)
	}
	m.sessions[id] = s
	m.mu.Unlock()

	if evicted != nil {
		evicted.Stop()
	}
	return s
}

func (m *Manager) leastRecentLocked() *Session {
	var (
		oldest *Session
		at     time.Time
	)
	for _, s := range m.sessions {
		if used := s.idleSince(); oldest == nil || used.Before(at) {
			oldest, at = s, used
		}
	}
	return oldest
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	s.Stop()
	return nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep drops sessions untouched since before now-idle and returns how many
// were removed.
func (m *Manager) Sweep(now time.Time, idle time.Duration) int {
	cutoff := now.Add(-idle)

	m.mu.Lock()
	var stale []*Session
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.Stop()
	}
	return len(stale)
}

// Close stops and forgets every session.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Stop()
	}
}
