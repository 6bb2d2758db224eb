package session

import (
	"sync"
	"time"

	"github.com/antonioabatte/spotizip/internal/services"
	"github.com/antonioabatte/spotizip/internal/shared"
)

// reapInterval is how often the manager sweeps for idle sessions.
const reapInterval = time.Minute

// Manager owns the live sessions, keyed by session ID, and expires the ones
// idle past the configured TTL.
type Manager struct {
	auth services.Authenticator
	ttl  time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
	onEvict  func(id string)

	stop     chan struct{}
	stopOnce sync.Once
}

// NewManager creates a session manager and starts its expiry sweep.
func NewManager(auth services.Authenticator, ttl time.Duration) *Manager {
	m := &Manager{
		auth:     auth,
		ttl:      ttl,
		sessions: make(map[string]*Session),
		stop:     make(chan struct{}),
	}

	go m.reap()
	return m
}

// Create registers a new unauthenticated session under a fresh ID.
func (m *Manager) Create() *Session {
	sess := NewSession(shared.GenerateID(), m.auth)

	m.mu.Lock()
	m.sessions[sess.ID()] = sess
	m.mu.Unlock()

	return sess
}

// Get returns the session with the given ID, touching it for expiry.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()

	if ok {
		sess.Touch()
	}
	return sess, ok
}

// Delete removes a session.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	onEvict := m.onEvict
	m.mu.Unlock()

	if onEvict != nil {
		onEvict(id)
	}
}

// OnEvict registers a callback invoked with the ID of every session removed
// by Delete or the expiry sweep. The callback must not call back into the
// manager.
func (m *Manager) OnEvict(fn func(id string)) {
	m.mu.Lock()
	m.onEvict = fn
	m.mu.Unlock()
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close stops the expiry sweep.
func (m *Manager) Close() {
	m.stopOnce.Do(func() {
		close(m.stop)
	})
}

func (m *Manager) reap() {
	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case now := <-ticker.C:
			m.evictStale(now)
		}
	}
}

// evictStale drops sessions idle past the TTL. Sessions with a run in flight
// are kept so a slow pipeline never loses its owner.
func (m *Manager) evictStale(now time.Time) int {
	if m.ttl <= 0 {
		return 0
	}

	m.mu.Lock()
	var stale []string
	for id, sess := range m.sessions {
		if sess.Running() {
			continue
		}
		if now.Sub(sess.LastSeen()) > m.ttl {
			delete(m.sessions, id)
			stale = append(stale, id)
		}
	}
	onEvict := m.onEvict
	m.mu.Unlock()

	if onEvict != nil {
		for _, id := range stale {
			onEvict(id)
		}
	}
	return len(stale)
}
