package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"foodcourt-system/internal/models"
)

// Manager owns the active sessions and the live rate configuration. Rates
// are admin-writable and read-mostly; each order freezes its own copy at
// confirmation time.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	rates    models.RateConfig

	loc             *time.Location
	idleTimeout     time.Duration
	finalizedLinger time.Duration
}

// NewManager creates a session manager with the given expiry thresholds
func NewManager(rates models.RateConfig, loc *time.Location, idleTimeout, finalizedLinger time.Duration) *Manager {
	return &Manager{
		sessions:        make(map[string]*Session),
		rates:           rates,
		loc:             loc,
		idleTimeout:     idleTimeout,
		finalizedLinger: finalizedLinger,
	}
}

// Create starts a new empty session and returns it. Sessions abandoned in
// the empty state are swept here so the map stays bounded on a public
// endpoint.
func (m *Manager) Create() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweepAbandoned()

	s := New(uuid.NewString(), m.loc)
	m.sessions[s.ID] = s
	return s
}

// sweepAbandoned drops sessions that sat empty past the idle window.
// Non-empty sessions are left to CheckExpiry, which resets them in place.
func (m *Manager) sweepAbandoned() {
	now := time.Now()
	for id, s := range m.sessions {
		s.mu.Lock()
		abandoned := s.state == StateEmpty && now.Sub(s.lastActivityAt) > m.idleTimeout
		s.mu.Unlock()
		if abandoned {
			delete(m.sessions, id)
		}
	}
}

// Get returns the session with the given ID after running its expiry
// check, so every interaction observes the poll-driven auto-clear.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, models.NotFoundError{Kind: "session", Key: id}
	}

	s.CheckExpiry(m.idleTimeout, m.finalizedLinger)
	return s, nil
}

// Rates returns the live rate configuration
func (m *Manager) Rates() models.RateConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rates
}

// UpdateRates replaces the live rate configuration. In-flight orders keep
// the snapshot frozen at their confirmation.
func (m *Manager) UpdateRates(rates models.RateConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rates = rates
}
