// Package session maps session ids to hydrated storefront states.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/utafrali/storefront/internal/catalog"
	"github.com/utafrali/storefront/internal/persistence"
	"github.com/utafrali/storefront/internal/storefront"
	"github.com/utafrali/storefront/internal/timer"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// MaxIDLength bounds client-supplied session ids.
const MaxIDLength = 128

// Config configures a Manager.
type Config struct {
	Catalog   *catalog.Catalog
	Store     *persistence.Adapter
	KeyPrefix string
	Scheduler timer.Scheduler
	Timings   storefront.Timings
	Logger    *slog.Logger

	// IdleTimeout evicts sessions not accessed for this long. Zero keeps
	// sessions until Evict or Close.
	IdleTimeout time.Duration

	// OnCreate runs for every newly hydrated session, e.g. to attach the
	// event forwarder.
	OnCreate func(*storefront.State)
}

// Manager owns one storefront state per session id.
type Manager struct {
	cfg Config

	mu       sync.Mutex
	sessions map[string]*entry
	sweep    timer.Token
	closed   bool
}

type entry struct {
	state      *storefront.State
	lastAccess time.Time
}

// NewManager creates an empty manager. With a positive IdleTimeout it sweeps
// idle sessions every IdleTimeout.
func NewManager(cfg Config) *Manager {
	if cfg.Scheduler == nil {
		cfg.Scheduler = timer.NewReal()
	}
	m := &Manager{cfg: cfg, sessions: make(map[string]*entry)}
	if cfg.IdleTimeout > 0 {
		m.sweep = cfg.Scheduler.AfterFunc(cfg.IdleTimeout, m.sweepIdle)
	}
	return m
}

// ValidateID checks a client-supplied session id.
func ValidateID(id string) error {
	if id == "" {
		return apperrors.InvalidInput("session id is required")
	}
	if len(id) > MaxIDLength {
		return apperrors.InvalidInput("session id is too long")
	}
	for _, r := range id {
		if r <= ' ' || r == ':' || r > '~' {
			return apperrors.InvalidInput("session id contains invalid characters")
		}
	}
	return nil
}

// Get returns the state for id, creating and hydrating it on first use.
func (m *Manager) Get(ctx context.Context, id string) (*storefront.State, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, apperrors.ServiceUnavailable("session manager is closed")
	}
	if e, ok := m.sessions[id]; ok {
		e.lastAccess = m.cfg.Scheduler.Now()
		return e.state, nil
	}

	s := storefront.New(storefront.Config{
		SessionID: id,
		Catalog:   m.cfg.Catalog,
		Store:     m.cfg.Store,
		Keys:      persistence.KeysFor(m.cfg.KeyPrefix, id),
		Scheduler: m.cfg.Scheduler,
		Timings:   m.cfg.Timings,
		Logger:    m.cfg.Logger,
	})
	s.Hydrate(ctx)
	if m.cfg.OnCreate != nil {
		m.cfg.OnCreate(s)
	}
	m.sessions[id] = &entry{state: s, lastAccess: m.cfg.Scheduler.Now()}

	m.cfg.Logger.InfoContext(ctx, "session created", slog.String("session_id", id))
	return s, nil
}

// Lookup returns the state for id without creating it.
func (m *Manager) Lookup(id string) (*storefront.State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastAccess = m.cfg.Scheduler.Now()
	return e.state, true
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Evict closes and forgets a session. Its persisted cart and wishlist stay.
func (m *Manager) Evict(id string) bool {
	m.mu.Lock()
	e, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		e.state.Close()
	}
	return ok
}

// sweepIdle evicts every session idle for at least IdleTimeout and schedules
// the next sweep.
func (m *Manager) sweepIdle() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	now := m.cfg.Scheduler.Now()
	var idle []*entry
	for id, e := range m.sessions {
		if now.Sub(e.lastAccess) >= m.cfg.IdleTimeout {
			idle = append(idle, e)
			delete(m.sessions, id)
			m.cfg.Logger.Info("session evicted", slog.String("session_id", id))
		}
	}
	m.sweep = m.cfg.Scheduler.AfterFunc(m.cfg.IdleTimeout, m.sweepIdle)
	m.mu.Unlock()

	for _, e := range idle {
		e.state.Close()
	}
}

// Close closes every session. Get fails afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	if m.sweep != nil {
		m.sweep.Cancel()
		m.sweep = nil
	}
	sessions := m.sessions
	m.sessions = make(map[string]*entry)
	m.mu.Unlock()

	for _, e := range sessions {
		e.state.Close()
	}
}
