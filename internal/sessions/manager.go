// Package sessions keeps the per-connection game sessions of a server.
package sessions

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/race/roadrush/config"
	"github.com/race/roadrush/internal/game"
	"github.com/race/roadrush/internal/network"
)

// ErrServerFull is returned by Create once the session limit is reached
var ErrServerFull = errors.New("server full")

// Manager creates, tracks and reaps sessions
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Entry

	log      zerolog.Logger
	store    game.HighScoreStore
	settings config.Settings
	metrics  *game.Metrics
	max      int
	interval time.Duration
	protocol *network.Protocol

	now func() time.Time
}

// NewManager creates a manager. store and metrics may be nil.
func NewManager(log zerolog.Logger, store game.HighScoreStore, settings config.Settings, metrics *game.Metrics, max int) *Manager {
	if max <= 0 {
		max = config.MaxSessionsPerServer
	}
	return &Manager{
		sessions: make(map[string]*Entry),
		log:      log.With().Str("component", "sessions").Logger(),
		store:    store,
		settings: settings,
		metrics:  metrics,
		max:      max,
		interval: config.FrameInterval,
		protocol: network.NewProtocol(),
		now:      time.Now,
	}
}

// Create starts a new session whose output goes to sink. The client is
// greeted with a session-info message before any other output.
func (m *Manager) Create(sink Sink) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) >= m.max {
		return nil, ErrServerFull
	}

	id := uuid.NewString()
	log := m.log.With().Str("session", id).Logger()
	loop := game.NewLoop(log, m.interval)

	e := &Entry{
		ID:       id,
		Created:  m.now(),
		loop:     loop,
		sink:     sink,
		protocol: m.protocol,
		log:      log,
		now:      m.now,
	}
	e.Session = game.NewSession(game.Options{
		ID:        id,
		Settings:  m.settings,
		Store:     m.store,
		Scheduler: loop,
		Metrics:   m.metrics,
		Logger:    m.log,
	})
	e.state.Store(uint32(e.Session.State()))
	e.touch()
	e.attach()

	e.send(m.protocol.EncodeSessionInfo(network.SessionInfoData{
		SessionID: id,
		State:     uint8(e.Session.State()),
		HighScore: int64(e.Session.Score().State().HighScore),
	}))

	m.sessions[id] = e
	loop.Start()

	log.Info().Int("sessions", len(m.sessions)).Msg("Session created")
	return e, nil
}

// Get returns a session by ID
func (m *Manager) Get(id string) *Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.sessions[id]
}

// Remove stops and forgets a session
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	e, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		e.close()
	}
}

// CleanupIdle removes sessions that are not being played and have had no
// client message for longer than the idle timeout
func (m *Manager) CleanupIdle(timeout time.Duration) int {
	cutoff := m.now().Add(-timeout)

	m.mu.Lock()
	var stale []*Entry
	for id, e := range m.sessions {
		if e.State() == game.StatePlaying {
			continue
		}
		if e.LastActive().Before(cutoff) {
			stale = append(stale, e)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, e := range stale {
		e.close()
	}
	return len(stale)
}

// Close removes every session
func (m *Manager) Close() {
	m.mu.Lock()
	all := make([]*Entry, 0, len(m.sessions))
	for _, e := range m.sessions {
		all = append(all, e)
	}
	m.sessions = make(map[string]*Entry)
	m.mu.Unlock()

	for _, e := range all {
		e.close()
	}
}

// GetStats returns manager statistics
func (m *Manager) GetStats() ManagerStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := ManagerStats{
		TotalSessions: len(m.sessions),
		MaxSessions:   m.max,
		Sessions:      make([]SessionStats, 0, len(m.sessions)),
	}

	for id, e := range m.sessions {
		state := e.State()
		if state == game.StatePlaying {
			stats.Playing++
		}
		stats.Sessions = append(stats.Sessions, SessionStats{
			ID:         id,
			State:      state.String(),
			Created:    e.Created,
			LastActive: e.LastActive(),
		})
	}

	return stats
}

// ManagerStats contains manager statistics
type ManagerStats struct {
	TotalSessions int            `json:"totalSessions"`
	MaxSessions   int            `json:"maxSessions"`
	Playing       int            `json:"playing"`
	Sessions      []SessionStats `json:"sessions"`
}

// SessionStats contains per-session statistics
type SessionStats struct {
	ID         string    `json:"id"`
	State      string    `json:"state"`
	Created    time.Time `json:"created"`
	LastActive time.Time `json:"lastActive"`
}
