package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/airsift/airsift/pkg/config"
)

// ErrSessionNotFound is returned when an operation targets an unknown id.
var ErrSessionNotFound = errors.New("session not found")

// Manager owns all sessions. Reads return clones; a per-session turn lock
// serializes full turns so a new turn for a session cannot begin until the
// previous one has persisted.
type Manager struct {
	idleTTL      time.Duration
	maxSessions  int
	maxDocuments int
	loopWindow   int

	mu        sync.RWMutex
	sessions  map[string]*Session
	turnLocks map[string]*sync.Mutex

	stopCh chan struct{}
	doneCh chan struct{}

	now func() time.Time // test hook
}

// NewManager creates a session manager from config and starts the idle
// sweep loop. Call Close on shutdown.
func NewManager(cfg config.SessionConfig) *Manager {
	m := &Manager{
		idleTTL:      cfg.IdleTTL,
		maxSessions:  cfg.MaxSessions,
		maxDocuments: cfg.MaxDocuments,
		loopWindow:   cfg.LoopWindow,
		sessions:     make(map[string]*Session),
		turnLocks:    make(map[string]*sync.Mutex),
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
		now:          time.Now,
	}
	if m.idleTTL <= 0 {
		m.idleTTL = time.Hour
	}
	if m.maxSessions <= 0 {
		m.maxSessions = 50
	}
	if m.maxDocuments <= 0 {
		m.maxDocuments = 3
	}
	if m.loopWindow <= 0 {
		m.loopWindow = 8
	}
	go m.sweepLoop()
	return m
}

// Close stops the sweep loop.
func (m *Manager) Close() {
	close(m.stopCh)
	<-m.doneCh
}

// LockTurn acquires the per-session turn lock; the returned func releases
// it. Turns for one session are strictly serialized, turns for distinct
// sessions proceed in parallel.
func (m *Manager) LockTurn(id string) func() {
	m.mu.Lock()
	lock, ok := m.turnLocks[id]
	if !ok {
		lock = &sync.Mutex{}
		m.turnLocks[id] = lock
	}
	m.mu.Unlock()
	lock.Lock()
	return lock.Unlock
}

// GetOrCreate returns a clone of the session, creating it when absent.
func (m *Manager) GetOrCreate(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		now := m.now()
		s = &Session{
			ID:           id,
			PersonalInfo: make(PersonalInfo),
			CreatedAt:    now,
			LastActive:   now,
		}
		m.sessions[id] = s
		m.evictLRULocked()
	}
	s.LastActive = m.now()
	return s.Clone()
}

// Get returns a clone of an existing session.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s.Clone(), nil
}

// AppendTurn records a completed exchange.
func (m *Manager) AppendTurn(id, user, assistant string, tokens int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.getOrCreateLocked(id)
	s.Turns = append(s.Turns, Turn{
		User:      user,
		Assistant: assistant,
		Tokens:    tokens,
		At:        m.now(),
	})
	s.LastActive = m.now()
}

// AddDocument stores an uploaded document, evicting the least recently
// used one past the cap.
func (m *Manager) AddDocument(id string, doc Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.getOrCreateLocked(id)
	if doc.AddedAt.IsZero() {
		doc.AddedAt = m.now()
	}
	if doc.LastUsed.IsZero() {
		doc.LastUsed = doc.AddedAt
	}
	s.Documents = append(s.Documents, doc)
	for len(s.Documents) > m.maxDocuments {
		oldest := 0
		for i, d := range s.Documents {
			if d.LastUsed.Before(s.Documents[oldest].LastUsed) {
				oldest = i
			}
		}
		slog.Debug("Evicting session document", "session_id", id, "document", s.Documents[oldest].Name)
		s.Documents = append(s.Documents[:oldest], s.Documents[oldest+1:]...)
	}
	s.LastActive = m.now()
}

// GetDocuments returns the session's documents and marks them used.
func (m *Manager) GetDocuments(id string) []Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil
	}
	now := m.now()
	for i := range s.Documents {
		s.Documents[i].LastUsed = now
	}
	return append([]Document(nil), s.Documents...)
}

// SetPersonalInfo stores one volunteered field.
func (m *Manager) SetPersonalInfo(id, field, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.getOrCreateLocked(id)
	s.PersonalInfo[field] = value
	s.LastActive = m.now()
}

// GetPersonalInfo returns one field, "" when unset.
func (m *Manager) GetPersonalInfo(id, field string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return ""
	}
	return s.PersonalInfo[field]
}

// UpdateSummary replaces the rolling summary.
func (m *Manager) UpdateSummary(id, summary string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return
	}
	s.Summary = summary
}

// Purge removes a session entirely.
func (m *Manager) Purge(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	delete(m.turnLocks, id)
	return nil
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// LoopWindow returns the configured loop-detection window.
func (m *Manager) LoopWindow() int {
	return m.loopWindow
}

func (m *Manager) getOrCreateLocked(id string) *Session {
	s, ok := m.sessions[id]
	if !ok {
		now := m.now()
		s = &Session{
			ID:           id,
			PersonalInfo: make(PersonalInfo),
			CreatedAt:    now,
			LastActive:   now,
		}
		m.sessions[id] = s
		m.evictLRULocked()
	}
	return s
}

// evictLRULocked drops least-recently-active sessions past the cap.
func (m *Manager) evictLRULocked() {
	for len(m.sessions) > m.maxSessions {
		var oldestID string
		var oldestAt time.Time
		for id, s := range m.sessions {
			if oldestID == "" || s.LastActive.Before(oldestAt) {
				oldestID = id
				oldestAt = s.LastActive
			}
		}
		slog.Info("Evicting least recently used session", "session_id", oldestID)
		delete(m.sessions, oldestID)
		delete(m.turnLocks, oldestID)
	}
}

func (m *Manager) sweepLoop() {
	defer close(m.doneCh)
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.sweepIdle()
		}
	}
}

func (m *Manager) sweepIdle() {
	cutoff := m.now().Add(-m.idleTTL)
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.LastActive.Before(cutoff) {
			delete(m.sessions, id)
			delete(m.turnLocks, id)
			slog.Debug("Swept idle session", "session_id", id)
		}
	}
}
