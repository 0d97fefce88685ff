package session

import (
	"fmt"
	"log"
	"sync"
)

// Connector establishes a voice transport for a guild channel. Implemented
// by the Discord layer; faked in tests.
type Connector interface {
	Connect(guildID, channelID string) (Transport, error)
}

// Manager is the registry of active guild sessions. The registry itself is
// guarded by an RWMutex; connecting happens outside the lock so one guild's
// join never blocks another guild's traffic.
type Manager struct {
	connect    Connector
	queueLimit int

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(connect Connector, queueLimit int) *Manager {
	return &Manager{
		connect:    connect,
		queueLimit: queueLimit,
		sessions:   make(map[string]*Session),
	}
}

// Join connects the bot to channelID in guildID and registers a fresh
// session. An existing session for the guild is torn down first, so a guild
// never holds more than one live transport.
func (m *Manager) Join(guildID, channelID string) (*Session, error) {
	if channelID == "" {
		return nil, ErrNotInVoiceChannel
	}

	m.mu.Lock()
	old := m.sessions[guildID]
	delete(m.sessions, guildID)
	m.mu.Unlock()

	if old != nil {
		log.Printf("[Session] %s: dropping existing connection before rejoin", guildID)
		old.Close()
	}

	transport, err := m.connect.Connect(guildID, channelID)
	if err != nil {
		return nil, fmt.Errorf("voice connect failed: %w", err)
	}

	s := newSession(guildID, transport, m.queueLimit)
	m.mu.Lock()
	m.sessions[guildID] = s
	m.mu.Unlock()

	log.Printf("[Session] %s: joined voice channel %s", guildID, channelID)
	return s, nil
}

// Leave disconnects and removes the guild's session.
func (m *Manager) Leave(guildID string) error {
	m.mu.Lock()
	s, ok := m.sessions[guildID]
	delete(m.sessions, guildID)
	m.mu.Unlock()

	if !ok {
		return ErrNoActiveSession
	}
	s.Close()
	return nil
}

// Session returns the active session for guildID, if any. Absence means the
// bot is not connected there and incoming messages are ignored.
func (m *Manager) Session(guildID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[guildID]
	return s, ok
}

// Count returns the number of active sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// GuildIDs returns the guilds with an active session.
func (m *Manager) GuildIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}

// CloseAll tears down every session. Used on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
