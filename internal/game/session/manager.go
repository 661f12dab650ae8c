// Package session tracks active game sessions keyed by (guild, player)
// and by the Discord message rendering each game.
package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ryebridge/gridkeeper/internal/game/engine"
)

// Key identifies one player's session on one guild. A player may hold one
// session per guild at a time.
type Key struct {
	GuildID  string
	PlayerID string
}

// Session correlates a live game with its render target. The embedded
// mutex serializes moves: reaction events for the same session are
// evaluated strictly one at a time.
type Session struct {
	// Handle uniquely identifies this session instance, so a stale render
	// callback can detect that the session was replaced.
	Handle string
	// GuildID and PlayerID identify the owner.
	GuildID  string
	PlayerID string
	// ChannelID and MessageID locate the Discord message rendering the grid.
	// Empty until the first render is posted.
	ChannelID string
	MessageID string
	// Game is the simulation state. Access it only through Do.
	Game *engine.Game
	// BoostMoves is the number of remaining double-step moves from a speed
	// boost. Guarded by the same lock as Game.
	BoostMoves int

	mu sync.Mutex
}

// Do runs fn with the session lock held. All game mutation and boost
// bookkeeping goes through here.
func (s *Session) Do(fn func(*Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

// Manager is the process-wide session registry. All methods are safe for
// concurrent use.
type Manager struct {
	mu        sync.RWMutex
	byKey     map[Key]*Session
	byMessage map[string]*Session // messageID → session
}

// NewManager creates an empty session Manager.
func NewManager() *Manager {
	return &Manager{
		byKey:     make(map[Key]*Session),
		byMessage: make(map[string]*Session),
	}
}

// Start registers a new session for the pair, replacing any existing one.
//
// Precondition: guildID and playerID must be non-empty; game must be non-nil.
// Postcondition: Returns the new session; any prior session for the pair is
// deregistered, including its message index entry.
func (m *Manager) Start(guildID, playerID string, game *engine.Game) (*Session, error) {
	if guildID == "" || playerID == "" {
		return nil, fmt.Errorf("session: guild and player IDs must not be empty")
	}
	if game == nil {
		return nil, fmt.Errorf("session: game must not be nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := Key{GuildID: guildID, PlayerID: playerID}
	if old, exists := m.byKey[key]; exists {
		delete(m.byMessage, old.MessageID)
	}

	sess := &Session{
		Handle:   uuid.NewString(),
		GuildID:  guildID,
		PlayerID: playerID,
		Game:     game,
	}
	m.byKey[key] = sess
	return sess, nil
}

// BindMessage associates the session with the Discord message that renders
// it, enabling LookupByMessage for reaction dispatch.
//
// Precondition: sess must have been returned by Start; messageID must be
// non-empty.
// Postcondition: Returns an error if the session is no longer registered
// (replaced or ended between render and bind).
func (m *Manager) BindMessage(sess *Session, channelID, messageID string) error {
	if messageID == "" {
		return fmt.Errorf("session: messageID must not be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := Key{GuildID: sess.GuildID, PlayerID: sess.PlayerID}
	current, exists := m.byKey[key]
	if !exists || current.Handle != sess.Handle {
		return fmt.Errorf("session %s no longer active", sess.Handle)
	}

	delete(m.byMessage, sess.MessageID)
	sess.ChannelID = channelID
	sess.MessageID = messageID
	m.byMessage[messageID] = sess
	return nil
}

// Lookup returns the active session for the pair.
//
// Postcondition: Returns (session, true) if found, or (nil, false) otherwise.
func (m *Manager) Lookup(guildID, playerID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.byKey[Key{GuildID: guildID, PlayerID: playerID}]
	return sess, ok
}

// LookupByMessage returns the session rendered by the given message.
// Reaction events only carry the message ID, so dispatch resolves through
// here; an absent result means the event is stale and must be ignored.
func (m *Manager) LookupByMessage(messageID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.byMessage[messageID]
	return sess, ok
}

// End removes the session for the pair.
//
// Postcondition: Returns an error if no session exists. Subsequent lookups
// for the pair or its message return absent.
func (m *Manager) End(guildID, playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := Key{GuildID: guildID, PlayerID: playerID}
	sess, exists := m.byKey[key]
	if !exists {
		return fmt.Errorf("session: no active game for player %q on guild %q", playerID, guildID)
	}

	delete(m.byMessage, sess.MessageID)
	delete(m.byKey, key)
	return nil
}

// Count returns the number of active sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byKey)
}
