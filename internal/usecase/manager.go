package usecase

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/scoreboardlabs/dartserver-backend/internal/apperror"
)

// DefaultSessionID names the session created at startup; single-board
// deployments never need another one.
const DefaultSessionID = "default"

// RecorderFactory builds a score recorder for a new session. Each session
// gets its own recorder because a recorder tracks the rows of one running
// game.
type RecorderFactory func() ScoreRecorder

// EmitterFactory builds the broadcaster for a session's event stream.
type EmitterFactory func(sessionID string) Broadcaster

// SessionInfo is the listing row for one session.
type SessionInfo struct {
	ID       string `json:"id"`
	Active   bool   `json:"active"`
	GameType string `json:"game_type"`
	Players  int    `json:"players"`
	Started  bool   `json:"is_started"`
}

// SessionManager owns every live session: a map from session id to session,
// plus the notion of the single "active" session that id-less lookups resolve
// to. Sessions share no state and run independently.
type SessionManager struct {
	logger      *slog.Logger
	newRecorder RecorderFactory
	newEmitter  EmitterFactory
	opts        Options

	mu       sync.RWMutex
	sessions map[string]*Session
	activeID string
}

func NewSessionManager(logger *slog.Logger, newRecorder RecorderFactory, newEmitter EmitterFactory, opts Options) *SessionManager {
	manager := &SessionManager{
		logger:      logger.With("component", "session_manager"),
		newRecorder: newRecorder,
		newEmitter:  newEmitter,
		opts:        opts,
		sessions:    make(map[string]*Session),
	}

	// A deployment always has at least one session to route throws to.
	if _, err := manager.Create(DefaultSessionID); err != nil {
		manager.logger.Error("failed to create default session", "error", err)
	}

	return manager
}

// Create registers a new session under the given id and makes it active when
// it is the first one.
func (that *SessionManager) Create(id string) (*Session, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.sessions[id]; ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrSessionExists, id)
	}

	session := NewSession(that.logger, that.newRecorder(), that.newEmitter(id), that.opts)
	that.sessions[id] = session

	if that.activeID == "" {
		that.activeID = id
	}

	that.logger.Info("session created", "session_id", id)

	return session, nil
}

// Get resolves a session id; the empty id means the active session.
func (that *SessionManager) Get(id string) (*Session, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	if id == "" {
		id = that.activeID
	}

	session, ok := that.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrSessionNotFound, id)
	}

	return session, nil
}

// SetActive switches which session id-less lookups resolve to.
func (that *SessionManager) SetActive(id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", apperror.ErrSessionNotFound, id)
	}

	that.activeID = id
	that.logger.Info("active session changed", "session_id", id)

	return nil
}

// Delete removes a session. The last remaining session cannot be deleted;
// deleting the active one re-points the active id at any survivor.
func (that *SessionManager) Delete(id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", apperror.ErrSessionNotFound, id)
	}

	if len(that.sessions) == 1 {
		return apperror.ErrLastSession
	}

	delete(that.sessions, id)

	if that.activeID == id {
		for survivor := range that.sessions {
			that.activeID = survivor
			break
		}
	}

	that.logger.Info("session deleted", "session_id", id)

	return nil
}

// Has reports whether a session id exists.
func (that *SessionManager) Has(id string) bool {
	that.mu.RLock()
	defer that.mu.RUnlock()

	_, ok := that.sessions[id]

	return ok
}

// ActiveID returns the id of the active session.
func (that *SessionManager) ActiveID() string {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.activeID
}

// List returns one row per session, sorted by id.
func (that *SessionManager) List() []SessionInfo {
	that.mu.RLock()
	ids := make([]string, 0, len(that.sessions))
	for id := range that.sessions {
		ids = append(ids, id)
	}
	activeID := that.activeID
	that.mu.RUnlock()

	sort.Strings(ids)

	infos := make([]SessionInfo, 0, len(ids))
	for _, id := range ids {
		session, err := that.Get(id)
		if err != nil {
			continue
		}

		state := session.GameState()
		infos = append(infos, SessionInfo{
			ID:       id,
			Active:   id == activeID,
			GameType: state.GameType,
			Players:  len(state.Players),
			Started:  state.IsStarted,
		})
	}

	return infos
}
