package broadcast

import (
	"context"
	"log/slog"
	"time"

	"github.com/scoreboardlabs/dartserver-backend/internal/entity"
	"github.com/scoreboardlabs/dartserver-backend/internal/repository"
	"github.com/scoreboardlabs/dartserver-backend/internal/usecase"
)

const stateSaveTimeout = 2 * time.Second

// SessionEmitter is the Broadcaster handed to one session: it publishes every
// event on the hub and mirrors game-state snapshots into the state cache so
// the last known state survives without a live session. The cache write is as
// best-effort as the rest of the persistence layer.
type SessionEmitter struct {
	logger    *slog.Logger
	hub       *Hub
	states    repository.GameStateRepository
	sessionID string
}

func NewSessionEmitter(logger *slog.Logger, hub *Hub, states repository.GameStateRepository, sessionID string) *SessionEmitter {
	return &SessionEmitter{
		logger:    logger.With("component", "emitter", "session", sessionID),
		hub:       hub,
		states:    states,
		sessionID: sessionID,
	}
}

func (that *SessionEmitter) Emit(event string, payload any) {
	that.hub.Publish(that.sessionID, event, payload)

	if event != usecase.EventGameState {
		return
	}

	state, ok := payload.(entity.GameState)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), stateSaveTimeout)
	defer cancel()

	if err := that.states.Save(ctx, that.sessionID, state); err != nil {
		that.logger.Warn("could not cache game state", "error", err)
	}
}
