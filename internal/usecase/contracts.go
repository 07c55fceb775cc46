package usecase

import "github.com/scoreboardlabs/dartserver-backend/internal/entity"

// Broadcast event names consumed by the transport layer.
const (
	EventGameState  = "game_state"
	EventPlaySound  = "play_sound"
	EventPlayVideo  = "play_video"
	EventMessage    = "message"
	EventBigMessage = "big_message"
)

// ScoreRecorder is the persistence adapter the session calls after every state
// change. All calls are best-effort: the session logs failures and keeps
// playing, in-memory state is the source of truth.
type ScoreRecorder interface {
	StartNewGame(gameType string, playerNames []string, startScore int, doubleOut bool) (string, error)
	RecordThrow(log entity.ThrowLog) error
	UndoThrowsForBust(playerID, throwCount int) error
	UpdatePlayerScore(playerID, score int) error
	MarkWinner(playerID int) error
}

// Broadcaster fans state and effect events out to connected viewers.
// Emission is fire-and-forget; a slow or dead viewer never blocks gameplay.
type Broadcaster interface {
	Emit(event string, payload any)
}
