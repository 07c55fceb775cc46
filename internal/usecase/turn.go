package usecase

import (
	"github.com/scoreboardlabs/dartserver-backend/internal/darts"
	"github.com/scoreboardlabs/dartserver-backend/internal/entity"
)

// TurnTracker records every throw of the active turn and keeps the deep-copy
// snapshot of the variant state taken when the turn began. A bust discards the
// whole turn: the snapshot goes back into the engine and the throw list tells
// the persistence layer how many rows to delete. There is no partial undo.
type TurnTracker struct {
	throws     []entity.ThrowRecord
	startState darts.Snapshot
}

// BeginTurn clears the throw list and snapshots the engine. Called on every
// rotation: game start, next-player and skip-to-player.
func (that *TurnTracker) BeginTurn(game darts.Engine) {
	that.throws = that.throws[:0]
	that.startState = nil

	if game != nil {
		that.startState = game.Snapshot()
	}
}

// Record appends a throw. The session records before invoking the rule engine
// so that even a bust throw ends up in the log.
func (that *TurnTracker) Record(throw entity.ThrowRecord) {
	that.throws = append(that.throws, throw)
}

// Last returns the most recent throw of the turn.
func (that *TurnTracker) Last() (entity.ThrowRecord, bool) {
	if len(that.throws) == 0 {
		return entity.ThrowRecord{}, false
	}
	return that.throws[len(that.throws)-1], true
}

// Count is the number of throws recorded this turn, busts included.
func (that *TurnTracker) Count() int {
	return len(that.throws)
}

// RestoreTurnStart replays the saved snapshot into the engine, undoing every
// throw since the last rotation. Reports whether a snapshot existed.
func (that *TurnTracker) RestoreTurnStart(game darts.Engine) bool {
	if that.startState == nil || game == nil {
		return false
	}

	game.Restore(that.startState)

	return true
}
