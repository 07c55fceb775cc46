package darts

import (
	"fmt"
	"strings"

	"github.com/scoreboardlabs/dartserver-backend/internal/apperror"
	"github.com/scoreboardlabs/dartserver-backend/internal/entity"
)

type GameType string

const (
	Type301     GameType = "301"
	Type401     GameType = "401"
	Type501     GameType = "501"
	TypeCricket GameType = "cricket"
)

// ParseGameType normalizes a game type tag coming from a client.
func ParseGameType(raw string) (GameType, error) {
	switch gt := GameType(strings.ToLower(raw)); gt {
	case Type301, Type401, Type501, TypeCricket:
		return gt, nil
	default:
		return "", fmt.Errorf("%w: %q", apperror.ErrUnknownGameType, raw)
	}
}

// StartScore is the count-down starting total, zero for cricket.
func (that GameType) StartScore() int {
	switch that {
	case Type301:
		return 301
	case Type401:
		return 401
	case Type501:
		return 501
	default:
		return 0
	}
}

// Result describes the outcome of a single dart. Bust and Winner are modeled
// outcomes, not errors; Target/Opened/Closed/PointsScored are cricket-only.
type Result struct {
	PlayerID     int
	ActualScore  int
	NewTotal     int
	Bust         bool
	Winner       bool
	Target       int
	Opened       bool
	Closed       bool
	PointsScored int
}

// Snapshot is an opaque, structurally independent copy of a variant's mutable
// state. Produced by Engine.Snapshot at turn boundaries and fed back through
// Engine.Restore to undo a whole turn.
type Snapshot any

// Engine is the contract both game variants implement. ApplyThrow mutates the
// variant state and reports the outcome; an invalid player id leaves the state
// untouched and returns apperror.ErrInvalidPlayer.
type Engine interface {
	ApplyThrow(playerID, baseScore int, mult entity.Multiplier) (*Result, error)
	AddPlayer(player entity.Player) error
	RemovePlayer(playerID int)
	SetCurrentPlayer(playerID int)
	PlayerScore(playerID int) int
	Snapshot() Snapshot
	Restore(snap Snapshot)
	State() any
	Reset()
}

// New builds the engine for a game type. Double-out only applies to the
// count-down variants.
func New(gameType GameType, roster []entity.Player, doubleOut bool) Engine {
	if gameType == TypeCricket {
		return NewCricket(roster)
	}
	return NewCountdown(roster, gameType.StartScore(), doubleOut)
}
