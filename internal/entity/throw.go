package entity

import "strings"

// Multiplier is the segment kind reported by the dartboard for a single dart.
type Multiplier string

const (
	Single     Multiplier = "SINGLE"
	Double     Multiplier = "DOUBLE"
	Triple     Multiplier = "TRIPLE"
	Bull       Multiplier = "BULL"
	DoubleBull Multiplier = "DBLBULL"
)

// ParseMultiplier normalizes a raw multiplier string. Anything unrecognized
// falls back to SINGLE so a garbled hardware event still counts as a dart.
func ParseMultiplier(raw string) Multiplier {
	switch m := Multiplier(strings.ToUpper(raw)); m {
	case Single, Double, Triple, Bull, DoubleBull:
		return m
	default:
		return Single
	}
}

// Value is the numeric factor applied to the base score.
func (that Multiplier) Value() int {
	switch that {
	case Double, DoubleBull:
		return 2
	case Triple:
		return 3
	default:
		return 1
	}
}

// IsDouble reports whether the segment satisfies a double-out finish.
func (that Multiplier) IsDouble() bool {
	return that == Double || that == DoubleBull
}

// ThrowRecord is one dart of the active turn, kept by the turn tracker so a
// bust can be explained and the persisted rows of the turn counted for undo.
type ThrowRecord struct {
	BaseScore       int
	Multiplier      Multiplier
	MultiplierValue int
	ActualScore     int
	ThrowNumber     int
	ScoreBefore     int
}

// ThrowLog is the persistence-facing shape of a single throw.
type ThrowLog struct {
	PlayerID        int
	BaseScore       int
	Multiplier      Multiplier
	MultiplierValue int
	ActualScore     int
	ScoreBefore     int
	ScoreAfter      int
	TurnNumber      int
	ThrowInTurn     int
	IsBust          bool
	IsFinish        bool
}
