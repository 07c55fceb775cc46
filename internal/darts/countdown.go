package darts

import (
	"strconv"

	"github.com/scoreboardlabs/dartserver-backend/internal/apperror"
	"github.com/scoreboardlabs/dartserver-backend/internal/entity"
)

// CountdownPlayer is the per-player state of a 301/401/501 game.
type CountdownPlayer struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
	IsTurn bool   `json:"is_turn"`
}

// CountdownState is the variant payload embedded in the broadcast game state.
type CountdownState struct {
	Type       string            `json:"type"`
	StartScore int               `json:"start_score"`
	DoubleOut  bool              `json:"double_out"`
	Players    []CountdownPlayer `json:"players"`
}

// Countdown implements the 301/401/501 rules: every dart subtracts
// base*multiplier, overshooting or landing on 1 busts, and reaching exactly 0
// wins unless double-out demands a double for the final dart.
type Countdown struct {
	startScore int
	doubleOut  bool
	players    []CountdownPlayer
}

func NewCountdown(roster []entity.Player, startScore int, doubleOut bool) *Countdown {
	game := &Countdown{
		startScore: startScore,
		doubleOut:  doubleOut,
	}

	for _, player := range roster {
		game.players = append(game.players, CountdownPlayer{
			ID:    player.ID,
			Name:  player.Name,
			Score: startScore,
		})
	}

	if len(game.players) > 0 {
		game.players[0].IsTurn = true
	}

	return game
}

func (that *Countdown) ApplyThrow(playerID, baseScore int, mult entity.Multiplier) (*Result, error) {
	if playerID < 0 || playerID >= len(that.players) {
		return nil, apperror.ErrInvalidPlayer
	}

	player := &that.players[playerID]
	actual := baseScore * mult.Value()
	tentative := player.Score - actual

	result := &Result{
		PlayerID:    playerID,
		ActualScore: actual,
		NewTotal:    tentative,
	}

	// Overshoot, or landing on 1: no finish exists from 1, so both are busts
	// and the score stays where it was.
	if tentative < 0 || tentative == 1 {
		result.Bust = true
		result.NewTotal = player.Score
		return result, nil
	}

	if tentative == 0 {
		if that.doubleOut && !mult.IsDouble() {
			result.Bust = true
			result.NewTotal = player.Score
			return result, nil
		}

		player.Score = 0
		result.Winner = true
		return result, nil
	}

	player.Score = tentative

	return result, nil
}

func (that *Countdown) AddPlayer(player entity.Player) error {
	that.players = append(that.players, CountdownPlayer{
		ID:    player.ID,
		Name:  player.Name,
		Score: that.startScore,
	})

	return nil
}

func (that *Countdown) RemovePlayer(playerID int) {
	if playerID < 0 || playerID >= len(that.players) {
		return
	}

	that.players = append(that.players[:playerID], that.players[playerID+1:]...)
	for i := range that.players {
		that.players[i].ID = i
	}
}

func (that *Countdown) SetCurrentPlayer(playerID int) {
	for i := range that.players {
		that.players[i].IsTurn = i == playerID
	}
}

func (that *Countdown) PlayerScore(playerID int) int {
	if playerID < 0 || playerID >= len(that.players) {
		return 0
	}
	return that.players[playerID].Score
}

type countdownSnapshot struct {
	players []CountdownPlayer
}

func (that *Countdown) Snapshot() Snapshot {
	players := make([]CountdownPlayer, len(that.players))
	copy(players, that.players)

	return countdownSnapshot{players: players}
}

func (that *Countdown) Restore(snap Snapshot) {
	saved, ok := snap.(countdownSnapshot)
	if !ok {
		return
	}

	for i, player := range saved.players {
		if i < len(that.players) {
			that.players[i].Score = player.Score
		}
	}
}

func (that *Countdown) State() any {
	players := make([]CountdownPlayer, len(that.players))
	copy(players, that.players)

	return CountdownState{
		Type:       strconv.Itoa(that.startScore),
		StartScore: that.startScore,
		DoubleOut:  that.doubleOut,
		Players:    players,
	}
}

func (that *Countdown) Reset() {
	for i := range that.players {
		that.players[i].Score = that.startScore
	}
}
