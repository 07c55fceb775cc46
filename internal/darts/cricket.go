package darts

import (
	"github.com/scoreboardlabs/dartserver-backend/internal/apperror"
	"github.com/scoreboardlabs/dartserver-backend/internal/entity"
)

// MaxCricketPlayers caps roster growth in cricket games. The cap applies to
// adding players, not to the roster a game is created with.
const MaxCricketPlayers = 4

// CricketTargets are the scoreable numbers: 15 through 20 plus the bull.
var CricketTargets = []int{15, 16, 17, 18, 19, 20, 25}

type TargetStatus int

const (
	// TargetClosedForMe - the player has fewer than three hits on the target.
	TargetClosedForMe TargetStatus = 0
	// TargetOpen - the player has three hits and scores points on further hits.
	TargetOpen TargetStatus = 1
	// TargetClosedForAll - every player has three hits; the target is dead.
	TargetClosedForAll TargetStatus = 2
)

type TargetState struct {
	Hits   int          `json:"hits"`
	Status TargetStatus `json:"status"`
}

// CricketPlayer is the per-player cricket board: a running score plus the
// hit count and status of every target.
type CricketPlayer struct {
	ID      int                  `json:"id"`
	Name    string               `json:"name"`
	Score   int                  `json:"score"`
	IsTurn  bool                 `json:"is_turn"`
	Targets map[int]*TargetState `json:"targets"`
}

// CricketState is the variant payload embedded in the broadcast game state.
type CricketState struct {
	Type    string          `json:"type"`
	Targets []int           `json:"targets"`
	Players []CricketPlayer `json:"players"`
}

// Cricket implements the progressive opening/closing rules: three hits open a
// target for a player, hits on an own-open target score its value, and once
// every player has opened a target it closes for all and stops scoring.
type Cricket struct {
	players []CricketPlayer
}

func NewCricket(roster []entity.Player) *Cricket {
	game := &Cricket{}

	for _, player := range roster {
		game.players = append(game.players, newCricketPlayer(player))
	}

	if len(game.players) > 0 {
		game.players[0].IsTurn = true
	}

	return game
}

func newCricketPlayer(player entity.Player) CricketPlayer {
	targets := make(map[int]*TargetState, len(CricketTargets))
	for _, target := range CricketTargets {
		targets[target] = &TargetState{}
	}

	return CricketPlayer{
		ID:      player.ID,
		Name:    player.Name,
		Targets: targets,
	}
}

func (that *Cricket) ApplyThrow(playerID, baseScore int, mult entity.Multiplier) (*Result, error) {
	if playerID < 0 || playerID >= len(that.players) {
		return nil, apperror.ErrInvalidPlayer
	}

	player := &that.players[playerID]

	result := &Result{
		PlayerID:    playerID,
		Target:      baseScore,
		ActualScore: baseScore * mult.Value(),
	}

	target, ok := player.Targets[baseScore]
	if !ok {
		// Not a cricket number: the dart lands, nothing happens.
		return result, nil
	}

	if target.Status == TargetClosedForAll {
		return result, nil
	}

	// The multiplier counts as that many individual darts on the target. A hit
	// while the target is already open scores; the hit that opens it does not.
	for i := 0; i < mult.Value(); i++ {
		if target.Status == TargetOpen {
			player.Score += baseScore
			result.PointsScored += baseScore
		}

		if target.Hits < 3 {
			target.Hits++

			if target.Hits == 3 {
				target.Status = TargetOpen
				result.Opened = true

				if that.allOpened(baseScore) {
					that.closeTargetForAll(baseScore)
					result.Closed = true
				}
			}
		}
	}

	if that.isWinner(playerID) {
		result.Winner = true
	}

	return result, nil
}

func (that *Cricket) allOpened(target int) bool {
	for i := range that.players {
		if that.players[i].Targets[target].Hits < 3 {
			return false
		}
	}
	return true
}

func (that *Cricket) closeTargetForAll(target int) {
	for i := range that.players {
		that.players[i].Targets[target].Status = TargetClosedForAll
	}
}

// isWinner - a player wins after opening all seven targets, provided their
// score is not behind anyone. When all targets are globally closed only the
// strict top score wins; otherwise ties resolve in favor of the player whose
// throw triggered the check.
func (that *Cricket) isWinner(playerID int) bool {
	player := &that.players[playerID]

	for _, target := range CricketTargets {
		if player.Targets[target].Hits < 3 {
			return false
		}
	}

	allClosed := true
	for _, target := range CricketTargets {
		if player.Targets[target].Status != TargetClosedForAll {
			allClosed = false
			break
		}
	}

	maxScore := 0
	for i := range that.players {
		if that.players[i].Score > maxScore {
			maxScore = that.players[i].Score
		}
	}

	if allClosed {
		return player.Score == maxScore
	}

	return player.Score >= maxScore
}

func (that *Cricket) AddPlayer(player entity.Player) error {
	if len(that.players) >= MaxCricketPlayers {
		return apperror.ErrRosterAtCapacity
	}

	that.players = append(that.players, newCricketPlayer(player))

	return nil
}

func (that *Cricket) RemovePlayer(playerID int) {
	if playerID < 0 || playerID >= len(that.players) {
		return
	}

	that.players = append(that.players[:playerID], that.players[playerID+1:]...)
	for i := range that.players {
		that.players[i].ID = i
	}
}

func (that *Cricket) SetCurrentPlayer(playerID int) {
	for i := range that.players {
		that.players[i].IsTurn = i == playerID
	}
}

func (that *Cricket) PlayerScore(playerID int) int {
	if playerID < 0 || playerID >= len(that.players) {
		return 0
	}
	return that.players[playerID].Score
}

type cricketSnapshot struct {
	players []CricketPlayer
}

func (that *Cricket) Snapshot() Snapshot {
	return cricketSnapshot{players: clonePlayers(that.players)}
}

// Restore replays a snapshot into the live state. Both the score and the
// target maps come back as copies so the snapshot never aliases live state.
func (that *Cricket) Restore(snap Snapshot) {
	saved, ok := snap.(cricketSnapshot)
	if !ok {
		return
	}

	for i, player := range saved.players {
		if i >= len(that.players) {
			break
		}

		that.players[i].Score = player.Score
		that.players[i].Targets = cloneTargets(player.Targets)
	}
}

func clonePlayers(players []CricketPlayer) []CricketPlayer {
	cloned := make([]CricketPlayer, len(players))
	for i, player := range players {
		cloned[i] = player
		cloned[i].Targets = cloneTargets(player.Targets)
	}
	return cloned
}

func cloneTargets(targets map[int]*TargetState) map[int]*TargetState {
	cloned := make(map[int]*TargetState, len(targets))
	for number, state := range targets {
		copied := *state
		cloned[number] = &copied
	}
	return cloned
}

func (that *Cricket) State() any {
	return CricketState{
		Type:    string(TypeCricket),
		Targets: CricketTargets,
		Players: clonePlayers(that.players),
	}
}

func (that *Cricket) Reset() {
	for i := range that.players {
		that.players[i].Score = 0
		for _, target := range CricketTargets {
			that.players[i].Targets[target] = &TargetState{}
		}
	}
}
