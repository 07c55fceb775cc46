package usecase

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/scoreboardlabs/dartserver-backend/internal/advice"
	"github.com/scoreboardlabs/dartserver-backend/internal/darts"
	"github.com/scoreboardlabs/dartserver-backend/internal/entity"
)

const throwsPerTurn = 3

// ScoreEvent is one dart as reported by a client or the dartboard hardware.
// Score is raw JSON because hardware occasionally sends it as a quoted string;
// anything unparseable counts as 0.
type ScoreEvent struct {
	Score      json.RawMessage `json:"score"`
	Multiplier string          `json:"multiplier"`
}

// Options carries the per-deployment knobs a session needs up front instead of
// reading them from a global mid-throw.
type Options struct {
	// DartboardSendsActualScore - the board reports 60 for a triple 20
	// instead of the base 20.
	DartboardSendsActualScore bool
	// ShowThrowoutAdvice attaches checkout suggestions to the emitted state.
	ShowThrowoutAdvice bool
}

// Session is the aggregate root of one darts game: roster, rotation, throw
// counters, the active rule engine and the turn tracker. All exported methods
// serialize on one mutex; turn-tracking invariants are not safe under
// interleaved writers.
type Session struct {
	logger      *slog.Logger
	recorder    ScoreRecorder
	broadcaster Broadcaster
	opts        Options

	mu            sync.Mutex
	players       []entity.Player
	currentPlayer int
	gameType      darts.GameType
	doubleOut     bool
	game          darts.Engine
	isStarted     bool
	isPaused      bool
	isWinner      bool
	currentThrow  int
	turnNumbers   map[int]int
	tracker       TurnTracker
}

func NewSession(logger *slog.Logger, recorder ScoreRecorder, broadcaster Broadcaster, opts Options) *Session {
	return &Session{
		logger:      logger.With("component", "session"),
		recorder:    recorder,
		broadcaster: broadcaster,
		opts:        opts,

		gameType:     darts.Type301,
		isPaused:     true,
		currentThrow: 1,
		turnNumbers:  make(map[int]int),
	}
}

// NewGame replaces the whole session: roster (when names are given), engine,
// counters and the persisted game session. The previous game is simply
// overwritten, there is no teardown.
func (that *Session) NewGame(gameType string, playerNames []string, doubleOut bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	log := that.logger.With("method", "NewGame")

	parsed, err := darts.ParseGameType(gameType)
	if err != nil {
		log.Warn("unknown game type, defaulting to 301", "game_type", gameType)
		parsed = darts.Type301
	}
	that.gameType = parsed
	that.doubleOut = doubleOut

	if len(playerNames) > 0 {
		that.players = that.players[:0]
		for i, name := range playerNames {
			that.players = append(that.players, entity.Player{ID: i, Name: name})
		}
	} else if len(that.players) == 0 {
		that.players = []entity.Player{
			{ID: 0, Name: "Player 1"},
			{ID: 1, Name: "Player 2"},
		}
	}

	that.game = darts.New(that.gameType, that.players, doubleOut)

	that.currentPlayer = 0
	that.isStarted = true
	that.isPaused = false
	that.isWinner = false
	that.currentThrow = 1

	that.turnNumbers = make(map[int]int, len(that.players))
	for _, player := range that.players {
		that.turnNumbers[player.ID] = 1
	}

	that.tracker.BeginTurn(that.game)

	names := make([]string, len(that.players))
	for i, player := range that.players {
		names[i] = player.Name
	}

	if _, err = that.recorder.StartNewGame(string(that.gameType), names, that.gameType.StartScore(), doubleOut); err != nil {
		log.Warn("could not start game in database", "error", err)
	}

	that.emitGameState()
	that.emitSound("intro")
	message := fmt.Sprintf("%s, Throw Darts", that.players[that.currentPlayer].Name)
	that.emitMessage(message)
	that.emitSound("yerTurn")

	log.Info("new game started", "game_type", that.gameType, "players", len(that.players), "double_out", doubleOut)
}

// AddPlayer appends a player with the next contiguous id. Cricket games are
// capped at four players; count-down games have no cap.
func (that *Session) AddPlayer(name string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	log := that.logger.With("method", "AddPlayer")

	if name == "" {
		name = fmt.Sprintf("Player %d", len(that.players)+1)
	}

	if that.gameType == darts.TypeCricket && len(that.players) >= darts.MaxCricketPlayers {
		log.Warn("cricket game supports maximum 4 players")
		return
	}

	player := entity.Player{ID: len(that.players), Name: name}
	that.players = append(that.players, player)
	that.turnNumbers[player.ID] = 1

	if that.game != nil {
		if err := that.game.AddPlayer(player); err != nil {
			log.Warn("engine rejected player", "error", err)
		}
	}

	that.emitGameState()
	that.emitSound("addPlayer")

	log.Info("player added", "name", name, "id", player.ID)
}

// RemovePlayer drops a player and renumbers the remaining ids contiguously
// from 0. The roster floor is one player: single-player practice is allowed,
// an empty roster is not.
func (that *Session) RemovePlayer(playerID int) {
	that.mu.Lock()
	defer that.mu.Unlock()

	log := that.logger.With("method", "RemovePlayer")

	if len(that.players) <= 1 {
		log.Warn("cannot remove player: at least 1 player required")
		return
	}

	if playerID < 0 || playerID >= len(that.players) {
		log.Warn("invalid player id", "id", playerID)
		return
	}

	removed := that.players[playerID]
	that.players = append(that.players[:playerID], that.players[playerID+1:]...)
	for i := range that.players {
		that.players[i].ID = i
	}

	if that.currentPlayer >= len(that.players) {
		that.currentPlayer = 0
	}

	if that.game != nil {
		that.game.RemovePlayer(playerID)
	}

	// Turn snapshots index players positionally, so the one taken before the
	// renumbering would restore scores onto the wrong players. Re-snapshot;
	// a later bust rolls back to this point, not to the turn start.
	that.tracker.BeginTurn(that.game)

	that.emitGameState()
	that.emitSound("removePlayer")

	log.Info("player removed", "name", removed.Name)
}

// ProcessScore ingests one dart. No-op unless a game is running and not
// paused. The throw is recorded in the turn tracker before the rule engine
// runs so a bust still reaches the persisted log.
func (that *Session) ProcessScore(event ScoreEvent) {
	that.mu.Lock()
	defer that.mu.Unlock()

	log := that.logger.With("method", "ProcessScore")

	if !that.isStarted || that.isPaused {
		log.Debug("game not active, ignoring score")
		return
	}

	baseScore := parseScore(log, event.Score)
	if baseScore < 0 {
		log.Warn("negative score value, ignoring score", "score", baseScore)
		return
	}

	mult := entity.ParseMultiplier(event.Multiplier)
	multValue := mult.Value()

	// The board either reports the segment's base value or the already
	// multiplied total, depending on the hardware.
	var actualScore int
	if that.opts.DartboardSendsActualScore {
		actualScore = baseScore
		baseScore /= multValue
	} else {
		actualScore = baseScore * multValue
	}

	scoreBefore := that.playerScore(that.currentPlayer)

	that.tracker.Record(entity.ThrowRecord{
		BaseScore:       baseScore,
		Multiplier:      mult,
		MultiplierValue: multValue,
		ActualScore:     actualScore,
		ThrowNumber:     that.currentThrow,
		ScoreBefore:     scoreBefore,
	})

	result, err := that.game.ApplyThrow(that.currentPlayer, baseScore, mult)
	if err != nil {
		log.Error("failed to apply throw", "error", err)
		that.emitGameState()
		return
	}

	that.emitThrowEffects(mult, baseScore, actualScore)

	switch {
	case result.Bust:
		that.handleBust()
	case result.Winner:
		that.handleWinner(result.PlayerID)
	default:
		that.recordThrow(scoreBefore, that.playerScore(that.currentPlayer), false, false)

		that.currentThrow++
		if that.currentThrow > throwsPerTurn {
			that.endTurn()
		}
	}

	that.emitGameState()

	log.Debug("score processed", "score", baseScore, "multiplier", mult)
}

// NextPlayer rotates to the next player, wrapping around the roster, and
// starts a fresh turn at the new undo point.
func (that *Session) NextPlayer() {
	that.mu.Lock()
	defer that.mu.Unlock()

	if !that.isStarted || len(that.players) == 0 {
		return
	}

	that.rotateTo((that.currentPlayer + 1) % len(that.players))
}

// SkipToPlayer jumps straight to a specific player.
func (that *Session) SkipToPlayer(playerID int) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if !that.isStarted || playerID < 0 || playerID >= len(that.players) {
		return
	}

	that.rotateTo(playerID)
}

func (that *Session) rotateTo(playerID int) {
	that.currentPlayer = playerID
	that.currentThrow = 1
	that.isPaused = false

	if that.game != nil {
		that.game.SetCurrentPlayer(playerID)
	}

	that.tracker.BeginTurn(that.game)

	that.emitGameState()
	message := fmt.Sprintf("%s, Throw Darts", that.players[playerID].Name)
	that.emitSound(fmt.Sprintf("Player%d", playerID+1))
	that.emitMessage(message)
}

// GameState snapshots the session for viewers. Calling it twice without an
// intervening mutation yields structurally identical payloads.
func (that *Session) GameState() entity.GameState {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.gameState()
}

func (that *Session) gameState() entity.GameState {
	players := make([]entity.Player, len(that.players))
	copy(players, that.players)

	state := entity.GameState{
		Players:       players,
		CurrentPlayer: that.currentPlayer,
		GameType:      string(that.gameType),
		IsStarted:     that.isStarted,
		IsPaused:      that.isPaused,
		IsWinner:      that.isWinner,
		CurrentThrow:  that.currentThrow,
	}

	if that.game != nil {
		state.GameData = that.game.State()
	}

	if that.opts.ShowThrowoutAdvice && that.game != nil && that.gameType != darts.TypeCricket {
		state.ThrowoutAdvice = advice.ForScore(that.playerScore(that.currentPlayer))
	}

	return state
}

// Players returns a copy of the roster.
func (that *Session) Players() []entity.Player {
	that.mu.Lock()
	defer that.mu.Unlock()

	players := make([]entity.Player, len(that.players))
	copy(players, that.players)

	return players
}

// handleBust persists the bust throw itself, deletes the turn's earlier rows,
// rolls the variant state back to the turn start and pauses until an explicit
// continue. The whole turn is discarded, valid earlier throws included.
func (that *Session) handleBust() {
	log := that.logger.With("method", "handleBust")

	if last, ok := that.tracker.Last(); ok {
		// Score stays the same on a bust.
		that.recordThrow(last.ScoreBefore, last.ScoreBefore, true, false)
	}

	if undoCount := that.tracker.Count() - 1; undoCount > 0 {
		if err := that.recorder.UndoThrowsForBust(that.currentPlayer, undoCount); err != nil {
			log.Warn("could not undo throws in database", "error", err)
		}
	}

	if !that.tracker.RestoreTurnStart(that.game) {
		log.Warn("no turn start state to restore")
	}

	that.isPaused = true
	that.currentThrow = throwsPerTurn + 1

	that.emitMessage("BUST! Remove Darts, Press Button to Continue")
	that.emitSound("Bust")
	that.emitVideo("bust.mp4", 0)

	log.Info("bust, turn undone", "throws", that.tracker.Count())
}

func (that *Session) handleWinner(playerID int) {
	log := that.logger.With("method", "handleWinner")

	if last, ok := that.tracker.Last(); ok {
		that.recordThrow(last.ScoreBefore, 0, false, true)
	}

	if err := that.recorder.MarkWinner(playerID); err != nil {
		log.Warn("could not mark winner in database", "error", err)
	}

	that.isWinner = true
	that.isPaused = true

	winner := that.players[playerID].Name
	that.emitMessage(fmt.Sprintf("%s WINS!", winner))
	that.emitSound("WeHaveAWinner")
	that.emitVideo("winner.mp4", 0)

	log.Info("winner", "player", winner)
}

// endTurn pauses after the third throw. The next turn starts only on an
// explicit next-player action, never automatically.
func (that *Session) endTurn() {
	log := that.logger.With("method", "endTurn")

	if err := that.recorder.UpdatePlayerScore(that.currentPlayer, that.playerScore(that.currentPlayer)); err != nil {
		log.Warn("could not update player score in database", "error", err)
	}

	that.turnNumbers[that.currentPlayer]++

	that.isPaused = true
	that.emitMessage("Remove Darts, Press Button to Continue")
	that.emitSound("RemoveDarts")
}

func (that *Session) recordThrow(scoreBefore, scoreAfter int, isBust, isFinish bool) {
	last, ok := that.tracker.Last()
	if !ok {
		return
	}

	err := that.recorder.RecordThrow(entity.ThrowLog{
		PlayerID:        that.currentPlayer,
		BaseScore:       last.BaseScore,
		Multiplier:      last.Multiplier,
		MultiplierValue: last.MultiplierValue,
		ActualScore:     last.ActualScore,
		ScoreBefore:     scoreBefore,
		ScoreAfter:      scoreAfter,
		TurnNumber:      that.turnNumbers[that.currentPlayer],
		ThrowInTurn:     last.ThrowNumber,
		IsBust:          isBust,
		IsFinish:        isFinish,
	})
	if err != nil {
		that.logger.Warn("could not record throw in database", "error", err)
	}
}

func (that *Session) playerScore(playerID int) int {
	if that.game == nil {
		return 0
	}
	return that.game.PlayerScore(playerID)
}

// parseScore tolerates hardware quirks: missing values and unparseable
// payloads default to 0, quoted numbers are accepted.
func parseScore(log *slog.Logger, raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}

	var number int
	if err := json.Unmarshal(raw, &number); err == nil {
		return number
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if number, err := strconv.Atoi(text); err == nil {
			return number
		}
	}

	log.Warn("invalid score value, defaulting to 0", "raw", string(raw))

	return 0
}
