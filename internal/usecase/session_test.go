package usecase

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/scoreboardlabs/dartserver-backend/internal/darts"
	"github.com/scoreboardlabs/dartserver-backend/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStorageDown = errors.New("storage down")

// stubRecorder captures persistence calls and can be told to fail them all.
type stubRecorder struct {
	failing bool

	started      []string
	throws       []entity.ThrowLog
	undoCounts   []int
	scoreUpdates map[int]int
	winners      []int
}

func newStubRecorder() *stubRecorder {
	return &stubRecorder{scoreUpdates: make(map[int]int)}
}

func (that *stubRecorder) StartNewGame(gameType string, _ []string, _ int, _ bool) (string, error) {
	if that.failing {
		return "", errStorageDown
	}
	that.started = append(that.started, gameType)
	return "session-1", nil
}

func (that *stubRecorder) RecordThrow(log entity.ThrowLog) error {
	if that.failing {
		return errStorageDown
	}
	that.throws = append(that.throws, log)
	return nil
}

func (that *stubRecorder) UndoThrowsForBust(_, throwCount int) error {
	if that.failing {
		return errStorageDown
	}
	that.undoCounts = append(that.undoCounts, throwCount)
	return nil
}

func (that *stubRecorder) UpdatePlayerScore(playerID, score int) error {
	if that.failing {
		return errStorageDown
	}
	that.scoreUpdates[playerID] = score
	return nil
}

func (that *stubRecorder) MarkWinner(playerID int) error {
	if that.failing {
		return errStorageDown
	}
	that.winners = append(that.winners, playerID)
	return nil
}

// stubBroadcaster records emitted events in order.
type stubBroadcaster struct {
	events []string
}

func (that *stubBroadcaster) Emit(event string, _ any) {
	that.events = append(that.events, event)
}

func newTestSession(opts Options) (*Session, *stubRecorder, *stubBroadcaster) {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	recorder := newStubRecorder()
	broadcaster := &stubBroadcaster{}

	return NewSession(logger, recorder, broadcaster, opts), recorder, broadcaster
}

func throw(score int, multiplier string) ScoreEvent {
	return ScoreEvent{
		Score:      json.RawMessage(fmt.Sprintf("%d", score)),
		Multiplier: multiplier,
	}
}

func TestSession_NewGame(t *testing.T) {
	t.Run("DefaultPlayers", func(t *testing.T) {
		// Given: a session with no roster
		session, recorder, _ := newTestSession(Options{})

		// When: a game starts without player names
		session.NewGame("301", nil, false)

		// Then: two placeholder players are created and the game runs
		state := session.GameState()
		require.Len(t, state.Players, 2)
		require.Equal(t, "Player 1", state.Players[0].Name)
		require.True(t, state.IsStarted)
		assert.False(t, state.IsPaused)
		require.Equal(t, 1, state.CurrentThrow)
		require.Equal(t, []string{"301"}, recorder.started)
	})

	t.Run("UnknownTypeDefaultsTo301", func(t *testing.T) {
		session, _, _ := newTestSession(Options{})

		session.NewGame("banana", []string{"Alice"}, false)

		require.Equal(t, "301", session.GameState().GameType)
	})

	t.Run("ReplacesPreviousGame", func(t *testing.T) {
		// Given: a running 301 game with throws
		session, _, _ := newTestSession(Options{})
		session.NewGame("301", []string{"Alice", "Bob"}, false)
		session.ProcessScore(throw(20, "TRIPLE"))

		// When: a cricket game starts
		session.NewGame("cricket", []string{"Alice", "Bob"}, false)

		// Then: the old session state is gone
		state := session.GameState()
		require.Equal(t, "cricket", state.GameType)
		require.Equal(t, 1, state.CurrentThrow)
		assert.False(t, state.IsWinner)
	})
}

func TestSession_ProcessScore(t *testing.T) {
	t.Run("NormalThrowIsPersisted", func(t *testing.T) {
		// Given: a running 301 game
		session, recorder, _ := newTestSession(Options{})
		session.NewGame("301", []string{"Alice", "Bob"}, false)

		// When: a triple 20 comes in
		session.ProcessScore(throw(20, "TRIPLE"))

		// Then: the throw is persisted with before/after scores
		require.Len(t, recorder.throws, 1)
		logged := recorder.throws[0]
		require.Equal(t, 0, logged.PlayerID)
		require.Equal(t, 20, logged.BaseScore)
		require.Equal(t, entity.Triple, logged.Multiplier)
		require.Equal(t, 60, logged.ActualScore)
		require.Equal(t, 301, logged.ScoreBefore)
		require.Equal(t, 241, logged.ScoreAfter)
		require.Equal(t, 1, logged.TurnNumber)
		require.Equal(t, 1, logged.ThrowInTurn)
		assert.False(t, logged.IsBust)
	})

	t.Run("IgnoredWhenPaused", func(t *testing.T) {
		// Given: a game paused after a full turn
		session, recorder, _ := newTestSession(Options{})
		session.NewGame("301", []string{"Alice"}, false)
		session.ProcessScore(throw(1, "SINGLE"))
		session.ProcessScore(throw(1, "SINGLE"))
		session.ProcessScore(throw(1, "SINGLE"))
		require.True(t, session.GameState().IsPaused)
		persisted := len(recorder.throws)

		// When: another score arrives while paused
		session.ProcessScore(throw(20, "TRIPLE"))

		// Then: it is ignored entirely
		require.Len(t, recorder.throws, persisted)
		require.Equal(t, 298, session.GameState().GameData.(darts.CountdownState).Players[0].Score)
	})

	t.Run("NegativeScoreIgnored", func(t *testing.T) {
		session, recorder, _ := newTestSession(Options{})
		session.NewGame("301", []string{"Alice"}, false)

		session.ProcessScore(throw(-5, "SINGLE"))

		require.Empty(t, recorder.throws)
		require.Equal(t, 1, session.GameState().CurrentThrow)
	})

	t.Run("UnknownMultiplierDefaultsToSingle", func(t *testing.T) {
		session, recorder, _ := newTestSession(Options{})
		session.NewGame("301", []string{"Alice"}, false)

		session.ProcessScore(ScoreEvent{Score: json.RawMessage("20"), Multiplier: "quadruple"})

		require.Len(t, recorder.throws, 1)
		require.Equal(t, entity.Single, recorder.throws[0].Multiplier)
		require.Equal(t, 20, recorder.throws[0].ActualScore)
	})

	t.Run("QuotedScoreAccepted", func(t *testing.T) {
		session, recorder, _ := newTestSession(Options{})
		session.NewGame("301", []string{"Alice"}, false)

		session.ProcessScore(ScoreEvent{Score: json.RawMessage(`"20"`), Multiplier: "SINGLE"})

		require.Len(t, recorder.throws, 1)
		require.Equal(t, 20, recorder.throws[0].BaseScore)
	})

	t.Run("UnparseableScoreDefaultsToZero", func(t *testing.T) {
		session, recorder, _ := newTestSession(Options{})
		session.NewGame("301", []string{"Alice"}, false)

		session.ProcessScore(ScoreEvent{Score: json.RawMessage(`"oops"`), Multiplier: "SINGLE"})

		// A zero throw still consumes a dart.
		require.Len(t, recorder.throws, 1)
		require.Equal(t, 0, recorder.throws[0].ActualScore)
		require.Equal(t, 2, session.GameState().CurrentThrow)
	})

	t.Run("DartboardSendsActualScore", func(t *testing.T) {
		// Given: hardware that reports the multiplied total
		session, recorder, _ := newTestSession(Options{DartboardSendsActualScore: true})
		session.NewGame("301", []string{"Alice"}, false)

		// When: the board reports 60 for a triple 20
		session.ProcessScore(throw(60, "TRIPLE"))

		// Then: the engine sees base 20 and subtracts 60 once
		require.Len(t, recorder.throws, 1)
		require.Equal(t, 20, recorder.throws[0].BaseScore)
		require.Equal(t, 60, recorder.throws[0].ActualScore)
		require.Equal(t, 241, recorder.throws[0].ScoreAfter)
	})

	t.Run("TurnEndsAfterThreeThrows", func(t *testing.T) {
		// Given: a running game
		session, recorder, _ := newTestSession(Options{})
		session.NewGame("301", []string{"Alice", "Bob"}, false)

		// When: three throws land
		session.ProcessScore(throw(20, "SINGLE"))
		session.ProcessScore(throw(20, "SINGLE"))
		session.ProcessScore(throw(20, "SINGLE"))

		// Then: the session pauses without rotating and the running score is saved
		state := session.GameState()
		require.True(t, state.IsPaused)
		require.Equal(t, 0, state.CurrentPlayer)
		require.Equal(t, 4, state.CurrentThrow)
		require.Equal(t, 241, recorder.scoreUpdates[0])
	})
}

func TestSession_BustRollback(t *testing.T) {
	t.Run("Countdown", func(t *testing.T) {
		// Given: Alice on 121 after earlier play
		session, recorder, _ := newTestSession(Options{})
		session.NewGame("301", []string{"Alice", "Bob"}, false)
		session.ProcessScore(throw(20, "TRIPLE"))
		session.ProcessScore(throw(20, "TRIPLE"))
		session.ProcessScore(throw(20, "TRIPLE"))
		session.NextPlayer()
		session.NextPlayer() // back to Alice at 121
		require.Equal(t, 121, session.GameState().GameData.(darts.CountdownState).Players[0].Score)

		// When: T20 to 61, then T20 to 1 which busts
		session.ProcessScore(throw(20, "TRIPLE"))
		session.ProcessScore(throw(20, "TRIPLE"))

		// Then: the whole turn is rolled back to 121, not 61
		state := session.GameState()
		require.Equal(t, 121, state.GameData.(darts.CountdownState).Players[0].Score)
		require.True(t, state.IsPaused)
		require.Equal(t, throwsPerTurn+1, state.CurrentThrow)

		// Then: the bust throw itself was persisted with an unchanged score
		last := recorder.throws[len(recorder.throws)-1]
		require.True(t, last.IsBust)
		require.Equal(t, 61, last.ScoreBefore)
		require.Equal(t, 61, last.ScoreAfter)

		// Then: the one earlier throw of this turn was undone
		require.Equal(t, []int{1}, recorder.undoCounts)
	})

	t.Run("BustAfterMidTurnRemovalRestoresCorrectPlayers", func(t *testing.T) {
		// Given: three players with distinct scores after one full round
		session, recorder, _ := newTestSession(Options{})
		session.NewGame("301", []string{"Alice", "Bob", "Carol"}, false)
		session.ProcessScore(throw(20, "TRIPLE"))
		session.ProcessScore(throw(20, "TRIPLE"))
		session.ProcessScore(throw(20, "TRIPLE")) // Alice at 121
		session.NextPlayer()
		session.ProcessScore(throw(10, "SINGLE"))
		session.ProcessScore(throw(10, "SINGLE"))
		session.ProcessScore(throw(10, "SINGLE")) // Bob at 271
		session.NextPlayer()
		session.ProcessScore(throw(20, "TRIPLE"))
		session.ProcessScore(throw(20, "TRIPLE"))
		session.ProcessScore(throw(20, "TRIPLE")) // Carol at 121
		session.NextPlayer()                      // back to Alice

		// When: Alice throws, Bob is removed mid-turn, and Alice busts
		session.ProcessScore(throw(20, "TRIPLE")) // Alice at 61
		session.RemovePlayer(1)                   // roster is now Alice, Carol
		session.ProcessScore(throw(20, "TRIPLE")) // 61 - 60 = 1, bust

		// Then: the rollback lands on the post-removal roster, Carol keeps
		// her own score instead of inheriting Bob's
		players := session.GameState().GameData.(darts.CountdownState).Players
		require.Len(t, players, 2)
		require.Equal(t, 61, players[0].Score)
		require.Equal(t, 121, players[1].Score)

		// Then: the removal reset the undo point, so nothing was deleted
		assert.Empty(t, recorder.undoCounts)
	})

	t.Run("BustOnFirstThrowUndoesNothing", func(t *testing.T) {
		// Given: Alice on 20 after earlier turns
		session, recorder, _ := newTestSession(Options{})
		session.NewGame("301", []string{"Alice"}, false)
		session.ProcessScore(throw(20, "SINGLE"))
		session.ProcessScore(throw(20, "SINGLE"))
		session.ProcessScore(throw(20, "SINGLE"))
		session.NextPlayer()
		session.ProcessScore(throw(20, "TRIPLE"))
		session.ProcessScore(throw(20, "TRIPLE"))
		session.ProcessScore(throw(20, "TRIPLE"))
		session.NextPlayer()
		session.ProcessScore(throw(20, "SINGLE"))
		session.ProcessScore(throw(20, "SINGLE"))
		session.ProcessScore(throw(1, "SINGLE"))
		session.NextPlayer()
		require.Equal(t, 20, session.GameState().GameData.(darts.CountdownState).Players[0].Score)

		// When: the very first dart of the turn busts
		session.ProcessScore(throw(20, "TRIPLE"))

		// Then: the bust row is recorded but no earlier rows exist to undo
		require.Empty(t, recorder.undoCounts)
		last := recorder.throws[len(recorder.throws)-1]
		require.True(t, last.IsBust)
	})

	t.Run("CricketStateSurvivesRotation", func(t *testing.T) {
		// Given: a cricket game where Alice opened 20 last turn
		session, _, _ := newTestSession(Options{})
		session.NewGame("cricket", []string{"Alice", "Bob"}, false)
		session.ProcessScore(throw(20, "TRIPLE"))
		session.NextPlayer()
		session.NextPlayer()

		// When: Alice scores on the open 20 and the turn rotates on
		session.ProcessScore(throw(20, "DOUBLE"))
		state := session.GameState().GameData.(darts.CricketState)
		require.Equal(t, 40, state.Players[0].Score)

		session.NextPlayer()
		session.NextPlayer()

		// Then: the per-turn snapshots never leak into committed state
		state = session.GameState().GameData.(darts.CricketState)
		require.Equal(t, 3, state.Players[0].Targets[20].Hits)
		require.Equal(t, 40, state.Players[0].Score)
	})
}

func TestSession_Winner(t *testing.T) {
	// Given: Alice on 121 after her opening turn
	session, recorder, _ := newTestSession(Options{})
	session.NewGame("301", []string{"Alice", "Bob"}, false)
	session.ProcessScore(throw(20, "TRIPLE"))
	session.ProcessScore(throw(20, "TRIPLE"))
	session.ProcessScore(throw(20, "TRIPLE"))
	session.NextPlayer()
	session.NextPlayer()
	require.Equal(t, 121, session.GameState().GameData.(darts.CountdownState).Players[0].Score)

	// When: Alice checks out with T20, T19, D2
	session.ProcessScore(throw(20, "TRIPLE")) // 121 -> 61
	session.ProcessScore(throw(19, "TRIPLE")) // 61 -> 4
	session.ProcessScore(throw(2, "DOUBLE"))  // 4 -> 0

	// Then: the session pauses with a winner and the finish row is persisted
	state := session.GameState()
	require.True(t, state.IsWinner)
	require.True(t, state.IsPaused)

	last := recorder.throws[len(recorder.throws)-1]
	require.True(t, last.IsFinish)
	require.Equal(t, 0, last.ScoreAfter)
	require.Equal(t, []int{0}, recorder.winners)
}

func TestSession_PersistenceFailuresDoNotBlockGameplay(t *testing.T) {
	// Given: a session whose storage is down
	session, recorder, _ := newTestSession(Options{})
	recorder.failing = true

	// When: a full game plays out
	session.NewGame("301", []string{"Alice"}, false)
	session.ProcessScore(throw(20, "TRIPLE"))
	session.ProcessScore(throw(20, "TRIPLE"))
	session.ProcessScore(throw(20, "TRIPLE"))

	// Then: in-memory state progressed normally
	state := session.GameState()
	require.True(t, state.IsStarted)
	require.Equal(t, 121, state.GameData.(darts.CountdownState).Players[0].Score)
}

func TestSession_Roster(t *testing.T) {
	t.Run("IDsStayContiguous", func(t *testing.T) {
		// Given: a game with four players
		session, _, _ := newTestSession(Options{})
		session.NewGame("301", []string{"A", "B", "C", "D"}, false)

		// When: players are removed and added in arbitrary order
		session.RemovePlayer(1)
		session.RemovePlayer(0)
		session.AddPlayer("E")

		// Then: ids are 0..N-1 with no gaps
		players := session.Players()
		require.Len(t, players, 3)
		for i, player := range players {
			require.Equal(t, i, player.ID)
		}
	})

	t.Run("SinglePlayerFloor", func(t *testing.T) {
		// Given: a single-player practice game
		session, _, _ := newTestSession(Options{})
		session.NewGame("301", []string{"Alice"}, false)

		// When: removing the last player
		session.RemovePlayer(0)

		// Then: the roster keeps its one player
		require.Len(t, session.Players(), 1)
	})

	t.Run("CricketCapAtFour", func(t *testing.T) {
		// Given: a cricket game at the cap
		session, _, _ := newTestSession(Options{})
		session.NewGame("cricket", []string{"A", "B", "C", "D"}, false)

		// When: a fifth player is added
		session.AddPlayer("E")

		// Then: the addition is a no-op
		require.Len(t, session.Players(), 4)
	})

	t.Run("CricketCreationWithFiveNamesKeepsAll", func(t *testing.T) {
		// Given: a cricket game created with five names up front
		session, _, _ := newTestSession(Options{})
		session.NewGame("cricket", []string{"A", "B", "C", "D", "E"}, false)

		// Then: roster and engine agree on the player count
		state := session.GameState()
		require.Len(t, state.Players, 5)
		cricketData, ok := state.GameData.(darts.CricketState)
		require.True(t, ok)
		require.Len(t, cricketData.Players, 5)

		// And the fifth player can actually throw
		session.SkipToPlayer(4)
		session.ProcessScore(throw(20, "TRIPLE"))

		cricketData = session.GameState().GameData.(darts.CricketState)
		assert.Equal(t, 3, cricketData.Players[4].Targets[20].Hits)
	})

	t.Run("CountdownHasNoCap", func(t *testing.T) {
		session, _, _ := newTestSession(Options{})
		session.NewGame("501", []string{"A", "B", "C", "D"}, false)

		session.AddPlayer("E")

		require.Len(t, session.Players(), 5)
	})

	t.Run("CurrentPlayerWrapsAfterRemoval", func(t *testing.T) {
		// Given: the last player has the turn
		session, _, _ := newTestSession(Options{})
		session.NewGame("301", []string{"A", "B", "C"}, false)
		session.SkipToPlayer(2)

		// When: that player is removed
		session.RemovePlayer(2)

		// Then: the turn wraps to player 0
		require.Equal(t, 0, session.GameState().CurrentPlayer)
	})

	t.Run("DefaultPlayerName", func(t *testing.T) {
		session, _, _ := newTestSession(Options{})
		session.NewGame("301", []string{"Alice"}, false)

		session.AddPlayer("")

		players := session.Players()
		require.Equal(t, "Player 2", players[1].Name)
	})
}

func TestSession_Rotation(t *testing.T) {
	t.Run("NextPlayerWraps", func(t *testing.T) {
		session, _, _ := newTestSession(Options{})
		session.NewGame("301", []string{"A", "B"}, false)

		session.NextPlayer()
		require.Equal(t, 1, session.GameState().CurrentPlayer)

		session.NextPlayer()
		require.Equal(t, 0, session.GameState().CurrentPlayer)
	})

	t.Run("NextPlayerUnpauses", func(t *testing.T) {
		session, _, _ := newTestSession(Options{})
		session.NewGame("301", []string{"A", "B"}, false)
		session.ProcessScore(throw(1, "SINGLE"))
		session.ProcessScore(throw(1, "SINGLE"))
		session.ProcessScore(throw(1, "SINGLE"))
		require.True(t, session.GameState().IsPaused)

		session.NextPlayer()

		state := session.GameState()
		assert.False(t, state.IsPaused)
		require.Equal(t, 1, state.CurrentThrow)
	})

	t.Run("SkipToPlayerOutOfBounds", func(t *testing.T) {
		session, _, _ := newTestSession(Options{})
		session.NewGame("301", []string{"A", "B"}, false)

		session.SkipToPlayer(7)

		require.Equal(t, 0, session.GameState().CurrentPlayer)
	})
}

func TestSession_GameStateIdempotent(t *testing.T) {
	// Given: a running game with some play
	session, _, _ := newTestSession(Options{})
	session.NewGame("cricket", []string{"Alice", "Bob"}, false)
	session.ProcessScore(throw(20, "TRIPLE"))

	// When: the state is read twice without a mutation in between
	first := session.GameState()
	second := session.GameState()

	// Then: the payloads are structurally identical
	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	require.JSONEq(t, string(firstJSON), string(secondJSON))
}

func TestSession_ThrowoutAdvice(t *testing.T) {
	t.Run("AttachedForCountdown", func(t *testing.T) {
		// Given: advice enabled and Alice on a finishable score
		session, _, _ := newTestSession(Options{ShowThrowoutAdvice: true})
		session.NewGame("301", []string{"Alice"}, false)
		session.ProcessScore(throw(20, "TRIPLE"))
		session.ProcessScore(throw(20, "TRIPLE"))
		session.ProcessScore(throw(20, "TRIPLE")) // 121 left

		// Then: advice is attached and the engine state is untouched
		state := session.GameState()
		require.NotEmpty(t, state.ThrowoutAdvice)
		require.Equal(t, 121, state.GameData.(darts.CountdownState).Players[0].Score)
	})

	t.Run("NeverForCricket", func(t *testing.T) {
		session, _, _ := newTestSession(Options{ShowThrowoutAdvice: true})
		session.NewGame("cricket", []string{"Alice", "Bob"}, false)

		require.Empty(t, session.GameState().ThrowoutAdvice)
	})
}

func TestSession_DoubleOutFlow(t *testing.T) {
	// Given: a double-out game with Alice on 20
	session, recorder, _ := newTestSession(Options{})
	session.NewGame("501", []string{"Alice"}, true)
	session.ProcessScore(throw(20, "TRIPLE"))
	session.ProcessScore(throw(20, "TRIPLE"))
	session.ProcessScore(throw(20, "TRIPLE"))
	session.NextPlayer()
	session.ProcessScore(throw(20, "TRIPLE"))
	session.ProcessScore(throw(20, "TRIPLE"))
	session.ProcessScore(throw(20, "TRIPLE"))
	session.NextPlayer()
	session.ProcessScore(throw(20, "TRIPLE"))
	session.ProcessScore(throw(20, "TRIPLE"))
	session.ProcessScore(throw(1, "SINGLE")) // 501 - 360 - 120 - 1 = 20
	session.NextPlayer()
	require.Equal(t, 20, session.GameState().GameData.(darts.CountdownState).Players[0].Score)

	// When: Alice hits a single 20
	session.ProcessScore(throw(20, "SINGLE"))

	// Then: the finish is rejected as a bust, score stays 20
	state := session.GameState()
	require.True(t, state.IsPaused)
	assert.False(t, state.IsWinner)
	require.Equal(t, 20, state.GameData.(darts.CountdownState).Players[0].Score)
	last := recorder.throws[len(recorder.throws)-1]
	require.True(t, last.IsBust)
}
