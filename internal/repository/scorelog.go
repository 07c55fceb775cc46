package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/scoreboardlabs/dartserver-backend/internal/entity"
	"github.com/scoreboardlabs/dartserver-backend/internal/pkg"
)

var ErrGameNotFound = errors.New("game not found")

// ThrowRow is one persisted dart, as returned by replay queries.
type ThrowRow struct {
	PlayerOrder     int    `json:"player_id"`
	PlayerName      string `json:"player_name"`
	ThrowSequence   int    `json:"throw_sequence"`
	TurnNumber      int    `json:"turn_number"`
	ThrowInTurn     int    `json:"throw_in_turn"`
	BaseScore       int    `json:"base_score"`
	Multiplier      string `json:"multiplier"`
	MultiplierValue int    `json:"multiplier_value"`
	ActualScore     int    `json:"actual_score"`
	ScoreBefore     int    `json:"score_before"`
	ScoreAfter      int    `json:"score_after"`
	IsBust          bool   `json:"is_bust"`
	IsFinish        bool   `json:"is_finish"`
}

// GameRow is one persisted game, as returned by the recent-games listing.
type GameRow struct {
	SessionID  string     `json:"session_id"`
	GameType   string     `json:"game_type"`
	StartScore int        `json:"start_score"`
	DoubleOut  bool       `json:"double_out"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Winner     string     `json:"winner,omitempty"`
}

// ScoreLog is the append-only throw log behind one game session. It tracks
// the row ids of the current game so undo can delete exactly the rows the
// in-memory rollback discarded.
type ScoreLog struct {
	db *sql.DB

	mu            sync.Mutex
	gameRowID     int64
	sessionID     string
	playerRows    map[int]int64
	throwCounters map[int]int
}

func NewScoreLog(db *sql.DB) *ScoreLog {
	return &ScoreLog{db: db}
}

// StartNewGame creates the game and roster rows and resets the per-player
// throw counters. Returns the generated game session id.
func (that *ScoreLog) StartNewGame(gameType string, playerNames []string, startScore int, doubleOut bool) (string, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	ctx := context.Background()

	sessionID := pkg.GenerateNewSessionID()

	result, err := that.db.ExecContext(ctx,
		`INSERT INTO games (session_id, game_type, start_score, double_out, started_at) VALUES (?, ?, ?, ?, ?)`,
		sessionID, gameType, startScore, doubleOut, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert game: %w", err)
	}

	gameRowID, err := result.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("failed to get game row id: %w", err)
	}

	playerRows := make(map[int]int64, len(playerNames))
	throwCounters := make(map[int]int, len(playerNames))

	for order, name := range playerNames {
		res, err := that.db.ExecContext(ctx,
			`INSERT INTO game_players (game_id, player_order, name, final_score) VALUES (?, ?, ?, ?)`,
			gameRowID, order, name, startScore,
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert game player: %w", err)
		}

		rowID, err := res.LastInsertId()
		if err != nil {
			return "", fmt.Errorf("failed to get player row id: %w", err)
		}

		playerRows[order] = rowID
		throwCounters[order] = 0
	}

	that.gameRowID = gameRowID
	that.sessionID = sessionID
	that.playerRows = playerRows
	that.throwCounters = throwCounters

	return sessionID, nil
}

// RecordThrow appends one dart to the current game's log.
func (that *ScoreLog) RecordThrow(log entity.ThrowLog) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	playerRowID, ok := that.playerRows[log.PlayerID]
	if !ok {
		return fmt.Errorf("%w: player %d not in current game", ErrGameNotFound, log.PlayerID)
	}

	that.throwCounters[log.PlayerID]++

	_, err := that.db.ExecContext(context.Background(),
		`INSERT INTO throws (
			game_player_id, throw_sequence, turn_number, throw_in_turn,
			base_score, multiplier, multiplier_value, actual_score,
			score_before, score_after, is_bust, is_finish, thrown_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		playerRowID, that.throwCounters[log.PlayerID], log.TurnNumber, log.ThrowInTurn,
		log.BaseScore, string(log.Multiplier), log.MultiplierValue, log.ActualScore,
		log.ScoreBefore, log.ScoreAfter, log.IsBust, log.IsFinish, time.Now().UTC(),
	)
	if err != nil {
		that.throwCounters[log.PlayerID]--
		return fmt.Errorf("failed to insert throw: %w", err)
	}

	return nil
}

// UndoThrowsForBust deletes the player's most recent throwCount rows, keeping
// the log consistent with the in-memory whole-turn rollback.
func (that *ScoreLog) UndoThrowsForBust(playerID, throwCount int) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	playerRowID, ok := that.playerRows[playerID]
	if !ok {
		return fmt.Errorf("%w: player %d not in current game", ErrGameNotFound, playerID)
	}

	_, err := that.db.ExecContext(context.Background(),
		`DELETE FROM throws WHERE id IN (
			SELECT id FROM throws WHERE game_player_id = ?
			ORDER BY throw_sequence DESC LIMIT ?
		)`,
		playerRowID, throwCount,
	)
	if err != nil {
		return fmt.Errorf("failed to delete throws: %w", err)
	}

	that.throwCounters[playerID] -= throwCount

	return nil
}

// UpdatePlayerScore stores the running total at the end of a turn.
func (that *ScoreLog) UpdatePlayerScore(playerID, score int) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	playerRowID, ok := that.playerRows[playerID]
	if !ok {
		return fmt.Errorf("%w: player %d not in current game", ErrGameNotFound, playerID)
	}

	_, err := that.db.ExecContext(context.Background(),
		`UPDATE game_players SET final_score = ? WHERE id = ?`,
		score, playerRowID,
	)
	if err != nil {
		return fmt.Errorf("failed to update player score: %w", err)
	}

	return nil
}

// MarkWinner flags the winning player and closes the game.
func (that *ScoreLog) MarkWinner(playerID int) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	playerRowID, ok := that.playerRows[playerID]
	if !ok {
		return fmt.Errorf("%w: player %d not in current game", ErrGameNotFound, playerID)
	}

	ctx := context.Background()

	if _, err := that.db.ExecContext(ctx, `UPDATE game_players SET is_winner = 1 WHERE id = ?`, playerRowID); err != nil {
		return fmt.Errorf("failed to mark winner: %w", err)
	}

	if _, err := that.db.ExecContext(ctx, `UPDATE games SET finished_at = ? WHERE id = ?`, time.Now().UTC(), that.gameRowID); err != nil {
		return fmt.Errorf("failed to finish game: %w", err)
	}

	return nil
}

// Replay returns every persisted throw of a game session in throw order.
func (that *ScoreLog) Replay(ctx context.Context, sessionID string) ([]ThrowRow, error) {
	rows, err := that.db.QueryContext(ctx,
		`SELECT p.player_order, p.name, t.throw_sequence, t.turn_number, t.throw_in_turn,
			t.base_score, t.multiplier, t.multiplier_value, t.actual_score,
			t.score_before, t.score_after, t.is_bust, t.is_finish
		FROM throws t
		JOIN game_players p ON p.id = t.game_player_id
		JOIN games g ON g.id = p.game_id
		WHERE g.session_id = ?
		ORDER BY t.turn_number, t.throw_sequence, p.player_order`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query replay: %w", err)
	}
	defer rows.Close()

	var throws []ThrowRow
	for rows.Next() {
		var row ThrowRow
		if err = rows.Scan(
			&row.PlayerOrder, &row.PlayerName, &row.ThrowSequence, &row.TurnNumber, &row.ThrowInTurn,
			&row.BaseScore, &row.Multiplier, &row.MultiplierValue, &row.ActualScore,
			&row.ScoreBefore, &row.ScoreAfter, &row.IsBust, &row.IsFinish,
		); err != nil {
			return nil, fmt.Errorf("failed to scan throw: %w", err)
		}
		throws = append(throws, row)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read throws: %w", err)
	}

	return throws, nil
}

// RecentGames lists the most recently started games, newest first.
func (that *ScoreLog) RecentGames(ctx context.Context, limit int) ([]GameRow, error) {
	rows, err := that.db.QueryContext(ctx,
		`SELECT g.session_id, g.game_type, g.start_score, g.double_out, g.started_at, g.finished_at,
			COALESCE((SELECT name FROM game_players WHERE game_id = g.id AND is_winner = 1 LIMIT 1), '')
		FROM games g
		ORDER BY g.started_at DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent games: %w", err)
	}
	defer rows.Close()

	var games []GameRow
	for rows.Next() {
		var row GameRow
		if err = rows.Scan(&row.SessionID, &row.GameType, &row.StartScore, &row.DoubleOut,
			&row.StartedAt, &row.FinishedAt, &row.Winner); err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, row)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read games: %w", err)
	}

	return games, nil
}
