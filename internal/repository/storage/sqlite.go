package storage

import (
	"context"
	"database/sql"
	"fmt"

	// import the SQLite driver to register it with the database/sql package.
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

type SQLiteStorage struct {
	Connection *sql.DB
}

func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("can't open database: %w", err)
	}

	// SQLite allows one writer; a second pooled connection would also see its
	// own empty database when path is ":memory:".
	conn.SetMaxOpenConns(1)

	if err = conn.Ping(); err != nil {
		return nil, fmt.Errorf("can't connect to database: %w", err)
	}

	return &SQLiteStorage{Connection: conn}, nil
}

// Init creates the replay-log schema: one row per game, per roster slot and
// per thrown dart.
func (that *SQLiteStorage) Init(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS games (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL UNIQUE,
			game_type TEXT NOT NULL,
			start_score INTEGER NOT NULL DEFAULT 0,
			double_out INTEGER NOT NULL DEFAULT 0,
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS game_players (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			game_id INTEGER NOT NULL REFERENCES games(id),
			player_order INTEGER NOT NULL,
			name TEXT NOT NULL,
			final_score INTEGER NOT NULL DEFAULT 0,
			is_winner INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS throws (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			game_player_id INTEGER NOT NULL REFERENCES game_players(id),
			throw_sequence INTEGER NOT NULL,
			turn_number INTEGER NOT NULL,
			throw_in_turn INTEGER NOT NULL,
			base_score INTEGER NOT NULL,
			multiplier TEXT NOT NULL,
			multiplier_value INTEGER NOT NULL,
			actual_score INTEGER NOT NULL,
			score_before INTEGER NOT NULL,
			score_after INTEGER NOT NULL,
			is_bust INTEGER NOT NULL DEFAULT 0,
			is_finish INTEGER NOT NULL DEFAULT 0,
			thrown_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_throws_game_player ON throws(game_player_id, throw_sequence)`,
	}

	for _, query := range queries {
		if _, err := that.Connection.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("can't create table: %w", err)
		}
	}

	return nil
}

func (that *SQLiteStorage) Close() error {
	if err := that.Connection.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}
