package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/scoreboardlabs/dartserver-backend/internal/entity"
)

var ErrStateNotFound = errors.New("game state not found")

// GameStateRepository caches the last broadcast state of each session so
// viewers can fetch it without touching a live session.
type GameStateRepository interface {
	Save(ctx context.Context, sessionID string, state entity.GameState) error
	Get(ctx context.Context, sessionID string) (entity.GameState, error)
}

type dbGameState struct {
	client *redis.Client
}

func NewGameStateRepository(client *redis.Client) GameStateRepository {
	return &dbGameState{
		client: client,
	}
}

func (that *dbGameState) Save(ctx context.Context, sessionID string, state entity.GameState) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("could not marshal game state: %w", err)
	}

	stateKey := "game_state:" + sessionID
	if err = that.client.Set(ctx, stateKey, stateJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to set game state: %w", err)
	}

	return nil
}

func (that *dbGameState) Get(ctx context.Context, sessionID string) (entity.GameState, error) {
	stateKey := "game_state:" + sessionID

	response, err := that.client.Get(ctx, stateKey).Result()

	if errors.Is(err, redis.Nil) {
		return entity.GameState{}, ErrStateNotFound
	}

	if err != nil {
		return entity.GameState{}, fmt.Errorf("failed to get game state: %w", err)
	}

	var state entity.GameState
	if err = json.Unmarshal([]byte(response), &state); err != nil {
		return entity.GameState{}, fmt.Errorf("failed to unmarshal game state: %w", err)
	}

	return state, nil
}
