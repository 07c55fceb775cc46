package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/scoreboardlabs/dartserver-backend/internal/apperror"
	"github.com/scoreboardlabs/dartserver-backend/internal/repository"
	"github.com/scoreboardlabs/dartserver-backend/internal/usecase"
)

const queryTimeout = 3 * time.Second

// Handler serves the HTTP view of the game: state reads, score input for
// clients that cannot hold a WebSocket, and the persisted history queries.
type Handler struct {
	logger   *slog.Logger
	sessions *usecase.SessionManager
	scores   *repository.ScoreLog
	states   repository.GameStateRepository
}

func NewHandler(logger *slog.Logger, sessions *usecase.SessionManager, scores *repository.ScoreLog, states repository.GameStateRepository) *Handler {
	return &Handler{
		logger:   logger.With("component", "rest"),
		sessions: sessions,
		scores:   scores,
		states:   states,
	}
}

type createGameRequest struct {
	Session   string   `json:"session,omitempty"`
	GameType  string   `json:"game_type"`
	Players   []string `json:"players,omitempty"`
	DoubleOut bool     `json:"double_out"`
}

type addPlayerRequest struct {
	Name string `json:"name"`
}

// POST /api/games
func (that *Handler) CreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	session, err := that.sessions.Get(req.Session)
	if errors.Is(err, apperror.ErrSessionNotFound) {
		session, err = that.sessions.Create(req.Session)
	}
	if err != nil {
		http.Error(w, "failed to get session: "+err.Error(), http.StatusBadRequest)
		return
	}

	session.NewGame(req.GameType, req.Players, req.DoubleOut)

	writeJSON(w, http.StatusCreated, session.GameState())
}

// GET /api/games/{id}/state
//
// Live sessions answer from memory; for anything else the last broadcast
// state is served from the cache.
func (that *Handler) GetGameState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	session, err := that.sessions.Get(id)
	if err == nil {
		writeJSON(w, http.StatusOK, session.GameState())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	state, err := that.states.Get(ctx, id)
	if errors.Is(err, repository.ErrStateNotFound) {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}
	if err != nil {
		that.logger.Error("failed to load cached state", "session", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// POST /api/games/{id}/throws
func (that *Handler) PostThrow(w http.ResponseWriter, r *http.Request) {
	session, ok := that.liveSession(w, r)
	if !ok {
		return
	}

	var event usecase.ScoreEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	session.ProcessScore(event)

	writeJSON(w, http.StatusOK, session.GameState())
}

// POST /api/games/{id}/players
func (that *Handler) AddPlayer(w http.ResponseWriter, r *http.Request) {
	session, ok := that.liveSession(w, r)
	if !ok {
		return
	}

	var req addPlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	session.AddPlayer(req.Name)

	writeJSON(w, http.StatusOK, session.GameState())
}

// DELETE /api/games/{id}/players/{playerID}
func (that *Handler) RemovePlayer(w http.ResponseWriter, r *http.Request) {
	session, ok := that.liveSession(w, r)
	if !ok {
		return
	}

	playerID, err := strconv.Atoi(chi.URLParam(r, "playerID"))
	if err != nil {
		http.Error(w, "invalid player id", http.StatusBadRequest)
		return
	}

	session.RemovePlayer(playerID)

	writeJSON(w, http.StatusOK, session.GameState())
}

// POST /api/games/{id}/next-player
func (that *Handler) NextPlayer(w http.ResponseWriter, r *http.Request) {
	session, ok := that.liveSession(w, r)
	if !ok {
		return
	}

	session.NextPlayer()

	writeJSON(w, http.StatusOK, session.GameState())
}

// GET /api/replays/{gameID}
//
// gameID is the persisted game id from the recent-games listing, not a live
// session id.
func (that *Handler) Replay(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	gameID := chi.URLParam(r, "gameID")

	throws, err := that.scores.Replay(ctx, gameID)
	if err != nil {
		that.logger.Error("failed to load replay", "game", gameID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if len(throws) == 0 {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, throws)
}

// GET /api/games/recent
func (that *Handler) RecentGames(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	games, err := that.scores.RecentGames(ctx, limit)
	if err != nil {
		that.logger.Error("failed to load recent games", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, games)
}

func (that *Handler) liveSession(w http.ResponseWriter, r *http.Request) (*usecase.Session, bool) {
	id := chi.URLParam(r, "id")

	session, err := that.sessions.Get(id)
	if errors.Is(err, apperror.ErrSessionNotFound) {
		http.Error(w, "game not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		http.Error(w, "failed to get session: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}

	return session, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
