package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Start - starts the REST server with the game routes mounted under /api.
func Start(ctx context.Context, port string, handler *Handler) error {
	r := chi.NewRouter()

	r.Get("/ping", pingHandler)

	r.Route("/api", func(api chi.Router) {
		api.Post("/games", handler.CreateGame)
		api.Get("/games/recent", handler.RecentGames)
		api.Get("/games/{id}/state", handler.GetGameState)
		api.Post("/games/{id}/throws", handler.PostThrow)
		api.Post("/games/{id}/players", handler.AddPlayer)
		api.Delete("/games/{id}/players/{playerID}", handler.RemovePlayer)
		api.Post("/games/{id}/next-player", handler.NextPlayer)
		api.Get("/replays/{gameID}", handler.Replay)
	})

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
