package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/scoreboardlabs/dartserver-backend/internal/broadcast"
	"github.com/scoreboardlabs/dartserver-backend/internal/config"
	"github.com/scoreboardlabs/dartserver-backend/internal/repository"
	"github.com/scoreboardlabs/dartserver-backend/internal/repository/storage"
	"github.com/scoreboardlabs/dartserver-backend/internal/usecase"
	"github.com/scoreboardlabs/dartserver-backend/transport/rest"
	"github.com/scoreboardlabs/dartserver-backend/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	sqliteStorage, err := storage.NewSQLiteStorage(conf.SQLiteStoragePath)
	if err != nil {
		return fmt.Errorf("could not open sqlite storage: %w", err)
	}

	defer func() {
		if err = sqliteStorage.Close(); err != nil {
			log.Error("could not close sqlite storage", "error", err)
		}
	}()

	if err = sqliteStorage.Init(ctx); err != nil {
		return fmt.Errorf("could not init sqlite schema: %w", err)
	}

	stateRepo := repository.NewGameStateRepository(redisStorage.Connection)
	hub := broadcast.NewHub(logger)

	// Each session gets its own score log over the shared database; the REST
	// handler holds one more for the cross-session history queries.
	newRecorder := func() usecase.ScoreRecorder {
		return repository.NewScoreLog(sqliteStorage.Connection)
	}
	newEmitter := func(sessionID string) usecase.Broadcaster {
		return broadcast.NewSessionEmitter(logger, hub, stateRepo, sessionID)
	}

	gameOpts := usecase.Options{
		DartboardSendsActualScore: conf.Game.DartboardSendsActualScore,
		ShowThrowoutAdvice:        conf.Game.ShowThrowoutAdvice,
	}

	sessions := usecase.NewSessionManager(logger, newRecorder, newEmitter, gameOpts)

	historyLog := repository.NewScoreLog(sqliteStorage.Connection)
	restHandler := rest.NewHandler(logger, sessions, historyLog, stateRepo)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.Start(ctx, conf.HTTPPort, restHandler); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, sessions, hub)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
