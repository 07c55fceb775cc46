package websocket

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/scoreboardlabs/dartserver-backend/internal/broadcast"
	"github.com/scoreboardlabs/dartserver-backend/internal/pkg"
	"github.com/scoreboardlabs/dartserver-backend/internal/usecase"
)

// connection is one upgraded client. Two goroutines write frames to it, the
// handler replies and the hub forwarder, so writes go through a mutex.
type connection struct {
	bufrw *bufio.ReadWriter

	writeMu sync.Mutex

	mu      sync.Mutex
	session string
	subID   int
}

type Server struct {
	logger   *slog.Logger
	sessions *usecase.SessionManager
	hub      *broadcast.Hub

	handlers map[string]func(message *Message, conn *connection) error
}

func New(logger *slog.Logger, sessions *usecase.SessionManager, hub *broadcast.Hub) *Server {
	server := &Server{
		logger:   logger,
		sessions: sessions,
		hub:      hub,

		handlers: make(map[string]func(*Message, *connection) error),
	}

	server.handlers["game:new"] = server.handleNewGame
	server.handlers["game:state"] = server.handleGameState
	server.handlers["game:score"] = server.handleGameScore
	server.handlers["game:next-player"] = server.handleNextPlayer
	server.handlers["game:skip"] = server.handleSkipToPlayer
	server.handlers["player:add"] = server.handleAddPlayer
	server.handlers["player:remove"] = server.handleRemovePlayer
	server.handlers["session:new"] = server.handleNewSession
	server.handlers["session:switch"] = server.handleSwitchSession
	server.handlers["session:list"] = server.handleListSessions

	return server
}

// Start - starts WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.upgradeToWebSocket(ctx, w, r)
	})

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
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

// upgradeToWebSocket - upgrades the connection to WebSocket.
func (that *Server) upgradeToWebSocket(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeConnection")

	if req.Header.Get("Upgrade") != "websocket" {
		http.Error(writer, "not a websocket upgrade", http.StatusBadRequest)
		return
	}

	sessionID := req.URL.Query().Get("session")
	if sessionID == "" {
		sessionID = that.sessions.ActiveID()
	}

	key := req.Header.Get("Sec-WebSocket-Key")
	acceptKey := pkg.GenerateAcceptKey(key)

	writer.Header().Set("Upgrade", "websocket")
	writer.Header().Set("Connection", "Upgrade")
	writer.Header().Set("Sec-WebSocket-Accept", acceptKey)
	writer.WriteHeader(http.StatusSwitchingProtocols)

	hijacker, ok := writer.(http.Hijacker)
	if !ok {
		log.Error("web server does not support hijacking", "error", http.StatusText(http.StatusInternalServerError))
		return
	}

	netConn, bufrw, err := hijacker.Hijack()
	if err != nil {
		log.Error("failed to hijack connection", "error", err)
		return
	}

	defer netConn.Close()

	log.Info("WebSocket connection established", "session", sessionID)

	conn := &connection{bufrw: bufrw}
	that.subscribe(conn, sessionID)

	defer that.unsubscribe(conn)

	if err = that.handleMessages(ctx, conn); err != nil && !errors.Is(err, io.EOF) {
		log.Error("error handling messages", "error", err)
	}
}

// subscribe - attaches the connection to a session's event stream. An earlier
// subscription is torn down first, its forwarder exits when the hub closes
// the old channel.
func (that *Server) subscribe(conn *connection, sessionID string) {
	conn.mu.Lock()
	defer conn.mu.Unlock()

	if conn.subID != 0 {
		that.hub.Unsubscribe(conn.subID)
	}

	subID, events := that.hub.Subscribe(sessionID)
	conn.subID = subID
	conn.session = sessionID

	go that.forwardEvents(conn, events)
}

func (that *Server) unsubscribe(conn *connection) {
	conn.mu.Lock()
	defer conn.mu.Unlock()

	if conn.subID != 0 {
		that.hub.Unsubscribe(conn.subID)
		conn.subID = 0
	}
}

func (that *Server) forwardEvents(conn *connection, events <-chan broadcast.Event) {
	log := that.logger.With("method", "forwardEvents")

	for event := range events {
		if err := conn.sendMessage(event.Name, event.Payload); err != nil {
			log.Error("failed to forward event", "event", event.Name, "error", err)
			return
		}
	}
}

// handleMessages - processes messages from the client.
func (that *Server) handleMessages(ctx context.Context, conn *connection) error {
	log := that.logger.With("method", "handleMessages")

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("context closed: %w", err)
		}

		reqBody, err := that.readRequest(conn.bufrw)
		if err != nil {
			return err
		}

		if reqBody == nil {
			continue
		}

		var message Message
		if err = json.Unmarshal(reqBody, &message); err != nil {
			log.Error("failed to unmarshal message", "error", err)
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Error("unknown action", "action", message.Action)
			that.sendError(conn, fmt.Sprintf("unknown action: %s", message.Action))
			continue
		}

		if err = handler(&message, conn); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
			that.sendError(conn, err.Error())
		}
	}
}

func (that *Server) sendError(conn *connection, msg string) {
	if err := conn.sendMessage("error", map[string]string{"error": msg}); err != nil {
		that.logger.Error("failed to send error message", "error", err)
	}
}
