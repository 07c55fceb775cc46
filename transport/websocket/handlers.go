package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/scoreboardlabs/dartserver-backend/internal/usecase"
)

type newGamePayload struct {
	GameType  string   `json:"game_type"`
	Players   []string `json:"players,omitempty"`
	DoubleOut bool     `json:"double_out"`
}

type playerPayload struct {
	Player int    `json:"player"`
	Name   string `json:"name,omitempty"`
}

type sessionPayload struct {
	Session string `json:"session"`
}

func (that *Server) handleNewGame(message *Message, conn *connection) error {
	var payload newGamePayload
	if err := json.Unmarshal(message.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	session, err := that.sessions.Get(conn.session)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	session.NewGame(payload.GameType, payload.Players, payload.DoubleOut)

	return nil
}

func (that *Server) handleGameState(_ *Message, conn *connection) error {
	session, err := that.sessions.Get(conn.session)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	return conn.sendMessage(usecase.EventGameState, session.GameState())
}

func (that *Server) handleGameScore(message *Message, conn *connection) error {
	var event usecase.ScoreEvent
	if err := json.Unmarshal(message.Payload, &event); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	session, err := that.sessions.Get(conn.session)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	session.ProcessScore(event)

	return nil
}

func (that *Server) handleNextPlayer(_ *Message, conn *connection) error {
	session, err := that.sessions.Get(conn.session)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	session.NextPlayer()

	return nil
}

func (that *Server) handleSkipToPlayer(message *Message, conn *connection) error {
	var payload playerPayload
	if err := json.Unmarshal(message.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	session, err := that.sessions.Get(conn.session)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	session.SkipToPlayer(payload.Player)

	return nil
}

func (that *Server) handleAddPlayer(message *Message, conn *connection) error {
	var payload playerPayload
	if err := json.Unmarshal(message.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	session, err := that.sessions.Get(conn.session)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	session.AddPlayer(payload.Name)

	return nil
}

func (that *Server) handleRemovePlayer(message *Message, conn *connection) error {
	var payload playerPayload
	if err := json.Unmarshal(message.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	session, err := that.sessions.Get(conn.session)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	session.RemovePlayer(payload.Player)

	return nil
}

func (that *Server) handleNewSession(message *Message, conn *connection) error {
	var payload sessionPayload
	if err := json.Unmarshal(message.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if _, err := that.sessions.Create(payload.Session); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return conn.sendMessage("session_list", that.sessions.List())
}

// handleSwitchSession makes the requested session the active one and moves
// this connection's event stream over to it.
func (that *Server) handleSwitchSession(message *Message, conn *connection) error {
	var payload sessionPayload
	if err := json.Unmarshal(message.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if err := that.sessions.SetActive(payload.Session); err != nil {
		return fmt.Errorf("failed to switch session: %w", err)
	}

	that.subscribe(conn, payload.Session)

	session, err := that.sessions.Get(payload.Session)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	return conn.sendMessage(usecase.EventGameState, session.GameState())
}

func (that *Server) handleListSessions(_ *Message, conn *connection) error {
	return conn.sendMessage("session_list", that.sessions.List())
}
