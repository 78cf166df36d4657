package entity

import (
	"github.com/rocketscienceinc/gamerooms-backend/internal/rules"
)

// Outbound actions.
const (
	ActionGameState          = "game_state"
	ActionMoveMade           = "move_made"
	ActionPlayerJoined       = "player_joined"
	ActionPlayerLeft         = "player_left"
	ActionPlayerDisconnected = "player_disconnected"
	ActionPlayerReady        = "player_ready"
	ActionGameStarted        = "game_started"
	ActionGameForfeited      = "game_forfeited"
	ActionGameAbandoned      = "game_abandoned"
	ActionUserTyping         = "user_typing"
	ActionNewMessage         = "new_message"
	ActionChatHistory        = "chat_history"
	ActionSpectatingStarted  = "spectating_started"
	ActionPong               = "pong"
	ActionError              = "error"
)

// Event is one outbound message. Payload is marshaled as-is.
type Event struct {
	Action  string `json:"action"`
	Payload any    `json:"payload,omitempty"`
}

type MoveMadePayload struct {
	PlayerID       string         `json:"playerId"`
	Position       int            `json:"position"`
	Cell           int            `json:"cell"`
	GameState      GameState      `json:"gameState"`
	TerminalResult *rules.Outcome `json:"terminalResult,omitempty"`
}

type UserPayload struct {
	UserID string `json:"userId"`
}

type PlayerReadyPayload struct {
	UserID    string    `json:"userId"`
	GameState GameState `json:"gameState"`
}

type ForfeitPayload struct {
	UserID    string    `json:"userId"`
	Winner    string    `json:"winner,omitempty"`
	GameState GameState `json:"gameState"`
}

type TypingPayload struct {
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}

type PongPayload struct {
	Timestamp int64 `json:"timestamp"` // unix milliseconds
}

type SpectatingPayload struct {
	GameID string `json:"gameId"`
}

type ErrorPayload struct {
	Kind    string `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewEvent(action string, payload any) Event {
	return Event{Action: action, Payload: payload}
}

func GameStateEvent(game *Game) Event {
	return NewEvent(ActionGameState, game.Snapshot())
}
