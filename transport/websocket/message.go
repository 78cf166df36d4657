package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/gamerooms-backend/internal/apperror"
)

// Inbound actions.
const (
	actionJoinGame         = "join_game"
	actionLeaveGame        = "leave_game"
	actionMakeMove         = "make_move"
	actionReadyUp          = "ready_up"
	actionForfeitGame      = "forfeit_game"
	actionSpectateGame     = "spectate_game"
	actionTypingStart      = "typing_start"
	actionTypingStop       = "typing_stop"
	actionSendMessage      = "send_message"
	actionRequestGameState = "request_game_state"
	actionPing             = "ping"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type GamePayload struct {
	GameID string `json:"gameId"`
}

type MovePayload struct {
	GameID        string         `json:"gameId"`
	Position      *int           `json:"position"`
	AuxiliaryData map[string]any `json:"auxiliaryData,omitempty"`
}

type ChatPayload struct {
	GameID  string `json:"gameId"`
	Content string `json:"content"`
}

func decodePayload(msg *Message, payload any) error {
	if len(msg.Payload) == 0 {
		return fmt.Errorf("%w: %s requires a payload", apperror.ErrInvalidPayload, msg.Action)
	}

	if err := json.Unmarshal(msg.Payload, payload); err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrInvalidPayload, err)
	}

	return nil
}

func decodeGameID(msg *Message) (string, error) {
	var payload GamePayload
	if err := decodePayload(msg, &payload); err != nil {
		return "", err
	}

	if payload.GameID == "" {
		return "", fmt.Errorf("%w: gameId is required", apperror.ErrInvalidPayload)
	}

	return payload.GameID, nil
}
