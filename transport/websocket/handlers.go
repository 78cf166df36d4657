package websocket

import (
	"context"
	"fmt"
	"time"

	"github.com/rocketscienceinc/gamerooms-backend/internal/apperror"
	"github.com/rocketscienceinc/gamerooms-backend/internal/entity"
)

func (that *Server) handleJoinGame(ctx context.Context, client *Client, msg *Message) error {
	gameID, err := decodeGameID(msg)
	if err != nil {
		return err
	}

	return that.attach(ctx, client, gameID, that.games.JoinGame)
}

func (that *Server) handleSpectateGame(ctx context.Context, client *Client, msg *Message) error {
	gameID, err := decodeGameID(msg)
	if err != nil {
		return err
	}

	return that.attach(ctx, client, gameID, that.games.SpectateGame)
}

// attach points the connection at gameID before joining, so the join's own
// broadcast reaches it, and sends the chat history afterwards.
func (that *Server) attach(
	ctx context.Context,
	client *Client,
	gameID string,
	join func(ctx context.Context, gameID, userID string) ([]entity.Message, error),
) error {
	log := that.logger.With("method", "attach", "gameID", gameID, "userID", client.user.ID)

	previous := client.setGameID(gameID)
	if previous != "" && previous != gameID {
		that.tracker.SetRoom(client.id, "")
		if err := that.games.LeaveGame(ctx, previous, client.user.ID); err != nil {
			log.Debug("failed to leave previous game", "previous", previous, "error", err)
		}
		that.releaseIfEmpty(previous)
	}

	history, err := join(ctx, gameID, client.user.ID)
	if err != nil {
		client.setGameID("")
		that.tracker.SetRoom(client.id, "")
		return err
	}

	that.tracker.SetRoom(client.id, gameID)
	client.sendEvent(entity.NewEvent(entity.ActionChatHistory, history))

	log.Info("joined game")

	return nil
}

func (that *Server) handleLeaveGame(ctx context.Context, client *Client, msg *Message) error {
	gameID, err := decodeGameID(msg)
	if err != nil {
		return err
	}

	if err = that.games.LeaveGame(ctx, gameID, client.user.ID); err != nil {
		return err
	}

	if client.GameID() == gameID {
		client.setGameID("")
		that.tracker.SetRoom(client.id, "")
	}

	that.releaseIfEmpty(gameID)

	return nil
}

func (that *Server) handleMakeMove(ctx context.Context, client *Client, msg *Message) error {
	var payload MovePayload
	if err := decodePayload(msg, &payload); err != nil {
		return err
	}

	if payload.GameID == "" || payload.Position == nil {
		return fmt.Errorf("%w: gameId and position are required", apperror.ErrInvalidPayload)
	}

	if err := that.requireRoom(client, payload.GameID); err != nil {
		return err
	}

	return that.games.MakeMove(ctx, payload.GameID, client.user.ID, *payload.Position, payload.AuxiliaryData)
}

func (that *Server) handleReadyUp(ctx context.Context, client *Client, msg *Message) error {
	gameID, err := decodeGameID(msg)
	if err != nil {
		return err
	}

	if err = that.requireRoom(client, gameID); err != nil {
		return err
	}

	return that.games.MarkReady(ctx, gameID, client.user.ID)
}

func (that *Server) handleForfeitGame(ctx context.Context, client *Client, msg *Message) error {
	gameID, err := decodeGameID(msg)
	if err != nil {
		return err
	}

	if err = that.requireRoom(client, gameID); err != nil {
		return err
	}

	return that.games.Forfeit(ctx, gameID, client.user.ID)
}

func (that *Server) handleTyping(isTyping bool) func(context.Context, *Client, *Message) error {
	return func(ctx context.Context, client *Client, msg *Message) error {
		gameID, err := decodeGameID(msg)
		if err != nil {
			return err
		}

		if err = that.requireRoom(client, gameID); err != nil {
			return err
		}

		return that.games.SetTyping(ctx, gameID, client.user.ID, isTyping)
	}
}

func (that *Server) handleSendMessage(ctx context.Context, client *Client, msg *Message) error {
	var payload ChatPayload
	if err := decodePayload(msg, &payload); err != nil {
		return err
	}

	if payload.GameID == "" {
		return fmt.Errorf("%w: gameId is required", apperror.ErrInvalidPayload)
	}

	if err := that.requireRoom(client, payload.GameID); err != nil {
		return err
	}

	_, err := that.games.SendMessage(ctx, payload.GameID, client.user.ID, payload.Content)

	return err
}

func (that *Server) handleRequestGameState(ctx context.Context, client *Client, msg *Message) error {
	gameID, err := decodeGameID(msg)
	if err != nil {
		return err
	}

	if err = that.requireRoom(client, gameID); err != nil {
		return err
	}

	return that.games.RequestState(ctx, gameID, client.user.ID)
}

func (that *Server) handlePing(_ context.Context, client *Client, _ *Message) error {
	client.sendEvent(entity.NewEvent(entity.ActionPong, entity.PongPayload{Timestamp: time.Now().UnixMilli()}))
	return nil
}

// requireRoom rejects requests for a room this connection is not pointed at;
// their broadcasts would never reach it.
func (that *Server) requireRoom(client *Client, gameID string) error {
	if client.GameID() != gameID {
		return apperror.ErrNotInRoom
	}

	return nil
}
