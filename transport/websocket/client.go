package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/gamerooms-backend/internal/apperror"
	"github.com/rocketscienceinc/gamerooms-backend/internal/entity"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 << 10
)

// Client is one open transport of a user. Outbound messages go through a
// buffered queue drained by writePump; a client that cannot keep up is closed
// and has to rejoin for a fresh snapshot.
type Client struct {
	logger *slog.Logger
	id     string
	user   entity.User
	conn   *websocket.Conn
	send   chan []byte

	mu     sync.Mutex
	gameID string
	closed bool
}

func newClient(logger *slog.Logger, id string, user entity.User, conn *websocket.Conn, buffer int) *Client {
	return &Client{
		logger: logger.With("transportID", id, "userID", user.ID),
		id:     id,
		user:   user,
		conn:   conn,
		send:   make(chan []byte, buffer),
	}
}

func (that *Client) GameID() string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.gameID
}

func (that *Client) setGameID(gameID string) string {
	that.mu.Lock()
	defer that.mu.Unlock()

	previous := that.gameID
	that.gameID = gameID
	return previous
}

// enqueue never blocks.
func (that *Client) enqueue(data []byte) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return
	}

	select {
	case that.send <- data:
	default:
		that.logger.Warn("send buffer full, closing slow client")
		that.closed = true
		close(that.send)
	}
}

func (that *Client) sendEvent(event entity.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		that.logger.Error("failed to marshal event", "action", event.Action, "error", err)
		return
	}

	that.enqueue(data)
}

func (that *Client) close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	if !that.closed {
		that.closed = true
		close(that.send)
	}
}

// readPump feeds inbound messages to handle until the connection fails.
func (that *Client) readPump(ctx context.Context, handle func(ctx context.Context, client *Client, msg *Message)) {
	that.conn.SetReadLimit(maxMessageSize)
	_ = that.conn.SetReadDeadline(time.Now().Add(pongWait))
	that.conn.SetPongHandler(func(string) error {
		return that.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := that.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				that.logger.Warn("unexpected close", "error", err)
			}
			return
		}

		var message Message
		if err = json.Unmarshal(data, &message); err != nil {
			that.logger.Error("failed to unmarshal message", "error", err)
			that.sendEvent(errorEvent(fmt.Errorf("%w: %w", apperror.ErrInvalidPayload, err)))
			continue
		}

		handle(ctx, that, &message)
	}
}

// writePump drains the send queue and keeps the connection alive with pings.
func (that *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = that.conn.Close()
	}()

	for {
		select {
		case data, ok := <-that.send:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = that.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := that.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				that.logger.Debug("write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
