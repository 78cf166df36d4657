package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/gamerooms-backend/internal/apperror"
	"github.com/rocketscienceinc/gamerooms-backend/internal/entity"
	"github.com/rocketscienceinc/gamerooms-backend/internal/pkg"
	"github.com/rocketscienceinc/gamerooms-backend/internal/presence"
)

const (
	tokenQueryParam = "token"
	tokenCookieName = "auth_token"

	shutdownTimeout = 5 * time.Second
)

type userResolver interface {
	ResolveUser(token string) (*entity.User, error)
}

type gameManager interface {
	JoinGame(ctx context.Context, gameID, userID string) ([]entity.Message, error)
	SpectateGame(ctx context.Context, gameID, userID string) ([]entity.Message, error)
	LeaveGame(ctx context.Context, gameID, userID string) error
	Disconnect(ctx context.Context, gameID, userID string)
	MakeMove(ctx context.Context, gameID, userID string, position int, aux map[string]any) error
	MarkReady(ctx context.Context, gameID, userID string) error
	Forfeit(ctx context.Context, gameID, userID string) error
	SetTyping(ctx context.Context, gameID, userID string, isTyping bool) error
	SendMessage(ctx context.Context, gameID, userID, content string) (*entity.Message, error)
	RequestState(ctx context.Context, gameID, userID string) error
	ReleaseRoom(gameID string)
}

// Server is the session gateway: it authenticates a connection, translates
// its messages into game manager calls and owns the per-connection room
// pointer. It holds no game state.
type Server struct {
	logger     *slog.Logger
	hub        *Hub
	tracker    *presence.Tracker
	auth       userResolver
	games      gameManager
	upgrader   websocket.Upgrader
	sendBuffer int

	handlers map[string]func(ctx context.Context, client *Client, msg *Message) error
}

func New(logger *slog.Logger, hub *Hub, tracker *presence.Tracker, auth userResolver, games gameManager, sendBuffer int) *Server {
	server := &Server{
		logger:     logger.With("component", "websocket_server"),
		hub:        hub,
		tracker:    tracker,
		auth:       auth,
		games:      games,
		sendBuffer: sendBuffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},

		handlers: make(map[string]func(context.Context, *Client, *Message) error),
	}

	server.handlers[actionJoinGame] = server.handleJoinGame
	server.handlers[actionLeaveGame] = server.handleLeaveGame
	server.handlers[actionMakeMove] = server.handleMakeMove
	server.handlers[actionReadyUp] = server.handleReadyUp
	server.handlers[actionForfeitGame] = server.handleForfeitGame
	server.handlers[actionSpectateGame] = server.handleSpectateGame
	server.handlers[actionTypingStart] = server.handleTyping(true)
	server.handlers[actionTypingStop] = server.handleTyping(false)
	server.handlers[actionSendMessage] = server.handleSendMessage
	server.handlers[actionRequestGameState] = server.handleRequestGameState
	server.handlers[actionPing] = server.handlePing

	return server
}

func (that *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.serveWS(ctx, w, r)
	})

	return mux
}

// Start - starts WebSocket server and stops it when ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		that.hub.closeAll()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shutdown websocket server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// serveWS authenticates before upgrading, so an unresolvable identity never
// gets a connection.
func (that *Server) serveWS(ctx context.Context, w http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "serveWS")

	user, err := that.auth.ResolveUser(credential(req))
	if err != nil {
		log.Info("connection refused", "error", err)
		http.Error(w, apperror.ErrUnauthorized.Message, http.StatusUnauthorized)
		return
	}

	conn, err := that.upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	client := newClient(that.logger, pkg.GenerateID(), *user, conn, that.sendBuffer)
	that.hub.register(client)
	that.tracker.Connect(user.ID, client.id, time.Now())

	log.Info("WebSocket connection established", "userID", user.ID, "transportID", client.id)

	go client.writePump()
	client.readPump(ctx, that.handleMessage)

	that.disconnect(ctx, client)
}

func (that *Server) handleMessage(ctx context.Context, client *Client, msg *Message) {
	log := that.logger.With("method", "handleMessage", "action", msg.Action, "userID", client.user.ID)

	handler, ok := that.handlers[msg.Action]
	if !ok {
		log.Warn("unknown action")
		client.sendEvent(errorEvent(fmt.Errorf("%w: unknown action %q", apperror.ErrInvalidPayload, msg.Action)))
		return
	}

	if err := handler(ctx, client, msg); err != nil {
		switch {
		case apperror.IsRejected(err):
			log.Debug("request rejected", "error", err)
		case apperror.KindOf(err) == apperror.KindInternal:
			log.Error("error processing message", "error", err)
		default:
			log.Info("request failed", "error", err)
		}
		client.sendEvent(errorEvent(err))
	}
}

// disconnect releases the transport. A seated player keeps the seat and the
// game keeps running until reconnection or an explicit forfeit.
func (that *Server) disconnect(ctx context.Context, client *Client) {
	client.close()
	that.hub.unregister(client)

	entry, ok := that.tracker.Disconnect(client.id)
	if !ok || entry.CurrentRoomID == "" {
		return
	}

	gameID := entry.CurrentRoomID
	if slices.Contains(that.tracker.InRoom(gameID), client.user.ID) {
		return
	}

	that.games.Disconnect(context.WithoutCancel(ctx), gameID, client.user.ID)
	that.logger.Info("player disconnected", "userID", client.user.ID, "gameID", gameID)

	that.releaseIfEmpty(gameID)
}

// releaseIfEmpty hands a room back once no connection points at it.
func (that *Server) releaseIfEmpty(gameID string) {
	if len(that.tracker.InRoom(gameID)) == 0 {
		that.games.ReleaseRoom(gameID)
	}
}

func credential(req *http.Request) string {
	if header := req.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}

	if token := req.URL.Query().Get(tokenQueryParam); token != "" {
		return token
	}

	if cookie, err := req.Cookie(tokenCookieName); err == nil {
		return cookie.Value
	}

	return ""
}

func errorEvent(err error) entity.Event {
	var appErr *apperror.Error
	message := "internal error"
	if errors.As(err, &appErr) {
		message = appErr.Message
	}

	return entity.NewEvent(entity.ActionError, entity.ErrorPayload{
		Kind:    string(apperror.KindOf(err)),
		Code:    apperror.CodeOf(err),
		Message: message,
	})
}
