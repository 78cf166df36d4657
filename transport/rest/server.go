package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rocketscienceinc/gamerooms-backend/internal/entity"
	"github.com/rocketscienceinc/gamerooms-backend/internal/rules"
)

const shutdownTimeout = 5 * time.Second

type userUseCase interface {
	CreateGuest(ctx context.Context, username, avatar string) (*entity.User, string, error)
}

type userResolver interface {
	ResolveUser(token string) (*entity.User, error)
}

type gameManager interface {
	CreateGame(ctx context.Context, userID string, gameType rules.GameType, config entity.Config) (entity.GameState, error)
	SeatPlayer(ctx context.Context, gameID, userID string) (entity.GameState, error)
	GameState(ctx context.Context, gameID string) (entity.GameState, error)
	OpenGames() []entity.GameState
	TypingUsers(gameID string) ([]string, error)
}

type presenceTracker interface {
	IsOnline(userID string) bool
	InRoom(roomID string) []string
}

// Server is the HTTP surface for identities and game creation. Live play goes
// through the websocket gateway.
type Server struct {
	logger *slog.Logger
	users  userUseCase
	auth   userResolver
	games    gameManager
	presence presenceTracker
}

func New(logger *slog.Logger, users userUseCase, auth userResolver, games gameManager, presence presenceTracker) *Server {
	return &Server{
		logger:   logger.With("component", "rest_server"),
		users:    users,
		auth:     auth,
		games:    games,
		presence: presence,
	}
}

func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", that.handlePing)
	mux.HandleFunc("POST /guest", that.handleCreateGuest)
	mux.HandleFunc("GET /games", that.handleOpenGames)
	mux.HandleFunc("GET /games/{id}", that.handleGetGame)
	mux.HandleFunc("GET /games/{id}/presence", that.handleGamePresence)
	mux.HandleFunc("GET /users/{id}/presence", that.handleUserPresence)
	mux.HandleFunc("POST /games", that.authenticated(that.handleCreateGame))
	mux.HandleFunc("POST /games/{id}/seat", that.authenticated(that.handleSeat))

	return mux
}

// Start - starts HTTP server and stops it when ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shutdown HTTP server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
