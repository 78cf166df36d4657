package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rocketscienceinc/gamerooms-backend/internal/apperror"
	"github.com/rocketscienceinc/gamerooms-backend/internal/entity"
	"github.com/rocketscienceinc/gamerooms-backend/internal/rules"
)

const maxBodySize = 1 << 20

type contextKey struct{}

type guestRequest struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

type guestResponse struct {
	User  *entity.User `json:"user"`
	Token string       `json:"token"`
}

type createGameRequest struct {
	GameType        rules.GameType `json:"gameType"`
	MaxPlayers      int            `json:"maxPlayers"`
	TimeLimit       int            `json:"timeLimit"`
	MoveLimit       int            `json:"moveLimit"`
	IsPrivate       bool           `json:"isPrivate"`
	AllowSpectators bool           `json:"allowSpectators"`
}

type userPresenceResponse struct {
	UserID string `json:"userId"`
	Online bool   `json:"online"`
}

type gamePresenceResponse struct {
	GameID    string   `json:"gameId"`
	Connected []string `json:"connected"`
	Typing    []string `json:"typing"`
}

type errorResponse struct {
	Kind    string `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (that *Server) handleCreateGuest(w http.ResponseWriter, r *http.Request) {
	var req guestRequest
	if r.ContentLength != 0 {
		if err := decodeBody(w, r, &req); err != nil {
			that.writeError(w, err)
			return
		}
	}

	user, token, err := that.users.CreateGuest(r.Context(), req.Username, req.Avatar)
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusCreated, guestResponse{User: user, Token: token})
}

func (that *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := decodeBody(w, r, &req); err != nil {
		that.writeError(w, err)
		return
	}

	state, err := that.games.CreateGame(r.Context(), userFrom(r.Context()).ID, req.GameType, entity.Config{
		MaxPlayers:      req.MaxPlayers,
		TimeLimit:       req.TimeLimit,
		MoveLimit:       req.MoveLimit,
		IsPrivate:       req.IsPrivate,
		AllowSpectators: req.AllowSpectators,
	})
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusCreated, state)
}

func (that *Server) handleSeat(w http.ResponseWriter, r *http.Request) {
	state, err := that.games.SeatPlayer(r.Context(), r.PathValue("id"), userFrom(r.Context()).ID)
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, state)
}

func (that *Server) handleOpenGames(w http.ResponseWriter, _ *http.Request) {
	that.writeJSON(w, http.StatusOK, that.games.OpenGames())
}

func (that *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	state, err := that.games.GameState(r.Context(), r.PathValue("id"))
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, state)
}

func (that *Server) handleUserPresence(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")

	that.writeJSON(w, http.StatusOK, userPresenceResponse{
		UserID: userID,
		Online: that.presence.IsOnline(userID),
	})
}

// handleGamePresence reports who has a connection pointed at a live room and
// who is typing there.
func (that *Server) handleGamePresence(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")

	typing, err := that.games.TypingUsers(gameID)
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, gamePresenceResponse{
		GameID:    gameID,
		Connected: that.presence.InRoom(gameID),
		Typing:    typing,
	})
}

// authenticated resolves the Bearer token and stores the user in the request
// context.
func (that *Server) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, _ := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")

		user, err := that.auth.ResolveUser(strings.TrimSpace(token))
		if err != nil {
			that.writeError(w, err)
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, user)))
	}
}

func userFrom(ctx context.Context) *entity.User {
	user, _ := ctx.Value(contextKey{}).(*entity.User)
	return user
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrInvalidPayload, err)
	}

	return nil
}

func (that *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}

func (that *Server) writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		that.logger.Error("request failed", "error", err)
	}

	message := "internal error"
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		message = appErr.Message
	}

	that.writeJSON(w, status, errorResponse{
		Kind:    string(apperror.KindOf(err)),
		Code:    apperror.CodeOf(err),
		Message: message,
	})
}

func statusOf(err error) int {
	switch apperror.KindOf(err) {
	case apperror.KindAuth:
		return http.StatusUnauthorized
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindRejected:
		if errors.Is(err, apperror.ErrInvalidPayload) || errors.Is(err, apperror.ErrUnknownGameType) {
			return http.StatusBadRequest
		}
		return http.StatusConflict
	case apperror.KindPersistence:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
