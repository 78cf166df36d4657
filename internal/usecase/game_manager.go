package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rocketscienceinc/gamerooms-backend/internal/apperror"
	"github.com/rocketscienceinc/gamerooms-backend/internal/entity"
	"github.com/rocketscienceinc/gamerooms-backend/internal/pkg"
	"github.com/rocketscienceinc/gamerooms-backend/internal/room"
	"github.com/rocketscienceinc/gamerooms-backend/internal/rules"
)

type gameRepo interface {
	CreateOrUpdate(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	OpenIDs(ctx context.Context) ([]string, error)
}

type messageRepo interface {
	Append(ctx context.Context, gameID string, sender entity.User, content string) (*entity.Message, error)
	History(ctx context.Context, gameID string, limit int) ([]entity.Message, error)
}

type userRepo interface {
	CreateOrUpdate(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
}

type Limits struct {
	CheckersMoveLimit int
	ChatHistory       int
	MessageMaxLength  int
}

// GameManager turns gateway requests into room mutations. Events produced by
// a mutation are enqueued inside the room's critical section; persistence
// happens afterwards on a detached copy.
type GameManager struct {
	logger *slog.Logger
	limits Limits
	now    func() time.Time

	rooms       *room.Registry
	gameRepo    gameRepo
	messageRepo messageRepo
	userRepo    userRepo
}

func NewGameManager(logger *slog.Logger, limits Limits, rooms *room.Registry, gameRepo gameRepo, messageRepo messageRepo, userRepo userRepo) *GameManager {
	return &GameManager{
		logger: logger.With("component", "game_manager"),
		limits: limits,
		now:    time.Now,

		rooms:       rooms,
		gameRepo:    gameRepo,
		messageRepo: messageRepo,
		userRepo:    userRepo,
	}
}

// CreateGame opens a waiting game with the creator in the first seat.
func (that *GameManager) CreateGame(ctx context.Context, userID string, gameType rules.GameType, config entity.Config) (entity.GameState, error) {
	if gameType == rules.Checkers && config.MoveLimit == 0 {
		config.MoveLimit = that.limits.CheckersMoveLimit
	}

	game, err := entity.NewGame(pkg.GenerateID(), gameType, config, that.now().UTC())
	if err != nil {
		return entity.GameState{}, fmt.Errorf("failed to create game: %w", err)
	}

	if _, err = game.Seat(userID); err != nil {
		return entity.GameState{}, fmt.Errorf("failed to seat creator: %w", err)
	}

	state := game.Snapshot()
	snapshot := game.Clone()
	if _, err = that.rooms.Add(game); err != nil {
		return entity.GameState{}, fmt.Errorf("failed to register game: %w", err)
	}
	that.save(ctx, snapshot)

	return state, nil
}

// SeatPlayer claims a free seat in a waiting game for userID.
func (that *GameManager) SeatPlayer(ctx context.Context, gameID, userID string) (entity.GameState, error) {
	var state entity.GameState

	changed, err := that.rooms.Update(ctx, gameID, func(tx *room.Tx) error {
		if _, err := tx.Game().Seat(userID); err != nil {
			return err
		}

		tx.Attach(userID, room.RolePlayer)
		state = tx.Game().Snapshot()

		tx.BroadcastExcept(userID, entity.NewEvent(entity.ActionPlayerJoined, entity.UserPayload{UserID: userID}))
		tx.Broadcast(entity.NewEvent(entity.ActionGameState, state))

		return nil
	})
	if err != nil {
		return entity.GameState{}, fmt.Errorf("failed to seat player: %w", err)
	}

	that.save(ctx, changed)

	return state, nil
}

// JoinGame attaches userID to a room and returns the recent chat.
func (that *GameManager) JoinGame(ctx context.Context, gameID, userID string) ([]entity.Message, error) {
	return that.join(ctx, gameID, userID, false)
}

func (that *GameManager) SpectateGame(ctx context.Context, gameID, userID string) ([]entity.Message, error) {
	return that.join(ctx, gameID, userID, true)
}

func (that *GameManager) join(ctx context.Context, gameID, userID string, asSpectator bool) ([]entity.Message, error) {
	log := that.logger.With("method", "join", "gameID", gameID, "userID", userID)

	_, role, changed, err := that.rooms.Join(ctx, gameID, userID, asSpectator)
	if err != nil {
		return nil, fmt.Errorf("failed to join game: %w", err)
	}

	that.save(ctx, changed)
	log.Debug("joined", "role", role)

	history, err := that.messageRepo.History(ctx, gameID, that.limits.ChatHistory)
	if err != nil {
		log.Error("failed to load chat history", "error", err)
		return []entity.Message{}, nil
	}

	return history, nil
}

func (that *GameManager) LeaveGame(ctx context.Context, gameID, userID string) error {
	changed, err := that.rooms.Leave(ctx, gameID, userID)
	if err != nil {
		return fmt.Errorf("failed to leave game: %w", err)
	}

	that.save(ctx, changed)

	return nil
}

// Disconnect never forfeits: seated players keep their seat until they come
// back or forfeit explicitly.
func (that *GameManager) Disconnect(ctx context.Context, gameID, userID string) {
	that.save(ctx, that.rooms.Disconnect(gameID, userID))
}

func (that *GameManager) MakeMove(ctx context.Context, gameID, userID string, position int, aux map[string]any) error {
	changed, err := that.rooms.Update(ctx, gameID, func(tx *room.Tx) error {
		game := tx.Game()

		result, err := game.ApplyMove(userID, position, aux, that.now().UTC())
		if err != nil {
			return err
		}

		payload := entity.MoveMadePayload{
			PlayerID:  userID,
			Position:  position,
			Cell:      result.Move.Cell,
			GameState: game.Snapshot(),
		}
		if result.Outcome.IsTerminal() {
			outcome := result.Outcome
			payload.TerminalResult = &outcome
		}

		tx.Broadcast(entity.NewEvent(entity.ActionMoveMade, payload))

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to make move: %w", err)
	}

	that.save(ctx, changed)

	return nil
}

func (that *GameManager) MarkReady(ctx context.Context, gameID, userID string) error {
	changed, err := that.rooms.Update(ctx, gameID, func(tx *room.Tx) error {
		game := tx.Game()

		started, err := game.MarkReady(userID, that.now().UTC())
		if err != nil {
			return err
		}

		state := game.Snapshot()
		tx.Broadcast(entity.NewEvent(entity.ActionPlayerReady, entity.PlayerReadyPayload{UserID: userID, GameState: state}))
		if started {
			tx.Broadcast(entity.NewEvent(entity.ActionGameStarted, state))
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to mark ready: %w", err)
	}

	that.save(ctx, changed)

	return nil
}

func (that *GameManager) Forfeit(ctx context.Context, gameID, userID string) error {
	changed, err := that.rooms.Update(ctx, gameID, func(tx *room.Tx) error {
		game := tx.Game()

		winner, err := game.Forfeit(userID, that.now().UTC())
		if err != nil {
			return err
		}

		tx.Broadcast(entity.NewEvent(entity.ActionGameForfeited, entity.ForfeitPayload{
			UserID:    userID,
			Winner:    winner,
			GameState: game.Snapshot(),
		}))

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to forfeit: %w", err)
	}

	that.save(ctx, changed)

	return nil
}

// SetTyping toggles the advisory typing flag and tells the other members.
func (that *GameManager) SetTyping(ctx context.Context, gameID, userID string, isTyping bool) error {
	_, err := that.rooms.Update(ctx, gameID, func(tx *room.Tx) error {
		if _, ok := tx.Role(userID); !ok {
			return apperror.ErrNotInRoom
		}

		if tx.Typing().Set(userID, isTyping) {
			tx.BroadcastExcept(userID, entity.NewEvent(entity.ActionUserTyping, entity.TypingPayload{
				UserID:   userID,
				IsTyping: isTyping,
			}))
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set typing: %w", err)
	}

	return nil
}

// SendMessage stores a chat message through the chat store and broadcasts the
// stored record. Blank messages are dropped.
func (that *GameManager) SendMessage(ctx context.Context, gameID, userID, content string) (*entity.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, nil
	}

	if that.limits.MessageMaxLength > 0 && utf8.RuneCountInString(content) > that.limits.MessageMaxLength {
		return nil, apperror.ErrMessageTooLong
	}

	_, err := that.rooms.Update(ctx, gameID, func(tx *room.Tx) error {
		if _, ok := tx.Role(userID); !ok {
			return apperror.ErrNotInRoom
		}
		if tx.Typing().Clear(userID) {
			tx.BroadcastExcept(userID, entity.NewEvent(entity.ActionUserTyping, entity.TypingPayload{UserID: userID}))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	sender := that.resolveSender(ctx, userID)

	message, err := that.messageRepo.Append(ctx, gameID, sender, content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrPersistence, err)
	}

	if err = that.rooms.Broadcast(gameID, entity.NewEvent(entity.ActionNewMessage, message)); err != nil {
		return nil, fmt.Errorf("failed to broadcast message: %w", err)
	}

	return message, nil
}

func (that *GameManager) GameState(ctx context.Context, gameID string) (entity.GameState, error) {
	state, err := that.rooms.Snapshot(ctx, gameID)
	if err != nil {
		return entity.GameState{}, fmt.Errorf("failed to get game state: %w", err)
	}

	return state, nil
}

// RequestState enqueues the current snapshot for userID through the room, so
// it is ordered with every other snapshot of that room.
func (that *GameManager) RequestState(ctx context.Context, gameID, userID string) error {
	_, err := that.rooms.Update(ctx, gameID, func(tx *room.Tx) error {
		tx.Send(userID, entity.GameStateEvent(tx.Game()))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to request game state: %w", err)
	}

	return nil
}

// RestoreOpenGames registers rooms for stored games that were still open, so
// they are listed again after a restart. Games that fail to load are skipped.
func (that *GameManager) RestoreOpenGames(ctx context.Context) (int, error) {
	log := that.logger.With("method", "RestoreOpenGames")

	ids, err := that.gameRepo.OpenIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list open games: %w", err)
	}

	restored := 0
	for _, id := range ids {
		game, err := that.gameRepo.GetByID(ctx, id)
		if err != nil {
			log.Warn("failed to restore game", "gameID", id, "error", err)
			continue
		}

		if !game.IsOpen() {
			continue
		}

		if _, err = that.rooms.Add(game); err != nil {
			log.Warn("failed to register game", "gameID", id, "error", err)
			continue
		}
		restored++
	}

	return restored, nil
}

// ReleaseRoom is called once no connection is attached to gameID. A finished
// game's room is closed; its final state stays readable.
func (that *GameManager) ReleaseRoom(gameID string) {
	if that.rooms.CloseFinished(gameID) {
		that.logger.Info("finished room closed", "gameID", gameID)
	}
}

// TypingUsers lists who is typing in a live room.
func (that *GameManager) TypingUsers(gameID string) ([]string, error) {
	users, err := that.rooms.Typing(gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get typing users: %w", err)
	}

	return users, nil
}

func (that *GameManager) OpenGames() []entity.GameState {
	return that.rooms.Open()
}

// SweepIdle abandons waiting rooms idle for longer than maxIdle and stores
// their final state.
func (that *GameManager) SweepIdle(ctx context.Context, maxIdle time.Duration) int {
	abandoned := that.rooms.SweepIdle(that.now(), maxIdle)
	for _, game := range abandoned {
		that.save(ctx, game)
	}

	return len(abandoned)
}

// RunSweeper calls SweepIdle every interval until ctx is done.
func (that *GameManager) RunSweeper(ctx context.Context, interval, maxIdle time.Duration) error {
	log := that.logger.With("method", "RunSweeper")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := that.SweepIdle(ctx, maxIdle); n > 0 {
				log.Info("idle rooms abandoned", "count", n, "live", that.rooms.Len())
			}
		}
	}
}

func (that *GameManager) resolveSender(ctx context.Context, userID string) entity.User {
	log := that.logger.With("method", "resolveSender")

	user, err := that.userRepo.GetByID(ctx, userID)
	if err != nil {
		log.Warn("failed to resolve sender", "userID", userID, "error", err)
		return entity.User{ID: userID}
	}

	return *user
}

// save stores a detached copy of a game. Failures are reported to operators
// only; clients already received the new state.
func (that *GameManager) save(ctx context.Context, game *entity.Game) {
	if game == nil {
		return
	}

	log := that.logger.With("method", "save")

	if err := that.gameRepo.CreateOrUpdate(context.WithoutCancel(ctx), game); err != nil {
		log.Error("failed to save game", "gameID", game.ID, "version", game.Version, "error", err)
	}
}
