package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gamerooms-backend/internal/apperror"
	"github.com/rocketscienceinc/gamerooms-backend/internal/entity"
	"github.com/rocketscienceinc/gamerooms-backend/internal/room"
	"github.com/rocketscienceinc/gamerooms-backend/internal/rules"
	mockedUseCase "github.com/rocketscienceinc/gamerooms-backend/mocks/usecase"
)

var (
	errRedisDown = errors.New("redis down")
	errNotStored = errors.New("not stored")
)

type inbox struct {
	mu     sync.Mutex
	events map[string][]entity.Event
}

func (that *inbox) Deliver(_, userID string, event entity.Event) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.events[userID] = append(that.events[userID], event)
}

func (that *inbox) actions(userID string) []string {
	that.mu.Lock()
	defer that.mu.Unlock()

	actions := make([]string, 0, len(that.events[userID]))
	for _, event := range that.events[userID] {
		actions = append(actions, event.Action)
	}
	return actions
}

func (that *inbox) last(userID string) entity.Event {
	that.mu.Lock()
	defer that.mu.Unlock()

	events := that.events[userID]
	return events[len(events)-1]
}

type fixture struct {
	manager  *GameManager
	games    *mockedUseCase.MockgameRepo
	messages *mockedUseCase.MockmessageRepo
	users    *mockedUseCase.MockuserRepo
	inbox    *inbox
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	games := mockedUseCase.NewMockgameRepo(t)
	messages := mockedUseCase.NewMockmessageRepo(t)
	users := mockedUseCase.NewMockuserRepo(t)
	box := &inbox{events: make(map[string][]entity.Event)}

	limits := Limits{CheckersMoveLimit: 100, ChatHistory: 50, MessageMaxLength: 20}
	registry := room.NewRegistry(logger, games, box)

	return &fixture{
		manager:  NewGameManager(logger, limits, registry, games, messages, users),
		games:    games,
		messages: messages,
		users:    users,
		inbox:    box,
	}
}

// startGame creates a game for alice, seats bob and readies both.
func (that *fixture) startGame(t *testing.T, gameType rules.GameType) string {
	t.Helper()
	ctx := context.Background()

	state, err := that.manager.CreateGame(ctx, "alice", gameType, entity.Config{AllowSpectators: true})
	require.NoError(t, err)
	_, err = that.manager.SeatPlayer(ctx, state.ID, "bob")
	require.NoError(t, err)
	require.NoError(t, that.manager.MarkReady(ctx, state.ID, "alice"))
	require.NoError(t, that.manager.MarkReady(ctx, state.ID, "bob"))

	return state.ID
}

func TestGameManager_CreateGame(t *testing.T) {
	ctx := context.Background()

	t.Run("Seats the creator and stores the game", func(t *testing.T) {
		// Given: a store that accepts writes
		f := newFixture(t)
		f.games.EXPECT().CreateOrUpdate(mock.Anything, mock.AnythingOfType("*entity.Game")).Return(nil).Once()

		// When: alice creates a checkers game
		state, err := f.manager.CreateGame(ctx, "alice", rules.Checkers, entity.Config{})

		// Then: she holds the first seat and the move limit defaults from config
		require.NoError(t, err)
		assert.Equal(t, entity.StatusWaiting, state.Status)
		require.Len(t, state.Players, 1)
		assert.Equal(t, "red", state.Players[0].Symbol)
		assert.Equal(t, 100, state.Config.MoveLimit)
		assert.Len(t, f.manager.OpenGames(), 1)
	})

	t.Run("Unknown game type is rejected", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.manager.CreateGame(ctx, "alice", "chess", entity.Config{})

		require.ErrorIs(t, err, apperror.ErrUnknownGameType)
	})
}

func TestGameManager_Flow(t *testing.T) {
	ctx := context.Background()

	t.Run("Plays a tic-tac-toe game to a win", func(t *testing.T) {
		// Given: an active game between alice and bob
		f := newFixture(t)
		f.games.EXPECT().CreateOrUpdate(mock.Anything, mock.Anything).Return(nil)
		gameID := f.startGame(t, rules.TicTacToe)
		assert.Contains(t, f.inbox.actions("alice"), entity.ActionGameStarted)

		// When: alice completes the top row
		for i, position := range []int{0, 4, 1, 7, 2} {
			mover := []string{"alice", "bob"}[i%2]
			require.NoError(t, f.manager.MakeMove(ctx, gameID, mover, position, nil))
		}

		// Then: both players see the terminal move
		event := f.inbox.last("bob")
		require.Equal(t, entity.ActionMoveMade, event.Action)
		payload, ok := event.Payload.(entity.MoveMadePayload)
		require.True(t, ok)
		require.NotNil(t, payload.TerminalResult)
		assert.Equal(t, []int{0, 1, 2}, payload.TerminalResult.Line)
		assert.Equal(t, "alice", payload.GameState.Winner)
		assert.Equal(t, entity.StatusCompleted, payload.GameState.Status)

		// And: further moves are rejected without a broadcast
		before := len(f.inbox.actions("bob"))
		err := f.manager.MakeMove(ctx, gameID, "bob", 3, nil)
		require.ErrorIs(t, err, apperror.ErrGameNotActive)
		assert.Len(t, f.inbox.actions("bob"), before)
	})

	t.Run("Snapshots reach members in version order", func(t *testing.T) {
		f := newFixture(t)
		f.games.EXPECT().CreateOrUpdate(mock.Anything, mock.Anything).Return(nil)
		gameID := f.startGame(t, rules.ConnectFour)

		for i := 0; i < 6; i++ {
			mover := []string{"alice", "bob"}[i%2]
			require.NoError(t, f.manager.MakeMove(ctx, gameID, mover, i%2, nil))
		}

		var last uint64
		for _, event := range f.inbox.events["alice"] {
			payload, ok := event.Payload.(entity.MoveMadePayload)
			if !ok {
				continue
			}
			assert.Greater(t, payload.GameState.Version, last)
			last = payload.GameState.Version
		}
	})

	t.Run("Save failure is not fatal", func(t *testing.T) {
		// Given: a store that is down
		f := newFixture(t)
		f.games.EXPECT().CreateOrUpdate(mock.Anything, mock.Anything).Return(errRedisDown)
		gameID := f.startGame(t, rules.TicTacToe)

		// When: alice moves
		err := f.manager.MakeMove(ctx, gameID, "alice", 4, nil)

		// Then: the move is applied and broadcast anyway
		require.NoError(t, err)
		assert.Equal(t, entity.ActionMoveMade, f.inbox.last("bob").Action)
		state, err := f.manager.GameState(ctx, gameID)
		require.NoError(t, err)
		assert.Equal(t, "X", state.Board[4])
	})

	t.Run("Forfeit hands the game to the opponent", func(t *testing.T) {
		f := newFixture(t)
		f.games.EXPECT().CreateOrUpdate(mock.Anything, mock.Anything).Return(nil)
		gameID := f.startGame(t, rules.TicTacToe)

		require.NoError(t, f.manager.Forfeit(ctx, gameID, "bob"))

		event := f.inbox.last("alice")
		require.Equal(t, entity.ActionGameForfeited, event.Action)
		payload := event.Payload.(entity.ForfeitPayload)
		assert.Equal(t, "alice", payload.Winner)
		assert.Equal(t, entity.EndReasonForfeit, payload.GameState.EndReason)

		err := f.manager.Forfeit(ctx, gameID, "alice")
		require.ErrorIs(t, err, apperror.ErrGameFinished)
	})

	t.Run("Disconnect keeps the game running", func(t *testing.T) {
		f := newFixture(t)
		f.games.EXPECT().CreateOrUpdate(mock.Anything, mock.Anything).Return(nil)
		gameID := f.startGame(t, rules.TicTacToe)

		f.manager.Disconnect(ctx, gameID, "bob")

		state, err := f.manager.GameState(ctx, gameID)
		require.NoError(t, err)
		assert.Equal(t, entity.StatusActive, state.Status)
		assert.Equal(t, entity.ActionPlayerDisconnected, f.inbox.last("alice").Action)
	})
}

func TestGameManager_Join(t *testing.T) {
	ctx := context.Background()

	t.Run("Spectator gets chat history and the state", func(t *testing.T) {
		f := newFixture(t)
		f.games.EXPECT().CreateOrUpdate(mock.Anything, mock.Anything).Return(nil)
		gameID := f.startGame(t, rules.TicTacToe)

		history := []entity.Message{{ID: "m1", GameID: gameID, Content: "gl hf"}}
		f.messages.EXPECT().History(mock.Anything, gameID, 50).Return(history, nil).Once()

		messages, err := f.manager.SpectateGame(ctx, gameID, "carol")

		require.NoError(t, err)
		assert.Equal(t, history, messages)
		assert.Equal(t, []string{entity.ActionSpectatingStarted, entity.ActionGameState}, f.inbox.actions("carol"))
		assert.Contains(t, f.inbox.actions("alice"), entity.ActionPlayerJoined)
	})

	t.Run("History failure still joins", func(t *testing.T) {
		f := newFixture(t)
		f.games.EXPECT().CreateOrUpdate(mock.Anything, mock.Anything).Return(nil)
		gameID := f.startGame(t, rules.TicTacToe)
		f.messages.EXPECT().History(mock.Anything, gameID, 50).Return(nil, errRedisDown).Once()

		messages, err := f.manager.JoinGame(ctx, gameID, "bob")

		require.NoError(t, err)
		assert.Empty(t, messages)
	})

	t.Run("Unknown game is not found", func(t *testing.T) {
		f := newFixture(t)
		f.games.EXPECT().GetByID(mock.Anything, "missing").Return(nil, apperror.ErrGameNotFound).Once()

		_, err := f.manager.JoinGame(ctx, "missing", "bob")

		require.ErrorIs(t, err, apperror.ErrGameNotFound)
		assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
	})

	t.Run("Stored game is loaded into a room", func(t *testing.T) {
		f := newFixture(t)
		stored, err := entity.NewGame("stored", rules.TicTacToe, entity.Config{}, time.Now())
		require.NoError(t, err)
		_, err = stored.Seat("alice")
		require.NoError(t, err)
		f.games.EXPECT().GetByID(mock.Anything, "stored").Return(stored, nil).Once()
		f.messages.EXPECT().History(mock.Anything, "stored", 50).Return([]entity.Message{}, nil).Once()

		_, err = f.manager.JoinGame(ctx, "stored", "alice")

		require.NoError(t, err)
		assert.Equal(t, []string{entity.ActionGameState}, f.inbox.actions("alice"))
	})
}

func TestGameManager_Chat(t *testing.T) {
	ctx := context.Background()

	t.Run("Broadcasts the stored record with the sender", func(t *testing.T) {
		// Given: an active game and a known sender
		f := newFixture(t)
		f.games.EXPECT().CreateOrUpdate(mock.Anything, mock.Anything).Return(nil)
		gameID := f.startGame(t, rules.TicTacToe)

		alice := &entity.User{ID: "alice", Username: "Alice"}
		stored := &entity.Message{ID: "m1", GameID: gameID, Sender: *alice, Content: "hello"}
		f.users.EXPECT().GetByID(mock.Anything, "alice").Return(alice, nil).Once()
		f.messages.EXPECT().Append(mock.Anything, gameID, *alice, "hello").Return(stored, nil).Once()
		require.NoError(t, f.manager.SetTyping(ctx, gameID, "alice", true))

		// When: alice sends a padded message
		message, err := f.manager.SendMessage(ctx, gameID, "alice", "  hello  ")

		// Then: bob sees typing stop, then the stored record
		require.NoError(t, err)
		assert.Equal(t, stored, message)
		actions := f.inbox.actions("bob")
		assert.Equal(t, []string{entity.ActionUserTyping, entity.ActionUserTyping, entity.ActionNewMessage}, actions[len(actions)-3:])
		assert.Equal(t, stored, f.inbox.last("bob").Payload)
	})

	t.Run("Blank messages are dropped", func(t *testing.T) {
		f := newFixture(t)

		message, err := f.manager.SendMessage(ctx, "any", "alice", "   ")

		require.NoError(t, err)
		assert.Nil(t, message)
	})

	t.Run("Long messages are rejected", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.manager.SendMessage(ctx, "any", "alice", strings.Repeat("a", 21))

		require.ErrorIs(t, err, apperror.ErrMessageTooLong)
	})

	t.Run("Chat store failure is a persistence error", func(t *testing.T) {
		f := newFixture(t)
		f.games.EXPECT().CreateOrUpdate(mock.Anything, mock.Anything).Return(nil)
		gameID := f.startGame(t, rules.TicTacToe)

		f.users.EXPECT().GetByID(mock.Anything, "bob").Return(nil, errNotStored).Once()
		f.messages.EXPECT().Append(mock.Anything, gameID, entity.User{ID: "bob"}, "hi").Return(nil, errRedisDown).Once()

		_, err := f.manager.SendMessage(ctx, gameID, "bob", "hi")

		require.ErrorIs(t, err, apperror.ErrPersistence)
		assert.Equal(t, apperror.KindPersistence, apperror.KindOf(err))
	})

	t.Run("Strangers cannot chat", func(t *testing.T) {
		f := newFixture(t)
		f.games.EXPECT().CreateOrUpdate(mock.Anything, mock.Anything).Return(nil)
		gameID := f.startGame(t, rules.TicTacToe)

		_, err := f.manager.SendMessage(ctx, gameID, "mallory", "hi")

		require.ErrorIs(t, err, apperror.ErrNotInRoom)
	})
}

func TestGameManager_SweepIdle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var saved []*entity.Game
	f.games.EXPECT().CreateOrUpdate(mock.Anything, mock.Anything).
		Run(func(_ context.Context, game *entity.Game) { saved = append(saved, game) }).
		Return(nil)

	waiting, err := f.manager.CreateGame(ctx, "alice", rules.TicTacToe, entity.Config{})
	require.NoError(t, err)
	active := f.startGame(t, rules.TicTacToe)

	f.manager.now = func() time.Time { return time.Now().Add(time.Hour) }
	abandoned := f.manager.SweepIdle(ctx, 30*time.Minute)

	assert.Equal(t, 1, abandoned)
	last := saved[len(saved)-1]
	assert.Equal(t, waiting.ID, last.ID)
	assert.Equal(t, entity.StatusAbandoned, last.Status)

	state, err := f.manager.GameState(ctx, active)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusActive, state.Status)
}

func TestGameManager_RestoreOpenGames(t *testing.T) {
	ctx := context.Background()

	t.Run("Registers stored open games and skips the rest", func(t *testing.T) {
		// Given: three indexed ids, one open, one already started and one missing
		f := newFixture(t)

		open, err := entity.NewGame("open", rules.TicTacToe, entity.Config{}, time.Now())
		require.NoError(t, err)
		_, err = open.Seat("alice")
		require.NoError(t, err)

		started, err := entity.NewGame("started", rules.TicTacToe, entity.Config{}, time.Now())
		require.NoError(t, err)
		for _, user := range []string{"alice", "bob"} {
			_, err = started.Seat(user)
			require.NoError(t, err)
			_, err = started.MarkReady(user, time.Now())
			require.NoError(t, err)
		}

		f.games.EXPECT().OpenIDs(mock.Anything).Return([]string{"open", "started", "gone"}, nil).Once()
		f.games.EXPECT().GetByID(mock.Anything, "open").Return(open, nil).Once()
		f.games.EXPECT().GetByID(mock.Anything, "started").Return(started, nil).Once()
		f.games.EXPECT().GetByID(mock.Anything, "gone").Return(nil, apperror.ErrGameNotFound).Once()

		// When: restoring
		restored, err := f.manager.RestoreOpenGames(ctx)

		// Then: only the open game is listed
		require.NoError(t, err)
		assert.Equal(t, 1, restored)

		games := f.manager.OpenGames()
		require.Len(t, games, 1)
		assert.Equal(t, "open", games[0].ID)
	})

	t.Run("Fails when the index cannot be read", func(t *testing.T) {
		f := newFixture(t)
		f.games.EXPECT().OpenIDs(mock.Anything).Return(nil, errRedisDown).Once()

		_, err := f.manager.RestoreOpenGames(ctx)

		require.ErrorIs(t, err, errRedisDown)
	})
}

func TestGameManager_ReleaseRoom(t *testing.T) {
	ctx := context.Background()

	t.Run("Keeps a running game live", func(t *testing.T) {
		// Given: an active game
		f := newFixture(t)
		f.games.EXPECT().CreateOrUpdate(mock.Anything, mock.Anything).Return(nil)
		gameID := f.startGame(t, rules.TicTacToe)

		// When: the last connection goes away
		f.manager.ReleaseRoom(gameID)

		// Then: the room still accepts moves
		require.NoError(t, f.manager.MakeMove(ctx, gameID, "alice", 4, nil))
	})

	t.Run("Closes a finished game without losing its result", func(t *testing.T) {
		// Given: a game bob won by forfeit
		f := newFixture(t)
		f.games.EXPECT().CreateOrUpdate(mock.Anything, mock.Anything).Return(nil)
		gameID := f.startGame(t, rules.TicTacToe)
		require.NoError(t, f.manager.Forfeit(ctx, gameID, "alice"))

		// When: releasing the room
		f.manager.ReleaseRoom(gameID)

		// Then: the final state is readable but the room is gone
		state, err := f.manager.GameState(ctx, gameID)
		require.NoError(t, err)
		assert.Equal(t, entity.StatusCompleted, state.Status)
		assert.Equal(t, "bob", state.Winner)

		_, err = f.manager.TypingUsers(gameID)
		require.ErrorIs(t, err, apperror.ErrGameNotFound)
		require.ErrorIs(t, f.manager.Forfeit(ctx, gameID, "bob"), apperror.ErrGameFinished)
	})
}

func TestGameManager_TypingUsers(t *testing.T) {
	ctx := context.Background()

	t.Run("Lists members currently typing", func(t *testing.T) {
		// Given: alice and bob attached to an active game
		f := newFixture(t)
		f.games.EXPECT().CreateOrUpdate(mock.Anything, mock.Anything).Return(nil)
		gameID := f.startGame(t, rules.TicTacToe)
		f.messages.EXPECT().History(mock.Anything, gameID, 50).Return([]entity.Message{}, nil).Twice()
		_, err := f.manager.JoinGame(ctx, gameID, "alice")
		require.NoError(t, err)
		_, err = f.manager.JoinGame(ctx, gameID, "bob")
		require.NoError(t, err)

		// When: both start typing and bob stops
		require.NoError(t, f.manager.SetTyping(ctx, gameID, "bob", true))
		require.NoError(t, f.manager.SetTyping(ctx, gameID, "alice", true))
		require.NoError(t, f.manager.SetTyping(ctx, gameID, "bob", false))

		// Then: only alice is listed
		users, err := f.manager.TypingUsers(gameID)
		require.NoError(t, err)
		assert.Equal(t, []string{"alice"}, users)
	})

	t.Run("Unknown games are not found", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.manager.TypingUsers("missing")

		require.ErrorIs(t, err, apperror.ErrGameNotFound)
	})
}
