package entity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gamerooms-backend/internal/apperror"
	"github.com/rocketscienceinc/gamerooms-backend/internal/rules"
)

var startedAt = time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)

func newActiveGame(t *testing.T, gameType rules.GameType, config Config) *Game {
	t.Helper()

	game, err := NewGame("game-1", gameType, config, startedAt)
	require.NoError(t, err)

	for _, userID := range []string{"alice", "bob"} {
		_, err = game.Seat(userID)
		require.NoError(t, err)
	}

	_, err = game.MarkReady("alice", startedAt)
	require.NoError(t, err)
	started, err := game.MarkReady("bob", startedAt)
	require.NoError(t, err)
	require.True(t, started)

	return game
}

func TestNewGame(t *testing.T) {
	t.Run("Creates a waiting game with an empty board", func(t *testing.T) {
		game, err := NewGame("g", rules.ConnectFour, Config{}, startedAt)

		require.NoError(t, err)
		assert.Equal(t, StatusWaiting, game.Status)
		assert.Len(t, game.Board, 42)
		assert.Equal(t, DefaultMaxPlayers, game.Config.MaxPlayers)
		assert.Empty(t, game.CurrentTurn)
	})

	t.Run("Clamps seats to the symbol alphabet", func(t *testing.T) {
		game, err := NewGame("g", rules.Checkers, Config{MaxPlayers: 8}, startedAt)

		require.NoError(t, err)
		assert.Equal(t, 3, game.Config.MaxPlayers)
	})

	t.Run("Rejects unknown game types", func(t *testing.T) {
		_, err := NewGame("g", "chess", Config{}, startedAt)

		require.ErrorIs(t, err, apperror.ErrUnknownGameType)
	})
}

func TestGame_Seat(t *testing.T) {
	game, err := NewGame("g", rules.TicTacToe, Config{}, startedAt)
	require.NoError(t, err)
	game.AddSpectator("bob")

	alice, err := game.Seat("alice")
	require.NoError(t, err)
	bob, err := game.Seat("bob")
	require.NoError(t, err)

	assert.Equal(t, "X", alice.Symbol)
	assert.Equal(t, "O", bob.Symbol)
	assert.False(t, game.IsSpectator("bob"), "seating removes the spectator entry")

	_, err = game.Seat("alice")
	require.ErrorIs(t, err, apperror.ErrGameFull)

	_, err = game.Seat("carol")
	require.ErrorIs(t, err, apperror.ErrGameFull)
}

func TestGame_MarkReady(t *testing.T) {
	t.Run("Starts only when every seat is ready", func(t *testing.T) {
		// Given: a waiting game with two seats
		game, err := NewGame("g", rules.TicTacToe, Config{}, startedAt)
		require.NoError(t, err)
		_, _ = game.Seat("alice")
		_, _ = game.Seat("bob")

		// When: only the first player is ready
		started, err := game.MarkReady("alice", startedAt)

		// Then: the game keeps waiting
		require.NoError(t, err)
		assert.False(t, started)
		assert.Equal(t, StatusWaiting, game.Status)

		// When: the second player is ready too
		started, err = game.MarkReady("bob", startedAt)

		// Then: the first-joined player has the turn
		require.NoError(t, err)
		assert.True(t, started)
		assert.Equal(t, StatusActive, game.Status)
		assert.Equal(t, "alice", game.CurrentTurn)
		assert.True(t, game.Players[0].IsCurrentTurn)
		assert.False(t, game.Players[1].IsCurrentTurn)
	})

	t.Run("A single ready seat never starts the game", func(t *testing.T) {
		game, _ := NewGame("g", rules.TicTacToe, Config{}, startedAt)
		_, _ = game.Seat("alice")

		started, err := game.MarkReady("alice", startedAt)

		require.NoError(t, err)
		assert.False(t, started)
	})

	t.Run("Is idempotent", func(t *testing.T) {
		game := newActiveGame(t, rules.TicTacToe, Config{})
		version := game.Version

		started, err := game.MarkReady("alice", startedAt)

		require.NoError(t, err)
		assert.False(t, started)
		assert.Equal(t, version, game.Version)
	})

	t.Run("Rejects strangers and finished games", func(t *testing.T) {
		game := newActiveGame(t, rules.TicTacToe, Config{})

		_, err := game.MarkReady("carol", startedAt)
		require.ErrorIs(t, err, apperror.ErrNotSeated)

		_, err = game.Forfeit("alice", startedAt)
		require.NoError(t, err)

		_, err = game.MarkReady("alice", startedAt)
		require.ErrorIs(t, err, apperror.ErrGameFinished)
	})
}

func TestGame_ApplyMove(t *testing.T) {
	t.Run("Places one mark and alternates turns", func(t *testing.T) {
		// Given: an active tic-tac-toe game
		game := newActiveGame(t, rules.TicTacToe, Config{})

		for i, mover := range []string{"alice", "bob", "alice", "bob"} {
			before := rules.Stats(game.Board).Occupied

			// When: the current player moves
			_, err := game.ApplyMove(mover, []int{0, 4, 8, 2}[i], nil, startedAt.Add(time.Second))

			// Then: exactly one new cell is occupied and the turn passes
			require.NoError(t, err)
			state := game.Snapshot()
			assert.Equal(t, before+1, rules.Stats(state.Board).Occupied)
			assert.Equal(t, mover, state.LastMove.PlayerID)
			assert.Equal(t, i+1, state.Stats.TotalMoves)
			assert.Len(t, game.Moves, game.Stats.TotalMoves)
			assert.NotEqual(t, mover, game.CurrentTurn)
		}
	})

	t.Run("Rejects moves out of turn without touching the board", func(t *testing.T) {
		game := newActiveGame(t, rules.TicTacToe, Config{})
		board := game.Board.Clone()

		_, err := game.ApplyMove("bob", 0, nil, startedAt)

		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
		assert.Equal(t, board, game.Board)
		assert.Empty(t, game.Moves)
	})

	t.Run("Rejects occupied and out-of-range cells", func(t *testing.T) {
		game := newActiveGame(t, rules.TicTacToe, Config{})
		_, err := game.ApplyMove("alice", 4, nil, startedAt)
		require.NoError(t, err)

		_, err = game.ApplyMove("bob", 4, nil, startedAt)
		require.ErrorIs(t, err, apperror.ErrIllegalPosition)

		_, err = game.ApplyMove("bob", 9, nil, startedAt)
		require.ErrorIs(t, err, apperror.ErrIllegalPosition)

		assert.Equal(t, "bob", game.CurrentTurn)
	})

	t.Run("Rejects moves while waiting", func(t *testing.T) {
		game, _ := NewGame("g", rules.TicTacToe, Config{}, startedAt)
		_, _ = game.Seat("alice")

		_, err := game.ApplyMove("alice", 0, nil, startedAt)

		require.ErrorIs(t, err, apperror.ErrGameNotActive)
	})

	t.Run("Winning move completes the game and scores the winner", func(t *testing.T) {
		// Given: X on 0 and 1, O on 4 and 7
		game := newActiveGame(t, rules.TicTacToe, Config{})
		for i, position := range []int{0, 4, 1, 7} {
			mover := []string{"alice", "bob"}[i%2]
			_, err := game.ApplyMove(mover, position, nil, startedAt)
			require.NoError(t, err)
		}

		// When: X takes index 2
		result, err := game.ApplyMove("alice", 2, nil, startedAt.Add(time.Minute))

		// Then: alice wins on [0,1,2]
		require.NoError(t, err)
		assert.Equal(t, rules.OutcomeWin, result.Outcome.Kind)
		assert.Equal(t, StatusCompleted, game.Status)
		assert.Equal(t, "alice", game.Winner)
		assert.Equal(t, EndReasonWin, game.EndReason)
		assert.Equal(t, 1, game.Players[0].Score)
		assert.Equal(t, []int{0, 1, 2}, game.Stats.WinnerLine)
		assert.Equal(t, int64(60), game.Stats.GameDuration)
		require.NotNil(t, game.CompletedAt)
		assert.Empty(t, game.CurrentTurn)

		// And: the finished game rejects further moves
		_, err = game.ApplyMove("bob", 3, nil, startedAt)
		require.ErrorIs(t, err, apperror.ErrGameNotActive)
		assert.Equal(t, rules.EmptyCell, game.Board[3])
	})

	t.Run("Full board without a line is a draw", func(t *testing.T) {
		game := newActiveGame(t, rules.TicTacToe, Config{})
		// X O X / X O O / O X X
		for i, position := range []int{0, 1, 2, 4, 3, 5, 7, 6, 8} {
			mover := []string{"alice", "bob"}[i%2]
			_, err := game.ApplyMove(mover, position, nil, startedAt)
			require.NoError(t, err)
		}

		assert.Equal(t, StatusDraw, game.Status)
		assert.Empty(t, game.Winner)
		assert.Equal(t, EndReasonDraw, game.EndReason)
	})

	t.Run("Connect-four discs drop to the lowest free row", func(t *testing.T) {
		game := newActiveGame(t, rules.ConnectFour, Config{})

		first, err := game.ApplyMove("alice", 3, nil, startedAt)
		require.NoError(t, err)
		second, err := game.ApplyMove("bob", 3, nil, startedAt)
		require.NoError(t, err)

		assert.Equal(t, 38, first.Move.Cell)
		assert.Equal(t, 31, second.Move.Cell)
		assert.Equal(t, "red", game.Board[38])
		assert.Equal(t, "yellow", game.Board[31])
	})

	t.Run("Checkers relocation moves the mover's piece", func(t *testing.T) {
		game := newActiveGame(t, rules.Checkers, Config{})

		result, err := game.ApplyMove("alice", 12, map[string]any{"from": float64(11)}, startedAt)

		require.NoError(t, err)
		require.NotNil(t, result.Move.From)
		assert.Equal(t, 11, *result.Move.From)
		assert.Equal(t, rules.EmptyCell, game.Board[11])
		assert.Equal(t, "red", game.Board[12])

		_, err = game.ApplyMove("bob", 13, map[string]any{"from": 0}, startedAt)
		require.ErrorIs(t, err, apperror.ErrIllegalPosition, "cannot move the opponent's piece")
	})

	t.Run("Checkers move limit ends in a draw", func(t *testing.T) {
		game := newActiveGame(t, rules.Checkers, Config{MoveLimit: 2})

		_, err := game.ApplyMove("alice", 12, nil, startedAt)
		require.NoError(t, err)
		result, err := game.ApplyMove("bob", 13, nil, startedAt)
		require.NoError(t, err)

		assert.Equal(t, rules.OutcomeDraw, result.Outcome.Kind)
		assert.Equal(t, StatusDraw, game.Status)
		assert.Equal(t, EndReasonMoveLimit, game.EndReason)
	})

	t.Run("Time spent is charged to the mover", func(t *testing.T) {
		game := newActiveGame(t, rules.TicTacToe, Config{TimeLimit: 60})

		_, err := game.ApplyMove("alice", 0, nil, startedAt.Add(25*time.Second))
		require.NoError(t, err)
		_, err = game.ApplyMove("bob", 1, nil, startedAt.Add(5*time.Minute))
		require.NoError(t, err)

		require.NotNil(t, game.Players[0].TimeRemaining)
		require.NotNil(t, game.Players[1].TimeRemaining)
		assert.Equal(t, 35, *game.Players[0].TimeRemaining)
		assert.Equal(t, 0, *game.Players[1].TimeRemaining)

		// And: an exhausted clock is still reported, unlike a game without one
		state := game.Snapshot()
		data, err := json.Marshal(state.Players[1])
		require.NoError(t, err)
		assert.Contains(t, string(data), `"timeRemaining":0`)

		*state.Players[0].TimeRemaining = 99
		assert.Equal(t, 35, *game.Players[0].TimeRemaining, "snapshot must not share the clock")
	})

	t.Run("Games without a time limit carry no clock", func(t *testing.T) {
		game := newActiveGame(t, rules.TicTacToe, Config{})

		_, err := game.ApplyMove("alice", 0, nil, startedAt.Add(time.Minute))
		require.NoError(t, err)

		assert.Nil(t, game.Players[0].TimeRemaining)
		data, err := json.Marshal(game.Snapshot().Players[0])
		require.NoError(t, err)
		assert.NotContains(t, string(data), "timeRemaining")
	})

	t.Run("Checkers board without a free square is a stalemate draw", func(t *testing.T) {
		// Given: a checkers board whose only free square is 12
		game := newActiveGame(t, rules.Checkers, Config{})
		for i := 13; i < 20; i++ {
			game.Board[i] = "red"
		}

		// When: red fills the last square
		result, err := game.ApplyMove("alice", 12, nil, startedAt)

		// Then: both sides still have pieces, so the game ends drawn
		require.NoError(t, err)
		assert.Equal(t, rules.OutcomeDraw, result.Outcome.Kind)
		assert.Equal(t, StatusDraw, game.Status)
		assert.Equal(t, EndReasonStalemate, game.EndReason)
		assert.Empty(t, game.Winner)
	})
}

func TestGame_Forfeit(t *testing.T) {
	t.Run("Opponent wins with the forfeit reason", func(t *testing.T) {
		game := newActiveGame(t, rules.TicTacToe, Config{})

		winner, err := game.Forfeit("alice", startedAt)

		require.NoError(t, err)
		assert.Equal(t, "bob", winner)
		assert.Equal(t, StatusCompleted, game.Status)
		assert.Equal(t, EndReasonForfeit, game.EndReason)
		assert.Zero(t, game.Players[1].Score)

		_, err = game.Forfeit("bob", startedAt)
		require.ErrorIs(t, err, apperror.ErrGameFinished)
	})

	t.Run("Only valid while active", func(t *testing.T) {
		game, _ := NewGame("g", rules.TicTacToe, Config{}, startedAt)
		_, _ = game.Seat("alice")

		_, err := game.Forfeit("alice", startedAt)

		require.ErrorIs(t, err, apperror.ErrGameNotActive)
	})
}

func TestGame_Abandon(t *testing.T) {
	waiting, _ := NewGame("g", rules.TicTacToe, Config{}, startedAt)
	assert.True(t, waiting.Abandon(startedAt))
	assert.Equal(t, StatusAbandoned, waiting.Status)
	assert.Equal(t, EndReasonIdle, waiting.EndReason)

	active := newActiveGame(t, rules.TicTacToe, Config{})
	assert.False(t, active.Abandon(startedAt))
	assert.Equal(t, StatusActive, active.Status)
}

func TestGame_Spectators(t *testing.T) {
	game := newActiveGame(t, rules.TicTacToe, Config{AllowSpectators: true})
	turn := game.CurrentTurn

	assert.True(t, game.AddSpectator("carol"))
	assert.False(t, game.AddSpectator("carol"))
	assert.Equal(t, []string{"carol"}, game.Snapshot().Spectators)
	assert.True(t, game.RemoveSpectator("carol"))
	assert.False(t, game.RemoveSpectator("carol"))
	assert.Equal(t, turn, game.CurrentTurn)
}

func TestGame_SnapshotIsDetached(t *testing.T) {
	game := newActiveGame(t, rules.TicTacToe, Config{})
	_, err := game.ApplyMove("alice", 0, nil, startedAt)
	require.NoError(t, err)

	state := game.Snapshot()
	state.Board[1] = "O"
	state.Players[0].Score = 10

	assert.Equal(t, rules.EmptyCell, game.Board[1])
	assert.Zero(t, game.Players[0].Score)
	assert.Equal(t, 8, state.Stats.EmptySpaces)
	assert.Equal(t, 1, state.Stats.Pieces["X"])
	assert.NotContains(t, state.ValidMoves, 0)

	clone := game.Clone()
	clone.Players[0].Score = 3
	clone.Board[2] = "X"

	assert.Zero(t, game.Players[0].Score)
	assert.Equal(t, rules.EmptyCell, game.Board[2])
	assert.Equal(t, game.Version, clone.Version)
}
