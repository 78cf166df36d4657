package repository

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gamerooms-backend/internal/entity"
	"github.com/rocketscienceinc/gamerooms-backend/testing/suite"
)

func TestMessageRepository(t *testing.T) {
	t.Run("History returns the latest messages oldest first", func(t *testing.T) {
		ctx, st := suite.New(t)
		messageRepo := NewMessageRepository(st.Storage)
		sender := entity.User{ID: "alice", Username: "Alice"}

		// Given: five messages in a game
		for i := 1; i <= 5; i++ {
			message, err := messageRepo.Append(ctx, "g1", sender, fmt.Sprintf("message %d", i))
			require.NoError(t, err)
			assert.NotEmpty(t, message.ID)
			assert.Equal(t, "g1", message.GameID)
		}

		// When: the last three are requested
		history, err := messageRepo.History(ctx, "g1", 3)

		// Then: they come back in chat order with their sender
		require.NoError(t, err)
		require.Len(t, history, 3)
		assert.Equal(t, "message 3", history[0].Content)
		assert.Equal(t, "message 5", history[2].Content)
		assert.Equal(t, "Alice", history[2].Sender.Username)
	})

	t.Run("Empty game has no history", func(t *testing.T) {
		ctx, st := suite.New(t)
		messageRepo := NewMessageRepository(st.Storage)

		history, err := messageRepo.History(ctx, "quiet", 50)

		require.NoError(t, err)
		assert.Empty(t, history)
	})
}

func TestUserRepository(t *testing.T) {
	ctx, st := suite.New(t)
	userRepo := NewUserRepository(st.Storage)

	_, err := userRepo.GetByID(ctx, "alice")
	require.Error(t, err)

	require.NoError(t, userRepo.CreateOrUpdate(ctx, &entity.User{ID: "alice", Username: "Alice", Avatar: "a.png"}))

	user, err := userRepo.GetByID(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Username)
	assert.Equal(t, "a.png", user.Avatar)
}
