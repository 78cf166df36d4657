package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	t.Run("Returns the kind of a wrapped sentinel", func(t *testing.T) {
		// Given: a rejection wrapped twice
		err := fmt.Errorf("failed to make move: %w", fmt.Errorf("game 1: %w", ErrNotYourTurn))

		// When: classifying the error
		kind := KindOf(err)

		// Then: it should be a rejection with its own code
		assert.Equal(t, KindRejected, kind)
		assert.Equal(t, "not_your_turn", CodeOf(err))
		assert.True(t, IsRejected(err))
		assert.ErrorIs(t, err, ErrNotYourTurn)
	})

	t.Run("Returns internal for unclassified errors", func(t *testing.T) {
		// Given: a plain error
		err := errors.New("boom")

		// When: classifying the error
		kind := KindOf(err)

		// Then: it should be internal
		assert.Equal(t, KindInternal, kind)
		assert.Equal(t, "internal", CodeOf(err))
		assert.False(t, IsRejected(err))
	})

	t.Run("Distinguishes rejection reasons", func(t *testing.T) {
		assert.NotErrorIs(t, ErrGameNotActive, ErrNotYourTurn)
		assert.NotErrorIs(t, ErrIllegalPosition, ErrGameNotActive)
		assert.Equal(t, KindNotFound, KindOf(ErrGameNotFound))
		assert.Equal(t, KindAuth, KindOf(ErrUnauthorized))
		assert.Equal(t, KindPersistence, KindOf(ErrPersistence))
	})
}
