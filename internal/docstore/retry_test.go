package docstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRetryOnConflict(t *testing.T) {
	t.Run("RetriesUntilSuccess", func(t *testing.T) {
		calls := 0
		got, err := retryOnConflict(context.Background(), 3, func() (int, error) {
			calls++
			if calls < 3 {
				return 0, ErrConflict
			}
			return 42, nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 42, got)
		assert.Equal(t, 3, calls)
	})

	t.Run("GivesUpWithConflict", func(t *testing.T) {
		calls := 0
		_, err := retryOnConflict(context.Background(), 2, func() (int, error) {
			calls++
			return 0, ErrConflict
		})
		assert.ErrorIs(t, err, ErrConflict)
		assert.Equal(t, 3, calls)
	})

	t.Run("OtherErrorsAreNotRetried", func(t *testing.T) {
		boom := errors.New("boom")
		calls := 0
		_, err := retryOnConflict(context.Background(), 5, func() (int, error) {
			calls++
			return 0, boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})
}
