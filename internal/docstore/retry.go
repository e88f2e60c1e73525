package docstore

import (
	"context"
	"errors"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
)

// retryOnConflict runs attempt until it stops failing with ErrConflict or
// maxRetries is used up, in which case the last ErrConflict is returned.
func retryOnConflict[T any](ctx context.Context, maxRetries int, attempt func() (T, error)) (T, error) {
	policy := retrypolicy.NewBuilder[T]().
		HandleIf(func(_ T, err error) bool {
			return errors.Is(err, ErrConflict)
		}).
		WithBackoff(5*time.Millisecond, 250*time.Millisecond).
		WithMaxRetries(maxRetries).
		ReturnLastFailure().
		Build()

	return failsafe.With[T](policy).WithContext(ctx).Get(attempt)
}
