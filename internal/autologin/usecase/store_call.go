package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/allisson/autologin/internal/autologin/domain"
	apperrors "github.com/allisson/autologin/internal/errors"
)

// storeCall runs fn under the store timeout. Any failure other than
// ErrTokenNotFound is reported as ErrStoreUnavailable so an outage is never
// mistaken for a missing token.
func storeCall[T any](
	ctx context.Context,
	timeout time.Duration,
	fn func(ctx context.Context) (T, error),
) (T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result, err := fn(ctx)
	if err != nil {
		var zero T
		if errors.Is(err, domain.ErrTokenNotFound) {
			return zero, err
		}
		if apperrors.IsTimeout(err) {
			err = fmt.Errorf("store call exceeded %s: %w", timeout, err)
		}
		return zero, apperrors.Join(domain.ErrStoreUnavailable, err)
	}
	return result, nil
}
