package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrAlreadyExists is returned by Create when the email is already taken.
	ErrAlreadyExists = errors.New("user with this email already exists")
	// ErrStoreUnavailable wraps connectivity failures, timeouts and any
	// other error reported by the underlying store.
	ErrStoreUnavailable = errors.New("credential store unavailable")
)

// unavailable wraps err so that errors.Is(err, ErrStoreUnavailable) holds
// while the driver error stays reachable for logging.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

// withTimeout bounds a single store call. A zero timeout leaves ctx as is.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
