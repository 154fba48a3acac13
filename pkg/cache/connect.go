package cache

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// ErrUnavailable is returned when a remote backend cannot be reached.
var ErrUnavailable = errors.New("cache backend unavailable")

const connectAttempts = 3

// connectDelay is the pause after the first failed ping; it doubles after
// each further failure.
var connectDelay = 500 * time.Millisecond

// ping calls check until it succeeds, fails with a non-network error, or
// connectAttempts run out. Failures are wrapped with ErrUnavailable.
func ping(ctx context.Context, backend string, check func(context.Context) error) error {
	delay := connectDelay
	for attempt := 1; ; attempt++ {
		err := check(ctx)
		if err == nil {
			return nil
		}
		if attempt == connectAttempts || !transient(err) {
			return fmt.Errorf("%w: %s: %w", ErrUnavailable, backend, err)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s: %w", ErrUnavailable, backend, ctx.Err())
		case <-time.After(delay):
			delay *= 2
		}
	}
}

// transient reports whether err looks like a network failure that a later
// attempt could get past. Authentication and protocol errors are final.
func transient(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded)
}
