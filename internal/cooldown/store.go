package cooldown

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable wraps backend failures from the Redis store.
var ErrUnavailable = errors.New("cooldown store unavailable")

// Store records request timestamps per identifier key.
//
// Mark attempts to start a new window for key. When no window is active it
// records one of the given length and returns 0. When a window is already
// active it leaves state untouched and returns the remaining wait.
type Store interface {
	Mark(ctx context.Context, key string, window time.Duration) (time.Duration, error)
	Clear(ctx context.Context, key string) error
}
