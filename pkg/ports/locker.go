package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a previously acquired lock.
type UnlockFunc func(ctx context.Context) error

// Locker defines the interface for distributed mutual exclusion.
// Implementations must guarantee that the lock auto-expires after ttl,
// so a crashed holder cannot wedge the system.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
