// Package locking provides mutual exclusion keyed by string, used to serialize
// reservation admission per (tenant, date).
package locking

import (
	"context"
	"errors"
)

// ErrLockTimeout is returned when a lock could not be acquired before the
// wait bound or the caller's context expired.
var ErrLockTimeout = errors.New("lock wait timed out")

// Unlock releases a held lock. It is safe to call more than once.
type Unlock func()

// KeyedLocker grants exclusive access per key. Holders of different keys
// never block each other.
type KeyedLocker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}
