// Package counter provides atomic increment-and-compare attempt counters.
//
// The signature use case counts wrong one-time-code submissions per
// challenge through this narrow interface, so moving from the in-memory
// store to the Redis store in multi-instance deployments changes nothing
// in the aggregate logic.
package counter

import (
	"context"
	"time"
)

// AttemptCounter tracks keyed attempt counts.
type AttemptCounter interface {
	// Increment atomically adds one to the key's counter and returns the
	// new value. The entry expires after the configured TTL.
	Increment(ctx context.Context, key string) (int64, error)

	// Reset clears the key's counter.
	Reset(ctx context.Context, key string) error
}

// DefaultTTL is the counter entry lifetime used when none is configured.
// It should match the challenge TTL: a counter outliving its challenge is
// useless, one expiring earlier would forgive wrong attempts.
const DefaultTTL = 5 * time.Minute
