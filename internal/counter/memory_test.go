package counter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCounter_Increment(t *testing.T) {
	ctx := context.Background()

	t.Run("CountsPerKey", func(t *testing.T) {
		counter := NewMemoryCounter(time.Minute)

		n, err := counter.Increment(ctx, "challenge-1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = counter.Increment(ctx, "challenge-1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		n, err = counter.Increment(ctx, "challenge-2")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("ExpiredEntryRestarts", func(t *testing.T) {
		counter := NewMemoryCounter(time.Minute)
		now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		counter.clock = func() time.Time { return now }

		n, err := counter.Increment(ctx, "challenge-1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		now = now.Add(2 * time.Minute)

		n, err = counter.Increment(ctx, "challenge-1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("ZeroTTLFallsBackToDefault", func(t *testing.T) {
		counter := NewMemoryCounter(0)
		assert.Equal(t, DefaultTTL, counter.ttl)
	})
}

func TestMemoryCounter_Reset(t *testing.T) {
	ctx := context.Background()
	counter := NewMemoryCounter(time.Minute)

	_, err := counter.Increment(ctx, "challenge-1")
	require.NoError(t, err)

	require.NoError(t, counter.Reset(ctx, "challenge-1"))

	n, err := counter.Increment(ctx, "challenge-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
