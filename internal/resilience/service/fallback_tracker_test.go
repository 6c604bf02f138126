package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/signatures/internal/errors"
	providerDomain "github.com/allisson/signatures/internal/provider/domain"
	"github.com/allisson/signatures/internal/resilience/domain"
)

func TestFallbackTracker_RecordAttempt(t *testing.T) {
	t.Run("Success_WithinBudget", func(t *testing.T) {
		tracker := NewFallbackTracker(3)

		require.NoError(t, tracker.RecordAttempt(providerDomain.ProviderSMS))
		require.NoError(t, tracker.RecordAttempt(providerDomain.ProviderPush))

		assert.Equal(t, 2, tracker.AttemptCount())
		assert.True(t, tracker.HasAttempted(providerDomain.ProviderSMS))
		assert.False(t, tracker.HasAttempted(providerDomain.ProviderVoice))
	})

	t.Run("Error_DuplicateProvider", func(t *testing.T) {
		tracker := NewFallbackTracker(3)
		require.NoError(t, tracker.RecordAttempt(providerDomain.ProviderSMS))

		err := tracker.RecordAttempt(providerDomain.ProviderSMS)

		var loopErr *domain.FallbackLoopError
		require.ErrorAs(t, err, &loopErr)
		assert.Equal(t, providerDomain.ProviderSMS, loopErr.Provider)
		assert.ErrorIs(t, err, apperrors.ErrConflict)
		assert.Equal(t, 1, tracker.AttemptCount())
	})

	t.Run("Error_BudgetExhausted", func(t *testing.T) {
		tracker := NewFallbackTracker(2)
		require.NoError(t, tracker.RecordAttempt(providerDomain.ProviderSMS))
		require.NoError(t, tracker.RecordAttempt(providerDomain.ProviderPush))

		err := tracker.RecordAttempt(providerDomain.ProviderVoice)

		var loopErr *domain.FallbackLoopError
		require.ErrorAs(t, err, &loopErr)
		assert.Equal(t, "max attempts exceeded", loopErr.Reason)
		assert.Equal(t,
			[]providerDomain.ProviderType{providerDomain.ProviderSMS, providerDomain.ProviderPush},
			loopErr.Attempted)
	})

	t.Run("Error_EmptyProvider", func(t *testing.T) {
		tracker := NewFallbackTracker(3)
		assert.ErrorIs(t, tracker.RecordAttempt(""), providerDomain.ErrUnknownProvider)
	})

	t.Run("InvalidBudgetFallsBackToDefault", func(t *testing.T) {
		tracker := NewFallbackTracker(0)
		require.NoError(t, tracker.RecordAttempt(providerDomain.ProviderSMS))
		require.NoError(t, tracker.RecordAttempt(providerDomain.ProviderPush))
		require.NoError(t, tracker.RecordAttempt(providerDomain.ProviderVoice))
		assert.Error(t, tracker.RecordAttempt(providerDomain.ProviderBiometric))
	})
}

func TestFallbackTracker_Reset(t *testing.T) {
	tracker := NewFallbackTracker(2)
	require.NoError(t, tracker.RecordAttempt(providerDomain.ProviderSMS))

	tracker.Reset()

	assert.Equal(t, 0, tracker.AttemptCount())
	assert.NoError(t, tracker.RecordAttempt(providerDomain.ProviderSMS))
}

func TestNextFallbackChannel(t *testing.T) {
	assert.Equal(t, providerDomain.ChannelPush, providerDomain.NextFallbackChannel(providerDomain.ChannelSMS))
	assert.Equal(t, providerDomain.ChannelVoice, providerDomain.NextFallbackChannel(providerDomain.ChannelPush))
	assert.Equal(t, providerDomain.ChannelBiometric, providerDomain.NextFallbackChannel(providerDomain.ChannelVoice))
	// The order is circular.
	assert.Equal(t, providerDomain.ChannelSMS, providerDomain.NextFallbackChannel(providerDomain.ChannelBiometric))
}
