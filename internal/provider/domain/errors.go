package domain

import (
	"github.com/allisson/signatures/internal/errors"
)

var (
	// ErrUnknownChannel indicates a channel name outside the fixed registry.
	ErrUnknownChannel = errors.Wrap(errors.ErrInvalidInput, "unknown channel")

	// ErrUnknownProvider indicates a provider name outside the fixed registry.
	ErrUnknownProvider = errors.Wrap(errors.ErrInvalidInput, "unknown provider")

	// ErrCallTimeout indicates a provider call exceeded its deadline. The
	// underlying call may still finish; its result is discarded.
	ErrCallTimeout = errors.Wrap(errors.ErrUnavailable, "provider call timed out")
)
