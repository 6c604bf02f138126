package domain

import (
	"github.com/allisson/signatures/internal/errors"
)

var (
	// ErrRuleNotFound indicates the routing rule does not exist.
	ErrRuleNotFound = errors.Wrap(errors.ErrNotFound, "routing rule not found")

	// ErrRuleNameEmpty indicates a rule without a name.
	ErrRuleNameEmpty = errors.Wrap(errors.ErrInvalidInput, "rule name cannot be empty")

	// ErrRuleConditionEmpty indicates a rule without a condition.
	ErrRuleConditionEmpty = errors.Wrap(errors.ErrInvalidInput, "rule condition cannot be empty")

	// ErrConditionSyntax indicates the condition does not parse under the
	// whitelisted routing grammar.
	ErrConditionSyntax = errors.Wrap(errors.ErrInvalidInput, "invalid condition syntax")
)
