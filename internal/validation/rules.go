// Package validation provides custom validation rules for the application.
package validation

import (
	"strings"
	"unicode"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/signatures/internal/errors"
	providerDomain "github.com/allisson/signatures/internal/provider/domain"
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// NoWhitespace validates that string doesn't contain leading/trailing whitespace
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// CurrencyCode validates a three-letter uppercase ISO 4217 currency code
var CurrencyCode = validation.NewStringRuleWithError(
	func(s string) bool {
		if len(s) != 3 {
			return false
		}
		for _, r := range s {
			if !unicode.IsUpper(r) || r > unicode.MaxASCII {
				return false
			}
		}
		return true
	},
	validation.NewError("validation_currency_code", "must be a three-letter uppercase currency code"),
)

// Channel validates a known challenge delivery channel name
var Channel = validation.NewStringRuleWithError(
	func(s string) bool {
		_, ok := providerDomain.ParseChannel(s)
		return ok
	},
	validation.NewError("validation_channel", "must be one of SMS, PUSH, VOICE, BIOMETRIC"),
)
