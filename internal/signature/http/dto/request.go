// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/allisson/signatures/internal/validation"
)

// CreateSignatureRequestRequest contains the parameters for creating a signature request.
type CreateSignatureRequestRequest struct {
	CustomerID  string  `json:"customer_id"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	MerchantID  string  `json:"merchant_id"`
	OrderID     string  `json:"order_id"`
	Description string  `json:"description"`
}

// Validate checks if the create signature request is valid.
func (r *CreateSignatureRequestRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.CustomerID, validation.Required, customValidation.NotBlank),
		validation.Field(&r.Amount, validation.Required, validation.Min(0.01)),
		validation.Field(&r.Currency, validation.Required, customValidation.CurrencyCode),
		validation.Field(&r.MerchantID, validation.Required, customValidation.NotBlank),
		validation.Field(&r.OrderID, validation.Required, customValidation.NotBlank),
		validation.Field(&r.Description, validation.Length(0, 500)),
	)
}

// CompleteSignatureRequest contains the parameters for completing a signature.
type CompleteSignatureRequest struct {
	ChallengeID string `json:"challenge_id"`
	Code        string `json:"code"`
}

// Validate checks if the complete signature request is valid.
func (r *CompleteSignatureRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ChallengeID, validation.Required, customValidation.NotBlank),
		validation.Field(&r.Code, validation.Required, validation.Length(4, 12)),
	)
}

// AbortSignatureRequest contains the parameters for aborting a signature request.
type AbortSignatureRequest struct {
	Reason  string `json:"reason"`
	Details string `json:"details"`
}

// Validate checks if the abort signature request is valid.
func (r *AbortSignatureRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Reason, validation.Required, customValidation.NotBlank),
		validation.Field(&r.Details, validation.Length(0, 500)),
	)
}
