package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
)

// TransactionContext carries the transaction attributes a customer approves.
// Routing rules are evaluated against these fields.
type TransactionContext struct {
	// Amount is the transaction amount in major units.
	Amount float64
	// Currency is the ISO 4217 code.
	Currency string
	// MerchantID identifies the merchant.
	MerchantID string
	// OrderID is the merchant's order reference.
	OrderID string
	// Description is shown to the customer alongside the challenge.
	Description string
	// IntegrityHash pins the context; computed once at creation.
	IntegrityHash string
}

// NewTransactionContext builds a context with its integrity hash.
func NewTransactionContext(
	amount float64,
	currency, merchantID, orderID, description string,
) TransactionContext {
	tc := TransactionContext{
		Amount:      amount,
		Currency:    currency,
		MerchantID:  merchantID,
		OrderID:     orderID,
		Description: description,
	}
	tc.IntegrityHash = tc.computeHash()
	return tc
}

// computeHash hashes the canonical field encoding.
func (t TransactionContext) computeHash() string {
	canonical := fmt.Sprintf("%s|%s|%s|%s|%s",
		strconv.FormatFloat(t.Amount, 'f', -1, 64),
		t.Currency, t.MerchantID, t.OrderID, t.Description,
	)
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// Verify reports whether the stored hash still matches the fields.
func (t TransactionContext) Verify() bool {
	return t.IntegrityHash == t.computeHash()
}
