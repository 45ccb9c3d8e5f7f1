// Package intent validates user-entered trade intents before any network
// call is made.
package intent

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"sol-swap/pkg/apperror"
	"sol-swap/pkg/types"
)

// MaxSlippageBps is 100%.
const MaxSlippageBps = 10000

// ErrEmptyAmount marks an amount that has not been entered yet. It is not
// shown to users as a failure.
var ErrEmptyAmount = errors.New("amount not entered")

var amountPattern = regexp.MustCompile(`^\d*\.?\d*$`)

// ParseAmount parses amount text as typed by the user. Only unsigned
// decimal text is accepted; the result is strictly positive.
func ParseAmount(text string) (decimal.Decimal, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return decimal.Zero, ErrEmptyAmount
	}
	if !amountPattern.MatchString(text) {
		return decimal.Zero, apperror.Validation("amount must be a positive decimal number")
	}
	amount, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, apperror.Validation("amount must be a positive decimal number")
	}
	if !amount.IsPositive() {
		return decimal.Zero, apperror.Validation("amount must be greater than zero")
	}
	return amount, nil
}

// Validate reports whether text is an actionable amount.
func Validate(text string) (decimal.Decimal, bool) {
	amount, err := ParseAmount(text)
	if err != nil {
		return decimal.Zero, false
	}
	return amount, true
}

// ToRaw converts amount into integer base units: floor(amount * 10^decimals).
func ToRaw(amount decimal.Decimal, decimals int32) (uint64, error) {
	raw := amount.Shift(decimals).Floor()
	if !raw.IsPositive() {
		return 0, apperror.Validation("amount is below the token's smallest unit")
	}
	bi := raw.BigInt()
	if !bi.IsUint64() {
		return 0, apperror.Validation("amount is too large")
	}
	return bi.Uint64(), nil
}

// Check validates a full trade intent and returns the raw input amount.
// ErrEmptyAmount is returned unchanged so callers can treat it as idle.
func Check(in types.TradeIntent) (uint64, error) {
	if in.InputToken.IsZero() || in.OutputToken.IsZero() {
		return 0, apperror.Validation("select both tokens")
	}
	if in.InputToken.Address == in.OutputToken.Address {
		return 0, apperror.Validation("input and output token must differ")
	}
	if in.SlippageBps < 0 || in.SlippageBps > MaxSlippageBps {
		return 0, apperror.Validation("slippage must be between 0 and 10000 bps")
	}
	amount, err := ParseAmount(in.Amount)
	if err != nil {
		return 0, err
	}
	return ToRaw(amount, in.InputToken.Decimals)
}

// Actionable reports whether a quote can be requested for in.
func Actionable(in types.TradeIntent) bool {
	_, err := Check(in)
	return err == nil
}
