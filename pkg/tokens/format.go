package tokens

import (
	"github.com/shopspring/decimal"
)

// NativeFeeReserve is kept back from a MAX SOL amount to pay fees.
var NativeFeeReserve = decimal.RequireFromString("0.01")

// FromRaw converts integer base units to a token amount.
func FromRaw(raw string, decimals int32) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, err
	}
	return d.Shift(-decimals), nil
}

// FormatRaw renders raw base units as a plain decimal, e.g. "100" for
// 100000000 with 6 decimals.
func FormatRaw(raw string, decimals int32) string {
	d, err := FromRaw(raw, decimals)
	if err != nil {
		return raw
	}
	return d.String()
}

// FormatAmount renders d with a fixed number of places, truncating.
func FormatAmount(d decimal.Decimal, places int32) string {
	return d.Truncate(places).StringFixed(places)
}

// FormatRawFixed renders raw base units with a fixed number of places.
func FormatRawFixed(raw string, decimals, places int32) string {
	d, err := FromRaw(raw, decimals)
	if err != nil {
		return raw
	}
	return FormatAmount(d, places)
}

// SlippagePercent renders basis points as a percentage: 50 -> "0.5".
func SlippagePercent(bps int) string {
	return decimal.NewFromInt(int64(bps)).Shift(-2).String()
}

// MaxSpendable is the largest amount of the token that can be spent from
// balance. SOL keeps NativeFeeReserve aside.
func MaxSpendable(balance decimal.Decimal, native bool) decimal.Decimal {
	if native {
		balance = balance.Sub(NativeFeeReserve)
	}
	if balance.IsNegative() {
		return decimal.Zero
	}
	return balance
}

// Half returns half of the spendable balance, truncated to decimals.
func Half(balance decimal.Decimal, native bool, decimals int32) decimal.Decimal {
	return MaxSpendable(balance, native).Div(decimal.NewFromInt(2)).Truncate(decimals)
}
