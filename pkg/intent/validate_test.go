package intent

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sol-swap/pkg/apperror"
	"sol-swap/pkg/types"
)

var (
	sol  = types.Token{Symbol: "SOL", Address: "So11111111111111111111111111111111111111112", Decimals: 9}
	usdc = types.Token{Symbol: "USDC", Address: "4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU", Decimals: 6}
)

func TestValidateRejects(t *testing.T) {
	for _, text := range []string{"-1", "abc", "1e5", "1.2.3", "0", "0.000", ".", "NaN", "Inf", "1,5", " - "} {
		t.Run(text, func(t *testing.T) {
			_, ok := Validate(text)
			assert.False(t, ok)
		})
	}
}

func TestValidateAccepts(t *testing.T) {
	cases := map[string]string{
		"1":       "1",
		"1.0":     "1",
		"1.":      "1",
		".5":      "0.5",
		"0.00001": "0.00001",
	}
	for text, want := range cases {
		amount, ok := Validate(text)
		require.True(t, ok, text)
		assert.True(t, amount.Equal(decimal.RequireFromString(want)), text)
	}
}

func TestEmptyAmountIsNotAnError(t *testing.T) {
	_, err := ParseAmount("")
	assert.True(t, errors.Is(err, ErrEmptyAmount))
	assert.False(t, apperror.HasCode(err, apperror.CodeValidationError))
}

func TestToRawFloors(t *testing.T) {
	raw, err := ToRaw(decimal.RequireFromString("1.0"), 9)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000_000), raw)

	raw, err = ToRaw(decimal.RequireFromString("1.2345679"), 6)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_234_567), raw)

	_, err = ToRaw(decimal.RequireFromString("0.0000001"), 6)
	assert.Error(t, err)

	_, err = ToRaw(decimal.RequireFromString("99999999999999999999"), 9)
	assert.Error(t, err)
}

func TestCheck(t *testing.T) {
	raw, err := Check(types.TradeIntent{InputToken: sol, OutputToken: usdc, Amount: "1.5", SlippageBps: 50})
	require.NoError(t, err)
	assert.Equal(t, uint64(1_500_000_000), raw)

	_, err = Check(types.TradeIntent{InputToken: sol, OutputToken: sol, Amount: "1", SlippageBps: 50})
	assert.Error(t, err)

	_, err = Check(types.TradeIntent{InputToken: sol, OutputToken: usdc, Amount: "1", SlippageBps: 10001})
	assert.Error(t, err)

	_, err = Check(types.TradeIntent{InputToken: sol, OutputToken: usdc, Amount: "", SlippageBps: 50})
	assert.ErrorIs(t, err, ErrEmptyAmount)

	assert.False(t, Actionable(types.TradeIntent{OutputToken: usdc, Amount: "1"}))
}

func TestParseSwapCommand(t *testing.T) {
	req, err := ParseSwapCommand("swap 1 SOL to USDC")
	require.NoError(t, err)
	assert.Equal(t, "1", req.Amount)
	assert.Equal(t, "SOL", req.SourceToken)
	assert.Equal(t, "USDC", req.DestToken)

	req, err = ParseSwapCommand("  0.5   usdc TO bonk ")
	require.NoError(t, err)
	assert.Equal(t, "0.5", req.Amount)
	assert.Equal(t, "usdc", req.SourceToken)
	assert.Equal(t, "bonk", req.DestToken)

	_, err = ParseSwapCommand("swap SOL to USDC")
	assert.Error(t, err)
	_, err = ParseSwapCommand("-1 SOL to USDC")
	assert.Error(t, err)
}
