package swap

import (
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"sol-swap/pkg/tokens"
	"sol-swap/pkg/types"
)

const (
	amountPlaces = 4
	ratePlaces   = 6
)

var (
	minVisibleImpact = decimal.RequireFromString("0.01")
	// HighImpactPct is the price impact, in percent, above which a quote is
	// flagged.
	HighImpactPct = decimal.NewFromInt(5)
)

// Display formats q for the user. in and out must be the tokens the quote
// was requested for.
func Display(q *types.Quote, in, out types.Token) types.QuoteDisplay {
	if q == nil {
		return types.QuoteDisplay{}
	}
	inAmt, _ := tokens.FromRaw(q.InAmount, in.Decimals)
	outAmt, _ := tokens.FromRaw(q.OutAmount, out.Decimals)

	d := types.QuoteDisplay{
		SourceAmount: tokens.FormatAmount(inAmt, amountPlaces),
		SourceToken:  in.Symbol,
		DestAmount:   tokens.FormatAmount(outAmt, amountPlaces),
		DestToken:    out.Symbol,
		Slippage:     tokens.SlippagePercent(q.SlippageBps),
		MinReceived:  tokens.FormatRawFixed(q.OtherAmountThreshold, out.Decimals, amountPlaces) + " " + out.Symbol,
		Route:        RouteLabel(q),
	}
	d.Summary = d.SourceAmount + " " + in.Symbol + " → " + d.DestAmount + " " + out.Symbol

	if inAmt.IsPositive() {
		rate := outAmt.Div(inAmt)
		d.Rate = "1 " + in.Symbol + " = " + tokens.FormatAmount(rate, ratePlaces) + " " + out.Symbol
	}

	d.PriceImpact, d.HighImpact = priceImpact(q.PriceImpactPct)

	if q.PlatformFee != nil && q.PlatformFee.Amount != "" && q.PlatformFee.Amount != "0" {
		d.PlatformFee = tokens.FormatRaw(q.PlatformFee.Amount, out.Decimals) + " " + out.Symbol
	}
	return d
}

// priceImpact renders the aggregator's impact percentage.
func priceImpact(pct string) (string, bool) {
	v, err := decimal.NewFromString(strings.TrimSpace(pct))
	if err != nil {
		return "-", false
	}
	v = v.Abs()
	if v.LessThan(minVisibleImpact) {
		return "< 0.01%", false
	}
	return v.StringFixed(2) + "%", v.GreaterThan(HighImpactPct)
}

// RouteLabel joins the venue labels of q's route plan.
func RouteLabel(q *types.Quote) string {
	labels := lo.FilterMap(q.RoutePlan, func(r types.RoutePlan, _ int) (string, bool) {
		return r.SwapInfo.Label, r.SwapInfo.Label != ""
	})
	return strings.Join(labels, " → ")
}

// FeeAmount is the platform fee of q in output token units, or "0".
func FeeAmount(q *types.Quote, out types.Token) string {
	if q == nil || q.PlatformFee == nil || q.PlatformFee.Amount == "" {
		return "0"
	}
	return tokens.FormatRaw(q.PlatformFee.Amount, out.Decimals)
}
