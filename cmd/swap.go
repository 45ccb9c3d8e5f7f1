package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"sol-swap/pkg/intent"
	"sol-swap/pkg/swap"
	"sol-swap/pkg/types"
)

var (
	slippageBps int
	noConfirm   bool
)

var swapCmd = &cobra.Command{
	Use:   "swap <amount> <source-token> to <dest-token>",
	Short: "Quote and execute a token swap",
	Long: `Quote a swap through the Jupiter aggregator, show the route and price
impact, then sign and submit it with the configured wallet.

Tokens may be symbols from the built-in list (SOL, USDC, USDT, BONK), any
symbol the token search can find, or a mint address.

Examples:
  sol-swap swap 1 SOL to USDC
  sol-swap swap 0.25 SOL to BONK --slippage 100
  sol-swap swap 10 USDC to SOL --yes`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSwap,
}

func init() {
	rootCmd.AddCommand(swapCmd)

	swapCmd.Flags().IntVar(&slippageBps, "slippage", -1, "Slippage tolerance in basis points (default from config)")
	swapCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompt")
}

// resolveIntent parses "<amount> <token> to <token>" into a checked intent.
func resolveIntent(ctx context.Context, a *app, args []string, bps int) (types.TradeIntent, error) {
	req, err := intent.ParseSwapCommand(strings.Join(args, " "))
	if err != nil {
		return types.TradeIntent{}, err
	}
	in, err := a.resolver.Resolve(ctx, req.SourceToken)
	if err != nil {
		return types.TradeIntent{}, err
	}
	out, err := a.resolver.Resolve(ctx, req.DestToken)
	if err != nil {
		return types.TradeIntent{}, err
	}
	if bps < 0 {
		bps = a.cfg.DefaultSlippageBps
	}
	ti := types.TradeIntent{InputToken: in, OutputToken: out, Amount: req.Amount, SlippageBps: bps}
	if _, err := intent.Check(ti); err != nil {
		return types.TradeIntent{}, err
	}
	return ti, nil
}

func fetchQuote(ctx context.Context, a *app, ti types.TradeIntent, jsonOutput bool) (*types.Quote, error) {
	s := newSpinner("Fetching quote...", !jsonOutput)
	quote, err := a.jupiter.GetQuote(ctx, ti.InputToken, ti.OutputToken, ti.Amount, ti.SlippageBps)
	s.Stop()
	return quote, err
}

func runSwap(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	jsonOutput, _ := cmd.Flags().GetBool("json")
	verbose, _ := cmd.Flags().GetBool("verbose")
	a := mustApp()

	ti, err := resolveIntent(ctx, a, args, slippageBps)
	if err != nil {
		fail(err)
	}

	sg, err := a.connectSigner(ctx)
	if err != nil {
		fail(err)
	}

	quote, err := fetchQuote(ctx, a, ti, jsonOutput)
	if err != nil {
		fail(err)
	}
	if verbose && !jsonOutput {
		raw, _ := json.MarshalIndent(quote, "", "  ")
		fmt.Printf("\nQuote received:\n%s\n", raw)
	}

	display := swap.Display(quote, ti.InputToken, ti.OutputToken)
	if !jsonOutput {
		displayQuote(display)
		fmt.Printf("  Wallet:            %s (%s)\n\n", color.CyanString(sg.PublicKey().String()), sg.Method())
	}

	if !noConfirm && !jsonOutput {
		if !confirm("Proceed with swap?") {
			fmt.Println("\nSwap cancelled.")
			os.Exit(0)
		}
	}

	exec := a.executor(func(st swap.State, _ error) {
		if !jsonOutput {
			printState(st)
		}
	})
	rec := a.reconciler(a.openJournal(), nil)

	sub, err := exec.Execute(ctx, sg, quote)
	if err != nil {
		outcome := rec.OnFailure(err)
		if jsonOutput {
			printJSON(map[string]any{"status": outcome.Status, "error": outcome.Message})
			os.Exit(1)
		}
		fail(errors.New(outcome.Message))
	}

	outcome := rec.OnSuccess(ctx, sub, ti, quote, sg.PublicKey().String())
	if jsonOutput {
		printJSON(map[string]any{
			"status":    outcome.Status,
			"signature": outcome.Signature,
			"warning":   outcome.Warning,
			"record":    outcome.Record,
			"quote":     display,
		})
		return
	}

	printOutcome(outcome)
	bals := a.balances(ctx, sg.PublicKey(), ti.InputToken, ti.OutputToken)
	if len(bals) > 0 {
		fmt.Println("Balances:")
		for _, tok := range []types.Token{ti.InputToken, ti.OutputToken} {
			if b, ok := bals[tok.Symbol]; ok {
				fmt.Printf("  %-8s %s\n", tok.Symbol, b)
			}
		}
	}
	fmt.Println("\nYou can monitor the swap status using:")
	color.Cyan("  sol-swap status %s\n", outcome.Signature)
}

func displayQuote(d types.QuoteDisplay) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                     SWAP QUOTE")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  Swap:              %s\n", color.YellowString(d.Summary))
	if d.Rate != "" {
		fmt.Printf("  Rate:              %s\n", d.Rate)
	}
	impact := d.PriceImpact
	if d.HighImpact {
		impact = color.RedString(impact + " (high price impact)")
	}
	fmt.Printf("  Price Impact:      %s\n", impact)
	fmt.Printf("  Minimum Received:  %s\n", d.MinReceived)
	fmt.Printf("  Slippage:          %s%%\n", d.Slippage)
	if d.Route != "" {
		fmt.Printf("  Route:             %s\n", d.Route)
	}
	if d.PlatformFee != "" {
		fmt.Printf("  Platform Fee:      %s\n", d.PlatformFee)
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
}

func printState(st swap.State) {
	switch st {
	case swap.StateBuilding:
		fmt.Println("Building transaction...")
	case swap.StateAwaitingSignature:
		fmt.Println("Waiting for wallet signature...")
	case swap.StateSubmitted:
		fmt.Println("Transaction submitted.")
	}
}

func printOutcome(o swap.Outcome) {
	if o.Status != swap.OutcomeSuccess {
		printError(errors.New(o.Message))
		return
	}
	color.Green("\n✓ %s", o.Message)
	if o.Warning != "" {
		printWarning(o.Warning)
	}
	fmt.Println()
}

func printJSON(v any) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}

func confirm(prompt string) bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("\n%s (y/N): ", prompt)

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
