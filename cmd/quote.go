package cmd

import (
	"github.com/spf13/cobra"

	"sol-swap/pkg/swap"
)

var quoteSlippageBps int

var quoteCmd = &cobra.Command{
	Use:   "quote <amount> <source-token> to <dest-token>",
	Short: "Show a swap quote without executing it",
	Long: `Fetch a single quote from the Jupiter aggregator and print it.

Examples:
  sol-swap quote 1 SOL to USDC
  sol-swap quote 100 USDC to BONK --slippage 200 --json`,
	Args: cobra.MinimumNArgs(1),
	Run:  runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)
	quoteCmd.Flags().IntVar(&quoteSlippageBps, "slippage", -1, "Slippage tolerance in basis points (default from config)")
}

func runQuote(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	jsonOutput, _ := cmd.Flags().GetBool("json")
	a := mustApp()

	ti, err := resolveIntent(ctx, a, args, quoteSlippageBps)
	if err != nil {
		fail(err)
	}
	quote, err := fetchQuote(ctx, a, ti, jsonOutput)
	if err != nil {
		fail(err)
	}

	display := swap.Display(quote, ti.InputToken, ti.OutputToken)
	if jsonOutput {
		printJSON(map[string]any{"display": display, "quote": quote})
		return
	}
	displayQuote(display)
}
