package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"sol-swap/pkg/types"
)

var (
	filterSymbol string
	searchQuery  string
)

var tokensCmd = &cobra.Command{
	Use:     "list-tokens",
	Aliases: []string{"tokens", "ls"},
	Short:   "List known tokens",
	Long: `List the tokens in the built-in registry for the configured network, or
search the token list service by symbol, name or mint address.

Examples:
  sol-swap list-tokens
  sol-swap list-tokens --symbol USD
  sol-swap list-tokens --search bonk`,
	Run: runListTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)

	tokensCmd.Flags().StringVar(&filterSymbol, "symbol", "", "Filter registry tokens by symbol or name")
	tokensCmd.Flags().StringVar(&searchQuery, "search", "", "Search the token list service")
}

func runListTokens(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	a := mustApp()

	var list []types.Token
	if searchQuery != "" {
		s := newSpinner("Searching tokens...", !jsonOutput)
		found, err := a.resolver.Searcher.Search(cmd.Context(), searchQuery)
		s.Stop()
		if err != nil {
			fail(err)
		}
		list = found
	} else if filterSymbol != "" {
		list = a.registry.Filter(filterSymbol)
	} else {
		list = a.registry.All()
	}

	if jsonOutput {
		printJSON(list)
		return
	}
	displayTokens(list, a.cfg.Network)
}

func displayTokens(list []types.Token, network string) {
	if len(list) == 0 {
		fmt.Println("\nNo tokens found matching the criteria.")
		return
	}

	sort.SliceStable(list, func(i, j int) bool { return list[i].Symbol < list[j].Symbol })

	fmt.Println("\n" + strings.Repeat("=", 90))
	color.Green("                         TOKENS (%s)", strings.ToUpper(network))
	fmt.Println(strings.Repeat("=", 90))

	for _, tok := range list {
		mark := " "
		if tok.Verified {
			mark = color.GreenString("✓")
		}
		fmt.Printf("  %s %-10s  %2d decimals  %-20s %s\n",
			mark,
			color.YellowString(tok.Symbol),
			tok.Decimals,
			truncate(tok.Name, 20),
			color.HiBlackString(tok.Address))
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	fmt.Printf("\nTotal: %d tokens\n\n", len(list))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
