package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"sol-swap/pkg/apperror"
	"sol-swap/pkg/types"
)

var historyWallet string

var historyCmd = &cobra.Command{
	Use:     "history",
	Aliases: []string{"txs"},
	Short:   "Show swap history",
	Long: `Show swap records from the backend or the local journal.

Examples:
  sol-swap history recent --wallet <address>
  sol-swap history mine
  sol-swap history get <record-id>
  sol-swap history local`,
}

var historyRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show the latest public swaps, optionally for one wallet",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a := mustApp()
		recs, err := a.backend.ListRecent(cmd.Context(), historyWallet)
		if err != nil {
			fail(err)
		}
		printRecords(cmd, "RECENT SWAPS", recs)
	},
}

var historyMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Show swaps for the wallet linked to your profile (requires login)",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a := mustApp()
		recs, err := a.backend.ListForWallet(cmd.Context())
		if err != nil {
			fail(err)
		}
		printRecords(cmd, "YOUR SWAPS", recs)
	},
}

var historyGetCmd = &cobra.Command{
	Use:   "get <record-id>",
	Short: "Show one swap record",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := mustApp()
		rec, err := a.backend.Get(cmd.Context(), args[0])
		if err != nil {
			fail(err)
		}
		printRecords(cmd, "SWAP RECORD", []types.TransactionRecord{*rec})
	},
}

var historyLocalCmd = &cobra.Command{
	Use:   "local",
	Short: "Show swaps recorded in the local journal",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		jsonOutput, _ := cmd.Flags().GetBool("json")
		a := mustApp()
		j := a.openJournal()
		if j == nil {
			fail(apperror.New(apperror.CodeConfigurationError, apperror.WithMessage("journal is unavailable")))
		}
		entries := j.List()
		if jsonOutput {
			printJSON(entries)
			return
		}
		if len(entries) == 0 {
			fmt.Printf("\nNo swaps in %s\n", j.Path())
			return
		}
		fmt.Println("\n" + strings.Repeat("=", 90))
		color.Green("                              LOCAL JOURNAL")
		fmt.Println(strings.Repeat("=", 90))
		for _, e := range entries {
			saved := color.GreenString("saved")
			if !e.Persisted {
				saved = color.YellowString("unsaved")
			}
			fmt.Printf("\n  %s  %s  %s\n", e.CreatedAt.Local().Format("2006-01-02 15:04:05"), getColoredStatus(e.Status), saved)
			fmt.Printf("    %s %s → %s %s\n", e.Record.FromAmount, e.Record.FromToken, e.Record.ToAmount, e.Record.ToToken)
			fmt.Printf("    %s\n", color.HiBlackString(e.Signature))
		}
		fmt.Println("\n" + strings.Repeat("=", 90))
		fmt.Printf("\nJournal: %s\n\n", j.Path())
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyRecentCmd, historyMineCmd, historyGetCmd, historyLocalCmd)

	historyRecentCmd.Flags().StringVar(&historyWallet, "wallet", "", "Only show swaps for this wallet")
}

func printRecords(cmd *cobra.Command, title string, recs []types.TransactionRecord) {
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		printJSON(recs)
		return
	}
	if len(recs) == 0 {
		fmt.Println("\nNo swaps found.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	color.Green("                              %s", title)
	fmt.Println(strings.Repeat("=", 90))
	for _, r := range recs {
		when := ""
		if r.CreatedAt != nil {
			when = r.CreatedAt.Local().Format("2006-01-02 15:04:05")
		}
		status := ""
		if r.Status != "" {
			status = getColoredStatus(r.Status)
		}
		fmt.Printf("\n  %s  %s\n", when, status)
		fmt.Printf("    %s %s → %s %s\n", r.FromAmount, r.FromToken, r.ToAmount, r.ToToken)
		fmt.Printf("    wallet %s\n", color.HiBlackString(r.WalletAddress))
		if r.TxHash != "" {
			fmt.Printf("    tx     %s\n", color.HiBlackString(r.TxHash))
		}
		if r.ID != "" {
			fmt.Printf("    id     %s\n", color.HiBlackString(r.ID))
		}
	}
	fmt.Println("\n" + strings.Repeat("=", 90))
	fmt.Printf("\nTotal: %d\n\n", len(recs))
}
