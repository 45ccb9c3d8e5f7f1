package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sol-swap/pkg/apperror"
	"sol-swap/pkg/journal"
	"sol-swap/pkg/types"
)

var (
	watchStatus bool
	syncStatus  bool
	settleAll   bool
)

var statusCmd = &cobra.Command{
	Use:   "status [signature]",
	Short: "Check the status of a submitted swap",
	Long: `Check the ledger status of a swap by its transaction signature.

With --sync the result is written back to the local journal and the backend
record. With --all every unsettled journal entry is checked and synced.

Examples:
  sol-swap status 5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUW
  sol-swap status <signature> --watch
  sol-swap status --all --sync`,
	Args: cobra.MaximumNArgs(1),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVarP(&watchStatus, "watch", "w", false, "Poll until the transaction settles")
	statusCmd.Flags().BoolVar(&syncStatus, "sync", false, "Write the result to the journal and backend record")
	statusCmd.Flags().BoolVar(&settleAll, "all", false, "Check every unsettled journal entry")
}

func runStatus(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	jsonOutput, _ := cmd.Flags().GetBool("json")
	a := mustApp()

	if settleAll {
		settleJournal(ctx, a, jsonOutput)
		return
	}
	if len(args) == 0 {
		fail(apperror.Validation("a transaction signature is required (or use --all)"))
	}
	signature := args[0]

	var (
		st  types.SignatureStatus
		err error
	)
	if watchStatus {
		if !jsonOutput {
			fmt.Printf("\nWatching transaction %s\n", color.CyanString(signature))
			fmt.Println("Press Ctrl+C to stop.")
		}
		st, err = a.confirmer().Watch(ctx, signature, func(s types.SignatureStatus) {
			if !jsonOutput && s.Status == types.StatusPending {
				fmt.Printf("  %s  %s\n", getColoredStatus(s.Status), color.HiBlackString(commitmentOf(s)))
			}
		})
	} else {
		st, err = a.confirmer().Check(ctx, signature)
	}
	if err != nil {
		fail(err)
	}

	if syncStatus {
		if j := a.openJournal(); j != nil {
			if err := syncRecord(ctx, a, j, st); err != nil {
				printWarning(apperror.UserMessage(err))
			}
		}
	}

	if jsonOutput {
		printJSON(st)
		return
	}
	displayStatus(st)
}

// settleJournal checks and syncs every unsettled journal entry.
func settleJournal(ctx context.Context, a *app, jsonOutput bool) {
	j := a.openJournal()
	if j == nil {
		fail(apperror.New(apperror.CodeConfigurationError, apperror.WithMessage("journal is unavailable")))
	}
	pending := j.Unsettled()
	if len(pending) == 0 {
		if !jsonOutput {
			fmt.Println("\nNothing to settle.")
		}
		return
	}

	sigs := make([]string, len(pending))
	for i, e := range pending {
		sigs[i] = e.Signature
	}
	statuses, err := a.chain.SignatureStatuses(ctx, sigs...)
	if err != nil {
		fail(err)
	}

	failures := 0
	for _, st := range statuses {
		if err := syncRecord(ctx, a, j, st); err != nil {
			failures++
			a.log.Warn("record sync failed", zap.String("signature", st.Signature), zap.Error(err))
		}
		if !jsonOutput {
			fmt.Printf("  %s  %s\n", getColoredStatus(st.Status), st.Signature)
		}
	}
	if jsonOutput {
		printJSON(statuses)
		return
	}
	if failures > 0 {
		printWarning(fmt.Sprintf("%d of %d records could not be synced to the backend", failures, len(statuses)))
		os.Exit(1)
	}
	printSuccess(fmt.Sprintf("Settled %d journal entries", len(statuses)))
}

// syncRecord writes st to the journal and the backend. An entry that never
// reached the backend is created; otherwise its status is updated.
func syncRecord(ctx context.Context, a *app, j *journal.Journal, st types.SignatureStatus) error {
	entry, err := j.Get(st.Signature)
	if err != nil {
		return err
	}
	if err := j.SetStatus(st.Signature, st.Status); err != nil {
		return err
	}

	if !entry.Persisted {
		rec := entry.Record
		rec.Status = st.Status
		created, err := a.backend.Create(ctx, rec)
		if err != nil {
			return err
		}
		return j.MarkPersisted(st.Signature, created.ID)
	}
	if st.Status == types.StatusPending {
		return nil
	}
	_, err = a.backend.Update(ctx, entry.RecordID, types.TransactionUpdate{Status: st.Status})
	return err
}

func displayStatus(st types.SignatureStatus) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                     TRANSACTION STATUS")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  Signature:     %s\n", color.CyanString(st.Signature))
	fmt.Printf("  Status:        %s\n", getColoredStatus(st.Status))
	if c := commitmentOf(st); c != "" {
		fmt.Printf("  Commitment:    %s\n", c)
	}
	if st.Slot > 0 {
		fmt.Printf("  Slot:          %d\n", st.Slot)
	}
	if st.Err != "" {
		fmt.Printf("  Error:         %s\n", color.RedString(st.Err))
	}
	fmt.Println("\n" + strings.Repeat("=", 60))
}

func commitmentOf(st types.SignatureStatus) string {
	if st.Commitment == "" {
		return ""
	}
	if st.Confirmations != nil {
		return fmt.Sprintf("%s (%d confirmations)", st.Commitment, *st.Confirmations)
	}
	return st.Commitment
}

func getColoredStatus(status types.TransactionStatus) string {
	switch status {
	case types.StatusCompleted:
		return color.GreenString(string(status))
	case types.StatusPending:
		return color.YellowString(string(status))
	case types.StatusFailed:
		return color.RedString(string(status))
	default:
		return string(status)
	}
}
