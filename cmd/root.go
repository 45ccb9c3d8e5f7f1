package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"sol-swap/config"
	"sol-swap/pkg/apperror"
	"sol-swap/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "sol-swap",
	Short: "A CLI for Solana token swaps through the Jupiter aggregator",
	Long: `sol-swap quotes and executes Solana token swaps through the Jupiter
aggregator, signs them with your configured wallet and keeps a record of every
submitted swap.

Examples:
  sol-swap swap 1 SOL to USDC
  sol-swap quote 0.5 SOL to BONK --slippage 100
  sol-swap trade
  sol-swap list-tokens --search jup
  sol-swap status <signature> --watch
  sol-swap history mine`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		level := cfg.LogLevel
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			level = "debug"
		}
		return logger.Init(cfg.Env, level)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

// Execute runs the root command
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

func printError(err error) {
	msg := apperror.UserMessage(err)
	if code := apperror.GetCode(err); code != apperror.CodeUnknownError {
		fmt.Fprintf(os.Stderr, "\n%s %s\n\n", color.RedString("Error:"), msg)
		return
	}
	fmt.Fprintf(os.Stderr, "\n%s %v\n\n", color.RedString("Error:"), err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", color.GreenString(message))
}

func printWarning(message string) {
	fmt.Printf("%s\n", color.YellowString("Warning: "+message))
}

// fail prints err and exits with a non-zero status.
func fail(err error) {
	printError(err)
	os.Exit(1)
}
