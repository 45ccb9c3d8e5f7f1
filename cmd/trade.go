package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"sol-swap/pkg/intent"
	"sol-swap/pkg/scheduler"
	"sol-swap/pkg/signer"
	"sol-swap/pkg/swap"
	"sol-swap/pkg/types"
)

var tradeCmd = &cobra.Command{
	Use:   "trade [source-token] [dest-token]",
	Short: "Interactive trading session with live quotes",
	Long: `Start an interactive session. Type an amount and a quote is fetched once
you stop typing; swap executes the current quote.

Commands:
  <amount> | amount <amount>   set the amount to sell
  pair <from> <to>             choose the token pair
  flip                         exchange the two tokens
  slippage <bps>               set slippage tolerance
  max | half                   use all or half of your balance
  refresh                      re-quote now
  swap                         execute the current quote
  dismiss                      clear a finished swap
  balance                      show wallet balances
  quit

Examples:
  sol-swap trade
  sol-swap trade SOL BONK`,
	Args: cobra.MaximumNArgs(2),
}

func init() {
	// Assigned here to break the tradeCmd -> runTrade -> handle -> tradeCmd initialization cycle.
	tradeCmd.Run = runTrade
	rootCmd.AddCommand(tradeCmd)
}

type tradeUI struct {
	a       *app
	sg      signer.Signer
	session *swap.Session
	sched   *scheduler.Scheduler
}

func runTrade(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	a := mustApp()

	from, to := "SOL", "USDC"
	if len(args) > 0 {
		from = args[0]
	}
	if len(args) > 1 {
		to = args[1]
	}
	in, err := a.resolver.Resolve(ctx, from)
	if err != nil {
		fail(err)
	}
	out, err := a.resolver.Resolve(ctx, to)
	if err != nil {
		fail(err)
	}

	sg, err := a.connectSigner(ctx)
	if err != nil {
		printWarning(swap.FailureMessage(err) + " (quotes only)")
	}

	ui := &tradeUI{a: a, sg: sg}
	ui.sched = scheduler.New(a.jupiter, scheduler.Options{
		Delay:    a.cfg.DebounceDelay,
		OnUpdate: ui.onQuote,
		Logger:   a.log,
	})

	opts := swap.SessionOptions{
		Scheduler: ui.sched,
		Executor:  a.executor(func(st swap.State, _ error) { printState(st) }),
		Balances:  a.chain,
	}
	if sg != nil {
		opts.Signer = sg
		owner := sg.PublicKey()
		opts.Reconciler = a.reconciler(a.openJournal(), func(ctx context.Context) {
			ti := ui.session.Intent()
			bals := a.balances(ctx, owner, ti.InputToken, ti.OutputToken)
			for sym, b := range bals {
				fmt.Printf("  %s balance: %s\n", sym, b)
			}
		})
	} else {
		opts.Reconciler = a.reconciler(nil, nil)
	}

	ui.session = swap.NewSession(types.TradeIntent{
		InputToken:  in,
		OutputToken: out,
		SlippageBps: a.cfg.DefaultSlippageBps,
	}, opts)
	defer ui.session.Close()

	color.Green("Trading %s → %s (slippage %s%%). Type 'help' for commands.", in.Symbol, out.Symbol,
		strconv.FormatFloat(float64(a.cfg.DefaultSlippageBps)/100, 'f', -1, 64))

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		if quit := ui.handle(ctx, strings.Fields(scanner.Text())); quit {
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// onQuote prints scheduler updates as they arrive.
func (ui *tradeUI) onQuote(st scheduler.State) {
	switch {
	case st.Loading:
		fmt.Println(color.HiBlackString("fetching quote..."))
	case st.Err != nil:
		fmt.Println(color.RedString("quote error: %s", swap.FailureMessage(st.Err)))
	case st.Quote != nil:
		d := swap.Display(st.Quote, st.Intent.InputToken, st.Intent.OutputToken)
		line := fmt.Sprintf("%s  |  %s  |  impact %s  |  min %s", d.Summary, d.Rate, d.PriceImpact, d.MinReceived)
		if d.HighImpact {
			line = color.RedString(line + "  (high price impact)")
		}
		fmt.Println(line)
	}
}

func (ui *tradeUI) handle(ctx context.Context, fields []string) bool {
	if len(fields) == 0 {
		return false
	}
	cmd := strings.ToLower(fields[0])
	arg := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}

	switch cmd {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		fmt.Println(tradeCmd.Long)
	case "amount":
		ui.setAmount(arg(1))
	case "pair":
		ui.setPair(ctx, arg(1), arg(2))
	case "flip":
		ui.session.Flip()
	case "slippage":
		bps, err := strconv.Atoi(arg(1))
		if err != nil {
			printError(fmt.Errorf("slippage must be an integer number of basis points"))
			return false
		}
		if err := ui.session.SetSlippage(bps); err != nil {
			printError(err)
		}
	case "max", "half":
		pick := ui.session.Max
		if cmd == "half" {
			pick = ui.session.Half
		}
		amount, err := pick(ctx)
		if err != nil {
			printError(err)
			return false
		}
		fmt.Printf("amount set to %s\n", amount)
	case "refresh":
		ui.sched.Refresh()
	case "balance":
		ui.showBalances(ctx)
	case "swap":
		ui.swap(ctx)
	case "dismiss":
		ui.session.Dismiss()
	default:
		if _, ok := intent.Validate(cmd); ok {
			ui.setAmount(cmd)
			return false
		}
		printError(fmt.Errorf("unknown command %q, type 'help'", cmd))
	}
	return false
}

// setAmount leaves validation errors to the scheduler update.
func (ui *tradeUI) setAmount(text string) {
	ui.session.SetAmount(text)
}

func (ui *tradeUI) setPair(ctx context.Context, from, to string) {
	if from == "" || to == "" {
		printError(fmt.Errorf("usage: pair <from> <to>"))
		return
	}
	in, err := ui.a.resolver.Resolve(ctx, from)
	if err != nil {
		printError(err)
		return
	}
	out, err := ui.a.resolver.Resolve(ctx, to)
	if err != nil {
		printError(err)
		return
	}
	ui.session.SetPair(in, out)
}

func (ui *tradeUI) showBalances(ctx context.Context) {
	if ui.sg == nil {
		printError(fmt.Errorf("no wallet connected"))
		return
	}
	ti := ui.session.Intent()
	for sym, b := range ui.a.balances(ctx, ui.sg.PublicKey(), ti.InputToken, ti.OutputToken) {
		fmt.Printf("  %-8s %s\n", sym, b)
	}
}

func (ui *tradeUI) swap(ctx context.Context) {
	if !ui.session.CanSwap() {
		st := ui.session.Quote()
		switch {
		case st.Loading:
			printError(fmt.Errorf("quote is still loading"))
			return
		case st.Err != nil:
			printError(st.Err)
			return
		}
	}
	printOutcome(ui.session.Swap(ctx))
}
