package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/foundryhq/foundry/internal/apply"
)

// Exit codes are part of the CLI contract: 0 all operations succeeded or
// the plan was empty, 2 permanent failures occurred, 3 cancelled.
const (
	exitOK        = 0
	exitPermanent = 2
	exitCancelled = 3
)

var syncStrict bool
var syncTimeout time.Duration

var syncCmd = &cobra.Command{
	Use:   "sync <spec>",
	Short: "Reconcile a spec's checklist into Linear sub-issues",
	Long: `Compute and apply the reconciliation plan for a spec. Creates run
first and closes run last, so partial failures never destroy visible work
before its replacement exists. Re-running a successful sync is a no-op.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		logf := func(format string, a ...any) {
			fmt.Fprintf(os.Stderr, format+"\n", a...)
		}
		engine, err := newEngine(logf)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		res, err := engine.Sync(ctx, args[0], apply.Options{
			Strict:  syncStrict,
			Timeout: syncTimeout,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		printReport(res.Spec, res.Parent, res.Report)
		switch {
		case res.Report.Cancelled:
			os.Exit(exitCancelled)
		case res.Report.PermanentFailures() > 0:
			os.Exit(exitPermanent)
		default:
			os.Exit(exitOK)
		}
	},
}

func printReport(slug, parent string, r apply.Report) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	fmt.Printf("\nSynced %s → %s\n", slug, parent)
	fmt.Printf("  created %d, retitled %d, reopened %d, completed %d, closed %d\n",
		r.Created, r.Updated, r.Reopened, r.Completed, r.Closed)

	for _, f := range r.Failures {
		fmt.Printf("  %s %s %s: %s\n", red("✗"), f.Kind, f.Target, f.Message)
	}
	switch {
	case r.Cancelled:
		fmt.Printf("%s Sync cancelled; completed operations are recorded above\n", yellow("⚠"))
	case len(r.Failures) > 0:
		fmt.Printf("%s Completed with %d failure(s)\n", yellow("⚠"), len(r.Failures))
	default:
		fmt.Printf("%s Done\n", green("✓"))
	}
}

func init() {
	syncCmd.Flags().BoolVar(&syncStrict, "strict", false,
		"abort on the first permanent failure instead of continuing best-effort")
	syncCmd.Flags().DurationVar(&syncTimeout, "op-timeout", 30*time.Second,
		"per-operation tracker timeout")
	rootCmd.AddCommand(syncCmd)
}
