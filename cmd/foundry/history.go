package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/foundryhq/foundry/internal/history"
)

var historyLimit int
var historyFailures bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent sync runs",
	Run: func(cmd *cobra.Command, args []string) {
		s := mustStore()
		hist, err := history.Open(filepath.Join(s.Root(), "history.db"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: opening sync history: %v\n", err)
			os.Exit(1)
		}
		defer hist.Close()

		ctx := context.Background()
		runs, err := hist.Recent(ctx, historyLimit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(runs) == 0 {
			fmt.Println("No syncs recorded yet.")
			return
		}

		red := color.New(color.FgRed).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		for _, r := range runs {
			status := "ok"
			switch {
			case r.Cancelled:
				status = yellow("cancelled")
			case r.Failures > 0:
				status = red(fmt.Sprintf("%d failed", r.Failures))
			}
			fmt.Printf("%s  %-24s +%d ~%d ^%d ✓%d -%d  %s  (%s)\n",
				r.StartedAt.Local().Format("2006-01-02 15:04:05"),
				r.Spec, r.Created, r.Updated, r.Reopened, r.Completed, r.Closed,
				status, r.Duration.Round(time.Millisecond))

			if historyFailures && r.Failures > 0 {
				failures, err := hist.FailuresFor(ctx, r.ID)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error: %v\n", err)
					os.Exit(1)
				}
				for _, f := range failures {
					fmt.Printf("    %s %s %s: %s\n", red("✗"), f.Kind, f.Target, f.Message)
				}
			}
		}
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to show")
	historyCmd.Flags().BoolVar(&historyFailures, "failures", false, "show per-operation failures")
	rootCmd.AddCommand(historyCmd)
}
