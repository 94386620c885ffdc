package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/foundryhq/foundry/internal/plan"
	"github.com/foundryhq/foundry/internal/tracker"
)

var planCmd = &cobra.Command{
	Use:   "plan <spec>",
	Short: "Preview the sync operations for a spec without applying them",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		engine, err := newEngine(nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		p, parent, err := engine.Plan(context.Background(), args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		printPlan(args[0], tracker.ExternalRef(parent), p)
	},
}

func printPlan(slug, parent string, p plan.Plan) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Printf("\n%s %s → %s\n\n", cyan("Plan:"), slug, parent)

	if p.Empty() {
		fmt.Println("Nothing to do; the tracker matches the checklist.")
	}
	for _, c := range p.ToCreate {
		state := " "
		if c.Completed {
			state = "x"
		}
		fmt.Printf("  + create  [%s] %s %s\n", state, c.Title, gray("("+c.TaskKey+")"))
	}
	for _, u := range p.ToUpdate {
		fmt.Printf("  ~ retitle %s → %q\n", u.ID, u.Title)
	}
	for _, id := range p.ToReopen {
		fmt.Printf("  ^ reopen  %s\n", id)
	}
	for _, id := range p.ToComplete {
		fmt.Printf("  ✓ complete %s\n", id)
	}
	for _, id := range p.ToClose {
		fmt.Printf("  - close   %s\n", id)
	}
	for _, d := range p.Diagnostics {
		fmt.Printf("  %s %s\n", yellow("⚠"), d)
	}
	fmt.Println()
}

func init() {
	rootCmd.AddCommand(planCmd)
}
