// Command foundry manages project specifications and synchronizes their
// task checklists into Linear as sub-issues.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/foundryhq/foundry/internal/config"
	"github.com/foundryhq/foundry/internal/history"
	"github.com/foundryhq/foundry/internal/project"
	"github.com/foundryhq/foundry/internal/sync"
	"github.com/foundryhq/foundry/internal/tracker"
	"github.com/foundryhq/foundry/internal/tracker/linear"
)

// Version is stamped at build time via ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "foundry",
	Short: "Specification management and Linear task sync for AI coding assistants",
	Long: `Foundry stores project specifications under .foundry/ and mirrors each
specification's Markdown task checklist into Linear as sub-issues under a
parent issue. Syncs are idempotent and never touch issues foundry does not
own.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := config.LoadDotenv(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: loading .env: %v\n", err)
		}
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// store returns the project store for the current invocation.
func store() *project.Store {
	return project.NewStore(config.Root())
}

// mustStore exits with a hint when the project was never initialized.
func mustStore() *project.Store {
	s := store()
	if !s.Initialized() {
		fmt.Fprintf(os.Stderr, "Error: no foundry project here; run `foundry init <name>` first\n")
		os.Exit(1)
	}
	return s
}

// newEngine wires a sync engine against the real Linear adapter. The
// history store is optional: failure to open it degrades to no recording.
func newEngine(logf func(string, ...any)) (*sync.Engine, error) {
	s := mustStore()

	cfg, err := linear.ConfigFromEnv()
	if err != nil {
		return nil, err
	}

	var hist *history.Store
	if h, err := history.Open(filepath.Join(s.Root(), "history.db")); err == nil {
		hist = h
	} else {
		fmt.Fprintf(os.Stderr, "Warning: sync history disabled: %v\n", err)
	}

	var trk tracker.Tracker = linear.New(cfg)
	return &sync.Engine{
		Store:   s,
		Tracker: trk,
		History: hist,
		Logf:    logf,
	}, nil
}
