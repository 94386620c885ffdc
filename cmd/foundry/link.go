package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/foundryhq/foundry/internal/tracker"
)

var linkCmd = &cobra.Command{
	Use:   "link <spec> <parent-issue>",
	Short: "Attach a spec to its Linear parent issue",
	Long: `Record which Linear issue acts as the parent for a spec's task
sub-issues. The parent may be given as a bare issue id or as "linear:<id>".`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		slug := args[0]
		ref := tracker.ExternalRef(strings.TrimPrefix(args[1], tracker.ExternalRefPrefix))

		s := mustStore()
		if _, err := s.GetSpec(slug); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := s.SetParent(slug, ref); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Linked %s to %s\n", green("✓"), slug, ref)
	},
}

func init() {
	rootCmd.AddCommand(linkCmd)
}
