package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var specCmd = &cobra.Command{
	Use:   "spec",
	Short: "Manage specification documents",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var specNewCmd = &cobra.Command{
	Use:   "new <title>",
	Short: "Create a new specification",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		title := strings.Join(args, " ")
		sp, err := mustStore().CreateSpec(title)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Created spec %q (slug %s)\n", green("✓"), sp.Title, sp.Slug)
	},
}

var specListCmd = &cobra.Command{
	Use:   "list",
	Short: "List specifications and their parent issues",
	Run: func(cmd *cobra.Command, args []string) {
		s := mustStore()
		slugs, err := s.ListSpecs()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(slugs) == 0 {
			fmt.Println("No specs yet. Create one with `foundry spec new <title>`.")
			return
		}

		proj, err := s.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		gray := color.New(color.FgHiBlack).SprintFunc()
		for _, slug := range slugs {
			parent := proj.Parents[slug]
			if parent == "" {
				parent = gray("(not linked)")
			}
			fmt.Printf("%-40s %s\n", slug, parent)
		}
	},
}

func init() {
	specCmd.AddCommand(specNewCmd)
	specCmd.AddCommand(specListCmd)
	rootCmd.AddCommand(specCmd)
}
