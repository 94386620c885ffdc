package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/foundryhq/foundry/internal/installer"
)

var installCmd = &cobra.Command{
	Use:   "install [cursor|claude]",
	Short: "Register foundry as an MCP server with an AI assistant",
	Long: `Write an MCP server entry pointing at this binary into the
assistant's configuration. With no argument, installs for every supported
assistant. Existing server entries are preserved.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		execPath, err := os.Executable()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: locating foundry binary: %v\n", err)
			os.Exit(1)
		}
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: locating home directory: %v\n", err)
			os.Exit(1)
		}

		targets := installer.Targets
		if len(args) == 1 {
			targets = []installer.Target{installer.Target(args[0])}
		}

		green := color.New(color.FgGreen).SprintFunc()
		for _, target := range targets {
			path, err := installer.Install(home, target, execPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: installing for %s: %v\n", target, err)
				os.Exit(1)
			}
			fmt.Printf("%s Registered foundry for %s at %s\n", green("✓"), target, path)
		}
		fmt.Println("Restart the assistant to pick up the new server.")
	},
}

func init() {
	rootCmd.AddCommand(installCmd)
}
