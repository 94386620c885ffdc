package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	foundrymcp "github.com/foundryhq/foundry/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the foundry MCP server on stdio",
	Long: `Serve foundry's tools over the Model Context Protocol. Assistants
registered via 'foundry install' launch this command automatically.`,
	Run: func(cmd *cobra.Command, args []string) {
		engine, err := newEngine(func(format string, a ...any) {
			fmt.Fprintf(os.Stderr, format+"\n", a...)
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		foundrymcp.Version = Version
		if err := foundrymcp.ServeStdio(foundrymcp.New(engine)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: MCP server: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
