// Package main provides the entry point for the repohealth CLI tool.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/repohealth/cmd/repohealth/commands"
	"github.com/Sumatoshi-tech/repohealth/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	rootCmd := &cobra.Command{
		Use:   "repohealth",
		Short: "Repository health dashboard over the last checkouts",
		Long: `repohealth runs analysis tools against the last N checkouts of a branch,
caches their KPIs and artifacts by commit hash and renders an HTML dashboard
with one trend page per tool.

Commands:
  run       Check out, run tools and render the dashboard
  render    Re-render the dashboard from the cache
  tools     List and validate tool sets
  runs      Inspect the run ledger
  archive   Pack a dashboard into a tar.lz4 archive
  mcp       Serve dashboards to AI agents over MCP`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewRenderCommand())
	rootCmd.AddCommand(commands.NewToolsCommand())
	rootCmd.AddCommand(commands.NewRunsCommand())
	rootCmd.AddCommand(commands.NewArchiveCommand())
	rootCmd.AddCommand(commands.NewMCPCommand())
	rootCmd.AddCommand(versionCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "repohealth %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
