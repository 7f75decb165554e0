package cmd

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/shipcheck/internal/logging"
	"github.com/Aman-CERP/shipcheck/internal/mcp"
	"github.com/Aman-CERP/shipcheck/pkg/shipcheck"
)

func newServeCmd() *cobra.Command {
	var transport string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start a Model Context Protocol server over stdin/stdout exposing the
validate_build_config tool, so AI coding assistants can check a build
configuration before starting a build.

stdout carries JSON-RPC only; logs go to ~/.shipcheck/logs/shipcheck.log.`,
		Example: `  # Register with an MCP client
  {"mcpServers": {"shipcheck": {"command": "shipcheck", "args": ["serve"]}}}`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, transport)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport: stdio")

	return cmd
}

func runServe(cmd *cobra.Command, transport string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	level := cfg.LogLevel
	if debugMode {
		level = "debug"
	}
	cleanup, err := logging.SetupServeMode(level)
	if err != nil {
		return err
	}
	defer cleanup()

	runner, err := shipcheck.New(
		shipcheck.WithConfig(cfg),
		shipcheck.WithLogger(slog.Default()),
	)
	if err != nil {
		return err
	}
	srv, err := mcp.NewServer(runner, mcp.WithLogger(slog.Default()))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err = srv.Serve(ctx, transport)

	snap := srv.Metrics().Snapshot()
	slog.Info("MCP server stopped",
		slog.Int64("checks", snap.TotalChecks),
		slog.Float64("failure_rate", snap.FailureRate()))
	return err
}
