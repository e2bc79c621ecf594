package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/techninja/techninja"
	"github.com/techninja/techninja/pkg/adapters/mcp"
	"github.com/techninja/techninja/pkg/observability"
)

func newMCPCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the wizard as an MCP server",
		Long: `Exposes the wizard operations as Model Context Protocol tools so an
assistant can drive a troubleshooting session.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			transport, _ := cmd.Flags().GetString("transport")
			port, _ := cmd.Flags().GetInt("port")

			// stdout carries the protocol on stdio, logs stay on stderr.
			app, err := openApp(opts)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			wiz, err := app.NewWizard(ctx, techninja.WithLifecycleHooks(observability.LogHooks(app.Logger)))
			if err != nil {
				return err
			}
			srv := mcp.NewServer(wiz, mcp.WithLogger(app.Logger))

			switch transport {
			case "stdio":
				return srv.ServeStdio()
			case "sse":
				return srv.ServeSSE(ctx, port)
			default:
				return fmt.Errorf("unknown transport %q (want stdio or sse)", transport)
			}
		},
	}

	cmd.Flags().String("transport", "stdio", "Transport: stdio or sse")
	cmd.Flags().Int("port", 8080, "Port for the SSE transport")
	return cmd
}
