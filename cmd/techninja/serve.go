package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/techninja/techninja"
	httpadapter "github.com/techninja/techninja/pkg/adapters/http"
	"github.com/techninja/techninja/pkg/observability"
)

func newServeCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the wizard over HTTP",
		Long: `Starts a single-session HTTP API for the wizard with an SSE stream of state changes.
Prometheus metrics are exposed on /metrics unless disabled in the config.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			if addr == "" {
				addr = opts.cfg.HTTP.Addr
			}

			app, err := openApp(opts)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			hooks := observability.LogHooks(app.Logger)
			var handlerOpts []httpadapter.Option
			handlerOpts = append(handlerOpts, httpadapter.WithLogger(app.Logger))
			if opts.cfg.HTTP.Metrics {
				reg := prometheus.NewRegistry()
				reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
				hooks = observability.NewMetrics(reg).Hooks().Merge(hooks)
				handlerOpts = append(handlerOpts, httpadapter.WithGatherer(reg))
			}

			wiz, err := app.NewWizard(ctx, techninja.WithLifecycleHooks(hooks))
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           httpadapter.NewHandler(wiz, handlerOpts...),
				ReadHeaderTimeout: 10 * time.Second,
			}

			serverErrors := make(chan error, 1)
			go func() {
				app.Logger.Info("HTTP server listening", "address", addr)
				fmt.Fprintf(cmd.ErrOrStderr(), "TechNinja HTTP server listening on %s\n", addr)
				serverErrors <- srv.ListenAndServe()
			}()

			select {
			case err := <-serverErrors:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
				app.Logger.Info("shutting down HTTP server")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("could not stop server gracefully: %w", err)
				}
				return nil
			}
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default from config, :8080)")
	return cmd
}
