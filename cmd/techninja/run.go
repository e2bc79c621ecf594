package main

import (
	"github.com/spf13/cobra"
	"github.com/techninja/techninja/internal/presentation/tui"
	"github.com/techninja/techninja/pkg/runner"
)

func newRunCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the interactive wizard",
		Long:  `Starts the wizard in the terminal, resuming the saved session when it still applies.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonMode, _ := cmd.Flags().GetBool("json")
			fresh, _ := cmd.Flags().GetBool("fresh")
			noBanner, _ := cmd.Flags().GetBool("no-banner")

			app, err := openApp(opts)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			if fresh {
				if err := app.Store.Delete(ctx, opts.cfg.Session.Key); err != nil {
					return err
				}
			}

			wiz, err := app.NewWizard(ctx)
			if err != nil {
				return err
			}

			in, out := cmd.InOrStdin(), cmd.OutOrStdout()
			var handler runner.IOHandler
			if jsonMode {
				handler = runner.NewJSONHandler(in, out)
			} else {
				if !noBanner && runner.IsTerminal(out) {
					tui.PrintBanner(out)
				}
				handler = runner.NewTextHandler(in, out,
					runner.WithTextHandlerRenderer(runner.DefaultRenderer(out)))
			}

			r := runner.New(wiz,
				runner.WithHandler(handler),
				runner.WithLogger(app.Logger),
				runner.WithSignals(true),
			)
			return r.Run(ctx)
		},
	}

	cmd.Flags().Bool("json", false, "Emit one JSON document per screen instead of text")
	cmd.Flags().Bool("fresh", false, "Discard the saved session before starting")
	cmd.Flags().Bool("no-banner", false, "Do not print the banner")
	return cmd
}
