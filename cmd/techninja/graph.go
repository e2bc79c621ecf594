package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/techninja/techninja/internal/presentation/graph"
	"github.com/techninja/techninja/pkg/domain"
)

func newGraphCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph <machine-id>",
		Short: "Print a machine graph as a Mermaid diagram",
		Long: `Prints the symptoms and steps of a machine as a Mermaid flowchart.
When the saved session belongs to the same machine, the visited path is highlighted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plain, _ := cmd.Flags().GetBool("plain")

			app, err := openApp(opts)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			index, err := app.Source.LoadIndex(ctx)
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}
			machine, ok := index.Find(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", domain.ErrUnknownMachine, args[0])
			}

			g, err := app.Source.LoadGraph(ctx, machine.ConfigRef)
			if err != nil {
				return err
			}

			var overlay *graph.GraphOverlay
			if !plain {
				if snap, err := app.Store.Load(ctx, opts.cfg.Session.Key); err == nil && snap.MachineID == machine.ID {
					overlay = graph.OverlayFromState(snap.State())
				}
			}

			fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(g, overlay))
			return nil
		},
	}

	cmd.Flags().Bool("plain", false, "Do not highlight the saved session path")
	return cmd
}
