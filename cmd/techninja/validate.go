package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/techninja/techninja/internal/validator"
)

func newValidateCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the machine index and every graph",
		Long: `Loads the index and each machine graph, then reports broken references,
steps that cannot be reached and malformed results.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			strict, _ := cmd.Flags().GetBool("strict")

			app, err := openApp(opts)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			index, err := app.Source.LoadIndex(ctx)
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}

			warnings := 0
			for _, w := range validator.ValidateIndex(index) {
				fmt.Fprintf(out, "  ⚠ index: %s\n", w)
				warnings++
			}

			failed := 0
			for _, m := range index.Machines {
				graph, err := app.Source.LoadGraph(ctx, m.ConfigRef)
				if err != nil {
					fmt.Fprintf(out, "✗ %s: %v\n", m.ID, err)
					failed++
					continue
				}

				found := validator.Validate(graph)
				unreachable := validator.Unreachable(graph)
				if len(found) == 0 && len(unreachable) == 0 {
					fmt.Fprintf(out, "✓ %s (%d symptoms, %d steps)\n", m.ID, len(graph.Symptoms), len(graph.Steps))
					continue
				}

				fmt.Fprintf(out, "⚠ %s\n", m.ID)
				for _, w := range found {
					fmt.Fprintf(out, "  %s\n", w)
				}
				for _, id := range unreachable {
					fmt.Fprintf(out, "  unreachable step %q\n", id)
				}
				warnings += len(found) + len(unreachable)
			}

			switch {
			case failed > 0:
				return fmt.Errorf("%d machine(s) failed to load", failed)
			case strict && warnings > 0:
				return errors.New("validation produced warnings")
			}
			fmt.Fprintf(out, "%d machine(s), %d warning(s)\n", len(index.Machines), warnings)
			return nil
		},
	}

	cmd.Flags().Bool("strict", false, "Fail on warnings as well as load errors")
	return cmd
}
