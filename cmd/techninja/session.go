package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/techninja/techninja/pkg/domain"
)

func newSessionCmd(opts *options) *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:     "session",
		Aliases: []string{"sessions"},
		Short:   "Manage saved sessions",
	}

	showCmd := &cobra.Command{
		Use:   "show [key]",
		Short: "Print a saved session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(opts)
			if err != nil {
				return err
			}
			defer app.Close()

			key := sessionKey(opts, args)
			snap, err := app.Store.Load(cmd.Context(), key)
			if errors.Is(err, domain.ErrSnapshotNotFound) {
				fmt.Fprintf(cmd.OutOrStdout(), "No saved session under %q.\n", key)
				return nil
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Session:  %s\n", key)
			fmt.Fprintf(out, "Saved:    %s\n", snap.SavedAt().Format(time.RFC3339))
			fmt.Fprintf(out, "Version:  %d\n", snap.Version)
			fmt.Fprintf(out, "Machine:  %s\n", valueOrDash(snap.MachineID))
			fmt.Fprintf(out, "Symptom:  %s\n", valueOrDash(snap.SymptomID))
			fmt.Fprintf(out, "Step:     %s\n", valueOrDash(snap.StepID))
			if len(snap.History) > 0 {
				fmt.Fprintf(out, "History:  %s\n", strings.Join(snap.History, " → "))
			}
			if snap.Version != domain.SchemaVersion {
				fmt.Fprintln(out, "(stale schema version, will be discarded on next start)")
			}
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:     "clear [key]",
		Aliases: []string{"rm", "delete"},
		Short:   "Delete a saved session",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(opts)
			if err != nil {
				return err
			}
			defer app.Close()

			key := sessionKey(opts, args)
			if err := app.Store.Delete(cmd.Context(), key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session %q cleared.\n", key)
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List saved session keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(opts)
			if err != nil {
				return err
			}
			defer app.Close()

			keys, err := app.Store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(keys) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No saved sessions.")
				return nil
			}
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}

	sessionCmd.AddCommand(showCmd, clearCmd, listCmd)
	return sessionCmd
}

func sessionKey(opts *options, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return opts.cfg.Session.Key
}

func valueOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
