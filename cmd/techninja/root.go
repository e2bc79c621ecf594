package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/techninja/techninja/internal/cli"
	"github.com/techninja/techninja/internal/config"
)

// options carries the configuration resolved by the root command.
type options struct {
	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "techninja",
		Short: "TechNinja is a field troubleshooting wizard for appliances",
		Long: `TechNinja walks a technician from a symptom to a diagnosis, one question at a time.
Machine data is read from a directory, a loam repository or a web server, and the
session is saved after every step so it can be resumed later.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("dir", ".", "Data directory (machine documents and techninja.yaml)")
	flags.String("config", "", "Config file (default <dir>/techninja.yaml)")
	flags.String("source", "", "Graph source: dir, remote or loam")
	flags.String("url", "", "Base URL of the machine data (implies --source remote)")
	flags.String("store", "", "Session store: memory, file, redis or sqlite")
	flags.String("redis", "", "Redis URL (implies --store redis)")
	flags.String("log-level", "", "Log level: debug, info, warn or error")

	runCmd := newRunCmd(opts)
	rootCmd.AddCommand(
		runCmd,
		newValidateCmd(opts),
		newGraphCmd(opts),
		newSessionCmd(opts),
		newServeCmd(opts),
		newMCPCmd(opts),
		newVersionCmd(),
	)

	// Without a subcommand the wizard starts.
	rootCmd.Flags().AddFlagSet(runCmd.Flags())
	rootCmd.RunE = runCmd.RunE

	return rootCmd
}

// Execute builds the command tree and runs it.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies flag overrides on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()
	dir, _ := flags.GetString("dir")
	path, _ := flags.GetString("config")
	if path == "" {
		path = filepath.Join(dir, config.DefaultPath)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	cfg.Resolve(dir)

	if v, _ := flags.GetString("url"); v != "" {
		cfg.Source.Kind = config.SourceRemote
		cfg.Source.URL = v
	}
	if v, _ := flags.GetString("source"); v != "" {
		cfg.Source.Kind = v
	}
	if v, _ := flags.GetString("redis"); v != "" {
		cfg.Store.Kind = config.StoreRedis
		cfg.Store.RedisURL = v
	}
	if v, _ := flags.GetString("store"); v != "" {
		cfg.Store.Kind = v
		if v == config.StoreSQLite && filepath.Ext(cfg.Store.Path) == "" {
			cfg.Store.Path += ".db"
		}
	}
	if v, _ := flags.GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openApp builds the adapters. Logs go to stderr so stdout stays clean.
func openApp(opts *options) (*cli.App, error) {
	logger := cli.NewLogger(opts.cfg.Log, os.Stderr)
	return cli.Open(opts.cfg, logger)
}
