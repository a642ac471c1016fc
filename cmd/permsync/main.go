// Package main is the entry point for the permsync CLI.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/channelwise/permsync/internal/config"
	"github.com/spf13/cobra"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "permsync",
		Short:         "Keeps local Telegram channel admin permissions in sync with Telegram",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "Path to configuration file")
	root.AddCommand(versionCmd(), startCmd(), syncCmd(), sweepCmd(), configCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("permsync %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func startCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the reconciliation service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			app, err := newApp(cfg, newLogger())
			if err != nil {
				return err
			}
			return app.run(cmd.Context())
		},
	}
}

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync <channel-id>...",
		Short: "Reconcile one or more channels once and print the report",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid channel id %q", arg)
				}
				ids = append(ids, id)
			}

			force, _ := cmd.Flags().GetBool("force")

			app, err := newApp(cfg, newLogger())
			if err != nil {
				return err
			}
			defer app.close()

			report := app.orchestrator.SyncMany(cmd.Context(), ids, force)
			return printJSON(report)
		},
	}
	cmd.Flags().Bool("force", false, "Sync even if records are fresh")
	return cmd
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Find all stale permission records and force-sync their channels",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			app, err := newApp(cfg, newLogger())
			if err != nil {
				return err
			}
			defer app.close()

			report, err := app.orchestrator.SweepStale(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(report)
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check <path>",
		Short: "Validate configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}
			fmt.Println("Configuration OK")
			return nil
		},
	})
	return cmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = resolveConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveConfigPath searches standard locations:
// $XDG_CONFIG_HOME/permsync/permsync.yaml → ./permsync.yaml
func resolveConfigPath() string {
	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		candidate := xdg + "/permsync/permsync.yaml"
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	} else if home, err := os.UserHomeDir(); err == nil {
		candidate := home + "/.config/permsync/permsync.yaml"
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return "permsync.yaml"
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("PERMSYNC_DEBUG") != "" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
