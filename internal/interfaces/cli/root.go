// Package cli implements the pairwatch command tree.  Commands work the
// same application services the HTTP API does; nothing here talks to the
// USPTO or the database directly.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/uspto-tools/pairwatch/internal/config"
	"github.com/uspto-tools/pairwatch/internal/infrastructure/monitoring/logging"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// RootOptions holds the global flags.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
	JSONOutput bool
}

// appProvider hands commands the wired App.  The root command fills it in
// during PersistentPreRunE; tests substitute a fixture.
type appProvider func() *App

// NewRootCommand creates the root command and mounts every subcommand.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}
	var app *App

	cmd := &cobra.Command{
		Use:     "pairwatch",
		Short:   "Track USPTO patent applications from the command line",
		Long:    "pairwatch watches USPTO patent applications through the Open Data Portal,\nrecords transaction-history events locally, and reports what changed.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgFile, err := loadConfig(opts.ConfigPath)
			if err != nil {
				return err
			}
			if opts.LogLevel != "" {
				cfg.Log.Level = opts.LogLevel
			}

			logger, err := logging.NewLogger(logging.Config{
				Level:            cfg.Log.Level,
				Format:           cfg.Log.Format,
				OutputPaths:      cfg.Log.OutputPaths,
				ErrorOutputPaths: cfg.Log.ErrorOutputPaths,
			})
			if err != nil {
				return err
			}

			app, err = NewApp(cfg, logger)
			if err != nil {
				return err
			}
			app.ConfigFile = cfgFile
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if app != nil {
				return app.Close()
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./pairwatch.yaml)")
	pf.StringVar(&opts.LogLevel, "log-level", "", "log level override (debug, info, warn, error)")
	pf.BoolVar(&opts.JSONOutput, "json", false, "print machine-readable JSON instead of tables")

	provide := func() *App { return app }
	cmd.AddCommand(
		NewServeCmd(provide),
		NewAddCmd(provide, opts),
		NewRemoveCmd(provide),
		NewListCmd(provide, opts),
		NewRefreshCmd(provide, opts),
		NewUpdatesCmd(provide, opts),
		NewAPIKeyCmd(provide),
	)

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

// loadConfig resolves configuration: an explicit --config file, else
// ./pairwatch.yaml when present, else environment variables alone.  The
// tool must start with zero configuration.  The returned path names the
// file that was read, empty for the env-only case.
func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		cfg, err := config.Load(path)
		return cfg, path, err
	}
	if _, err := os.Stat("pairwatch.yaml"); err == nil {
		cfg, err := config.Load("pairwatch.yaml")
		return cfg, "pairwatch.yaml", err
	}
	cfg, err := config.LoadFromEnv()
	return cfg, "", err
}

// printJSON writes v as indented JSON to the command's stdout.
func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var (
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
)

func printSuccess(cmd *cobra.Command, format string, args ...interface{}) {
	successColor.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
}

func printWarn(cmd *cobra.Command, format string, args ...interface{}) {
	warnColor.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
}

func init() {
	// Respect NO_COLOR and non-terminal output.
	if os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}
}
