package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/meshview/meshview/pkg/config"
)

var (
	// Global flags
	configPath string
	verbose    bool
	jsonOutput bool

	// appVersion is the binary version, reported as the telemetry
	// service version.
	appVersion = "dev"
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	appVersion = version
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "meshview",
		Short: "MeshView - 3D mesh loading and inspection",
		Long: `MeshView loads 3D mesh files (STL, OBJ, PLY) into typed geometry buffers.

Features:
  - Format detection from magic bytes, extension, and MIME type
  - Native decoders for the text formats, a sandboxed WASM decoder for binary
  - Automatic exact-mode fallback for damaged files
  - Size and triangle-count guards with classified errors
  - Load history persisted to SQLite`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	// Add subcommands
	rootCmd.AddCommand(newInspectCommand())
	rootCmd.AddCommand(newLoadCommand())
	rootCmd.AddCommand(newWatchCommand())
	rootCmd.AddCommand(newHistoryCommand())

	return rootCmd
}

// loadConfig reads the config file named by --config, or the defaults
// when the flag is unset. --verbose lowers the log level to debug.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)

	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.Default()
	}

	if verbose {
		cfg.Telemetry.LogLevel = "debug"
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	return cfg, nil
}
