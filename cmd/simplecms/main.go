package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tendant/simple-cms/pkg/simplecms/config"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(".env"); err != nil {
		// It's okay if .env doesn't exist, we'll use the environment and defaults
		slog.Info("No .env file found or error loading it, using default values", "error", err)
	}

	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// NewRootCommand builds the simplecms command tree
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "simplecms",
		Short: "Headless content management server",
		Long: `simplecms serves content types defined in YAML or JSON files.

Editors save and approve revisions through the admin API, approved content
is published to the delivery API and applications are notified with
CloudEvents. Configuration comes from the environment (see "simplecms env"),
an optional config file and the flags below.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (yaml, json, toml or env)")
	rootCmd.PersistentFlags().StringP("types-dir", "t", "", "directory of content type definitions (overrides CONTENT_TYPES_DIR)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug logging")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewMigrateCommand())
	rootCmd.AddCommand(NewSchemaCommand())
	rootCmd.AddCommand(NewMCPCommand())
	rootCmd.AddCommand(NewEnvCommand())
	rootCmd.AddCommand(NewAPIKeyCommand())

	return rootCmd
}

// loadConfig reads the config file named by --config, then the environment,
// then the flag overrides.
func loadConfig(cmd *cobra.Command) (*config.ServerConfig, error) {
	var opts []config.Option
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}
	opts = append(opts, config.WithEnv())
	if dir, _ := cmd.Flags().GetString("types-dir"); dir != "" {
		opts = append(opts, config.WithContentTypesDir(dir))
	}

	cfg, err := config.Load(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}
