// Package commands implements the synthtalk CLI commands using cobra.
package commands

import (
	"fmt"
	"log/slog"

	"github.com/avianto/synthtalk/pkg/synthtalk/assistant"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command with every subcommand registered.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "synthtalk",
		Short: "SynthesisTalk - research assistant",
		Long: `SynthesisTalk is a research assistant that answers questions using
conversation history, uploaded documents, and web search, with an LLM
provider fallback chain.

Examples:
  synthtalk chat "What is driving inflation this quarter?"
  synthtalk serve
  synthtalk sessions list
  synthtalk keys set openrouter`,
		Version: version,
	}

	rootCmd.AddCommand(
		newChatCmd(),
		newServeCmd(),
		newSessionsCmd(),
		newKeysCmd(),
	)

	rootCmd.PersistentFlags().StringP("config", "c", "", "path to the configuration file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	return rootCmd
}

// resolveConfig loads config from the --config flag or auto-discovery.
func resolveConfig(cmd *cobra.Command) (*assistant.Config, error) {
	configPath, _ := cmd.Root().PersistentFlags().GetString("config")

	if configPath != "" {
		cfg, err := assistant.LoadConfigFromFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		return cfg, nil
	}

	if found := assistant.FindConfigFile(); found != "" {
		cfg, err := assistant.LoadConfigFromFile(found)
		if err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", found, err)
		}
		slog.Info("config loaded", "path", found)
		return cfg, nil
	}

	return nil, fmt.Errorf("no configuration file found; create config.yaml or pass --config")
}

// newLogger builds the CLI logger, honoring --verbose over the config
// level.
func newLogger(cmd *cobra.Command, cfg *assistant.Config) *slog.Logger {
	verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")
	logCfg := cfg.Logging
	if verbose {
		logCfg.Level = "debug"
	}
	return assistant.NewLogger(logCfg)
}
