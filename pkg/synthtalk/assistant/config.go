// Package assistant – config.go defines the YAML configuration schema
// and defaults.
package assistant

import (
	"fmt"

	"github.com/avianto/synthtalk/pkg/synthtalk/websearch"
)

// Config is the root configuration loaded from config.yaml.
type Config struct {
	// Name is the assistant's display name.
	Name string `yaml:"name"`

	// Instructions is the system preamble. Empty selects the default.
	Instructions string `yaml:"instructions"`

	// Database is the SQLite database path.
	Database string `yaml:"database"`

	// Providers is the ordered LLM fallback chain.
	Providers []ProviderConfig `yaml:"providers"`

	Context  ContextConfig    `yaml:"context"`
	Search   websearch.Config `yaml:"search"`
	Feedback FeedbackConfig   `yaml:"feedback"`
	Gateway  GatewayConfig    `yaml:"gateway"`
	Logging  LoggingConfig    `yaml:"logging"`
}

// GatewayConfig configures the HTTP API server.
type GatewayConfig struct {
	// Enabled turns the HTTP gateway on.
	Enabled bool `yaml:"enabled"`

	// Address is the listen address, e.g. "127.0.0.1:8090".
	Address string `yaml:"address"`

	// AuthToken protects every endpoint except /health when set.
	AuthToken string `yaml:"auth_token"`

	// CORSOrigins lists allowed browser origins. Empty allows none.
	CORSOrigins []string `yaml:"cors_origins"`
}

// ContextConfig tunes context assembly.
type ContextConfig struct {
	// MaxTokens is the estimated-token budget for merged context.
	MaxTokens float64 `yaml:"max_tokens"`

	// MaxHistoryMessages bounds the conversation-history window.
	MaxHistoryMessages int `yaml:"max_history_messages"`

	IncludeWebSearch bool `yaml:"include_web_search"`
	IncludeDocuments bool `yaml:"include_documents"`
	IncludeHistory   bool `yaml:"include_history"`

	// ReasoningMode enables a reasoning narrative per turn:
	// chain_of_thought, react, or hybrid. Empty disables it.
	ReasoningMode string `yaml:"reasoning_mode"`
}

// FeedbackConfig tunes the cached feedback analyzer.
type FeedbackConfig struct {
	// RefreshSchedule is a cron expression for signal refresh.
	RefreshSchedule string `yaml:"refresh_schedule"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// DefaultConfig returns the baseline configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:     "SynthesisTalk",
		Database: "synthtalk.db",
		Context: ContextConfig{
			MaxTokens:          defaultContextBudget,
			MaxHistoryMessages: 10,
			IncludeWebSearch:   true,
			IncludeDocuments:   true,
			IncludeHistory:     true,
		},
		Feedback: FeedbackConfig{
			RefreshSchedule: "@every 5m",
		},
		Gateway: GatewayConfig{
			Address: "127.0.0.1:8090",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks invariants that would otherwise surface as confusing
// runtime failures.
func (c *Config) Validate() error {
	if len(c.Providers) == 0 {
		return fmt.Errorf("at least one provider must be configured")
	}
	for i, p := range c.Providers {
		if p.Name == "" {
			return fmt.Errorf("provider %d: name is required", i)
		}
		if p.BaseURL == "" {
			return fmt.Errorf("provider %q: base_url is required", p.Name)
		}
		if p.Model == "" {
			return fmt.Errorf("provider %q: model is required", p.Name)
		}
	}
	switch c.Context.ReasoningMode {
	case "", string(ReasoningChainOfThought), string(ReasoningReAct), string(ReasoningHybrid):
	default:
		return fmt.Errorf("unknown reasoning_mode %q", c.Context.ReasoningMode)
	}
	return nil
}

// BuildOptions derives per-turn defaults from the context section.
func (c *Config) BuildOptions() BuildOptions {
	return BuildOptions{
		IncludeWebSearch:   c.Context.IncludeWebSearch,
		IncludeDocuments:   c.Context.IncludeDocuments,
		IncludeHistory:     c.Context.IncludeHistory,
		MaxHistoryMessages: c.Context.MaxHistoryMessages,
		ReasoningMode:      ReasoningMode(c.Context.ReasoningMode),
	}
}
