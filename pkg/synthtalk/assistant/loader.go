// Package assistant – loader.go handles loading configuration from YAML
// files with credential management via environment variables, .env
// files, and the OS keyring.
package assistant

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// envVarPattern matches environment variable patterns in config values:
//   - ${VAR_NAME}          - simple variable
//   - ${VAR_NAME:-default} - default value if not set
//   - ${VAR_NAME:?error}   - error message if not set
//   - $VAR_NAME            - bare variable (no default/error support)
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::(-|\?)([^}]*))?\}|\$([A-Z_][A-Z0-9_]*)`)

// LoadConfigFromFile reads and parses a YAML configuration file.
// Automatically loads .env files and expands environment variables.
// Returns an error if any ${VAR:?error} pattern has its variable unset.
func LoadConfigFromFile(path string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded, err := expandEnvVarsWithValidation(string(data))
	if err != nil {
		return nil, fmt.Errorf("expanding environment variables: %w", err)
	}

	cfg, err := ParseConfig([]byte(expanded))
	if err != nil {
		return nil, err
	}

	resolveProviderKeys(cfg)
	checkFilePermissions(path)

	return cfg, nil
}

// ParseConfig parses YAML bytes into a Config. Starts with defaults and
// overlays values from the YAML.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("mapping config: %w", err)
	}

	// YAML unmarshal zeros bool fields when absent. Merge with defaults
	// so a partial context section (e.g. only max_tokens) does not
	// silently disable every source.
	if ctxMap, ok := raw["context"].(map[string]any); ok {
		defaults := DefaultConfig().Context
		if _, set := ctxMap["include_web_search"]; !set {
			cfg.Context.IncludeWebSearch = defaults.IncludeWebSearch
		}
		if _, set := ctxMap["include_documents"]; !set {
			cfg.Context.IncludeDocuments = defaults.IncludeDocuments
		}
		if _, set := ctxMap["include_history"]; !set {
			cfg.Context.IncludeHistory = defaults.IncludeHistory
		}
	}

	return cfg, nil
}

// FindConfigFile searches for config files in standard locations.
func FindConfigFile() string {
	candidates := []string{
		"config.yaml",
		"config.yml",
		"synthtalk.yaml",
		"synthtalk.yml",
		"configs/config.yaml",
		"configs/synthtalk.yaml",
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// ---------- Internal ----------

// loadEnvFiles loads .env files from standard locations.
// godotenv does NOT overwrite existing env vars.
func loadEnvFiles() {
	for _, f := range []string{".env", ".env.local"} {
		_ = godotenv.Load(f)
	}
}

// expandEnv replaces ${VAR}, ${VAR:-default}, ${VAR:?error}, and $VAR
// references with their environment variable values. Unset plain
// references keep their placeholder. Unset ${VAR:?} references are
// recorded in missing (when non-nil) so failures are detected during
// replacement, never by scanning the expanded text.
func expandEnv(input string, missing *[]string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		submatches := envVarPattern.FindStringSubmatch(match)

		varName := submatches[1]
		modifierType := submatches[2]
		modifierValue := submatches[3]
		bareVar := submatches[4]

		if bareVar != "" {
			if val, ok := os.LookupEnv(bareVar); ok {
				return val
			}
			return match
		}

		if varName != "" {
			if val, ok := os.LookupEnv(varName); ok {
				return val
			}
			if modifierType == "?" {
				errorMsg := modifierValue
				if errorMsg == "" {
					errorMsg = "required environment variable not set"
				}
				if missing != nil {
					*missing = append(*missing, varName+" - "+errorMsg)
				}
				return match
			}
			if modifierType == "-" {
				return modifierValue
			}
			return match
		}

		return match
	})
}

// expandEnvVars expands references without required-variable checks.
func expandEnvVars(input string) string {
	return expandEnv(input, nil)
}

// expandEnvVarsWithValidation is like expandEnvVars but returns an
// error naming every ${VAR:?error} pattern whose variable is unset.
func expandEnvVarsWithValidation(input string) (string, error) {
	var missing []string
	result := expandEnv(input, &missing)
	if len(missing) > 0 {
		return "", fmt.Errorf("config error: %s", strings.Join(missing, "; "))
	}
	return result, nil
}

// IsEnvReference checks if a string is an environment variable reference.
func IsEnvReference(s string) bool {
	return strings.HasPrefix(s, "${") || strings.HasPrefix(s, "$")
}

// checkFilePermissions warns if the config file is world-readable,
// since it may carry API keys.
func checkFilePermissions(path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}

	mode := info.Mode().Perm()
	if mode&0o044 != 0 {
		slog.Warn("config file has open permissions, consider restricting",
			"path", path,
			"current", fmt.Sprintf("%04o", mode),
			"recommended", "0600",
			"fix", fmt.Sprintf("chmod 600 %s", path),
		)
	}
}
