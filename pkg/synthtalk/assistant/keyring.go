// Package assistant – keyring.go provides credential storage using the
// operating system's native keyring (Linux: Secret Service/GNOME
// Keyring, macOS: Keychain, Windows: Credential Manager).
//
// Priority for resolving a provider's API key:
//  1. config.yaml value (after env expansion)
//  2. OS keyring entry "<provider>_api_key"
//  3. Environment variable <PROVIDER>_API_KEY
package assistant

import (
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

// keyringService is the service name used in the OS keyring.
const keyringService = "synthtalk"

// StoreKeyring saves a secret to the OS keyring.
func StoreKeyring(key, value string) error {
	return keyring.Set(keyringService, key, value)
}

// GetKeyring retrieves a secret from the OS keyring.
// Returns empty string if not found.
func GetKeyring(key string) string {
	val, err := keyring.Get(keyringService, key)
	if err != nil {
		return ""
	}
	return val
}

// DeleteKeyring removes a secret from the OS keyring.
func DeleteKeyring(key string) error {
	return keyring.Delete(keyringService, key)
}

// KeyringAvailable checks if the OS keyring is accessible.
func KeyringAvailable() bool {
	testKey := "__synthtalk_test__"
	if err := keyring.Set(keyringService, testKey, "test"); err != nil {
		return false
	}
	_ = keyring.Delete(keyringService, testKey)
	return true
}

// resolveProviderKeys fills in missing provider API keys from the OS
// keyring and provider-specific environment variables.
func resolveProviderKeys(cfg *Config) {
	for i := range cfg.Providers {
		p := &cfg.Providers[i]
		if p.APIKey != "" && !IsEnvReference(p.APIKey) {
			continue
		}
		if val := GetKeyring(providerKeyringName(p.Name)); val != "" {
			p.APIKey = val
			continue
		}
		if val := os.Getenv(providerEnvName(p.Name)); val != "" {
			p.APIKey = val
			continue
		}
		if IsEnvReference(p.APIKey) {
			// Unresolvable placeholder; treat as missing so the chain
			// reports a clean provider failure instead of sending it.
			p.APIKey = ""
		}
	}
	// Search credentials get the same fallback.
	if cfg.Search.SerpAPIKey == "" {
		cfg.Search.SerpAPIKey = os.Getenv("SERPAPI_KEY")
	}
	if cfg.Search.GoogleAPIKey == "" {
		cfg.Search.GoogleAPIKey = os.Getenv("GOOGLE_API_KEY")
	}
	if cfg.Search.GoogleCSEID == "" {
		cfg.Search.GoogleCSEID = os.Getenv("GOOGLE_CSE_ID")
	}
}

// providerKeyringName maps a provider name to its keyring entry,
// e.g. "openai" -> "openai_api_key".
func providerKeyringName(provider string) string {
	return strings.ToLower(provider) + "_api_key"
}

// providerEnvName maps a provider name to its env var,
// e.g. "openai" -> "OPENAI_API_KEY".
func providerEnvName(provider string) string {
	return strings.ToUpper(provider) + "_API_KEY"
}
