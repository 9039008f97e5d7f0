package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/avianto/synthtalk/pkg/synthtalk/assistant"
	"github.com/spf13/cobra"
)

// newKeysCmd creates the `synthtalk keys` command group for managing
// provider API keys in the OS keyring.
func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage provider API keys in the OS keyring",
		Long: `Store provider API keys in the operating system's keyring so they
never live in config files. Keys stored here are picked up automatically
when the config leaves api_key empty.

Examples:
  synthtalk keys set openrouter
  synthtalk keys check openrouter
  synthtalk keys delete openrouter`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "set <provider>",
			Short: "Store a provider's API key (read from stdin)",
			Args:  cobra.ExactArgs(1),
			RunE:  runKeysSet,
		},
		&cobra.Command{
			Use:   "check <provider>",
			Short: "Check whether a provider's key is stored",
			Args:  cobra.ExactArgs(1),
			RunE:  runKeysCheck,
		},
		&cobra.Command{
			Use:   "delete <provider>",
			Short: "Remove a provider's API key",
			Args:  cobra.ExactArgs(1),
			RunE:  runKeysDelete,
		},
	)
	return cmd
}

// keyringEntry is the keyring key for a provider, matching what config
// loading looks up.
func keyringEntry(provider string) string {
	return strings.ToLower(provider) + "_api_key"
}

func runKeysSet(_ *cobra.Command, args []string) error {
	if !assistant.KeyringAvailable() {
		return fmt.Errorf("OS keyring is not available on this system")
	}
	fmt.Printf("API key for %s: ", args[0])
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading key: %w", err)
	}
	key := strings.TrimSpace(line)
	if key == "" {
		return fmt.Errorf("empty key, nothing stored")
	}
	if err := assistant.StoreKeyring(keyringEntry(args[0]), key); err != nil {
		return fmt.Errorf("storing key: %w", err)
	}
	fmt.Printf("Key for %s stored in the OS keyring.\n", args[0])
	return nil
}

func runKeysCheck(_ *cobra.Command, args []string) error {
	if assistant.GetKeyring(keyringEntry(args[0])) == "" {
		fmt.Printf("No key stored for %s.\n", args[0])
		return nil
	}
	fmt.Printf("Key for %s is stored.\n", args[0])
	return nil
}

func runKeysDelete(_ *cobra.Command, args []string) error {
	if err := assistant.DeleteKeyring(keyringEntry(args[0])); err != nil {
		return fmt.Errorf("deleting key: %w", err)
	}
	fmt.Printf("Key for %s deleted.\n", args[0])
	return nil
}
