package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/avianto/synthtalk/pkg/synthtalk/assistant"
	"github.com/spf13/cobra"
)

// newChatCmd creates the `synthtalk chat` command for terminal chats.
func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Chat with the assistant",
		Long: `Send a single message, or start an interactive session when no
message is given.

Examples:
  synthtalk chat "What is driving inflation this quarter?"
  synthtalk chat --session 4f7c... "And compared to last year?"
  synthtalk chat`,
		Args: cobra.MaximumNArgs(1),
		RunE: runChat,
	}

	cmd.Flags().String("session", "", "existing session ID to continue")
	cmd.Flags().Bool("show-reasoning", false, "print the reasoning narrative before the answer")
	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := assistant.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	sessionID, _ := cmd.Flags().GetString("session")
	if sessionID == "" {
		sess, err := a.Store().CreateSession(ctx, "CLI session")
		if err != nil {
			return fmt.Errorf("creating session: %w", err)
		}
		sessionID = sess.ID
	} else if sess, err := a.Store().GetSession(ctx, sessionID); err != nil {
		return fmt.Errorf("loading session: %w", err)
	} else if sess == nil {
		return fmt.Errorf("session %s not found", sessionID)
	}

	showReasoning, _ := cmd.Flags().GetBool("show-reasoning")

	if len(args) > 0 {
		return chatTurn(ctx, a, sessionID, args[0], showReasoning)
	}

	// Interactive mode.
	fmt.Printf("%s ready. Session %s. Type 'exit' to quit.\n", cfg.Name, sessionID)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}
		if err := chatTurn(ctx, a, sessionID, line, showReasoning); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
	return scanner.Err()
}

func chatTurn(ctx context.Context, a *assistant.Assistant, sessionID, message string, showReasoning bool) error {
	result, err := a.Respond(ctx, sessionID, message)
	if err != nil {
		return err
	}
	if showReasoning && result.Bundle.ReasoningText != "" {
		fmt.Println(result.Bundle.ReasoningText)
		fmt.Println()
	}
	fmt.Println(result.BotMessage.Content)
	if len(result.Bundle.SourcesUsed) > 0 {
		kinds := make([]string, 0, len(result.Bundle.SourcesUsed))
		for _, s := range result.Bundle.SourcesUsed {
			kinds = append(kinds, string(s))
		}
		fmt.Printf("\n[sources: %s]\n", strings.Join(kinds, ", "))
	}
	return nil
}
