package commands

import (
	"context"
	"fmt"

	"github.com/avianto/synthtalk/pkg/synthtalk/assistant"
	"github.com/spf13/cobra"
)

// newSessionsCmd creates the `synthtalk sessions` command group.
func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage research sessions",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List all sessions, newest first",
			RunE:  runSessionsList,
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a session and its messages and documents",
			Args:  cobra.ExactArgs(1),
			RunE:  runSessionsDelete,
		},
	)
	return cmd
}

// withStore opens the assistant store for a short-lived CLI action.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, a *assistant.Assistant) error) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)

	ctx := context.Background()
	a, err := assistant.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func runSessionsList(cmd *cobra.Command, _ []string) error {
	return withStore(cmd, func(ctx context.Context, a *assistant.Assistant) error {
		sessions, err := a.Store().ListSessions(ctx)
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Println("No sessions yet.")
			return nil
		}
		for _, s := range sessions {
			fmt.Printf("%s  %s  %s\n", s.ID, s.CreatedAt.Format("2006-01-02 15:04"), s.Name)
		}
		return nil
	})
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, a *assistant.Assistant) error {
		if err := a.Store().DeleteSession(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("Session %s deleted.\n", args[0])
		return nil
	})
}
