package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avianto/synthtalk/pkg/synthtalk/assistant"
	"github.com/avianto/synthtalk/pkg/synthtalk/gateway"
	"github.com/spf13/cobra"
)

// newServeCmd creates the `synthtalk serve` command that runs the HTTP
// gateway until interrupted.
func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Start the research assistant as a long-running service exposing
the HTTP API for frontends.

Examples:
  synthtalk serve
  synthtalk serve --address 127.0.0.1:9000
  synthtalk serve --config ./config.yaml`,
		RunE: runServe,
	}

	cmd.Flags().String("address", "", "listen address (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)

	if addr, _ := cmd.Flags().GetString("address"); addr != "" {
		cfg.Gateway.Address = addr
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := assistant.New(ctx, cfg, logger)
	if err != nil {
		return err
	}

	gw := gateway.New(a, cfg.Gateway, logger)
	if err := gw.Start(); err != nil {
		a.Close()
		return err
	}

	logger.Info("synthtalk running, press Ctrl+C to stop",
		"name", cfg.Name,
		"address", cfg.Gateway.Address,
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received, stopping...")

	done := make(chan struct{})
	go func() {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		_ = gw.Stop(shutdownCtx)
		cancelShutdown()
		_ = a.Close()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("shutdown complete")
	case <-time.After(10 * time.Second):
		logger.Warn("shutdown timed out after 10s, forcing exit")
	}

	return nil
}
