// Package gateway – gateway.go exposes the assistant over a local HTTP
// API for frontends and scripts.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/avianto/synthtalk/pkg/synthtalk/assistant"
)

// Gateway serves the research-assistant HTTP API.
type Gateway struct {
	assistant *assistant.Assistant
	cfg       assistant.GatewayConfig
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time
}

// New creates a Gateway around an assembled assistant.
func New(a *assistant.Assistant, cfg assistant.GatewayConfig, logger *slog.Logger) *Gateway {
	if cfg.Address == "" {
		cfg.Address = "127.0.0.1:8090"
	}
	return &Gateway{
		assistant: a,
		cfg:       cfg,
		logger:    logger.With("component", "gateway"),
	}
}

// handler builds the full route table wrapped in the middleware stack.
func (g *Gateway) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", g.handleHealth)
	mux.HandleFunc("GET /api/sessions", g.handleListSessions)
	mux.HandleFunc("POST /api/sessions", g.handleCreateSession)
	mux.HandleFunc("GET /api/sessions/{id}", g.handleGetSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", g.handleDeleteSession)
	mux.HandleFunc("GET /api/sessions/{id}/messages", g.handleListMessages)
	mux.HandleFunc("GET /api/sessions/{id}/documents", g.handleListDocuments)
	mux.HandleFunc("POST /api/chat", g.handleChat)
	mux.HandleFunc("POST /api/notes", g.handleCreateNote)
	mux.HandleFunc("GET /api/notes", g.handleListNotes)
	mux.HandleFunc("PUT /api/notes/{id}", g.handleUpdateNote)
	mux.HandleFunc("DELETE /api/notes/{id}", g.handleDeleteNote)
	mux.HandleFunc("GET /api/search/web", g.handleWebSearch)
	mux.HandleFunc("GET /api/search/documents", g.handleDocumentSearch)
	mux.HandleFunc("GET /api/search/combined", g.handleCombinedSearch)
	mux.HandleFunc("POST /api/documents", g.handleUploadDocument)
	mux.HandleFunc("POST /api/feedback", g.handleFeedback)
	mux.HandleFunc("POST /api/classify", g.handleClassify)
	mux.HandleFunc("POST /api/explain", g.handleExplain)
	mux.HandleFunc("POST /api/clarify", g.handleClarify)
	mux.HandleFunc("POST /api/summarize", g.handleSummarize)

	return g.securityHeadersMiddleware(g.corsMiddleware(g.authMiddleware(mux)))
}

// Start begins listening. It returns once the listener goroutine is
// running; serve errors are logged, not returned.
func (g *Gateway) Start() error {
	g.server = &http.Server{
		Addr:              g.cfg.Address,
		Handler:           g.handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.startedAt = time.Now()

	if g.cfg.AuthToken == "" && !isLoopbackAddr(g.cfg.Address) {
		g.logger.Warn("gateway bound to a non-loopback address without auth_token; anyone who can reach it can use it",
			"address", g.cfg.Address)
	}

	go func() {
		g.logger.Info("gateway listening", "address", g.cfg.Address)
		if err := g.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			g.logger.Error("gateway serve failed", "error", err)
		}
	}()
	return nil
}

// Stop shuts the server down gracefully.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}
	if err := g.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("gateway shutdown: %w", err)
	}
	g.logger.Info("gateway stopped")
	return nil
}

func isLoopbackAddr(addr string) bool {
	host := addr
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		host = addr[:i]
	}
	switch host {
	case "", "localhost", "127.0.0.1", "::1", "[::1]":
		return true
	}
	return strings.HasPrefix(host, "127.")
}
