// Package assistant implements the research-assistant core: context
// assembly from conversation history, documents, and web search;
// deterministic reasoning narratives; prompt composition biased by
// feedback history; and an LLM provider fallback chain.
package assistant

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/avianto/synthtalk/pkg/synthtalk/store"
	"github.com/avianto/synthtalk/pkg/synthtalk/websearch"
)

// Assistant wires the core components for the calling layer. One
// instance serves all sessions; per-turn state lives in the Bundle.
type Assistant struct {
	cfg      *Config
	store    *store.SQLiteStore
	builder  *ContextBuilder
	chain    *Chain
	feedback *CachedFeedback
	searcher websearch.Searcher
	logger   *slog.Logger
}

// TurnResult is everything produced by one chat turn.
type TurnResult struct {
	UserMessage store.Message
	BotMessage  store.Message
	Bundle      Bundle
}

// New assembles an Assistant from config. Call Close when done.
func New(ctx context.Context, cfg *Config, logger *slog.Logger) (*Assistant, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = NewLogger(cfg.Logging)
	}

	st, err := store.NewSQLiteStore(cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	searcher := websearch.New(cfg.Search, logger)

	feedback, err := NewCachedFeedback(ctx, st, cfg.Feedback.RefreshSchedule, logger)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("starting feedback analyzer: %w", err)
	}

	builder := NewContextBuilder(st, searcher, logger)
	builder.SetBudget(cfg.Context.MaxTokens)

	return &Assistant{
		cfg:      cfg,
		store:    st,
		builder:  builder,
		chain:    NewChain(cfg.Providers, logger),
		feedback: feedback,
		searcher: searcher,
		logger:   logger.With("component", "assistant"),
	}, nil
}

// Close releases the feedback schedule and the database.
func (a *Assistant) Close() error {
	a.feedback.Stop()
	return a.store.Close()
}

// Store exposes the persistence layer to the calling layer for session,
// message, and document CRUD.
func (a *Assistant) Store() *store.SQLiteStore {
	return a.store
}

// BuildContext assembles the context bundle for one turn.
func (a *Assistant) BuildContext(ctx context.Context, sessionID, userMessage string, opts BuildOptions) Bundle {
	return a.builder.BuildContext(ctx, sessionID, userMessage, opts)
}

// ComposePrompt renders the final prompt from a bundle and the current
// feedback signal.
func (a *Assistant) ComposePrompt(bundle Bundle, userMessage string) string {
	return ComposePrompt(a.cfg.Instructions, bundle.FinalText, bundle.ReasoningText, userMessage, a.feedback.Signal())
}

// GetLLMResponse runs the provider chain. Never returns an error; all
// provider failures collapse into an apology message.
func (a *Assistant) GetLLMResponse(ctx context.Context, prompt string) string {
	return a.chain.GetResponse(ctx, prompt)
}

// SearchWeb runs a standalone web search outside context assembly.
// Like the adapter itself it never errors; unavailability comes back as
// sentinel results.
func (a *Assistant) SearchWeb(ctx context.Context, query string, numResults int) []websearch.Result {
	return a.searcher.Search(ctx, query, numResults)
}

// ClassifyQuestion exposes standalone classification for callers that
// do not need full context assembly.
func (a *Assistant) ClassifyQuestion(message string) QuestionCategory {
	return ClassifyQuestion(message)
}

// Respond handles one complete chat turn: builds context, composes the
// prompt, queries the provider chain, and persists both messages.
func (a *Assistant) Respond(ctx context.Context, sessionID, userMessage string) (TurnResult, error) {
	opts := a.cfg.BuildOptions()

	bundle := a.BuildContext(ctx, sessionID, userMessage, opts)
	prompt := a.ComposePrompt(bundle, userMessage)
	response := a.GetLLMResponse(ctx, prompt)

	userMsg, err := a.store.SaveMessage(ctx, sessionID, "user", userMessage)
	if err != nil {
		return TurnResult{}, fmt.Errorf("persisting user message: %w", err)
	}
	botMsg, err := a.store.SaveMessage(ctx, sessionID, "bot", response)
	if err != nil {
		return TurnResult{}, fmt.Errorf("persisting bot message: %w", err)
	}

	a.logger.Info("turn completed",
		"session_id", sessionID,
		"category", bundle.QuestionCategory,
		"sources", len(bundle.SourcesUsed),
		"response_len", len(response))

	return TurnResult{
		UserMessage: userMsg,
		BotMessage:  botMsg,
		Bundle:      bundle,
	}, nil
}
