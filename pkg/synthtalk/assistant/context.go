// Package assistant – context.go assembles the context bundle for one
// chat turn: conversation history, document search (with a general
// fallback), and web search, merged by priority within a token budget.
// A failing source logs and contributes nothing; the turn never fails
// outright due to context assembly.
package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/avianto/synthtalk/pkg/synthtalk/store"
	"github.com/avianto/synthtalk/pkg/synthtalk/websearch"
)

// SourceKind labels where a context fragment came from.
type SourceKind string

const (
	SourceHistory          SourceKind = "conversation_history"
	SourceDocuments        SourceKind = "documents"
	SourceWebSearch        SourceKind = "web_search"
	SourceGeneralDocuments SourceKind = "general_documents"
)

// Fragment priorities. Lower sorts first at merge time.
const (
	priorityHistory          = 1
	priorityDocuments        = 2
	priorityWebSearch        = 3
	priorityGeneralDocuments = 4
)

const (
	defaultContextBudget  = 8000 // estimated tokens
	mergeReserveBuffer    = 100
	mergeMinPartialBudget = 50
	webSearchResults      = 3
	generalDocsMax        = 2
	generalDocExcerptLen  = 200
	truncationMarker      = "[Content truncated...]"
)

// Fragment is one labeled, prioritized chunk of retrieved text.
type Fragment struct {
	Kind     SourceKind
	Content  string
	Priority int
}

// Bundle is the aggregate result of context assembly for one turn.
type Bundle struct {
	FinalText          string
	ReasoningText      string
	QuestionCategory   QuestionCategory
	SourcesUsed        []SourceKind
	SearchResultCounts map[SourceKind]int
	Error              string
}

// BuildOptions controls which sources run and whether reasoning is
// applied to the merged context.
type BuildOptions struct {
	IncludeWebSearch   bool
	IncludeDocuments   bool
	IncludeHistory     bool
	MaxHistoryMessages int
	ReasoningMode      ReasoningMode // empty disables reasoning
}

// DefaultBuildOptions enables every source with a ten-message history
// window and no reasoning.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{
		IncludeWebSearch:   true,
		IncludeDocuments:   true,
		IncludeHistory:     true,
		MaxHistoryMessages: 10,
	}
}

// ContextStore is the slice of the persistence layer the builder reads.
type ContextStore interface {
	RecentMessages(ctx context.Context, sessionID string, limit int) ([]store.Message, error)
	SearchDocuments(ctx context.Context, query, sessionID string) ([]store.DocumentHit, error)
	DocumentsBySession(ctx context.Context, sessionID string) ([]store.Document, error)
}

// ContextBuilder orchestrates the source adapters and the merge step.
type ContextBuilder struct {
	store    ContextStore
	searcher websearch.Searcher
	logger   *slog.Logger
	budget   float64
}

// NewContextBuilder wires a builder. A nil searcher disables web search
// regardless of options.
func NewContextBuilder(st ContextStore, searcher websearch.Searcher, logger *slog.Logger) *ContextBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContextBuilder{
		store:    st,
		searcher: searcher,
		logger:   logger.With("component", "context"),
		budget:   defaultContextBudget,
	}
}

// SetBudget overrides the default token budget. Values <= 0 are ignored.
func (b *ContextBuilder) SetBudget(tokens float64) {
	if tokens > 0 {
		b.budget = tokens
	}
}

// BuildContext gathers all enabled sources, merges them within the
// token budget, and optionally applies reasoning. It never returns an
// error: a degraded bundle carries the failure message instead.
func (b *ContextBuilder) BuildContext(ctx context.Context, sessionID, userMessage string, opts BuildOptions) (bundle Bundle) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("context assembly panicked", "error", r)
			bundle = b.degradedBundle(userMessage, fmt.Sprintf("%v", r))
		}
	}()

	bundle = Bundle{
		SearchResultCounts: make(map[SourceKind]int),
		QuestionCategory:   ClassifyQuestion(userMessage),
	}

	var fragments []Fragment

	if opts.IncludeHistory {
		limit := opts.MaxHistoryMessages
		if limit <= 0 {
			limit = 10
		}
		if history := b.conversationHistory(ctx, sessionID, limit); history != "" {
			fragments = append(fragments, Fragment{Kind: SourceHistory, Content: history, Priority: priorityHistory})
			bundle.SourcesUsed = append(bundle.SourcesUsed, SourceHistory)
		}
	}

	if opts.IncludeDocuments {
		hits, err := b.store.SearchDocuments(ctx, userMessage, sessionID)
		if err != nil {
			b.logger.Warn("document search failed", "error", err)
			hits = nil
		}
		if len(hits) > 0 {
			fragments = append(fragments, Fragment{
				Kind:     SourceDocuments,
				Content:  formatDocumentResults(hits),
				Priority: priorityDocuments,
			})
			bundle.SourcesUsed = append(bundle.SourcesUsed, SourceDocuments)
			bundle.SearchResultCounts[SourceDocuments] = len(hits)
		} else if general := b.generalDocuments(ctx, sessionID); general != "" {
			fragments = append(fragments, Fragment{
				Kind:     SourceGeneralDocuments,
				Content:  general,
				Priority: priorityGeneralDocuments,
			})
			bundle.SourcesUsed = append(bundle.SourcesUsed, SourceGeneralDocuments)
		}
	}

	if opts.IncludeWebSearch && b.searcher != nil {
		results := b.searcher.Search(ctx, userMessage, webSearchResults)
		if len(results) > 0 && !websearch.IsUnavailable(results) {
			fragments = append(fragments, Fragment{
				Kind:     SourceWebSearch,
				Content:  formatWebResults(results),
				Priority: priorityWebSearch,
			})
			bundle.SourcesUsed = append(bundle.SourcesUsed, SourceWebSearch)
			bundle.SearchResultCounts[SourceWebSearch] = len(results)
		}
	}

	bundle.FinalText = mergeFragments(fragments, userMessage, b.budget)

	if opts.ReasoningMode != "" {
		reasoning, err := Reason(bundle.FinalText, userMessage, opts.ReasoningMode, bundle.QuestionCategory)
		if err != nil {
			b.logger.Warn("reasoning failed", "mode", opts.ReasoningMode, "error", err)
		} else {
			bundle.ReasoningText = reasoning
		}
	}

	b.logger.Debug("context assembled",
		"session_id", sessionID,
		"sources", len(bundle.SourcesUsed),
		"context_len", len(bundle.FinalText))

	return bundle
}

func (b *ContextBuilder) degradedBundle(userMessage, errMsg string) Bundle {
	return Bundle{
		FinalText:          "I'll help you with: " + userMessage,
		SearchResultCounts: make(map[SourceKind]int),
		Error:              errMsg,
	}
}

// conversationHistory renders recent messages as "You:"/"Assistant:"
// lines, oldest first. Failures degrade to an empty string.
func (b *ContextBuilder) conversationHistory(ctx context.Context, sessionID string, limit int) string {
	messages, err := b.store.RecentMessages(ctx, sessionID, limit)
	if err != nil {
		b.logger.Warn("history fetch failed", "error", err)
		return ""
	}
	if len(messages) == 0 {
		return ""
	}
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		role := "Assistant"
		if msg.Sender == "user" {
			role = "You"
		}
		lines = append(lines, role+": "+msg.Content)
	}
	return strings.Join(lines, "\n")
}

// generalDocuments renders brief excerpts of the session's documents
// when targeted search found nothing.
func (b *ContextBuilder) generalDocuments(ctx context.Context, sessionID string) string {
	docs, err := b.store.DocumentsBySession(ctx, sessionID)
	if err != nil {
		b.logger.Warn("session documents fetch failed", "error", err)
		return ""
	}
	if len(docs) == 0 {
		return ""
	}

	parts := []string{"=== SESSION DOCUMENTS ==="}
	shown := docs
	if len(shown) > generalDocsMax {
		shown = shown[:generalDocsMax]
	}
	for _, doc := range shown {
		excerpt := doc.Text
		if len(excerpt) > generalDocExcerptLen {
			excerpt = excerpt[:generalDocExcerptLen] + "..."
		}
		parts = append(parts, fmt.Sprintf("📄 %s:\n%s\n", doc.Filename, excerpt))
	}
	if len(docs) > generalDocsMax {
		parts = append(parts, fmt.Sprintf("... and %d more documents", len(docs)-generalDocsMax))
	}
	return strings.Join(parts, "\n")
}

func formatDocumentResults(hits []store.DocumentHit) string {
	if len(hits) == 0 {
		return ""
	}
	parts := []string{"=== RELEVANT DOCUMENTS ==="}
	for _, hit := range hits {
		info := "📄 " + hit.Filename
		if hit.Similarity > 0 {
			info += fmt.Sprintf(" (relevance: %.2f)", hit.Similarity)
		}
		if hit.DocumentID != "" {
			info += fmt.Sprintf(" [ID: %s]", hit.DocumentID)
		}
		parts = append(parts, fmt.Sprintf("%s:\n%s\n", info, hit.Snippet))
	}
	return strings.Join(parts, "\n")
}

func formatWebResults(results []websearch.Result) string {
	if len(results) == 0 {
		return ""
	}
	parts := []string{"=== CURRENT WEB INFORMATION ==="}
	for _, r := range results {
		if r.Title == websearch.UnavailableTitle {
			continue
		}
		parts = append(parts, fmt.Sprintf("🌐 %s:\n%s\n", r.Title, r.Snippet))
	}
	return strings.Join(parts, "\n")
}

// mergeFragments combines fragments ascending by priority within the
// token budget. Whole fragments are appended while they fit; the first
// fragment that would overflow gets one partial inclusion attempt
// (trimmed plus a truncation marker), then merging stops entirely —
// later fragments are not considered even if they would fit.
func mergeFragments(fragments []Fragment, userMessage string, budget float64) string {
	sort.SliceStable(fragments, func(i, j int) bool {
		return fragments[i].Priority < fragments[j].Priority
	})

	var combined []string
	current := EstimateTokens(userMessage)

	for _, frag := range fragments {
		partTokens := EstimateTokens(frag.Content)
		if current+partTokens < budget {
			combined = append(combined, frag.Content)
			current += partTokens
			continue
		}
		remaining := budget - current - mergeReserveBuffer
		if remaining > mergeMinPartialBudget {
			truncated := TrimToTokenLimit(frag.Content, int(remaining/estimateTokensPerWord), "")
			combined = append(combined, truncated+"\n"+truncationMarker)
		}
		break
	}

	return strings.Join(combined, "\n\n")
}
