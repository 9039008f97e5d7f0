// Package assistant – feedback.go aggregates thumbs-up/down history
// into word-frequency tables used to bias prompt phrasing. Deliberately
// crude: lowercase, split on whitespace, count. No stemming, no
// stopword removal.
package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/avianto/synthtalk/pkg/synthtalk/store"
)

// phraseThreshold is the minimum count (exclusive) for a word to
// surface as an avoid/encourage phrase. Counts of exactly 2 are
// excluded so single incidents and near-coincidences never steer the
// prompt.
const phraseThreshold = 2

// WordCount is one entry of a frequency table.
type WordCount struct {
	Word  string
	Count int
}

// FeedbackSignal holds both frequency tables, each sorted descending
// by count with ties broken alphabetically so output is stable.
type FeedbackSignal struct {
	ThumbsUp   []WordCount
	ThumbsDown []WordCount
}

// FeedbackStore is the slice of the message store the analyzer needs.
type FeedbackStore interface {
	MessagesByFeedback(ctx context.Context, flag store.FeedbackFlag) ([]store.Message, error)
}

// AnalyzeFeedback computes a fresh FeedbackSignal from all flagged
// messages in the store.
func AnalyzeFeedback(ctx context.Context, st FeedbackStore) (FeedbackSignal, error) {
	down, err := st.MessagesByFeedback(ctx, store.ThumbsDown)
	if err != nil {
		return FeedbackSignal{}, fmt.Errorf("load thumbs-down messages: %w", err)
	}
	up, err := st.MessagesByFeedback(ctx, store.ThumbsUp)
	if err != nil {
		return FeedbackSignal{}, fmt.Errorf("load thumbs-up messages: %w", err)
	}
	return FeedbackSignal{
		ThumbsDown: wordFrequencies(down),
		ThumbsUp:   wordFrequencies(up),
	}, nil
}

func wordFrequencies(messages []store.Message) []WordCount {
	counts := make(map[string]int)
	for _, msg := range messages {
		for _, word := range strings.Fields(strings.ToLower(msg.Content)) {
			counts[word]++
		}
	}
	table := make([]WordCount, 0, len(counts))
	for word, count := range counts {
		table = append(table, WordCount{Word: word, Count: count})
	}
	sort.Slice(table, func(i, j int) bool {
		if table[i].Count != table[j].Count {
			return table[i].Count > table[j].Count
		}
		return table[i].Word < table[j].Word
	})
	return table
}

// AvoidPhrases returns thumbs-down words seen more than phraseThreshold
// times, in table order.
func (f FeedbackSignal) AvoidPhrases() []string {
	return phrasesAbove(f.ThumbsDown)
}

// EncouragePhrases returns thumbs-up words seen more than
// phraseThreshold times, in table order.
func (f FeedbackSignal) EncouragePhrases() []string {
	return phrasesAbove(f.ThumbsUp)
}

func phrasesAbove(table []WordCount) []string {
	var phrases []string
	for _, entry := range table {
		if entry.Count > phraseThreshold {
			phrases = append(phrases, entry.Word)
		}
	}
	return phrases
}

// ---------- Cached analyzer ----------

// CachedFeedback keeps a periodically refreshed FeedbackSignal so
// prompt composition does not rescan the whole message history on
// every turn. Refresh cadence is a cron expression; a refresh failure
// keeps the previous signal. With no schedule configured there is no
// cache and every Signal call recomputes.
type CachedFeedback struct {
	store  FeedbackStore
	logger *slog.Logger
	cron   *cron.Cron // nil when running uncached

	mu     sync.RWMutex
	signal FeedbackSignal
}

// NewCachedFeedback loads the signal once, then refreshes on the given
// cron schedule (e.g. "@every 5m"). An empty schedule disables caching.
// Call Stop when done.
func NewCachedFeedback(ctx context.Context, st FeedbackStore, schedule string, logger *slog.Logger) (*CachedFeedback, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cf := &CachedFeedback{
		store:  st,
		logger: logger.With("component", "feedback"),
	}
	if schedule == "" {
		return cf, nil
	}
	if err := cf.Refresh(ctx); err != nil {
		return nil, err
	}
	cf.cron = cron.New()
	if _, err := cf.cron.AddFunc(schedule, func() {
		if err := cf.Refresh(context.Background()); err != nil {
			cf.logger.Warn("feedback refresh failed", "error", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid feedback refresh schedule %q: %w", schedule, err)
	}
	cf.cron.Start()
	return cf, nil
}

// Refresh recomputes the cached signal from the store.
func (c *CachedFeedback) Refresh(ctx context.Context) error {
	signal, err := AnalyzeFeedback(ctx, c.store)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.signal = signal
	c.mu.Unlock()
	c.logger.Debug("feedback signal refreshed",
		"thumbs_up_words", len(signal.ThumbsUp),
		"thumbs_down_words", len(signal.ThumbsDown))
	return nil
}

// Signal returns the current cached signal, or a fresh one when
// running uncached. Analysis failures in uncached mode yield an empty
// signal so prompt composition still proceeds.
func (c *CachedFeedback) Signal() FeedbackSignal {
	if c.cron == nil {
		signal, err := AnalyzeFeedback(context.Background(), c.store)
		if err != nil {
			c.logger.Warn("feedback analysis failed", "error", err)
			return FeedbackSignal{}
		}
		return signal
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.signal
}

// Stop halts the refresh schedule.
func (c *CachedFeedback) Stop() {
	if c.cron != nil {
		c.cron.Stop()
	}
}
