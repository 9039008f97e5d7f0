package assistant

import (
	"context"
	"errors"
	"testing"

	"github.com/avianto/synthtalk/pkg/synthtalk/store"
)

type fakeFeedbackStore struct {
	down []store.Message
	up   []store.Message
	err  error
}

func (f *fakeFeedbackStore) MessagesByFeedback(_ context.Context, flag store.FeedbackFlag) ([]store.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	if flag == store.ThumbsDown {
		return f.down, nil
	}
	return f.up, nil
}

func msgs(contents ...string) []store.Message {
	out := make([]store.Message, len(contents))
	for i, c := range contents {
		out[i] = store.Message{Content: c}
	}
	return out
}

func TestAnalyzeFeedbackCounts(t *testing.T) {
	t.Parallel()

	st := &fakeFeedbackStore{
		down: msgs("bad answer", "Bad format"),
		up:   msgs("great detail", "great great sources"),
	}

	signal, err := AnalyzeFeedback(context.Background(), st)
	if err != nil {
		t.Fatalf("AnalyzeFeedback: %v", err)
	}

	if len(signal.ThumbsDown) == 0 || signal.ThumbsDown[0].Word != "bad" || signal.ThumbsDown[0].Count != 2 {
		t.Errorf("expected 'bad' with count 2 at head of thumbs-down table, got %v", signal.ThumbsDown)
	}
	if len(signal.ThumbsUp) == 0 || signal.ThumbsUp[0].Word != "great" || signal.ThumbsUp[0].Count != 3 {
		t.Errorf("expected 'great' with count 3 at head of thumbs-up table, got %v", signal.ThumbsUp)
	}
}

func TestPhraseThresholdBoundary(t *testing.T) {
	t.Parallel()

	// "bad" appears exactly twice: present in the table, absent from
	// avoid phrases. "wrong" appears three times: surfaced.
	st := &fakeFeedbackStore{
		down: msgs("bad answer wrong", "bad format wrong", "totally wrong"),
	}

	signal, err := AnalyzeFeedback(context.Background(), st)
	if err != nil {
		t.Fatalf("AnalyzeFeedback: %v", err)
	}

	inTable := false
	for _, entry := range signal.ThumbsDown {
		if entry.Word == "bad" && entry.Count == 2 {
			inTable = true
		}
	}
	if !inTable {
		t.Error("'bad' (count 2) should appear in the frequency table")
	}

	avoid := signal.AvoidPhrases()
	for _, word := range avoid {
		if word == "bad" {
			t.Error("'bad' (count 2) must not cross the phrase threshold")
		}
	}
	if len(avoid) != 1 || avoid[0] != "wrong" {
		t.Errorf("avoid phrases = %v, want [wrong]", avoid)
	}
}

func TestAnalyzeFeedbackSortOrder(t *testing.T) {
	t.Parallel()

	st := &fakeFeedbackStore{down: msgs("zebra apple zebra apple mango")}
	signal, err := AnalyzeFeedback(context.Background(), st)
	if err != nil {
		t.Fatalf("AnalyzeFeedback: %v", err)
	}

	want := []WordCount{{"apple", 2}, {"zebra", 2}, {"mango", 1}}
	if len(signal.ThumbsDown) != len(want) {
		t.Fatalf("table = %v, want %v", signal.ThumbsDown, want)
	}
	for i, entry := range signal.ThumbsDown {
		if entry != want[i] {
			t.Errorf("table[%d] = %v, want %v", i, entry, want[i])
		}
	}
}

func TestAnalyzeFeedbackStoreError(t *testing.T) {
	t.Parallel()

	st := &fakeFeedbackStore{err: errors.New("db closed")}
	if _, err := AnalyzeFeedback(context.Background(), st); err == nil {
		t.Fatal("store error should propagate")
	}
}

func TestCachedFeedbackRefresh(t *testing.T) {
	t.Parallel()

	st := &fakeFeedbackStore{up: msgs("nice nice nice")}
	cf, err := NewCachedFeedback(context.Background(), st, "@every 1h", nil)
	if err != nil {
		t.Fatalf("NewCachedFeedback: %v", err)
	}
	defer cf.Stop()

	if got := cf.Signal().EncouragePhrases(); len(got) != 1 || got[0] != "nice" {
		t.Errorf("initial signal encourage phrases = %v, want [nice]", got)
	}

	st.up = msgs("clear clear clear clear")
	if err := cf.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got := cf.Signal().EncouragePhrases(); len(got) != 1 || got[0] != "clear" {
		t.Errorf("refreshed signal encourage phrases = %v, want [clear]", got)
	}
}

func TestCachedFeedbackEmptyScheduleRecomputes(t *testing.T) {
	t.Parallel()

	st := &fakeFeedbackStore{up: msgs("nice nice nice")}
	cf, err := NewCachedFeedback(context.Background(), st, "", nil)
	if err != nil {
		t.Fatalf("NewCachedFeedback: %v", err)
	}
	defer cf.Stop()

	if got := cf.Signal().EncouragePhrases(); len(got) != 1 || got[0] != "nice" {
		t.Errorf("encourage phrases = %v, want [nice]", got)
	}

	// Uncached mode sees store changes without an explicit Refresh.
	st.up = msgs("clear clear clear clear")
	if got := cf.Signal().EncouragePhrases(); len(got) != 1 || got[0] != "clear" {
		t.Errorf("encourage phrases after store change = %v, want [clear]", got)
	}
}

func TestCachedFeedbackRejectsBadSchedule(t *testing.T) {
	t.Parallel()

	st := &fakeFeedbackStore{}
	if _, err := NewCachedFeedback(context.Background(), st, "not a schedule", nil); err == nil {
		t.Fatal("invalid cron schedule should be rejected")
	}
}
