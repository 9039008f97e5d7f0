// Package store – search.go implements lexical document search using a
// word-set Jaccard index, with a windowed snippet extractor that centers
// on the text region containing the most query words. The hit shape is
// deliberately the same as embedding-based retrieval would produce, so a
// semantic backend can replace this one without touching callers.
package store

import (
	"context"
	"sort"
	"strings"
)

const (
	// similarityThreshold is the minimum Jaccard index for a document
	// to count as a hit.
	similarityThreshold = 0.1

	// snippetWindow is the sliding-window size in words used to locate
	// the densest query-word region.
	snippetWindow = 40

	// snippetBefore/snippetAfter bound the extracted snippet around the
	// best window's start.
	snippetBefore = 10
	snippetAfter  = 30

	// snippetMaxChars caps the returned snippet length.
	snippetMaxChars = 200
)

// DocumentHit is one document search result.
type DocumentHit struct {
	DocumentID string
	Filename   string
	Snippet    string
	Similarity float64
}

// SearchDocuments ranks the session's documents against the query by
// word-set Jaccard similarity and returns hits above the threshold,
// best first. A session with no matching documents yields no hits and
// no error.
func (s *SQLiteStore) SearchDocuments(ctx context.Context, query, sessionID string) ([]DocumentHit, error) {
	docs, err := s.DocumentsBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	queryWords := wordSet(query)
	if len(queryWords) == 0 {
		return nil, nil
	}

	var hits []DocumentHit
	for _, doc := range docs {
		score := jaccard(queryWords, wordSet(doc.Text))
		if score <= similarityThreshold {
			continue
		}
		hits = append(hits, DocumentHit{
			DocumentID: doc.ID,
			Filename:   doc.Filename,
			Snippet:    extractSnippet(doc.Text, queryWords),
			Similarity: score,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})

	s.logger.Debug("document search",
		"session_id", sessionID,
		"documents", len(docs),
		"hits", len(hits),
	)
	return hits, nil
}

// wordSet returns the set of lowercased whitespace-delimited words.
func wordSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		set[w] = true
	}
	return set
}

// jaccard computes |intersection| / |union| of two word sets.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for w := range a {
		if b[w] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// extractSnippet slides a fixed window over the document, scores each
// window by how many query words it contains, and returns the text
// around the best window's start, capped at snippetMaxChars.
func extractSnippet(text string, queryWords map[string]bool) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	bestStart, bestScore := 0, -1
	for start := 0; start < len(words); start += snippetWindow {
		end := start + snippetWindow
		if end > len(words) {
			end = len(words)
		}
		score := 0
		for _, w := range words[start:end] {
			if queryWords[strings.ToLower(w)] {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			bestStart = start
		}
	}

	from := bestStart - snippetBefore
	if from < 0 {
		from = 0
	}
	to := bestStart + snippetAfter
	if to > len(words) {
		to = len(words)
	}

	snippet := strings.Join(words[from:to], " ")
	if len(snippet) > snippetMaxChars {
		snippet = snippet[:snippetMaxChars] + "..."
	}
	return snippet
}
