// Package websearch provides web search clients for the context pipeline.
// Three providers are supported: DuckDuckGo's free instant-answer API,
// Google Custom Search, and SerpAPI. Provider selection is automatic
// based on configured credentials (serpapi → google → duckduckgo), and
// the paid providers fall back to DuckDuckGo on any failure.
//
// Search never returns an error: a failing search yields a single
// sentinel "Search Unavailable" result so one dead source cannot abort
// a chat turn.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Result is one web search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Source  string `json:"source"`
}

// UnavailableTitle marks the sentinel result returned when search fails.
const UnavailableTitle = "Search Unavailable"

// IsUnavailable reports whether results contain only the failure sentinel.
func IsUnavailable(results []Result) bool {
	for _, r := range results {
		if r.Title != UnavailableTitle {
			return false
		}
	}
	return true
}

// Searcher performs a web search. Implementations must not return errors;
// they degrade to the sentinel result instead.
type Searcher interface {
	Search(ctx context.Context, query string, numResults int) []Result
}

// Config holds web search provider settings.
type Config struct {
	// Provider selects the search backend: "auto", "duckduckgo",
	// "google", "serpapi". Auto prefers serpapi, then google, then
	// duckduckgo, based on which credentials are present.
	Provider string `yaml:"provider"`

	// DuckDuckGoURL overrides the instant-answer API endpoint.
	DuckDuckGoURL string `yaml:"duckduckgo_url"`

	GoogleAPIKey string `yaml:"google_api_key"`
	GoogleCSEID  string `yaml:"google_cse_id"`
	GoogleURL    string `yaml:"google_url"`

	SerpAPIKey string `yaml:"serpapi_key"`
	SerpAPIURL string `yaml:"serpapi_url"`

	// TimeoutSeconds bounds each search HTTP call (default: 10).
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// Effective returns a copy with defaults filled in for zero fields.
func (c Config) Effective() Config {
	out := c
	if out.Provider == "" {
		out.Provider = "auto"
	}
	if out.DuckDuckGoURL == "" {
		out.DuckDuckGoURL = "https://api.duckduckgo.com/"
	}
	if out.GoogleURL == "" {
		out.GoogleURL = "https://www.googleapis.com/customsearch/v1"
	}
	if out.SerpAPIURL == "" {
		out.SerpAPIURL = "https://serpapi.com/search"
	}
	if out.TimeoutSeconds <= 0 {
		out.TimeoutSeconds = 10
	}
	return out
}

// New builds a Searcher for the configured provider.
func New(cfg Config, logger *slog.Logger) Searcher {
	cfg = cfg.Effective()
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "websearch")

	client := &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second}
	ddg := &duckDuckGo{baseURL: cfg.DuckDuckGoURL, client: client, logger: logger}

	provider := cfg.Provider
	if provider == "auto" {
		switch {
		case cfg.SerpAPIKey != "":
			provider = "serpapi"
		case cfg.GoogleAPIKey != "" && cfg.GoogleCSEID != "":
			provider = "google"
		default:
			provider = "duckduckgo"
		}
	}

	switch provider {
	case "serpapi":
		if cfg.SerpAPIKey == "" {
			logger.Warn("serpapi selected without API key, using duckduckgo")
			return ddg
		}
		return &serpAPI{cfg: cfg, client: client, fallback: ddg, logger: logger}
	case "google":
		if cfg.GoogleAPIKey == "" || cfg.GoogleCSEID == "" {
			logger.Warn("google selected without credentials, using duckduckgo")
			return ddg
		}
		return &googleCustom{cfg: cfg, client: client, fallback: ddg, logger: logger}
	default:
		return ddg
	}
}

// unavailable returns the sentinel result for a failed search.
func unavailable(query string) []Result {
	return []Result{{
		Title:   UnavailableTitle,
		URL:     "",
		Snippet: fmt.Sprintf("Web search for '%s' is currently unavailable. Please try again later.", query),
		Source:  "error",
	}}
}

// ---------- DuckDuckGo ----------

// duckDuckGo queries the free instant-answer API.
type duckDuckGo struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// ddgResponse mirrors the instant-answer API fields we consume.
type ddgResponse struct {
	Heading       string     `json:"Heading"`
	Abstract      string     `json:"Abstract"`
	AbstractURL   string     `json:"AbstractURL"`
	RelatedTopics []ddgTopic `json:"RelatedTopics"`
}

type ddgTopic struct {
	Text     string `json:"Text"`
	FirstURL string `json:"FirstURL"`
}

func (d *duckDuckGo) Search(ctx context.Context, query string, numResults int) []Result {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("no_redirect", "1")
	params.Set("no_html", "1")
	params.Set("skip_disambig", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		d.logger.Error("building duckduckgo request", "error", err)
		return unavailable(query)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.Error("duckduckgo request failed", "error", err)
		return unavailable(query)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		d.logger.Error("duckduckgo returned error status", "status", resp.StatusCode)
		return []Result{}
	}

	var data ddgResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		d.logger.Error("decoding duckduckgo response", "error", err)
		return unavailable(query)
	}

	var results []Result
	if data.Abstract != "" {
		title := data.Heading
		if title == "" {
			title = "Instant Answer"
		}
		results = append(results, Result{
			Title:   title,
			URL:     data.AbstractURL,
			Snippet: data.Abstract,
			Source:  "duckduckgo_instant",
		})
	}
	for _, topic := range data.RelatedTopics {
		if len(results) >= numResults {
			break
		}
		if topic.Text == "" {
			continue
		}
		results = append(results, Result{
			Title:   topicTitle(topic.FirstURL),
			URL:     topic.FirstURL,
			Snippet: topic.Text,
			Source:  "duckduckgo_related",
		})
	}

	d.logger.Info("web search done", "provider", "duckduckgo", "query", query, "results", len(results))
	if len(results) > numResults {
		results = results[:numResults]
	}
	return results
}

// topicTitle derives a readable title from a DuckDuckGo topic URL.
func topicTitle(firstURL string) string {
	parts := strings.Split(firstURL, "/")
	last := parts[len(parts)-1]
	return strings.ReplaceAll(last, "_", " ")
}

// ---------- Google Custom Search ----------

type googleCustom struct {
	cfg      Config
	client   *http.Client
	fallback Searcher
	logger   *slog.Logger
}

type googleResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
}

func (g *googleCustom) Search(ctx context.Context, query string, numResults int) []Result {
	if numResults > 10 {
		numResults = 10 // API maximum per request.
	}
	params := url.Values{}
	params.Set("key", g.cfg.GoogleAPIKey)
	params.Set("cx", g.cfg.GoogleCSEID)
	params.Set("q", query)
	params.Set("num", fmt.Sprint(numResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.cfg.GoogleURL+"?"+params.Encode(), nil)
	if err != nil {
		g.logger.Error("building google request", "error", err)
		return g.fallback.Search(ctx, query, numResults)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Error("google search failed", "error", err)
		return g.fallback.Search(ctx, query, numResults)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		g.logger.Error("google search returned error status", "status", resp.StatusCode)
		return g.fallback.Search(ctx, query, numResults)
	}

	var data googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		g.logger.Error("decoding google response", "error", err)
		return g.fallback.Search(ctx, query, numResults)
	}

	var results []Result
	for _, item := range data.Items {
		results = append(results, Result{
			Title:   item.Title,
			URL:     item.Link,
			Snippet: item.Snippet,
			Source:  "google_custom",
		})
	}
	g.logger.Info("web search done", "provider", "google", "query", query, "results", len(results))
	return results
}

// ---------- SerpAPI ----------

type serpAPI struct {
	cfg      Config
	client   *http.Client
	fallback Searcher
	logger   *slog.Logger
}

type serpResponse struct {
	OrganicResults []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic_results"`
}

func (s *serpAPI) Search(ctx context.Context, query string, numResults int) []Result {
	if numResults > 10 {
		numResults = 10
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("api_key", s.cfg.SerpAPIKey)
	params.Set("engine", "google")
	params.Set("num", fmt.Sprint(numResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.SerpAPIURL+"?"+params.Encode(), nil)
	if err != nil {
		s.logger.Error("building serpapi request", "error", err)
		return s.fallback.Search(ctx, query, numResults)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("serpapi search failed", "error", err)
		return s.fallback.Search(ctx, query, numResults)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.Error("serpapi returned error status", "status", resp.StatusCode)
		return s.fallback.Search(ctx, query, numResults)
	}

	var data serpResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		s.logger.Error("decoding serpapi response", "error", err)
		return s.fallback.Search(ctx, query, numResults)
	}

	var results []Result
	for _, item := range data.OrganicResults {
		results = append(results, Result{
			Title:   item.Title,
			URL:     item.Link,
			Snippet: item.Snippet,
			Source:  "serpapi",
		})
	}
	s.logger.Info("web search done", "provider", "serpapi", "query", query, "results", len(results))
	return results
}
