// Package assistant – llm.go implements the LLM provider chain for chat
// completions. Uses the OpenAI-compatible API format, which works with
// OpenAI, Groq, Ollama, and any compatible endpoint. Providers are tried
// in configuration order; the first success wins and no further provider
// is attempted.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// chainSystemPrompt is the system role content sent on every completion.
const chainSystemPrompt = "You are a helpful research assistant."

// apologyPrefix opens the synthesized response returned when every
// provider fails. The turn always completes with some bot message.
const apologyPrefix = "I apologize, but I'm currently unable to process your request due to technical issues with the AI services. Please try again later. Error details: "

// ---------- Provider configuration ----------

// ProviderConfig describes one LLM backend in the fallback chain.
type ProviderConfig struct {
	Name           string  `yaml:"name"`
	BaseURL        string  `yaml:"base_url"`
	APIKey         string  `yaml:"api_key"`
	Model          string  `yaml:"model"`
	MaxTokens      int     `yaml:"max_tokens"`
	Temperature    float64 `yaml:"temperature"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

// Effective returns a copy with defaults applied.
func (p ProviderConfig) Effective() ProviderConfig {
	if p.MaxTokens == 0 {
		p.MaxTokens = 500
	}
	if p.Temperature == 0 {
		p.Temperature = 0.7
	}
	if p.TimeoutSeconds == 0 {
		p.TimeoutSeconds = 30
	}
	p.BaseURL = strings.TrimRight(p.BaseURL, "/")
	return p
}

// ---------- Wire Types (OpenAI-compatible) ----------

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// ---------- Error Classification ----------

// llmErrorKind classifies provider failures for logging.
type llmErrorKind int

const (
	llmErrorRetryable  llmErrorKind = iota // transient 5xx
	llmErrorRateLimit                      // 429
	llmErrorAuth                           // 401, 403
	llmErrorBilling                        // 402 or billing-related in body
	llmErrorTimeout                        // deadline exceeded
	llmErrorBadRequest                     // 400
	llmErrorFatal                          // everything else
)

func (k llmErrorKind) String() string {
	switch k {
	case llmErrorRetryable:
		return "retryable"
	case llmErrorRateLimit:
		return "rate_limit"
	case llmErrorAuth:
		return "auth"
	case llmErrorBilling:
		return "billing"
	case llmErrorTimeout:
		return "timeout"
	case llmErrorBadRequest:
		return "bad_request"
	default:
		return "fatal"
	}
}

// apiError captures HTTP status and body from a failed provider call.
type apiError struct {
	statusCode int
	body       string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("API returned %d: %s", e.statusCode, truncateForLog(e.body, 200))
}

// classifyAPIError determines the error kind from status code and body.
func classifyAPIError(statusCode int, body string) llmErrorKind {
	bodyLower := strings.ToLower(body)

	if statusCode == 402 ||
		strings.Contains(bodyLower, "billing") ||
		strings.Contains(bodyLower, "quota") ||
		strings.Contains(bodyLower, "insufficient_quota") {
		return llmErrorBilling
	}
	if statusCode == 429 ||
		strings.Contains(bodyLower, "rate_limit") ||
		strings.Contains(bodyLower, "rate limit") {
		return llmErrorRateLimit
	}
	if strings.Contains(bodyLower, "timeout") ||
		strings.Contains(bodyLower, "deadline") {
		return llmErrorTimeout
	}

	switch statusCode {
	case 400:
		return llmErrorBadRequest
	case 401, 403:
		return llmErrorAuth
	default:
		if statusCode >= 500 {
			return llmErrorRetryable
		}
		return llmErrorFatal
	}
}

func truncateForLog(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// ---------- Chain ----------

// ProviderAttempt records the outcome of one provider invocation.
type ProviderAttempt struct {
	ProviderName string
	Response     string
	Err          error
}

// Chain tries a fixed ordered list of providers until one succeeds.
type Chain struct {
	providers  []ProviderConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// NewChain builds a provider chain. Per-call timeouts come from each
// provider's config, so the shared client carries no global timeout.
func NewChain(providers []ProviderConfig, logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	effective := make([]ProviderConfig, len(providers))
	for i, p := range providers {
		effective[i] = p.Effective()
	}
	return &Chain{
		providers: effective,
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     120 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		logger: logger.With("component", "llm"),
	}
}

// GetResponse attempts each provider in order and returns the first
// successful completion. If every provider fails, it returns an apology
// string embedding all failure reasons — never an error, so the chat
// turn always completes with some bot message.
func (c *Chain) GetResponse(ctx context.Context, prompt string) string {
	text, _ := c.getResponse(ctx, prompt)
	return text
}

// GetResponseWithAttempts also returns the per-provider attempt record
// for callers that log or surface the fallback path.
func (c *Chain) GetResponseWithAttempts(ctx context.Context, prompt string) (string, []ProviderAttempt) {
	return c.getResponse(ctx, prompt)
}

func (c *Chain) getResponse(ctx context.Context, prompt string) (string, []ProviderAttempt) {
	attempts := make([]ProviderAttempt, 0, len(c.providers))
	var reasons []string

	for _, provider := range c.providers {
		c.logger.Debug("attempting provider", "provider", provider.Name, "model", provider.Model)

		start := time.Now()
		text, err := c.callProvider(ctx, provider, prompt)
		if err == nil {
			c.logger.Info("provider succeeded",
				"provider", provider.Name,
				"duration_ms", time.Since(start).Milliseconds(),
				"response_len", len(text))
			attempts = append(attempts, ProviderAttempt{ProviderName: provider.Name, Response: text})
			return text, attempts
		}

		kind := llmErrorFatal
		var apierr *apiError
		if errors.As(err, &apierr) {
			kind = classifyAPIError(apierr.statusCode, apierr.body)
		} else if ctx.Err() != nil || strings.Contains(err.Error(), "deadline") {
			kind = llmErrorTimeout
		}
		c.logger.Warn("provider failed",
			"provider", provider.Name,
			"kind", kind.String(),
			"error", err)

		attempts = append(attempts, ProviderAttempt{ProviderName: provider.Name, Err: err})
		reasons = append(reasons, fmt.Sprintf("%s: %s", provider.Name, err.Error()))
	}

	c.logger.Error("all providers failed", "providers", len(c.providers))
	return apologyPrefix + strings.Join(reasons, "; "), attempts
}

// callProvider performs a single OpenAI-compatible completion request.
func (c *Chain) callProvider(ctx context.Context, p ProviderConfig, prompt string) (string, error) {
	if p.APIKey == "" {
		return "", fmt.Errorf("API key not configured")
	}

	reqBody := chatRequest{
		Model: p.Model,
		Messages: []chatMessage{
			{Role: "system", Content: chainSystemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   p.MaxTokens,
		Temperature: p.Temperature,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, time.Duration(p.TimeoutSeconds)*time.Second)
	defer cancel()

	endpoint := p.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &apiError{statusCode: resp.StatusCode, body: string(respBody)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("empty choices in response")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("empty completion content")
	}
	return content, nil
}
