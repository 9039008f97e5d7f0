package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/avianto/synthtalk/pkg/synthtalk/assistant"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestGateway stands up a full assistant against a stub completions
// endpoint and a temp database, and returns the gateway's API server.
func newTestGateway(t *testing.T, gwCfg assistant.GatewayConfig) *httptest.Server {
	t.Helper()

	llm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"Stubbed answer."}}]}`)
	}))
	t.Cleanup(llm.Close)

	ddg := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"Heading":"Solar power","Abstract":"Solar power converts sunlight.","AbstractURL":"https://example.org/solar"}`)
	}))
	t.Cleanup(ddg.Close)

	cfg := assistant.DefaultConfig()
	cfg.Database = filepath.Join(t.TempDir(), "gateway_test.db")
	cfg.Context.IncludeWebSearch = false
	cfg.Search.Provider = "duckduckgo"
	cfg.Search.DuckDuckGoURL = ddg.URL
	cfg.Providers = []assistant.ProviderConfig{{
		Name:    "stub",
		BaseURL: llm.URL,
		APIKey:  "test-key",
		Model:   "stub-model",
	}}

	a, err := assistant.New(context.Background(), cfg, testLogger())
	if err != nil {
		t.Fatalf("New assistant: %v", err)
	}
	t.Cleanup(func() { a.Close() })

	g := New(a, gwCfg, testLogger())
	srv := httptest.NewServer(g.handler())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeInto(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func createSession(t *testing.T, base, name string) string {
	t.Helper()
	resp := postJSON(t, base+"/api/sessions", map[string]string{"name": name})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create session status = %d", resp.StatusCode)
	}
	var sess struct {
		ID string `json:"id"`
	}
	decodeInto(t, resp, &sess)
	if sess.ID == "" {
		t.Fatal("create session returned empty id")
	}
	return sess.ID
}

func TestCompareTokens(t *testing.T) {
	t.Parallel()

	if !compareTokens("secret", "secret") {
		t.Error("equal tokens should match")
	}
	if compareTokens("secret", "Secret") {
		t.Error("case-different tokens should not match")
	}
	if compareTokens("secret", "secret-longer") {
		t.Error("different-length tokens should not match")
	}
}

func TestIsLoopbackAddr(t *testing.T) {
	t.Parallel()

	tests := []struct {
		addr string
		want bool
	}{
		{"127.0.0.1:8090", true},
		{"localhost:8090", true},
		{"[::1]:8090", true},
		{":8090", true},
		{"0.0.0.0:8090", false},
		{"10.1.2.3:8090", false},
	}
	for _, tt := range tests {
		if got := isLoopbackAddr(tt.addr); got != tt.want {
			t.Errorf("isLoopbackAddr(%q) = %v, want %v", tt.addr, got, tt.want)
		}
	}
}

func TestHealthSkipsAuth(t *testing.T) {
	srv := newTestGateway(t, assistant.GatewayConfig{AuthToken: "secret"})

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d, want 200", resp.StatusCode)
	}
	var health struct {
		Status string `json:"status"`
	}
	decodeInto(t, resp, &health)
	if health.Status != "ok" {
		t.Errorf("health status = %q, want ok", health.Status)
	}
}

func TestAuthRequiredOnAPIRoutes(t *testing.T) {
	srv := newTestGateway(t, assistant.GatewayConfig{AuthToken: "secret"})

	resp, err := http.Get(srv.URL + "/api/sessions")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no-token status = %d, want 401", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/sessions", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET with bad token: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad-token status = %d, want 401", resp.StatusCode)
	}

	req, _ = http.NewRequest(http.MethodGet, srv.URL+"/api/sessions", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET with good token: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("good-token status = %d, want 200", resp.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestGateway(t, assistant.GatewayConfig{
		CORSOrigins: []string{"http://localhost:5173"},
	})

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/sessions", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want 204", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("allow-origin = %q", got)
	}

	req, _ = http.NewRequest(http.MethodOptions, srv.URL+"/api/sessions", nil)
	req.Header.Set("Origin", "http://evil.example")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("disallowed origin got allow-origin = %q", got)
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestGateway(t, assistant.GatewayConfig{})

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := resp.Header.Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}

func TestSessionLifecycle(t *testing.T) {
	srv := newTestGateway(t, assistant.GatewayConfig{})

	id := createSession(t, srv.URL, "inflation research")

	resp, err := http.Get(srv.URL + "/api/sessions/" + id)
	if err != nil {
		t.Fatalf("GET session: %v", err)
	}
	var sess struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	decodeInto(t, resp, &sess)
	if sess.Name != "inflation research" {
		t.Errorf("session name = %q", sess.Name)
	}

	resp, err = http.Get(srv.URL + "/api/sessions")
	if err != nil {
		t.Fatalf("GET sessions: %v", err)
	}
	var list struct {
		Sessions []struct {
			ID string `json:"id"`
		} `json:"sessions"`
	}
	decodeInto(t, resp, &list)
	if len(list.Sessions) != 1 || list.Sessions[0].ID != id {
		t.Errorf("session list = %+v", list.Sessions)
	}

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/sessions/"+id, nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE session: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/api/sessions/" + id)
	if err != nil {
		t.Fatalf("GET deleted session: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("deleted session status = %d, want 404", resp.StatusCode)
	}
}

func TestChatEndpoint(t *testing.T) {
	srv := newTestGateway(t, assistant.GatewayConfig{})
	id := createSession(t, srv.URL, "chat test")

	resp := postJSON(t, srv.URL+"/api/chat", map[string]string{
		"session_id": id,
		"message":    "What is quantitative easing?",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("chat status = %d", resp.StatusCode)
	}
	var chat struct {
		BotMessage struct {
			Sender  string `json:"sender"`
			Content string `json:"content"`
		} `json:"bot_message"`
		Category string `json:"category"`
	}
	decodeInto(t, resp, &chat)
	if chat.BotMessage.Content != "Stubbed answer." {
		t.Errorf("bot content = %q", chat.BotMessage.Content)
	}
	if chat.BotMessage.Sender != "bot" {
		t.Errorf("bot sender = %q", chat.BotMessage.Sender)
	}
	if chat.Category != "factual" {
		t.Errorf("category = %q, want factual", chat.Category)
	}

	resp2, err := http.Get(srv.URL + "/api/sessions/" + id + "/messages")
	if err != nil {
		t.Fatalf("GET messages: %v", err)
	}
	var msgs struct {
		Messages []struct {
			Sender string `json:"sender"`
		} `json:"messages"`
	}
	decodeInto(t, resp2, &msgs)
	if len(msgs.Messages) != 2 {
		t.Fatalf("stored messages = %d, want 2", len(msgs.Messages))
	}
	if msgs.Messages[0].Sender != "user" || msgs.Messages[1].Sender != "bot" {
		t.Errorf("message order = %+v", msgs.Messages)
	}
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	srv := newTestGateway(t, assistant.GatewayConfig{})

	resp := postJSON(t, srv.URL+"/api/chat", map[string]string{
		"session_id": "s1",
		"message":    "   ",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestFeedbackEndpoint(t *testing.T) {
	srv := newTestGateway(t, assistant.GatewayConfig{})
	id := createSession(t, srv.URL, "feedback test")

	resp := postJSON(t, srv.URL+"/api/chat", map[string]string{
		"session_id": id,
		"message":    "Tell me about solar power.",
	})
	var chat struct {
		BotMessage struct {
			ID string `json:"id"`
		} `json:"bot_message"`
	}
	decodeInto(t, resp, &chat)

	resp = postJSON(t, srv.URL+"/api/feedback", map[string]string{
		"message_id": chat.BotMessage.ID,
		"feedback":   "thumbs_up",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("feedback status = %d", resp.StatusCode)
	}

	resp = postJSON(t, srv.URL+"/api/feedback", map[string]string{
		"message_id": chat.BotMessage.ID,
		"feedback":   "shrug",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad feedback value status = %d, want 400", resp.StatusCode)
	}

	resp = postJSON(t, srv.URL+"/api/feedback", map[string]string{
		"message_id": "no-such-message",
		"feedback":   "thumbs_down",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown message status = %d, want 404", resp.StatusCode)
	}
}

func TestClassifyEndpoint(t *testing.T) {
	srv := newTestGateway(t, assistant.GatewayConfig{})

	resp := postJSON(t, srv.URL+"/api/classify", map[string]string{
		"message": "List the steps to install solar panels.",
	})
	var out struct {
		Category string `json:"category"`
	}
	decodeInto(t, resp, &out)
	if out.Category != "procedural" {
		t.Errorf("category = %q, want procedural", out.Category)
	}
}

func TestDocumentUploadAndList(t *testing.T) {
	srv := newTestGateway(t, assistant.GatewayConfig{})
	id := createSession(t, srv.URL, "docs test")

	resp := postJSON(t, srv.URL+"/api/documents", map[string]string{
		"session_id": id,
		"filename":   "notes.txt",
		"text":       "Solar adoption is accelerating in key markets.",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload status = %d", resp.StatusCode)
	}
	var doc struct {
		Filename   string `json:"filename"`
		Characters int    `json:"characters"`
	}
	decodeInto(t, resp, &doc)
	if doc.Filename != "notes.txt" || doc.Characters == 0 {
		t.Errorf("document = %+v", doc)
	}

	resp2, err := http.Get(srv.URL + "/api/sessions/" + id + "/documents")
	if err != nil {
		t.Fatalf("GET documents: %v", err)
	}
	var list struct {
		Documents []struct {
			Filename string `json:"filename"`
		} `json:"documents"`
	}
	decodeInto(t, resp2, &list)
	if len(list.Documents) != 1 || list.Documents[0].Filename != "notes.txt" {
		t.Errorf("document list = %+v", list.Documents)
	}
}

func TestSummarizeEndpoint(t *testing.T) {
	srv := newTestGateway(t, assistant.GatewayConfig{})

	resp := postJSON(t, srv.URL+"/api/summarize", map[string]string{
		"text":   "Solar power is growing. Storage remains a key challenge.",
		"format": "insight",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("summarize status = %d", resp.StatusCode)
	}
	var out struct {
		Summary string `json:"summary"`
	}
	decodeInto(t, resp, &out)
	if out.Summary == "" {
		t.Error("summary is empty")
	}

	resp = postJSON(t, srv.URL+"/api/summarize", map[string]string{
		"text":   "Anything.",
		"format": "haiku",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown format status = %d, want 400", resp.StatusCode)
	}
}

func TestNotesAPI(t *testing.T) {
	srv := newTestGateway(t, assistant.GatewayConfig{})
	id := createSession(t, srv.URL, "notes test")

	resp := postJSON(t, srv.URL+"/api/notes", map[string]string{
		"session_id": id,
		"content":    "inflation is cooling",
		"tags":       "economy",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create note status = %d", resp.StatusCode)
	}
	var note struct {
		ID      string `json:"id"`
		Content string `json:"content"`
		Tags    string `json:"tags"`
	}
	decodeInto(t, resp, &note)
	if note.ID == "" || note.Tags != "economy" {
		t.Fatalf("created note = %+v", note)
	}

	resp = postJSON(t, srv.URL+"/api/notes", map[string]string{
		"session_id": id,
		"content":    "solar capacity doubled",
	})
	resp.Body.Close()

	list := func(params string) []struct {
		Content string `json:"content"`
	} {
		t.Helper()
		resp, err := http.Get(srv.URL + "/api/notes?" + params)
		if err != nil {
			t.Fatalf("GET notes: %v", err)
		}
		var out struct {
			Notes []struct {
				Content string `json:"content"`
			} `json:"notes"`
		}
		decodeInto(t, resp, &out)
		return out.Notes
	}

	if got := list("session_id=" + id); len(got) != 2 {
		t.Fatalf("session notes = %+v, want 2", got)
	}
	if got := list("session_id=" + id + "&q=economy"); len(got) != 1 || got[0].Content != "inflation is cooling" {
		t.Errorf("tag-filtered notes = %+v", got)
	}

	body, _ := json.Marshal(map[string]string{"content": "inflation is rising"})
	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/api/notes/"+note.ID, bytes.NewReader(body))
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT note: %v", err)
	}
	var updated struct {
		Content string `json:"content"`
		Tags    string `json:"tags"`
	}
	decodeInto(t, resp2, &updated)
	if updated.Content != "inflation is rising" || updated.Tags != "economy" {
		t.Errorf("updated note = %+v", updated)
	}

	req, _ = http.NewRequest(http.MethodDelete, srv.URL+"/api/notes/"+note.ID, nil)
	resp2, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE note: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNoContent {
		t.Fatalf("delete note status = %d, want 204", resp2.StatusCode)
	}

	req, _ = http.NewRequest(http.MethodDelete, srv.URL+"/api/notes/"+note.ID, nil)
	resp2, _ = http.DefaultClient.Do(req)
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Fatalf("delete missing note status = %d, want 404", resp2.StatusCode)
	}
}

func TestWebSearchEndpoint(t *testing.T) {
	srv := newTestGateway(t, assistant.GatewayConfig{})

	resp, err := http.Get(srv.URL + "/api/search/web?q=solar")
	if err != nil {
		t.Fatalf("GET web search: %v", err)
	}
	var out struct {
		Available bool `json:"available"`
		Results   []struct {
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
		} `json:"results"`
	}
	decodeInto(t, resp, &out)
	if !out.Available {
		t.Fatal("stubbed search reported unavailable")
	}
	if len(out.Results) != 1 || out.Results[0].Title != "Solar power" {
		t.Errorf("results = %+v", out.Results)
	}

	resp, err = http.Get(srv.URL + "/api/search/web")
	if err != nil {
		t.Fatalf("GET web search without query: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing query status = %d, want 400", resp.StatusCode)
	}
}

func TestDocumentAndCombinedSearchEndpoints(t *testing.T) {
	srv := newTestGateway(t, assistant.GatewayConfig{})
	id := createSession(t, srv.URL, "search test")

	resp := postJSON(t, srv.URL+"/api/documents", map[string]string{
		"session_id": id,
		"filename":   "solar.txt",
		"text":       "Solar adoption is accelerating in key markets worldwide.",
	})
	resp.Body.Close()

	resp2, err := http.Get(srv.URL + "/api/search/documents?q=solar+adoption+markets&session_id=" + id)
	if err != nil {
		t.Fatalf("GET document search: %v", err)
	}
	var docOut struct {
		Results []struct {
			Filename   string  `json:"filename"`
			Similarity float64 `json:"similarity"`
		} `json:"results"`
	}
	decodeInto(t, resp2, &docOut)
	if len(docOut.Results) != 1 || docOut.Results[0].Filename != "solar.txt" {
		t.Fatalf("document results = %+v", docOut.Results)
	}
	if docOut.Results[0].Similarity <= 0 {
		t.Errorf("similarity = %v, want > 0", docOut.Results[0].Similarity)
	}

	resp2, err = http.Get(srv.URL + "/api/search/combined?q=solar+adoption+markets&session_id=" + id)
	if err != nil {
		t.Fatalf("GET combined search: %v", err)
	}
	var combined struct {
		WebAvailable bool `json:"web_available"`
		Web          []struct {
			Title string `json:"title"`
		} `json:"web"`
		Documents []struct {
			Filename string `json:"filename"`
		} `json:"documents"`
	}
	decodeInto(t, resp2, &combined)
	if !combined.WebAvailable || len(combined.Web) != 1 {
		t.Errorf("combined web = %+v", combined.Web)
	}
	if len(combined.Documents) != 1 || combined.Documents[0].Filename != "solar.txt" {
		t.Errorf("combined documents = %+v", combined.Documents)
	}
}
