// Package gateway – handlers.go implements the HTTP API endpoints.
package gateway

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/avianto/synthtalk/pkg/synthtalk/assistant"
	"github.com/avianto/synthtalk/pkg/synthtalk/store"
	"github.com/avianto/synthtalk/pkg/synthtalk/websearch"
)

// maxBodyBytes caps request bodies; document uploads are the largest
// expected payload.
const maxBodyBytes = 2 * 1024 * 1024

// ---------- Wire types ----------

type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

type sessionJSON struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type messageJSON struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Sender     string    `json:"sender"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	ThumbsUp   bool      `json:"thumbs_up"`
	ThumbsDown bool      `json:"thumbs_down"`
}

type documentJSON struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploaded_at"`
	Characters int       `json:"characters"`
}

type chatResponseJSON struct {
	UserMessage  messageJSON    `json:"user_message"`
	BotMessage   messageJSON    `json:"bot_message"`
	Category     string         `json:"category"`
	SourcesUsed  []string       `json:"sources_used"`
	ResultCounts map[string]int `json:"result_counts,omitempty"`
	Reasoning    string         `json:"reasoning,omitempty"`
}

func toSessionJSON(s store.Session) sessionJSON {
	return sessionJSON{ID: s.ID, Name: s.Name, CreatedAt: s.CreatedAt}
}

func toMessageJSON(m store.Message) messageJSON {
	return messageJSON{
		ID:         m.ID,
		SessionID:  m.SessionID,
		Sender:     m.Sender,
		Content:    m.Content,
		Timestamp:  m.Timestamp,
		ThumbsUp:   m.ThumbsUp,
		ThumbsDown: m.ThumbsDown,
	}
}

func toDocumentJSON(d store.Document) documentJSON {
	return documentJSON{
		ID:         d.ID,
		SessionID:  d.SessionID,
		Filename:   d.Filename,
		UploadedAt: d.UploadedAt,
		Characters: len(d.Text),
	}
}

// ---------- Helpers ----------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, errorResponse{Error: errorDetail{Message: message, Code: code}})
}

// decodeBody reads a size-limited JSON body into dst.
func decodeBody(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(body) == 0 {
		return fmt.Errorf("empty request body")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("parse json: %w", err)
	}
	return nil
}

// ---------- Handlers ----------

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(g.startedAt).Round(time.Second).String(),
	})
}

func (g *Gateway) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := g.assistant.Store().ListSessions(r.Context())
	if err != nil {
		g.logger.Error("list sessions failed", "error", err)
		writeError(w, http.StatusInternalServerError, "listing sessions failed", "internal_error")
		return
	}
	out := make([]sessionJSON, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toSessionJSON(s))
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": out})
}

func (g *Gateway) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "invalid_request")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		req.Name = "New research session"
	}
	sess, err := g.assistant.Store().CreateSession(r.Context(), req.Name)
	if err != nil {
		g.logger.Error("create session failed", "error", err)
		writeError(w, http.StatusInternalServerError, "creating session failed", "internal_error")
		return
	}
	writeJSON(w, http.StatusCreated, toSessionJSON(sess))
}

func (g *Gateway) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess, err := g.assistant.Store().GetSession(r.Context(), id)
	if err != nil {
		g.logger.Error("get session failed", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "loading session failed", "internal_error")
		return
	}
	if sess == nil {
		writeError(w, http.StatusNotFound, "session not found", "not_found")
		return
	}
	writeJSON(w, http.StatusOK, toSessionJSON(*sess))
}

func (g *Gateway) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := g.assistant.Store().DeleteSession(r.Context(), id); err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, "session not found", "not_found")
			return
		}
		g.logger.Error("delete session failed", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "deleting session failed", "internal_error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (g *Gateway) handleListMessages(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	messages, err := g.assistant.Store().RecentMessages(r.Context(), id, 200)
	if err != nil {
		g.logger.Error("list messages failed", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "listing messages failed", "internal_error")
		return
	}
	out := make([]messageJSON, 0, len(messages))
	for _, m := range messages {
		out = append(out, toMessageJSON(m))
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": out})
}

func (g *Gateway) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	docs, err := g.assistant.Store().DocumentsBySession(r.Context(), id)
	if err != nil {
		g.logger.Error("list documents failed", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "listing documents failed", "internal_error")
		return
	}
	out := make([]documentJSON, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDocumentJSON(d))
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": out})
}

func (g *Gateway) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Message   string `json:"message"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "invalid_request")
		return
	}
	if req.SessionID == "" || strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "session_id and message are required", "invalid_request")
		return
	}

	result, err := g.assistant.Respond(r.Context(), req.SessionID, req.Message)
	if err != nil {
		g.logger.Error("chat turn failed", "session_id", req.SessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "chat turn failed", "internal_error")
		return
	}

	sources := make([]string, 0, len(result.Bundle.SourcesUsed))
	for _, s := range result.Bundle.SourcesUsed {
		sources = append(sources, string(s))
	}
	var counts map[string]int
	if len(result.Bundle.SearchResultCounts) > 0 {
		counts = make(map[string]int, len(result.Bundle.SearchResultCounts))
		for kind, n := range result.Bundle.SearchResultCounts {
			counts[string(kind)] = n
		}
	}
	writeJSON(w, http.StatusOK, chatResponseJSON{
		UserMessage:  toMessageJSON(result.UserMessage),
		BotMessage:   toMessageJSON(result.BotMessage),
		Category:     string(result.Bundle.QuestionCategory),
		SourcesUsed:  sources,
		ResultCounts: counts,
		Reasoning:    result.Bundle.ReasoningText,
	})
}

func (g *Gateway) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Filename  string `json:"filename"`
		Text      string `json:"text"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "invalid_request")
		return
	}
	if req.SessionID == "" || req.Filename == "" || req.Text == "" {
		writeError(w, http.StatusBadRequest, "session_id, filename, and text are required", "invalid_request")
		return
	}
	doc, err := g.assistant.Store().SaveDocument(r.Context(), req.SessionID, req.Filename, req.Text)
	if err != nil {
		g.logger.Error("document upload failed", "session_id", req.SessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "saving document failed", "internal_error")
		return
	}
	writeJSON(w, http.StatusCreated, toDocumentJSON(doc))
}

func (g *Gateway) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MessageID string `json:"message_id"`
		Feedback  string `json:"feedback"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "invalid_request")
		return
	}
	var flag store.FeedbackFlag
	switch req.Feedback {
	case "thumbs_up":
		flag = store.ThumbsUp
	case "thumbs_down":
		flag = store.ThumbsDown
	default:
		writeError(w, http.StatusBadRequest, "feedback must be thumbs_up or thumbs_down", "invalid_request")
		return
	}
	if err := g.assistant.Store().SetFeedback(r.Context(), req.MessageID, flag); err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, "message not found", "not_found")
			return
		}
		g.logger.Error("set feedback failed", "message_id", req.MessageID, "error", err)
		writeError(w, http.StatusInternalServerError, "saving feedback failed", "internal_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

func (g *Gateway) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "invalid_request")
		return
	}
	category := g.assistant.ClassifyQuestion(req.Message)
	writeJSON(w, http.StatusOK, map[string]string{"category": string(category)})
}

func (g *Gateway) handleExplain(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "invalid_request")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"explanation": g.assistant.Explain(r.Context(), req.Content),
	})
}

func (g *Gateway) handleClarify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "invalid_request")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"clarification": g.assistant.Clarify(r.Context(), req.Content),
	})
}

func (g *Gateway) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Text      string `json:"text"`
		Format    string `json:"format"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "invalid_request")
		return
	}
	format := assistant.SummaryFormat(req.Format)
	if format == "" {
		format = assistant.SummaryBullet
	}

	var summary string
	var err error
	switch {
	case req.Text != "":
		summary, err = assistant.Summarize(req.Text, format)
	case req.SessionID != "":
		summary, err = assistant.SummarizeDocuments(r.Context(), g.assistant.Store(), req.SessionID, format)
	default:
		writeError(w, http.StatusBadRequest, "either text or session_id is required", "invalid_request")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "invalid_request")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"summary": summary})
}

// ---------- Notes ----------

type noteJSON struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	MessageID string    `json:"message_id,omitempty"`
	Content   string    `json:"content"`
	Tags      string    `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toNoteJSON(n store.Note) noteJSON {
	return noteJSON{
		ID:        n.ID,
		SessionID: n.SessionID,
		MessageID: n.MessageID,
		Content:   n.Content,
		Tags:      n.Tags,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

func (g *Gateway) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Content   string `json:"content"`
		MessageID string `json:"message_id"`
		Tags      string `json:"tags"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "invalid_request")
		return
	}
	if req.SessionID == "" || strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "session_id and content are required", "invalid_request")
		return
	}
	note, err := g.assistant.Store().CreateNote(r.Context(), req.SessionID, req.Content, req.MessageID, req.Tags)
	if err != nil {
		g.logger.Error("create note failed", "session_id", req.SessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "creating note failed", "internal_error")
		return
	}
	writeJSON(w, http.StatusCreated, toNoteJSON(note))
}

func (g *Gateway) handleListNotes(w http.ResponseWriter, r *http.Request) {
	filter := store.NoteFilter{
		SessionID: r.URL.Query().Get("session_id"),
		MessageID: r.URL.Query().Get("message_id"),
		Query:     r.URL.Query().Get("q"),
	}
	notes, err := g.assistant.Store().ListNotes(r.Context(), filter)
	if err != nil {
		g.logger.Error("list notes failed", "error", err)
		writeError(w, http.StatusInternalServerError, "listing notes failed", "internal_error")
		return
	}
	out := make([]noteJSON, 0, len(notes))
	for _, n := range notes {
		out = append(out, toNoteJSON(n))
	}
	writeJSON(w, http.StatusOK, map[string]any{"notes": out})
}

func (g *Gateway) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req struct {
		Content string `json:"content"`
		Tags    string `json:"tags"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "invalid_request")
		return
	}
	note, err := g.assistant.Store().UpdateNote(r.Context(), id, req.Content, req.Tags)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, "note not found", "not_found")
			return
		}
		g.logger.Error("update note failed", "note_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "updating note failed", "internal_error")
		return
	}
	writeJSON(w, http.StatusOK, toNoteJSON(note))
}

func (g *Gateway) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := g.assistant.Store().DeleteNote(r.Context(), id); err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, "note not found", "not_found")
			return
		}
		g.logger.Error("delete note failed", "note_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "deleting note failed", "internal_error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------- Standalone search ----------

type documentHitJSON struct {
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename"`
	Snippet    string  `json:"snippet"`
	Similarity float64 `json:"similarity"`
}

func (g *Gateway) handleWebSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required", "invalid_request")
		return
	}
	numResults := 5
	if n, err := strconv.Atoi(r.URL.Query().Get("n")); err == nil && n > 0 {
		numResults = n
	}
	results := g.assistant.SearchWeb(r.Context(), query, numResults)
	writeJSON(w, http.StatusOK, map[string]any{
		"query":     query,
		"available": !websearch.IsUnavailable(results),
		"results":   results,
	})
}

func (g *Gateway) handleDocumentSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	sessionID := r.URL.Query().Get("session_id")
	if query == "" || sessionID == "" {
		writeError(w, http.StatusBadRequest, "q and session_id are required", "invalid_request")
		return
	}
	hits, err := g.assistant.Store().SearchDocuments(r.Context(), query, sessionID)
	if err != nil {
		g.logger.Error("document search failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "document search failed", "internal_error")
		return
	}
	out := make([]documentHitJSON, 0, len(hits))
	for _, h := range hits {
		out = append(out, documentHitJSON(h))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":   query,
		"results": out,
	})
}

func (g *Gateway) handleCombinedSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	sessionID := r.URL.Query().Get("session_id")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required", "invalid_request")
		return
	}

	web := g.assistant.SearchWeb(r.Context(), query, 5)

	var docs []documentHitJSON
	if sessionID != "" {
		hits, err := g.assistant.Store().SearchDocuments(r.Context(), query, sessionID)
		if err != nil {
			g.logger.Error("document search failed", "session_id", sessionID, "error", err)
			writeError(w, http.StatusInternalServerError, "document search failed", "internal_error")
			return
		}
		docs = make([]documentHitJSON, 0, len(hits))
		for _, h := range hits {
			docs = append(docs, documentHitJSON(h))
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"query":         query,
		"web_available": !websearch.IsUnavailable(web),
		"web":           web,
		"documents":     docs,
	})
}
