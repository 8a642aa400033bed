package handlers

import (
	"encoding/json"
	"net/http"

	"docqa/internal/contextutil"
	"docqa/internal/rag"
	"docqa/internal/session"
)

// AskHandler answers questions against an upload session's corpus.
type AskHandler struct {
	sessions session.Store
	engine   rag.Engine
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(sessions session.Store, engine rag.Engine) *AskHandler {
	return &AskHandler{sessions: sessions, engine: engine}
}

// AskHTTPRequest represents the HTTP request payload for session queries.
// Strict defaults to true when omitted.
type AskHTTPRequest struct {
	SessionID string `json:"session_id"`
	Question  string `json:"q"`
	K         int    `json:"k,omitempty"`
	Strict    *bool  `json:"strict,omitempty"`
}

// AskHTTPResponse represents the HTTP response payload for queries.
type AskHTTPResponse struct {
	Answer    string         `json:"answer"`
	Citations []rag.Citation `json:"citations"`
	Retrieved []rag.Hit      `json:"retrieved"`
	Filename  string         `json:"filename,omitempty"`
}

// ServeHTTP handles POST question requests against a session.
func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req AskHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	sess, err := h.sessions.Get(req.SessionID)
	if err != nil {
		writeServiceError(ctx, w, err, "Failed to load session")
		return
	}

	strict := true
	if req.Strict != nil {
		strict = *req.Strict
	}

	result, err := h.engine.Ask(ctx, sess.Corpus, rag.AskRequest{
		Question: req.Question,
		K:        req.K,
		Strict:   strict,
	})
	if err != nil {
		writeServiceError(ctx, w, err, "Failed to answer question")
		return
	}

	writeJSON(w, http.StatusOK, AskHTTPResponse{
		Answer:    result.Answer,
		Citations: result.Citations,
		Retrieved: result.Retrieved,
		Filename:  sess.Filename,
	})
}
