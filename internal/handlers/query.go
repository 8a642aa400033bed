package handlers

import (
	"encoding/json"
	"net/http"

	"docqa/internal/contextutil"
	"docqa/internal/corpus"
	"docqa/internal/rag"
)

// QueryHandler answers questions against the persistent document index.
// The corpus getter returns the current index snapshot, or nil when no
// index is configured or startup indexing has not finished yet.
type QueryHandler struct {
	corpus func() *corpus.Corpus
	engine rag.Engine
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(corpusFn func() *corpus.Corpus, engine rag.Engine) *QueryHandler {
	return &QueryHandler{corpus: corpusFn, engine: engine}
}

// QueryHTTPRequest represents the HTTP request payload for index queries.
// Strict defaults to false: the persistent index spans many documents and
// callers usually want a best-effort answer.
type QueryHTTPRequest struct {
	Question string `json:"q"`
	K        int    `json:"k,omitempty"`
	Strict   bool   `json:"strict,omitempty"`
}

// ServeHTTP handles POST question requests against the persistent index.
func (h *QueryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req QueryHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c := h.corpus()
	if c == nil {
		writeError(w, http.StatusNotFound, "No document index available")
		return
	}

	result, err := h.engine.Ask(ctx, c, rag.AskRequest{
		Question: req.Question,
		K:        req.K,
		Strict:   req.Strict,
	})
	if err != nil {
		writeServiceError(ctx, w, err, "Failed to answer question")
		return
	}

	writeJSON(w, http.StatusOK, AskHTTPResponse{
		Answer:    result.Answer,
		Citations: result.Citations,
		Retrieved: result.Retrieved,
	})
}
