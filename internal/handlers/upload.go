package handlers

import (
	"fmt"
	"io"
	"net/http"

	"docqa/internal/contextutil"
	"docqa/internal/corpus"
	"docqa/internal/ingest"
	"docqa/internal/session"
)

// maxUploadBytes bounds the multipart body of a document upload.
const maxUploadBytes = 20 << 20

// UploadHandler accepts a document upload, indexes it in memory and opens a
// question-answering session over it.
type UploadHandler struct {
	sessions session.Store
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(sessions session.Store) *UploadHandler {
	return &UploadHandler{sessions: sessions}
}

// UploadResponse represents the HTTP response payload for uploads.
type UploadResponse struct {
	SessionID string `json:"session_id"`
	Filename  string `json:"filename"`
	Chunks    int    `json:"chunks"`
	Pages     int    `json:"pages"`
}

// ServeHTTP handles multipart document uploads on the "file" field.
// Supported types: .pdf, .txt, .md.
func (h *UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		logger.WarnContext(ctx, "invalid multipart body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid multipart body")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		logger.ErrorContext(ctx, "failed to read upload", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to read upload")
		return
	}

	pages, err := ingest.Extract(header.Filename, data)
	if err != nil {
		logger.WarnContext(ctx, "extraction failed", "file", header.Filename, "error", err)
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Could not extract text: %v", err))
		return
	}

	chunks := ingest.BuildChunks(header.Filename, pages)
	if len(chunks) == 0 {
		writeError(w, http.StatusBadRequest, "Document contains no usable text")
		return
	}

	c, err := corpus.NewLexical(chunks)
	if err != nil {
		logger.WarnContext(ctx, "indexing failed", "file", header.Filename, "error", err)
		writeError(w, http.StatusBadRequest, "Document contains no indexable text")
		return
	}

	sess := session.New(header.Filename, c)
	h.sessions.Put(sess)

	logger.InfoContext(ctx, "upload indexed",
		"session_id", sess.ID,
		"file", header.Filename,
		"pages", len(pages),
		"chunks", len(chunks),
	)

	writeJSON(w, http.StatusOK, UploadResponse{
		SessionID: sess.ID,
		Filename:  header.Filename,
		Chunks:    len(chunks),
		Pages:     len(pages),
	})
}
