package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"docqa/internal/corpus"
	"docqa/internal/handlers"
	"docqa/internal/rag"
	"docqa/internal/session"
	"docqa/internal/vectorstore"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Sessions session.Store
	Engine   rag.Engine
	// Corpus returns the current persistent index snapshot; nil when no
	// index is configured.
	Corpus func() *corpus.Corpus
	// VectorStore is checked by the health endpoint; may be nil.
	VectorStore vectorstore.VectorStore
	Collection  string
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(CORS)
	r.Use(LoggerMiddleware)

	uploadHandler := handlers.NewUploadHandler(deps.Sessions)
	askHandler := handlers.NewAskHandler(deps.Sessions, deps.Engine)
	queryHandler := handlers.NewQueryHandler(deps.Corpus, deps.Engine)
	healthHandler := handlers.NewHealthHandler(deps.VectorStore, deps.Collection)

	r.Method(http.MethodPost, "/upload", uploadHandler)
	r.Method(http.MethodPost, "/ask", askHandler)
	r.Method(http.MethodPost, "/query", queryHandler)
	r.Method(http.MethodGet, "/healthz", healthHandler)

	return r
}
