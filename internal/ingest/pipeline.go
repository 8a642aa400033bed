package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"docqa/internal/contextutil"
	"docqa/internal/corpus"
	"docqa/internal/service"
	"docqa/internal/storage"
	"docqa/internal/vectorstore"
)

// Pipeline indexes documents into the persistent store and, when an
// embedder and vector store are configured, into the vector collection.
type Pipeline struct {
	documents  storage.DocumentStore
	chunks     storage.ChunkStore
	embedder   corpus.Embedder         // optional
	store      vectorstore.VectorStore // optional, requires embedder
	collection string
}

// NewPipeline creates an ingestion pipeline. embedder and store may both be
// nil for a lexical-only index.
func NewPipeline(documents storage.DocumentStore, chunks storage.ChunkStore, embedder corpus.Embedder, store vectorstore.VectorStore, collection string) *Pipeline {
	return &Pipeline{
		documents:  documents,
		chunks:     chunks,
		embedder:   embedder,
		store:      store,
		collection: collection,
	}
}

// IndexDir indexes every supported file directly under dir and returns the
// number of documents indexed. Files that fail to extract are logged and
// skipped.
func (p *Pipeline) IndexDir(ctx context.Context, dir string) (int, error) {
	logger := contextutil.LoggerFromContext(ctx)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read docs dir: %w", err)
	}

	indexed := 0
	for _, entry := range entries {
		if entry.IsDir() || !supportedFile(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		count, err := p.IndexFile(ctx, path)
		if err != nil {
			logger.WarnContext(ctx, "skipping document", "file", entry.Name(), "error", err)
			continue
		}
		logger.InfoContext(ctx, "document indexed", "file", entry.Name(), "chunks", count)
		indexed++
	}
	return indexed, nil
}

// IndexFile extracts, chunks and persists one document, replacing any prior
// index of the same filename. Returns the number of chunks stored.
func (p *Pipeline) IndexFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read file: %w", err)
	}
	filename := filepath.Base(path)

	pages, err := Extract(filename, data)
	if err != nil {
		return 0, fmt.Errorf("failed to extract %s: %w", filename, err)
	}
	chunks := BuildChunks(filename, pages)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("no usable text in %s", filename)
	}

	doc, err := p.upsertDocument(ctx, filename, len(pages), len(chunks))
	if err != nil {
		return 0, err
	}

	records := make([]storage.ChunkRecord, len(chunks))
	for i, c := range chunks {
		records[i] = storage.ChunkRecord{
			ID:         uuid.NewString(),
			DocumentID: doc.ID,
			ChunkIndex: i,
			Page:       c.Page,
			Content:    c.Content,
		}
	}
	if err := p.chunks.DeleteByDocument(ctx, doc.ID); err != nil {
		return 0, err
	}
	if err := p.chunks.InsertBatch(ctx, records); err != nil {
		return 0, err
	}

	if p.embedder != nil && p.store != nil {
		if err := p.upsertVectors(ctx, doc.ID, records); err != nil {
			return 0, err
		}
	}
	return len(records), nil
}

// Snapshot rebuilds the queryable corpus from the persistent store. The
// scorer is store-backed when both an embedder and a vector store are
// configured, in-memory dense with only an embedder, lexical otherwise.
func (p *Pipeline) Snapshot(ctx context.Context) (*corpus.Corpus, error) {
	docs, err := p.documents.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	records, err := p.chunks.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	chunks := RecordsToChunks(records, docs)

	switch {
	case p.embedder != nil && p.store != nil:
		// The ingest pass already embedded and upserted every chunk;
		// serving queries through the store avoids embedding the corpus a
		// second time.
		pointIDs := make([]string, len(records))
		for i, rec := range records {
			pointIDs[i] = rec.ID
		}
		return corpus.NewStoreBacked(chunks, p.store, p.collection, p.embedder, pointIDs)
	case p.embedder != nil:
		return corpus.NewDense(ctx, chunks, p.embedder)
	default:
		return corpus.NewLexical(chunks)
	}
}

func (p *Pipeline) upsertDocument(ctx context.Context, filename string, pages, chunkCount int) (*storage.Document, error) {
	doc, err := p.documents.GetByFilename(ctx, filename)
	switch {
	case err == nil:
		doc.Pages = pages
		doc.ChunkCount = chunkCount
		doc.IndexedAt = time.Now()
		if err := p.documents.Update(ctx, doc); err != nil {
			return nil, err
		}
		return doc, nil
	case errors.Is(err, service.ErrNotFound):
		doc = &storage.Document{
			ID:         uuid.NewString(),
			Filename:   filename,
			Pages:      pages,
			ChunkCount: chunkCount,
			IndexedAt:  time.Now(),
		}
		if err := p.documents.Insert(ctx, doc); err != nil {
			return nil, err
		}
		return doc, nil
	default:
		return nil, err
	}
}

func (p *Pipeline) upsertVectors(ctx context.Context, documentID string, records []storage.ChunkRecord) error {
	texts := make([]string, len(records))
	for i, rec := range records {
		texts[i] = rec.Content
	}
	vectors, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(records) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(records))
	}

	points := make([]vectorstore.Point, len(records))
	for i, rec := range records {
		points[i] = vectorstore.Point{
			ID:  rec.ID,
			Vec: vectors[i],
			Meta: map[string]any{
				"document_id": documentID,
				"chunk_index": rec.ChunkIndex,
				"page":        rec.Page,
			},
		}
	}
	if err := p.store.Upsert(ctx, p.collection, points); err != nil {
		return fmt.Errorf("failed to upsert vectors: %w", err)
	}
	return nil
}

// RecordsToChunks converts stored chunk records to corpus chunks with
// ordinal IDs, resolving filenames through the document list.
func RecordsToChunks(records []storage.ChunkRecord, docs []storage.Document) []corpus.Chunk {
	names := make(map[string]string, len(docs))
	for _, d := range docs {
		names[d.ID] = d.Filename
	}
	chunks := make([]corpus.Chunk, len(records))
	for i, rec := range records {
		chunks[i] = corpus.Chunk{
			ID:      i,
			Content: rec.Content,
			Source:  names[rec.DocumentID],
			Page:    rec.Page,
		}
	}
	return chunks
}

func supportedFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf", ".txt", ".md":
		return true
	}
	return false
}
