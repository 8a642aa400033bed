package corpus

import (
	"context"
	"errors"
	"fmt"
	"math"

	"docqa/internal/vectorstore"
)

// Embedder produces embedding vectors for texts. Satisfied by
// llm.EmbeddingsClient.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// DenseScorer holds one embedding vector per chunk in process memory and
// scores queries by cosine similarity. Chunk vectors are L2-normalized at
// build time so scoring is a dot product.
type DenseScorer struct {
	embedder Embedder
	vectors  [][]float32
}

// NewDense embeds all chunk contents and builds a corpus backed by an
// in-memory dense scorer. This is a one-shot blocking build; retrieval must
// not be issued against the corpus before it returns.
func NewDense(ctx context.Context, chunks []Chunk, embedder Embedder) (*Corpus, error) {
	if len(chunks) == 0 {
		return nil, errors.New("empty corpus for dense index")
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed corpus: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}
	for i := range vectors {
		normalize(vectors[i])
	}
	return &Corpus{
		Chunks: chunks,
		Scorer: &DenseScorer{embedder: embedder, vectors: vectors},
	}, nil
}

// Similarity embeds the query and returns its cosine similarity to each chunk.
func (s *DenseScorer) Similarity(ctx context.Context, query string) ([]float64, error) {
	embedded, err := s.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embedded) == 0 {
		return nil, errors.New("embedder returned no vector for query")
	}
	qv := embedded[0]
	normalize(qv)

	scores := make([]float64, len(s.vectors))
	for i, dv := range s.vectors {
		scores[i] = dot(qv, dv)
	}
	return scores, nil
}

// Vocabulary returns nil; dense scorers have no term vocabulary.
func (s *DenseScorer) Vocabulary() []string { return nil }

// StoreScorer scores queries through an external vector store holding one
// point per chunk. pointIDs[i] is the store point for chunk i.
type StoreScorer struct {
	store      vectorstore.VectorStore
	collection string
	embedder   Embedder
	pointIDs   []string
}

// NewStoreBacked builds a corpus whose similarity queries are served by an
// already-populated vector store collection.
func NewStoreBacked(chunks []Chunk, store vectorstore.VectorStore, collection string, embedder Embedder, pointIDs []string) (*Corpus, error) {
	if len(chunks) == 0 {
		return nil, errors.New("empty corpus for store-backed index")
	}
	if len(pointIDs) != len(chunks) {
		return nil, fmt.Errorf("got %d point IDs for %d chunks", len(pointIDs), len(chunks))
	}
	return &Corpus{
		Chunks: chunks,
		Scorer: &StoreScorer{
			store:      store,
			collection: collection,
			embedder:   embedder,
			pointIDs:   pointIDs,
		},
	}, nil
}

// Similarity embeds the query and asks the store to score every chunk.
// Chunks absent from the store result score zero.
func (s *StoreScorer) Similarity(ctx context.Context, query string) ([]float64, error) {
	embedded, err := s.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embedded) == 0 {
		return nil, errors.New("embedder returned no vector for query")
	}

	results, err := s.store.Search(ctx, s.collection, embedded[0], len(s.pointIDs), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to search vector store: %w", err)
	}
	byPoint := make(map[string]float64, len(results))
	for _, r := range results {
		byPoint[r.PointID] = float64(r.Score)
	}

	scores := make([]float64, len(s.pointIDs))
	for i, id := range s.pointIDs {
		scores[i] = byPoint[id]
	}
	return scores, nil
}

// Vocabulary returns nil; store-backed scorers have no term vocabulary.
func (s *StoreScorer) Vocabulary() []string { return nil }

func normalize(v []float32) {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
