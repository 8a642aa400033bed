package corpus

import "context"

// Chunk is a span of source text with provenance. Chunks are produced once
// by corpus preparation and never mutated afterwards.
type Chunk struct {
	// ID is the ordinal position of the chunk within its corpus (starts at 0).
	ID int
	// Content is the chunk text.
	Content string
	// Source identifies the originating document (typically a filename).
	Source string
	// Page is the 1-based page number within the source, 0 if unknown.
	Page int
}

// Scorer answers similarity queries against a fixed chunk list.
// Implementations are read-only after construction and safe for concurrent use.
type Scorer interface {
	// Similarity returns one cosine similarity score per chunk, in chunk order.
	Similarity(ctx context.Context, query string) ([]float64, error)
	// Vocabulary returns the known index terms. May be empty for scorers
	// that have no term vocabulary (dense embeddings).
	Vocabulary() []string
}

// Corpus is an ordered chunk list plus a fitted similarity model.
// Built once, read-only thereafter; rebuilding means constructing a new
// Corpus and swapping the reference.
type Corpus struct {
	Chunks []Chunk
	Scorer Scorer
}

// Len returns the number of chunks.
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Chunks)
}
