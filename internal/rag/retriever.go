package rag

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"docqa/internal/contextutil"
	"docqa/internal/corpus"
)

// DefaultBoost is the score bonus for chunks containing an exact token of a
// short query. Semantic models under-weight exact rare-term matches on
// short factual queries; the bump compensates. Empirically chosen, not
// tuned for arbitrary corpora.
const DefaultBoost = 0.15

// Retriever scores all chunks of a corpus against a rewritten query and
// returns a ranked top-K list.
type Retriever struct {
	rewriter *Rewriter
	boost    float64
}

// NewRetriever creates a retriever. A negative boost selects DefaultBoost;
// zero disables the short-query bonus.
func NewRetriever(rewriter *Rewriter, boost float64) *Retriever {
	if boost < 0 {
		boost = DefaultBoost
	}
	return &Retriever{rewriter: rewriter, boost: boost}
}

// Retrieve returns at most topK hits sorted by non-increasing score, ranks
// 1..n. Chunks scoring zero are not evidence and are dropped. An empty
// corpus or empty query yields an empty result, not an error.
func (r *Retriever) Retrieve(ctx context.Context, c *corpus.Corpus, query string, topK int) ([]Hit, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if c.Len() == 0 || NormalizeQuery(query) == "" || topK <= 0 {
		return nil, nil
	}

	rw := r.rewriter.Rewrite(query, c.Scorer.Vocabulary())
	scores, err := c.Scorer.Similarity(ctx, rw.Expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to score query: %w", err)
	}
	if len(scores) != len(c.Chunks) {
		return nil, fmt.Errorf("scorer returned %d scores for %d chunks", len(scores), len(c.Chunks))
	}

	// Exact-containment boost for short queries.
	if rw.Short && r.boost > 0 {
		tokens := strings.Fields(rw.Corrected)
		for i, chunk := range c.Chunks {
			text := strings.ToLower(chunk.Content)
			for _, tok := range tokens {
				if tok != "" && strings.Contains(text, tok) {
					scores[i] += r.boost
					break
				}
			}
		}
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	// Stable sort keeps original chunk order on ties, so results are
	// deterministic across runs.
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	hits := make([]Hit, 0, topK)
	for _, idx := range order {
		if len(hits) >= topK {
			break
		}
		if scores[idx] <= 0 {
			break
		}
		chunk := c.Chunks[idx]
		hits = append(hits, Hit{
			Rank:    len(hits) + 1,
			Score:   scores[idx],
			Content: chunk.Content,
			Source:  chunk.Source,
			Page:    chunk.Page,
		})
	}

	logger.DebugContext(ctx, "retrieval completed",
		"query", rw.Normalized,
		"expanded", rw.Expanded,
		"short", rw.Short,
		"hits", len(hits),
	)
	return hits, nil
}
