package rag

import "math"

// Weights for the pairwise redundancy estimate. Two hits from the same page
// are almost certainly overlapping windows, so same-page carries extra
// weight on top of same-document.
const (
	mmrSameSourceWeight = 0.6
	mmrSamePageWeight   = 0.4
)

// Rerank reorders hits by Maximal Marginal Relevance: it greedily balances
// normalized relevance against redundancy with already-selected hits,
// returning min(topN, len(hits)) of them. Deterministic for identical
// input order and scores.
func Rerank(hits []Hit, topN int, lambda float64) []Hit {
	if len(hits) == 0 || topN <= 0 {
		return nil
	}
	if topN > len(hits) {
		topN = len(hits)
	}

	rel := normalizeScores(hits)

	sim := func(a, b Hit) float64 {
		var s float64
		if a.Source == b.Source {
			s += mmrSameSourceWeight
		}
		if a.Page == b.Page {
			s += mmrSamePageWeight
		}
		return s
	}

	selected := make([]int, 0, topN)
	remaining := make([]int, 0, len(hits))

	// Seed with the globally most relevant hit.
	best := 0
	for i := 1; i < len(hits); i++ {
		if rel[i] > rel[best] {
			best = i
		}
	}
	selected = append(selected, best)
	for i := range hits {
		if i != best {
			remaining = append(remaining, i)
		}
	}

	for len(selected) < topN && len(remaining) > 0 {
		bestIdx := -1
		bestScore := math.Inf(-1)
		for pos, i := range remaining {
			penalty := 0.0
			for _, j := range selected {
				if s := sim(hits[i], hits[j]); s > penalty {
					penalty = s
				}
			}
			score := lambda*rel[i] - (1-lambda)*penalty
			// Strict greater keeps the earliest candidate on ties.
			if score > bestScore {
				bestScore = score
				bestIdx = pos
			}
		}
		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	out := make([]Hit, len(selected))
	for i, idx := range selected {
		out[i] = hits[idx]
	}
	return out
}

// normalizeScores min-max scales hit scores to [0,1]. When all scores are
// equal the range collapses; relevance is then uniformly 1.0 instead of a
// division by zero.
func normalizeScores(hits []Hit) []float64 {
	minS, maxS := hits[0].Score, hits[0].Score
	for _, h := range hits[1:] {
		if h.Score < minS {
			minS = h.Score
		}
		if h.Score > maxS {
			maxS = h.Score
		}
	}
	rel := make([]float64, len(hits))
	rng := maxS - minS
	if rng == 0 {
		for i := range rel {
			rel[i] = 1
		}
		return rel
	}
	for i, h := range hits {
		rel[i] = (h.Score - minS) / rng
	}
	return rel
}
