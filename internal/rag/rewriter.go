package rag

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

const (
	// shortMaxTokens and shortMaxChars classify a query as "short". Short
	// queries get typo correction and synonym expansion; longer queries
	// carry enough signal on their own.
	shortMaxTokens = 2
	shortMaxChars  = 12

	// correctionCutoff is the minimum string similarity for replacing a
	// query token with a vocabulary term.
	correctionCutoff = 0.8
)

// Rewritten is the outcome of query rewriting. Retrieval scores against
// Expanded but boosts exact matches of the Corrected tokens.
type Rewritten struct {
	// Normalized is the whitespace-collapsed raw query.
	Normalized string
	// Corrected is Normalized with short-query tokens snapped to the
	// nearest vocabulary term. Equal to Normalized for non-short queries.
	Corrected string
	// Expanded is Corrected with synonym expansion applied, or Corrected
	// unchanged when the query is not short.
	Expanded string
	// Short reports whether the corrected query classified as short.
	Short bool
}

// Rewriter normalizes queries, corrects tokens against an index vocabulary,
// and expands very short queries with domain synonyms. It is a pure
// function of its inputs.
type Rewriter struct {
	synonyms SynonymTable
}

// NewRewriter creates a rewriter with the given synonym table. A nil table
// falls back to the built-in one.
func NewRewriter(synonyms SynonymTable) *Rewriter {
	if synonyms == nil {
		synonyms = DefaultSynonyms()
	}
	return &Rewriter{synonyms: synonyms}
}

// Rewrite runs normalization, correction, and expansion against the given
// vocabulary. An empty vocabulary skips correction.
func (r *Rewriter) Rewrite(raw string, vocab []string) Rewritten {
	normalized := NormalizeQuery(raw)

	corrected := normalized
	if isShort(normalized) && len(vocab) > 0 {
		tokens := strings.Fields(strings.ToLower(normalized))
		for i, tok := range tokens {
			tokens[i] = closestTerm(tok, vocab)
		}
		corrected = strings.Join(tokens, " ")
	}

	// Expansion re-checks shortness on the corrected form; a correction
	// can lengthen the query past the threshold.
	expanded := corrected
	short := isShort(corrected)
	if short {
		expanded = r.expand(corrected)
	}

	return Rewritten{
		Normalized: normalized,
		Corrected:  corrected,
		Expanded:   expanded,
		Short:      short,
	}
}

// expand concatenates the synonym expansions of each token, in token order,
// de-duplicating while preserving first occurrence.
func (r *Rewriter) expand(query string) string {
	tokens := strings.Fields(strings.ToLower(query))
	seen := make(map[string]struct{})
	var expanded []string
	for _, tok := range tokens {
		terms, ok := r.synonyms[tok]
		if !ok {
			terms = []string{tok}
		}
		for _, term := range terms {
			if _, dup := seen[term]; dup {
				continue
			}
			seen[term] = struct{}{}
			expanded = append(expanded, term)
		}
	}
	return strings.Join(expanded, " ")
}

// NormalizeQuery collapses whitespace runs to single spaces and trims.
func NormalizeQuery(q string) string {
	return strings.Join(strings.Fields(q), " ")
}

// isShort reports whether a normalized query counts as short: at most two
// tokens or at most twelve characters.
func isShort(q string) bool {
	return len(strings.Fields(q)) <= shortMaxTokens || len([]rune(q)) <= shortMaxChars
}

// closestTerm returns the vocabulary term nearest to token when its
// Levenshtein ratio clears the cutoff, otherwise the token itself. Ties go
// to the earliest term in vocabulary order so corrections stay stable.
func closestTerm(token string, vocab []string) string {
	best := ""
	bestScore := 0.0
	for _, term := range vocab {
		if score := similarityRatio(token, term); score > bestScore {
			best = term
			bestScore = score
		}
	}
	if bestScore >= correctionCutoff {
		return best
	}
	return token
}

// similarityRatio maps Levenshtein distance into [0,1]: identical strings
// score 1, entirely different strings score 0.
func similarityRatio(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := len([]rune(a)), len([]rune(b))
	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	if maxLen == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(maxLen)
}
