package corpus

import (
	"context"
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
)

// LexicalScorer is a sparse TF-IDF similarity model over a fixed chunk list.
// It indexes unigrams and bigrams so that very short queries still carry
// signal, applies sublinear term-frequency scaling and smoothed IDF, and
// L2-normalizes vectors so cosine similarity reduces to a dot product.
type LexicalScorer struct {
	vocabulary map[string]int
	terms      []string
	idf        []float64
	docs       []map[int]float64 // one L2-normalized sparse vector per chunk
}

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// maxDocFreqRatio prunes terms appearing in more than this fraction of
// chunks from the vocabulary.
const maxDocFreqRatio = 0.95

// NewLexicalScorer fits a TF-IDF model on the chunk contents.
func NewLexicalScorer(chunks []Chunk) (*LexicalScorer, error) {
	if len(chunks) == 0 {
		return nil, errors.New("empty corpus for lexical index")
	}

	tokenized := make([][]string, len(chunks))
	df := make(map[string]int)
	for i, c := range chunks {
		terms := ngramTerms(tokenizeLexical(c.Content))
		tokenized[i] = terms
		seen := make(map[string]struct{}, len(terms))
		for _, t := range terms {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}
	// Terms present in almost every chunk carry no discriminative signal;
	// prune them so queries made only of such terms score zero everywhere.
	if len(chunks) > 1 {
		limit := maxDocFreqRatio * float64(len(chunks))
		for t, n := range df {
			if float64(n) > limit {
				delete(df, t)
			}
		}
	}
	if len(df) == 0 {
		return nil, errors.New("no indexable terms in corpus")
	}

	// Stable vocabulary ordering keeps scoring deterministic across builds.
	terms := make([]string, 0, len(df))
	for t := range df {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	s := &LexicalScorer{
		vocabulary: make(map[string]int, len(terms)),
		terms:      terms,
		idf:        make([]float64, len(terms)),
	}
	n := float64(len(chunks))
	for i, t := range terms {
		s.vocabulary[t] = i
		// Smoothed IDF
		s.idf[i] = math.Log((1+n)/(1+float64(df[t]))) + 1.0
	}

	s.docs = make([]map[int]float64, len(chunks))
	for i, terms := range tokenized {
		s.docs[i] = s.vectorize(terms)
	}
	return s, nil
}

// NewLexical builds a corpus backed by a TF-IDF scorer.
func NewLexical(chunks []Chunk) (*Corpus, error) {
	scorer, err := NewLexicalScorer(chunks)
	if err != nil {
		return nil, err
	}
	return &Corpus{Chunks: chunks, Scorer: scorer}, nil
}

// Similarity returns the cosine similarity between the query and each chunk.
func (s *LexicalScorer) Similarity(_ context.Context, query string) ([]float64, error) {
	qv := s.vectorize(ngramTerms(tokenizeLexical(query)))
	scores := make([]float64, len(s.docs))
	if len(qv) == 0 {
		return scores, nil
	}
	for i, dv := range s.docs {
		scores[i] = sparseDot(qv, dv)
	}
	return scores, nil
}

// Vocabulary returns the indexed terms in sorted order.
func (s *LexicalScorer) Vocabulary() []string {
	return s.terms
}

// vectorize builds an L2-normalized sparse TF-IDF vector for a term list.
// Terms outside the fitted vocabulary are ignored.
func (s *LexicalScorer) vectorize(terms []string) map[int]float64 {
	tf := make(map[int]int)
	for _, t := range terms {
		if idx, ok := s.vocabulary[t]; ok {
			tf[idx]++
		}
	}
	if len(tf) == 0 {
		return nil
	}
	vec := make(map[int]float64, len(tf))
	var norm float64
	for idx, count := range tf {
		// Sublinear TF
		w := (1 + math.Log(float64(count))) * s.idf[idx]
		vec[idx] = w
		norm += w * w
	}
	norm = math.Sqrt(norm)
	for idx := range vec {
		vec[idx] /= norm
	}
	return vec
}

func sparseDot(a, b map[int]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for idx, v := range a {
		dot += v * b[idx]
	}
	return dot
}

// tokenizeLexical lowercases and splits on non-alphanumeric runs, dropping
// English stopwords.
func tokenizeLexical(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	if len(raw) == 0 {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		if _, isStop := lexicalStopwords[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	return out
}

// ngramTerms returns the unigrams plus adjacent-pair bigrams of a token list.
// Bigrams are formed after stopword removal, matching the fitted model.
func ngramTerms(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}
	terms := make([]string, 0, 2*len(tokens)-1)
	terms = append(terms, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		terms = append(terms, tokens[i]+" "+tokens[i+1])
	}
	return terms
}

var lexicalStopwords = buildStopwords()

func buildStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "and", "are", "as", "at", "be", "been", "but", "by", "can",
		"do", "for", "from", "had", "has", "have", "if", "in", "into", "is",
		"it", "its", "no", "not", "of", "on", "or", "so", "such", "that",
		"the", "their", "then", "there", "these", "they", "this", "to", "was",
		"were", "will", "with",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
