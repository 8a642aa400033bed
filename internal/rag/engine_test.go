package rag

import (
	"context"
	"errors"
	"testing"

	"docqa/internal/corpus"
	"docqa/internal/service"
)

func policyCorpus(t *testing.T) *corpus.Corpus {
	t.Helper()
	c, err := corpus.NewLexical([]corpus.Chunk{
		{ID: 0, Content: "Refunds are processed within 5-7 business days.", Source: "policy.txt", Page: 1},
		{ID: 1, Content: "Shipping takes 3-5 business days for standard delivery.", Source: "policy.txt", Page: 2},
	})
	if err != nil {
		t.Fatalf("failed to build corpus: %v", err)
	}
	return c
}

func newTestEngine(opts Options) Engine {
	retriever := NewRetriever(NewRewriter(nil), DefaultBoost)
	answerer := NewAnswerer(nil, DefaultGroundingMin)
	return NewEngine(retriever, answerer, opts)
}

func TestEngine_AnswersFromMatchingChunkOnly(t *testing.T) {
	engine := newTestEngine(Options{})
	c := policyCorpus(t)

	result, err := engine.Ask(context.Background(), c, AskRequest{Question: "refund", Strict: true})
	if err != nil {
		t.Fatalf("Ask returned error: %v", err)
	}

	// The shipping chunk shares no discriminative terms with the query, so
	// the refund chunk is the single piece of evidence.
	if len(result.Citations) != 1 {
		t.Fatalf("got %d citations, want 1: %+v", len(result.Citations), result.Citations)
	}
	if result.Citations[0].ID != 1 {
		t.Errorf("citation ID = %d, want 1", result.Citations[0].ID)
	}
	if result.Citations[0].Source != "policy.txt" || result.Citations[0].Page != 1 {
		t.Errorf("citation = %+v, want policy.txt page 1", result.Citations[0])
	}
	if len(result.Retrieved) != 1 {
		t.Fatalf("got %d retrieved hits, want 1", len(result.Retrieved))
	}

	// No provider configured: the answer is the extracted evidence.
	want := "Refunds are processed within 5-7 business days."
	if result.Answer != want {
		t.Errorf("Answer = %q, want %q", result.Answer, want)
	}
}

func TestEngine_Idempotent(t *testing.T) {
	engine := newTestEngine(Options{})
	c := policyCorpus(t)

	first, err := engine.Ask(context.Background(), c, AskRequest{Question: "refund", Strict: true})
	if err != nil {
		t.Fatalf("Ask returned error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := engine.Ask(context.Background(), c, AskRequest{Question: "refund", Strict: true})
		if err != nil {
			t.Fatalf("Ask returned error on run %d: %v", i, err)
		}
		if again.Answer != first.Answer {
			t.Fatalf("answer diverged on run %d: %q vs %q", i, again.Answer, first.Answer)
		}
		if len(again.Citations) != len(first.Citations) {
			t.Fatalf("citations diverged on run %d", i)
		}
	}
}

func TestEngine_RejectsEmptyQuestion(t *testing.T) {
	engine := newTestEngine(Options{})
	c := policyCorpus(t)

	_, err := engine.Ask(context.Background(), c, AskRequest{Question: "   "})
	if !errors.Is(err, service.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestEngine_RejectsNilCorpus(t *testing.T) {
	engine := newTestEngine(Options{})

	_, err := engine.Ask(context.Background(), nil, AskRequest{Question: "refund"})
	if !errors.Is(err, service.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestEngine_ClampsRequestedK(t *testing.T) {
	engine := newTestEngine(Options{MaxK: 4, MaxBlocks: 4})

	contents := make([]string, 10)
	scores := make([]float64, 10)
	for i := range contents {
		contents[i] = "chunk"
		scores[i] = 1.0 - float64(i)*0.05
	}
	c := stubCorpus(contents, scores)

	result, err := engine.Ask(context.Background(), c, AskRequest{Question: longQuery, K: 50})
	if err != nil {
		t.Fatalf("Ask returned error: %v", err)
	}
	if len(result.Retrieved) > 4 {
		t.Errorf("got %d retrieved hits, want at most 4", len(result.Retrieved))
	}
	if len(result.Citations) > 4 {
		t.Errorf("got %d citations, want at most 4", len(result.Citations))
	}
}

func TestEngine_ScorerFailureIsExternalServiceError(t *testing.T) {
	engine := newTestEngine(Options{})
	c := &corpus.Corpus{
		Chunks: []corpus.Chunk{{ID: 0, Content: "a"}},
		Scorer: &stubScorer{err: errors.New("backend down")},
	}

	_, err := engine.Ask(context.Background(), c, AskRequest{Question: longQuery})
	if !errors.Is(err, service.ErrExternalService) {
		t.Errorf("err = %v, want ErrExternalService", err)
	}
}

func TestEngine_NoEvidenceYieldsDontKnow(t *testing.T) {
	engine := newTestEngine(Options{})
	c := policyCorpus(t)

	result, err := engine.Ask(context.Background(), c, AskRequest{Question: "quantum entanglement throughput", Strict: true})
	if err != nil {
		t.Fatalf("Ask returned error: %v", err)
	}
	if result.Answer != DontKnowAnswer {
		t.Errorf("Answer = %q, want %q", result.Answer, DontKnowAnswer)
	}
	if len(result.Retrieved) != 0 {
		t.Errorf("got %d retrieved hits, want 0", len(result.Retrieved))
	}
}
