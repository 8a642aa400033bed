package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_engine.go -package=mocks docqa/internal/rag Engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"docqa/internal/contextutil"
	"docqa/internal/corpus"
	"docqa/internal/service"
)

// Options bound the evidence the pipeline hands to the generator.
type Options struct {
	// MaxK is the clamp on requested retrieval depth. Tighter retrieval
	// improves grounding, so this stays small.
	MaxK int
	// MaxBlocks caps the evidence blocks in one context blob.
	MaxBlocks int
	// BudgetChars is the context character budget.
	BudgetChars int
	// Lambda is the MMR relevance/diversity trade-off.
	Lambda float64
	// AnswerTimeout bounds the single generative call, the only
	// unbounded-latency step in the pipeline. On expiry the answerer takes
	// its fallback path.
	AnswerTimeout time.Duration
}

func (o *Options) fillDefaults() {
	if o.MaxK <= 0 {
		o.MaxK = 4
	}
	if o.MaxBlocks <= 0 {
		o.MaxBlocks = 4
	}
	if o.BudgetChars <= 0 {
		o.BudgetChars = 1600
	}
	if o.Lambda <= 0 || o.Lambda > 1 {
		o.Lambda = 0.7
	}
	if o.AnswerTimeout <= 0 {
		o.AnswerTimeout = 30 * time.Second
	}
}

// Engine runs the full retrieval-and-grounding pipeline against a corpus.
type Engine interface {
	// Ask answers a question from the corpus evidence. It fails only on
	// malformed input; generation problems degrade into the answer itself.
	Ask(ctx context.Context, c *corpus.Corpus, req AskRequest) (AskResult, error)
}

type pipelineEngine struct {
	retriever *Retriever
	answerer  *Answerer
	opts      Options
}

// NewEngine creates a pipeline engine. Zero-valued Options fields take
// their defaults.
func NewEngine(retriever *Retriever, answerer *Answerer, opts Options) Engine {
	opts.fillDefaults()
	return &pipelineEngine{
		retriever: retriever,
		answerer:  answerer,
		opts:      opts,
	}
}

// Ask runs Rewrite → Retrieve → Rerank → Assemble → Answer, strictly in
// that order, as one synchronous unit of work.
func (e *pipelineEngine) Ask(ctx context.Context, c *corpus.Corpus, req AskRequest) (AskResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return AskResult{}, fmt.Errorf("question is required: %w", service.ErrInvalidInput)
	}
	if c == nil {
		return AskResult{}, fmt.Errorf("no corpus to query: %w", service.ErrInvalidInput)
	}

	k := req.K
	if k <= 0 || k > e.opts.MaxK {
		k = e.opts.MaxK
	}

	logger.InfoContext(ctx, "pipeline query started",
		"question", question,
		"k", k,
		"strict", req.Strict,
		"chunks", c.Len(),
	)

	hits, err := e.retriever.Retrieve(ctx, c, question, k)
	if err != nil {
		logger.ErrorContext(ctx, "retrieval failed", "error", err)
		return AskResult{}, fmt.Errorf("retrieval failed: %w", service.ErrExternalService)
	}

	topN := e.opts.MaxBlocks
	if k < topN {
		topN = k
	}
	reranked := Rerank(hits, topN, e.opts.Lambda)
	contextBlob := BuildContext(reranked, topN, e.opts.BudgetChars)

	answerCtx, cancel := context.WithTimeout(ctx, e.opts.AnswerTimeout)
	defer cancel()
	answer := e.answerer.Answer(answerCtx, question, contextBlob, req.Strict)

	citations := make([]Citation, len(reranked))
	for i, h := range reranked {
		citations[i] = Citation{ID: i + 1, Source: h.Source, Page: h.Page}
	}

	logger.InfoContext(ctx, "pipeline query completed",
		"hits", len(hits),
		"evidence_blocks", len(reranked),
		"context_chars", len(contextBlob),
		"answer_chars", len(answer),
	)

	return AskResult{
		Answer:    answer,
		Citations: citations,
		Retrieved: reranked,
	}, nil
}
