package rag

// Hit is a per-query view over a chunk plus its relevance score.
// Hits are transient; they are never persisted.
type Hit struct {
	// Rank is the 1-based position in the retrieval order.
	Rank int `json:"rank"`
	// Score is the similarity score, boosted where applicable.
	Score float64 `json:"score"`
	// Content is the chunk text.
	Content string `json:"content"`
	// Source identifies the originating document.
	Source string `json:"source"`
	// Page is the 1-based page number within the source, 0 if unknown.
	Page int `json:"page,omitempty"`
}

// AskRequest represents one pipeline query.
type AskRequest struct {
	// Question is the user's question to answer.
	Question string `json:"question"`
	// K optionally bounds the retrieved chunk count. Zero means the default;
	// the engine clamps it to a safe maximum to bound prompt size.
	K int `json:"k,omitempty"`
	// Strict enables grounding validation of the generated answer.
	Strict bool `json:"strict"`
}

// Citation points at one numbered evidence block used by the answer.
type Citation struct {
	// ID matches the [n] label in the evidence block, 1-based.
	ID int `json:"id"`
	// Source identifies the originating document.
	Source string `json:"source"`
	// Page is the 1-based page number within the source, 0 if unknown.
	Page int `json:"page,omitempty"`
}

// AskResult is the pipeline response. Citations[i].ID is always i+1 and
// shares its index space with the evidence block numbering, not with the
// pre-rerank corpus ranking.
type AskResult struct {
	// Answer is the generated (or fallback) answer text.
	Answer string `json:"answer"`
	// Citations lists the evidence blocks behind the answer, in block order.
	Citations []Citation `json:"citations"`
	// Retrieved is the diversified evidence set the answer was built from.
	Retrieved []Hit `json:"retrieved"`
}
