package rag

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"docqa/internal/contextutil"
	"docqa/internal/llm"
)

// DontKnowAnswer is the fixed refusal string. Validation rejections and
// empty evidence both land here; the caller cannot tell them apart, on
// purpose.
const DontKnowAnswer = "I don't know based on the provided document."

const (
	// maxAnswerSentences caps accepted answers; anything longer is trimmed
	// before validation.
	maxAnswerSentences = 4
	// fallbackChars caps the extractive fallback so a provider outage never
	// dumps the whole context back at the user.
	fallbackChars = 400
	// DefaultGroundingMin is the minimum fraction of answer tokens that
	// must appear in the context. Empirically chosen, not tuned for
	// arbitrary corpora.
	DefaultGroundingMin = 0.3
)

// DefaultGenerationConfig favors determinism and brevity: low temperature,
// tight output cap.
var DefaultGenerationConfig = llm.GenerationConfig{
	Temperature:     0.1,
	TopP:            0.9,
	TopK:            40,
	MaxOutputTokens: 160,
}

var citationPattern = regexp.MustCompile(`\[\d+\]`)

var answerTokenPattern = regexp.MustCompile(`[A-Za-z0-9]+`)

// Answerer prompts a generative provider with an evidence blob and a
// question, then validates the response before returning it. It always
// returns an answer string; generation failures degrade to an extractive
// fallback and validation failures to DontKnowAnswer.
type Answerer struct {
	generator    llm.Generator // nil means no provider configured
	groundingMin float64
	genCfg       llm.GenerationConfig
}

// NewAnswerer creates an answerer. generator may be nil, in which case every
// call takes the extractive fallback path. A negative groundingMin selects
// DefaultGroundingMin; zero disables the overlap gate.
func NewAnswerer(generator llm.Generator, groundingMin float64) *Answerer {
	if groundingMin < 0 {
		groundingMin = DefaultGroundingMin
	}
	return &Answerer{
		generator:    generator,
		groundingMin: groundingMin,
		genCfg:       DefaultGenerationConfig,
	}
}

// Answer produces a grounded answer for the question given the numbered
// evidence blob. In strict mode the generation is rejected unless every
// sentence carries a bracket citation and the answer overlaps the context.
func (a *Answerer) Answer(ctx context.Context, question, contextBlob string, strict bool) string {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(contextBlob) == "" {
		return DontKnowAnswer
	}
	if a.generator == nil {
		return fallbackExtract(contextBlob)
	}

	prompt := buildPrompt(question, contextBlob)
	// Single attempt. Retrying would keep the user waiting; a degraded
	// extract now beats a perfect answer later.
	raw, err := a.generator.Generate(ctx, prompt, a.genCfg)
	if err != nil {
		logger.WarnContext(ctx, "generation failed, using extractive fallback", "error", err)
		return fallbackExtract(contextBlob)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DontKnowAnswer
	}
	if !strict {
		return raw
	}

	sentences := splitSentences(raw)
	if len(sentences) > maxAnswerSentences {
		sentences = sentences[:maxAnswerSentences]
	}
	trimmed := strings.Join(sentences, " ")

	hasCitation := citationPattern.MatchString(raw)
	allCited := true
	for _, s := range sentences {
		if !citationPattern.MatchString(s) {
			allCited = false
			break
		}
	}
	ratio := groundingRatio(trimmed, contextBlob)

	if !hasCitation || !allCited || ratio < a.groundingMin {
		logger.InfoContext(ctx, "rejected ungrounded answer",
			"has_citation", hasCitation,
			"all_cited", allCited,
			"grounding_ratio", ratio,
		)
		return DontKnowAnswer
	}
	return trimmed
}

// buildPrompt assembles the grounding prompt: system instruction, rule set,
// question, numbered context.
func buildPrompt(question, contextBlob string) string {
	var b strings.Builder
	b.WriteString("You answer ONLY using the numbered CONTEXT blocks.\n")
	b.WriteString("If the answer is not fully supported by CONTEXT, reply exactly:\n")
	b.WriteString("\"" + DontKnowAnswer + "\"\n")
	b.WriteString("Every factual sentence MUST include a bracket citation like [1] or [2].\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("1) Use only the provided CONTEXT.\n")
	b.WriteString("2) 1-4 short sentences. Be concise.\n")
	b.WriteString("3) Every sentence MUST include a citation [n].\n")
	b.WriteString("4) If unsupported, say: " + DontKnowAnswer + "\n\n")
	b.WriteString("QUESTION:\n" + question + "\n\n")
	b.WriteString("CONTEXT (numbered blocks):\n" + contextBlob + "\n\n")
	b.WriteString("Answer:")
	return b.String()
}

// fallbackExtract returns a short extract of the context with the block
// markers stripped, capped at fallbackChars.
func fallbackExtract(contextBlob string) string {
	var kept []string
	for _, line := range strings.Split(contextBlob, "\n") {
		if line == "" || strings.HasPrefix(line, "[") || line == "BEGIN" || line == "END" {
			continue
		}
		kept = append(kept, line)
	}
	snippet := truncateRunes(strings.Join(kept, " "), fallbackChars)
	if snippet == "" {
		return DontKnowAnswer
	}
	return snippet
}

// groundingRatio is the fraction of alphanumeric answer tokens that also
// appear in the non-marker context lines, case-insensitive.
func groundingRatio(answer, contextBlob string) float64 {
	var ctxLines []string
	for _, line := range strings.Split(contextBlob, "\n") {
		if strings.HasPrefix(line, "[") {
			continue
		}
		ctxLines = append(ctxLines, line)
	}
	ctxTokens := make(map[string]struct{})
	for _, tok := range answerTokenPattern.FindAllString(strings.ToLower(strings.Join(ctxLines, " ")), -1) {
		ctxTokens[tok] = struct{}{}
	}

	ansTokens := answerTokenPattern.FindAllString(strings.ToLower(answer), -1)
	if len(ansTokens) == 0 {
		return 0
	}
	overlap := 0
	for _, tok := range ansTokens {
		if _, ok := ctxTokens[tok]; ok {
			overlap++
		}
	}
	return float64(overlap) / float64(len(ansTokens))
}

// splitSentences splits text after runs of sentence terminators followed by
// whitespace. A terminator mid-token ("5.7") does not split.
func splitSentences(s string) []string {
	var out []string
	runes := []rune(s)
	start := 0
	for i := 0; i < len(runes); i++ {
		if !isTerminator(runes[i]) {
			continue
		}
		j := i + 1
		for j < len(runes) && isTerminator(runes[j]) {
			j++
		}
		if j < len(runes) && !unicode.IsSpace(runes[j]) {
			i = j - 1
			continue
		}
		if sent := strings.TrimSpace(string(runes[start:j])); sent != "" {
			out = append(out, sent)
		}
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		start = j
		i = j - 1
	}
	if start < len(runes) {
		if sent := strings.TrimSpace(string(runes[start:])); sent != "" {
			out = append(out, sent)
		}
	}
	return out
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
