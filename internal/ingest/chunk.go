package ingest

import (
	"regexp"
	"strings"

	"docqa/internal/corpus"
)

// Word-window chunking parameters. Chunks overlap so a fact straddling a
// window boundary is still fully contained in one chunk.
const (
	chunkMaxWords     = 220
	chunkOverlapWords = 40
)

var (
	spaceRunPattern   = regexp.MustCompile(`[ \t]+`)
	newlineRunPattern = regexp.MustCompile(`\n{3,}`)
)

// CleanText normalizes extracted text: strips NUL bytes, normalizes line
// endings, collapses space runs and excessive blank lines.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = spaceRunPattern.ReplaceAllString(s, " ")
	s = newlineRunPattern.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// ChunkWords splits text into overlapping word windows of at most maxWords
// words, advancing maxWords-overlap words per step.
func ChunkWords(text string, maxWords, overlap int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	step := maxWords - overlap
	if step < 1 {
		step = maxWords
	}

	var out []string
	for start := 0; start < len(words); start += step {
		end := start + maxWords
		if end > len(words) {
			end = len(words)
		}
		out = append(out, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return out
}

// BuildChunks cleans and chunks each page of a document, assigning
// corpus-ordinal IDs across pages.
func BuildChunks(source string, pages []PageText) []corpus.Chunk {
	var chunks []corpus.Chunk
	for _, page := range pages {
		text := CleanText(page.Text)
		if text == "" {
			continue
		}
		for _, piece := range ChunkWords(text, chunkMaxWords, chunkOverlapWords) {
			chunks = append(chunks, corpus.Chunk{
				ID:      len(chunks),
				Content: piece,
				Source:  source,
				Page:    page.Page,
			})
		}
	}
	return chunks
}
