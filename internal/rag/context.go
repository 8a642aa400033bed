package rag

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Evidence block delimiters. The open marker carries the 1-based label that
// answer citations refer back to.
const (
	blockOpenFormat = "[%d] BEGIN\n"
	blockClose      = "\nEND\n"
)

// BuildContext packs a budgeted, numbered, delimited evidence blob from the
// hits, in order. Block labels are the hit's 1-based position in the input
// sequence, so they line up with the citations built from the same
// sequence; whitespace-only hits keep their label but are not rendered and
// do not count toward maxBlocks. When a block would exceed the remaining
// budget a truncated slice is appended instead and assembly stops.
func BuildContext(hits []Hit, maxBlocks, budgetChars int) string {
	var blocks []string
	used, count := 0, 0

	for i, h := range hits {
		if count >= maxBlocks {
			break
		}
		text := strings.TrimSpace(h.Content)
		if text == "" {
			continue
		}
		open := fmt.Sprintf(blockOpenFormat, i+1)
		block := open + text + blockClose
		if used+len(block) > budgetChars {
			remain := budgetChars - used - len(open) - len(blockClose)
			if remain > 0 {
				snippet := strings.TrimRight(truncateRunes(text, remain), " \t\n")
				if snippet != "" {
					blocks = append(blocks, open+snippet+blockClose)
				}
			}
			break
		}
		blocks = append(blocks, block)
		used += len(block)
		count++
	}

	return strings.Join(blocks, "\n")
}

// truncateRunes cuts s to at most n bytes without splitting a rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
