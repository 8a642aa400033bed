package ingest

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
)

// PageText is the extracted text of one source page. Plain-text and
// markdown files yield a single page 1.
type PageText struct {
	Page int
	Text string
}

// Extract pulls page texts out of a document, dispatching on the filename
// extension. Supported: .pdf, .txt, .md.
func Extract(filename string, data []byte) ([]PageText, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return ExtractPDF(data)
	case ".txt":
		return ExtractText(data), nil
	case ".md":
		return ExtractMarkdown(data)
	default:
		return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(filename))
	}
}

// ExtractPDF extracts per-page plain text. Pages whose content streams
// cannot be decoded are skipped rather than failing the whole document.
func ExtractPDF(data []byte) ([]PageText, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pdf: %w", err)
	}

	var pages []PageText
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := pagePlainText(p)
		if err != nil {
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, PageText{Page: i, Text: text})
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no extractable text in pdf")
	}
	return pages, nil
}

// pagePlainText reads one page's text. The pdf library panics on some
// malformed content streams, so the panic is converted to an error here.
func pagePlainText(p pdf.Page) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to decode page: %v", r)
		}
	}()
	return p.GetPlainText(nil)
}

// ExtractText treats the whole file as page 1.
func ExtractText(data []byte) []PageText {
	return []PageText{{Page: 1, Text: string(data)}}
}

// ExtractMarkdown strips markdown formatting by walking the parsed AST and
// collecting the text and code content, all as page 1.
func ExtractMarkdown(data []byte) ([]PageText, error) {
	parser := goldmark.New().Parser()
	doc := parser.Parse(gmtext.NewReader(data))

	var b strings.Builder
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock && b.Len() > 0 {
				b.WriteString("\n")
			}
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(data))
			if v.SoftLineBreak() || v.HardLineBreak() {
				b.WriteString("\n")
			}
		case *ast.FencedCodeBlock:
			lines := v.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				b.Write(seg.Value(data))
			}
		case *ast.CodeBlock:
			lines := v.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				b.Write(seg.Value(data))
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk markdown: %w", err)
	}
	return []PageText{{Page: 1, Text: b.String()}}, nil
}
