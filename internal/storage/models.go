package storage

import "time"

// Document is one indexed source file.
type Document struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Pages      int       `json:"pages"`
	ChunkCount int       `json:"chunk_count"`
	IndexedAt  time.Time `json:"indexed_at"`
}

// ChunkRecord is one stored text chunk of a document. ChunkIndex orders
// chunks within their document; Page is the 1-based source page.
type ChunkRecord struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	ChunkIndex int    `json:"chunk_index"`
	Page       int    `json:"page"`
	Content    string `json:"content"`
}
