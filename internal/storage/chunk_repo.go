package storage

import (
	"context"
	"fmt"
)

// ChunkStore persists document chunks.
type ChunkStore interface {
	InsertBatch(ctx context.Context, chunks []ChunkRecord) error
	ListByDocument(ctx context.Context, documentID string) ([]ChunkRecord, error)
	ListAll(ctx context.Context) ([]ChunkRecord, error)
	DeleteByDocument(ctx context.Context, documentID string) error
}

// ChunkRepository is the SQLite-backed ChunkStore.
type ChunkRepository struct {
	db *Database
}

// NewChunkRepository creates a chunk repository.
func NewChunkRepository(db *Database) *ChunkRepository {
	return &ChunkRepository{db: db}
}

// InsertBatch stores the chunks in one transaction.
func (r *ChunkRepository) InsertBatch(ctx context.Context, chunks []ChunkRecord) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := r.db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (id, document_id, chunk_index, page, content) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx, c.ID, c.DocumentID, c.ChunkIndex, c.Page, c.Content); err != nil {
			return fmt.Errorf("failed to insert chunk %d: %w", c.ChunkIndex, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chunks: %w", err)
	}
	return nil
}

// ListByDocument returns a document's chunks in index order.
func (r *ChunkRepository) ListByDocument(ctx context.Context, documentID string) ([]ChunkRecord, error) {
	query := `SELECT id, document_id, chunk_index, page, content
		FROM chunks WHERE document_id = ? ORDER BY chunk_index`
	return r.queryChunks(ctx, query, documentID)
}

// ListAll returns every chunk, grouped by document and ordered by index.
// The persistent corpus is rebuilt from this at startup.
func (r *ChunkRepository) ListAll(ctx context.Context) ([]ChunkRecord, error) {
	query := `SELECT c.id, c.document_id, c.chunk_index, c.page, c.content
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		ORDER BY d.filename, c.chunk_index`
	return r.queryChunks(ctx, query)
}

// DeleteByDocument removes all chunks of a document.
func (r *ChunkRepository) DeleteByDocument(ctx context.Context, documentID string) error {
	if _, err := r.db.db.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, documentID); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	return nil
}

func (r *ChunkRepository) queryChunks(ctx context.Context, query string, args ...any) ([]ChunkRecord, error) {
	rows, err := r.db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []ChunkRecord
	for rows.Next() {
		var c ChunkRecord
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.ChunkIndex, &c.Page, &c.Content); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chunks: %w", err)
	}
	return chunks, nil
}
