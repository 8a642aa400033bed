package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"docqa/internal/service"
)

// DocumentStore persists indexed documents.
type DocumentStore interface {
	Insert(ctx context.Context, doc *Document) error
	Update(ctx context.Context, doc *Document) error
	GetByFilename(ctx context.Context, filename string) (*Document, error)
	ListAll(ctx context.Context) ([]Document, error)
	Delete(ctx context.Context, id string) error
}

// DocumentRepository is the SQLite-backed DocumentStore.
type DocumentRepository struct {
	db *Database
}

// NewDocumentRepository creates a document repository.
func NewDocumentRepository(db *Database) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Insert stores a new document row.
func (r *DocumentRepository) Insert(ctx context.Context, doc *Document) error {
	query := `INSERT INTO documents (id, filename, pages, chunk_count, indexed_at)
		VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.db.ExecContext(ctx, query,
		doc.ID, doc.Filename, doc.Pages, doc.ChunkCount, doc.IndexedAt)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of an existing document row.
func (r *DocumentRepository) Update(ctx context.Context, doc *Document) error {
	query := `UPDATE documents SET pages = ?, chunk_count = ?, indexed_at = ? WHERE id = ?`
	res, err := r.db.db.ExecContext(ctx, query,
		doc.Pages, doc.ChunkCount, doc.IndexedAt, doc.ID)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("document %q: %w", doc.ID, service.ErrNotFound)
	}
	return nil
}

// GetByFilename returns the document indexed from filename.
func (r *DocumentRepository) GetByFilename(ctx context.Context, filename string) (*Document, error) {
	query := `SELECT id, filename, pages, chunk_count, indexed_at FROM documents WHERE filename = ?`
	var doc Document
	err := r.db.db.QueryRowContext(ctx, query, filename).Scan(
		&doc.ID, &doc.Filename, &doc.Pages, &doc.ChunkCount, &doc.IndexedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %q: %w", filename, service.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &doc, nil
}

// ListAll returns every indexed document ordered by filename.
func (r *DocumentRepository) ListAll(ctx context.Context) ([]Document, error) {
	query := `SELECT id, filename, pages, chunk_count, indexed_at FROM documents ORDER BY filename`
	rows, err := r.db.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.Filename, &doc.Pages, &doc.ChunkCount, &doc.IndexedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}
	return docs, nil
}

// Delete removes a document; its chunks cascade.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("document %q: %w", id, service.ErrNotFound)
	}
	return nil
}
