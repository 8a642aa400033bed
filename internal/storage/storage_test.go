package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"docqa/internal/service"
)

func testDB(t *testing.T) *Database {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func insertDoc(t *testing.T, repo *DocumentRepository, filename string) *Document {
	t.Helper()
	doc := &Document{
		ID:        uuid.NewString(),
		Filename:  filename,
		Pages:     2,
		IndexedAt: time.Now().UTC(),
	}
	if err := repo.Insert(context.Background(), doc); err != nil {
		t.Fatalf("failed to insert document: %v", err)
	}
	return doc
}

func TestDocumentRepository_InsertAndGet(t *testing.T) {
	db := testDB(t)
	repo := NewDocumentRepository(db)
	doc := insertDoc(t, repo, "policy.pdf")

	got, err := repo.GetByFilename(context.Background(), "policy.pdf")
	if err != nil {
		t.Fatalf("GetByFilename failed: %v", err)
	}
	if got.ID != doc.ID {
		t.Errorf("ID = %q, want %q", got.ID, doc.ID)
	}
	if got.Pages != 2 {
		t.Errorf("Pages = %d, want 2", got.Pages)
	}
}

func TestDocumentRepository_GetUnknownIsNotFound(t *testing.T) {
	db := testDB(t)
	repo := NewDocumentRepository(db)

	_, err := repo.GetByFilename(context.Background(), "missing.pdf")
	if !errors.Is(err, service.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDocumentRepository_Update(t *testing.T) {
	db := testDB(t)
	repo := NewDocumentRepository(db)
	doc := insertDoc(t, repo, "policy.pdf")

	doc.Pages = 9
	doc.ChunkCount = 42
	if err := repo.Update(context.Background(), doc); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := repo.GetByFilename(context.Background(), "policy.pdf")
	if err != nil {
		t.Fatalf("GetByFilename failed: %v", err)
	}
	if got.Pages != 9 || got.ChunkCount != 42 {
		t.Errorf("got pages=%d chunks=%d, want 9 and 42", got.Pages, got.ChunkCount)
	}

	ghost := &Document{ID: uuid.NewString()}
	if err := repo.Update(context.Background(), ghost); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound for unknown document", err)
	}
}

func TestDocumentRepository_ListAllOrdered(t *testing.T) {
	db := testDB(t)
	repo := NewDocumentRepository(db)
	insertDoc(t, repo, "zeta.pdf")
	insertDoc(t, repo, "alpha.pdf")

	docs, err := repo.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}
	if docs[0].Filename != "alpha.pdf" || docs[1].Filename != "zeta.pdf" {
		t.Errorf("order = %q, %q, want alphabetical", docs[0].Filename, docs[1].Filename)
	}
}

func TestChunkRepository_InsertBatchAndList(t *testing.T) {
	db := testDB(t)
	docRepo := NewDocumentRepository(db)
	chunkRepo := NewChunkRepository(db)
	doc := insertDoc(t, docRepo, "policy.pdf")

	records := []ChunkRecord{
		{ID: uuid.NewString(), DocumentID: doc.ID, ChunkIndex: 0, Page: 1, Content: "first"},
		{ID: uuid.NewString(), DocumentID: doc.ID, ChunkIndex: 1, Page: 2, Content: "second"},
	}
	if err := chunkRepo.InsertBatch(context.Background(), records); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}

	got, err := chunkRepo.ListByDocument(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("ListByDocument failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d chunks, want 2", len(got))
	}
	if got[0].Content != "first" || got[1].Content != "second" {
		t.Errorf("chunks out of order: %q, %q", got[0].Content, got[1].Content)
	}
}

func TestChunkRepository_ListAllGroupsByFilename(t *testing.T) {
	db := testDB(t)
	docRepo := NewDocumentRepository(db)
	chunkRepo := NewChunkRepository(db)
	zeta := insertDoc(t, docRepo, "zeta.pdf")
	alpha := insertDoc(t, docRepo, "alpha.pdf")

	records := []ChunkRecord{
		{ID: uuid.NewString(), DocumentID: zeta.ID, ChunkIndex: 0, Page: 1, Content: "z0"},
		{ID: uuid.NewString(), DocumentID: alpha.ID, ChunkIndex: 1, Page: 1, Content: "a1"},
		{ID: uuid.NewString(), DocumentID: alpha.ID, ChunkIndex: 0, Page: 1, Content: "a0"},
	}
	if err := chunkRepo.InsertBatch(context.Background(), records); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}

	got, err := chunkRepo.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	want := []string{"a0", "a1", "z0"}
	if len(got) != len(want) {
		t.Fatalf("got %d chunks, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Content != w {
			t.Errorf("got[%d].Content = %q, want %q", i, got[i].Content, w)
		}
	}
}

func TestChunkRepository_DeleteByDocument(t *testing.T) {
	db := testDB(t)
	docRepo := NewDocumentRepository(db)
	chunkRepo := NewChunkRepository(db)
	doc := insertDoc(t, docRepo, "policy.pdf")

	records := []ChunkRecord{
		{ID: uuid.NewString(), DocumentID: doc.ID, ChunkIndex: 0, Page: 1, Content: "first"},
	}
	if err := chunkRepo.InsertBatch(context.Background(), records); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}
	if err := chunkRepo.DeleteByDocument(context.Background(), doc.ID); err != nil {
		t.Fatalf("DeleteByDocument failed: %v", err)
	}

	got, err := chunkRepo.ListByDocument(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("ListByDocument failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d chunks after delete, want 0", len(got))
	}
}

func TestDocumentRepository_DeleteCascadesToChunks(t *testing.T) {
	db := testDB(t)
	docRepo := NewDocumentRepository(db)
	chunkRepo := NewChunkRepository(db)
	doc := insertDoc(t, docRepo, "policy.pdf")

	records := []ChunkRecord{
		{ID: uuid.NewString(), DocumentID: doc.ID, ChunkIndex: 0, Page: 1, Content: "first"},
	}
	if err := chunkRepo.InsertBatch(context.Background(), records); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}

	if err := docRepo.Delete(context.Background(), doc.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	got, err := chunkRepo.ListByDocument(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("ListByDocument failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d chunks after cascade delete, want 0", len(got))
	}
}
