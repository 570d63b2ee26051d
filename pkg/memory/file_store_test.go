package memory

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "memories.jsonl"))
}

func TestFileStoreRoundTrip(t *testing.T) {
	store := newTestFileStore(t)
	seedStore(t, store)

	got, err := store.List(context.Background(), Query{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
}

func TestFileStoreSearch(t *testing.T) {
	store := newTestFileStore(t)
	seedStore(t, store)

	got, err := store.Search(context.Background(), Query{Agent: "researcher", Text: "grpc"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].ID != "3" {
		t.Fatalf("expected record 3, got %v", got)
	}
}

func TestFileStoreDeleteRewrites(t *testing.T) {
	store := newTestFileStore(t)
	seedStore(t, store)
	ctx := context.Background()

	if err := store.Delete(ctx, "1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := store.List(ctx, Query{})
	if err != nil {
		t.Fatalf("list after delete: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records after delete, got %d", len(got))
	}
	for _, rec := range got {
		if rec.ID == "1" {
			t.Error("deleted record still present")
		}
	}
}

func TestFileStoreDeleteMissing(t *testing.T) {
	store := newTestFileStore(t)
	seedStore(t, store)

	if err := store.Delete(context.Background(), "nope"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFileStoreEmptyFileListsNothing(t *testing.T) {
	store := newTestFileStore(t)

	got, err := store.List(context.Background(), Query{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no records, got %v", got)
	}
}
