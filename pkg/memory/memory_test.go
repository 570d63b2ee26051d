package memory

import (
	"context"
	"testing"
	"time"
)

func seedStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	base := time.Now().UTC()

	records := []Record{
		{ID: "1", Agent: "code_lead", Category: "code_pattern", Content: "prefer table driven tests", CreatedAt: base},
		{ID: "2", Agent: "code_lead", Category: "preference", Content: "user likes concise answers", CreatedAt: base.Add(time.Second)},
		{ID: "3", Agent: "researcher", Category: "fact", Content: "qdrant speaks grpc", CreatedAt: base.Add(2 * time.Second)},
	}
	for _, rec := range records {
		if err := store.Save(ctx, rec); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
}

func TestInMemorySearchByKeyword(t *testing.T) {
	store := NewInMemory()
	seedStore(t, store)

	got, err := store.Search(context.Background(), Query{Text: "table tests"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("expected record 1, got %v", got)
	}
}

func TestInMemorySearchFiltersAgentAndCategory(t *testing.T) {
	store := NewInMemory()
	seedStore(t, store)

	got, err := store.Search(context.Background(), Query{Agent: "code_lead", Category: "preference"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].ID != "2" {
		t.Fatalf("expected record 2, got %v", got)
	}
}

func TestInMemoryListNewestFirst(t *testing.T) {
	store := NewInMemory()
	seedStore(t, store)

	got, err := store.List(context.Background(), Query{Agent: "code_lead"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != "2" || got[1].ID != "1" {
		t.Fatalf("expected newest first [2 1], got %v", got)
	}
}

func TestInMemoryDelete(t *testing.T) {
	store := NewInMemory()
	seedStore(t, store)
	ctx := context.Background()

	if err := store.Delete(ctx, "2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, "2"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}

	got, _ := store.List(ctx, Query{Agent: "code_lead"})
	if len(got) != 1 {
		t.Errorf("expected one remaining record, got %v", got)
	}
}

func TestSessionWindowKeepsSystemMessages(t *testing.T) {
	sessions := NewInMemorySessions(3)
	ctx := context.Background()

	msgs := []SessionMessage{
		{Role: "system", Content: "persona"},
		{Role: "user", Content: "one"},
		{Role: "assistant", Content: "two"},
		{Role: "user", Content: "three"},
		{Role: "assistant", Content: "four"},
	}
	for _, m := range msgs {
		if err := sessions.Append(ctx, "s1", m); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	history, err := sessions.History(ctx, "s1", 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected window of 3, got %d", len(history))
	}
	if history[0].Role != "system" {
		t.Errorf("expected system message preserved, got %v", history[0])
	}
	if history[len(history)-1].Content != "four" {
		t.Errorf("expected most recent message kept, got %v", history)
	}
}

func TestSessionClear(t *testing.T) {
	sessions := NewInMemorySessions(0)
	ctx := context.Background()

	_ = sessions.Append(ctx, "s1", SessionMessage{Role: "user", Content: "hi"})
	if err := sessions.Clear(ctx, "s1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	history, _ := sessions.History(ctx, "s1", 0)
	if len(history) != 0 {
		t.Errorf("expected empty history after clear, got %v", history)
	}
}
