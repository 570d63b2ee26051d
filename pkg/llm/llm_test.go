package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllamaChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("expected non-streaming request")
		}
		if req.Model != "qwen2.5-coder" {
			t.Errorf("unexpected model %q", req.Model)
		}
		json.NewEncoder(w).Encode(ollamaResponse{
			Message:         Message{Role: RoleAssistant, Content: "hello"},
			Done:            true,
			EvalCount:       7,
			PromptEvalCount: 3,
		})
	}))
	defer server.Close()

	provider := NewOllama(server.URL)
	resp, err := provider.Chat(context.Background(), ChatRequest{
		Model:    "qwen2.5-coder",
		Messages: []Message{UserMessage("hi")},
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if resp.Content != "hello" {
		t.Errorf("unexpected content %q", resp.Content)
	}
	if resp.Usage.TotalTokens != 10 {
		t.Errorf("unexpected usage %+v", resp.Usage)
	}
}

func TestOllamaChatSendsAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected authorization header %q", got)
		}
		json.NewEncoder(w).Encode(ollamaResponse{
			Message: Message{Role: RoleAssistant, Content: "ok"},
			Done:    true,
		})
	}))
	defer server.Close()

	provider := NewOllama(server.URL, WithAPIKey("sk-test"))
	if _, err := provider.Chat(context.Background(), ChatRequest{Model: "m"}); err != nil {
		t.Fatalf("chat: %v", err)
	}
}

func TestFallbackProviderTriesSecondary(t *testing.T) {
	primary := &MockProvider{Err: errors.New("primary down")}
	secondary := &MockProvider{Response: "from secondary"}

	f := NewFallback(nil, primary, secondary)
	resp, err := f.Chat(context.Background(), ChatRequest{})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if resp.Content != "from secondary" {
		t.Errorf("unexpected content %q", resp.Content)
	}
}

func TestFallbackProviderReturnsLastError(t *testing.T) {
	f := NewFallback(nil,
		&MockProvider{Err: errors.New("first down")},
		&MockProvider{Err: errors.New("second down")})

	_, err := f.Chat(context.Background(), ChatRequest{})
	if err == nil || err.Error() != "second down" {
		t.Fatalf("expected last provider's error, got %v", err)
	}
}

func TestOllamaChatErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	provider := NewOllama(server.URL)
	if _, err := provider.Chat(context.Background(), ChatRequest{Model: "missing"}); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestOllamaChatStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		enc := json.NewEncoder(w)
		enc.Encode(ollamaStreamEvent{Message: Message{Content: "hel"}})
		enc.Encode(ollamaStreamEvent{Message: Message{Content: "lo"}})
		enc.Encode(ollamaStreamEvent{Done: true, PromptEvalCount: 2, EvalCount: 2})
	}))
	defer server.Close()

	provider := NewOllama(server.URL)
	chunks, err := provider.ChatStream(context.Background(), ChatRequest{Model: "m"})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}

	var content string
	var done bool
	for chunk := range chunks {
		if chunk.Error != nil {
			t.Fatalf("chunk error: %v", chunk.Error)
		}
		content += chunk.Content
		if chunk.Done {
			done = true
			if chunk.Usage == nil || chunk.Usage.TotalTokens != 4 {
				t.Errorf("unexpected final usage %+v", chunk.Usage)
			}
		}
	}
	if content != "hello" {
		t.Errorf("unexpected streamed content %q", content)
	}
	if !done {
		t.Error("expected done chunk")
	}
}

func TestScriptedProviderOrdering(t *testing.T) {
	provider := NewScripted(
		ToolCallStep("call-1", "read_file", `{"path":"main.go"}`),
		TextStep("all done"),
	)
	ctx := context.Background()

	first, err := provider.Chat(ctx, ChatRequest{})
	if err != nil {
		t.Fatalf("first chat: %v", err)
	}
	if len(first.ToolCalls) != 1 || first.ToolCalls[0].Function.Name != "read_file" {
		t.Fatalf("expected scripted tool call, got %+v", first)
	}

	second, err := provider.Chat(ctx, ChatRequest{})
	if err != nil {
		t.Fatalf("second chat: %v", err)
	}
	if second.Content != "all done" {
		t.Errorf("unexpected second response %q", second.Content)
	}

	if _, err := provider.Chat(ctx, ChatRequest{}); err == nil {
		t.Fatal("expected error when script is exhausted")
	}
	if provider.CallCount != 3 {
		t.Errorf("expected 3 calls recorded, got %d", provider.CallCount)
	}
}

func TestUsageAdd(t *testing.T) {
	var total Usage
	total.Add(Usage{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3})
	total.Add(Usage{PromptTokens: 4, CompletionTokens: 5, TotalTokens: 9})
	if total.TotalTokens != 12 || total.PromptTokens != 5 {
		t.Errorf("unexpected accumulated usage %+v", total)
	}
}
