package llm

import (
	"context"
	"errors"
	"sync"
)

// MockProvider returns a fixed response or delegates to ChatFunc.
type MockProvider struct {
	Response string
	Err      error
	ChatFunc func(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

func (m *MockProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, req)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return &ChatResponse{
		Content: m.Response,
		Usage:   Usage{PromptTokens: 10, CompletionTokens: 10, TotalTokens: 20},
	}, nil
}

// ScriptedProvider replays a fixed sequence of responses. Useful for
// testing multi-turn tool loops: script a tool call turn, then the final
// answer.
type ScriptedProvider struct {
	mu        sync.Mutex
	steps     []ChatResponse
	err       error
	CallCount int
	Requests  []ChatRequest
}

// NewScripted creates a provider that replays the given responses in order.
func NewScripted(steps ...ChatResponse) *ScriptedProvider {
	return &ScriptedProvider{steps: steps}
}

// TextStep is a convenience for a plain text response.
func TextStep(content string) ChatResponse {
	return ChatResponse{
		Content: content,
		Usage:   Usage{PromptTokens: 10, CompletionTokens: 10, TotalTokens: 20},
	}
}

// ToolCallStep is a convenience for a response requesting one tool call.
func ToolCallStep(callID, tool, argsJSON string) ChatResponse {
	return ChatResponse{
		ToolCalls: []ToolCall{{
			ID:       callID,
			Type:     ToolTypeFunction,
			Function: FunctionCall{Name: tool, Arguments: argsJSON},
		}},
		Usage: Usage{PromptTokens: 10, CompletionTokens: 10, TotalTokens: 20},
	}
}

// Fail makes every subsequent Chat call return err.
func (s *ScriptedProvider) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Chat pops the next scripted response. It records the request for
// assertions.
func (s *ScriptedProvider) Chat(_ context.Context, req ChatRequest) (*ChatResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.CallCount++
	s.Requests = append(s.Requests, req)

	if s.err != nil {
		return nil, s.err
	}
	if len(s.steps) == 0 {
		return nil, errors.New("scripted provider: no more responses")
	}
	step := s.steps[0]
	s.steps = s.steps[1:]
	return &step, nil
}
