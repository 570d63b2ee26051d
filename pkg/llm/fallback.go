package llm

import (
	"context"
	"log/slog"
)

// FallbackProvider tries providers in order until one answers. Useful
// for pairing a local model with a remote one, or two Ollama hosts.
type FallbackProvider struct {
	providers []Provider
	logger    *slog.Logger
}

// NewFallback creates a provider chain. At least one provider is required.
func NewFallback(logger *slog.Logger, providers ...Provider) *FallbackProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackProvider{providers: providers, logger: logger}
}

// Chat tries each provider in order, returning the first success. The
// last error is returned when all fail.
func (f *FallbackProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	var lastErr error
	for i, p := range f.providers {
		resp, err := p.Chat(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if i < len(f.providers)-1 {
			f.logger.Warn("provider failed, trying fallback",
				slog.Int("provider", i), slog.Any("error", err))
		}
	}
	return nil, lastErr
}
