package memory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/emperor-ai/emperor/pkg/errors"
)

// Service exposes memory operations for a single agent, enforcing its
// allowed categories. An optional vector index adds semantic recall; the
// keyword store remains the source of truth.
type Service struct {
	store      Store
	agent      string
	categories map[string]bool

	vector     VectorStore
	embedder   Embedder
	collection string
	threshold  float32
	logger     *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithVectorIndex enables semantic recall through a vector store.
func WithVectorIndex(store VectorStore, embedder Embedder, collection string) ServiceOption {
	return func(s *Service) {
		s.vector = store
		s.embedder = embedder
		s.collection = collection
	}
}

// WithScoreThreshold sets the minimum similarity score for semantic hits.
func WithScoreThreshold(threshold float32) ServiceOption {
	return func(s *Service) { s.threshold = threshold }
}

// WithServiceLogger sets the structured logger.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a memory service bound to an agent and its allowed
// categories.
func NewService(store Store, agent string, categories []string, opts ...ServiceOption) *Service {
	allowed := make(map[string]bool, len(categories))
	for _, c := range categories {
		allowed[c] = true
	}
	s := &Service{
		store:      store,
		agent:      agent,
		categories: allowed,
		threshold:  0.6,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Remember stores a memory under the given category.
func (s *Service) Remember(ctx context.Context, category, contextNote, content string) (Record, error) {
	if content == "" {
		return Record{}, errors.New(errors.CodeInvalidInput, "memory content is empty", nil)
	}
	if !s.categories[category] {
		return Record{}, errors.New(errors.CodeInvalidInput,
			fmt.Sprintf("category %q not allowed for agent %q", category, s.agent), nil)
	}

	rec := NewRecord(s.agent, category, contextNote, content)
	if err := s.store.Save(ctx, rec); err != nil {
		return Record{}, errors.New(errors.CodeMemoryError, "save failed", err)
	}
	s.index(ctx, rec)
	return rec, nil
}

// Recall returns memories relevant to the query. Category may be empty to
// search all allowed categories. Semantic search is tried first when a
// vector index is configured; keyword search covers the rest.
func (s *Service) Recall(ctx context.Context, query, category string, limit int) ([]Record, error) {
	if category != "" && !s.categories[category] {
		return nil, errors.New(errors.CodeInvalidInput,
			fmt.Sprintf("category %q not allowed for agent %q", category, s.agent), nil)
	}
	if limit <= 0 {
		limit = 5
	}

	if s.vector != nil && s.embedder != nil && query != "" {
		records, err := s.semanticRecall(ctx, query, category, limit)
		if err == nil && len(records) > 0 {
			return records, nil
		}
		if err != nil {
			s.logger.Warn("semantic recall failed, falling back to keyword search",
				slog.String("agent", s.agent), slog.Any("error", err))
		}
	}

	records, err := s.store.Search(ctx, Query{
		Agent:    s.agent,
		Category: category,
		Text:     query,
		Limit:    limit,
	})
	if err != nil {
		return nil, errors.New(errors.CodeMemoryError, "search failed", err)
	}
	return records, nil
}

// Forget removes a memory by ID. Only this agent's records can be removed.
func (s *Service) Forget(ctx context.Context, id string) error {
	records, err := s.store.List(ctx, Query{Agent: s.agent})
	if err != nil {
		return errors.New(errors.CodeMemoryError, "list failed", err)
	}
	owned := false
	for _, rec := range records {
		if rec.ID == id {
			owned = true
			break
		}
	}
	if !owned {
		return errors.New(errors.CodeNotFound, fmt.Sprintf("memory %q not found", id), nil)
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return errors.New(errors.CodeMemoryError, "delete failed", err)
	}
	if s.vector != nil {
		if err := s.vector.DeletePoints(ctx, s.collection, []string{id}); err != nil {
			s.logger.Warn("vector delete failed", slog.String("id", id), slog.Any("error", err))
		}
	}
	return nil
}

// List returns this agent's memories, newest first.
func (s *Service) List(ctx context.Context, category string, limit int) ([]Record, error) {
	if category != "" && !s.categories[category] {
		return nil, errors.New(errors.CodeInvalidInput,
			fmt.Sprintf("category %q not allowed for agent %q", category, s.agent), nil)
	}
	records, err := s.store.List(ctx, Query{Agent: s.agent, Category: category, Limit: limit})
	if err != nil {
		return nil, errors.New(errors.CodeMemoryError, "list failed", err)
	}
	return records, nil
}

// Categories returns the categories this service accepts.
func (s *Service) Categories() []string {
	out := make([]string, 0, len(s.categories))
	for c := range s.categories {
		out = append(out, c)
	}
	return out
}

// index mirrors the record into the vector store. Failures are logged,
// not fatal: the keyword store already holds the record.
func (s *Service) index(ctx context.Context, rec Record) {
	if s.vector == nil || s.embedder == nil {
		return
	}
	vec, err := s.embedder.Embed(ctx, rec.Content)
	if err != nil {
		s.logger.Warn("embedding failed", slog.String("id", rec.ID), slog.Any("error", err))
		return
	}
	point := Point{ID: rec.ID, Vector: vec, Payload: pointPayload(rec)}
	if err := s.vector.Upsert(ctx, s.collection, []Point{point}); err != nil {
		s.logger.Warn("vector upsert failed", slog.String("id", rec.ID), slog.Any("error", err))
	}
}

func (s *Service) semanticRecall(ctx context.Context, query, category string, limit int) ([]Record, error) {
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	// Over-fetch so post-filtering by agent/category still fills the limit.
	hits, err := s.vector.Search(ctx, s.collection, vec, limit*4, s.threshold)
	if err != nil {
		return nil, err
	}

	var records []Record
	for _, hit := range hits {
		rec := recordFromPayload(hit.ID, hit.Payload)
		if rec.Agent != s.agent {
			continue
		}
		if category != "" && rec.Category != category {
			continue
		}
		records = append(records, rec)
		if len(records) == limit {
			break
		}
	}
	return records, nil
}
