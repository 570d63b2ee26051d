package memory

import "context"

// VectorStore is a vector database used for semantic recall.
type VectorStore interface {
	// EnsureCollection creates the collection if it does not exist.
	EnsureCollection(ctx context.Context, name string, vectorSize uint64) error

	// Upsert adds or updates points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search returns the nearest points to the vector, best score first.
	Search(ctx context.Context, collection string, vector []float32, limit int, scoreThreshold float32) ([]ScoredPoint, error)

	// DeletePoints removes points by ID.
	DeletePoints(ctx context.Context, collection string, ids []string) error
}

// Point is one vector with its record payload.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// ScoredPoint is a search hit.
type ScoredPoint struct {
	ID      string
	Score   float32
	Payload map[string]any
}

// Embedder converts text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// pointPayload flattens a record into a vector store payload.
func pointPayload(rec Record) map[string]any {
	return map[string]any{
		"agent":      rec.Agent,
		"category":   rec.Category,
		"context":    rec.Context,
		"content":    rec.Content,
		"created_at": rec.CreatedAt.Unix(),
	}
}

// recordFromPayload rebuilds a record from a search hit. Missing fields
// stay zero.
func recordFromPayload(id string, payload map[string]any) Record {
	rec := Record{ID: id}
	if v, ok := payload["agent"].(string); ok {
		rec.Agent = v
	}
	if v, ok := payload["category"].(string); ok {
		rec.Category = v
	}
	if v, ok := payload["context"].(string); ok {
		rec.Context = v
	}
	if v, ok := payload["content"].(string); ok {
		rec.Content = v
	}
	return rec
}
