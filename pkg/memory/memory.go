// Package memory stores categorized agent memories with pluggable backends.
package memory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound indicates no matching record was found.
var ErrNotFound = errors.New("memory: not found")

// Record is one stored memory.
type Record struct {
	ID        string    `json:"id"`
	Agent     string    `json:"agent"`
	Category  string    `json:"category"`
	Context   string    `json:"context,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NewRecord creates a record with a fresh ID and timestamp.
func NewRecord(agent, category, contextNote, content string) Record {
	return Record{
		ID:        uuid.NewString(),
		Agent:     agent,
		Category:  category,
		Context:   contextNote,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}

// Query narrows Search and List results. Empty fields match everything.
type Query struct {
	Agent    string
	Category string
	Text     string
	Limit    int
}

// Store persists memory records.
type Store interface {
	// Save stores a record.
	Save(ctx context.Context, rec Record) error

	// Search returns records matching the query, best match first.
	Search(ctx context.Context, q Query) ([]Record, error)

	// Delete removes a record by ID. Returns ErrNotFound if absent.
	Delete(ctx context.Context, id string) error

	// List returns records matching agent/category filters, newest first.
	List(ctx context.Context, q Query) ([]Record, error)
}
