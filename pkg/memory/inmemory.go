package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// InMemory is an in-process record store. Search ranks by keyword overlap.
type InMemory struct {
	mu      sync.RWMutex
	records []Record
}

// NewInMemory creates an empty in-memory store.
func NewInMemory() *InMemory {
	return &InMemory{}
}

// Save appends the record.
func (m *InMemory) Save(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

// Search returns matching records scored by keyword overlap with q.Text.
func (m *InMemory) Search(_ context.Context, q Query) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return rankRecords(m.records, q), nil
}

// Delete removes the record with the given ID.
func (m *InMemory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, rec := range m.records {
		if rec.ID == id {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// List returns matching records, newest first.
func (m *InMemory) List(_ context.Context, q Query) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return filterRecords(m.records, q), nil
}

func matchesFilter(rec Record, q Query) bool {
	if q.Agent != "" && rec.Agent != q.Agent {
		return false
	}
	if q.Category != "" && rec.Category != q.Category {
		return false
	}
	return true
}

func filterRecords(records []Record, q Query) []Record {
	var out []Record
	for _, rec := range records {
		if matchesFilter(rec, q) {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

// rankRecords scores each matching record by the number of query terms it
// contains, in content or context. Zero-score records are dropped when a
// query text is present.
func rankRecords(records []Record, q Query) []Record {
	terms := strings.Fields(strings.ToLower(q.Text))

	type scored struct {
		rec   Record
		score int
	}
	var out []scored
	for _, rec := range records {
		if !matchesFilter(rec, q) {
			continue
		}
		score := 0
		haystack := strings.ToLower(rec.Content + " " + rec.Context)
		for _, term := range terms {
			if strings.Contains(haystack, term) {
				score++
			}
		}
		if len(terms) > 0 && score == 0 {
			continue
		}
		out = append(out, scored{rec: rec, score: score})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		return out[i].rec.CreatedAt.After(out[j].rec.CreatedAt)
	})

	limit := q.Limit
	if limit <= 0 || limit > len(out) {
		limit = len(out)
	}
	result := make([]Record, 0, limit)
	for _, s := range out[:limit] {
		result = append(result, s.rec)
	}
	return result
}
