package store

import (
	"context"
	"sync"

	"github.com/i474232898/rainlog/internal/rainfall"
)

// MemoryStore is a concurrency-safe in-memory record store. Its contents live
// as long as the process.
type MemoryStore struct {
	mu sync.RWMutex

	// key: record id
	records map[string]rainfall.Record
	// number of records per date; consulted only when duplicates are rejected
	byDate map[string]int

	allowMultiplePerDate bool
}

// NewMemoryStore creates an empty MemoryStore. When allowMultiplePerDate is
// false, a second insert for the same date fails with rainfall.ErrDuplicateDate.
func NewMemoryStore(allowMultiplePerDate bool) *MemoryStore {
	return &MemoryStore{
		records:              make(map[string]rainfall.Record),
		byDate:               make(map[string]int),
		allowMultiplePerDate: allowMultiplePerDate,
	}
}

// Insert stores r under its id.
func (s *MemoryStore) Insert(_ context.Context, r rainfall.Record) (rainfall.Record, error) {
	day := r.Date.String()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.allowMultiplePerDate && s.byDate[day] > 0 {
		return rainfall.Record{}, rainfall.ErrDuplicateDate
	}
	if _, exists := s.records[r.ID]; exists {
		return rainfall.Record{}, ErrDuplicateID
	}

	s.records[r.ID] = r
	s.byDate[day]++
	return r, nil
}

// List returns every stored record in no particular order.
func (s *MemoryStore) List(_ context.Context) ([]rainfall.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]rainfall.Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
