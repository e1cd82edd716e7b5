package feedback

import (
	"context"
	"sync"
)

// MemoryStore keeps feedback records in memory. It is used when no database
// is configured and in tests.
type MemoryStore struct {
	mu      sync.Mutex
	records []*Feedback
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save appends the record. Records are kept in submission order.
func (s *MemoryStore) Save(ctx context.Context, f *Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, f)
	return nil
}

// ListByOrder returns the records for one order in submission order.
func (s *MemoryStore) ListByOrder(ctx context.Context, orderID string) ([]*Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matches []*Feedback
	for _, f := range s.records {
		if f.OrderID == orderID {
			matches = append(matches, f)
		}
	}
	return matches, nil
}
