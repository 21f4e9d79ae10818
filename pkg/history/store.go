// Package history keeps the in-memory log of predictions made by this process.
package history

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Record is one completed prediction.
type Record struct {
	ID        uuid.UUID `json:"id"`
	URL       string    `json:"url"`
	Label     string    `json:"label"`
	CheckedAt time.Time `json:"checked_at"`
}

// Store is an append-only list of records, oldest first. When maxRecords is
// positive the oldest records are dropped to stay within it.
type Store struct {
	mu         sync.Mutex
	records    []Record
	maxRecords int
}

func NewStore(maxRecords int) *Store {
	return &Store{maxRecords: maxRecords}
}

// Append records a prediction and returns the stored record.
func (s *Store) Append(url, label string, at time.Time) Record {
	r := Record{ID: uuid.New(), URL: url, Label: label, CheckedAt: at}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
	if s.maxRecords > 0 && len(s.records) > s.maxRecords {
		drop := len(s.records) - s.maxRecords
		s.records = append(s.records[:0:0], s.records[drop:]...)
	}
	return r
}

// List returns a copy of the records, oldest first.
func (s *Store) List() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Clear removes every record.
func (s *Store) Clear() {
	s.mu.Lock()
	s.records = nil
	s.mu.Unlock()
}
