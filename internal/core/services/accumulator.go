package services

import (
	"sync"

	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/domain"
)

// Accumulator buffers synthesized records between flushes.
// Drain hands out the buffered records and resets the buffer in one
// critical section, so a dispatched batch never shares storage with
// records appended afterwards.
type Accumulator struct {
	mu      sync.Mutex
	records []domain.ChangeRecord
	size    int
}

// NewAccumulator creates an accumulator sized for one flush.
func NewAccumulator(size int) *Accumulator {
	return &Accumulator{
		records: make([]domain.ChangeRecord, 0, size),
		size:    size,
	}
}

// Add appends rec and returns the number of buffered records.
func (a *Accumulator) Add(rec domain.ChangeRecord) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, rec)
	return len(a.records)
}

// Len returns the number of buffered records.
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.records)
}

// Drain returns the buffered records and empties the buffer.
// Returns nil when nothing is buffered.
func (a *Accumulator) Drain() []domain.ChangeRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.records) == 0 {
		return nil
	}
	out := a.records
	a.records = make([]domain.ChangeRecord, 0, a.size)
	return out
}
