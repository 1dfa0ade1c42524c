package memory

import (
	"context"
	"reflect"
	"sync"

	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/domain"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/ports/driven"
)

// Ensure Scanner implements the interface.
var _ driven.TableScanner = (*Scanner)(nil)

// Scanner is an in-memory table that paginates like the source table:
// the continuation token is the key of the last row returned.
type Scanner struct {
	mu        sync.Mutex
	keyNames  []string
	rows      []domain.AttributeMap
	calls     int
	failAfter int
	failErr   error
}

// NewScanner creates a table with the given key attribute names.
func NewScanner(keyNames []string, rows ...domain.AttributeMap) *Scanner {
	return &Scanner{keyNames: keyNames, rows: rows}
}

// KeyAttributes returns the key attribute names.
func (s *Scanner) KeyAttributes(_ context.Context) ([]string, error) {
	return s.keyNames, nil
}

// Scan returns the page after start.
func (s *Scanner) Scan(_ context.Context, pageSize int, start domain.AttributeMap) (driven.ScanPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if s.failErr != nil && s.calls > s.failAfter {
		return driven.ScanPage{}, s.failErr
	}

	from := 0
	if len(start) > 0 {
		from = len(s.rows)
		for i, row := range s.rows {
			if reflect.DeepEqual(row.Subset(s.keyNames), start) {
				from = i + 1
				break
			}
		}
	}

	end := from + pageSize
	if end > len(s.rows) {
		end = len(s.rows)
	}

	page := driven.ScanPage{Items: s.rows[from:end]}
	if end < len(s.rows) && end > from {
		page.Next = s.rows[end-1].Subset(s.keyNames)
	}
	return page, nil
}

// Calls returns the number of Scan calls.
func (s *Scanner) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// FailAfter makes every Scan call after the first n return err.
func (s *Scanner) FailAfter(n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAfter = n
	s.failErr = err
}
