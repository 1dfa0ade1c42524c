// Package memory provides in-memory implementations of the driven ports.
// They back tests and dry runs; nothing is persisted.
package memory

import (
	"context"
	"net/http"
	"sync"

	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/domain"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/ports/driven"
)

// Ensure Sink implements the interface.
var _ driven.IndexSink = (*Sink)(nil)

// Sink is an in-memory implementation of driven.IndexSink.
type Sink struct {
	mu          sync.RWMutex
	collections map[string]driven.CollectionSettings
	documents   map[string]map[string]domain.Document
	requests    [][]domain.BulkOperation
	creates     int
	rejected    map[string]string
	bulkErr     error
	existsErr   error
	createErr   error
}

// NewSink creates a new in-memory sink.
func NewSink() *Sink {
	return &Sink{
		collections: make(map[string]driven.CollectionSettings),
		documents:   make(map[string]map[string]domain.Document),
		rejected:    make(map[string]string),
	}
}

// CollectionExists reports whether the collection was created.
func (s *Sink) CollectionExists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.existsErr != nil {
		return false, s.existsErr
	}
	_, ok := s.collections[name]
	return ok, nil
}

// CreateCollection creates a collection.
func (s *Sink) CreateCollection(_ context.Context, name string, settings driven.CollectionSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	if s.createErr != nil {
		return s.createErr
	}
	if _, ok := s.collections[name]; ok {
		return domain.ErrAlreadyExists
	}
	s.collections[name] = settings
	if s.documents[name] == nil {
		s.documents[name] = make(map[string]domain.Document)
	}
	return nil
}

// Bulk applies every operation, recording per-item outcomes.
func (s *Sink) Bulk(_ context.Context, ops []domain.BulkOperation) (*driven.BulkResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bulkErr != nil {
		return nil, s.bulkErr
	}

	req := make([]domain.BulkOperation, len(ops))
	copy(req, ops)
	s.requests = append(s.requests, req)

	resp := &driven.BulkResponse{Items: make([]domain.BulkItemResult, 0, len(ops))}
	for _, op := range ops {
		item := domain.BulkItemResult{ID: op.ID, Action: op.Action}
		if reason, ok := s.rejected[op.ID]; ok {
			item.Status = http.StatusBadRequest
			item.Error = reason
			resp.Items = append(resp.Items, item)
			continue
		}

		docs := s.documents[op.Collection]
		if docs == nil {
			docs = make(map[string]domain.Document)
			s.documents[op.Collection] = docs
		}

		switch op.Action {
		case domain.BulkIndex:
			item.Status = http.StatusCreated
			if _, ok := docs[op.ID]; ok {
				item.Status = http.StatusOK
			}
			docs[op.ID] = op.Body
		case domain.BulkDelete:
			item.Status = http.StatusOK
			if _, ok := docs[op.ID]; !ok {
				item.Status = http.StatusNotFound
			}
			delete(docs, op.ID)
		default:
			item.Status = http.StatusBadRequest
			item.Error = "unknown action"
		}
		resp.Items = append(resp.Items, item)
	}
	return resp, nil
}

// Close is a no-op.
func (s *Sink) Close() error {
	return nil
}

// Get returns a stored document.
func (s *Sink) Get(collection, id string) (domain.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[collection][id]
	return doc, ok
}

// Count returns the number of documents in a collection.
func (s *Sink) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents[collection])
}

// Requests returns every bulk request received, in order.
func (s *Sink) Requests() [][]domain.BulkOperation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([][]domain.BulkOperation, len(s.requests))
	copy(out, s.requests)
	return out
}

// Creates returns the number of CreateCollection calls.
func (s *Sink) Creates() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creates
}

// Reject makes every later operation for id fail with reason.
func (s *Sink) Reject(id, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejected[id] = reason
}

// FailBulk makes every later Bulk call return err. Nil clears it.
func (s *Sink) FailBulk(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bulkErr = err
}

// FailExists makes CollectionExists return err. Nil clears it.
func (s *Sink) FailExists(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.existsErr = err
}

// FailCreate makes CreateCollection return err. Nil clears it.
func (s *Sink) FailCreate(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createErr = err
}
