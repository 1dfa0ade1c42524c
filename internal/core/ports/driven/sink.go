package driven

import (
	"context"

	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/domain"
)

// IndexSink is the search/index store that receives documents.
type IndexSink interface {
	// CollectionExists reports whether the named collection exists.
	CollectionExists(ctx context.Context, name string) (bool, error)

	// CreateCollection creates the named collection.
	// Returns domain.ErrAlreadyExists if another writer created it first.
	CreateCollection(ctx context.Context, name string, settings CollectionSettings) error

	// Bulk submits all operations in a single request.
	// An error means the request as a whole was rejected; per-item
	// outcomes are reported in the response.
	Bulk(ctx context.Context, ops []domain.BulkOperation) (*BulkResponse, error)

	// Close releases resources.
	Close() error
}

// CollectionSettings are applied when a collection is created lazily.
type CollectionSettings struct {
	// MappingCoerce lets the sink coerce mismatched field values
	// (e.g. "7" into a numeric field) instead of rejecting them.
	MappingCoerce bool
}

// BulkResponse carries the per-item outcomes of one bulk request.
type BulkResponse struct {
	// Items holds one result per operation, in request order.
	Items []domain.BulkItemResult
}

// FailedItems returns the items the sink rejected.
func (r *BulkResponse) FailedItems() []domain.BulkItemResult {
	if r == nil {
		return nil
	}
	var failed []domain.BulkItemResult
	for _, item := range r.Items {
		if item.Failed() {
			failed = append(failed, item)
		}
	}
	return failed
}
