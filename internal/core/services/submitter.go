package services

import (
	"context"
	"fmt"
	"time"

	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/domain"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/ports/driven"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/logger"
)

// Submitter turns a pending batch into one bulk request.
// Nothing is retried here.
type Submitter struct {
	sink       driven.IndexSink
	collection string
	docType    string
	metrics    driven.Metrics
}

// NewSubmitter creates a submitter. metrics may be nil.
func NewSubmitter(sink driven.IndexSink, collection, docType string, metrics driven.Metrics) *Submitter {
	return &Submitter{
		sink:       sink,
		collection: collection,
		docType:    docType,
		metrics:    metrics,
	}
}

// Operations builds the bulk descriptors for batch in first-seen order.
// Entries with an unrecognised op tag are skipped and counted.
func (s *Submitter) Operations(batch *domain.PendingBatch) (ops []domain.BulkOperation, skipped int) {
	ops = make([]domain.BulkOperation, 0, batch.Len())
	batch.Each(func(id string, op domain.PendingOp) {
		switch op.Op {
		case domain.OpCreate, domain.OpUpdate:
			ops = append(ops, domain.BulkOperation{
				Collection: s.collection,
				DocType:    s.docType,
				Action:     domain.BulkIndex,
				ID:         id,
				Body:       op.Doc,
			})
		case domain.OpDelete:
			ops = append(ops, domain.BulkOperation{
				Collection: s.collection,
				DocType:    s.docType,
				Action:     domain.BulkDelete,
				ID:         id,
			})
		default:
			logger.Warn("op_type %q not supported, skipping %s", op.Op, id)
			skipped++
		}
	})
	return ops, skipped
}

// Submit sends every entry of batch in a single bulk request and clears it.
// Per-item failures are logged and counted; only a rejected request
// returns an error.
func (s *Submitter) Submit(ctx context.Context, batch *domain.PendingBatch) (domain.SubmissionReport, error) {
	defer batch.Clear()

	total := batch.Len()
	ops, skipped := s.Operations(batch)
	report := domain.SubmissionReport{Skipped: skipped}
	if len(ops) == 0 {
		return report, nil
	}

	start := time.Now()
	resp, err := s.sink.Bulk(ctx, ops)
	s.timing("bulk.latency", time.Since(start))
	s.count("bulk.requests", 1)
	if err != nil {
		return report, fmt.Errorf("%w: %w", domain.ErrSubmission, err)
	}

	report.Submitted = len(ops)
	for _, item := range resp.FailedItems() {
		report.Failed++
		logger.Get().Warn().
			Str("id", item.ID).
			Str("action", string(item.Action)).
			Int("status", item.Status).
			Str("reason", item.Error).
			Msg("bulk item rejected")
	}

	s.count("bulk.items", int64(report.Submitted))
	s.count("bulk.item_failures", int64(report.Failed))
	logger.Get().Info().Int("count", total).Msgf("Successfully bulk: %d records", total)
	return report, nil
}

func (s *Submitter) count(name string, v int64) {
	if s.metrics != nil {
		s.metrics.Count(name, v)
	}
}

func (s *Submitter) timing(name string, d time.Duration) {
	if s.metrics != nil {
		s.metrics.Timing(name, d)
	}
}
