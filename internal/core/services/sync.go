package services

import (
	"context"

	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/domain"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/ports/driven"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/ports/driving"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/logger"
)

// Ensure SyncService implements the interface.
var _ driving.ChangeProcessor = (*SyncService)(nil)

// SyncService processes one delivered batch of change records:
// every record is translated into a shared pending batch, then the
// batch is submitted once.
type SyncService struct {
	translator *Translator
	submitter  *Submitter
	metrics    driven.Metrics
}

// NewSyncService creates a sync service. metrics may be nil.
func NewSyncService(translator *Translator, submitter *Submitter, metrics driven.Metrics) *SyncService {
	return &SyncService{
		translator: translator,
		submitter:  submitter,
		metrics:    metrics,
	}
}

// Process translates records in order and submits the coalesced batch.
// A record that fails translation is logged and skipped; it never aborts
// the batch. The returned error is non-nil only when the bulk request
// itself is rejected.
func (s *SyncService) Process(ctx context.Context, records []domain.ChangeRecord) (driving.BatchReport, error) {
	report := driving.BatchReport{Received: len(records)}
	batch := domain.NewPendingBatch()

	for _, rec := range records {
		if _, err := s.translator.Translate(ctx, rec, batch); err != nil {
			report.TranslationErrors++
			logger.Get().Error().
				Err(err).
				Str("event_id", rec.EventID).
				Str("event_name", string(rec.EventName)).
				Interface("keys", rec.Keys).
				Interface("new_image", rec.NewImage).
				Msg("Failed to process record")
			continue
		}
		report.Translated++
	}

	if s.metrics != nil {
		s.metrics.Count("records.translated", int64(report.Translated))
		s.metrics.Count("records.failed", int64(report.TranslationErrors))
	}

	sub, err := s.submitter.Submit(ctx, batch)
	report.Submission = sub
	if err != nil {
		logger.Error(err, "bulk submission of %d records failed", report.Translated)
		return report, err
	}
	return report, nil
}
