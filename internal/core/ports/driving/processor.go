package driving

import (
	"context"

	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/domain"
)

// ChangeProcessor turns one delivered batch of change records into
// a single bulk submission.
type ChangeProcessor interface {
	// Process translates every record and submits the coalesced batch once.
	// Per-record failures are reported, not returned.
	Process(ctx context.Context, records []domain.ChangeRecord) (BatchReport, error)
}

// BatchReport summarises the processing of one batch.
type BatchReport struct {
	// Received is the number of records handed in.
	Received int

	// Translated is the number of records that produced a pending operation.
	Translated int

	// TranslationErrors is the number of records that were skipped.
	TranslationErrors int

	// Submission is the outcome of the bulk request.
	Submission domain.SubmissionReport
}
