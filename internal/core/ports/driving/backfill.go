package driving

import "context"

// BackfillRunner seeds the index with every existing row of the table.
type BackfillRunner interface {
	Run(ctx context.Context) (BackfillReport, error)
}

// BackfillReport summarises a backfill run.
type BackfillReport struct {
	// RunID identifies the run in logs.
	RunID string

	// Scanned is the number of rows read from the table.
	Scanned int

	// Pages is the number of scan pages read.
	Pages int

	// Batches is the number of batches dispatched.
	Batches int

	// FailedBatches is the number of batches whose submission failed.
	FailedBatches int

	// Submitted is the number of bulk operations sent across all batches.
	Submitted int
}
