package services

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/domain"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/ports/driven"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/ports/driving"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/logger"
)

// Ensure Backfiller implements the interface.
var _ driving.BackfillRunner = (*Backfiller)(nil)

// Backfill defaults.
const (
	DefaultPageSize       = 200
	DefaultWorkers        = 5
	DefaultFlushThreshold = 100
)

// BackfillOptions tunes a backfill run. Zero values take the defaults.
type BackfillOptions struct {
	// PageSize is the number of rows requested per scan page.
	PageSize int

	// Workers bounds the number of batches submitted concurrently.
	Workers int

	// FlushThreshold is the number of records per dispatched batch.
	FlushThreshold int
}

func (o BackfillOptions) withDefaults() BackfillOptions {
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.FlushThreshold <= 0 {
		o.FlushThreshold = DefaultFlushThreshold
	}
	return o
}

// Backfiller scans the whole source table and pushes every row through
// the change processor as a synthetic INSERT.
type Backfiller struct {
	scanner   driven.TableScanner
	processor driving.ChangeProcessor
	opts      BackfillOptions

	runID         string
	scanned       atomic.Int64
	pages         atomic.Int64
	batches       atomic.Int64
	failedBatches atomic.Int64
	submitted     atomic.Int64
}

// NewBackfiller creates a backfill driver.
func NewBackfiller(scanner driven.TableScanner, processor driving.ChangeProcessor, opts BackfillOptions) *Backfiller {
	return &Backfiller{
		scanner:   scanner,
		processor: processor,
		opts:      opts.withDefaults(),
		runID:     uuid.New().String(),
	}
}

// Progress returns a snapshot of the run's counters. Safe to call
// while Run is executing.
func (b *Backfiller) Progress() driving.BackfillReport {
	return driving.BackfillReport{
		RunID:         b.runID,
		Scanned:       int(b.scanned.Load()),
		Pages:         int(b.pages.Load()),
		Batches:       int(b.batches.Load()),
		FailedBatches: int(b.failedBatches.Load()),
		Submitted:     int(b.submitted.Load()),
	}
}

// Run scans until the table reports no continuation token, dispatching a
// batch every FlushThreshold rows. The final partial batch is processed
// synchronously, and Run returns only after every dispatched batch has
// finished. A scan failure stops the run; batch failures do not.
func (b *Backfiller) Run(ctx context.Context) (driving.BackfillReport, error) {
	logger.Section("Backfill")
	logger.Info("Starting backfill run %s (page size %d, workers %d, flush at %d)",
		b.runID, b.opts.PageSize, b.opts.Workers, b.opts.FlushThreshold)

	keyNames, err := b.scanner.KeyAttributes(ctx)
	if err != nil {
		return b.Progress(), fmt.Errorf("%w: key attributes: %w", domain.ErrScan, err)
	}
	logger.Debug("Key attributes: %v", keyNames)

	g := new(errgroup.Group)
	g.SetLimit(b.opts.Workers)

	acc := NewAccumulator(b.opts.FlushThreshold)
	var start domain.AttributeMap

	for {
		if err := ctx.Err(); err != nil {
			_ = g.Wait()
			return b.Progress(), fmt.Errorf("%w: %w", domain.ErrScan, err)
		}

		page, err := b.scanner.Scan(ctx, b.opts.PageSize, start)
		if err != nil {
			_ = g.Wait()
			return b.Progress(), fmt.Errorf("%w: %w", domain.ErrScan, err)
		}
		b.pages.Add(1)

		for _, item := range page.Items {
			b.scanned.Add(1)
			if acc.Add(Synthesize(item, keyNames)) >= b.opts.FlushThreshold {
				batch := acc.Drain()
				n := b.batches.Add(1)
				g.Go(func() error {
					b.processBatch(ctx, n, batch)
					return nil
				})
			}
		}

		if len(page.Next) == 0 {
			break
		}
		start = page.Next
	}

	if rest := acc.Drain(); len(rest) > 0 {
		n := b.batches.Add(1)
		b.processBatch(ctx, n, rest)
	}

	_ = g.Wait()

	report := b.Progress()
	logger.Info("Backfill %s complete: %d rows, %d batches, %d submitted, %d failed batches",
		report.RunID, report.Scanned, report.Batches, report.Submitted, report.FailedBatches)
	return report, nil
}

func (b *Backfiller) processBatch(ctx context.Context, n int64, batch []domain.ChangeRecord) {
	logger.Debug("Dispatching batch %d (%d records)", n, len(batch))
	report, err := b.processor.Process(ctx, batch)
	b.submitted.Add(int64(report.Submission.Submitted))
	if err != nil {
		b.failedBatches.Add(1)
		logger.Error(err, "batch %d failed", n)
	}
}

// Synthesize builds the INSERT record a stream would have produced for item.
func Synthesize(item domain.AttributeMap, keyNames []string) domain.ChangeRecord {
	return domain.ChangeRecord{
		EventID:   uuid.New().String(),
		EventName: domain.EventInsert,
		Keys:      item.Subset(keyNames),
		NewImage:  item,
	}
}
