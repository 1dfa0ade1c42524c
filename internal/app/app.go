// Package app wires configuration into adapters and services. Both
// binaries build their runtime through it.
package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/adapters/driven/dynamodb"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/adapters/driven/metrics"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/adapters/driven/opensearch"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/adapters/driven/storage/sqlite"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/adapters/driven/throttle"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/config"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/domain"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/ports/driven"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/services"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/logger"
)

// NewSink opens the configured index sink behind a throttle.
func NewSink(ctx context.Context, cfg *config.Config) (*throttle.Sink, error) {
	var inner driven.IndexSink
	switch cfg.Sink {
	case config.SinkOpenSearch:
		s, err := opensearch.New(ctx, opensearch.Config{
			Endpoint: cfg.Host,
			Region:   cfg.SigningRegion(),
			Refresh:  cfg.Refresh,
		})
		if err != nil {
			return nil, err
		}
		inner = s
	case config.SinkSQLite:
		s, err := sqlite.NewStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("Writing to local store %s", s.Path())
		inner = s
	default:
		return nil, fmt.Errorf("%w: unknown sink %q", domain.ErrUnsupportedType, cfg.Sink)
	}

	return throttle.New(inner, throttle.Config{
		RequestsPerSecond: cfg.SinkRateLimit,
		BurstSize:         cfg.SinkRateBurst,
	}), nil
}

// NewMetrics returns a statsd client when an agent address is set,
// otherwise a no-op. The returned close function is never nil.
func NewMetrics(cfg *config.Config) (driven.Metrics, func() error, error) {
	if cfg.StatsDAddr == "" {
		return metrics.NoOp{}, func() error { return nil }, nil
	}
	m, err := metrics.NewStatsD(cfg.StatsDAddr, "index:"+cfg.Index, "sink:"+cfg.Sink)
	if err != nil {
		return nil, nil, err
	}
	return m, m.Close, nil
}

// NewSyncService builds the translate-and-submit pipeline over sink.
func NewSyncService(cfg *config.Config, sink driven.IndexSink, m driven.Metrics) *services.SyncService {
	if len(cfg.IDFields()) == 0 && len(cfg.KeyOrder()) == 0 {
		logger.Warn("Neither es_id nor key_schema is set: composite key ids are ordered by attribute name, " +
			"which may differ from the table's partition-then-sort order used by backfill")
	}
	decoder := services.NewDecoder()
	ids := services.NewIdentityDeriver(decoder, cfg.IDFields(), cfg.KeyOrder())
	translator := services.NewTranslator(decoder, ids, sink, cfg.Index, driven.CollectionSettings{MappingCoerce: true})
	submitter := services.NewSubmitter(sink, cfg.Index, cfg.DocType, m)
	return services.NewSyncService(translator, submitter, m)
}

// NewScanner connects to the source table.
func NewScanner(ctx context.Context, cfg *config.Config) (driven.TableScanner, error) {
	client, err := dynamodb.NewClient(ctx, cfg.Region, cfg.DDBEndpoint)
	if err != nil {
		return nil, err
	}
	return dynamodb.NewScanner(client, cfg.Table), nil
}

// UseTableKeyOrder fills an empty key_schema from the table's key schema,
// so backfill ids put the partition key before the sort key.
func UseTableKeyOrder(ctx context.Context, cfg *config.Config, scanner driven.TableScanner) error {
	if len(cfg.KeyOrder()) > 0 {
		return nil
	}
	keys, err := scanner.KeyAttributes(ctx)
	if err != nil {
		return fmt.Errorf("%w: key attributes: %w", domain.ErrScan, err)
	}
	cfg.KeySchema = strings.Join(keys, ",")
	logger.Info("Using table key order %v for document ids", keys)
	return nil
}

// BackfillOptions maps the configuration onto backfill options.
func BackfillOptions(cfg *config.Config) services.BackfillOptions {
	return services.BackfillOptions{
		PageSize:       cfg.PageSize,
		Workers:        cfg.Workers,
		FlushThreshold: cfg.FlushThreshold,
	}
}
