// Package metrics provides driven.Metrics implementations: a DogStatsD
// client and a no-op.
package metrics

import (
	"fmt"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"

	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/ports/driven"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/logger"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "ddb2es."

var (
	_ driven.Metrics = (*StatsD)(nil)
	_ driven.Metrics = NoOp{}
)

// StatsD sends metrics to a DogStatsD agent.
// It is safe to use from multiple goroutines.
type StatsD struct {
	client       *statsd.Client
	samplingRate float64
}

// NewStatsD connects to the agent at addr. tags are attached to every metric.
func NewStatsD(addr string, tags ...string) (*StatsD, error) {
	client, err := statsd.New(
		addr,
		statsd.WithNamespace(DefaultNamespace),
		statsd.WithTags(tags),
		statsd.WithoutTelemetry(),
	)
	if err != nil {
		return nil, fmt.Errorf("statsd client: %w", err)
	}
	logger.Debug("Metrics client initialised with address %s, global tags %v", addr, tags)
	return &StatsD{client: client, samplingRate: 1}, nil
}

// Count increases a counter by value.
func (s *StatsD) Count(name string, value int64, tags ...string) {
	if err := s.client.Count(name, value, tags, s.samplingRate); err != nil {
		logger.Get().Warn().Err(err).Msg("Error occurred while doing statsd count")
	}
}

// Timing records a duration.
func (s *StatsD) Timing(name string, value time.Duration, tags ...string) {
	if err := s.client.Timing(name, value, tags, s.samplingRate); err != nil {
		logger.Get().Warn().Err(err).Msg("Error occurred while doing statsd timing")
	}
}

// Close flushes buffered metrics and closes the client.
func (s *StatsD) Close() error {
	return s.client.Close()
}

// NoOp discards every metric.
type NoOp struct{}

// Count implements driven.Metrics.
func (NoOp) Count(string, int64, ...string) {}

// Timing implements driven.Metrics.
func (NoOp) Timing(string, time.Duration, ...string) {}
