// Package throttle rate limits bulk requests in front of any index sink.
package throttle

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/domain"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/ports/driven"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/logger"
)

// Ensure Sink implements the interface.
var _ driven.IndexSink = (*Sink)(nil)

// DefaultBackoff is how long bulk requests pause after the sink throttles.
const DefaultBackoff = 5 * time.Second

// Config holds rate limiting configuration for a sink.
type Config struct {
	// RequestsPerSecond is the sustained bulk request rate. Zero or
	// negative means unlimited.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size.
	BurstSize int
	// Backoff is the pause after a throttled response. Zero uses DefaultBackoff.
	Backoff time.Duration
}

func (c Config) limit() (rate.Limit, int) {
	if c.RequestsPerSecond <= 0 {
		return rate.Inf, 0
	}
	burst := c.BurstSize
	if burst <= 0 {
		burst = 1
	}
	return rate.Limit(c.RequestsPerSecond), burst
}

// Sink wraps an IndexSink with a token bucket on Bulk. Collection
// management calls pass straight through.
type Sink struct {
	next driven.IndexSink

	mu      sync.Mutex
	limiter *rate.Limiter
	backoff time.Duration
	retryAt time.Time
}

// New wraps next with the given limits.
func New(next driven.IndexSink, cfg Config) *Sink {
	limit, burst := cfg.limit()
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = DefaultBackoff
	}
	return &Sink{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
		backoff: backoff,
	}
}

// SetLimit changes the sustained rate and burst of a running sink.
func (s *Sink) SetLimit(requestsPerSecond float64, burst int) {
	limit, b := Config{RequestsPerSecond: requestsPerSecond, BurstSize: burst}.limit()
	// A finite rate with a zero burst rejects every Wait, so the burst
	// must be non-zero whenever the limit is finite.
	if limit == rate.Inf {
		s.limiter.SetLimit(limit)
		s.limiter.SetBurst(b)
	} else {
		s.limiter.SetBurst(b)
		s.limiter.SetLimit(limit)
	}
	logger.Info("Sink rate limit set to %v req/s (burst %d)", requestsPerSecond, b)
}

// Limit returns the current sustained rate.
func (s *Sink) Limit() rate.Limit {
	return s.limiter.Limit()
}

// Wait blocks until a bulk request may be sent.
func (s *Sink) Wait(ctx context.Context) error {
	s.mu.Lock()
	retryAt := s.retryAt
	s.mu.Unlock()

	if time.Now().Before(retryAt) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(retryAt)):
		}
	}

	return s.limiter.Wait(ctx)
}

// CollectionExists implements driven.IndexSink.
func (s *Sink) CollectionExists(ctx context.Context, name string) (bool, error) {
	return s.next.CollectionExists(ctx, name)
}

// CreateCollection implements driven.IndexSink.
func (s *Sink) CreateCollection(ctx context.Context, name string, settings driven.CollectionSettings) error {
	return s.next.CreateCollection(ctx, name, settings)
}

// Bulk waits for a token, then forwards the request. A throttled
// response pauses every later request for the backoff period.
func (s *Sink) Bulk(ctx context.Context, ops []domain.BulkOperation) (*driven.BulkResponse, error) {
	if err := s.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := s.next.Bulk(ctx, ops)
	if errors.Is(err, domain.ErrThrottled) {
		s.mu.Lock()
		s.retryAt = time.Now().Add(s.backoff)
		s.mu.Unlock()
		logger.Warn("Sink throttled, pausing bulk requests for %s", s.backoff)
	}
	return resp, err
}

// Close closes the wrapped sink.
func (s *Sink) Close() error {
	return s.next.Close()
}
