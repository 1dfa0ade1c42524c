package services

import (
	"sync"
	"time"

	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/adapters/driven/storage/memory"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/domain"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/ports/driven"
)

const testCollection = "users"

// recordingMetrics implements driven.Metrics for testing.
type recordingMetrics struct {
	mu     sync.Mutex
	counts map[string]int64
	timed  map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{counts: make(map[string]int64), timed: make(map[string]int)}
}

func (m *recordingMetrics) Count(name string, value int64, _ ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[name] += value
}

func (m *recordingMetrics) Timing(name string, _ time.Duration, _ ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timed[name]++
}

func (m *recordingMetrics) count(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[name]
}

func newTestTranslator(sink driven.IndexSink) *Translator {
	decoder := NewDecoder()
	return NewTranslator(
		decoder,
		NewIdentityDeriver(decoder, nil, nil),
		sink,
		testCollection,
		driven.CollectionSettings{MappingCoerce: true},
	)
}

func newTestSyncService(sink *memory.Sink, metrics driven.Metrics) *SyncService {
	return NewSyncService(
		newTestTranslator(sink),
		NewSubmitter(sink, testCollection, "", metrics),
		metrics,
	)
}

func insert(pk, name string) domain.ChangeRecord {
	return domain.ChangeRecord{
		EventName: domain.EventInsert,
		Keys:      domain.AttributeMap{"pk": domain.StringAttr(pk)},
		NewImage: domain.AttributeMap{
			"pk":   domain.StringAttr(pk),
			"name": domain.StringAttr(name),
		},
	}
}

func modify(pk, name string) domain.ChangeRecord {
	rec := insert(pk, name)
	rec.EventName = domain.EventModify
	return rec
}

func remove(pk string) domain.ChangeRecord {
	return domain.ChangeRecord{
		EventName: domain.EventRemove,
		Keys:      domain.AttributeMap{"pk": domain.StringAttr(pk)},
	}
}
