package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/domain"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/ports/driven"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/logger"
)

// Translator maps change records to pending operations.
// It is safe for concurrent use by backfill workers.
type Translator struct {
	decoder    *Decoder
	ids        *IdentityDeriver
	sink       driven.IndexSink
	collection string
	settings   driven.CollectionSettings

	mu      sync.Mutex
	ensured map[string]bool
}

// NewTranslator creates a translator writing into collection.
func NewTranslator(
	decoder *Decoder,
	ids *IdentityDeriver,
	sink driven.IndexSink,
	collection string,
	settings driven.CollectionSettings,
) *Translator {
	return &Translator{
		decoder:    decoder,
		ids:        ids,
		sink:       sink,
		collection: collection,
		settings:   settings,
		ensured:    make(map[string]bool),
	}
}

// Translate converts rec into a pending operation and stores it in batch,
// replacing any earlier operation for the same document id.
// Returns the document id.
func (t *Translator) Translate(ctx context.Context, rec domain.ChangeRecord, batch *domain.PendingBatch) (string, error) {
	id, err := t.ids.Derive(rec.Keys)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrTranslation, err)
	}

	var op domain.PendingOp
	switch rec.EventName {
	case domain.EventInsert:
		doc, err := t.image(rec)
		if err != nil {
			return "", err
		}
		if err := t.ensureCollection(ctx, t.collection); err != nil {
			return "", fmt.Errorf("%w: %w", domain.ErrTranslation, err)
		}
		op = domain.PendingOp{Op: domain.OpCreate, Doc: doc}

	case domain.EventModify:
		doc, err := t.image(rec)
		if err != nil {
			return "", err
		}
		op = domain.PendingOp{Op: domain.OpUpdate, Doc: doc}

	case domain.EventRemove:
		op = domain.PendingOp{Op: domain.OpDelete, Doc: domain.Document{}}

	default:
		return "", fmt.Errorf("%w: %w: event name %q", domain.ErrTranslation, domain.ErrUnsupportedType, rec.EventName)
	}

	batch.Put(id, op)
	return id, nil
}

func (t *Translator) image(rec domain.ChangeRecord) (domain.Document, error) {
	if rec.NewImage == nil {
		return nil, fmt.Errorf("%w: %s record has no new image", domain.ErrTranslation, rec.EventName)
	}
	doc, err := t.decoder.DecodeImage(rec.NewImage)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTranslation, err)
	}
	return doc, nil
}

// ensureCollection creates the collection on first use. A collection
// created concurrently by another writer counts as success.
func (t *Translator) ensureCollection(ctx context.Context, name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ensured[name] {
		return nil
	}

	exists, err := t.sink.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check collection %s: %w", name, err)
	}
	if !exists {
		logger.Info("Create missing index: %s", name)
		err := t.sink.CreateCollection(ctx, name, t.settings)
		if err != nil && !errors.Is(err, domain.ErrAlreadyExists) {
			return fmt.Errorf("create collection %s: %w", name, err)
		}
	}

	t.ensured[name] = true
	return nil
}
