package domain

import "fmt"

// EventName is the kind of row-level mutation a ChangeRecord carries.
type EventName string

const (
	// EventInsert is a newly created row.
	EventInsert EventName = "INSERT"

	// EventModify is an existing row whose attributes changed.
	EventModify EventName = "MODIFY"

	// EventRemove is a deleted row.
	EventRemove EventName = "REMOVE"
)

// ParseEventName validates a wire event name.
func ParseEventName(s string) (EventName, error) {
	switch EventName(s) {
	case EventInsert, EventModify, EventRemove:
		return EventName(s), nil
	default:
		return "", fmt.Errorf("%w: event name %q", ErrUnsupportedType, s)
	}
}

// ChangeRecord is one row-level mutation, either delivered by the
// change stream or synthesized by a backfill scan.
// It is treated as immutable once created.
type ChangeRecord struct {
	// EventID identifies the record for logging. Optional.
	EventID string

	// EventName is the mutation kind.
	EventName EventName

	// Keys holds the row's key attributes.
	Keys AttributeMap

	// NewImage is the full current row. Nil for REMOVE.
	NewImage AttributeMap

	// SequenceNumber is the stream position. Empty for synthesized records.
	SequenceNumber string
}
