// Package streamevent decodes change-stream event JSON into domain
// change records. The Lambda handler, the HTTP ingest endpoint and the
// sync command all share it.
package streamevent

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"

	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/domain"
)

// RecordError describes one record that could not be decoded.
type RecordError struct {
	// Index is the record's position in the event.
	Index int
	// EventID is the record's id when it could be read.
	EventID string
	// Err wraps domain.ErrDecode or domain.ErrUnsupportedType.
	Err error
}

func (e RecordError) Error() string {
	if e.EventID != "" {
		return fmt.Sprintf("record %d (%s): %v", e.Index, e.EventID, e.Err)
	}
	return fmt.Sprintf("record %d: %v", e.Index, e.Err)
}

func (e RecordError) Unwrap() error {
	return e.Err
}

// Decode parses an event payload. The payload is either an object with a
// Records array or a bare array of records. Each record is decoded on its
// own, so one malformed record never hides the rest; its error is
// returned in the second slice. The error result is set only when the
// payload itself is not a record list.
func Decode(payload []byte) ([]domain.ChangeRecord, []RecordError, error) {
	raws, err := splitRecords(payload)
	if err != nil {
		return nil, nil, err
	}

	records := make([]domain.ChangeRecord, 0, len(raws))
	var failed []RecordError
	for i, raw := range raws {
		rec, err := decodeRecord(raw)
		if err != nil {
			failed = append(failed, RecordError{Index: i, EventID: peekEventID(raw), Err: err})
			continue
		}
		records = append(records, rec)
	}
	return records, failed, nil
}

func splitRecords(payload []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var raws []json.RawMessage
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return nil, fmt.Errorf("%w: event payload: %w", domain.ErrDecode, err)
		}
		return raws, nil
	}

	var envelope struct {
		Records []json.RawMessage `json:"Records"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("%w: event payload: %w", domain.ErrDecode, err)
	}
	return envelope.Records, nil
}

func decodeRecord(raw json.RawMessage) (domain.ChangeRecord, error) {
	var rec events.DynamoDBEventRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.ChangeRecord{}, fmt.Errorf("%w: %w", domain.ErrDecode, err)
	}
	return FromEventRecord(rec)
}

func peekEventID(raw json.RawMessage) string {
	var head struct {
		EventID string `json:"eventID"`
	}
	_ = json.Unmarshal(raw, &head)
	return head.EventID
}

// FromEventRecord converts one decoded stream record.
func FromEventRecord(rec events.DynamoDBEventRecord) (domain.ChangeRecord, error) {
	name, err := domain.ParseEventName(rec.EventName)
	if err != nil {
		return domain.ChangeRecord{}, err
	}

	keys, err := FromAttributeMap(rec.Change.Keys)
	if err != nil {
		return domain.ChangeRecord{}, fmt.Errorf("keys: %w", err)
	}
	image, err := FromAttributeMap(rec.Change.NewImage)
	if err != nil {
		return domain.ChangeRecord{}, fmt.Errorf("new image: %w", err)
	}

	return domain.ChangeRecord{
		EventID:        rec.EventID,
		EventName:      name,
		Keys:           keys,
		NewImage:       image,
		SequenceNumber: rec.Change.SequenceNumber,
	}, nil
}

// FromAttributeMap converts a stream attribute map. A nil map stays nil.
func FromAttributeMap(m map[string]events.DynamoDBAttributeValue) (domain.AttributeMap, error) {
	if m == nil {
		return nil, nil
	}
	out := make(domain.AttributeMap, len(m))
	for name, av := range m {
		v, err := FromAttributeValue(av)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

// FromAttributeValue converts one stream attribute value.
func FromAttributeValue(av events.DynamoDBAttributeValue) (domain.AttributeValue, error) {
	switch av.DataType() {
	case events.DataTypeNull:
		return domain.NullAttr{}, nil
	case events.DataTypeString:
		return domain.StringAttr(av.String()), nil
	case events.DataTypeBoolean:
		return domain.BoolAttr(av.Boolean()), nil
	case events.DataTypeNumber:
		return domain.NumberAttr(av.Number()), nil
	case events.DataTypeBinary:
		return domain.BinaryAttr(av.Binary()), nil
	case events.DataTypeStringSet:
		return domain.StringSetAttr(av.StringSet()), nil
	case events.DataTypeNumberSet:
		return domain.NumberSetAttr(av.NumberSet()), nil
	case events.DataTypeBinarySet:
		return domain.BinarySetAttr(av.BinarySet()), nil
	case events.DataTypeMap:
		m, err := FromAttributeMap(av.Map())
		if err != nil {
			return nil, err
		}
		return domain.MapAttr(m), nil
	case events.DataTypeList:
		src := av.List()
		l := make(domain.ListAttr, len(src))
		for i, elem := range src {
			v, err := FromAttributeValue(elem)
			if err != nil {
				return nil, fmt.Errorf("list index %d: %w", i, err)
			}
			l[i] = v
		}
		return l, nil
	default:
		return nil, fmt.Errorf("%w: unknown data type %d", domain.ErrDecode, av.DataType())
	}
}
