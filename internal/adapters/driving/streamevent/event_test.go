package streamevent

import (
	"os"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/domain"
)

func TestDecode_Fixture(t *testing.T) {
	data, err := os.ReadFile("testdata/event.json")
	require.NoError(t, err)

	records, failed, err := Decode(data)
	require.NoError(t, err)
	assert.Empty(t, failed)
	require.Len(t, records, 3)

	insert := records[0]
	assert.Equal(t, "1", insert.EventID)
	assert.Equal(t, domain.EventInsert, insert.EventName)
	assert.Equal(t, "111", insert.SequenceNumber)
	assert.Equal(t, domain.AttributeMap{"pk": domain.StringAttr("u1"), "sk": domain.NumberAttr("42")}, insert.Keys)
	assert.Equal(t, domain.AttributeMap{
		"pk":       domain.StringAttr("u1"),
		"sk":       domain.NumberAttr("42"),
		"name":     domain.StringAttr("Ada"),
		"active":   domain.BoolAttr(true),
		"nickname": domain.NullAttr{},
		"tags":     domain.StringSetAttr{"a", "b"},
		"scores":   domain.NumberSetAttr{"1", "2.5"},
		"avatar":   domain.BinaryAttr("hi"),
		"meta": domain.MapAttr{
			"tags": domain.ListAttr{domain.StringAttr("x"), domain.NumberAttr("1")},
		},
	}, insert.NewImage)

	assert.Equal(t, domain.EventModify, records[1].EventName)

	remove := records[2]
	assert.Equal(t, domain.EventRemove, remove.EventName)
	assert.Nil(t, remove.NewImage)
}

func TestDecode_BareArray(t *testing.T) {
	records, failed, err := Decode([]byte(`[
		{"eventID": "a", "eventName": "REMOVE", "dynamodb": {"Keys": {"pk": {"S": "x"}}}}
	]`))
	require.NoError(t, err)
	assert.Empty(t, failed)
	require.Len(t, records, 1)
	assert.Equal(t, "a", records[0].EventID)
}

func TestDecode_IsolatesBadRecords(t *testing.T) {
	records, failed, err := Decode([]byte(`{"Records": [
		{"eventID": "ok-1", "eventName": "INSERT", "dynamodb": {"Keys": {"pk": {"S": "a"}}, "NewImage": {"pk": {"S": "a"}}}},
		{"eventID": "bad-tag", "eventName": "INSERT", "dynamodb": {"Keys": {"pk": {"X": "a"}}}},
		{"eventID": "two-tags", "eventName": "INSERT", "dynamodb": {"Keys": {"pk": {"S": "a", "N": "1"}}}},
		{"eventID": "bad-event", "eventName": "TRUNCATE", "dynamodb": {"Keys": {"pk": {"S": "a"}}}},
		{"eventID": "ok-2", "eventName": "REMOVE", "dynamodb": {"Keys": {"pk": {"S": "b"}}}}
	]}`))
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "ok-1", records[0].EventID)
	assert.Equal(t, "ok-2", records[1].EventID)

	require.Len(t, failed, 3)
	assert.Equal(t, 1, failed[0].Index)
	assert.Equal(t, "bad-tag", failed[0].EventID)
	assert.ErrorIs(t, failed[0], domain.ErrDecode)
	assert.ErrorIs(t, failed[1], domain.ErrDecode)
	assert.ErrorIs(t, failed[2], domain.ErrUnsupportedType)
	assert.Contains(t, failed[2].Error(), "bad-event")
}

func TestDecode_InvalidPayload(t *testing.T) {
	_, _, err := Decode([]byte(`not json`))
	assert.ErrorIs(t, err, domain.ErrDecode)

	_, _, err = Decode([]byte(`[1, 2`))
	assert.ErrorIs(t, err, domain.ErrDecode)
}

func TestDecode_Empty(t *testing.T) {
	records, failed, err := Decode([]byte(`{"Records": []}`))
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Empty(t, failed)
}

func TestFromEventRecord(t *testing.T) {
	rec, err := FromEventRecord(events.DynamoDBEventRecord{
		EventID:   "e1",
		EventName: "MODIFY",
		Change: events.DynamoDBStreamRecord{
			Keys: map[string]events.DynamoDBAttributeValue{
				"pk": events.NewStringAttribute("u1"),
			},
			NewImage: map[string]events.DynamoDBAttributeValue{
				"pk":    events.NewStringAttribute("u1"),
				"items": events.NewListAttribute([]events.DynamoDBAttributeValue{events.NewNumberAttribute("3")}),
				"blobs": events.NewBinarySetAttribute([][]byte{[]byte("x")}),
				"none":  events.NewNullAttribute(),
			},
			SequenceNumber: "9",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.EventModify, rec.EventName)
	assert.Equal(t, domain.ListAttr{domain.NumberAttr("3")}, rec.NewImage["items"])
	assert.Equal(t, domain.BinarySetAttr{[]byte("x")}, rec.NewImage["blobs"])
	assert.Equal(t, domain.NullAttr{}, rec.NewImage["none"])
	assert.Equal(t, "9", rec.SequenceNumber)
}
