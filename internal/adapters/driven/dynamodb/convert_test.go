package dynamodb

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/domain"
)

func TestFromItem(t *testing.T) {
	item := map[string]types.AttributeValue{
		"pk":     &types.AttributeValueMemberS{Value: "u1"},
		"age":    &types.AttributeValueMemberN{Value: "36"},
		"active": &types.AttributeValueMemberBOOL{Value: true},
		"gone":   &types.AttributeValueMemberNULL{Value: true},
		"raw":    &types.AttributeValueMemberB{Value: []byte("hi")},
		"tags":   &types.AttributeValueMemberSS{Value: []string{"a", "b"}},
		"scores": &types.AttributeValueMemberNS{Value: []string{"1", "2.5"}},
		"blobs":  &types.AttributeValueMemberBS{Value: [][]byte{[]byte("x")}},
		"meta": &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
			"n": &types.AttributeValueMemberN{Value: "7"},
		}},
		"list": &types.AttributeValueMemberL{Value: []types.AttributeValue{
			&types.AttributeValueMemberS{Value: "x"},
			&types.AttributeValueMemberN{Value: "1"},
		}},
	}

	got, err := FromItem(item)
	require.NoError(t, err)
	assert.Equal(t, domain.AttributeMap{
		"pk":     domain.StringAttr("u1"),
		"age":    domain.NumberAttr("36"),
		"active": domain.BoolAttr(true),
		"gone":   domain.NullAttr{},
		"raw":    domain.BinaryAttr("hi"),
		"tags":   domain.StringSetAttr{"a", "b"},
		"scores": domain.NumberSetAttr{"1", "2.5"},
		"blobs":  domain.BinarySetAttr{[]byte("x")},
		"meta":   domain.MapAttr{"n": domain.NumberAttr("7")},
		"list":   domain.ListAttr{domain.StringAttr("x"), domain.NumberAttr("1")},
	}, got)

	back, err := ToItem(got)
	require.NoError(t, err)
	assert.Equal(t, item, back)
}

func TestFromAttributeValue_Unknown(t *testing.T) {
	_, err := FromAttributeValue(&types.UnknownUnionMember{Tag: "X"})
	assert.ErrorIs(t, err, domain.ErrDecode)
	assert.Contains(t, err.Error(), `"X"`)

	_, err = FromAttributeValue(nil)
	assert.ErrorIs(t, err, domain.ErrDecode)
}

func TestFromItem_NestedUnknown(t *testing.T) {
	_, err := FromItem(map[string]types.AttributeValue{
		"meta": &types.AttributeValueMemberL{Value: []types.AttributeValue{
			&types.UnknownUnionMember{Tag: "X"},
		}},
	})
	assert.ErrorIs(t, err, domain.ErrDecode)
	assert.Contains(t, err.Error(), `attribute "meta"`)
	assert.Contains(t, err.Error(), "list index 0")
}

func TestToAttributeValue_Nil(t *testing.T) {
	_, err := ToAttributeValue(nil)
	assert.ErrorIs(t, err, domain.ErrDecode)
}

func TestFromItem_Nil(t *testing.T) {
	m, err := FromItem(nil)
	require.NoError(t, err)
	assert.Nil(t, m)
}
