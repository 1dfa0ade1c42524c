package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/domain"
)

func rows(n int) []domain.AttributeMap {
	out := make([]domain.AttributeMap, n)
	for i := range out {
		out[i] = domain.AttributeMap{
			"pk":   domain.StringAttr(fmt.Sprintf("u%d", i)),
			"name": domain.StringAttr("row"),
		}
	}
	return out
}

func TestScanner_Paginates(t *testing.T) {
	ctx := context.Background()
	s := NewScanner([]string{"pk"}, rows(5)...)

	var seen []string
	var start domain.AttributeMap
	for {
		page, err := s.Scan(ctx, 2, start)
		require.NoError(t, err)
		for _, item := range page.Items {
			seen = append(seen, string(item["pk"].(domain.StringAttr)))
		}
		if page.Next == nil {
			break
		}
		start = page.Next
	}

	assert.Equal(t, []string{"u0", "u1", "u2", "u3", "u4"}, seen)
	assert.Equal(t, 3, s.Calls())
}

func TestScanner_Empty(t *testing.T) {
	s := NewScanner([]string{"pk"})

	page, err := s.Scan(context.Background(), 10, nil)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Nil(t, page.Next)
}

func TestScanner_FailAfter(t *testing.T) {
	ctx := context.Background()
	s := NewScanner([]string{"pk"}, rows(4)...)
	s.FailAfter(1, errors.New("throttled"))

	page, err := s.Scan(ctx, 2, nil)
	require.NoError(t, err)

	_, err = s.Scan(ctx, 2, page.Next)
	assert.EqualError(t, err, "throttled")
}

func TestScanner_KeyAttributes(t *testing.T) {
	s := NewScanner([]string{"pk", "sk"})
	keys, err := s.KeyAttributes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"pk", "sk"}, keys)
}
