package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	ddb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/domain"
)

// mockAPI implements API for testing. Rows are served in order and the
// continuation token is the key of the last row in the page.
type mockAPI struct {
	keySchema   []types.KeySchemaElement
	describeErr error
	scanErr     error
	rows        []map[string]types.AttributeValue

	describeCalls int
	inputs        []*ddb.ScanInput
}

func (m *mockAPI) DescribeTable(_ context.Context, params *ddb.DescribeTableInput, _ ...func(*ddb.Options)) (*ddb.DescribeTableOutput, error) {
	m.describeCalls++
	if m.describeErr != nil {
		return nil, m.describeErr
	}
	return &ddb.DescribeTableOutput{Table: &types.TableDescription{
		TableName: params.TableName,
		KeySchema: m.keySchema,
	}}, nil
}

func (m *mockAPI) Scan(_ context.Context, params *ddb.ScanInput, _ ...func(*ddb.Options)) (*ddb.ScanOutput, error) {
	m.inputs = append(m.inputs, params)
	if m.scanErr != nil {
		return nil, m.scanErr
	}

	from := 0
	if params.ExclusiveStartKey != nil {
		last := params.ExclusiveStartKey["pk"].(*types.AttributeValueMemberS).Value
		for i, row := range m.rows {
			if row["pk"].(*types.AttributeValueMemberS).Value == last {
				from = i + 1
			}
		}
	}
	end := from + int(aws.ToInt32(params.Limit))
	if end > len(m.rows) {
		end = len(m.rows)
	}

	out := &ddb.ScanOutput{Items: m.rows[from:end], Count: int32(end - from)}
	if end < len(m.rows) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{"pk": m.rows[end-1]["pk"]}
	}
	return out, nil
}

func hashRange(hash, rng string) []types.KeySchemaElement {
	// RANGE listed first to check ordering.
	return []types.KeySchemaElement{
		{AttributeName: aws.String(rng), KeyType: types.KeyTypeRange},
		{AttributeName: aws.String(hash), KeyType: types.KeyTypeHash},
	}
}

func rows(n int) []map[string]types.AttributeValue {
	out := make([]map[string]types.AttributeValue, n)
	for i := range out {
		out[i] = map[string]types.AttributeValue{
			"pk":   &types.AttributeValueMemberS{Value: fmt.Sprintf("r%02d", i)},
			"data": &types.AttributeValueMemberN{Value: fmt.Sprint(i)},
		}
	}
	return out
}

func TestScanner_KeyAttributes(t *testing.T) {
	api := &mockAPI{keySchema: hashRange("pk", "sk")}
	s := NewScanner(api, "users")

	keys, err := s.KeyAttributes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"pk", "sk"}, keys)

	_, err = s.KeyAttributes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, api.describeCalls)
}

func TestScanner_KeyAttributesErrors(t *testing.T) {
	_, err := NewScanner(&mockAPI{describeErr: errors.New("ResourceNotFoundException")}, "users").
		KeyAttributes(context.Background())
	assert.ErrorContains(t, err, "ResourceNotFoundException")

	_, err = NewScanner(&mockAPI{}, "users").KeyAttributes(context.Background())
	assert.ErrorContains(t, err, "no key schema")
}

func TestScanner_Paginates(t *testing.T) {
	api := &mockAPI{rows: rows(5)}
	s := NewScanner(api, "users")
	ctx := context.Background()

	page, err := s.Scan(ctx, 2, nil)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, domain.AttributeMap{"pk": domain.StringAttr("r01")}, page.Next)
	assert.Nil(t, api.inputs[0].ExclusiveStartKey)
	assert.Equal(t, "users", aws.ToString(api.inputs[0].TableName))
	assert.Equal(t, int32(2), aws.ToInt32(api.inputs[0].Limit))

	var all []domain.AttributeMap
	all = append(all, page.Items...)
	for len(page.Next) > 0 {
		page, err = s.Scan(ctx, 2, page.Next)
		require.NoError(t, err)
		all = append(all, page.Items...)
	}

	require.Len(t, all, 5)
	assert.Equal(t, domain.StringAttr("r04"), all[4]["pk"])
	assert.Equal(t, domain.NumberAttr("4"), all[4]["data"])
	assert.Len(t, api.inputs, 3)
}

func TestScanner_ClampsPageSize(t *testing.T) {
	api := &mockAPI{rows: rows(3)}
	page, err := NewScanner(api, "users").Scan(context.Background(), math.MaxInt32+10, nil)
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)
	assert.Equal(t, int32(math.MaxInt32), aws.ToInt32(api.inputs[0].Limit))
}

func TestScanner_SkipsUnreadableItems(t *testing.T) {
	r := rows(3)
	r[1]["bad"] = &types.UnknownUnionMember{Tag: "X"}
	api := &mockAPI{rows: r}

	page, err := NewScanner(api, "users").Scan(context.Background(), 10, nil)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Empty(t, page.Next)
}

func TestScanner_ScanError(t *testing.T) {
	api := &mockAPI{scanErr: errors.New("ProvisionedThroughputExceededException")}

	_, err := NewScanner(api, "users").Scan(context.Background(), 10, nil)
	assert.ErrorContains(t, err, "ProvisionedThroughputExceededException")
}
