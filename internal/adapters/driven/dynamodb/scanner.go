// Package dynamodb reads the source table through the AWS SDK.
package dynamodb

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	ddb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/domain"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/ports/driven"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/logger"
)

// Ensure Scanner implements the interface.
var _ driven.TableScanner = (*Scanner)(nil)

// API is the subset of the DynamoDB client the scanner uses.
type API interface {
	DescribeTable(ctx context.Context, params *ddb.DescribeTableInput, optFns ...func(*ddb.Options)) (*ddb.DescribeTableOutput, error)
	Scan(ctx context.Context, params *ddb.ScanInput, optFns ...func(*ddb.Options)) (*ddb.ScanOutput, error)
}

// NewClient builds a DynamoDB client from the default credential chain.
// endpoint overrides the service URL (e.g. DynamoDB Local) when set.
func NewClient(ctx context.Context, region, endpoint string) (*ddb.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	return ddb.NewFromConfig(cfg, func(o *ddb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

// Scanner pages through one table.
type Scanner struct {
	client API
	table  string

	once     sync.Once
	keyNames []string
	keyErr   error
}

// NewScanner creates a scanner for table.
func NewScanner(client API, table string) *Scanner {
	return &Scanner{client: client, table: table}
}

// KeyAttributes returns the table's key attribute names, partition key
// first. The table description is fetched once.
func (s *Scanner) KeyAttributes(ctx context.Context) ([]string, error) {
	s.once.Do(func() {
		s.keyNames, s.keyErr = s.describeKeys(ctx)
	})
	return s.keyNames, s.keyErr
}

func (s *Scanner) describeKeys(ctx context.Context) ([]string, error) {
	out, err := s.client.DescribeTable(ctx, &ddb.DescribeTableInput{TableName: aws.String(s.table)})
	if err != nil {
		return nil, fmt.Errorf("describe table %s: %w", s.table, err)
	}
	if out.Table == nil || len(out.Table.KeySchema) == 0 {
		return nil, fmt.Errorf("describe table %s: no key schema", s.table)
	}

	var hash, rng []string
	for _, k := range out.Table.KeySchema {
		switch k.KeyType {
		case types.KeyTypeHash:
			hash = append(hash, aws.ToString(k.AttributeName))
		case types.KeyTypeRange:
			rng = append(rng, aws.ToString(k.AttributeName))
		}
	}
	keys := append(hash, rng...)
	logger.Debug("Table %s key schema: %v", s.table, keys)
	return keys, nil
}

// Scan reads one page of at most pageSize items after start.
// Items holding a value the SDK could not decode are logged and left out.
func (s *Scanner) Scan(ctx context.Context, pageSize int, start domain.AttributeMap) (driven.ScanPage, error) {
	if pageSize > math.MaxInt32 {
		pageSize = math.MaxInt32
	}
	input := &ddb.ScanInput{
		TableName: aws.String(s.table),
		Limit:     aws.Int32(int32(pageSize)),
	}
	if len(start) > 0 {
		esk, err := ToItem(start)
		if err != nil {
			return driven.ScanPage{}, fmt.Errorf("start key: %w", err)
		}
		input.ExclusiveStartKey = esk
	}

	out, err := s.client.Scan(ctx, input)
	if err != nil {
		return driven.ScanPage{}, fmt.Errorf("scan table %s: %w", s.table, err)
	}

	page := driven.ScanPage{Items: make([]domain.AttributeMap, 0, len(out.Items))}
	for _, item := range out.Items {
		m, err := FromItem(item)
		if err != nil {
			logger.Error(err, "skipping unreadable item in table %s", s.table)
			continue
		}
		page.Items = append(page.Items, m)
	}

	if len(out.LastEvaluatedKey) > 0 {
		next, err := FromItem(out.LastEvaluatedKey)
		if err != nil {
			return driven.ScanPage{}, fmt.Errorf("continuation key: %w", err)
		}
		page.Next = next
	}
	return page, nil
}
