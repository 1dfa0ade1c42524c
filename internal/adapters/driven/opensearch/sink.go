// Package opensearch writes documents to an OpenSearch or Elasticsearch
// compatible cluster through the bulk API.
package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
	"github.com/opensearch-project/opensearch-go/v2/signer"
	requestsigner "github.com/opensearch-project/opensearch-go/v2/signer/awsv2"

	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/domain"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/ports/driven"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/logger"
)

// Ensure Sink implements the interface.
var _ driven.IndexSink = (*Sink)(nil)

// DefaultService is the SigV4 service name for managed domains.
const DefaultService = "es"

// Config configures a Sink.
type Config struct {
	// Endpoint is the cluster URL. A bare host gets an https:// scheme.
	Endpoint string

	// Region enables SigV4 signing when set.
	Region string

	// Service is the SigV4 service name. Empty uses DefaultService.
	Service string

	// Refresh is passed as the bulk refresh parameter ("true", "wait_for").
	// Empty leaves the cluster default.
	Refresh string

	// Transport overrides the HTTP transport.
	Transport http.RoundTripper
}

// Sink is an IndexSink backed by opensearch-go.
type Sink struct {
	client  *opensearch.Client
	refresh string
}

// NormalizeEndpoint adds an https:// scheme to a bare host.
func NormalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return ""
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	return endpoint
}

// New creates a sink. Requests are signed with the default AWS credential
// chain when cfg.Region is set.
func New(ctx context.Context, cfg Config) (*Sink, error) {
	endpoint := NormalizeEndpoint(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("%w: search endpoint is required", domain.ErrInvalidInput)
	}

	osCfg := opensearch.Config{
		Addresses: []string{endpoint},
		Transport: cfg.Transport,
	}

	if cfg.Region != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("loading aws config: %w", err)
		}
		sig, err := newSigner(awsCfg, cfg.Service)
		if err != nil {
			return nil, err
		}
		osCfg.Signer = sig
	}

	client, err := opensearch.NewClient(osCfg)
	if err != nil {
		return nil, fmt.Errorf("creating search client: %w", err)
	}

	logger.Debug("Search sink at %s (signed: %t)", endpoint, cfg.Region != "")
	return &Sink{client: client, refresh: cfg.Refresh}, nil
}

func newSigner(awsCfg aws.Config, service string) (signer.Signer, error) {
	if service == "" {
		service = DefaultService
	}
	sig, err := requestsigner.NewSignerWithService(awsCfg, service)
	if err != nil {
		return nil, fmt.Errorf("creating request signer: %w", err)
	}
	return sig, nil
}

// CollectionExists reports whether the index exists.
func (s *Sink) CollectionExists(ctx context.Context, name string) (bool, error) {
	res, err := opensearchapi.IndicesExistsRequest{Index: []string{name}}.Do(ctx, s.client)
	if err != nil {
		return false, fmt.Errorf("index exists %s: %w", name, err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("index exists %s: %s", name, res.Status())
	}
}

// CreateCollection creates the index. An index created concurrently
// returns domain.ErrAlreadyExists.
func (s *Sink) CreateCollection(ctx context.Context, name string, settings driven.CollectionSettings) error {
	body, err := json.Marshal(map[string]any{
		"settings": map[string]any{
			"index.mapping.coerce": settings.MappingCoerce,
		},
	})
	if err != nil {
		return fmt.Errorf("marshalling index settings: %w", err)
	}

	res, err := opensearchapi.IndicesCreateRequest{
		Index: name,
		Body:  bytes.NewReader(body),
	}.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("create index %s: %w", name, err)
	}
	defer res.Body.Close()

	if !res.IsError() {
		return nil
	}

	e := decodeError(res.Body)
	if e.Type == "resource_already_exists_exception" {
		return fmt.Errorf("index %s: %w", name, domain.ErrAlreadyExists)
	}
	return fmt.Errorf("create index %s: %s: %s", name, res.Status(), e)
}

// Bulk sends ops as one NDJSON bulk request.
func (s *Sink) Bulk(ctx context.Context, ops []domain.BulkOperation) (*driven.BulkResponse, error) {
	body, err := EncodeBulk(ops)
	if err != nil {
		return nil, err
	}

	res, err := opensearchapi.BulkRequest{
		Body:    bytes.NewReader(body),
		Refresh: s.refresh,
	}.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("bulk request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("bulk request: %w: %s", domain.ErrThrottled, res.Status())
	}
	if res.IsError() {
		return nil, fmt.Errorf("bulk request: %s: %s", res.Status(), decodeError(res.Body))
	}

	return DecodeBulkResponse(res.Body)
}

// Close is a no-op. The client keeps no state beyond pooled connections.
func (s *Sink) Close() error {
	return nil
}

// EncodeBulk renders ops as a bulk request body: one action line per
// operation, followed by the document for index actions.
func EncodeBulk(ops []domain.BulkOperation) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, op := range ops {
		meta := map[string]string{
			"_index": op.Collection,
			"_id":    op.ID,
		}
		if op.DocType != "" {
			meta["_type"] = op.DocType
		}
		if err := enc.Encode(map[string]any{string(op.Action): meta}); err != nil {
			return nil, fmt.Errorf("encoding bulk action for %s: %w", op.ID, err)
		}

		if op.Action != domain.BulkIndex {
			continue
		}
		doc := op.Body
		if doc == nil {
			doc = domain.Document{}
		}
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encoding document %s: %w", op.ID, err)
		}
	}
	return buf.Bytes(), nil
}

type bulkResponse struct {
	Errors bool                          `json:"errors"`
	Items  []map[string]bulkResponseItem `json:"items"`
}

type bulkResponseItem struct {
	ID     string     `json:"_id"`
	Status int        `json:"status"`
	Error  *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

func (e errorBody) String() string {
	if e.Type == "" {
		return e.Reason
	}
	return e.Type + ": " + e.Reason
}

// DecodeBulkResponse parses a bulk response into per-item results,
// in request order.
func DecodeBulkResponse(r io.Reader) (*driven.BulkResponse, error) {
	var raw bulkResponse
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding bulk response: %w", err)
	}

	out := &driven.BulkResponse{Items: make([]domain.BulkItemResult, 0, len(raw.Items))}
	for _, entry := range raw.Items {
		for action, item := range entry {
			result := domain.BulkItemResult{
				ID:     item.ID,
				Action: domain.BulkAction(action),
				Status: item.Status,
			}
			if item.Error != nil {
				result.Error = item.Error.String()
			}
			out.Items = append(out.Items, result)
		}
	}
	return out, nil
}

// decodeError extracts the error object from an error response.
func decodeError(r io.Reader) errorBody {
	data, err := io.ReadAll(r)
	if err != nil {
		return errorBody{Reason: err.Error()}
	}
	var wrapper struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil || len(wrapper.Error) == 0 {
		return errorBody{Reason: strings.TrimSpace(string(data))}
	}
	var e errorBody
	if err := json.Unmarshal(wrapper.Error, &e); err != nil {
		// Older clusters send the error as a plain string.
		var msg string
		_ = json.Unmarshal(wrapper.Error, &msg)
		return errorBody{Reason: msg}
	}
	return e
}
