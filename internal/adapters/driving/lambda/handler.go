// Package lambda adapts the change processor to a stream-triggered
// function invocation.
package lambda

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/lambdacontext"

	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/adapters/driving/streamevent"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/ports/driving"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/logger"
)

// Response is the invocation result.
type Response struct {
	Received          int `json:"received"`
	DecodeErrors      int `json:"decodeErrors"`
	Translated        int `json:"translated"`
	TranslationErrors int `json:"translationErrors"`
	Submitted         int `json:"submitted"`
	Failed            int `json:"failed"`
}

// Handler processes one stream batch per invocation.
type Handler struct {
	processor driving.ChangeProcessor
}

// NewHandler creates a handler.
func NewHandler(processor driving.ChangeProcessor) *Handler {
	return &Handler{processor: processor}
}

// Handle decodes the raw event and runs it through the processor.
// Records that cannot be decoded are logged and skipped. An error is
// returned only when the payload is unreadable or the bulk request is
// rejected, leaving retries to the stream's redrive policy.
func (h *Handler) Handle(ctx context.Context, payload json.RawMessage) (Response, error) {
	requestID := ""
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		requestID = lc.AwsRequestID
	}

	records, failed, err := streamevent.Decode(payload)
	if err != nil {
		logger.Error(err, "unreadable event payload")
		return Response{}, err
	}

	for _, f := range failed {
		logger.Get().Error().
			Err(f.Err).
			Str("request_id", requestID).
			Int("index", f.Index).
			Str("event_id", f.EventID).
			Msg("Failed to decode record")
	}

	report, err := h.processor.Process(ctx, records)
	resp := Response{
		Received:          len(records) + len(failed),
		DecodeErrors:      len(failed),
		Translated:        report.Translated,
		TranslationErrors: report.TranslationErrors,
		Submitted:         report.Submission.Submitted,
		Failed:            report.Submission.Failed,
	}
	if err != nil {
		return resp, fmt.Errorf("processing %d records: %w", len(records), err)
	}

	logger.Get().Info().
		Str("request_id", requestID).
		Interface("result", resp).
		Msg("Batch processed")
	return resp, nil
}
