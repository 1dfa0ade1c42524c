package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/domain"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/ports/driving"
)

// mockProcessor implements driving.ChangeProcessor for testing.
type mockProcessor struct {
	records []domain.ChangeRecord
	err     error
}

func (m *mockProcessor) Process(_ context.Context, records []domain.ChangeRecord) (driving.BatchReport, error) {
	m.records = records
	report := driving.BatchReport{Received: len(records), Translated: len(records)}
	if m.err == nil {
		report.Submission.Submitted = len(records)
	}
	return report, m.err
}

func do(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func TestHealth(t *testing.T) {
	w, body := do(t, NewServer(&mockProcessor{}), http.MethodGet, "/health/self", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "true", body["message"])
}

func TestPostRecords(t *testing.T) {
	proc := &mockProcessor{}
	s := NewServer(proc)

	w, body := do(t, s, http.MethodPost, "/api/v1/records", `{"Records": [
		{"eventID": "1", "eventName": "INSERT", "dynamodb": {"Keys": {"pk": {"S": "a"}}, "NewImage": {"pk": {"S": "a"}}}},
		{"eventID": "2", "eventName": "INSERT", "dynamodb": {"Keys": {"pk": {"Q": "a"}}}}
	]}`)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, proc.records, 1)
	assert.Equal(t, float64(2), body["received"])
	assert.Equal(t, float64(1), body["submitted"])
	assert.Len(t, body["decodeErrors"], 1)
}

func TestPostRecords_BadPayload(t *testing.T) {
	proc := &mockProcessor{}
	w, body := do(t, NewServer(proc), http.MethodPost, "/api/v1/records", `nope`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["error"], "decode failed")
	assert.Nil(t, proc.records)
}

func TestPostRecords_SubmissionFailure(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{domain.ErrSubmission, http.StatusBadGateway},
		{fmt.Errorf("%w: %w", domain.ErrSubmission, domain.ErrThrottled), http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		w, body := do(t, NewServer(&mockProcessor{err: tt.err}), http.MethodPost, "/api/v1/records", `{"Records": []}`)
		assert.Equal(t, tt.status, w.Code)
		assert.NotEmpty(t, body["error"])
	}
}

func TestPostRecords_TooLarge(t *testing.T) {
	big := `{"Records": [], "pad": "` + strings.Repeat("x", MaxBodyBytes) + `"}`
	w, _ := do(t, NewServer(&mockProcessor{}), http.MethodPost, "/api/v1/records", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestUnknownRoute(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	w := httptest.NewRecorder()
	NewServer(&mockProcessor{}).Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
