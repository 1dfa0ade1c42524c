package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = "../streamevent/testdata/event.json"

func TestSyncCmd_Use(t *testing.T) {
	assert.Equal(t, "sync [event-file]", syncCmd.Use)
}

func TestSyncCmd_FromFile(t *testing.T) {
	env := setupCLITest(t)

	out, err := execute(t, "", "sync", fixture)
	require.NoError(t, err)

	assert.Contains(t, out, "Received 3 records (0 unreadable)")
	assert.Contains(t, out, "Translated 3, skipped 0")
	assert.Contains(t, out, "Submitted 2 operations, 0 failed")

	doc, ok := env.sink.Get("users", "u1|42")
	require.True(t, ok)
	assert.Equal(t, "Grace", doc["name"])
	assert.Len(t, env.sink.Requests(), 1)
}

func TestSyncCmd_FromStdin(t *testing.T) {
	env := setupCLITest(t)

	payload := `[{"eventID":"9","eventName":"INSERT","dynamodb":{
		"Keys":{"pk":{"S":"a"}},
		"NewImage":{"pk":{"S":"a"},"n":{"N":"3"}}}},
		{"eventID":"10","eventName":"TRUNCATE","dynamodb":{"Keys":{"pk":{"S":"b"}}}}]`

	out, err := execute(t, payload, "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "Received 2 records (1 unreadable)")
	assert.Contains(t, out, "Submitted 1 operations, 0 failed")

	doc, ok := env.sink.Get("users", "a")
	require.True(t, ok)
	assert.Equal(t, int64(3), doc["n"])
}

func TestSyncCmd_ExplicitID(t *testing.T) {
	env := setupCLITest(t)
	t.Setenv("ES_ID", "sk,pk")

	_, err := execute(t, "", "sync", fixture)
	require.NoError(t, err)

	_, ok := env.sink.Get("users", "42|u1")
	assert.True(t, ok)
}

func TestSyncCmd_IndexFlag(t *testing.T) {
	env := setupCLITest(t)

	_, err := execute(t, "", "sync", "--index", "people", fixture)
	require.NoError(t, err)

	assert.Equal(t, 1, env.sink.Count("people"))
	assert.Equal(t, 0, env.sink.Count("users"))
}

func TestSyncCmd_MissingIndex(t *testing.T) {
	setupCLITest(t)
	t.Setenv("ES_INDEX", "")

	_, err := execute(t, "", "sync", fixture)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "es_index is required")
}

func TestSyncCmd_MissingFile(t *testing.T) {
	setupCLITest(t)

	_, err := execute(t, "", "sync", "does-not-exist.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading event file")
}

func TestSyncCmd_SubmissionFailure(t *testing.T) {
	env := setupCLITest(t)
	env.sink.FailBulk(errors.New("connection refused"))

	out, err := execute(t, "", "sync", fixture)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync failed")
	assert.Contains(t, out, "Translated 3, skipped 0")
}
