package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingBatch_LastWriteWins(t *testing.T) {
	b := NewPendingBatch()
	b.Put("a", PendingOp{Op: OpCreate, Doc: Document{"v": 1}})
	b.Put("b", PendingOp{Op: OpDelete})
	b.Put("a", PendingOp{Op: OpUpdate, Doc: Document{"v": 2}})

	assert.Equal(t, 2, b.Len())
	assert.Equal(t, []string{"a", "b"}, b.IDs())

	op, ok := b.Get("a")
	require.True(t, ok)
	assert.Equal(t, OpUpdate, op.Op)
	assert.Equal(t, 2, op.Doc["v"])

	_, ok = b.Get("missing")
	assert.False(t, ok)
}

func TestPendingBatch_Each(t *testing.T) {
	b := NewPendingBatch()
	b.Put("z", PendingOp{Op: OpCreate})
	b.Put("a", PendingOp{Op: OpDelete})
	b.Put("m", PendingOp{Op: OpUpdate})

	var seen []string
	b.Each(func(id string, _ PendingOp) {
		seen = append(seen, id)
	})
	assert.Equal(t, []string{"z", "a", "m"}, seen)
}

func TestPendingBatch_Clear(t *testing.T) {
	b := NewPendingBatch()
	b.Put("a", PendingOp{Op: OpCreate})
	b.Clear()

	assert.Equal(t, 0, b.Len())
	_, ok := b.Get("a")
	assert.False(t, ok)

	b.Put("b", PendingOp{Op: OpCreate})
	assert.Equal(t, []string{"b"}, b.IDs())
}

func TestPendingBatch_IDsIsCopy(t *testing.T) {
	b := NewPendingBatch()
	b.Put("a", PendingOp{Op: OpCreate})

	ids := b.IDs()
	ids[0] = "changed"
	assert.Equal(t, []string{"a"}, b.IDs())
}

func TestBulkItemResult_Failed(t *testing.T) {
	tests := []struct {
		name   string
		item   BulkItemResult
		failed bool
	}{
		{"index created", BulkItemResult{Action: BulkIndex, Status: 201}, false},
		{"index replaced", BulkItemResult{Action: BulkIndex, Status: 200}, false},
		{"index rejected", BulkItemResult{Action: BulkIndex, Status: 400, Error: "mapper_parsing_exception"}, true},
		{"index error without status", BulkItemResult{Action: BulkIndex, Error: "boom"}, true},
		{"delete ok", BulkItemResult{Action: BulkDelete, Status: 200}, false},
		{"delete missing", BulkItemResult{Action: BulkDelete, Status: 404}, false},
		{"delete conflict", BulkItemResult{Action: BulkDelete, Status: 409}, true},
		{"index missing", BulkItemResult{Action: BulkIndex, Status: 404}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.failed, tt.item.Failed())
		})
	}
}
