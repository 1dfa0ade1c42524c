package domain

// Document is a decoded row ready for the index sink.
type Document map[string]any

// OpType tags a pending operation during translation.
type OpType string

const (
	// OpCreate comes from an INSERT.
	OpCreate OpType = "create"

	// OpUpdate comes from a MODIFY. The whole image is resubmitted.
	OpUpdate OpType = "update"

	// OpDelete comes from a REMOVE.
	OpDelete OpType = "delete"
)

// PendingOp is a document together with the operation that produced it.
// The op tag never reaches the sink.
type PendingOp struct {
	Op  OpType
	Doc Document
}

// PendingBatch holds at most one pending operation per document id.
// A later Put for the same id replaces the earlier operation while keeping
// the id's original position, so iteration order follows first sight.
type PendingBatch struct {
	ids []string
	ops map[string]PendingOp
}

// NewPendingBatch creates an empty batch.
func NewPendingBatch() *PendingBatch {
	return &PendingBatch{ops: make(map[string]PendingOp)}
}

// Put records op for id, replacing any earlier operation for the same id.
func (b *PendingBatch) Put(id string, op PendingOp) {
	if _, ok := b.ops[id]; !ok {
		b.ids = append(b.ids, id)
	}
	b.ops[id] = op
}

// Get returns the pending operation for id.
func (b *PendingBatch) Get(id string) (PendingOp, bool) {
	op, ok := b.ops[id]
	return op, ok
}

// Len returns the number of distinct ids.
func (b *PendingBatch) Len() int {
	return len(b.ids)
}

// IDs returns the ids in first-seen order.
func (b *PendingBatch) IDs() []string {
	out := make([]string, len(b.ids))
	copy(out, b.ids)
	return out
}

// Each calls fn for every entry in first-seen order.
func (b *PendingBatch) Each(fn func(id string, op PendingOp)) {
	for _, id := range b.ids {
		fn(id, b.ops[id])
	}
}

// Clear empties the batch for reuse.
func (b *PendingBatch) Clear() {
	b.ids = b.ids[:0]
	b.ops = make(map[string]PendingOp)
}

// BulkAction is the sink-side operation kind.
type BulkAction string

const (
	// BulkIndex creates or replaces the document with the given id.
	BulkIndex BulkAction = "index"

	// BulkDelete removes the document with the given id.
	BulkDelete BulkAction = "delete"
)

// BulkOperation describes one operation inside a bulk request.
type BulkOperation struct {
	// Collection is the target index name.
	Collection string

	// DocType is the optional document-type label. Empty means omitted.
	DocType string

	// Action is index or delete.
	Action BulkAction

	// ID is the document id.
	ID string

	// Body is the document source. Nil for deletes.
	Body Document
}

// BulkItemResult is the sink's outcome for one operation.
type BulkItemResult struct {
	ID     string
	Action BulkAction
	Status int
	Error  string
}

// Failed reports whether the item was rejected. A delete of a
// document that does not exist is not a failure.
func (r BulkItemResult) Failed() bool {
	if r.Action == BulkDelete && r.Status == 404 {
		return false
	}
	return r.Status >= 300 || r.Error != ""
}

// SubmissionReport summarises one bulk submission.
type SubmissionReport struct {
	// Submitted is the number of operations sent.
	Submitted int

	// Failed is the number of operations the sink rejected.
	Failed int

	// Skipped is the number of entries with an unrecognised op tag.
	Skipped int
}
