package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown sink or event type.
	ErrUnsupportedType = errors.New("unsupported type")

	// Pipeline Errors.

	// ErrDecode indicates a typed value carried no recognised tag,
	// or a decoded map could not be built without losing a field.
	ErrDecode = errors.New("decode failed")

	// ErrIdentity indicates a document id could not be derived,
	// usually because a required key attribute is missing.
	ErrIdentity = errors.New("identity derivation failed")

	// ErrTranslation indicates a change record could not be turned
	// into a pending operation.
	ErrTranslation = errors.New("translation failed")

	// ErrSubmission indicates the sink rejected a bulk request outright.
	// Per-item failures inside an accepted bulk request are not errors.
	ErrSubmission = errors.New("submission failed")

	// ErrThrottled indicates the sink asked the caller to slow down
	// (HTTP 429). Wrapped inside ErrSubmission by the submitter.
	ErrThrottled = errors.New("throttled")

	// ErrScan indicates source table pagination failed.
	ErrScan = errors.New("scan failed")
)
