// Package domain defines the core entities of the table-to-index sync.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - AttributeValue: The typed-value encoding used by the source table
//   - ChangeRecord: One row-level mutation (insert, modify, remove)
//   - Document: A decoded, index-ready document
//   - PendingBatch: Coalesced pending operations keyed by document id
//   - BulkOperation: One index or delete descriptor sent to the sink
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
