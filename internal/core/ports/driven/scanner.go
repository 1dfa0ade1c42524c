package driven

import (
	"context"

	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/domain"
)

// TableScanner reads the full contents of the source table page by page.
type TableScanner interface {
	// KeyAttributes returns the table's key attribute names,
	// partition key first.
	KeyAttributes(ctx context.Context) ([]string, error)

	// Scan returns up to pageSize rows starting after start.
	// A nil start begins at the first row.
	Scan(ctx context.Context, pageSize int, start domain.AttributeMap) (ScanPage, error)
}

// ScanPage is one page of scanned rows.
type ScanPage struct {
	// Items are the rows in scan order.
	Items []domain.AttributeMap

	// Next is the continuation token. Nil when the scan is complete.
	Next domain.AttributeMap
}
