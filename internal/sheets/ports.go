package sheets

import (
	"context"

	"iexpense/internal/core"
)

// Ports for outbound spreadsheet adapters.
type (
	// SnapshotWriter replaces the mirrored sheet content with records,
	// in store order.
	SnapshotWriter interface {
		WriteSnapshot(ctx context.Context, records []core.ExpenseRecord) (rowRef string, err error)
	}
)
