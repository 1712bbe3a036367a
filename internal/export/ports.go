package export

import (
	"context"

	"bahikhata/internal/core"
)

// Ports for outbound ledger adapters.
type (
	// LedgerAppender mirrors a recorded transaction into an external ledger
	// and returns a reference to the appended row.
	LedgerAppender interface {
		Append(ctx context.Context, tx core.Transaction) (rowRef string, err error)
	}
)
