package interfaces

import (
	"context"

	"github.com/sheikh-saqib/org-finance-ledger/internal/models"
)

// CommitHook runs inside the store's unit of work after the record is staged and
// before it is committed. A non-nil error aborts the commit.
type CommitHook func(ctx context.Context) error

type LedgerStore interface {
	// AppendRecord persists rec at rec.Index. beforeCommit may be nil.
	AppendRecord(ctx context.Context, rec models.TransactionRecord, beforeCommit CommitHook) error
	LoadRecords(ctx context.Context) ([]models.TransactionRecord, error)

	SaveAdmin(ctx context.Context, addr models.Address) error
	DeleteAdmin(ctx context.Context, addr models.Address) error
	LoadAdmins(ctx context.Context) ([]models.Address, error)
}
