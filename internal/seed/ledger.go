package seed

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/org-finance-ledger/internal/models"
)

type Ledger interface {
	RecordIncome(ctx context.Context, caller models.Address, category, description string, amount decimal.Decimal) (models.TransactionRecord, error)
	RecordExpense(ctx context.Context, caller, recipient models.Address, amount decimal.Decimal, category, description string) (models.TransactionRecord, error)
}

// AsCaller binds an in-process ledger to caller so the seeder can drive it directly.
func AsCaller(l Ledger, caller models.Address) Recorder {
	return boundLedger{l: l, caller: caller}
}

type boundLedger struct {
	l      Ledger
	caller models.Address
}

func (b boundLedger) RecordIncome(ctx context.Context, category, description string, amount decimal.Decimal) (models.TransactionRecord, error) {
	return b.l.RecordIncome(ctx, b.caller, category, description, amount)
}

func (b boundLedger) RecordExpense(ctx context.Context, recipient models.Address, amount decimal.Decimal, category, description string) (models.TransactionRecord, error) {
	return b.l.RecordExpense(ctx, b.caller, recipient, amount, category, description)
}
