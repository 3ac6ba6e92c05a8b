package interfaces

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/org-finance-ledger/internal/models"
)

// Payout is a value transfer out of the organization's treasury.
type Payout struct {
	Reference uuid.UUID
	Recipient models.Address
	Amount    decimal.Decimal
}

// Transferer moves funds to a recipient. It must either complete the transfer and
// return nil, or leave no funds moved and return an error.
type Transferer interface {
	Transfer(ctx context.Context, p Payout) error
}

// TransferFunc adapts a plain function to Transferer.
type TransferFunc func(ctx context.Context, p Payout) error

func (f TransferFunc) Transfer(ctx context.Context, p Payout) error {
	return f(ctx, p)
}
