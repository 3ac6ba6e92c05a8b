package payout

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	interfaces "github.com/sheikh-saqib/org-finance-ledger/internal/interfaces"
	"github.com/sheikh-saqib/org-finance-ledger/internal/models"
)

// Book settles payouts in memory. It refuses to pay the same reference twice.
type Book struct {
	mu      sync.Mutex
	payouts []interfaces.Payout
	seen    map[uuid.UUID]struct{}
	logger  *zap.Logger
}

func NewBook(logger *zap.Logger) *Book {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Book{
		seen:   make(map[uuid.UUID]struct{}),
		logger: logger,
	}
}

func (b *Book) Transfer(ctx context.Context, p interfaces.Payout) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, dup := b.seen[p.Reference]; dup {
		return fmt.Errorf("payout %s already settled", p.Reference)
	}

	b.seen[p.Reference] = struct{}{}
	b.payouts = append(b.payouts, p)
	b.logger.Info("payout settled",
		zap.String("reference", p.Reference.String()),
		zap.String("recipient", p.Recipient.String()),
		zap.String("amount", p.Amount.String()),
	)
	return nil
}

func (b *Book) Payouts() []interfaces.Payout {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]interfaces.Payout, len(b.payouts))
	copy(out, b.payouts)
	return out
}

// PaidTo sums everything settled to recipient.
func (b *Book) PaidTo(recipient models.Address) decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()

	total := decimal.Zero
	for _, p := range b.payouts {
		if p.Recipient == recipient {
			total = total.Add(p.Amount)
		}
	}
	return total
}

var _ interfaces.Transferer = (*Book)(nil)
