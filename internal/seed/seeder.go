package seed

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sheikh-saqib/org-finance-ledger/internal/models"
)

// Recorder is the write side the seeder drives: a *ledger.Ledger bound to a caller
// or a *client.Client.
type Recorder interface {
	RecordIncome(ctx context.Context, category, description string, amount decimal.Decimal) (models.TransactionRecord, error)
	RecordExpense(ctx context.Context, recipient models.Address, amount decimal.Decimal, category, description string) (models.TransactionRecord, error)
}

type Entry struct {
	Kind        models.TransactionKind
	Recipient   models.Address // expenses only
	Amount      decimal.Decimal
	Category    string
	Description string
}

type Summary struct {
	Attempted int
	Succeeded int
	Failed    int
}

// Ether is 10^18 wei.
var Ether = decimal.New(1, 18)

// DemoPlan is the fixed set of records a fresh deployment starts from.
func DemoPlan(recipient models.Address) []Entry {
	return []Entry{
		{Kind: models.Income, Amount: Ether, Category: "Donation", Description: "Student council donation"},
		{Kind: models.Income, Amount: decimal.New(5, 17), Category: "Sponsorship", Description: "Event sponsor"},
		{Kind: models.Expense, Recipient: recipient, Amount: decimal.New(3, 17), Category: "Event", Description: "Refreshments for welcome event"},
	}
}

// RandomPlan builds n entries of 0.001 to 1 ether each, income or expense with equal
// odds, paying recipients in turn. Some expenses will overdraw; the seeder expects that.
func RandomPlan(rng *rand.Rand, n int, recipients []models.Address) []Entry {
	entries := make([]Entry, 0, n)
	for i := 0; i < n; i++ {
		// Six decimal places of ether, like the amounts the front end accepts.
		micro := 1_000 + rng.Int63n(999_001)
		amount := decimal.New(micro, 12)

		if len(recipients) == 0 || rng.Intn(2) == 0 {
			entries = append(entries, Entry{
				Kind:        models.Income,
				Amount:      amount,
				Category:    fmt.Sprintf("Seed %d", i),
				Description: fmt.Sprintf("Auto-seed income %d", i),
			})
			continue
		}
		entries = append(entries, Entry{
			Kind:        models.Expense,
			Recipient:   recipients[(i+1)%len(recipients)],
			Amount:      amount,
			Category:    fmt.Sprintf("SeedExp %d", i),
			Description: fmt.Sprintf("Auto-seed expense %d", i),
		})
	}
	return entries
}

type Seeder struct {
	recorder Recorder
	logger   *zap.Logger
}

func New(r Recorder, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{recorder: r, logger: logger}
}

// Run submits every entry once. A failed entry is logged and counted, never retried,
// and never stops the batch. Only a cancelled context ends the run early.
func (s *Seeder) Run(ctx context.Context, plan []Entry) Summary {
	var sum Summary
	for i, e := range plan {
		if ctx.Err() != nil {
			s.logger.Warn("seeding cancelled", zap.Int("remaining", len(plan)-i))
			break
		}
		sum.Attempted++

		var err error
		switch e.Kind {
		case models.Income:
			_, err = s.recorder.RecordIncome(ctx, e.Category, e.Description, e.Amount)
		case models.Expense:
			_, err = s.recorder.RecordExpense(ctx, e.Recipient, e.Amount, e.Category, e.Description)
		default:
			err = fmt.Errorf("unknown entry kind %q", e.Kind)
		}

		if err != nil {
			sum.Failed++
			s.logger.Warn("seed entry failed",
				zap.Int("entry", i),
				zap.String("kind", string(e.Kind)),
				zap.String("amount", e.Amount.String()),
				zap.Error(err),
			)
			continue
		}
		sum.Succeeded++
	}

	s.logger.Info("seeding finished",
		zap.Int("attempted", sum.Attempted),
		zap.Int("succeeded", sum.Succeeded),
		zap.Int("failed", sum.Failed),
	)
	return sum
}
