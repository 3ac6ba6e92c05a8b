package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	interfaces "github.com/sheikh-saqib/org-finance-ledger/internal/interfaces"
	"github.com/sheikh-saqib/org-finance-ledger/internal/models"
	"github.com/sheikh-saqib/org-finance-ledger/internal/models/events"
)

// RecordIncome credits amount to the balance and appends an income record with the
// caller as counterparty.
func (l *Ledger) RecordIncome(ctx context.Context, caller models.Address, category, description string, amount decimal.Decimal) (models.TransactionRecord, error) {
	ctx, span := l.tracer.Start(ctx, "ledger.RecordIncome")
	defer span.End()
	span.SetAttributes(attribute.String("caller", caller.String()))

	// Checked before locking; a hostile exponent must not stall other writers.
	amountOK := models.ValidAmount(amount)

	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	if !l.isAdmin(caller) {
		return fail(span, fmt.Errorf("%w: %s is not an admin", ErrUnauthorized, caller))
	}
	if !amountOK {
		return fail(span, errBadAmount)
	}
	span.SetAttributes(attribute.String("amount", amount.String()))
	if l.balance.Add(amount).GreaterThan(models.MaxAmount) {
		return fail(span, fmt.Errorf("%w: balance would exceed %s", ErrInvalidAmount, models.MaxAmount))
	}

	rec := models.TransactionRecord{
		Index:        len(l.records),
		ID:           uuid.New(),
		Kind:         models.Income,
		Counterparty: caller,
		Amount:       amount,
		Category:     category,
		Description:  description,
		Timestamp:    l.now(),
		RecordedBy:   caller,
	}

	if err := l.store.AppendRecord(ctx, rec, nil); err != nil {
		return fail(span, fmt.Errorf("append income record: %w", err))
	}
	l.apply(rec)

	l.publish(ctx, events.TopicIncomeRecorded, strconv.Itoa(rec.Index), events.IncomeRecorded{
		Index:        rec.Index,
		RecordID:     rec.ID,
		Amount:       rec.Amount,
		Counterparty: rec.Counterparty.String(),
		Category:     rec.Category,
		Balance:      l.balance,
		OccurredAt:   rec.Timestamp,
	})
	l.logger.Info("income recorded",
		zap.Int("index", rec.Index),
		zap.String("amount", rec.Amount.String()),
		zap.String("counterparty", rec.Counterparty.String()),
		zap.String("balance", l.balance.String()),
	)
	span.SetAttributes(attribute.Int("index", rec.Index))

	return rec, nil
}

// RecordExpense pays amount to recipient and appends an expense record. The record
// is committed only if the payout succeeds; otherwise nothing changes.
func (l *Ledger) RecordExpense(ctx context.Context, caller, recipient models.Address, amount decimal.Decimal, category, description string) (models.TransactionRecord, error) {
	ctx, span := l.tracer.Start(ctx, "ledger.RecordExpense")
	defer span.End()
	span.SetAttributes(
		attribute.String("caller", caller.String()),
		attribute.String("recipient", recipient.String()),
	)

	amountOK := models.ValidAmount(amount)

	// The payout runs under writeMu only, so readers keep answering from the last
	// committed state while funds are in flight.
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	if !l.isAdmin(caller) {
		return fail(span, fmt.Errorf("%w: %s is not an admin", ErrUnauthorized, caller))
	}
	if !amountOK {
		return fail(span, errBadAmount)
	}
	span.SetAttributes(attribute.String("amount", amount.String()))
	if !recipient.Valid() || recipient.IsZero() {
		return fail(span, fmt.Errorf("%w: %q", ErrInvalidRecipient, recipient))
	}
	if amount.GreaterThan(l.balance) {
		return fail(span, fmt.Errorf("%w: need %s, have %s", ErrInsufficientFunds, amount, l.balance))
	}

	rec := models.TransactionRecord{
		Index:        len(l.records),
		ID:           uuid.New(),
		Kind:         models.Expense,
		Counterparty: recipient,
		Amount:       amount,
		Category:     category,
		Description:  description,
		Timestamp:    l.now(),
		RecordedBy:   caller,
	}

	var (
		transferErr error
		paid        bool
	)
	payout := func(ctx context.Context) error {
		transferErr = l.transfer(ctx, interfaces.Payout{
			Reference: rec.ID,
			Recipient: recipient,
			Amount:    amount,
		})
		paid = transferErr == nil
		return transferErr
	}

	if err := l.store.AppendRecord(ctx, rec, payout); err != nil {
		if transferErr != nil {
			l.logger.Warn("expense payout failed",
				zap.String("recipient", recipient.String()),
				zap.String("amount", amount.String()),
				zap.Error(transferErr),
			)
			return fail(span, fmt.Errorf("%w: %w", ErrTransferFailure, transferErr))
		}
		if paid {
			// The store refused the commit after the payout went out.
			l.logger.Error("expense paid but not recorded, reconcile manually",
				zap.String("reference", rec.ID.String()),
				zap.String("recipient", recipient.String()),
				zap.String("amount", amount.String()),
				zap.Error(err),
			)
		}
		return fail(span, fmt.Errorf("append expense record: %w", err))
	}
	l.apply(rec)

	l.publish(ctx, events.TopicExpenseRecorded, strconv.Itoa(rec.Index), events.ExpenseRecorded{
		Index:        rec.Index,
		RecordID:     rec.ID,
		Amount:       rec.Amount,
		Counterparty: rec.Counterparty.String(),
		Category:     rec.Category,
		RecordedBy:   rec.RecordedBy.String(),
		Balance:      l.balance,
		OccurredAt:   rec.Timestamp,
	})
	l.logger.Info("expense recorded",
		zap.Int("index", rec.Index),
		zap.String("amount", rec.Amount.String()),
		zap.String("recipient", rec.Counterparty.String()),
		zap.String("balance", l.balance.String()),
	)
	span.SetAttributes(attribute.Int("index", rec.Index))

	return rec, nil
}

func (l *Ledger) transfer(ctx context.Context, p interfaces.Payout) error {
	if l.transferer == nil {
		return errors.New("no transferer configured")
	}
	return l.transferer.Transfer(ctx, p)
}

// errBadAmount never formats the rejected value; expanding it is the expensive part.
var errBadAmount = fmt.Errorf("%w: must be a whole number between 1 and %s", ErrInvalidAmount, models.MaxAmount)

// apply makes a record that is already committed to the store visible to readers.
// Callers hold writeMu.
func (l *Ledger) apply(rec models.TransactionRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
	l.balance = l.balance.Add(rec.SignedAmount())
}

func fail(span trace.Span, err error) (models.TransactionRecord, error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return models.TransactionRecord{}, err
}
