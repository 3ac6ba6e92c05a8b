package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionKind tells income records from expense records
type TransactionKind string

const (
	Income  TransactionKind = "income"
	Expense TransactionKind = "expense"
)

func ParseTransactionKind(s string) (TransactionKind, error) {
	switch TransactionKind(s) {
	case Income, Expense:
		return TransactionKind(s), nil
	}
	return "", fmt.Errorf("unknown transaction kind %q", s)
}

// TransactionRecord is one entry of the ledger log. It is created once, when the
// ledger commits an income or expense, and never changes afterwards.
type TransactionRecord struct {
	Index        int             `json:"index"`
	ID           uuid.UUID       `json:"id"`
	Kind         TransactionKind `json:"kind"`
	Counterparty Address         `json:"counterparty"` // sender for income, recipient for expense
	Amount       decimal.Decimal `json:"amount"`       // smallest monetary unit, always integral
	Category     string          `json:"category"`
	Description  string          `json:"description"`
	Timestamp    time.Time       `json:"timestamp"`
	RecordedBy   Address         `json:"recorded_by"`
}

// SignedAmount is the record's effect on the balance.
func (r TransactionRecord) SignedAmount() decimal.Decimal {
	if r.Kind == Expense {
		return r.Amount.Neg()
	}
	return r.Amount
}
