package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TopicIncomeRecorded  = "ledger.income_recorded"
	TopicExpenseRecorded = "ledger.expense_recorded"
	TopicAdminAdded      = "ledger.admin_added"
	TopicAdminRemoved    = "ledger.admin_removed"
)

// IncomeRecorded carries enough for an indexer to follow the log without rescanning it.
type IncomeRecorded struct {
	Index        int             `json:"index"`
	RecordID     uuid.UUID       `json:"record_id"`
	Amount       decimal.Decimal `json:"amount"`
	Counterparty string          `json:"counterparty"`
	Category     string          `json:"category"`
	Balance      decimal.Decimal `json:"balance"`
	OccurredAt   time.Time       `json:"occurred_at"`
}

type ExpenseRecorded struct {
	Index        int             `json:"index"`
	RecordID     uuid.UUID       `json:"record_id"`
	Amount       decimal.Decimal `json:"amount"`
	Counterparty string          `json:"counterparty"`
	Category     string          `json:"category"`
	RecordedBy   string          `json:"recorded_by"`
	Balance      decimal.Decimal `json:"balance"`
	OccurredAt   time.Time       `json:"occurred_at"`
}

// AdminAdded is emitted for every successful add. Changed is false when the
// address already held admin rights.
type AdminAdded struct {
	Address    string    `json:"address"`
	AddedBy    string    `json:"added_by"`
	Changed    bool      `json:"changed"`
	OccurredAt time.Time `json:"occurred_at"`
}

type AdminRemoved struct {
	Address    string    `json:"address"`
	RemovedBy  string    `json:"removed_by"`
	Changed    bool      `json:"changed"`
	OccurredAt time.Time `json:"occurred_at"`
}
