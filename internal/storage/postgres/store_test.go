package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sheikh-saqib/org-finance-ledger/internal/models"
)

var (
	owner = models.MustParseAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	payee = models.MustParseAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
)

// newTestStore connects to LEDGER_TEST_POSTGRES_DSN and starts from empty tables.
func newTestStore(t *testing.T) *PostgresLedgerStore {
	t.Helper()

	dsn := os.Getenv("LEDGER_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("LEDGER_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	db, err := Connect(ctx, dsn, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, Migrate(ctx, db, zap.NewNop()))
	// TRUNCATE does not fire the row-level append-only trigger.
	_, err = db.ExecContext(ctx, `TRUNCATE ledger_transactions, ledger_admins`)
	require.NoError(t, err)

	return NewPostgresLedgerStore(db)
}

func record(index int, kind models.TransactionKind, amount int64) models.TransactionRecord {
	return models.TransactionRecord{
		Index:        index,
		ID:           uuid.New(),
		Kind:         kind,
		Counterparty: payee,
		Amount:       decimal.NewFromInt(amount),
		Category:     "Event",
		Description:  "food",
		Timestamp:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		RecordedBy:   owner,
	}
}

func TestAppendAndLoadRecords(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	first := record(0, models.Income, 1_000_000)
	second := record(1, models.Expense, 400_000)
	require.NoError(t, store.AppendRecord(ctx, first, nil))
	require.NoError(t, store.AppendRecord(ctx, second, func(context.Context) error { return nil }))

	recs, err := store.LoadRecords(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, first.ID, recs[0].ID)
	assert.Equal(t, models.Income, recs[0].Kind)
	assert.True(t, first.Amount.Equal(recs[0].Amount))
	assert.Equal(t, models.Expense, recs[1].Kind)
	assert.Equal(t, payee, recs[1].Counterparty)
	assert.Equal(t, owner, recs[1].RecordedBy)
	assert.True(t, second.Timestamp.Equal(recs[1].Timestamp))
}

func TestAppendRecordRollsBackOnHookError(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	boom := errors.New("payout rejected")
	err := store.AppendRecord(ctx, record(0, models.Expense, 5), func(context.Context) error { return boom })
	require.ErrorIs(t, err, boom)

	recs, err := store.LoadRecords(ctx)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestAppendRecordRejectsWrongIndex(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.Error(t, store.AppendRecord(ctx, record(3, models.Income, 1), nil))
}

func TestAdminsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.SaveAdmin(ctx, payee))
	require.NoError(t, store.SaveAdmin(ctx, payee))

	admins, err := store.LoadAdmins(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Address{payee}, admins)

	require.NoError(t, store.DeleteAdmin(ctx, payee))
	admins, err = store.LoadAdmins(ctx)
	require.NoError(t, err)
	assert.Empty(t, admins)
}
