package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheikh-saqib/org-finance-ledger/internal/models"
)

var alice = models.MustParseAddress("0x1111111111111111111111111111111111111111")

func record(index int) models.TransactionRecord {
	return models.TransactionRecord{
		Index:        index,
		ID:           uuid.New(),
		Kind:         models.Income,
		Counterparty: alice,
		Amount:       decimal.NewFromInt(10),
		Timestamp:    time.Unix(1700000000, 0).UTC(),
		RecordedBy:   alice,
	}
}

func TestAppendRecordRunsHookBeforeCommit(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryLedgerStore()

	var seenDuringHook int
	err := store.AppendRecord(ctx, record(0), func(ctx context.Context) error {
		seenDuringHook = len(store.records)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, seenDuringHook)

	recs, err := store.LoadRecords(ctx)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestAppendRecordHookFailureLeavesNothing(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryLedgerStore()

	boom := errors.New("boom")
	err := store.AppendRecord(ctx, record(0), func(context.Context) error { return boom })
	require.ErrorIs(t, err, boom)

	recs, err := store.LoadRecords(ctx)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestAppendRecordRejectsGap(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryLedgerStore()

	require.Error(t, store.AppendRecord(ctx, record(1), nil))
	require.NoError(t, store.AppendRecord(ctx, record(0), nil))
	require.Error(t, store.AppendRecord(ctx, record(0), nil))
}

func TestLoadRecordsReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryLedgerStore()
	require.NoError(t, store.AppendRecord(ctx, record(0), nil))

	recs, err := store.LoadRecords(ctx)
	require.NoError(t, err)
	recs[0].Category = "tampered"

	again, err := store.LoadRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", again[0].Category)
}

func TestAdmins(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryLedgerStore()
	bob := models.MustParseAddress("0x2222222222222222222222222222222222222222")

	require.NoError(t, store.SaveAdmin(ctx, bob))
	require.NoError(t, store.SaveAdmin(ctx, alice))
	require.NoError(t, store.SaveAdmin(ctx, alice))

	admins, err := store.LoadAdmins(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Address{alice, bob}, admins)

	require.NoError(t, store.DeleteAdmin(ctx, alice))
	require.NoError(t, store.DeleteAdmin(ctx, alice))

	admins, err = store.LoadAdmins(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Address{bob}, admins)
}
