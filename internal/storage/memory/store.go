package memory

import (
	"context" // standard Go package for request-scoped context (timeouts, cancellation)
	"fmt"     // formats the index mismatch error
	"sort"    // keeps LoadAdmins output stable
	"sync"    // standard Go package for concurrency primitives like Mutex

	interfaces "github.com/sheikh-saqib/org-finance-ledger/internal/interfaces" // interface LedgerStore
	"github.com/sheikh-saqib/org-finance-ledger/internal/models"                // domain models: TransactionRecord, Address
)

// MemoryLedgerStore is an in-memory implementation of interfaces.LedgerStore.
// It is safe for concurrent use and loses everything on restart.
type MemoryLedgerStore struct {
	mu      sync.Mutex                  // protects records and admins from concurrent access
	records []models.TransactionRecord  // append-only log, position equals record index
	admins  map[models.Address]struct{} // explicitly granted admins, owner excluded
}

// NewMemoryLedgerStore creates an empty store
func NewMemoryLedgerStore() *MemoryLedgerStore {
	return &MemoryLedgerStore{
		records: make([]models.TransactionRecord, 0), // start with an empty log
		admins:  make(map[models.Address]struct{}),   // and no explicit admins
	}
}

// AppendRecord stages rec, runs beforeCommit, and appends only if both succeed.
func (m *MemoryLedgerStore) AppendRecord(ctx context.Context, rec models.TransactionRecord, beforeCommit interfaces.CommitHook) error {

	m.mu.Lock()         // lock the mutex to prevent concurrent appends
	defer m.mu.Unlock() // unlock automatically when function exits (even if the hook fails)

	// the record must land exactly at the end of the log
	if rec.Index != len(m.records) {
		return fmt.Errorf("record index %d, next free index is %d", rec.Index, len(m.records))
	}

	// the hook is the last step before commit; its failure discards the record
	if beforeCommit != nil {
		if err := beforeCommit(ctx); err != nil {
			return err
		}
	}

	m.records = append(m.records, rec) // commit
	return nil
}

// LoadRecords returns a copy so callers can't modify internal state.
func (m *MemoryLedgerStore) LoadRecords(ctx context.Context) ([]models.TransactionRecord, error) {

	m.mu.Lock()         // lock to prevent concurrent modification while reading
	defer m.mu.Unlock() // unlock automatically at the end

	copied := make([]models.TransactionRecord, len(m.records))
	copy(copied, m.records) // copy all records to the new slice
	return copied, nil
}

func (m *MemoryLedgerStore) SaveAdmin(ctx context.Context, addr models.Address) error {

	m.mu.Lock()
	defer m.mu.Unlock()

	m.admins[addr] = struct{}{} // saving twice is harmless
	return nil
}

func (m *MemoryLedgerStore) DeleteAdmin(ctx context.Context, addr models.Address) error {

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.admins, addr) // no-op for unknown addresses
	return nil
}

// LoadAdmins returns the admin set sorted by address.
func (m *MemoryLedgerStore) LoadAdmins(ctx context.Context) ([]models.Address, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.Address, 0, len(m.admins))
	for a := range m.admins {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// Compile-time check: ensure MemoryLedgerStore implements LedgerStore interface
var _ interfaces.LedgerStore = (*MemoryLedgerStore)(nil)
