package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	interfaces "github.com/sheikh-saqib/org-finance-ledger/internal/interfaces"
	"github.com/sheikh-saqib/org-finance-ledger/internal/models"
)

const tracerName = "github.com/sheikh-saqib/org-finance-ledger/internal/ledger"

// Ledger holds the organization's balance and its append-only transaction log.
//
// Mutations are serialized by writeMu and run validation, value transfer, store
// commit, in-memory apply and event publishing as one unit. mu guards the fields
// readers see and is taken exclusively only to apply a committed change, so reads
// never wait on a payout or a store round trip.
type Ledger struct {
	owner   models.Address
	admins  map[models.Address]struct{}
	balance decimal.Decimal
	records []models.TransactionRecord

	store      interfaces.LedgerStore
	transferer interfaces.Transferer
	publisher  interfaces.EventPublisher
	clock      func() time.Time
	logger     *zap.Logger
	tracer     trace.Tracer

	// writeMu is held by every mutation for its whole run. Holding it is enough
	// to read owner, admins, balance and records; changing them also needs mu.
	writeMu sync.Mutex
	mu      sync.RWMutex
}

type Option func(*Ledger)

// WithTransferer sets how expense funds leave the treasury. Without one every
// expense fails with ErrTransferFailure.
func WithTransferer(t interfaces.Transferer) Option {
	return func(l *Ledger) { l.transferer = t }
}

func WithPublisher(p interfaces.EventPublisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

func WithClock(clock func() time.Time) Option {
	return func(l *Ledger) { l.clock = clock }
}

func WithLogger(logger *zap.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(l *Ledger) { l.tracer = tp.Tracer(tracerName) }
}

// Open builds a ledger owned by owner on top of store, replaying whatever the
// store already holds.
func Open(ctx context.Context, owner models.Address, store interfaces.LedgerStore, opts ...Option) (*Ledger, error) {
	if !owner.Valid() || owner.IsZero() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOwner, owner)
	}

	l := &Ledger{
		owner:   owner,                                       // fixed for the lifetime of the ledger
		admins:  make(map[models.Address]struct{}),           // filled from the store below
		balance: decimal.Zero,                                // rebuilt by replay
		store:   store,                                       // any LedgerStore: memory, postgres
		clock:   time.Now,                                    // overridable in tests
		logger:  zap.NewNop(),                                // silent unless WithLogger
		tracer:  otel.GetTracerProvider().Tracer(tracerName), // global provider unless WithTracerProvider
	}
	for _, opt := range opts {
		opt(l)
	}

	// restore the admin set granted before the last restart
	admins, err := store.LoadAdmins(ctx)
	if err != nil {
		return nil, fmt.Errorf("load admins: %w", err)
	}
	for _, a := range admins {
		l.admins[a] = struct{}{}
	}

	// rebuild balance and log from the persisted records
	records, err := store.LoadRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	if err := l.replay(records); err != nil {
		return nil, err
	}

	l.logger.Info("ledger opened",
		zap.String("owner", owner.String()),
		zap.Int("admins", len(l.admins)),
		zap.Int("records", len(l.records)),
		zap.String("balance", l.balance.String()),
	)

	return l, nil
}

func (l *Ledger) replay(records []models.TransactionRecord) error {
	balance := decimal.Zero
	for i, rec := range records {
		if rec.Index != i {
			return fmt.Errorf("%w: record at position %d has index %d", ErrCorruptLog, i, rec.Index)
		}
		if !models.ValidAmount(rec.Amount) {
			return fmt.Errorf("%w: record %d has amount %s", ErrCorruptLog, i, rec.Amount)
		}
		balance = balance.Add(rec.SignedAmount())
		if balance.Sign() < 0 {
			return fmt.Errorf("%w: balance negative after record %d", ErrCorruptLog, i)
		}
	}

	l.records = append(make([]models.TransactionRecord, 0, len(records)), records...)
	l.balance = balance
	return nil
}

func (l *Ledger) Owner() models.Address {
	return l.owner
}

func (l *Ledger) Balance() decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balance
}

func (l *Ledger) TransactionCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Transaction returns the record at index. Records are values, so the caller
// cannot reach the ledger's copy.
func (l *Ledger) Transaction(index int) (models.TransactionRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if index < 0 || index >= len(l.records) {
		return models.TransactionRecord{}, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(l.records))
	}
	return l.records[index], nil
}

// Admins lists the explicitly added admins, sorted. The owner is not included
// unless it was added explicitly.
func (l *Ledger) Admins() []models.Address {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.Address, 0, len(l.admins))
	for a := range l.admins {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Verify recomputes the balance from the log and checks it against the running one.
func (l *Ledger) Verify() error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	sum := decimal.Zero
	for i, rec := range l.records {
		if rec.Index != i {
			return fmt.Errorf("%w: record at position %d has index %d", ErrCorruptLog, i, rec.Index)
		}
		sum = sum.Add(rec.SignedAmount())
	}
	if !sum.Equal(l.balance) {
		return fmt.Errorf("%w: log sums to %s, balance is %s", ErrCorruptLog, sum, l.balance)
	}
	if l.balance.Sign() < 0 {
		return fmt.Errorf("%w: negative balance %s", ErrCorruptLog, l.balance)
	}
	return nil
}

func (l *Ledger) publish(ctx context.Context, topic, key string, event any) {
	if l.publisher == nil {
		return
	}
	if err := l.publisher.Publish(ctx, topic, key, event); err != nil {
		l.logger.Error("publish ledger event",
			zap.String("topic", topic),
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

// now returns the inclusion time for the next record, never earlier than the last
// one. Microsecond precision matches what the postgres store can hold. Callers
// hold writeMu.
func (l *Ledger) now() time.Time {
	t := l.clock().UTC().Truncate(time.Microsecond)
	if n := len(l.records); n > 0 && t.Before(l.records[n-1].Timestamp) {
		return l.records[n-1].Timestamp
	}
	return t
}
