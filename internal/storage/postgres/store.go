package postgres

import (
	"context"
	"database/sql"
	"fmt"

	interfaces "github.com/sheikh-saqib/org-finance-ledger/internal/interfaces"
	"github.com/sheikh-saqib/org-finance-ledger/internal/models"
)

type PostgresLedgerStore struct {
	db *sql.DB
}

func NewPostgresLedgerStore(db *sql.DB) *PostgresLedgerStore {
	return &PostgresLedgerStore{
		db: db,
	}
}

// AppendRecord inserts rec and runs beforeCommit inside one database transaction.
// A hook error rolls the insert back.
func (p *PostgresLedgerStore) AppendRecord(ctx context.Context, rec models.TransactionRecord, beforeCommit interfaces.CommitHook) (err error) {
	dbTx, err := p.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()

	var next int
	err = dbTx.QueryRowContext(ctx, `SELECT COUNT(*) FROM ledger_transactions`).Scan(&next)
	if err != nil {
		return err
	}
	if rec.Index != next {
		return fmt.Errorf("record index %d, next free index is %d", rec.Index, next)
	}

	const query = `INSERT INTO ledger_transactions
	(idx, id, kind, counterparty, amount, category, description, recorded_at, recorded_by)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`

	_, err = dbTx.ExecContext(ctx, query,
		rec.Index, rec.ID, string(rec.Kind), rec.Counterparty.String(), rec.Amount,
		rec.Category, rec.Description, rec.Timestamp, rec.RecordedBy.String())
	if err != nil {
		return err
	}

	if beforeCommit != nil {
		if err = beforeCommit(ctx); err != nil {
			return err
		}
	}

	return dbTx.Commit()
}

func (p *PostgresLedgerStore) LoadRecords(ctx context.Context) ([]models.TransactionRecord, error) {
	const query = `SELECT idx, id, kind, counterparty, amount, category, description, recorded_at, recorded_by
	FROM ledger_transactions ORDER BY idx`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	records := make([]models.TransactionRecord, 0)
	for rows.Next() {
		var (
			rec                    models.TransactionRecord
			kind, counterparty, by string
		)
		err := rows.Scan(
			&rec.Index,
			&rec.ID,
			&kind,
			&counterparty,
			&rec.Amount,
			&rec.Category,
			&rec.Description,
			&rec.Timestamp,
			&by,
		)
		if err != nil {
			return nil, err
		}

		if rec.Kind, err = models.ParseTransactionKind(kind); err != nil {
			return nil, fmt.Errorf("record %d: %w", rec.Index, err)
		}
		if rec.Counterparty, err = models.ParseAddress(counterparty); err != nil {
			return nil, fmt.Errorf("record %d counterparty: %w", rec.Index, err)
		}
		if rec.RecordedBy, err = models.ParseAddress(by); err != nil {
			return nil, fmt.Errorf("record %d recorded_by: %w", rec.Index, err)
		}
		rec.Timestamp = rec.Timestamp.UTC()

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (p *PostgresLedgerStore) SaveAdmin(ctx context.Context, addr models.Address) error {
	const query = `INSERT INTO ledger_admins (address) VALUES ($1) ON CONFLICT (address) DO NOTHING`

	_, err := p.db.ExecContext(ctx, query, addr.String())
	return err
}

func (p *PostgresLedgerStore) DeleteAdmin(ctx context.Context, addr models.Address) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM ledger_admins WHERE address = $1`, addr.String())
	return err
}

func (p *PostgresLedgerStore) LoadAdmins(ctx context.Context) ([]models.Address, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT address FROM ledger_admins ORDER BY address`)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	admins := make([]models.Address, 0)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		addr, err := models.ParseAddress(raw)
		if err != nil {
			return nil, fmt.Errorf("admin %q: %w", raw, err)
		}
		admins = append(admins, addr)
	}
	return admins, rows.Err()
}

var _ interfaces.LedgerStore = (*PostgresLedgerStore)(nil)
