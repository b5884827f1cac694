package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/lib/pq"
	interfaces "github.com/sheikh-saqib/crypto-purchase-pipeline/internal/interfaces"
	"github.com/sheikh-saqib/crypto-purchase-pipeline/internal/models"
	"github.com/sheikh-saqib/crypto-purchase-pipeline/internal/storage"
)

const createTable = `CREATE TABLE IF NOT EXISTS transactions (
	id BIGSERIAL PRIMARY KEY,
	transaction_id TEXT NOT NULL UNIQUE,
	user_id TEXT NOT NULL,
	btc_amount NUMERIC NOT NULL,
	base_currency TEXT NOT NULL,
	btc_price_in_base NUMERIC,
	subtotal_base NUMERIC,
	commission_usd NUMERIC NOT NULL,
	commission_base NUMERIC,
	total_base NUMERIC,
	ts_epoch BIGINT NOT NULL
)`

type PostgresTransactionStore struct {
	db *sql.DB

	schemaMu    sync.Mutex
	schemaReady bool
}

// Open connects with the lib/pq driver and checks the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

func NewPostgresTransactionStore(db *sql.DB) *PostgresTransactionStore {
	return &PostgresTransactionStore{
		db: db,
	}
}

// EnsureSchema creates the transactions table if it does not exist.
func (p *PostgresTransactionStore) EnsureSchema(ctx context.Context) error {
	p.schemaMu.Lock()
	defer p.schemaMu.Unlock()

	if p.schemaReady {
		return nil
	}
	if _, err := p.db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("create transactions table: %w", err)
	}
	p.schemaReady = true
	return nil
}

// Persist inserts the record in its own database transaction.
func (p *PostgresTransactionStore) Persist(ctx context.Context, record models.TransactionRecord) (int64, error) {
	if err := p.EnsureSchema(ctx); err != nil {
		return 0, err
	}

	dbTx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}

	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()

	const query = `INSERT INTO transactions (` + storage.Columns + `)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) RETURNING id`

	var rowID int64
	err = dbTx.QueryRowContext(ctx, query, storage.Args(record)...).Scan(&rowID)
	if err != nil {
		return 0, err
	}

	if err = dbTx.Commit(); err != nil {
		return 0, err
	}
	return rowID, nil
}

func (p *PostgresTransactionStore) List(ctx context.Context) ([]models.StoredTransaction, error) {
	if err := p.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	const query = `SELECT id, ` + storage.Columns + ` FROM transactions ORDER BY id`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var stored []models.StoredTransaction

	for rows.Next() {
		st, err := storage.ScanRow(rows)
		if err != nil {
			return nil, err
		}
		stored = append(stored, st)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stored, nil
}

var _ interfaces.TransactionStore = (*PostgresTransactionStore)(nil)
