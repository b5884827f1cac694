package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	interfaces "github.com/sheikh-saqib/crypto-purchase-pipeline/internal/interfaces"
	"github.com/sheikh-saqib/crypto-purchase-pipeline/internal/models"
	"github.com/sheikh-saqib/crypto-purchase-pipeline/internal/storage"
	_ "modernc.org/sqlite"
)

// Amounts are stored as TEXT so decimals round-trip exactly.
const createTable = `CREATE TABLE IF NOT EXISTS transactions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	transaction_id TEXT NOT NULL UNIQUE,
	user_id TEXT NOT NULL,
	btc_amount TEXT NOT NULL,
	base_currency TEXT NOT NULL,
	btc_price_in_base TEXT,
	subtotal_base TEXT,
	commission_usd TEXT NOT NULL,
	commission_base TEXT,
	total_base TEXT,
	ts_epoch INTEGER NOT NULL
)`

type SQLiteTransactionStore struct {
	db *sql.DB

	schemaMu    sync.Mutex
	schemaReady bool
}

// Open opens the database file with the modernc driver. SQLite allows a
// single writer, so the pool is capped at one connection and concurrent
// Persist calls queue on it.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure sqlite %s: %w", path, err)
	}
	return db, nil
}

func NewSQLiteTransactionStore(db *sql.DB) *SQLiteTransactionStore {
	return &SQLiteTransactionStore{db: db}
}

// EnsureSchema creates the transactions table if it does not exist.
func (s *SQLiteTransactionStore) EnsureSchema(ctx context.Context) error {
	s.schemaMu.Lock()
	defer s.schemaMu.Unlock()

	if s.schemaReady {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("create transactions table: %w", err)
	}
	s.schemaReady = true
	return nil
}

func (s *SQLiteTransactionStore) Persist(ctx context.Context, record models.TransactionRecord) (int64, error) {
	if err := s.EnsureSchema(ctx); err != nil {
		return 0, err
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}

	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()

	const query = `INSERT INTO transactions (` + storage.Columns + `)
	VALUES (?,?,?,?,?,?,?,?,?,?)`

	res, err := dbTx.ExecContext(ctx, query, storage.Args(record)...)
	if err != nil {
		return 0, err
	}

	rowID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if err = dbTx.Commit(); err != nil {
		return 0, err
	}
	return rowID, nil
}

func (s *SQLiteTransactionStore) List(ctx context.Context) ([]models.StoredTransaction, error) {
	if err := s.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, `+storage.Columns+` FROM transactions ORDER BY id`)
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

var _ interfaces.TransactionStore = (*SQLiteTransactionStore)(nil)
