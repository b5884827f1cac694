package memory

import (
	"context"
	"sync"

	interfaces "github.com/sheikh-saqib/crypto-purchase-pipeline/internal/interfaces"
	"github.com/sheikh-saqib/crypto-purchase-pipeline/internal/models"
)

// MemoryTransactionStore is an in-memory implementation of interfaces.TransactionStore.
// It keeps rows in a slice and is safe for concurrent writes.
type MemoryTransactionStore struct {
	mu   sync.Mutex                 // protects rows
	rows []models.StoredTransaction // row ids are 1-based positions in this slice
}

// NewMemoryTransactionStore creates and returns an empty store
func NewMemoryTransactionStore() *MemoryTransactionStore {
	return &MemoryTransactionStore{
		rows: make([]models.StoredTransaction, 0),
	}
}

// Persist appends the record and returns its row id.
func (m *MemoryTransactionStore) Persist(ctx context.Context, record models.TransactionRecord) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rowID := int64(len(m.rows) + 1)
	m.rows = append(m.rows, models.StoredTransaction{RowID: rowID, Record: record})
	return rowID, nil
}

// List returns a copy of all rows so callers can't modify internal state.
func (m *MemoryTransactionStore) List(ctx context.Context) ([]models.StoredTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := make([]models.StoredTransaction, len(m.rows))
	copy(copied, m.rows)
	return copied, nil
}

// Compile-time check: ensure MemoryTransactionStore implements TransactionStore
var _ interfaces.TransactionStore = (*MemoryTransactionStore)(nil)
