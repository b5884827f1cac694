package interfaces

import (
	"context"

	"github.com/sheikh-saqib/crypto-purchase-pipeline/internal/models"
)

// TransactionStore persists fully priced records, one row per record.
// Implementations must accept concurrent Persist calls.
type TransactionStore interface {
	Persist(ctx context.Context, record models.TransactionRecord) (int64, error)
	List(ctx context.Context) ([]models.StoredTransaction, error)
}
