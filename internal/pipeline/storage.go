package pipeline

import (
	"context"
	"fmt"

	interfaces "github.com/sheikh-saqib/crypto-purchase-pipeline/internal/interfaces"
	"github.com/sheikh-saqib/crypto-purchase-pipeline/internal/models"
)

// StorageFilter writes the finished record. It has to be the last stage.
type StorageFilter struct {
	store interfaces.TransactionStore
}

func NewStorageFilter(store interfaces.TransactionStore) *StorageFilter {
	return &StorageFilter{store: store}
}

func (f *StorageFilter) Name() string { return StageStorage }

func (f *StorageFilter) Apply(ctx context.Context, record models.TransactionRecord) Result {
	if !record.Complete() {
		return Fail(PipelineOrderError, "incomplete record reached Storage", record)
	}

	rowID, err := f.store.Persist(ctx, record)
	if err != nil {
		return Fail(StorageError, fmt.Sprintf("persist transaction: %v", err), record)
	}
	return Continue(record).withRowID(rowID)
}
