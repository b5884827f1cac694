package pipeline

import (
	"context"

	"github.com/sheikh-saqib/crypto-purchase-pipeline/internal/models"
)

// Stage names, in the order the standard pipeline runs them.
const (
	StageValidation = "Validation"
	StageAuth       = "Auth"
	StageTransform  = "Transform"
	StageFee        = "Fee"
	StageStorage    = "Storage"
)

// Filter is one stage of the purchase pipeline. Apply must depend only on the
// record and on the collaborator the filter was built with, and must never
// overwrite a field set by an earlier stage.
type Filter interface {
	Name() string
	Apply(ctx context.Context, record models.TransactionRecord) Result
}
