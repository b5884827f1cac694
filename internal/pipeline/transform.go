package pipeline

import (
	"context"
	"fmt"

	interfaces "github.com/sheikh-saqib/crypto-purchase-pipeline/internal/interfaces"
	"github.com/sheikh-saqib/crypto-purchase-pipeline/internal/models"
)

// TransformFilter prices the requested BTC amount in the base currency.
type TransformFilter struct {
	rates interfaces.RateSource
}

func NewTransformFilter(rates interfaces.RateSource) *TransformFilter {
	return &TransformFilter{rates: rates}
}

func (f *TransformFilter) Name() string { return StageTransform }

func (f *TransformFilter) Apply(ctx context.Context, record models.TransactionRecord) Result {
	price, err := f.rates.Price(ctx, record.BaseCurrency)
	if err != nil {
		return Fail(RateUnavailableError, fmt.Sprintf("no BTC price for %s: %v", record.BaseCurrency, err), record)
	}
	if !price.IsPositive() {
		return Fail(RateUnavailableError, fmt.Sprintf("invalid BTC price %s for %s", price, record.BaseCurrency), record)
	}

	// Round is half away from zero, i.e. half-up for the positive amounts seen here.
	subtotal := record.BTCAmount.Mul(price).Round(models.MinorUnits)

	next, err := record.WithPricing(price, subtotal)
	if err != nil {
		return Fail(PipelineOrderError, "btc_price_in_base or subtotal_base already set before Transform", record)
	}
	return Continue(next)
}
