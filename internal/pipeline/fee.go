package pipeline

import (
	"context"
	"fmt"

	interfaces "github.com/sheikh-saqib/crypto-purchase-pipeline/internal/interfaces"
	"github.com/sheikh-saqib/crypto-purchase-pipeline/internal/models"
)

// FeeFilter converts the flat USD commission into the base currency with the
// source's USD->base rate and computes the total. USD purchases keep
// commission_usd as is and never query the rate source here.
type FeeFilter struct {
	rates interfaces.RateSource
}

func NewFeeFilter(rates interfaces.RateSource) *FeeFilter {
	return &FeeFilter{rates: rates}
}

func (f *FeeFilter) Name() string { return StageFee }

func (f *FeeFilter) Apply(ctx context.Context, record models.TransactionRecord) Result {
	if !record.SubtotalBase.Valid {
		return Fail(PipelineOrderError, "subtotal_base is not set; Fee must run after Transform", record)
	}

	commission := record.CommissionUSD
	if record.BaseCurrency != models.USD {
		rate, err := f.rates.USDRate(ctx, record.BaseCurrency)
		if err != nil {
			return Fail(RateUnavailableError, fmt.Sprintf("no USD/%s rate: %v", record.BaseCurrency, err), record)
		}
		if !rate.IsPositive() {
			return Fail(RateUnavailableError, fmt.Sprintf("invalid USD/%s rate %s", record.BaseCurrency, rate), record)
		}
		commission = record.CommissionUSD.Mul(rate).Round(models.MinorUnits)
	}

	total := record.SubtotalBase.Decimal.Add(commission).Round(models.MinorUnits)

	next, err := record.WithFee(commission, total)
	if err != nil {
		return Fail(PipelineOrderError, "commission_base or total_base already set before Fee", record)
	}
	return Continue(next)
}
