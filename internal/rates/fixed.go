package rates

import (
	"context"
	"fmt"

	interfaces "github.com/sheikh-saqib/crypto-purchase-pipeline/internal/interfaces"
	"github.com/sheikh-saqib/crypto-purchase-pipeline/internal/models"
	"github.com/shopspring/decimal"
)

// DefaultPrices is the simulated BTC price table.
func DefaultPrices() map[models.Currency]decimal.Decimal {
	return map[models.Currency]decimal.Decimal{
		models.USD: decimal.NewFromInt(65000),
		models.EUR: decimal.NewFromInt(61000),
		models.GBP: decimal.NewFromInt(53000),
	}
}

// DefaultFX is the simulated USD->currency conversion table.
func DefaultFX() map[models.Currency]decimal.Decimal {
	return map[models.Currency]decimal.Decimal{
		models.USD: decimal.NewFromInt(1),
		models.EUR: decimal.RequireFromString("0.93"),
		models.GBP: decimal.RequireFromString("0.80"),
	}
}

// FixedSource quotes prices and USD conversion rates from immutable tables.
// Safe for concurrent use.
type FixedSource struct {
	prices map[models.Currency]decimal.Decimal
	fx     map[models.Currency]decimal.Decimal
}

func NewFixedSource(prices, fx map[models.Currency]decimal.Decimal) *FixedSource {
	return &FixedSource{prices: copyTable(prices), fx: copyTable(fx)}
}

func copyTable(table map[models.Currency]decimal.Decimal) map[models.Currency]decimal.Decimal {
	copied := make(map[models.Currency]decimal.Decimal, len(table))
	for c, v := range table {
		copied[c] = v
	}
	return copied
}

func (s *FixedSource) Price(_ context.Context, currency models.Currency) (decimal.Decimal, error) {
	price, ok := s.prices[currency]
	if !ok {
		return decimal.Zero, fmt.Errorf("BTC-%s: %w", currency, interfaces.ErrRateNotFound)
	}
	return price, nil
}

// USDRate is exactly 1 for USD whether or not the table lists it.
func (s *FixedSource) USDRate(_ context.Context, currency models.Currency) (decimal.Decimal, error) {
	if currency == models.USD {
		return decimal.NewFromInt(1), nil
	}
	rate, ok := s.fx[currency]
	if !ok {
		return decimal.Zero, fmt.Errorf("USD-%s: %w", currency, interfaces.ErrRateNotFound)
	}
	return rate, nil
}

var _ interfaces.RateSource = (*FixedSource)(nil)
