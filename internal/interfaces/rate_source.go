package interfaces

import (
	"context"
	"errors"

	"github.com/sheikh-saqib/crypto-purchase-pipeline/internal/models"
	"github.com/shopspring/decimal"
)

// ErrRateNotFound is returned when a source has no quote for the requested currency.
var ErrRateNotFound = errors.New("rate not found")

// RateSource quotes the current BTC price in a fiat currency, and how many
// units of a fiat currency one USD buys.
type RateSource interface {
	Price(ctx context.Context, currency models.Currency) (decimal.Decimal, error)
	USDRate(ctx context.Context, currency models.Currency) (decimal.Decimal, error)
}
