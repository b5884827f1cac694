package pipeline

import (
	"errors"
	"fmt"

	"github.com/sheikh-saqib/crypto-purchase-pipeline/internal/models"
	"github.com/shopspring/decimal"
)

var knownCurrencies = map[models.Currency]bool{
	models.USD: true,
	models.EUR: true,
	models.GBP: true,
}

// Policy holds the business constants the pipeline is built with.
type Policy struct {
	CommissionUSD       decimal.Decimal
	SupportedCurrencies []models.Currency
}

// DefaultPolicy charges a flat 5 USD and accepts USD, EUR and GBP.
func DefaultPolicy() Policy {
	return Policy{
		CommissionUSD:       decimal.NewFromInt(5),
		SupportedCurrencies: []models.Currency{models.USD, models.EUR, models.GBP},
	}
}

func (p Policy) Validate() error {
	if p.CommissionUSD.IsNegative() {
		return errors.New("commission must not be negative")
	}
	if len(p.SupportedCurrencies) == 0 {
		return errors.New("at least one supported currency is required")
	}
	for _, c := range p.SupportedCurrencies {
		if !knownCurrencies[c] {
			return fmt.Errorf("unknown currency %q", c)
		}
	}
	return nil
}

func (p Policy) Supports(c models.Currency) bool {
	for _, s := range p.SupportedCurrencies {
		if s == c {
			return true
		}
	}
	return false
}
