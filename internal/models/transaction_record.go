package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Currency is a fiat currency a purchase can be denominated in.
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
)

// MinorUnits is the number of decimal places kept for amounts in a base currency.
const MinorUnits int32 = 2

var ErrFieldAlreadySet = errors.New("record field already set by an earlier stage")

// TransactionRecord represents one BTC purchase as it is enriched stage by stage.
// Fields set by a later stage stay invalid (null) until that stage runs.
type TransactionRecord struct {
	ID             string              `json:"id"`
	UserID         string              `json:"user_id"`
	BTCAmount      decimal.Decimal     `json:"btc_amount"`
	BaseCurrency   Currency            `json:"base_currency"`
	BTCPriceInBase decimal.NullDecimal `json:"btc_price_in_base"`
	SubtotalBase   decimal.NullDecimal `json:"subtotal_base"`
	CommissionUSD  decimal.Decimal     `json:"commission_usd"`
	CommissionBase decimal.NullDecimal `json:"commission_base"`
	TotalBase      decimal.NullDecimal `json:"total_base"`
	TSEpoch        int64               `json:"ts_epoch"`
}

// NewTransactionRecord creates a record from raw purchase input.
// The timestamp is fixed here and never touched again.
func NewTransactionRecord(req PurchaseRequest, commissionUSD decimal.Decimal, now time.Time) TransactionRecord {
	return TransactionRecord{
		ID:            uuid.New().String(),
		UserID:        req.UserID,
		BTCAmount:     req.BTCAmount,
		BaseCurrency:  req.BaseCurrency,
		CommissionUSD: commissionUSD,
		TSEpoch:       now.Unix(),
	}
}

// WithPricing returns a copy of r carrying the BTC price and the subtotal.
func (r TransactionRecord) WithPricing(price, subtotal decimal.Decimal) (TransactionRecord, error) {
	if r.BTCPriceInBase.Valid || r.SubtotalBase.Valid {
		return r, ErrFieldAlreadySet
	}
	r.BTCPriceInBase = decimal.NewNullDecimal(price)
	r.SubtotalBase = decimal.NewNullDecimal(subtotal)
	return r, nil
}

// WithFee returns a copy of r carrying the converted commission and the total.
func (r TransactionRecord) WithFee(commission, total decimal.Decimal) (TransactionRecord, error) {
	if r.CommissionBase.Valid || r.TotalBase.Valid {
		return r, ErrFieldAlreadySet
	}
	r.CommissionBase = decimal.NewNullDecimal(commission)
	r.TotalBase = decimal.NewNullDecimal(total)
	return r, nil
}

// Complete reports whether every stage-owned amount has been set.
func (r TransactionRecord) Complete() bool {
	return r.BTCPriceInBase.Valid && r.SubtotalBase.Valid && r.CommissionBase.Valid && r.TotalBase.Valid
}
