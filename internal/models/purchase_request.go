package models

import "github.com/shopspring/decimal"

// PurchaseRequest is the raw input of one purchase, as received from a caller.
type PurchaseRequest struct {
	UserID       string          `json:"user_id"`
	BTCAmount    decimal.Decimal `json:"btc_amount"`
	BaseCurrency Currency        `json:"base_currency"`
}
