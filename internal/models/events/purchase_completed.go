package events

import (
	"time"

	"github.com/shopspring/decimal"
)

type PurchaseCompleted struct {
	EventID       string          `json:"event_id"`
	TransactionID string          `json:"transaction_id"`
	RowID         int64           `json:"row_id"`
	UserID        string          `json:"user_id"`
	BTCAmount     decimal.Decimal `json:"btc_amount"`
	BaseCurrency  string          `json:"base_currency"`
	TotalBase     decimal.Decimal `json:"total_base"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

func (e PurchaseCompleted) EventKey() string {
	return e.TransactionID
}
