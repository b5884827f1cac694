package storage

import (
	"github.com/sheikh-saqib/crypto-purchase-pipeline/internal/models"
)

// Columns of the transactions table after the row id, in insert order.
const Columns = `transaction_id, user_id, btc_amount, base_currency,
	btc_price_in_base, subtotal_base, commission_usd, commission_base, total_base, ts_epoch`

// Args returns the insert arguments matching Columns.
func Args(r models.TransactionRecord) []any {
	return []any{
		r.ID, r.UserID, r.BTCAmount, string(r.BaseCurrency),
		r.BTCPriceInBase, r.SubtotalBase, r.CommissionUSD, r.CommissionBase, r.TotalBase, r.TSEpoch,
	}
}

type scanner interface {
	Scan(dest ...any) error
}

// ScanRow reads "id, <Columns>" into a StoredTransaction.
func ScanRow(row scanner) (models.StoredTransaction, error) {
	var (
		st       models.StoredTransaction
		currency string
	)
	r := &st.Record
	err := row.Scan(
		&st.RowID,
		&r.ID, &r.UserID, &r.BTCAmount, &currency,
		&r.BTCPriceInBase, &r.SubtotalBase, &r.CommissionUSD, &r.CommissionBase, &r.TotalBase, &r.TSEpoch,
	)
	if err != nil {
		return models.StoredTransaction{}, err
	}
	r.BaseCurrency = models.Currency(currency)
	return st, nil
}
