package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecord() TransactionRecord {
	return NewTransactionRecord(PurchaseRequest{
		UserID:       "u001",
		BTCAmount:    decimal.RequireFromString("0.01"),
		BaseCurrency: USD,
	}, decimal.NewFromInt(5), time.Unix(1700000000, 0))
}

func TestNewTransactionRecord(t *testing.T) {
	rec := newTestRecord()

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, int64(1700000000), rec.TSEpoch)
	assert.True(t, rec.CommissionUSD.Equal(decimal.NewFromInt(5)))
	assert.False(t, rec.BTCPriceInBase.Valid)
	assert.False(t, rec.SubtotalBase.Valid)
	assert.False(t, rec.CommissionBase.Valid)
	assert.False(t, rec.TotalBase.Valid)
	assert.False(t, rec.Complete())
}

func TestTransactionRecord_FieldsAreSetOnce(t *testing.T) {
	rec := newTestRecord()

	priced, err := rec.WithPricing(decimal.NewFromInt(65000), decimal.NewFromInt(650))
	require.NoError(t, err)
	assert.False(t, rec.SubtotalBase.Valid, "original must stay untouched")

	_, err = priced.WithPricing(decimal.NewFromInt(1), decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrFieldAlreadySet)

	done, err := priced.WithFee(decimal.NewFromInt(5), decimal.NewFromInt(655))
	require.NoError(t, err)
	assert.True(t, done.Complete())

	_, err = done.WithFee(decimal.NewFromInt(1), decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrFieldAlreadySet)
}

func TestTransactionRecord_JSONLeavesUnsetFieldsNull(t *testing.T) {
	raw, err := json.Marshal(newTestRecord())
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Nil(t, got["subtotal_base"])
	assert.Nil(t, got["total_base"])
	assert.Equal(t, "u001", got["user_id"])
	assert.Equal(t, "USD", got["base_currency"])
}

func TestPurchaseRequest_AcceptsNumericAndStringAmounts(t *testing.T) {
	var req PurchaseRequest
	require.NoError(t, json.Unmarshal([]byte(`{"user_id":"u001","btc_amount":0.01,"base_currency":"USD"}`), &req))
	assert.True(t, req.BTCAmount.Equal(decimal.RequireFromString("0.01")))

	require.NoError(t, json.Unmarshal([]byte(`{"user_id":"u001","btc_amount":"-1","base_currency":"EUR"}`), &req))
	assert.True(t, req.BTCAmount.Equal(decimal.NewFromInt(-1)))
	assert.Equal(t, EUR, req.BaseCurrency)
}
