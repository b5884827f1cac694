//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/sheikh-saqib/crypto-purchase-pipeline/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestPostgresTransactionStore_Integration(t *testing.T) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("purchases"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := NewPostgresTransactionStore(db)
	rec := models.TransactionRecord{
		ID:             "tx-pg-1",
		UserID:         "u001",
		BTCAmount:      decimal.RequireFromString("0.01"),
		BaseCurrency:   models.USD,
		BTCPriceInBase: decimal.NewNullDecimal(decimal.NewFromInt(65000)),
		SubtotalBase:   decimal.NewNullDecimal(decimal.NewFromInt(650)),
		CommissionUSD:  decimal.NewFromInt(5),
		CommissionBase: decimal.NewNullDecimal(decimal.NewFromInt(5)),
		TotalBase:      decimal.NewNullDecimal(decimal.NewFromInt(655)),
		TSEpoch:        time.Now().Unix(),
	}

	rowID, err := store.Persist(ctx, rec)
	require.NoError(t, err)
	assert.Positive(t, rowID)

	_, err = store.Persist(ctx, rec)
	require.Error(t, err, "transaction_id is unique")

	rows, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, rowID, rows[0].RowID)
	assert.True(t, rows[0].Record.TotalBase.Decimal.Equal(decimal.NewFromInt(655)))
	assert.Equal(t, models.USD, rows[0].Record.BaseCurrency)
}
