package rates

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	interfaces "github.com/sheikh-saqib/crypto-purchase-pipeline/internal/interfaces"
	"github.com/sheikh-saqib/crypto-purchase-pipeline/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedSource(t *testing.T) {
	src := NewFixedSource(DefaultPrices(), DefaultFX())

	price, err := src.Price(context.Background(), models.EUR)
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromInt(61000)))

	prices := DefaultPrices()
	delete(prices, models.GBP)
	src = NewFixedSource(prices, DefaultFX())
	_, err = src.Price(context.Background(), models.GBP)
	assert.ErrorIs(t, err, interfaces.ErrRateNotFound)
}

func TestFixedSource_USDRate(t *testing.T) {
	fx := DefaultFX()
	delete(fx, models.USD)
	delete(fx, models.GBP)
	src := NewFixedSource(DefaultPrices(), fx)

	rate, err := src.USDRate(context.Background(), models.EUR)
	require.NoError(t, err)
	assert.Equal(t, "0.93", rate.String())

	rate, err = src.USDRate(context.Background(), models.USD)
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.NewFromInt(1)))

	_, err = src.USDRate(context.Background(), models.GBP)
	assert.ErrorIs(t, err, interfaces.ErrRateNotFound)
}

func TestFixedSource_CopiesTables(t *testing.T) {
	fx := DefaultFX()
	src := NewFixedSource(DefaultPrices(), fx)
	fx[models.EUR] = decimal.NewFromInt(7)

	rate, err := src.USDRate(context.Background(), models.EUR)
	require.NoError(t, err)
	assert.Equal(t, "0.93", rate.String())
}

type countingSource struct {
	calls   atomic.Int32
	fxCalls atomic.Int32
	err     error
}

func (c *countingSource) USDRate(ctx context.Context, currency models.Currency) (decimal.Decimal, error) {
	c.fxCalls.Add(1)
	if c.err != nil {
		return decimal.Zero, c.err
	}
	return decimal.RequireFromString("0.93"), nil
}

func (c *countingSource) Price(ctx context.Context, currency models.Currency) (decimal.Decimal, error) {
	c.calls.Add(1)
	if c.err != nil {
		return decimal.Zero, c.err
	}
	return decimal.NewFromInt(int64(60000 + c.calls.Load())), nil
}

func TestCached_ServesRepeatedLookupsFromCache(t *testing.T) {
	src := &countingSource{}
	cached := NewCached(src, time.Minute)

	first, err := cached.Price(context.Background(), models.USD)
	require.NoError(t, err)
	second, err := cached.Price(context.Background(), models.USD)
	require.NoError(t, err)

	assert.True(t, first.Equal(second))
	assert.Equal(t, int32(1), src.calls.Load())

	_, err = cached.Price(context.Background(), models.EUR)
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestCached_KeepsPricesAndRatesApart(t *testing.T) {
	src := &countingSource{}
	cached := NewCached(src, time.Minute)

	price, err := cached.Price(context.Background(), models.EUR)
	require.NoError(t, err)
	rate, err := cached.USDRate(context.Background(), models.EUR)
	require.NoError(t, err)
	again, err := cached.USDRate(context.Background(), models.EUR)
	require.NoError(t, err)

	assert.Equal(t, "60001", price.String())
	assert.Equal(t, "0.93", rate.String())
	assert.True(t, rate.Equal(again))
	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, int32(1), src.fxCalls.Load())
}

func TestCached_DoesNotCacheErrors(t *testing.T) {
	src := &countingSource{err: interfaces.ErrRateNotFound}
	cached := NewCached(src, time.Minute)

	_, err := cached.Price(context.Background(), models.GBP)
	assert.ErrorIs(t, err, interfaces.ErrRateNotFound)
	_, err = cached.Price(context.Background(), models.GBP)
	assert.ErrorIs(t, err, interfaces.ErrRateNotFound)
	assert.Equal(t, int32(2), src.calls.Load())
}

func newFeed(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPSource_Price(t *testing.T) {
	feed := newFeed(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/prices/BTC-USD/spot":
			fmt.Fprint(w, `{"data":{"amount":"65000.00","base":"BTC","currency":"USD"}}`)
		default:
			http.NotFound(w, r)
		}
	})
	src := NewHTTPSource(feed.URL, time.Second, BreakerConfig{}, nil)

	price, err := src.Price(context.Background(), models.USD)
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromInt(65000)))

	_, err = src.Price(context.Background(), models.GBP)
	assert.ErrorIs(t, err, interfaces.ErrRateNotFound)
}

func TestHTTPSource_UnknownPairsDoNotTripBreaker(t *testing.T) {
	feed := newFeed(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	src := NewHTTPSource(feed.URL, time.Second, BreakerConfig{ConsecutiveFailures: 2, Timeout: time.Minute}, nil)

	for i := 0; i < 5; i++ {
		_, err := src.Price(context.Background(), models.GBP)
		require.ErrorIs(t, err, interfaces.ErrRateNotFound)
	}
	assert.Equal(t, gobreaker.StateClosed, src.breaker.State())
}

func TestHTTPSource_BreakerOpensOnServerErrors(t *testing.T) {
	var hits atomic.Int32
	feed := newFeed(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "upstream down", http.StatusBadGateway)
	})
	src := NewHTTPSource(feed.URL, time.Second, BreakerConfig{ConsecutiveFailures: 2, Timeout: time.Minute}, nil)

	for i := 0; i < 2; i++ {
		_, err := src.Price(context.Background(), models.USD)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 502")
	}

	_, err := src.Price(context.Background(), models.USD)
	require.Error(t, err)
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Equal(t, int32(2), hits.Load())
}

func TestHTTPSource_RejectsMismatchedCurrency(t *testing.T) {
	feed := newFeed(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"amount":"1","base":"BTC","currency":"JPY"}}`)
	})
	src := NewHTTPSource(feed.URL, time.Second, BreakerConfig{}, nil)

	_, err := src.Price(context.Background(), models.EUR)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JPY")
}

func TestHTTPSource_USDRate(t *testing.T) {
	var hits atomic.Int32
	feed := newFeed(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/v2/exchange-rates" || r.URL.Query().Get("currency") != "USD" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"data":{"currency":"USD","rates":{"EUR":"0.93","GBP":"0.80"}}}`)
	})
	src := NewHTTPSource(feed.URL, time.Second, BreakerConfig{}, nil)

	rate, err := src.USDRate(context.Background(), models.GBP)
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.RequireFromString("0.8")))

	rate, err = src.USDRate(context.Background(), models.USD)
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, int32(1), hits.Load())

	_, err = src.USDRate(context.Background(), models.Currency("JPY"))
	assert.ErrorIs(t, err, interfaces.ErrRateNotFound)
}
