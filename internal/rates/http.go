package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	interfaces "github.com/sheikh-saqib/crypto-purchase-pipeline/internal/interfaces"
	"github.com/sheikh-saqib/crypto-purchase-pipeline/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// spot price payload, e.g. GET /v2/prices/BTC-USD/spot
type spotResponse struct {
	Data struct {
		Amount   decimal.Decimal `json:"amount"`
		Base     string          `json:"base"`
		Currency string          `json:"currency"`
	} `json:"data"`
}

// exchange rates payload, e.g. GET /v2/exchange-rates?currency=USD
type exchangeRatesResponse struct {
	Data struct {
		Currency string                     `json:"currency"`
		Rates    map[string]decimal.Decimal `json:"rates"`
	} `json:"data"`
}

// BreakerConfig controls when the HTTP source stops calling the feed.
type BreakerConfig struct {
	ConsecutiveFailures uint32
	Timeout             time.Duration // how long the breaker stays open
}

// HTTPSource reads spot prices and USD exchange rates from a JSON price feed. Calls go through a
// circuit breaker so a failing feed is rejected fast instead of timing out
// every purchase.
type HTTPSource struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

func NewHTTPSource(baseURL string, timeout time.Duration, cfg BreakerConfig, logger *zap.Logger) *HTTPSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 5
	}

	settings := gobreaker.Settings{
		Name:    "rate-source",
		Timeout: cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		// an unknown pair is an answer, not an outage
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, interfaces.ErrRateNotFound)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("rate source breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
	}
}

func (s *HTTPSource) Price(ctx context.Context, currency models.Currency) (decimal.Decimal, error) {
	return s.execute(func() (decimal.Decimal, error) {
		return s.fetch(ctx, currency)
	})
}

func (s *HTTPSource) USDRate(ctx context.Context, currency models.Currency) (decimal.Decimal, error) {
	if currency == models.USD {
		return decimal.NewFromInt(1), nil
	}
	return s.execute(func() (decimal.Decimal, error) {
		return s.fetchUSDRate(ctx, currency)
	})
}

func (s *HTTPSource) execute(fn func() (decimal.Decimal, error)) (decimal.Decimal, error) {
	result, err := s.breaker.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return decimal.Zero, fmt.Errorf("rate source unavailable: %w", err)
		}
		return decimal.Zero, err
	}
	return result.(decimal.Decimal), nil
}

func (s *HTTPSource) fetch(ctx context.Context, currency models.Currency) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/v2/prices/BTC-%s/spot", s.baseURL, currency)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch BTC-%s: %w", currency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return decimal.Zero, fmt.Errorf("BTC-%s: %w", currency, interfaces.ErrRateNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return decimal.Zero, fmt.Errorf("fetch BTC-%s: status %d: %s", currency, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload spotResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Zero, fmt.Errorf("decode BTC-%s: %w", currency, err)
	}
	if payload.Data.Currency != "" && payload.Data.Currency != string(currency) {
		return decimal.Zero, fmt.Errorf("feed answered %s for BTC-%s", payload.Data.Currency, currency)
	}

	s.logger.Debug("fetched BTC price", zap.String("currency", string(currency)), zap.String("price", payload.Data.Amount.String()))
	return payload.Data.Amount, nil
}

func (s *HTTPSource) fetchUSDRate(ctx context.Context, currency models.Currency) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/v2/exchange-rates?currency=USD", s.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch USD-%s: %w", currency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return decimal.Zero, fmt.Errorf("fetch USD-%s: status %d: %s", currency, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload exchangeRatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Zero, fmt.Errorf("decode USD-%s: %w", currency, err)
	}
	if payload.Data.Currency != "" && payload.Data.Currency != string(models.USD) {
		return decimal.Zero, fmt.Errorf("feed answered rates for %s, want USD", payload.Data.Currency)
	}
	rate, ok := payload.Data.Rates[string(currency)]
	if !ok {
		return decimal.Zero, fmt.Errorf("USD-%s: %w", currency, interfaces.ErrRateNotFound)
	}

	s.logger.Debug("fetched USD rate", zap.String("currency", string(currency)), zap.String("rate", rate.String()))
	return rate, nil
}

var _ interfaces.RateSource = (*HTTPSource)(nil)
