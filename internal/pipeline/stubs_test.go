package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	interfaces "github.com/sheikh-saqib/crypto-purchase-pipeline/internal/interfaces"
	"github.com/sheikh-saqib/crypto-purchase-pipeline/internal/models"
	"github.com/shopspring/decimal"
)

type stubRates struct {
	mu      sync.Mutex
	prices  map[models.Currency]decimal.Decimal
	fx      map[models.Currency]decimal.Decimal
	err     error
	calls   []models.Currency
	fxCalls []models.Currency
}

func (s *stubRates) Price(ctx context.Context, currency models.Currency) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, currency)
	if s.err != nil {
		return decimal.Zero, s.err
	}
	p, ok := s.prices[currency]
	if !ok {
		return decimal.Zero, interfaces.ErrRateNotFound
	}
	return p, nil
}

func (s *stubRates) USDRate(ctx context.Context, currency models.Currency) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fxCalls = append(s.fxCalls, currency)
	if s.err != nil {
		return decimal.Zero, s.err
	}
	r, ok := s.fx[currency]
	if !ok {
		return decimal.Zero, interfaces.ErrRateNotFound
	}
	return r, nil
}

type stubUsers struct {
	mu    sync.Mutex
	users map[string]models.User
	err   error
	calls int
}

func (s *stubUsers) Lookup(ctx context.Context, userID string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return models.User{}, s.err
	}
	u, ok := s.users[userID]
	if !ok {
		return models.User{}, interfaces.ErrUserNotFound
	}
	return u, nil
}

type stubStore struct {
	mu      sync.Mutex
	records []models.TransactionRecord
	err     error
	calls   int
}

func (s *stubStore) Persist(ctx context.Context, record models.TransactionRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	s.records = append(s.records, record)
	return int64(len(s.records)), nil
}

func (s *stubStore) List(ctx context.Context) ([]models.StoredTransaction, error) {
	return nil, errors.New("not implemented")
}

func newStubs() (*stubRates, *stubUsers, *stubStore) {
	rates := &stubRates{prices: map[models.Currency]decimal.Decimal{
		models.USD: decimal.NewFromInt(65000),
		models.EUR: decimal.NewFromInt(61000),
		models.GBP: decimal.NewFromInt(53000),
	}, fx: map[models.Currency]decimal.Decimal{
		models.USD: decimal.NewFromInt(1),
		models.EUR: decimal.RequireFromString("0.93"),
		models.GBP: decimal.RequireFromString("0.80"),
	}}
	users := &stubUsers{users: map[string]models.User{
		"u001": {UserID: "u001", Name: "Alice", Active: true},
		"u003": {UserID: "u003", Name: "Carol", Active: false},
	}}
	return rates, users, &stubStore{}
}

func newRecord(userID, amount string, currency models.Currency) models.TransactionRecord {
	return models.NewTransactionRecord(models.PurchaseRequest{
		UserID:       userID,
		BTCAmount:    decimal.RequireFromString(amount),
		BaseCurrency: currency,
	}, decimal.NewFromInt(5), time.Unix(1700000000, 0))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
