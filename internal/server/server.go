package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sheikh-saqib/crypto-purchase-pipeline/internal/models"
	"github.com/sheikh-saqib/crypto-purchase-pipeline/internal/pipeline"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const maxBodyBytes = 1 << 20

// PurchaseService is what the handlers need from the purchase service.
type PurchaseService interface {
	Submit(ctx context.Context, req models.PurchaseRequest) models.Outcome
	SubmitBatch(ctx context.Context, reqs []models.PurchaseRequest) []models.Outcome
	Transactions(ctx context.Context) ([]models.StoredTransaction, error)
}

type Options struct {
	RateLimitRPS   float64
	RateLimitBurst int
}

type handler struct {
	service PurchaseService
	logger  *zap.Logger
}

// NewRouter wires the HTTP routes.
func NewRouter(service PurchaseService, logger *zap.Logger, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handler{service: service, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if opts.RateLimitRPS > 0 {
		r.Use(rateLimit(rate.NewLimiter(rate.Limit(opts.RateLimitRPS), opts.RateLimitBurst), logger))
	}

	r.Get("/health", h.health)
	r.Post("/purchases", h.createPurchase)
	r.Post("/purchases/batch", h.createPurchaseBatch)
	r.Get("/transactions", h.listTransactions)

	return r
}

func rateLimit(limiter *rate.Limiter, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				logger.Warn("rate limit exceeded",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr))
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) createPurchase(w http.ResponseWriter, r *http.Request) {
	var req models.PurchaseRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	out := h.service.Submit(r.Context(), req)
	writeJSON(w, statusFor(out), out)
}

func (h *handler) createPurchaseBatch(w http.ResponseWriter, r *http.Request) {
	var reqs []models.PurchaseRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&reqs); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, h.service.SubmitBatch(r.Context(), reqs))
}

func (h *handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	stored, err := h.service.Transactions(r.Context())
	if err != nil {
		h.logger.Error("list transactions", zap.Error(err))
		http.Error(w, "could not list transactions", http.StatusInternalServerError)
		return
	}
	if stored == nil {
		stored = []models.StoredTransaction{}
	}
	writeJSON(w, http.StatusOK, stored)
}

func statusFor(out models.Outcome) int {
	if out.OK {
		return http.StatusCreated
	}
	if out.Error == nil {
		return http.StatusInternalServerError
	}
	switch pipeline.ErrorKind(out.Error.Kind) {
	case pipeline.ValidationError, pipeline.AuthError, pipeline.RateUnavailableError:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
