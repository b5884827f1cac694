package purchase

import (
	"context"
	"time"

	"github.com/google/uuid"
	interfaces "github.com/sheikh-saqib/crypto-purchase-pipeline/internal/interfaces"
	"github.com/sheikh-saqib/crypto-purchase-pipeline/internal/models"
	"github.com/sheikh-saqib/crypto-purchase-pipeline/internal/models/events"
	"github.com/sheikh-saqib/crypto-purchase-pipeline/internal/pipeline"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Service turns raw purchase requests into pipeline runs and reports their outcomes.
type Service struct {
	pipeline    *pipeline.Pipeline
	policy      pipeline.Policy
	store       interfaces.TransactionStore
	publisher   interfaces.EventPublisher
	topic       string
	logger      *zap.Logger
	now         func() time.Time
	concurrency int
}

type Option func(*Service)

// WithPublisher emits a PurchaseCompleted event on topic after every stored purchase.
func WithPublisher(publisher interfaces.EventPublisher, topic string) Option {
	return func(s *Service) {
		s.publisher = publisher
		s.topic = topic
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithConcurrency bounds how many pipeline runs a batch executes at once.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewService builds a service. store is only read, for listing; writes go
// through the pipeline's Storage stage.
func NewService(p *pipeline.Pipeline, policy pipeline.Policy, store interfaces.TransactionStore, opts ...Option) *Service {
	s := &Service{
		pipeline:    p,
		policy:      policy,
		store:       store,
		logger:      zap.NewNop(),
		now:         time.Now,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit processes one purchase from raw input to outcome.
func (s *Service) Submit(ctx context.Context, req models.PurchaseRequest) models.Outcome {
	record := models.NewTransactionRecord(req, s.policy.CommissionUSD, s.now())
	run := s.pipeline.Run(ctx, record)

	if run.State == pipeline.Completed {
		s.logger.Info("purchase completed",
			zap.String("transaction_id", run.Record.ID),
			zap.String("user_id", run.Record.UserID),
			zap.Int64("row_id", run.RowID),
			zap.String("total_base", run.Record.TotalBase.Decimal.String()),
			zap.String("base_currency", string(run.Record.BaseCurrency)))
		s.publish(ctx, run)
	}
	return OutcomeOf(run)
}

// SubmitBatch processes every request, each in its own pipeline run, and
// returns the outcomes in input order.
func (s *Service) SubmitBatch(ctx context.Context, reqs []models.PurchaseRequest) []models.Outcome {
	outcomes := make([]models.Outcome, len(reqs))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			outcomes[i] = s.Submit(ctx, req)
			return nil
		})
	}
	_ = g.Wait() // runs report failures in their outcome, never as errors

	return outcomes
}

// Transactions lists every stored purchase.
func (s *Service) Transactions(ctx context.Context) ([]models.StoredTransaction, error) {
	return s.store.List(ctx)
}

func (s *Service) publish(ctx context.Context, run *pipeline.Run) {
	if s.publisher == nil {
		return
	}

	ev := events.PurchaseCompleted{
		EventID:       uuid.New().String(),
		TransactionID: run.Record.ID,
		RowID:         run.RowID,
		UserID:        run.Record.UserID,
		BTCAmount:     run.Record.BTCAmount,
		BaseCurrency:  string(run.Record.BaseCurrency),
		TotalBase:     run.Record.TotalBase.Decimal,
		OccurredAt:    time.Unix(run.Record.TSEpoch, 0).UTC(),
	}
	// the row is already stored; a lost event does not undo the purchase
	if err := s.publisher.Publish(ctx, s.topic, ev); err != nil {
		s.logger.Error("publish purchase completed event",
			zap.String("transaction_id", run.Record.ID),
			zap.String("topic", s.topic),
			zap.Error(err))
	}
}

// OutcomeOf shapes a finished run the way callers see it.
func OutcomeOf(run *pipeline.Run) models.Outcome {
	out := models.Outcome{
		OK:   run.State == pipeline.Completed,
		User: run.User,
	}
	if out.OK {
		record := run.Record
		out.Transaction = &record
		out.StorageResult = run.StorageResult()
		return out
	}
	if run.Failure != nil {
		out.Error = &models.OutcomeError{
			Stage:   run.Failure.Stage,
			Kind:    string(run.Failure.Kind),
			Message: run.Failure.Message,
		}
	}
	return out
}
