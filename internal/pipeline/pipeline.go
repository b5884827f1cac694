package pipeline

import (
	"context"
	"errors"
	"fmt"

	interfaces "github.com/sheikh-saqib/crypto-purchase-pipeline/internal/interfaces"
	"github.com/sheikh-saqib/crypto-purchase-pipeline/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// State of a single pipeline run.
type State int

const (
	Pending State = iota
	Running
	Completed
	Aborted
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Dependencies are the collaborators injected into the standard filters.
type Dependencies struct {
	Rates interfaces.RateSource
	Users interfaces.UserDirectory
	Store interfaces.TransactionStore
}

// Pipeline runs an ordered, fixed list of filters over one record at a time.
// It holds no per-run state, so a single Pipeline can serve concurrent runs.
type Pipeline struct {
	filters []Filter
	logger  *zap.Logger
}

// New builds the standard Validation, Auth, Transform, Fee, Storage pipeline.
func New(policy Policy, deps Dependencies, logger *zap.Logger) (*Pipeline, error) {
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid policy: %w", err)
	}
	if deps.Rates == nil || deps.Users == nil || deps.Store == nil {
		return nil, errors.New("rate source, user directory and store are required")
	}

	validation, err := NewValidationFilter(policy)
	if err != nil {
		return nil, err
	}

	return NewWithFilters(logger,
		validation,
		NewAuthFilter(deps.Users),
		NewTransformFilter(deps.Rates),
		NewFeeFilter(deps.Rates),
		NewStorageFilter(deps.Store),
	)
}

// NewWithFilters composes a pipeline from arbitrary filters. A StorageFilter,
// when present, must come last.
func NewWithFilters(logger *zap.Logger, filters ...Filter) (*Pipeline, error) {
	if len(filters) == 0 {
		return nil, errors.New("pipeline needs at least one filter")
	}
	for i, f := range filters {
		if f == nil {
			return nil, fmt.Errorf("filter %d is nil", i+1)
		}
		if _, ok := f.(*StorageFilter); ok && i != len(filters)-1 {
			return nil, fmt.Errorf("storage filter must be the last stage, found at position %d of %d", i+1, len(filters))
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Pipeline{
		filters: append([]Filter(nil), filters...),
		logger:  logger,
	}, nil
}

// Stages returns the stage names in execution order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.filters))
	for i, f := range p.filters {
		names[i] = f.Name()
	}
	return names
}

// Run is the state of one pass of a record through the pipeline.
type Run struct {
	State  State
	Stage  int // 1-indexed stage being or last executed; 0 while Pending
	Record models.TransactionRecord

	User    *models.User
	RowID   int64
	Stored  bool
	Failure *Failure

	Executed []string
}

// StorageResult is the acknowledgement of the Storage stage, empty if it never succeeded.
func (r *Run) StorageResult() string {
	if r.Stored {
		return models.StorageOK
	}
	return ""
}

// Prepare returns a Pending run of record; no filter has executed yet.
func (p *Pipeline) Prepare(record models.TransactionRecord) *Run {
	return &Run{State: Pending, Record: record}
}

// Run prepares and executes a run of record.
func (p *Pipeline) Run(ctx context.Context, record models.TransactionRecord) *Run {
	run := p.Prepare(record)
	_ = p.Execute(ctx, run) // a fresh run is always Pending
	return run
}

// Execute drives a Pending run through every filter in order. The first Fail
// aborts the run and no later filter executes. A run that already started is
// left untouched.
func (p *Pipeline) Execute(ctx context.Context, run *Run) error {
	if run.State != Pending {
		return fmt.Errorf("run of %s is %s, only a pending run can execute", run.Record.ID, run.State)
	}
	log := p.logger.With(zap.String("transaction_id", run.Record.ID))

	run.State = Running
	for i, f := range p.filters {
		run.Stage = i + 1
		run.Executed = append(run.Executed, f.Name())
		log.Debug("stage started", zap.Int("stage", run.Stage), zap.String("filter", f.Name()))

		before := run.Record
		res := f.Apply(ctx, before)

		if res.Continues() && overwritesEarlierField(before, res.Record) {
			res = Fail(PipelineOrderError, f.Name()+" overwrote a field set by an earlier stage", before)
		}

		if !res.Continues() {
			failure := *res.Failure
			failure.Stage = f.Name()
			failure.Index = run.Stage
			run.Failure = &failure
			run.State = Aborted
			p.logFailure(log, &failure)
			return nil
		}

		run.Record = res.Record
		if res.User != nil {
			run.User = res.User
		}
		if res.Stored {
			run.Stored = true
			run.RowID = res.RowID
		}
	}

	run.State = Completed
	log.Debug("pipeline completed", zap.Int64("row_id", run.RowID))
	return nil
}

func (p *Pipeline) logFailure(log *zap.Logger, f *Failure) {
	fields := []zap.Field{
		zap.String("stage", f.Stage),
		zap.Int("stage_index", f.Index),
		zap.String("kind", string(f.Kind)),
		zap.String("message", f.Message),
	}
	if f.Kind == PipelineOrderError {
		log.Error("pipeline invariant violated", fields...)
		return
	}
	log.Warn("pipeline aborted", fields...)
}

func overwritesEarlierField(before, after models.TransactionRecord) bool {
	if before.ID != after.ID ||
		before.UserID != after.UserID ||
		!before.BTCAmount.Equal(after.BTCAmount) ||
		before.BaseCurrency != after.BaseCurrency ||
		!before.CommissionUSD.Equal(after.CommissionUSD) ||
		before.TSEpoch != after.TSEpoch {
		return true
	}

	return changed(before.BTCPriceInBase, after.BTCPriceInBase) ||
		changed(before.SubtotalBase, after.SubtotalBase) ||
		changed(before.CommissionBase, after.CommissionBase) ||
		changed(before.TotalBase, after.TotalBase)
}

func changed(before, after decimal.NullDecimal) bool {
	return before.Valid && (!after.Valid || !after.Decimal.Equal(before.Decimal))
}
