package pipeline

import (
	"fmt"

	"github.com/sheikh-saqib/crypto-purchase-pipeline/internal/models"
)

// ErrorKind classifies why a stage stopped the pipeline.
type ErrorKind string

const (
	ValidationError      ErrorKind = "ValidationError"
	AuthError            ErrorKind = "AuthError"
	RateUnavailableError ErrorKind = "RateUnavailableError"
	PipelineOrderError   ErrorKind = "PipelineOrderError"
	StorageError         ErrorKind = "StorageError"
)

// Failure is the terminal outcome of a stage. Stage and Index are filled in
// by the pipeline; filters only set Kind, Message and Partial.
type Failure struct {
	Stage   string
	Index   int
	Kind    ErrorKind
	Message string
	Partial models.TransactionRecord
}

func (f *Failure) Error() string {
	if f.Stage == "" {
		return fmt.Sprintf("%s: %s", f.Kind, f.Message)
	}
	return fmt.Sprintf("%s (stage %d %s): %s", f.Kind, f.Index, f.Stage, f.Message)
}

// Result is what a filter returns: either a continuation carrying the
// (possibly enriched) record, or a Failure.
type Result struct {
	Record  models.TransactionRecord
	Failure *Failure

	// Auxiliary output that is reported to the caller but never stored on the record.
	User   *models.User
	RowID  int64
	Stored bool
}

// Continue lets the pipeline proceed with rec.
func Continue(rec models.TransactionRecord) Result {
	return Result{Record: rec}
}

// Fail stops the pipeline. partial is kept for diagnostics.
func Fail(kind ErrorKind, message string, partial models.TransactionRecord) Result {
	return Result{
		Record: partial,
		Failure: &Failure{
			Kind:    kind,
			Message: message,
			Partial: partial,
		},
	}
}

func (r Result) Continues() bool {
	return r.Failure == nil
}

func (r Result) withUser(user models.User) Result {
	r.User = &user
	return r
}

func (r Result) withRowID(id int64) Result {
	r.RowID = id
	r.Stored = true
	return r
}
