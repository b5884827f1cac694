package models

// StorageOK is the acknowledgement reported after a record was persisted.
const StorageOK = "ok"

// Outcome is the result of one pipeline run as reported to callers.
type Outcome struct {
	OK            bool               `json:"ok"`
	Transaction   *TransactionRecord `json:"transaction,omitempty"`
	User          *User              `json:"user,omitempty"`
	StorageResult string             `json:"storage_result,omitempty"`
	Error         *OutcomeError      `json:"error,omitempty"`
}

// OutcomeError names the stage that stopped the run and why.
type OutcomeError struct {
	Stage   string `json:"stage"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}
