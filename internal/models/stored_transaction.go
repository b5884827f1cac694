package models

// StoredTransaction is a persisted transaction row
type StoredTransaction struct {
	RowID  int64             `json:"row_id"` // auto-generated by the store
	Record TransactionRecord `json:"transaction"`
}
