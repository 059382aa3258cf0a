package core

import (
	"context"
	"time"
)

// Columns is the fixed header every ingested file must carry, in order.
var Columns = []string{"name", "email", "age"}

// RawRecord is one data row as read from the file, one field per column.
type RawRecord []string

// SanitizedRecord is a row whose every field passed validation.
type SanitizedRecord struct {
	Name  string
	Email string
	Age   int32
}

// Args returns the record's values in column order, ready to bind as query
// parameters.
func (r SanitizedRecord) Args() []any {
	return []any{r.Name, r.Email, r.Age}
}

// InsertBatch is the full set of records persisted in one transaction.
type InsertBatch []SanitizedRecord

// ProgressFunc is notified after each row of a batch is written.
// done counts rows written so far; total is the batch size.
type ProgressFunc func(done, total int)

// BatchInserter persists a batch atomically and reports the rows written.
// Failures are returned as *Error with KindStore or KindPoolExhausted.
type BatchInserter interface {
	Insert(ctx context.Context, batch InsertBatch, progress ProgressFunc) (int64, error)
}

// State is a step of the ingestion state machine.
type State string

const (
	StateIdle         State = "idle"
	StateFileSelected State = "file_selected"
	StateArchived     State = "archived"
	StateParsed       State = "parsed"
	StateValidated    State = "validated"
	StateInserted     State = "inserted"
	StateReported     State = "reported"
	StateFailed       State = "failed"
)

// Outcome is the caller-visible classification of an ingestion attempt.
type Outcome string

const (
	OutcomeSuccess          Outcome = "success"
	OutcomeRejectedFile     Outcome = "rejected_file"
	OutcomeValidationFailed Outcome = "validation_failed"
	OutcomeStoreFailed      Outcome = "store_failed"
)

// IngestResult is the final report of one ingestion attempt.
// State is the last state reached, StateReported on success. FailedFrom names
// the state the attempt failed out of. Reason is empty only on success.
type IngestResult struct {
	ID           string        `json:"id"`
	Outcome      Outcome       `json:"outcome"`
	State        State         `json:"state"`
	FailedFrom   State         `json:"failedFrom,omitempty"`
	SourcePath   string        `json:"sourcePath"`
	ArchivedPath string        `json:"archivedPath,omitempty"`
	RowCount     int64         `json:"rowCount"`
	Reason       string        `json:"reason,omitempty"`
	Err          error         `json:"-"`
	Duration     time.Duration `json:"duration"`
}

// OK reports whether the ingestion succeeded.
func (r IngestResult) OK() bool {
	return r.Outcome == OutcomeSuccess
}
