package core

// ingest.go coordinates one ingestion attempt end to end:
//
//	Idle -> FileSelected -> Archived -> Parsed -> Validated -> Inserted -> Reported
//
// Any stage may fail into the terminal Failed state. Nothing is retried; the
// caller may invoke Ingest again from scratch.

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/JonMunkholm/UserUpload/internal/logging"
	"github.com/google/uuid"
)

// Ingestor runs file -> archive -> parse -> validate -> insert for one file at a time.
type Ingestor struct {
	archiver  *Archiver
	validator *Validator
	inserter  BatchInserter
	progress  ProgressFunc
	now       func() time.Time
}

// IngestorOption configures an Ingestor.
type IngestorOption func(*Ingestor)

// WithProgress registers a row progress observer passed through to the inserter.
func WithProgress(fn ProgressFunc) IngestorOption {
	return func(in *Ingestor) {
		in.progress = fn
	}
}

// NewIngestor creates an orchestrator from its collaborators.
func NewIngestor(archiver *Archiver, validator *Validator, inserter BatchInserter, opts ...IngestorOption) *Ingestor {
	in := &Ingestor{
		archiver:  archiver,
		validator: validator,
		inserter:  inserter,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// attempt tracks state for a single Ingest call.
type attempt struct {
	result IngestResult
	start  time.Time
	logger *slog.Logger
}

func (a *attempt) advance(s State) {
	a.logger.Debug("ingest state", "from", a.result.State, "to", s)
	a.result.State = s
}

// fail moves the attempt to Failed. from names the stage the failure is
// attributed to: FileSelected, Archived (parse), Validated or Inserted.
func (a *attempt) fail(from State, outcome Outcome, err error) IngestResult {
	a.result.FailedFrom = from
	a.result.State = StateFailed
	a.result.Outcome = outcome
	a.result.Err = err
	a.result.Reason = err.Error()
	a.result.RowCount = 0
	a.result.Duration = time.Since(a.start)

	a.logger.Warn("ingest failed",
		"outcome", outcome,
		"failed_from", a.result.FailedFrom,
		"kind", KindOf(err).String(),
		"error", err,
	)
	return a.result
}

// Ingest processes the CSV file at sourcePath and reports the outcome.
// It never panics on bad input and never retries.
func (in *Ingestor) Ingest(ctx context.Context, sourcePath string) IngestResult {
	id := uuid.New().String()
	fields := []any{"ingest_id", id, "file", filepath.Base(sourcePath)}
	if origin, ok := OriginFromContext(ctx); ok {
		fields = append(fields, origin.logAttrs()...)
	}
	a := &attempt{
		result: IngestResult{
			ID:         id,
			State:      StateIdle,
			SourcePath: sourcePath,
		},
		start:  in.now(),
		logger: logging.WithFields(ctx, fields...),
	}

	// Idle -> FileSelected
	a.advance(StateFileSelected)
	if strings.TrimSpace(sourcePath) == "" {
		return a.fail(StateFileSelected, OutcomeRejectedFile, fileError("select", "no file selected", nil))
	}
	if !strings.EqualFold(filepath.Ext(sourcePath), ".csv") {
		return a.fail(StateFileSelected, OutcomeRejectedFile, &Error{
			Kind:     KindFileSelection,
			Op:       "select",
			Category: "invalid_extension",
			Message:  "only .csv files are allowed",
		})
	}

	// FileSelected -> Archived
	archived, err := in.archiver.Archive(sourcePath)
	if err != nil {
		return a.fail(StateFileSelected, OutcomeRejectedFile, err)
	}
	a.result.ArchivedPath = archived
	a.advance(StateArchived)
	a.logger.Info("file archived", "path", archived)

	// Archived -> Parsed
	rows, err := ParseFile(archived)
	if err != nil {
		return a.fail(StateArchived, OutcomeRejectedFile, err)
	}
	a.advance(StateParsed)

	// Parsed -> Validated
	sanitized, err := in.validator.Validate(rows)
	if err != nil {
		return a.fail(StateValidated, OutcomeValidationFailed, err)
	}
	a.advance(StateValidated)

	// Validated -> Inserted
	n, err := in.inserter.Insert(ctx, InsertBatch(sanitized), in.progress)
	if err != nil {
		var ce *Error
		if !errors.As(err, &ce) {
			err = &Error{Kind: KindStore, Op: "insert", Category: "unknown", Message: err.Error(), Err: err}
		}
		return a.fail(StateInserted, OutcomeStoreFailed, err)
	}
	a.advance(StateInserted)

	// Inserted -> Reported
	a.result.RowCount = n
	a.result.Outcome = OutcomeSuccess
	a.result.Duration = time.Since(a.start)
	a.advance(StateReported)

	a.logger.Info("ingest completed",
		"rows", n,
		"duration_ms", a.result.Duration.Milliseconds(),
	)
	return a.result
}
