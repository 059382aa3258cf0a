// Package core provides the business logic for CSV user ingestion.
//
// This package contains the domain logic independent of any UI, transport or
// database driver. The web handlers, the CLI and the tests all drive it through
// the same [Ingestor].
//
// # Pipeline
//
// One call to [Ingestor.Ingest] walks a file through a fixed state machine:
//
//	Idle -> FileSelected -> Archived -> Parsed -> Validated -> Inserted -> Reported
//
// Any step may fail into Failed. The [IngestResult] records the last state,
// the state the failure came from and an [Outcome] for the caller.
//
//   - Archive: [Archiver] copies the source into the archive directory as
//     YYYYMMDD_HHMMSS_<name> before anything is read.
//   - Parse: [Parse] reads the name,email,age header and the data rows.
//   - Validate: [Validator] checks every cell against [AllowedPattern] and the
//     column limits. One bad cell rejects the whole file.
//   - Insert: a [BatchInserter] writes the batch in a single transaction.
//
// # Errors
//
// Every stage reports a *[Error] with a [Kind]. Use errors.Is with the
// sentinels ([ErrValidation], [ErrStore], ...) or [KindOf] to branch on it,
// and [MapError] to get a user-facing message with a support code.
package core
