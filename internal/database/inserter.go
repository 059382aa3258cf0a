package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/JonMunkholm/UserUpload/internal/core"
	"github.com/JonMunkholm/UserUpload/internal/logging"
)

const createUsersTableSQL = `CREATE TABLE IF NOT EXISTS users (
	id    INTEGER GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
	name  VARCHAR(100),
	email VARCHAR(100),
	age   INTEGER
)`

// Values are always bound as parameters, never concatenated into the statement.
const insertUserSQL = `INSERT INTO users (name, email, age) VALUES ($1, $2, $3)`

// rollbackTimeout bounds the rollback issued after a failure, including
// failures caused by the caller's context being cancelled.
const rollbackTimeout = 5 * time.Second

// Inserter writes validated batches to the users table, all or nothing.
type Inserter struct {
	pool *Pool

	mu      sync.Mutex
	ensured bool
}

var _ core.BatchInserter = (*Inserter)(nil)

// NewInserter creates an inserter that leases its connections from pool.
func NewInserter(pool *Pool) *Inserter {
	return &Inserter{pool: pool}
}

// EnsureTable creates the users table if it does not exist. It is idempotent.
func (ins *Inserter) EnsureTable(ctx context.Context) error {
	lease, err := ins.pool.Lease(ctx)
	if err != nil {
		return err
	}
	defer lease.Release()

	return ins.ensureTable(ctx, lease)
}

// ensureTable runs the DDL once per process; concurrent first callers serialize
// so they do not race on the catalog.
func (ins *Inserter) ensureTable(ctx context.Context, db DBTX) error {
	ins.mu.Lock()
	defer ins.mu.Unlock()

	if ins.ensured {
		return nil
	}
	if _, err := db.Exec(ctx, createUsersTableSQL); err != nil {
		return classify("ensure_table", err)
	}
	ins.ensured = true
	return nil
}

// Insert writes batch in one transaction and returns the number of rows inserted.
//
// Each record is one parameterized INSERT. The transaction commits only after
// every statement affected exactly one row; any failure rolls it back and is
// returned as a core.KindStore error (or core.KindPoolExhausted when no
// connection could be leased). progress, if non-nil, is called after each row.
func (ins *Inserter) Insert(ctx context.Context, batch core.InsertBatch, progress core.ProgressFunc) (int64, error) {
	lease, err := ins.pool.Lease(ctx)
	if err != nil {
		return 0, err
	}
	defer lease.Release()

	if err := ins.ensureTable(ctx, lease); err != nil {
		return 0, err
	}

	tx, err := lease.Begin(ctx)
	if err != nil {
		return 0, classify("begin", err)
	}

	total := len(batch)
	var inserted int64

	for i, rec := range batch {
		// Check context before each insert to allow prompt cancellation
		if err := ctx.Err(); err != nil {
			return 0, ins.abort(ctx, tx, i+1, classify("insert", err))
		}

		tag, err := tx.Exec(ctx, insertUserSQL, rec.Args()...)
		if err != nil {
			return 0, ins.abort(ctx, tx, i+1, classify("insert", err))
		}
		if n := tag.RowsAffected(); n != 1 {
			return 0, ins.abort(ctx, tx, i+1, &core.Error{Kind: core.KindStore, Op: "insert",
				Category: "row_count_mismatch", Message: fmt.Sprintf("statement affected %d rows, expected 1", n)})
		}
		inserted++

		if progress != nil {
			progress(i+1, total)
		}
	}

	if inserted != int64(total) {
		return 0, ins.abort(ctx, tx, 0, &core.Error{Kind: core.KindStore, Op: "insert",
			Category: "row_count_mismatch", Message: fmt.Sprintf("inserted %d rows, expected %d", inserted, total)})
	}

	if err := tx.Commit(ctx); err != nil {
		e := classify("commit", err)
		if e.Category == "unknown" {
			e.Category = "transaction"
		}
		return 0, e
	}

	return inserted, nil
}

// abort rolls tx back and returns e annotated with the failing row.
func (ins *Inserter) abort(ctx context.Context, tx Tx, row int, e *core.Error) *core.Error {
	rbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()

	if err := tx.Rollback(rbCtx); err != nil {
		logging.FromContext(ctx).Warn("rollback failed", "error", err, "pool", ins.pool.Name())
	}
	if row > 0 && e.Row == 0 {
		e.Row = row
	}
	return e
}
