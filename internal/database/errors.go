package database

import (
	"context"
	"errors"
	"net"

	"github.com/JonMunkholm/UserUpload/internal/core"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the inserter distinguishes.
// https://www.postgresql.org/docs/current/errcodes-appendix.html
var sqlStateCategories = map[string]string{
	"23505": "unique_violation",
	"23514": "check_violation",
	"23502": "not_null_violation",
	"23503": "foreign_key_violation",
	"22001": "string_data_right_truncation",
	"57014": "cancelled",   // query_canceled
	"57P01": "connection",  // admin_shutdown
	"25P02": "transaction", // in_failed_sql_transaction
}

// sqlStateClasses maps two-character SQLSTATE classes when no exact code matches.
var sqlStateClasses = map[string]string{
	"08": "connection",  // connection exception
	"40": "transaction", // transaction rollback (deadlock, serialization)
	"25": "transaction", // invalid transaction state
}

// classify converts a driver or context error into a store failure.
// Errors that are already typed pass through unchanged.
func classify(op string, err error) *core.Error {
	var typed *core.Error
	if errors.As(err, &typed) {
		return typed
	}

	e := &core.Error{Kind: core.KindStore, Op: op, Category: "unknown", Message: err.Error(), Err: err}

	var pgErr *pgconn.PgError
	var connErr *pgconn.ConnectError
	var netErr net.Error

	switch {
	case errors.Is(err, context.Canceled):
		e.Category = "cancelled"
		e.Message = "operation cancelled"
	case errors.As(err, &pgErr):
		e.Category = sqlStateCategory(pgErr.Code)
		e.Message = pgErr.Message
		if pgErr.Detail != "" {
			e.Message += " (" + pgErr.Detail + ")"
		}
	case pgconn.Timeout(err):
		e.Category = "timeout"
		e.Message = "operation timed out"
	case errors.As(err, &connErr), errors.As(err, &netErr):
		e.Category = "connection"
	}

	return e
}

func sqlStateCategory(code string) string {
	if c, ok := sqlStateCategories[code]; ok {
		return c
	}
	if len(code) >= 2 {
		if c, ok := sqlStateClasses[code[:2]]; ok {
			return c
		}
	}
	return "unknown"
}

// isUndefinedTable reports whether err is Postgres "relation does not exist"
// (SQLSTATE 42P01). Other "does not exist" errors, such as a missing column
// or role, are not matched.
func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "42P01"
}
