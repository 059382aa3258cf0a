package database

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// DefaultListLimit caps List when the caller passes a non-positive limit.
const DefaultListLimit = 500

// User is one stored row of the users table.
type User struct {
	ID    int32  `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	Email string `db:"email" json:"email"`
	Age   *int32 `db:"age" json:"age"`
}

// Users reads stored rows for display.
type Users struct {
	pool *Pool
}

// NewUsers creates a reader over pool.
func NewUsers(pool *Pool) *Users {
	return &Users{pool: pool}
}

// List returns up to limit users ordered by id. A missing table yields no rows.
func (u *Users) List(ctx context.Context, limit int) ([]User, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	lease, err := u.pool.Lease(ctx)
	if err != nil {
		return nil, err
	}
	defer lease.Release()

	rows, err := lease.Query(ctx,
		`SELECT id, COALESCE(name, '') AS name, COALESCE(email, '') AS email, age
		 FROM users ORDER BY id LIMIT $1`, limit)
	if err != nil {
		if isUndefinedTable(err) {
			return []User{}, nil
		}
		return nil, classify("list", err)
	}

	users, err := pgx.CollectRows(rows, pgx.RowToStructByName[User])
	if err != nil {
		if isUndefinedTable(err) {
			return []User{}, nil
		}
		return nil, classify("list", err)
	}
	return users, nil
}

// Count returns the number of stored users. A missing table counts as zero.
func (u *Users) Count(ctx context.Context) (int64, error) {
	lease, err := u.pool.Lease(ctx)
	if err != nil {
		return 0, err
	}
	defer lease.Release()

	var n int64
	if err := lease.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		if isUndefinedTable(err) {
			return 0, nil
		}
		return 0, classify("count", err)
	}
	return n, nil
}

// Reset deletes every stored user and restarts id numbering.
// This is a destructive operation; callers must confirm it first.
func (u *Users) Reset(ctx context.Context) error {
	lease, err := u.pool.Lease(ctx)
	if err != nil {
		return err
	}
	defer lease.Release()

	if _, err := lease.Exec(ctx, `TRUNCATE TABLE users RESTART IDENTITY`); err != nil {
		if isUndefinedTable(err) {
			return nil
		}
		return classify("reset", err)
	}
	return nil
}
