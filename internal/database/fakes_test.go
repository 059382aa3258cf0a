package database

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var errNotSupported = errors.New("not supported by fake")

// fakeSource hands out fakeConns that share one transaction script.
type fakeSource struct {
	mu       sync.Mutex
	acquired int
	released int
	ddl      int
	closed   bool

	// Script for every transaction begun on a connection from this source.
	failAt   int   // 1-based insert that fails, 0 for none
	failErr  error // error returned by the failing insert
	affected int64 // rows reported per insert, default 1
	beginErr error

	txs []*fakeTx
}

func (s *fakeSource) Acquire(ctx context.Context) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acquired++
	return &fakeConn{src: s}, nil
}

func (s *fakeSource) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *fakeSource) lastTx() *fakeTx {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.txs) == 0 {
		return nil
	}
	return s.txs[len(s.txs)-1]
}

type fakeConn struct {
	src *fakeSource
}

func (c *fakeConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.src.mu.Lock()
	c.src.ddl++
	c.src.mu.Unlock()
	return pgconn.NewCommandTag("CREATE TABLE"), nil
}

func (c *fakeConn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errNotSupported
}

func (c *fakeConn) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func (c *fakeConn) Begin(ctx context.Context) (Tx, error) {
	c.src.mu.Lock()
	defer c.src.mu.Unlock()
	if c.src.beginErr != nil {
		return nil, c.src.beginErr
	}
	affected := c.src.affected
	if affected == 0 {
		affected = 1
	}
	tx := &fakeTx{failAt: c.src.failAt, failErr: c.src.failErr, affected: affected}
	c.src.txs = append(c.src.txs, tx)
	return tx, nil
}

func (c *fakeConn) Release() {
	c.src.mu.Lock()
	c.src.released++
	c.src.mu.Unlock()
}

// fakeTx records statements and fails the scripted insert.
type fakeTx struct {
	failAt   int
	failErr  error
	affected int64

	inserts    [][]any
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if t.committed || t.rolledBack {
		return pgconn.CommandTag{}, errors.New("tx closed")
	}
	t.inserts = append(t.inserts, args)
	if t.failAt == len(t.inserts) {
		return pgconn.CommandTag{}, t.failErr
	}
	return pgconn.NewCommandTag(fmt.Sprintf("INSERT 0 %d", t.affected)), nil
}

func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errNotSupported
}

func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}
