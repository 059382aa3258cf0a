// Package database owns the Postgres side of ingestion: a bounded, named
// connection pool, the users table, and the transactional batch inserter.
package database

// pool.go bounds concurrent store access.
//
// pgxpool already caps open connections, but it has no notion of a lease
// timeout or of peak usage. Pool layers a semaphore over it so that at most
// MaxSize leases exist at once, a caller waits at most AcquireTimeout for a
// free slot, and Status can report how busy the pool has been.

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/JonMunkholm/UserUpload/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultPoolSize is the lease limit used when none is configured.
const DefaultPoolSize = 5

// DefaultAcquireTimeout is how long Lease waits for a slot when none is configured.
const DefaultAcquireTimeout = 10 * time.Second

// DBTX is the statement surface shared by connections and transactions.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Tx is an open transaction.
type Tx interface {
	DBTX
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Conn is one connection checked out of the underlying pool.
type Conn interface {
	DBTX
	Begin(ctx context.Context) (Tx, error)
	Release()
}

// connSource hands out connections. pgxpool in production, fakes in tests.
type connSource interface {
	Acquire(ctx context.Context) (Conn, error)
	Close()
}

type pgxSource struct {
	pool *pgxpool.Pool
}

func (s pgxSource) Acquire(ctx context.Context) (Conn, error) {
	c, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return pgxConn{c}, nil
}

func (s pgxSource) Close() {
	s.pool.Close()
}

// pgxConn adapts *pgxpool.Conn so Begin returns our Tx.
type pgxConn struct {
	*pgxpool.Conn
}

func (c pgxConn) Begin(ctx context.Context) (Tx, error) {
	return c.Conn.Begin(ctx)
}

// PoolConfig describes the process-wide pool.
type PoolConfig struct {
	Name           string        // Reported as application_name and in Status
	DSN            string        // PostgreSQL connection string
	MaxSize        int           // Maximum simultaneous leases
	AcquireTimeout time.Duration // How long Lease waits for a free slot
	ConnectTimeout time.Duration // Bound on the startup ping
}

// Pool is a named, bounded set of store connections shared by all ingestions.
// It is created once at startup and passed explicitly to its users.
type Pool struct {
	name           string
	src            connSource
	semaphore      chan struct{}
	acquireTimeout time.Duration

	mu      sync.RWMutex
	active  int
	peak    int
	waiting int
}

// NewPool connects to Postgres and verifies the connection with a ping.
// Connection failures are returned as core.KindStore errors.
func NewPool(ctx context.Context, cfg PoolConfig) (*Pool, error) {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultPoolSize
	}

	pgCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, &core.Error{Kind: core.KindStore, Op: "connect", Category: "connection",
			Message: "invalid database connection string", Err: err}
	}
	pgCfg.MaxConns = int32(cfg.MaxSize)
	if cfg.Name != "" {
		pgCfg.ConnConfig.RuntimeParams["application_name"] = cfg.Name
	}

	pgPool, err := pgxpool.NewWithConfig(ctx, pgCfg)
	if err != nil {
		return nil, classify("connect", err)
	}

	pingCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}
	if err := pgPool.Ping(pingCtx); err != nil {
		pgPool.Close()
		e := classify("connect", err)
		if e.Category == "unknown" || e.Category == "timeout" {
			e.Category = "connection"
		}
		return nil, e
	}

	return newPool(cfg.Name, pgxSource{pgPool}, cfg.MaxSize, cfg.AcquireTimeout), nil
}

func newPool(name string, src connSource, maxSize int, acquireTimeout time.Duration) *Pool {
	if maxSize <= 0 {
		maxSize = DefaultPoolSize
	}
	if acquireTimeout <= 0 {
		acquireTimeout = DefaultAcquireTimeout
	}
	return &Pool{
		name:           name,
		src:            src,
		semaphore:      make(chan struct{}, maxSize),
		acquireTimeout: acquireTimeout,
	}
}

// Name returns the pool identifier.
func (p *Pool) Name() string {
	return p.name
}

// Lease checks out one connection, waiting up to the acquire timeout when all
// are in use. The caller MUST call Release on the returned lease (use defer).
//
// A timeout yields a core.KindPoolExhausted error; a cancelled ctx yields the
// same kind with category "cancelled".
func (p *Pool) Lease(ctx context.Context) (*Lease, error) {
	waitCtx, cancel := context.WithTimeout(ctx, p.acquireTimeout)
	defer cancel()

	p.mu.Lock()
	p.waiting++
	p.mu.Unlock()

	select {
	case p.semaphore <- struct{}{}:
		p.mu.Lock()
		p.waiting--
		p.mu.Unlock()

	case <-waitCtx.Done():
		p.mu.Lock()
		p.waiting--
		p.mu.Unlock()
		return nil, p.waitError(ctx)
	}

	conn, err := p.src.Acquire(waitCtx)
	if err != nil {
		<-p.semaphore
		if waitCtx.Err() != nil {
			return nil, p.waitError(ctx)
		}
		return nil, classify("lease", err)
	}

	p.mu.Lock()
	p.active++
	if p.active > p.peak {
		p.peak = p.active
	}
	p.mu.Unlock()

	return &Lease{Conn: conn, pool: p}, nil
}

// waitError reports why a lease wait ended without a slot.
func (p *Pool) waitError(ctx context.Context) *core.Error {
	if err := ctx.Err(); err != nil {
		category := "cancelled"
		if errors.Is(err, context.DeadlineExceeded) {
			category = "timeout"
		}
		return &core.Error{Kind: core.KindPoolExhausted, Op: "lease", Category: category,
			Message: fmt.Sprintf("lease from pool %q abandoned", p.name), Err: err}
	}
	return &core.Error{Kind: core.KindPoolExhausted, Op: "lease", Category: "timeout",
		Message: fmt.Sprintf("no connection available in pool %q within %s", p.name, p.acquireTimeout)}
}

func (p *Pool) release() {
	p.mu.Lock()
	p.active--
	p.mu.Unlock()

	<-p.semaphore
}

// ActiveCount returns the number of connections currently leased.
func (p *Pool) ActiveCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.active
}

// WaitForDrain blocks until every lease is released or ctx is done.
// Used on shutdown so in-flight inserts can commit or roll back.
func (p *Pool) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if p.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close closes the underlying connections. Outstanding leases must be released first.
func (p *Pool) Close() {
	p.src.Close()
}

// PoolStatus is a snapshot of pool usage for diagnostics.
type PoolStatus struct {
	Name      string `json:"name"`
	MaxSize   int    `json:"max_size"`
	Active    int    `json:"active"`
	Peak      int    `json:"peak"`
	Available int    `json:"available"`
	Waiting   int    `json:"waiting"`
}

// Status returns the current pool state for monitoring/debugging.
func (p *Pool) Status() PoolStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return PoolStatus{
		Name:      p.name,
		MaxSize:   cap(p.semaphore),
		Active:    p.active,
		Peak:      p.peak,
		Available: cap(p.semaphore) - p.active,
		Waiting:   p.waiting,
	}
}

// Lease is one checked-out connection. Release is safe to call more than once.
type Lease struct {
	Conn
	pool *Pool
	once sync.Once
}

// Release returns the connection to the pool.
func (l *Lease) Release() {
	l.once.Do(func() {
		l.Conn.Release()
		l.pool.release()
	})
}
