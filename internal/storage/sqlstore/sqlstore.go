// Package sqlstore implements storage.Store on database/sql. The sqlite and
// postgres packages open the database with their driver and hand it here
// with a Dialect describing placeholders, isolation and conflict errors.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Dialect captures the differences between SQL backends.
type Dialect struct {
	// Name is used in log lines and errors.
	Name string
	// Numbered selects $1-style placeholders instead of ?.
	Numbered bool
	// TxOptions are passed to BeginTx for Transact. May be nil.
	TxOptions *sql.TxOptions
	// IsConflict reports whether err is a retryable serialization failure.
	IsConflict func(error) bool
	// IsUniqueViolation reports whether err is a unique constraint failure.
	IsUniqueViolation func(error) bool
}

// Store implements storage.Store using a *sql.DB.
type Store struct {
	db         *sql.DB
	dialect    Dialect
	retry      storage.RetryPolicy
	onConflict storage.ConflictObserver
	onClose    func()
}

// Option configures a Store.
type Option func(*Store)

// WithRetryPolicy overrides storage.DefaultRetryPolicy.
func WithRetryPolicy(p storage.RetryPolicy) Option {
	return func(s *Store) { s.retry = p }
}

// WithConflictObserver registers a callback for each conflicting attempt.
func WithConflictObserver(fn storage.ConflictObserver) Option {
	return func(s *Store) { s.onConflict = fn }
}

// WithOnClose runs fn after the database handle is closed.
func WithOnClose(fn func()) Option {
	return func(s *Store) { s.onClose = fn }
}

// New wraps an open database. The schema must already exist.
func New(db *sql.DB, dialect Dialect, opts ...Option) *Store {
	if dialect.IsConflict == nil {
		dialect.IsConflict = func(error) bool { return false }
	}
	if dialect.IsUniqueViolation == nil {
		dialect.IsUniqueViolation = func(error) bool { return false }
	}
	s := &Store{db: db, dialect: dialect, retry: storage.DefaultRetryPolicy}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB exposes the underlying handle for migrations and tests.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	err := s.db.Close()
	if s.onClose != nil {
		s.onClose()
	}
	return err
}

// querier is the subset shared by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn binds a querier to the dialect so queries can be written with ?.
type conn struct {
	q       querier
	dialect Dialect
}

func (c conn) rebind(query string) string {
	if !c.dialect.Numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (c conn) exec(ctx context.Context, query string, args ...any) error {
	_, err := c.q.ExecContext(ctx, c.rebind(query), args...)
	return err
}

func (c conn) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.q.QueryContext(ctx, c.rebind(query), args...)
}

func (c conn) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return c.q.QueryRowContext(ctx, c.rebind(query), args...)
}

func (s *Store) conn() conn {
	return conn{q: s.db, dialect: s.dialect}
}

// Write applies a batch in its own transaction.
func (s *Store) Write(ctx context.Context, batch *storage.Batch) error {
	return s.Transact(ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.Write(ctx, batch)
	})
}

// Transact runs fn in a transaction, retrying on serialization conflicts.
func (s *Store) Transact(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	return s.retry.Retry(ctx, s.dialect.IsConflict, s.onConflict, func() error {
		return s.transactOnce(ctx, fn)
	})
}

func (s *Store) transactOnce(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, s.dialect.TxOptions)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(ctx, &tx{conn: conn{q: sqlTx, dialect: s.dialect}}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// tx implements storage.Tx on a *sql.Tx.
type tx struct {
	conn conn
}

func (t *tx) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	return getGroup(ctx, t.conn, groupID)
}

func (t *tx) GetBalance(ctx context.Context, groupID string, key models.PairKey) (*models.Balance, error) {
	return getBalance(ctx, t.conn, groupID, key)
}

func (t *tx) ListBalances(ctx context.Context, groupID string) ([]*models.Balance, error) {
	return listBalances(ctx, t.conn, groupID)
}

func (t *tx) Write(ctx context.Context, batch *storage.Batch) error {
	return applyBatch(ctx, t.conn, batch)
}

// isNoRows reports whether err is sql.ErrNoRows.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
