// Package ledger is the group balance engine: it records expenses as
// pairwise balances, settles balances, suggests simplified payments and
// manages the group lifecycle. Every mutation that touches balances runs
// inside a single storage transaction.
package ledger

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/mmynk/splitledger/internal/apperrors"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
)

// Notifier receives committed ledger events. Implementations must return
// quickly and must not report failures back to the ledger.
type Notifier interface {
	ExpenseAdded(group *models.Group, expense *models.Expense)
}

// Ledger implements the core entry points on top of a storage.Store.
type Ledger struct {
	store     storage.Store
	notifier  Notifier
	metrics   *metrics.LedgerMetrics
	logger    *slog.Logger
	tolerance money.Amount
	now       func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithNotifier sets the collaborator told about large expenses.
func WithNotifier(n Notifier) Option {
	return func(l *Ledger) { l.notifier = n }
}

// WithMetrics records operation counts and durations.
func WithMetrics(m *metrics.LedgerMetrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

// WithLogger overrides slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// WithSplitTolerance accepts split maps whose sum differs from the expense
// total by at most tol minor units. The default is exact.
func WithSplitTolerance(tol money.Amount) Option {
	return func(l *Ledger) { l.tolerance = tol.Abs() }
}

// WithClock overrides time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New creates a Ledger backed by store.
func New(store storage.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With(slog.String("component", "ledger"))
	return l
}

func (l *Ledger) timestamp() time.Time {
	return l.now().UTC()
}

// observe records the outcome of one operation. Use with defer.
func (l *Ledger) observe(operation string, start time.Time, err *error) {
	l.metrics.ObserveDuration(operation, time.Since(start))
	if *err != nil {
		code := string(apperrors.CodeOf(*err))
		if code == "" {
			code = "INTERNAL"
		}
		l.metrics.IncFailure(operation, code)
	}
}

// requireMember fails with a permission error unless userID belongs to group.
func requireMember(group *models.Group, userID string) error {
	if !group.HasMember(userID) {
		return apperrors.Permission("user %s is not a member of group %s", userID, group.ID)
	}
	return nil
}

// groupFor loads a group for a read and checks the requester belongs to it.
func (l *Ledger) groupFor(ctx context.Context, requesterID, groupID string) (*models.Group, error) {
	group, err := l.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := requireMember(group, requesterID); err != nil {
		return nil, err
	}
	return group, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
