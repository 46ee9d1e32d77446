// Package notify delivers best-effort notifications about ledger events.
// Delivery happens on background goroutines and never affects the ledger
// operation that triggered it.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

// DefaultThreshold is the expense total at or above which members are told.
var DefaultThreshold = money.MustParse("5000.00")

// Sink persists a notification for a user.
type Sink interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
}

// Throttle decides whether a user may receive another notification of a
// kind. Implementations remember the decision for their window.
type Throttle interface {
	Allow(ctx context.Context, userID, kind string) (bool, error)
}

// Config tunes a Dispatcher.
type Config struct {
	// Threshold is the minimum total of a large expense. Zero or less
	// disables large-expense notifications.
	Threshold money.Amount
	// Timeout bounds one delivery run.
	Timeout time.Duration
}

// Dispatcher fans ledger events out to the affected users.
type Dispatcher struct {
	sink     Sink
	throttle Throttle
	cfg      Config
	logger   *slog.Logger
	now      func() time.Time

	wg sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. throttle may be nil.
func NewDispatcher(sink Sink, throttle Throttle, cfg Config, logger *slog.Logger) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		sink:     sink,
		throttle: throttle,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "notifier")),
		now:      time.Now,
	}
}

// ExpenseAdded notifies every user with a positive share of a large
// expense. It returns immediately; delivery runs detached from the caller.
func (d *Dispatcher) ExpenseAdded(group *models.Group, expense *models.Expense) {
	if d == nil || d.cfg.Threshold <= 0 || expense.Amount < d.cfg.Threshold {
		return
	}

	var recipients []string
	for userID, share := range expense.Splits {
		if share > 0 {
			recipients = append(recipients, userID)
		}
	}
	if len(recipients) == 0 {
		return
	}
	slices.Sort(recipients)

	title := "Large Expense Added"
	message := fmt.Sprintf("A large expense of %s was added in %s", expense.Amount, group.Name)
	if expense.Category != "" {
		message += fmt.Sprintf(" (%s)", expense.Category)
	}
	message += "."

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.cfg.Timeout)
		defer cancel()

		for _, userID := range recipients {
			d.deliver(ctx, &models.Notification{
				UserID:    userID,
				Type:      models.NotificationLargeExpense,
				Title:     title,
				Message:   message,
				CreatedAt: d.now().UTC(),
			})
		}
	}()
}

func (d *Dispatcher) deliver(ctx context.Context, n *models.Notification) {
	if d.throttle != nil {
		ok, err := d.throttle.Allow(ctx, n.UserID, n.Type)
		if err != nil {
			// Fail open.
			d.logger.WarnContext(ctx, "throttle check failed", "user_id", n.UserID, "error", err)
		} else if !ok {
			d.logger.DebugContext(ctx, "notification throttled", "user_id", n.UserID, "type", n.Type)
			return
		}
	}

	if err := d.sink.CreateNotification(ctx, n); err != nil {
		d.logger.ErrorContext(ctx, "failed to create notification", "user_id", n.UserID, "type", n.Type, "error", err)
		return
	}
	d.logger.DebugContext(ctx, "notification created", "user_id", n.UserID, "type", n.Type)
}

// Wait blocks until in-flight deliveries finish. Call it during shutdown.
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}
