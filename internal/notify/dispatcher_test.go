package notify

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

type recordingSink struct {
	mu   sync.Mutex
	got  []*models.Notification
	fail bool
}

func (s *recordingSink) CreateNotification(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("store unavailable")
	}
	s.got = append(s.got, n)
	return nil
}

func (s *recordingSink) users() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, n := range s.got {
		out = append(out, n.UserID)
	}
	return out
}

type fakeThrottle struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func (f *fakeThrottle) Allow(_ context.Context, userID, kind string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	key := throttleKey(userID, kind)
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

var trip = &models.Group{ID: "g1", Name: "Goa"}

func expense(total string, splits map[string]money.Amount) *models.Expense {
	return &models.Expense{
		GroupID: "g1", Description: "Villa", Category: "stay",
		Amount: money.MustParse(total), PaidBy: "alice", Splits: splits,
	}
}

func TestDispatcher_ExpenseAdded(t *testing.T) {
	tests := []struct {
		name    string
		expense *models.Expense
		want    []string
	}{
		{
			name:    "below threshold",
			expense: expense("4999.99", map[string]money.Amount{"alice": 249999, "bob": 250000}),
			want:    nil,
		},
		{
			name:    "at threshold notifies positive shares",
			expense: expense("5000.00", map[string]money.Amount{"carol": 250000, "alice": 250000, "bob": 0}),
			want:    []string{"alice", "carol"},
		},
		{
			name:    "all zero shares",
			expense: expense("6000.00", map[string]money.Amount{"alice": 0}),
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			d := NewDispatcher(sink, nil, Config{Threshold: DefaultThreshold}, nil)

			d.ExpenseAdded(trip, tt.expense)
			d.Wait()

			assert.Equal(t, tt.want, sink.users())
		})
	}
}

func TestDispatcher_Message(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink, nil, Config{Threshold: DefaultThreshold}, nil)

	d.ExpenseAdded(trip, expense("7500.50", map[string]money.Amount{"bob": 750050}))
	d.Wait()

	require.Len(t, sink.got, 1)
	n := sink.got[0]
	assert.Equal(t, models.NotificationLargeExpense, n.Type)
	assert.Equal(t, "A large expense of 7500.50 was added in Goa (stay).", n.Message)
	assert.False(t, n.Read)
	assert.False(t, n.CreatedAt.IsZero())
}

func TestDispatcher_Throttled(t *testing.T) {
	sink := &recordingSink{}
	throttle := &fakeThrottle{seen: map[string]bool{}}
	d := NewDispatcher(sink, throttle, Config{Threshold: DefaultThreshold}, nil)

	splits := map[string]money.Amount{"bob": 600000}
	d.ExpenseAdded(trip, expense("6000.00", splits))
	d.Wait()
	d.ExpenseAdded(trip, expense("6000.00", splits))
	d.Wait()

	assert.Equal(t, []string{"bob"}, sink.users())
}

func TestDispatcher_FailuresAreSwallowed(t *testing.T) {
	t.Run("sink error", func(t *testing.T) {
		d := NewDispatcher(&recordingSink{fail: true}, nil, Config{Threshold: DefaultThreshold}, nil)
		assert.NotPanics(t, func() {
			d.ExpenseAdded(trip, expense("9000.00", map[string]money.Amount{"bob": 900000}))
			d.Wait()
		})
	})

	t.Run("throttle error fails open", func(t *testing.T) {
		sink := &recordingSink{}
		d := NewDispatcher(sink, &fakeThrottle{err: errors.New("redis down")}, Config{Threshold: DefaultThreshold}, nil)
		d.ExpenseAdded(trip, expense("9000.00", map[string]money.Amount{"bob": 900000}))
		d.Wait()
		assert.Equal(t, []string{"bob"}, sink.users())
	})
}

func TestDispatcher_NilAndDisabled(t *testing.T) {
	var d *Dispatcher
	assert.NotPanics(t, func() {
		d.ExpenseAdded(trip, expense("9000.00", map[string]money.Amount{"bob": 900000}))
		d.Wait()
	})

	sink := &recordingSink{}
	disabled := NewDispatcher(sink, nil, Config{}, nil)
	disabled.ExpenseAdded(trip, expense("9000.00", map[string]money.Amount{"bob": 900000}))
	disabled.Wait()
	assert.Empty(t, sink.users())
}

func TestRedisThrottle(t *testing.T) {
	url := os.Getenv("SPLITLEDGER_TEST_REDIS_URL")
	if url == "" {
		t.Skip("SPLITLEDGER_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	rdb, err := NewRedisClient(ctx, url)
	require.NoError(t, err)
	defer rdb.Close()

	throttle := NewRedisThrottle(rdb, time.Minute)
	user := uuid.NewString()
	t.Cleanup(func() { rdb.Del(ctx, throttleKey(user, models.NotificationLargeExpense)) })

	ok, err := throttle.Allow(ctx, user, models.NotificationLargeExpense)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = throttle.Allow(ctx, user, models.NotificationLargeExpense)
	require.NoError(t, err)
	assert.False(t, ok)
}
