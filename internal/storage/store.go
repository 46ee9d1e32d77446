// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/mmynk/splitledger/internal/models"
)

// Store defines the persistence operations the ledger needs.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL,
// in-memory) without changing the ledger or service layers.
//
// All writes that must be atomic go through Transact or Write; the plain
// read methods see committed state only.
type Store interface {
	UserStore

	// GetGroup retrieves a group with its members.
	// Returns an apperrors NotFound error if the group does not exist.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroupsForUser returns the groups a user has a membership pointer for.
	ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error)

	// ListMemberships returns a user's membership pointers.
	ListMemberships(ctx context.Context, userID string) ([]*models.Membership, error)

	// ListBalances returns all balances of a group ordered by pair key.
	ListBalances(ctx context.Context, groupID string) ([]*models.Balance, error)

	// ListExpenses returns a group's expenses, newest first.
	ListExpenses(ctx context.Context, groupID string) ([]*models.Expense, error)

	// ListSettlements returns a group's settlements, newest first.
	ListSettlements(ctx context.Context, groupID string) ([]*models.Settlement, error)

	// CreateNotification persists a notification for a user.
	CreateNotification(ctx context.Context, n *models.Notification) error

	// Write applies a batch atomically.
	Write(ctx context.Context, batch *Batch) error

	// Transact runs fn as one read-modify-write transaction and commits
	// when fn returns nil. fn may be invoked more than once when the
	// backend detects a conflict, so it must not have side effects outside
	// the transaction. When retries are exhausted an apperrors Conflict
	// error is returned.
	Transact(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// Close releases any resources held by the store.
	Close() error
}

// UserStore is the identity slice of Store, used by the authenticator.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	// GetUserByEmail returns an apperrors NotFound error for unknown emails.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUserByID returns an apperrors NotFound error for unknown IDs.
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Tx is the view of the store inside Transact. All reads should happen
// before the first Write, as with document-store transactions; whether a
// read observes the transaction's own writes is backend-specific.
type Tx interface {
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// GetBalance returns the balance of the unordered pair, in whichever
	// direction it is stored. Returns an apperrors NotFound error if absent.
	GetBalance(ctx context.Context, groupID string, key models.PairKey) (*models.Balance, error)

	ListBalances(ctx context.Context, groupID string) ([]*models.Balance, error)

	// Write stages a batch as part of the transaction.
	Write(ctx context.Context, batch *Batch) error
}
