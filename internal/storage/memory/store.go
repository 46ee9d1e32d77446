// Package memory provides an in-memory storage.Store used by tests and by
// the server when no database is configured.
package memory

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/apperrors"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store keeps everything in maps behind one lock. Transactions hold the
// write lock for their whole duration, so they are trivially serializable.
type Store struct {
	mu sync.RWMutex

	users       map[string]*models.User
	emails      map[string]string
	groups      map[string]*models.Group
	memberships map[string][]models.Membership // by user ID
	expenses    map[string][]*models.Expense   // by group ID
	settlements map[string][]*models.Settlement
	balances    map[string]map[models.PairKey]*models.Balance

	notifications map[string][]*models.Notification // by user ID
}

// New creates an empty store.
func New() *Store {
	return &Store{
		users:         make(map[string]*models.User),
		emails:        make(map[string]string),
		groups:        make(map[string]*models.Group),
		memberships:   make(map[string][]models.Membership),
		expenses:      make(map[string][]*models.Expense),
		settlements:   make(map[string][]*models.Settlement),
		balances:      make(map[string]map[models.PairKey]*models.Balance),
		notifications: make(map[string][]*models.Notification),
	}
}

func (s *Store) Close() error { return nil }

// User Store implementation

func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, exists := s.emails[email]; exists {
		return apperrors.Validation("email already registered")
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	u := *user
	u.Email = email
	s.users[u.ID] = &u
	s.emails[email] = u.ID
	return nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[strings.ToLower(email)]
	if !ok {
		return nil, apperrors.NotFound("user not found: %s", email)
	}
	u := *s.users[id]
	return &u, nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.NotFound("user not found: %s", id)
	}
	cp := *u
	return &cp, nil
}

// Group reads

func (s *Store) GetGroup(_ context.Context, groupID string) (*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getGroup(groupID)
}

func (s *Store) getGroup(groupID string) (*models.Group, error) {
	g, ok := s.groups[groupID]
	if !ok {
		return nil, apperrors.NotFound("group not found: %s", groupID)
	}
	return cloneGroup(g), nil
}

func (s *Store) ListGroupsForUser(_ context.Context, userID string) ([]*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var groups []*models.Group
	for _, m := range s.memberships[userID] {
		if g, ok := s.groups[m.GroupID]; ok {
			groups = append(groups, cloneGroup(g))
		}
	}
	return groups, nil
}

func (s *Store) ListMemberships(_ context.Context, userID string) ([]*models.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Membership
	for _, m := range s.memberships[userID] {
		cp := m
		out = append(out, &cp)
	}
	return out, nil
}

func (s *Store) ListBalances(_ context.Context, groupID string) ([]*models.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listBalances(groupID), nil
}

func (s *Store) listBalances(groupID string) []*models.Balance {
	pairs := s.balances[groupID]
	keys := slices.Sorted(maps.Keys(pairs))
	out := make([]*models.Balance, 0, len(keys))
	for _, k := range keys {
		b := *pairs[k]
		out = append(out, &b)
	}
	return out
}

func (s *Store) ListExpenses(_ context.Context, groupID string) ([]*models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Expense, 0, len(s.expenses[groupID]))
	for _, e := range s.expenses[groupID] {
		cp := *e
		cp.Splits = maps.Clone(e.Splits)
		out = append(out, &cp)
	}
	slices.SortStableFunc(out, func(a, b *models.Expense) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (s *Store) ListSettlements(_ context.Context, groupID string) ([]*models.Settlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Settlement, 0, len(s.settlements[groupID]))
	for _, st := range s.settlements[groupID] {
		cp := *st
		out = append(out, &cp)
	}
	slices.SortStableFunc(out, func(a, b *models.Settlement) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (s *Store) CreateNotification(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	cp := *n
	s.notifications[n.UserID] = append(s.notifications[n.UserID], &cp)
	return nil
}

// Notifications returns a user's notifications in creation order.
func (s *Store) Notifications(userID string) []*models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.notifications[userID])
}

// Writes

func (s *Store) Write(ctx context.Context, batch *storage.Batch) error {
	return s.Transact(ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.Write(ctx, batch)
	})
}

func (s *Store) Transact(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{store: s}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	for _, b := range tx.staged {
		s.apply(b)
	}
	return nil
}

// memTx reads committed state and buffers writes until commit.
type memTx struct {
	store  *Store
	staged []*storage.Batch
}

func (t *memTx) GetGroup(_ context.Context, groupID string) (*models.Group, error) {
	return t.store.getGroup(groupID)
}

func (t *memTx) GetBalance(_ context.Context, groupID string, key models.PairKey) (*models.Balance, error) {
	b, ok := t.store.balances[groupID][key]
	if !ok {
		return nil, apperrors.NotFound("no balance found between %s", key)
	}
	cp := *b
	return &cp, nil
}

func (t *memTx) ListBalances(_ context.Context, groupID string) ([]*models.Balance, error) {
	return t.store.listBalances(groupID), nil
}

func (t *memTx) Write(_ context.Context, batch *storage.Batch) error {
	t.staged = append(t.staged, batch)
	return nil
}

func (s *Store) apply(b *storage.Batch) {
	for _, g := range b.Groups {
		if g.ID == "" {
			g.ID = uuid.NewString()
		}
		s.groups[g.ID] = cloneGroup(g)
	}
	for _, mw := range b.Memberships {
		m := mw.Membership
		list := slices.DeleteFunc(s.memberships[m.UserID], func(x models.Membership) bool {
			return x.GroupID == m.GroupID
		})
		if !mw.Delete {
			list = append(list, m)
		}
		s.memberships[m.UserID] = list
	}
	for _, e := range b.Expenses {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		cp := *e
		cp.Splits = maps.Clone(e.Splits)
		s.expenses[e.GroupID] = append(s.expenses[e.GroupID], &cp)
	}
	for _, st := range b.Settlements {
		if st.ID == "" {
			st.ID = uuid.NewString()
		}
		cp := *st
		s.settlements[st.GroupID] = append(s.settlements[st.GroupID], &cp)
	}
	for _, bw := range b.Balances {
		pairs := s.balances[bw.GroupID]
		if pairs == nil {
			pairs = make(map[models.PairKey]*models.Balance)
			s.balances[bw.GroupID] = pairs
		}
		if bw.Balance == nil || bw.Balance.Amount <= 0 {
			delete(pairs, bw.Key)
			continue
		}
		cp := *bw.Balance
		pairs[bw.Key] = &cp
	}
	for _, groupID := range b.Purges {
		delete(s.expenses, groupID)
		delete(s.settlements, groupID)
		delete(s.balances, groupID)
		for userID, list := range s.memberships {
			s.memberships[userID] = slices.DeleteFunc(list, func(x models.Membership) bool {
				return x.GroupID == groupID
			})
		}
		delete(s.groups, groupID)
	}
}

func cloneGroup(g *models.Group) *models.Group {
	cp := *g
	cp.Members = slices.Clone(g.Members)
	slices.SortFunc(cp.Members, cmp.Compare[string])
	return &cp
}
