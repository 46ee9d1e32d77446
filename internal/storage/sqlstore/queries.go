package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/apperrors"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// Users

// CreateUser inserts a new user into the database. The unique index on
// email decides between concurrent registrations.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	err := s.conn().exec(ctx,
		`INSERT INTO users (id, email, display_name, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, strings.ToLower(user.Email), user.DisplayName, user.PasswordHash,
		toMillis(user.CreatedAt), toMillis(user.UpdatedAt),
	)
	if s.dialect.IsUniqueViolation(err) {
		return apperrors.Validation("email already registered")
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByEmail retrieves a user by their email address.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "email", strings.ToLower(email))
}

// GetUserByID retrieves a user by their ID.
func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, "id", id)
}

func (s *Store) getUser(ctx context.Context, column, value string) (*models.User, error) {
	user := &models.User{}
	var createdAt, updatedAt int64
	err := s.conn().queryRow(ctx,
		`SELECT id, email, display_name, password_hash, created_at, updated_at
		 FROM users WHERE `+column+` = ?`,
		value,
	).Scan(&user.ID, &user.Email, &user.DisplayName, &user.PasswordHash, &createdAt, &updatedAt)
	if isNoRows(err) {
		return nil, apperrors.NotFound("user not found: %s", value)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by %s: %w", column, err)
	}
	user.CreatedAt = fromMillis(createdAt)
	user.UpdatedAt = fromMillis(updatedAt)
	return user, nil
}

// Groups

// GetGroup retrieves a group with its members.
func (s *Store) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	return getGroup(ctx, s.conn(), groupID)
}

func getGroup(ctx context.Context, c conn, groupID string) (*models.Group, error) {
	group := &models.Group{}
	var createdAt, updatedAt int64
	err := c.queryRow(ctx,
		`SELECT id, name, description, created_by, created_at, updated_at FROM groups WHERE id = ?`,
		groupID,
	).Scan(&group.ID, &group.Name, &group.Description, &group.CreatedBy, &createdAt, &updatedAt)
	if isNoRows(err) {
		return nil, apperrors.NotFound("group not found: %s", groupID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	group.CreatedAt = fromMillis(createdAt)
	group.UpdatedAt = fromMillis(updatedAt)

	members, err := listMembers(ctx, c, groupID)
	if err != nil {
		return nil, err
	}
	group.Members = members
	return group, nil
}

func listMembers(ctx context.Context, c conn, groupID string) ([]string, error) {
	rows, err := c.query(ctx,
		"SELECT user_id FROM group_members WHERE group_id = ? ORDER BY user_id",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get group members: %w", err)
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		members = append(members, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate group members: %w", err)
	}
	return members, nil
}

// ListGroupsForUser returns the groups a user has a membership pointer for.
func (s *Store) ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error) {
	memberships, err := s.ListMemberships(ctx, userID)
	if err != nil {
		return nil, err
	}

	var groups []*models.Group
	for _, m := range memberships {
		group, err := s.GetGroup(ctx, m.GroupID)
		if apperrors.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// ListMemberships returns a user's membership pointers, oldest first.
func (s *Store) ListMemberships(ctx context.Context, userID string) ([]*models.Membership, error) {
	rows, err := s.conn().query(ctx,
		`SELECT user_id, group_id, role, joined_at FROM user_groups
		 WHERE user_id = ? ORDER BY joined_at, group_id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	var memberships []*models.Membership
	for rows.Next() {
		m := &models.Membership{}
		var role string
		var joinedAt int64
		if err := rows.Scan(&m.UserID, &m.GroupID, &role, &joinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		m.Role = models.Role(role)
		m.JoinedAt = fromMillis(joinedAt)
		memberships = append(memberships, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memberships: %w", err)
	}
	return memberships, nil
}

// Balances

// ListBalances returns all balances of a group ordered by pair key.
func (s *Store) ListBalances(ctx context.Context, groupID string) ([]*models.Balance, error) {
	return listBalances(ctx, s.conn(), groupID)
}

func listBalances(ctx context.Context, c conn, groupID string) ([]*models.Balance, error) {
	rows, err := c.query(ctx,
		`SELECT group_id, from_user, to_user, amount, updated_at FROM balances
		 WHERE group_id = ? ORDER BY pair_key`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}
	defer rows.Close()

	var balances []*models.Balance
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate balances: %w", err)
	}
	return balances, nil
}

func getBalance(ctx context.Context, c conn, groupID string, key models.PairKey) (*models.Balance, error) {
	row := c.queryRow(ctx,
		`SELECT group_id, from_user, to_user, amount, updated_at FROM balances
		 WHERE group_id = ? AND pair_key = ?`,
		groupID, string(key),
	)
	b, err := scanBalance(row)
	if isNoRows(err) {
		return nil, apperrors.NotFound("no balance found between %s", key)
	}
	return b, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBalance(sc scanner) (*models.Balance, error) {
	b := &models.Balance{}
	var amount, updatedAt int64
	if err := sc.Scan(&b.GroupID, &b.From, &b.To, &amount, &updatedAt); err != nil {
		if isNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan balance: %w", err)
	}
	b.Amount = money.Amount(amount)
	b.UpdatedAt = fromMillis(updatedAt)
	return b, nil
}

// Expenses

// ListExpenses returns a group's expenses with their splits, newest first.
func (s *Store) ListExpenses(ctx context.Context, groupID string) ([]*models.Expense, error) {
	rows, err := s.conn().query(ctx,
		`SELECT id, group_id, description, amount, category, date, paid_by, split_type, created_at, updated_at
		 FROM expenses WHERE group_id = ? ORDER BY created_at DESC, id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		e := &models.Expense{}
		var amount, date, createdAt, updatedAt int64
		var splitType string
		if err := rows.Scan(&e.ID, &e.GroupID, &e.Description, &amount, &e.Category, &date,
			&e.PaidBy, &splitType, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		e.Amount = money.Amount(amount)
		e.Date = fromMillis(date)
		e.SplitType = models.SplitType(splitType)
		e.CreatedAt = fromMillis(createdAt)
		e.UpdatedAt = fromMillis(updatedAt)
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	rows.Close()

	for _, e := range expenses {
		splits, err := s.listSplits(ctx, e.ID)
		if err != nil {
			return nil, err
		}
		e.Splits = splits
	}
	return expenses, nil
}

func (s *Store) listSplits(ctx context.Context, expenseID string) (map[string]money.Amount, error) {
	rows, err := s.conn().query(ctx,
		"SELECT user_id, amount FROM expense_splits WHERE expense_id = ?",
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense splits: %w", err)
	}
	defer rows.Close()

	splits := make(map[string]money.Amount)
	for rows.Next() {
		var userID string
		var amount int64
		if err := rows.Scan(&userID, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan expense split: %w", err)
		}
		splits[userID] = money.Amount(amount)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expense splits: %w", err)
	}
	return splits, nil
}

// Settlements

// ListSettlements retrieves all settlements for a group, newest first.
func (s *Store) ListSettlements(ctx context.Context, groupID string) ([]*models.Settlement, error) {
	rows, err := s.conn().query(ctx,
		`SELECT id, group_id, from_user, to_user, amount, date, notes, status, created_at
		 FROM settlements WHERE group_id = ? ORDER BY created_at DESC, id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements by group: %w", err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		st := &models.Settlement{}
		var amount, date, createdAt int64
		var notes sql.NullString
		if err := rows.Scan(&st.ID, &st.GroupID, &st.From, &st.To, &amount, &date,
			&notes, &st.Status, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		st.Amount = money.Amount(amount)
		st.Date = fromMillis(date)
		st.CreatedAt = fromMillis(createdAt)
		if notes.Valid {
			st.Notes = notes.String
		}
		settlements = append(settlements, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}
	return settlements, nil
}

// Notifications

// CreateNotification persists a notification for a user.
func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	err := s.conn().exec(ctx,
		`INSERT INTO notifications (id, user_id, type, title, message, read, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, n.Type, n.Title, n.Message, n.Read, toMillis(n.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// ListNotifications returns a user's notifications, newest first.
func (s *Store) ListNotifications(ctx context.Context, userID string) ([]*models.Notification, error) {
	rows, err := s.conn().query(ctx,
		`SELECT id, user_id, type, title, message, read, created_at FROM notifications
		 WHERE user_id = ? ORDER BY created_at DESC, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var out []*models.Notification
	for rows.Next() {
		n := &models.Notification{}
		var createdAt int64
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Read, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.CreatedAt = fromMillis(createdAt)
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notifications: %w", err)
	}
	return out, nil
}
