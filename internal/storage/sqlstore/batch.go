package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// applyBatch writes every section of the batch in field order.
func applyBatch(ctx context.Context, c conn, b *storage.Batch) error {
	for _, g := range b.Groups {
		if err := putGroup(ctx, c, g); err != nil {
			return err
		}
	}
	for _, mw := range b.Memberships {
		if err := putMembership(ctx, c, mw); err != nil {
			return err
		}
	}
	for _, e := range b.Expenses {
		if err := insertExpense(ctx, c, e); err != nil {
			return err
		}
	}
	for _, st := range b.Settlements {
		if err := insertSettlement(ctx, c, st); err != nil {
			return err
		}
	}
	for _, bw := range b.Balances {
		if err := putBalance(ctx, c, bw); err != nil {
			return err
		}
	}
	for _, groupID := range b.Purges {
		if err := purgeGroup(ctx, c, groupID); err != nil {
			return err
		}
	}
	return nil
}

func putGroup(ctx context.Context, c conn, g *models.Group) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	err := c.exec(ctx,
		`INSERT INTO groups (id, name, description, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   name = excluded.name,
		   description = excluded.description,
		   updated_at = excluded.updated_at`,
		g.ID, g.Name, g.Description, g.CreatedBy, toMillis(g.CreatedAt), toMillis(g.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert group: %w", err)
	}

	// Replace the member list wholesale.
	if err := c.exec(ctx, "DELETE FROM group_members WHERE group_id = ?", g.ID); err != nil {
		return fmt.Errorf("failed to clear group members: %w", err)
	}
	for _, userID := range g.Members {
		if err := c.exec(ctx,
			"INSERT INTO group_members (group_id, user_id) VALUES (?, ?)",
			g.ID, userID,
		); err != nil {
			return fmt.Errorf("failed to insert group member: %w", err)
		}
	}
	return nil
}

func putMembership(ctx context.Context, c conn, mw storage.MembershipWrite) error {
	m := mw.Membership
	if mw.Delete {
		if err := c.exec(ctx,
			"DELETE FROM user_groups WHERE user_id = ? AND group_id = ?",
			m.UserID, m.GroupID,
		); err != nil {
			return fmt.Errorf("failed to delete membership: %w", err)
		}
		return nil
	}

	err := c.exec(ctx,
		`INSERT INTO user_groups (user_id, group_id, role, joined_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id, group_id) DO UPDATE SET role = excluded.role`,
		m.UserID, m.GroupID, string(m.Role), toMillis(m.JoinedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert membership: %w", err)
	}
	return nil
}

func insertExpense(ctx context.Context, c conn, e *models.Expense) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	err := c.exec(ctx,
		`INSERT INTO expenses (id, group_id, description, amount, category, date, paid_by, split_type, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.GroupID, e.Description, int64(e.Amount), e.Category, toMillis(e.Date),
		e.PaidBy, string(e.SplitType), toMillis(e.CreatedAt), toMillis(e.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for userID, amount := range e.Splits {
		if err := c.exec(ctx,
			"INSERT INTO expense_splits (expense_id, user_id, amount) VALUES (?, ?, ?)",
			e.ID, userID, int64(amount),
		); err != nil {
			return fmt.Errorf("failed to insert expense split: %w", err)
		}
	}
	return nil
}

func insertSettlement(ctx context.Context, c conn, st *models.Settlement) error {
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	if st.CreatedAt.IsZero() {
		st.CreatedAt = time.Now().UTC()
	}

	var notes any
	if st.Notes != "" {
		notes = st.Notes
	}

	err := c.exec(ctx,
		`INSERT INTO settlements (id, group_id, from_user, to_user, amount, date, notes, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.ID, st.GroupID, st.From, st.To, int64(st.Amount), toMillis(st.Date),
		notes, st.Status, toMillis(st.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}
	return nil
}

func putBalance(ctx context.Context, c conn, bw storage.BalanceWrite) error {
	if bw.Balance == nil || bw.Balance.Amount <= 0 {
		if err := c.exec(ctx,
			"DELETE FROM balances WHERE group_id = ? AND pair_key = ?",
			bw.GroupID, string(bw.Key),
		); err != nil {
			return fmt.Errorf("failed to delete balance: %w", err)
		}
		return nil
	}

	b := bw.Balance
	err := c.exec(ctx,
		`INSERT INTO balances (group_id, pair_key, from_user, to_user, amount, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (group_id, pair_key) DO UPDATE SET
		   from_user = excluded.from_user,
		   to_user = excluded.to_user,
		   amount = excluded.amount,
		   updated_at = excluded.updated_at`,
		bw.GroupID, string(bw.Key), b.From, b.To, int64(b.Amount), toMillis(b.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert balance: %w", err)
	}
	return nil
}

// purgeGroup removes a group and everything hanging off it. The foreign
// keys cascade too, but the explicit deletes keep the order obvious.
func purgeGroup(ctx context.Context, c conn, groupID string) error {
	statements := []struct {
		what  string
		query string
	}{
		{"expense splits", "DELETE FROM expense_splits WHERE expense_id IN (SELECT id FROM expenses WHERE group_id = ?)"},
		{"expenses", "DELETE FROM expenses WHERE group_id = ?"},
		{"balances", "DELETE FROM balances WHERE group_id = ?"},
		{"settlements", "DELETE FROM settlements WHERE group_id = ?"},
		{"memberships", "DELETE FROM user_groups WHERE group_id = ?"},
		{"group members", "DELETE FROM group_members WHERE group_id = ?"},
		{"group", "DELETE FROM groups WHERE id = ?"},
	}
	for _, st := range statements {
		if err := c.exec(ctx, st.query, groupID); err != nil {
			return fmt.Errorf("failed to delete %s: %w", st.what, err)
		}
	}
	return nil
}
