package ledger

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/apperrors"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// GroupInput describes a new group.
type GroupInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

// CreateGroup creates a group whose only member, and admin, is the creator.
func (l *Ledger) CreateGroup(ctx context.Context, creatorID string, in GroupInput) (*models.Group, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	now := l.timestamp()
	group := &models.Group{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Members:     []string{creatorID},
		CreatedBy:   creatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	batch := (&storage.Batch{}).
		PutGroup(group).
		AddMembership(models.Membership{UserID: creatorID, GroupID: group.ID, Role: models.RoleAdmin, JoinedAt: now})
	if err := l.store.Write(ctx, batch); err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "group created", "group_id", group.ID, "user_id", creatorID)
	return group, nil
}

// GetGroup returns a group the requester belongs to.
func (l *Ledger) GetGroup(ctx context.Context, requesterID, groupID string) (*models.Group, error) {
	return l.groupFor(ctx, requesterID, groupID)
}

// GetMemberDetails resolves the group's member IDs to user profiles, in
// member order. Members whose account no longer exists are skipped.
func (l *Ledger) GetMemberDetails(ctx context.Context, requesterID, groupID string) ([]*models.User, error) {
	group, err := l.groupFor(ctx, requesterID, groupID)
	if err != nil {
		return nil, err
	}

	users := make([]*models.User, 0, len(group.Members))
	for _, id := range group.Members {
		u, err := l.store.GetUserByID(ctx, id)
		if apperrors.IsNotFound(err) {
			l.logger.WarnContext(ctx, "group member has no account", "group_id", groupID, "user_id", id)
			continue
		}
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// GetUserGroups returns every group the user has a membership pointer for.
func (l *Ledger) GetUserGroups(ctx context.Context, userID string) ([]*models.Group, error) {
	return l.store.ListGroupsForUser(ctx, userID)
}

// AddGroupMember adds the user registered under email to the group. Any
// member may invite.
func (l *Ledger) AddGroupMember(ctx context.Context, requesterID, groupID, email string) (*models.User, error) {
	user, err := l.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	now := l.timestamp()
	err = l.store.Transact(ctx, func(ctx context.Context, tx storage.Tx) error {
		group, err := tx.GetGroup(ctx, groupID)
		if err != nil {
			return err
		}
		if err := requireMember(group, requesterID); err != nil {
			return err
		}
		if group.HasMember(user.ID) {
			return apperrors.Validation("user %s is already a member of the group", email)
		}

		group.Members = append(group.Members, user.ID)
		group.UpdatedAt = now
		return tx.Write(ctx, (&storage.Batch{}).
			PutGroup(group).
			AddMembership(models.Membership{UserID: user.ID, GroupID: groupID, Role: models.RoleMember, JoinedAt: now}))
	})
	if err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "member added", "group_id", groupID, "user_id", user.ID, "added_by", requesterID)
	return user, nil
}

// RemoveGroupMember removes memberID from the group. Only the creator may
// remove someone else; members may always leave. The creator cannot leave
// and nobody with an open balance can be removed.
func (l *Ledger) RemoveGroupMember(ctx context.Context, requesterID, groupID, memberID string) error {
	now := l.timestamp()
	err := l.store.Transact(ctx, func(ctx context.Context, tx storage.Tx) error {
		group, err := tx.GetGroup(ctx, groupID)
		if err != nil {
			return err
		}
		if requesterID != group.CreatedBy && requesterID != memberID {
			return apperrors.Permission("only the group creator can remove other members")
		}
		if !group.HasMember(memberID) {
			return apperrors.NotFound("user %s is not a member of group %s", memberID, groupID)
		}
		if memberID == group.CreatedBy {
			return apperrors.Validation("the group creator cannot be removed; delete the group instead")
		}

		balances, err := tx.ListBalances(ctx, groupID)
		if err != nil {
			return err
		}
		for _, b := range balances {
			if b.From == memberID || b.To == memberID {
				return apperrors.Validation("user %s still has outstanding balances in the group", memberID)
			}
		}

		group.Members = slices.DeleteFunc(group.Members, func(id string) bool { return id == memberID })
		group.UpdatedAt = now
		return tx.Write(ctx, (&storage.Batch{}).
			PutGroup(group).
			RemoveMembership(memberID, groupID))
	})
	if err != nil {
		return err
	}

	l.logger.InfoContext(ctx, "member removed", "group_id", groupID, "user_id", memberID, "removed_by", requesterID)
	return nil
}

// DeleteGroup removes the group with all of its expenses, balances,
// settlements and membership pointers in one batch. Only the creator may
// delete a group.
func (l *Ledger) DeleteGroup(ctx context.Context, groupID, requesterID string) (err error) {
	defer l.observe("delete_group", time.Now(), &err)

	err = l.store.Transact(ctx, func(ctx context.Context, tx storage.Tx) error {
		group, err := tx.GetGroup(ctx, groupID)
		if err != nil {
			return err
		}
		if group.CreatedBy != requesterID {
			return apperrors.Permission("only the group creator can delete the group")
		}
		return tx.Write(ctx, (&storage.Batch{}).PurgeGroup(groupID))
	})
	if err != nil {
		return err
	}

	l.metrics.IncDeletedGroups()
	l.logger.InfoContext(ctx, "group deleted", "group_id", groupID, "user_id", requesterID)
	return nil
}
