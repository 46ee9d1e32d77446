package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/pkg/api"
)

func TestCreateGroup(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "alice")

	resp, err := env.groups.CreateGroup(context.Background(), authed(alice, &api.CreateGroupRequest{
		Name:        "Roommates",
		Description: "Flat 4B",
	}))
	require.NoError(t, err)

	g := resp.Msg.Group
	assert.NotEmpty(t, g.ID)
	assert.Equal(t, "Roommates", g.Name)
	assert.Equal(t, "Flat 4B", g.Description)
	assert.Equal(t, []string{alice.user.ID}, g.Members)
	assert.Equal(t, alice.user.ID, g.CreatedBy)
	assert.False(t, g.CreatedAt.IsZero())
}

func TestCreateGroup_Validation(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "alice")

	_, err := env.groups.CreateGroup(context.Background(), authed(alice, &api.CreateGroupRequest{}))
	assertCode(t, connect.CodeInvalidArgument, err)

	var connectErr *connect.Error
	require.ErrorAs(t, err, &connectErr)
	assert.Equal(t, "is required", connectErr.Meta().Get(detailHeaderPrefix+"name"))
}

func TestCreateGroup_RequiresAuth(t *testing.T) {
	env := setupTestServer(t)

	_, err := env.groups.CreateGroup(context.Background(), connect.NewRequest(&api.CreateGroupRequest{Name: "x"}))
	assertCode(t, connect.CodeUnauthenticated, err)
}

func TestGetGroup(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	groupID := env.createGroup(t, alice, "Work Lunch", bob)

	resp, err := env.groups.GetGroup(ctx, authed(bob, &api.GetGroupRequest{GroupID: groupID}))
	require.NoError(t, err)
	assert.Equal(t, "Work Lunch", resp.Msg.Group.Name)
	assert.ElementsMatch(t, []string{alice.user.ID, bob.user.ID}, resp.Msg.Group.Members)
}

func TestGetGroup_Errors(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	mallory := env.register(t, "mallory")
	groupID := env.createGroup(t, alice, "Private")

	_, err := env.groups.GetGroup(ctx, authed(alice, &api.GetGroupRequest{GroupID: "nonexistent-id"}))
	assertCode(t, connect.CodeNotFound, err)

	_, err = env.groups.GetGroup(ctx, authed(mallory, &api.GetGroupRequest{GroupID: groupID}))
	assertCode(t, connect.CodePermissionDenied, err)
}

func TestGetMembers(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	mallory := env.register(t, "mallory")
	groupID := env.createGroup(t, alice, "Trip", bob)

	resp, err := env.groups.GetMembers(ctx, authed(bob, &api.GetMembersRequest{GroupID: groupID}))
	require.NoError(t, err)
	require.Len(t, resp.Msg.Members, 2)
	byID := map[string]*api.User{}
	for _, u := range resp.Msg.Members {
		byID[u.ID] = u
	}
	require.Contains(t, byID, alice.user.ID)
	assert.Equal(t, alice.user.DisplayName, byID[alice.user.ID].DisplayName)
	assert.Equal(t, "bob@example.com", byID[bob.user.ID].Email)

	_, err = env.groups.GetMembers(ctx, authed(mallory, &api.GetMembersRequest{GroupID: groupID}))
	assertCode(t, connect.CodePermissionDenied, err)
	_, err = env.groups.GetMembers(ctx, authed(alice, &api.GetMembersRequest{GroupID: "nonexistent-id"}))
	assertCode(t, connect.CodeNotFound, err)
}

func TestListGroups(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	resp, err := env.groups.ListGroups(ctx, authed(alice, &api.ListGroupsRequest{}))
	require.NoError(t, err)
	assert.Empty(t, resp.Msg.Groups)

	a := env.createGroup(t, alice, "Group A")
	b := env.createGroup(t, bob, "Group B", alice)
	env.createGroup(t, bob, "Group C")

	resp, err = env.groups.ListGroups(ctx, authed(alice, &api.ListGroupsRequest{}))
	require.NoError(t, err)
	var ids []string
	for _, g := range resp.Msg.Groups {
		ids = append(ids, g.ID)
	}
	assert.ElementsMatch(t, []string{a, b}, ids)
}

func TestAddMember(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	groupID := env.createGroup(t, alice, "Trip")

	resp, err := env.groups.AddMember(ctx, authed(alice, &api.AddMemberRequest{GroupID: groupID, Email: bob.user.Email}))
	require.NoError(t, err)
	assert.Equal(t, bob.user.ID, resp.Msg.Member.ID)

	_, err = env.groups.AddMember(ctx, authed(alice, &api.AddMemberRequest{GroupID: groupID, Email: bob.user.Email}))
	assertCode(t, connect.CodeInvalidArgument, err)

	_, err = env.groups.AddMember(ctx, authed(alice, &api.AddMemberRequest{GroupID: groupID, Email: "ghost@example.com"}))
	assertCode(t, connect.CodeNotFound, err)
}

func TestRemoveMember(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	carol := env.register(t, "carol")
	groupID := env.createGroup(t, alice, "Trip", bob, carol)

	// Members cannot remove each other.
	_, err := env.groups.RemoveMember(ctx, authed(bob, &api.RemoveMemberRequest{GroupID: groupID, UserID: carol.user.ID}))
	assertCode(t, connect.CodePermissionDenied, err)

	// A member with an open balance stays.
	_, err = env.ledger.AddExpense(ctx, authed(alice, &api.AddExpenseRequest{
		GroupID:     groupID,
		Description: "Taxi",
		Amount:      decimal.RequireFromString("20"),
		PaidBy:      alice.user.ID,
		SplitType:   "custom",
		Splits: map[string]decimal.Decimal{
			alice.user.ID: decimal.RequireFromString("10"),
			bob.user.ID:   decimal.RequireFromString("10"),
		},
	}))
	require.NoError(t, err)
	_, err = env.groups.RemoveMember(ctx, authed(alice, &api.RemoveMemberRequest{GroupID: groupID, UserID: bob.user.ID}))
	assertCode(t, connect.CodeInvalidArgument, err)

	// Carol can leave on her own.
	_, err = env.groups.RemoveMember(ctx, authed(carol, &api.RemoveMemberRequest{GroupID: groupID, UserID: carol.user.ID}))
	require.NoError(t, err)

	resp, err := env.groups.GetGroup(ctx, authed(alice, &api.GetGroupRequest{GroupID: groupID}))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{alice.user.ID, bob.user.ID}, resp.Msg.Group.Members)

	list, err := env.groups.ListGroups(ctx, authed(carol, &api.ListGroupsRequest{}))
	require.NoError(t, err)
	assert.Empty(t, list.Msg.Groups)
}

func TestDeleteGroup(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	groupID := env.createGroup(t, alice, "Temp", bob)

	_, err := env.groups.DeleteGroup(ctx, authed(bob, &api.DeleteGroupRequest{GroupID: groupID}))
	assertCode(t, connect.CodePermissionDenied, err)

	_, err = env.groups.DeleteGroup(ctx, authed(alice, &api.DeleteGroupRequest{GroupID: groupID}))
	require.NoError(t, err)

	_, err = env.groups.GetGroup(ctx, authed(alice, &api.GetGroupRequest{GroupID: groupID}))
	assertCode(t, connect.CodeNotFound, err)

	list, err := env.groups.ListGroups(ctx, authed(bob, &api.ListGroupsRequest{}))
	require.NoError(t, err)
	assert.Empty(t, list.Msg.Groups)
}
