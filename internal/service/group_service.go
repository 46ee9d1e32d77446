package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/pkg/api"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

// Ensure GroupService implements the handler interface
var _ apiconnect.GroupServiceHandler = (*GroupService)(nil)

// GroupService implements the GroupService RPC interface on top of the ledger.
type GroupService struct {
	ledger *ledger.Ledger
	logger *slog.Logger
}

// NewGroupService creates a new GroupService.
func NewGroupService(l *ledger.Ledger, logger *slog.Logger) *GroupService {
	return &GroupService{ledger: l, logger: logger.With(slog.String("service", "group"))}
}

// CreateGroup creates a group owned by the caller.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	userID, err := requester(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("CreateGroup request", "name", req.Msg.Name, "user_id", userID)

	group, err := s.ledger.CreateGroup(ctx, userID, ledger.GroupInput{
		Name:        req.Msg.Name,
		Description: req.Msg.Description,
	})
	if err != nil {
		return nil, toConnectError(s.logger, "CreateGroup", err)
	}

	s.logger.Info("Group created", "group_id", group.ID)
	return connect.NewResponse(&api.CreateGroupResponse{Group: groupToAPI(group)}), nil
}

// GetGroup returns a group the caller belongs to.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	userID, err := requester(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("GetGroup request", "group_id", req.Msg.GroupID)

	group, err := s.ledger.GetGroup(ctx, userID, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(s.logger, "GetGroup", err)
	}
	return connect.NewResponse(&api.GetGroupResponse{Group: groupToAPI(group)}), nil
}

// GetMembers returns the profiles of a group's members.
func (s *GroupService) GetMembers(ctx context.Context, req *connect.Request[api.GetMembersRequest]) (*connect.Response[api.GetMembersResponse], error) {
	userID, err := requester(ctx)
	if err != nil {
		return nil, err
	}

	members, err := s.ledger.GetMemberDetails(ctx, userID, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(s.logger, "GetMembers", err)
	}
	return connect.NewResponse(&api.GetMembersResponse{Members: mapSlice(members, userToAPI)}), nil
}

// ListGroups returns the caller's groups.
func (s *GroupService) ListGroups(ctx context.Context, _ *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	userID, err := requester(ctx)
	if err != nil {
		return nil, err
	}

	groups, err := s.ledger.GetUserGroups(ctx, userID)
	if err != nil {
		return nil, toConnectError(s.logger, "ListGroups", err)
	}

	s.logger.Debug("Groups listed", "user_id", userID, "count", len(groups))
	return connect.NewResponse(&api.ListGroupsResponse{Groups: mapSlice(groups, groupToAPI)}), nil
}

// AddMember adds a registered user, looked up by email, to the group.
func (s *GroupService) AddMember(ctx context.Context, req *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error) {
	userID, err := requester(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("AddMember request", "group_id", req.Msg.GroupID, "email", req.Msg.Email)

	member, err := s.ledger.AddGroupMember(ctx, userID, req.Msg.GroupID, req.Msg.Email)
	if err != nil {
		return nil, toConnectError(s.logger, "AddMember", err)
	}
	return connect.NewResponse(&api.AddMemberResponse{Member: userToAPI(member)}), nil
}

// RemoveMember removes a member, or lets the caller leave.
func (s *GroupService) RemoveMember(ctx context.Context, req *connect.Request[api.RemoveMemberRequest]) (*connect.Response[api.RemoveMemberResponse], error) {
	userID, err := requester(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("RemoveMember request", "group_id", req.Msg.GroupID, "member_id", req.Msg.UserID)

	if err := s.ledger.RemoveGroupMember(ctx, userID, req.Msg.GroupID, req.Msg.UserID); err != nil {
		return nil, toConnectError(s.logger, "RemoveMember", err)
	}
	return connect.NewResponse(&api.RemoveMemberResponse{}), nil
}

// DeleteGroup deletes the group and its whole history. Creator only.
func (s *GroupService) DeleteGroup(ctx context.Context, req *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error) {
	userID, err := requester(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("DeleteGroup request", "group_id", req.Msg.GroupID)

	if err := s.ledger.DeleteGroup(ctx, req.Msg.GroupID, userID); err != nil {
		return nil, toConnectError(s.logger, "DeleteGroup", err)
	}
	return connect.NewResponse(&api.DeleteGroupResponse{}), nil
}
