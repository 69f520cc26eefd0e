package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/tallyup/internal/models"
	"github.com/mmynk/tallyup/internal/settlement"
	"github.com/mmynk/tallyup/internal/storage"
	"github.com/mmynk/tallyup/pkg/api"
	"github.com/mmynk/tallyup/pkg/api/apiconnect"
)

// GroupService implements the Connect GroupService
type GroupService struct {
	apiconnect.UnimplementedGroupServiceHandler
	store   storage.Store
	settler *settlement.Settler
}

// NewGroupService creates a new GroupService with the given storage backend.
// Settlements are computed by settler.
func NewGroupService(store storage.Store, settler *settlement.Settler) *GroupService {
	return &GroupService{store: store, settler: settler}
}

// CreateGroup creates a new group. The caller must be one of its members.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	slog.Info("CreateGroup request received",
		"name", req.Msg.Name,
		"members_count", len(req.Msg.Members),
	)

	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	members, err := membersFromAPI(req.Msg.Members)
	if err != nil {
		return nil, err
	}

	group := &models.Group{
		Name:        req.Msg.Name,
		Description: req.Msg.Description,
		Members:     members,
	}
	if !group.HasMember(caller) {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("members must include the caller"))
	}

	// Save to storage (generates IDs and CreatedAt)
	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, storeError(err)
	}

	slog.Info("Group created", "group_id", group.ID)

	return connect.NewResponse(&api.CreateGroupResponse{Group: toAPIGroup(group)}), nil
}

// GetGroup retrieves a group by ID.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	slog.Info("GetGroup request received", "group_id", req.Msg.GroupID)

	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}
	group, err := groupForCaller(ctx, s.store, req.Msg.GroupID)
	if err != nil {
		slog.Warn("GetGroup failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, err
	}

	slog.Info("GetGroup successful", "group_id", group.ID, "name", group.Name)

	return connect.NewResponse(&api.GetGroupResponse{Group: toAPIGroup(group)}), nil
}

// ListGroups retrieves the groups the caller belongs to.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("ListGroups request received", "member_id", caller)

	groups, err := s.store.ListGroups(ctx, caller)
	if err != nil {
		slog.Error("ListGroups failed", "error", err)
		return nil, storeError(err)
	}

	out := make([]*api.Group, len(groups))
	for i, group := range groups {
		out[i] = toAPIGroup(group)
	}

	slog.Info("ListGroups successful", "count", len(groups))

	return connect.NewResponse(&api.ListGroupsResponse{Groups: out}), nil
}

// UpdateGroup replaces the name, description and member list of a group.
// Members dropped from the list keep their expenses; see GetSettlement.
func (s *GroupService) UpdateGroup(ctx context.Context, req *connect.Request[api.UpdateGroupRequest]) (*connect.Response[api.UpdateGroupResponse], error) {
	slog.Info("UpdateGroup request received",
		"group_id", req.Msg.GroupID,
		"name", req.Msg.Name,
		"members_count", len(req.Msg.Members),
	)

	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}
	existing, err := groupForCaller(ctx, s.store, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}
	members, err := membersFromAPI(req.Msg.Members)
	if err != nil {
		return nil, err
	}

	group := &models.Group{
		ID:          existing.ID,
		Name:        req.Msg.Name,
		Description: req.Msg.Description,
		Members:     members,
		CreatedAt:   existing.CreatedAt,
	}
	if err := s.store.UpdateGroup(ctx, group); err != nil {
		slog.Error("UpdateGroup failed", "error", err)
		return nil, storeError(err)
	}

	slog.Info("Group updated", "group_id", group.ID)

	return connect.NewResponse(&api.UpdateGroupResponse{Group: toAPIGroup(group)}), nil
}

// DeleteGroup removes a group and all of its expenses.
func (s *GroupService) DeleteGroup(ctx context.Context, req *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error) {
	slog.Info("DeleteGroup request received", "group_id", req.Msg.GroupID)

	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}
	if _, err := groupForCaller(ctx, s.store, req.Msg.GroupID); err != nil {
		return nil, err
	}

	if err := s.store.DeleteGroup(ctx, req.Msg.GroupID); err != nil {
		slog.Error("DeleteGroup failed", "error", err)
		return nil, storeError(err)
	}

	slog.Info("Group deleted", "group_id", req.Msg.GroupID)

	return connect.NewResponse(&api.DeleteGroupResponse{}), nil
}

// GetSettlement computes balances and the transfers that settle the group.
// Nothing is persisted; every call recomputes from the recorded expenses.
func (s *GroupService) GetSettlement(ctx context.Context, req *connect.Request[api.GetSettlementRequest]) (*connect.Response[api.GetSettlementResponse], error) {
	groupID := req.Msg.GroupID
	slog.Info("GetSettlement request received", "group_id", groupID)

	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}
	if _, err := groupForCaller(ctx, s.store, groupID); err != nil {
		return nil, err
	}

	report, err := s.settler.Settle(ctx, groupID)
	if err != nil {
		slog.Error("GetSettlement failed", "group_id", groupID, "error", err)
		return nil, settlementError(err)
	}

	slog.Info("GetSettlement successful",
		"group_id", groupID,
		"members_count", len(report.Balances),
		"transfers_count", len(report.Transfers),
	)

	return connect.NewResponse(toAPISettlement(report)), nil
}
