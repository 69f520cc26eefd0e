// Package service implements the tallyup.v1 Connect services on top of the
// store and the settlement engine.
package service

import (
	"context"
	"errors"
	"fmt"

	"connectrpc.com/connect"
	"github.com/go-playground/validator/v10"

	"github.com/mmynk/tallyup/internal/middleware"
	"github.com/mmynk/tallyup/internal/models"
	"github.com/mmynk/tallyup/internal/settlement"
	"github.com/mmynk/tallyup/internal/storage"
	"github.com/mmynk/tallyup/pkg/api"
)

var (
	errNotMember    = errors.New("caller is not a member of the group")
	errUnauthorized = errors.New("authenticated member required")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateRequest checks a request message against its struct tags.
func validateRequest(msg any) error {
	if err := validate.Struct(msg); err != nil {
		return connect.NewError(connect.CodeInvalidArgument, err)
	}
	return nil
}

// callerID returns the authenticated member or CodeUnauthenticated.
func callerID(ctx context.Context) (string, error) {
	id := middleware.GetMemberID(ctx)
	if id == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, errUnauthorized)
	}
	return id, nil
}

// storeError maps storage errors to Connect codes.
func storeError(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return connect.NewError(connect.CodeNotFound, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}

// settlementError maps engine errors to Connect codes.
func settlementError(err error) error {
	switch {
	case errors.Is(err, settlement.ErrGroupNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, settlement.ErrInvalidAmount):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, settlement.ErrInconsistentSplit), errors.Is(err, settlement.ErrInvalidMembers):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, settlement.ErrLimitExceeded):
		return connect.NewError(connect.CodeResourceExhausted, err)
	}
	return storeError(err)
}

// groupForCaller loads a group and checks that the caller belongs to it.
func groupForCaller(ctx context.Context, store storage.Store, groupID string) (*models.Group, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	group, err := store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, storeError(err)
	}
	if !group.HasMember(caller) {
		return nil, connect.NewError(connect.CodePermissionDenied, fmt.Errorf("%w: %s", errNotMember, groupID))
	}
	return group, nil
}

// membersFromAPI converts request members, rejecting duplicate explicit IDs.
func membersFromAPI(in []*api.Member) ([]models.Member, error) {
	seen := make(map[string]bool, len(in))
	out := make([]models.Member, len(in))
	for i, m := range in {
		if m.ID != "" {
			if seen[m.ID] {
				return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("duplicate member id %q", m.ID))
			}
			seen[m.ID] = true
		}
		out[i] = models.Member{ID: m.ID, Name: m.Name}
	}
	return out, nil
}

func toAPIGroup(g *models.Group) *api.Group {
	members := make([]*api.Member, len(g.Members))
	for i, m := range g.Members {
		members[i] = &api.Member{ID: m.ID, Name: m.Name}
	}
	return &api.Group{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		Members:     members,
		CreatedAt:   g.CreatedAt,
	}
}

func toAPIExpense(e *models.Expense) *api.Expense {
	splits := make([]*api.Split, len(e.Splits))
	for i, s := range e.Splits {
		splits[i] = &api.Split{MemberID: s.MemberID, Share: s.Share.InexactFloat64()}
	}
	return &api.Expense{
		ID:          e.ID,
		GroupID:     e.GroupID,
		Description: e.Description,
		Amount:      e.Amount.InexactFloat64(),
		PayerID:     e.PayerID,
		Splits:      splits,
		CreatedAt:   e.CreatedAt,
	}
}

func toAPISettlement(r *settlement.Report) *api.GetSettlementResponse {
	balances := make([]*api.MemberBalance, len(r.Balances))
	for i, b := range r.Balances {
		balances[i] = &api.MemberBalance{MemberID: b.MemberID, Name: b.Name, Balance: b.Balance.InexactFloat64()}
	}
	transfers := make([]*api.Transfer, len(r.Transfers))
	for i, t := range r.Transfers {
		transfers[i] = &api.Transfer{From: t.From, To: t.To, Amount: t.Amount.InexactFloat64()}
	}
	return &api.GetSettlementResponse{
		GroupID:   r.GroupID,
		Balances:  balances,
		Transfers: transfers,
	}
}
