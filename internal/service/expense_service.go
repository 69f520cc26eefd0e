package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/tallyup/internal/models"
	"github.com/mmynk/tallyup/internal/settlement"
	"github.com/mmynk/tallyup/internal/storage"
	"github.com/mmynk/tallyup/pkg/api"
	"github.com/mmynk/tallyup/pkg/api/apiconnect"
)

// ExpenseService implements the Connect ExpenseService
type ExpenseService struct {
	apiconnect.UnimplementedExpenseServiceHandler
	store           storage.Store
	requireBalanced bool
}

// NewExpenseService creates a new ExpenseService with the given storage backend.
// With requireBalanced, split shares must add up to the expense amount.
func NewExpenseService(store storage.Store, requireBalanced bool) *ExpenseService {
	return &ExpenseService{store: store, requireBalanced: requireBalanced}
}

// validateMembers checks that the payer and every split member belong to the group.
func validateMembers(group *models.Group, payerID string, splits []models.Split) error {
	if !group.HasMember(payerID) {
		return fmt.Errorf("payer %q is not a member of the group", payerID)
	}
	for _, s := range splits {
		if !group.HasMember(s.MemberID) {
			return fmt.Errorf("split member %q is not a member of the group", s.MemberID)
		}
	}
	return nil
}

// toCents converts a wire amount, rejecting non-finite values and fractions of a cent.
func toCents(f float64) (decimal.Decimal, error) {
	d, err := settlement.NewAmount(f)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.Equal(settlement.Round(d)) {
		return decimal.Zero, fmt.Errorf("%w: %v has more than %d decimal places", settlement.ErrInvalidAmount, f, settlement.Places)
	}
	return d, nil
}

// buildSplits resolves explicit shares or an equal split among members.
func buildSplits(amount decimal.Decimal, msg *api.AddExpenseRequest) ([]models.Split, error) {
	switch {
	case len(msg.Splits) > 0 && len(msg.SplitAmong) > 0:
		return nil, errors.New("splits and splitAmong are mutually exclusive")
	case len(msg.SplitAmong) > 0:
		return settlement.SplitEqually(amount, msg.SplitAmong)
	case len(msg.Splits) == 0:
		return nil, errors.New("either splits or splitAmong is required")
	}

	seen := make(map[string]bool, len(msg.Splits))
	splits := make([]models.Split, len(msg.Splits))
	for i, s := range msg.Splits {
		if seen[s.MemberID] {
			return nil, fmt.Errorf("duplicate split member %q", s.MemberID)
		}
		seen[s.MemberID] = true

		share, err := toCents(s.Share)
		if err != nil {
			return nil, fmt.Errorf("split %q: %w", s.MemberID, err)
		}
		splits[i] = models.Split{MemberID: s.MemberID, Share: share}
	}
	return splits, nil
}

// AddExpense records an expense paid by one member and split across members.
func (s *ExpenseService) AddExpense(ctx context.Context, req *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.AddExpenseResponse], error) {
	slog.Info("AddExpense request received",
		"group_id", req.Msg.GroupID,
		"payer_id", req.Msg.PayerID,
		"splits_count", len(req.Msg.Splits)+len(req.Msg.SplitAmong),
	)

	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}
	amount, err := toCents(req.Msg.Amount)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	splits, err := buildSplits(amount, req.Msg)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	group, err := groupForCaller(ctx, s.store, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}
	if err := validateMembers(group, req.Msg.PayerID, splits); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	expense := &models.Expense{
		GroupID:     group.ID,
		Description: req.Msg.Description,
		Amount:      amount,
		PayerID:     req.Msg.PayerID,
		Splits:      splits,
	}
	if total := expense.ShareTotal(); s.requireBalanced && total.Sub(amount).Abs().GreaterThan(settlement.Epsilon) {
		return nil, connect.NewError(connect.CodeInvalidArgument,
			fmt.Errorf("shares add up to %s, expected %s", total.StringFixed(settlement.Places), amount.StringFixed(settlement.Places)))
	}

	if err := s.store.CreateExpense(ctx, expense); err != nil {
		slog.Error("AddExpense failed", "error", err)
		return nil, storeError(err)
	}

	slog.Info("Expense added", "expense_id", expense.ID, "group_id", group.ID, "amount", amount.StringFixed(settlement.Places))

	return connect.NewResponse(&api.AddExpenseResponse{Expense: toAPIExpense(expense)}), nil
}

// expenseForCaller loads an expense and checks that the caller belongs to its group.
func (s *ExpenseService) expenseForCaller(ctx context.Context, expenseID string) (*models.Expense, error) {
	if _, err := callerID(ctx); err != nil {
		return nil, err
	}
	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, storeError(err)
	}
	if _, err := groupForCaller(ctx, s.store, expense.GroupID); err != nil {
		return nil, err
	}
	return expense, nil
}

// GetExpense retrieves an expense by ID.
func (s *ExpenseService) GetExpense(ctx context.Context, req *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.GetExpenseResponse], error) {
	slog.Info("GetExpense request received", "expense_id", req.Msg.ExpenseID)

	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}
	expense, err := s.expenseForCaller(ctx, req.Msg.ExpenseID)
	if err != nil {
		slog.Warn("GetExpense failed", "expense_id", req.Msg.ExpenseID, "error", err)
		return nil, err
	}

	return connect.NewResponse(&api.GetExpenseResponse{Expense: toAPIExpense(expense)}), nil
}

// ListExpenses returns a group's expenses in recording order.
func (s *ExpenseService) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	slog.Info("ListExpenses request received", "group_id", req.Msg.GroupID)

	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}
	if _, err := groupForCaller(ctx, s.store, req.Msg.GroupID); err != nil {
		return nil, err
	}

	expenses, err := s.store.ListExpensesByGroup(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("ListExpenses failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, storeError(err)
	}

	out := make([]*api.Expense, len(expenses))
	for i := range expenses {
		out[i] = toAPIExpense(&expenses[i])
	}

	slog.Info("ListExpenses successful", "group_id", req.Msg.GroupID, "count", len(out))

	return connect.NewResponse(&api.ListExpensesResponse{Expenses: out}), nil
}

// DeleteExpense removes an expense.
func (s *ExpenseService) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	slog.Info("DeleteExpense request received", "expense_id", req.Msg.ExpenseID)

	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}
	if _, err := s.expenseForCaller(ctx, req.Msg.ExpenseID); err != nil {
		return nil, err
	}

	if err := s.store.DeleteExpense(ctx, req.Msg.ExpenseID); err != nil {
		slog.Error("DeleteExpense failed", "error", err)
		return nil, storeError(err)
	}

	slog.Info("Expense deleted", "expense_id", req.Msg.ExpenseID)

	return connect.NewResponse(&api.DeleteExpenseResponse{}), nil
}
