package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mmynk/tallyup/internal/models"
	"github.com/mmynk/tallyup/internal/storage"
)

// GroupReader resolves a group ID to the group and its members.
type GroupReader interface {
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
}

// ExpenseReader resolves a group ID to its recorded expenses.
type ExpenseReader interface {
	ListExpensesByGroup(ctx context.Context, groupID string) ([]models.Expense, error)
}

// Observer is notified after every settlement computation.
type Observer interface {
	ObserveSettlement(members, expenses, transfers int, elapsed time.Duration, err error)
}

// Settler computes settlement reports from the stores' current data.
// It holds no state between calls and is safe for concurrent use.
type Settler struct {
	groups   GroupReader
	expenses ExpenseReader
	opts     Options
	observer Observer
}

// SettlerOption configures a Settler.
type SettlerOption func(*Settler)

// WithOptions sets the engine options used for every computation.
func WithOptions(opts Options) SettlerOption {
	return func(s *Settler) { s.opts = opts }
}

// WithObserver registers an Observer.
func WithObserver(o Observer) SettlerOption {
	return func(s *Settler) { s.observer = o }
}

// NewSettler creates a Settler reading from the given stores.
func NewSettler(groups GroupReader, expenses ExpenseReader, opts ...SettlerOption) *Settler {
	s := &Settler{groups: groups, expenses: expenses}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Settle fetches the group and its expenses and computes the report.
// A missing group fails with ErrGroupNotFound; nothing is retried.
func (s *Settler) Settle(ctx context.Context, groupID string) (*Report, error) {
	group, err := s.groups.GetGroup(ctx, groupID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, groupID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	expenses, err := s.expenses.ListExpensesByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	start := time.Now()
	report, err := Compute(group, expenses, s.opts)
	if s.observer != nil {
		transfers := 0
		if report != nil {
			transfers = len(report.Transfers)
		}
		s.observer.ObserveSettlement(len(group.Members), len(expenses), transfers, time.Since(start), err)
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}
