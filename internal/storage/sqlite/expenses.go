package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/tallyup/internal/models"
)

// CreateExpense persists an expense and its splits in one transaction.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM groups WHERE id = ?", expense.GroupID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("group", expense.GroupID)
		}
		if err != nil {
			return fmt.Errorf("failed to check group existence: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO expenses (id, group_id, description, amount, payer_id, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			expense.ID, expense.GroupID, expense.Description, expense.Amount, expense.PayerID, expense.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense: %w", err)
		}

		for i, split := range expense.Splits {
			_, err = tx.ExecContext(ctx,
				"INSERT INTO expense_splits (expense_id, member_id, share, position) VALUES (?, ?, ?, ?)",
				expense.ID, split.MemberID, split.Share, i,
			)
			if err != nil {
				return fmt.Errorf("failed to insert split: %w", err)
			}
		}
		return nil
	})
}

// GetExpense retrieves an expense by ID, including its splits.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense := &models.Expense{}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`SELECT id, group_id, description, amount, payer_id, created_at
			 FROM expenses WHERE id = ?`,
			expenseID,
		).Scan(&expense.ID, &expense.GroupID, &expense.Description, &expense.Amount, &expense.PayerID, &expense.CreatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("expense", expenseID)
		}
		if err != nil {
			return fmt.Errorf("failed to get expense: %w", err)
		}

		rows, err := tx.QueryContext(ctx,
			"SELECT member_id, share FROM expense_splits WHERE expense_id = ? ORDER BY position",
			expenseID,
		)
		if err != nil {
			return fmt.Errorf("failed to get splits: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var split models.Split
			if err := rows.Scan(&split.MemberID, &split.Share); err != nil {
				return fmt.Errorf("failed to scan split: %w", err)
			}
			expense.Splits = append(expense.Splits, split)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to iterate splits: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return expense, nil
}

// ListExpensesByGroup retrieves all expenses of a group in recording order.
// Expenses and splits are read in the same transaction, so a concurrent
// CreateExpense is either fully visible or not at all.
func (s *SQLiteStore) ListExpensesByGroup(ctx context.Context, groupID string) ([]models.Expense, error) {
	var expenses []models.Expense
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			`SELECT id, group_id, description, amount, payer_id, created_at
			 FROM expenses WHERE group_id = ? ORDER BY created_at, rowid`,
			groupID,
		)
		if err != nil {
			return fmt.Errorf("failed to list expenses by group: %w", err)
		}

		index := make(map[string]int)
		for rows.Next() {
			var e models.Expense
			if err := rows.Scan(&e.ID, &e.GroupID, &e.Description, &e.Amount, &e.PayerID, &e.CreatedAt); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan expense: %w", err)
			}
			index[e.ID] = len(expenses)
			expenses = append(expenses, e)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to iterate expenses: %w", err)
		}

		splitRows, err := tx.QueryContext(ctx,
			`SELECT s.expense_id, s.member_id, s.share
			 FROM expense_splits s JOIN expenses e ON e.id = s.expense_id
			 WHERE e.group_id = ? ORDER BY s.expense_id, s.position`,
			groupID,
		)
		if err != nil {
			return fmt.Errorf("failed to list splits by group: %w", err)
		}
		defer splitRows.Close()

		for splitRows.Next() {
			var expenseID string
			var split models.Split
			if err := splitRows.Scan(&expenseID, &split.MemberID, &split.Share); err != nil {
				return fmt.Errorf("failed to scan split: %w", err)
			}
			if i, ok := index[expenseID]; ok {
				expenses[i].Splits = append(expenses[i].Splits, split)
			}
		}
		if err := splitRows.Err(); err != nil {
			return fmt.Errorf("failed to iterate splits: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return expenses, nil
}

// DeleteExpense removes an expense by ID; its splits cascade.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, expenseID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if n == 0 {
		return notFound("expense", expenseID)
	}
	return nil
}
