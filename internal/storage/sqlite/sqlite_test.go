package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/tallyup/internal/models"
	"github.com/mmynk/tallyup/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	// Create temp directory for test database
	tempDir, err := os.MkdirTemp("", "tallyup-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSQLiteStore_Groups(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateGroup generates IDs", func(t *testing.T) {
		group := &models.Group{
			Name:    "Roommates",
			Members: []models.Member{{ID: "alice", Name: "Alice"}, {Name: "Bob"}},
		}

		if err := store.CreateGroup(ctx, group); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}

		if group.ID == "" {
			t.Error("Expected group ID to be generated")
		}
		if group.CreatedAt == 0 {
			t.Error("Expected CreatedAt to be set")
		}
		if group.Members[0].ID != "alice" {
			t.Errorf("Explicit member ID overwritten: %s", group.Members[0].ID)
		}
		if group.Members[1].ID == "" {
			t.Error("Expected missing member ID to be generated")
		}
	})

	t.Run("GetGroup keeps member order", func(t *testing.T) {
		original := &models.Group{
			Name:        "Ski Trip",
			Description: "Feb 2026",
			Members: []models.Member{
				{ID: "zoe", Name: "Zoe"},
				{ID: "adam", Name: "Adam"},
				{ID: "mia", Name: "Mia"},
			},
		}
		if err := store.CreateGroup(ctx, original); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}

		retrieved, err := store.GetGroup(ctx, original.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}

		if retrieved.Name != original.Name || retrieved.Description != original.Description {
			t.Errorf("Group mismatch: got %+v, want %+v", retrieved, original)
		}
		if len(retrieved.Members) != 3 {
			t.Fatalf("Members count mismatch: got %d, want 3", len(retrieved.Members))
		}
		for i, m := range original.Members {
			if retrieved.Members[i] != m {
				t.Errorf("Member %d mismatch: got %+v, want %+v", i, retrieved.Members[i], m)
			}
		}
	})

	t.Run("GetGroup returns ErrNotFound", func(t *testing.T) {
		_, err := store.GetGroup(ctx, "nonexistent-id")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListGroups filters by member", func(t *testing.T) {
		g := &models.Group{Name: "Only Carol", Members: []models.Member{{ID: "carol", Name: "Carol"}}}
		if err := store.CreateGroup(ctx, g); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}

		groups, err := store.ListGroups(ctx, "carol")
		if err != nil {
			t.Fatalf("ListGroups failed: %v", err)
		}
		if len(groups) != 1 || groups[0].ID != g.ID {
			t.Errorf("Expected only %s, got %d groups", g.ID, len(groups))
		}

		all, err := store.ListGroups(ctx, "")
		if err != nil {
			t.Fatalf("ListGroups failed: %v", err)
		}
		if len(all) < 3 {
			t.Errorf("Expected at least 3 groups, got %d", len(all))
		}
	})

	t.Run("UpdateGroup replaces members", func(t *testing.T) {
		g := &models.Group{Name: "Before", Members: []models.Member{{ID: "x", Name: "X"}}}
		if err := store.CreateGroup(ctx, g); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}

		g.Name = "After"
		g.Members = []models.Member{{ID: "y", Name: "Y"}, {ID: "x", Name: "X"}}
		if err := store.UpdateGroup(ctx, g); err != nil {
			t.Fatalf("UpdateGroup failed: %v", err)
		}

		got, err := store.GetGroup(ctx, g.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if got.Name != "After" || len(got.Members) != 2 || got.Members[0].ID != "y" {
			t.Errorf("Update not persisted: %+v", got)
		}
		if got.CreatedAt != g.CreatedAt {
			t.Errorf("CreatedAt changed: got %d, want %d", got.CreatedAt, g.CreatedAt)
		}
	})

	t.Run("UpdateGroup returns ErrNotFound", func(t *testing.T) {
		err := store.UpdateGroup(ctx, &models.Group{ID: "nonexistent-id", Name: "N"})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestSQLiteStore_Expenses(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	group := &models.Group{
		Name:    "Dinner Club",
		Members: []models.Member{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}, {ID: "c", Name: "C"}},
	}
	if err := store.CreateGroup(ctx, group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	t.Run("CreateExpense round trips exact decimals", func(t *testing.T) {
		expense := &models.Expense{
			GroupID:     group.ID,
			Description: "Pizza",
			Amount:      dec("10.00"),
			PayerID:     "a",
			Splits: []models.Split{
				{MemberID: "a", Share: dec("3.33")},
				{MemberID: "b", Share: dec("3.33")},
				{MemberID: "c", Share: dec("3.34")},
			},
		}
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		if expense.ID == "" || expense.CreatedAt == 0 {
			t.Fatalf("Expected ID and CreatedAt to be set: %+v", expense)
		}

		got, err := store.GetExpense(ctx, expense.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if !got.Amount.Equal(expense.Amount) {
			t.Errorf("Amount mismatch: got %s, want %s", got.Amount, expense.Amount)
		}
		if len(got.Splits) != 3 {
			t.Fatalf("Splits count mismatch: got %d, want 3", len(got.Splits))
		}
		for i, s := range expense.Splits {
			if got.Splits[i].MemberID != s.MemberID || !got.Splits[i].Share.Equal(s.Share) {
				t.Errorf("Split %d mismatch: got %+v, want %+v", i, got.Splits[i], s)
			}
		}
	})

	t.Run("CreateExpense for unknown group fails", func(t *testing.T) {
		err := store.CreateExpense(ctx, &models.Expense{GroupID: "nonexistent-id", Amount: dec("1"), PayerID: "a"})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListExpensesByGroup in recording order", func(t *testing.T) {
		second := &models.Expense{
			GroupID: group.ID, Description: "Taxi", Amount: dec("30"), PayerID: "b",
			Splits: []models.Split{{MemberID: "b", Share: dec("15")}, {MemberID: "c", Share: dec("15")}},
		}
		if err := store.CreateExpense(ctx, second); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}

		expenses, err := store.ListExpensesByGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("ListExpensesByGroup failed: %v", err)
		}
		if len(expenses) != 2 {
			t.Fatalf("Expected 2 expenses, got %d", len(expenses))
		}
		if expenses[0].Description != "Pizza" || expenses[1].Description != "Taxi" {
			t.Errorf("Unexpected order: %s, %s", expenses[0].Description, expenses[1].Description)
		}
		if len(expenses[1].Splits) != 2 {
			t.Errorf("Expected 2 splits on second expense, got %d", len(expenses[1].Splits))
		}
	})

	t.Run("DeleteExpense", func(t *testing.T) {
		e := &models.Expense{GroupID: group.ID, Description: "Oops", Amount: dec("1"), PayerID: "a",
			Splits: []models.Split{{MemberID: "a", Share: dec("1")}}}
		if err := store.CreateExpense(ctx, e); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		if err := store.DeleteExpense(ctx, e.ID); err != nil {
			t.Fatalf("DeleteExpense failed: %v", err)
		}
		if _, err := store.GetExpense(ctx, e.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound after delete, got %v", err)
		}
		if err := store.DeleteExpense(ctx, e.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound deleting twice, got %v", err)
		}
	})

	t.Run("DeleteGroup cascades to expenses", func(t *testing.T) {
		if err := store.DeleteGroup(ctx, group.ID); err != nil {
			t.Fatalf("DeleteGroup failed: %v", err)
		}
		expenses, err := store.ListExpensesByGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("ListExpensesByGroup failed: %v", err)
		}
		if len(expenses) != 0 {
			t.Errorf("Expected expenses to be deleted, got %d", len(expenses))
		}
		if err := store.DeleteGroup(ctx, group.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound deleting twice, got %v", err)
		}
	})
}

func TestSQLiteStore_ConcurrentWrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	group := &models.Group{Name: "Busy", Members: []models.Member{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}}}
	if err := store.CreateGroup(ctx, group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.CreateExpense(ctx, &models.Expense{
				GroupID: group.ID, Description: "Round", Amount: dec("2"), PayerID: "a",
				Splits: []models.Split{{MemberID: "a", Share: dec("1")}, {MemberID: "b", Share: dec("1")}},
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
	}

	expenses, err := store.ListExpensesByGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("ListExpensesByGroup failed: %v", err)
	}
	if len(expenses) != writers {
		t.Fatalf("Expected %d expenses, got %d", writers, len(expenses))
	}
	for _, e := range expenses {
		if len(e.Splits) != 2 {
			t.Errorf("Expense %s has %d splits, want 2", e.ID, len(e.Splits))
		}
	}
}
