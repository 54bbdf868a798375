package memory

import (
	"context"
	"testing"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

func TestInsertCategoryUniqueness(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.InsertCategory(ctx, core.Category{Name: "Groceries", Type: core.Expense, UserID: "u1"}); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if _, err := s.InsertCategory(ctx, core.Category{Name: "Groceries", Type: core.Expense, UserID: "u1"}); !core.IsConflict(err) {
		t.Fatalf("duplicate insert expected conflict, got %v", err)
	}

	// Same name+type for a different user is fine.
	if _, err := s.InsertCategory(ctx, core.Category{Name: "Groceries", Type: core.Expense, UserID: "u2"}); err != nil {
		t.Fatalf("other user insert: %v", err)
	}
	// Same name, different type is fine too.
	if _, err := s.InsertCategory(ctx, core.Category{Name: "Groceries", Type: core.Income, UserID: "u1"}); err != nil {
		t.Fatalf("other type insert: %v", err)
	}
}

func TestVisibility(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.Seed([]core.Category{{Name: "Gifts", Type: core.Expense, Icon: "gift"}})

	own, _ := s.InsertCategory(ctx, core.Category{Name: "Rent", Type: core.Expense, UserID: "u1"})
	other, _ := s.InsertCategory(ctx, core.Category{Name: "Toys", Type: core.Expense, UserID: "u2"})

	visible, err := s.ListVisibleCategories(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(visible) != 2 {
		t.Fatalf("expected 2 visible categories (shared + own), got %d", len(visible))
	}
	for _, c := range visible {
		if c.ID == other.ID {
			t.Fatal("another user's category leaked into the listing")
		}
	}

	if got, _ := s.GetVisibleCategory(ctx, other.ID, "u1"); got != nil {
		t.Fatal("another user's category should not be visible")
	}
	if got, _ := s.GetVisibleCategory(ctx, own.ID, "u1"); got == nil {
		t.Fatal("own category should be visible")
	}
}

func TestSharedCategoryImmutable(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.Seed([]core.Category{{Name: "Gifts", Type: core.Expense}})

	name := "Mine"
	if got, _ := s.UpdateCategory(ctx, 1, "u1", core.CategoryPatch{Name: &name}); got != nil {
		t.Fatal("shared category must not be updatable through a user-scoped call")
	}
	if got, _ := s.DeleteCategory(ctx, 1, "u1"); got != nil {
		t.Fatal("shared category must not be deletable through a user-scoped call")
	}
}

func TestListTransactionsOrderAndFilters(t *testing.T) {
	s := New()
	ctx := context.Background()
	cat, _ := s.InsertCategory(ctx, core.Category{Name: "Groceries", Type: core.Expense, UserID: "u1"})
	salary, _ := s.InsertCategory(ctx, core.Category{Name: "Salary", Type: core.Income, UserID: "u1"})

	mk := func(title string, date core.Date, catID int64, typ core.CategoryType) core.Transaction {
		tx, err := s.InsertTransaction(ctx, core.Transaction{
			Title: title, Amount: decimal.NewFromInt(10), PaymentMethod: "card",
			CategoryID: catID, Type: typ, Date: date, UserID: "u1",
		})
		if err != nil {
			t.Fatalf("insert %s: %v", title, err)
		}
		return tx
	}

	mk("old", core.NewDate(2024, 1, 1), cat.ID, core.Expense)
	mk("mid-a", core.NewDate(2024, 1, 5), cat.ID, core.Expense)
	mk("mid-b", core.NewDate(2024, 1, 5), salary.ID, core.Income)
	mk("new", core.NewDate(2024, 2, 1), cat.ID, core.Expense)

	all, err := s.ListTransactions(ctx, "u1", core.TransactionFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"new", "mid-b", "mid-a", "old"} // date desc, created_at desc tie-break
	if len(all) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(all))
	}
	for i, title := range want {
		if all[i].Title != title {
			t.Fatalf("position %d: got %s, want %s", i, all[i].Title, title)
		}
	}

	income, _ := s.ListTransactions(ctx, "u1", core.TransactionFilter{Type: core.Income})
	if len(income) != 1 || income[0].Title != "mid-b" {
		t.Fatalf("type filter mismatch: %+v", income)
	}

	ranged, _ := s.ListTransactions(ctx, "u1", core.TransactionFilter{
		From: core.NewDate(2024, 1, 2), To: core.NewDate(2024, 1, 31),
	})
	if len(ranged) != 2 {
		t.Fatalf("range filter expected 2 rows, got %d", len(ranged))
	}

	limited, _ := s.ListTransactions(ctx, "u1", core.TransactionFilter{Limit: 2})
	if len(limited) != 2 || limited[0].Title != "new" {
		t.Fatalf("limit mismatch: %+v", limited)
	}
}

func TestScopedTransactionMutations(t *testing.T) {
	s := New()
	ctx := context.Background()
	cat, _ := s.InsertCategory(ctx, core.Category{Name: "Groceries", Type: core.Expense, UserID: "u1"})
	tx, _ := s.InsertTransaction(ctx, core.Transaction{
		Title: "Milk", Amount: decimal.NewFromInt(3), PaymentMethod: "card",
		CategoryID: cat.ID, Type: core.Expense, Date: core.NewDate(2024, 1, 5), UserID: "u1",
	})

	title := "Stolen"
	if got, _ := s.UpdateTransaction(ctx, tx.ID, "u2", core.TransactionPatch{Title: &title}); got != nil {
		t.Fatal("update scoped to another user should match no row")
	}
	if got, _ := s.DeleteTransaction(ctx, tx.ID, "u2"); got != nil {
		t.Fatal("delete scoped to another user should match no row")
	}
	if got, _ := s.GetTransaction(ctx, tx.ID, "u2"); got != nil {
		t.Fatal("get scoped to another user should return nil")
	}

	if got, _ := s.GetTransaction(ctx, tx.ID, "u1"); got == nil || got.Category == nil || got.Category.Name != "Groceries" {
		t.Fatalf("owner get should hydrate category, got %+v", got)
	}
}

func TestDeleteAllTransactions(t *testing.T) {
	s := New()
	ctx := context.Background()
	cat, _ := s.InsertCategory(ctx, core.Category{Name: "Groceries", Type: core.Expense, UserID: "u1"})
	for i := 0; i < 3; i++ {
		_, _ = s.InsertTransaction(ctx, core.Transaction{
			Title: "t", Amount: decimal.NewFromInt(1), PaymentMethod: "cash",
			CategoryID: cat.ID, Type: core.Expense, Date: core.NewDate(2024, 1, i+1), UserID: "u1",
		})
	}
	_, _ = s.InsertTransaction(ctx, core.Transaction{
		Title: "keep", Amount: decimal.NewFromInt(1), PaymentMethod: "cash",
		CategoryID: cat.ID, Type: core.Expense, Date: core.NewDate(2024, 1, 9), UserID: "u2",
	})

	deleted, err := s.DeleteAllTransactions(ctx, "u1")
	if err != nil {
		t.Fatalf("delete all: %v", err)
	}
	if len(deleted) != 3 {
		t.Fatalf("expected 3 deleted, got %d", len(deleted))
	}

	left, _ := s.ListTransactions(ctx, "u1", core.TransactionFilter{})
	if len(left) != 0 {
		t.Fatalf("expected empty ledger after delete all, got %d", len(left))
	}
	other, _ := s.ListTransactions(ctx, "u2", core.TransactionFilter{})
	if len(other) != 1 {
		t.Fatal("another user's transactions must survive delete all")
	}
}

func TestCountTransactionsByCategory(t *testing.T) {
	s := New()
	ctx := context.Background()
	cat, _ := s.InsertCategory(ctx, core.Category{Name: "Groceries", Type: core.Expense, UserID: "u1"})
	_, _ = s.InsertTransaction(ctx, core.Transaction{
		Title: "Milk", Amount: decimal.NewFromInt(3), PaymentMethod: "card",
		CategoryID: cat.ID, Type: core.Expense, Date: core.NewDate(2024, 1, 5), UserID: "u1",
	})

	n, err := s.CountTransactionsByCategory(ctx, cat.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 reference, got %d", n)
	}
}
