package analysis

import (
	"context"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/storage/memory"

	"github.com/shopspring/decimal"
)

func seedLedger(t *testing.T) (*memory.Store, *Engine) {
	t.Helper()
	store := memory.New()
	return store, NewEngine(store)
}

func addTx(t *testing.T, store *memory.Store, userID, title, amount string, cat core.Category, date core.Date) {
	t.Helper()
	_, err := store.InsertTransaction(context.Background(), core.Transaction{
		Title:         title,
		Amount:        decimal.RequireFromString(amount),
		PaymentMethod: "card",
		CategoryID:    cat.ID,
		Type:          cat.Type,
		Date:          date,
		UserID:        userID,
	})
	if err != nil {
		t.Fatalf("insert %s: %v", title, err)
	}
}

func TestTotalsSingleExpense(t *testing.T) {
	store, engine := seedLedger(t)
	ctx := context.Background()

	groceries, err := store.InsertCategory(ctx, core.Category{Name: "Groceries", Type: core.Expense, Icon: "cart", UserID: "u1"})
	if err != nil {
		t.Fatalf("insert category: %v", err)
	}
	addTx(t, store, "u1", "Milk", "3.50", groceries, core.NewDate(2024, 1, 5))

	got, err := engine.Totals(ctx, "u1", core.Date{}, core.Date{})
	if err != nil {
		t.Fatalf("totals: %v", err)
	}

	if !got.TotalExpense.Equal(decimal.RequireFromString("3.50")) {
		t.Fatalf("total expense = %s, want 3.50", got.TotalExpense)
	}
	if !got.TotalIncome.IsZero() {
		t.Fatalf("total income = %s, want 0", got.TotalIncome)
	}
	if !got.NetBalance.Equal(decimal.RequireFromString("-3.50")) {
		t.Fatalf("net balance = %s, want -3.50", got.NetBalance)
	}
	ct, ok := got.TotalsPerCategory["Groceries"]
	if !ok {
		t.Fatal("Groceries missing from per-category totals")
	}
	if !ct.Total.Equal(decimal.RequireFromString("3.50")) || ct.Type != core.Expense || ct.Icon != "cart" {
		t.Fatalf("Groceries total mismatch: %+v", ct)
	}
	if got.TransactionCount != 1 {
		t.Fatalf("transaction count = %d, want 1", got.TransactionCount)
	}
}

func TestTotalsAdditivity(t *testing.T) {
	store, engine := seedLedger(t)
	ctx := context.Background()

	salary, _ := store.InsertCategory(ctx, core.Category{Name: "Salary", Type: core.Income, UserID: "u1"})
	rent, _ := store.InsertCategory(ctx, core.Category{Name: "Rent", Type: core.Expense, UserID: "u1"})
	food, _ := store.InsertCategory(ctx, core.Category{Name: "Food", Type: core.Expense, UserID: "u1"})

	addTx(t, store, "u1", "Pay", "2500.00", salary, core.NewDate(2024, 3, 1))
	addTx(t, store, "u1", "Bonus", "100.10", salary, core.NewDate(2024, 3, 15))
	addTx(t, store, "u1", "March rent", "900.00", rent, core.NewDate(2024, 3, 2))
	addTx(t, store, "u1", "Dinner", "45.25", food, core.NewDate(2024, 3, 8))

	got, err := engine.Totals(ctx, "u1", core.Date{}, core.Date{})
	if err != nil {
		t.Fatalf("totals: %v", err)
	}

	wantIncome := decimal.RequireFromString("2600.10")
	wantExpense := decimal.RequireFromString("945.25")
	if !got.TotalIncome.Equal(wantIncome) {
		t.Fatalf("income = %s, want %s", got.TotalIncome, wantIncome)
	}
	if !got.TotalExpense.Equal(wantExpense) {
		t.Fatalf("expense = %s, want %s", got.TotalExpense, wantExpense)
	}
	if !got.NetBalance.Equal(wantIncome.Sub(wantExpense)) {
		t.Fatalf("net = %s, want %s", got.NetBalance, wantIncome.Sub(wantExpense))
	}
	if got.TransactionCount != 4 {
		t.Fatalf("count = %d, want 4", got.TransactionCount)
	}

	// Every row is in exactly one of the two by-type maps.
	if len(got.IncomeByCategory) != 1 || len(got.ExpenseByCategory) != 2 {
		t.Fatalf("by-type category split mismatch: income %v expense %v",
			got.IncomeByCategory, got.ExpenseByCategory)
	}
	if !got.IncomeByCategory["Salary"].Equal(wantIncome) {
		t.Fatalf("Salary income = %s, want %s", got.IncomeByCategory["Salary"], wantIncome)
	}
}

func TestTotalsRangeBoundsInclusive(t *testing.T) {
	store, engine := seedLedger(t)
	ctx := context.Background()

	food, _ := store.InsertCategory(ctx, core.Category{Name: "Food", Type: core.Expense, UserID: "u1"})
	addTx(t, store, "u1", "before", "1.00", food, core.NewDate(2024, 1, 31))
	addTx(t, store, "u1", "first", "2.00", food, core.NewDate(2024, 2, 1))
	addTx(t, store, "u1", "last", "4.00", food, core.NewDate(2024, 2, 29))
	addTx(t, store, "u1", "after", "8.00", food, core.NewDate(2024, 3, 1))

	got, err := engine.Totals(ctx, "u1", core.NewDate(2024, 2, 1), core.NewDate(2024, 2, 29))
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if got.TransactionCount != 2 {
		t.Fatalf("count = %d, want 2 (bounds inclusive)", got.TransactionCount)
	}
	if !got.TotalExpense.Equal(decimal.RequireFromString("6.00")) {
		t.Fatalf("expense = %s, want 6.00", got.TotalExpense)
	}
}

func TestTotalsOneSidedRange(t *testing.T) {
	store, engine := seedLedger(t)
	ctx := context.Background()

	food, _ := store.InsertCategory(ctx, core.Category{Name: "Food", Type: core.Expense, UserID: "u1"})
	addTx(t, store, "u1", "old", "10.00", food, core.NewDate(2023, 1, 1))
	addTx(t, store, "u1", "recent", "10.00", food, core.NewDate(2024, 6, 1))

	tests := []struct {
		name      string
		from, to  core.Date
		wantCount int
		wantTotal string
	}{
		{"start only", core.NewDate(2024, 1, 1), core.Date{}, 1, "10.00"},
		{"end only", core.Date{}, core.NewDate(2023, 12, 31), 1, "10.00"},
		{"both", core.NewDate(2023, 1, 1), core.NewDate(2024, 12, 31), 2, "20.00"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := engine.Totals(ctx, "u1", tc.from, tc.to)
			if err != nil {
				t.Fatalf("totals: %v", err)
			}
			if got.TransactionCount != tc.wantCount {
				t.Fatalf("count = %d, want %d", got.TransactionCount, tc.wantCount)
			}
			if !got.TotalExpense.Equal(decimal.RequireFromString(tc.wantTotal)) {
				t.Fatalf("expense = %s, want %s", got.TotalExpense, tc.wantTotal)
			}
		})
	}
}

func TestMonthlySummary(t *testing.T) {
	store, engine := seedLedger(t)
	ctx := context.Background()

	food, _ := store.InsertCategory(ctx, core.Category{Name: "Food", Type: core.Expense, UserID: "u1"})
	addTx(t, store, "u1", "leap day", "5.00", food, core.NewDate(2024, 2, 29))
	addTx(t, store, "u1", "march", "7.00", food, core.NewDate(2024, 3, 1))

	got, err := engine.MonthlySummary(ctx, "u1", 2024, 2)
	if err != nil {
		t.Fatalf("monthly summary: %v", err)
	}
	if got.TransactionCount != 1 {
		t.Fatalf("leap february should cover 02-29, count = %d", got.TransactionCount)
	}

	if _, err := engine.MonthlySummary(ctx, "u1", 2024, 13); !core.IsValidation(err) {
		t.Fatalf("month 13 expected validation error, got %v", err)
	}
	if _, err := engine.MonthlySummary(ctx, "u1", 2024, 0); !core.IsValidation(err) {
		t.Fatalf("month 0 expected validation error, got %v", err)
	}
}

func TestFoldUnknownCategory(t *testing.T) {
	txs := []core.Transaction{
		{Amount: decimal.RequireFromString("9.99"), Type: core.Expense, Category: nil},
	}
	got := Fold(txs)
	ct, ok := got.TotalsPerCategory["Unknown"]
	if !ok {
		t.Fatal("rows without a category should fold under 'Unknown'")
	}
	if !ct.Total.Equal(decimal.RequireFromString("9.99")) {
		t.Fatalf("Unknown total = %s, want 9.99", ct.Total)
	}
}

func TestFoldEmpty(t *testing.T) {
	got := Fold(nil)
	if got.TransactionCount != 0 {
		t.Fatalf("count = %d, want 0", got.TransactionCount)
	}
	if !got.TotalIncome.IsZero() || !got.TotalExpense.IsZero() || !got.NetBalance.IsZero() {
		t.Fatal("empty fold should produce zero aggregates")
	}
	if got.TotalsPerCategory == nil {
		t.Fatal("maps should be allocated even for an empty fold")
	}
}

var _ TransactionReader = (*memory.Store)(nil)
