package core

import "github.com/shopspring/decimal"

// CategoryTotal is the per-category slice of a Summary: the summed
// amount plus the category's display metadata.
type CategoryTotal struct {
	Total decimal.Decimal `json:"total"`
	Type  CategoryType    `json:"type"`
	Icon  string          `json:"icon"`
}

// Summary is the aggregate the engine folds a transaction set into.
// TotalIncome, TotalExpense and NetBalance are rounded to 2 decimal
// places; per-row amounts are never rounded so errors cannot compound.
type Summary struct {
	TotalsPerCategory map[string]CategoryTotal   `json:"totals_per_category"`
	IncomeByCategory  map[string]decimal.Decimal `json:"income_by_category"`
	ExpenseByCategory map[string]decimal.Decimal `json:"expense_by_category"`
	TotalIncome       decimal.Decimal            `json:"total_income"`
	TotalExpense      decimal.Decimal            `json:"total_expense"`
	NetBalance        decimal.Decimal            `json:"net_balance"`
	TransactionCount  int                        `json:"transaction_count"`
}

// NewSummary returns an empty summary with allocated maps so callers
// can fold into it directly.
func NewSummary() Summary {
	return Summary{
		TotalsPerCategory: make(map[string]CategoryTotal),
		IncomeByCategory:  make(map[string]decimal.Decimal),
		ExpenseByCategory: make(map[string]decimal.Decimal),
		TotalIncome:       decimal.Zero,
		TotalExpense:      decimal.Zero,
		NetBalance:        decimal.Zero,
	}
}
