// Package analysis folds transaction sets into financial summaries:
// per-category totals, income/expense subtotals, net balance and counts.
package analysis

import (
	"context"
	"log/slog"

	"fintrack/internal/core"
	"fintrack/internal/log"

	"github.com/shopspring/decimal"
)

// TransactionReader is the slice of the record store the engine needs.
type TransactionReader interface {
	ListTransactions(ctx context.Context, userID string, f core.TransactionFilter) ([]core.Transaction, error)
}

// Engine computes summaries from the ledger. It carries no cross-call
// state; every call is a read plus a fold.
type Engine struct {
	transactions TransactionReader
}

func NewEngine(transactions TransactionReader) *Engine {
	return &Engine{transactions: transactions}
}

// Totals aggregates the user's transactions, optionally bounded by an
// inclusive date range. Each bound applies on its own, so a start-only
// or end-only range still filters. Amounts are summed exactly per
// category and only the income/expense/net aggregates are rounded to 2
// decimal places, so per-row rounding error cannot compound.
func (e *Engine) Totals(ctx context.Context, userID string, from, to core.Date) (core.Summary, error) {
	filter := core.TransactionFilter{From: from, To: to}

	txs, err := e.transactions.ListTransactions(ctx, userID, filter)
	if err != nil {
		return core.Summary{}, err
	}

	summary := Fold(txs)

	slog.InfoContext(ctx, "Computed totals",
		log.FieldComponent, log.ComponentAnalysis,
		log.FieldUserID, userID,
		"transaction_count", summary.TransactionCount,
		"total_income", summary.TotalIncome.String(),
		"total_expense", summary.TotalExpense.String())

	return summary, nil
}

// MonthlySummary computes the first and last calendar day of the month
// and delegates to Totals with that inclusive range.
func (e *Engine) MonthlySummary(ctx context.Context, userID string, year, month int) (core.Summary, error) {
	first, last, err := core.MonthBounds(year, month)
	if err != nil {
		return core.Summary{}, err
	}
	return e.Totals(ctx, userID, first, last)
}

// Fold aggregates a transaction set into a Summary. Exposed separately
// so callers holding an already-filtered projection can reuse it.
func Fold(txs []core.Transaction) core.Summary {
	summary := core.NewSummary()
	income := decimal.Zero
	expense := decimal.Zero

	for _, tx := range txs {
		name := "Unknown"
		icon := ""
		if tx.Category != nil && tx.Category.Name != "" {
			name = tx.Category.Name
			icon = tx.Category.Icon
		}

		total := summary.TotalsPerCategory[name]
		total.Total = total.Total.Add(tx.Amount)
		total.Type = tx.Type
		total.Icon = icon
		summary.TotalsPerCategory[name] = total

		// Every row lands in exactly one of the two subtotals: the type
		// was derived from the category at write time, so anything that
		// is not income counts as expense.
		if tx.Type == core.Income {
			income = income.Add(tx.Amount)
			summary.IncomeByCategory[name] = summary.IncomeByCategory[name].Add(tx.Amount)
		} else {
			expense = expense.Add(tx.Amount)
			summary.ExpenseByCategory[name] = summary.ExpenseByCategory[name].Add(tx.Amount)
		}
	}

	summary.TotalIncome = income.Round(2)
	summary.TotalExpense = expense.Round(2)
	summary.NetBalance = income.Sub(expense).Round(2)
	summary.TransactionCount = len(txs)
	return summary
}
