// Package services implements the category registry and the transaction
// ledger. Both are stateless: every operation is a self-contained
// read-modify-write against an injected record store.
package services

import (
	"context"

	"fintrack/internal/core"
)

// Ports for the persistent record store. The SQLite repository and the
// in-memory store both implement them; services never see raw rows.
type (
	CategoryStore interface {
		// InsertCategory persists a new category and returns it with the
		// store-assigned ID. A (user, name, type) uniqueness violation
		// comes back as a conflict error.
		InsertCategory(ctx context.Context, c core.Category) (core.Category, error)

		// GetCategory fetches a category by ID regardless of owner.
		// Returns nil when absent.
		GetCategory(ctx context.Context, id int64) (*core.Category, error)

		// GetVisibleCategory fetches a category by ID scoped to
		// owned-or-shared visibility. Returns nil when absent or invisible.
		GetVisibleCategory(ctx context.Context, id int64, userID string) (*core.Category, error)

		// ListVisibleCategories returns every category owned by the user
		// plus the shared defaults.
		ListVisibleCategories(ctx context.Context, userID string) ([]core.Category, error)

		// UpdateCategory applies a patch scoped to id AND owner in a
		// single statement. Returns nil when no row matched.
		UpdateCategory(ctx context.Context, id int64, userID string, patch core.CategoryPatch) (*core.Category, error)

		// DeleteCategory removes a category scoped to id AND owner in a
		// single statement. Returns the deleted record, nil when no row
		// matched.
		DeleteCategory(ctx context.Context, id int64, userID string) (*core.Category, error)
	}

	TransactionStore interface {
		// InsertTransaction persists a new transaction and returns it
		// hydrated with the store-assigned ID, created_at and, when
		// resolvable, the referenced category summary.
		InsertTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)

		// GetTransaction fetches a transaction scoped to id AND owner.
		// Returns nil when absent.
		GetTransaction(ctx context.Context, id int64, userID string) (*core.Transaction, error)

		// ListTransactions returns the user's transactions, filtered and
		// sorted by date descending with created_at descending as the
		// tie-breaker.
		ListTransactions(ctx context.Context, userID string, f core.TransactionFilter) ([]core.Transaction, error)

		// UpdateTransaction applies a patch scoped to id AND owner in a
		// single statement. Returns nil when no row matched.
		UpdateTransaction(ctx context.Context, id int64, userID string, patch core.TransactionPatch) (*core.Transaction, error)

		// DeleteTransaction removes a transaction scoped to id AND owner.
		// Returns the deleted record, nil when no row matched.
		DeleteTransaction(ctx context.Context, id int64, userID string) (*core.Transaction, error)

		// DeleteAllTransactions removes every transaction owned by the
		// user and returns the deleted set, possibly empty.
		DeleteAllTransactions(ctx context.Context, userID string) ([]core.Transaction, error)

		// CountTransactionsByCategory counts references to a category
		// across all users.
		CountTransactionsByCategory(ctx context.Context, categoryID int64) (int64, error)
	}

	// Store is the full record-store surface both services share.
	Store interface {
		CategoryStore
		TransactionStore
	}
)
