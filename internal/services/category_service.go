package services

import (
	"context"
	"log/slog"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// CategoryService is the category registry: it owns category records,
// enforces the income/expense enum and per-user name+type uniqueness,
// and governs deletion safety.
type CategoryService struct {
	categories   CategoryStore
	transactions TransactionStore
}

func NewCategoryService(categories CategoryStore, transactions TransactionStore) *CategoryService {
	return &CategoryService{
		categories:   categories,
		transactions: transactions,
	}
}

// CreateCategoryParams carries the caller-supplied fields for Create.
type CreateCategoryParams struct {
	Name string
	Type core.CategoryType
	Icon string
}

// Create validates and inserts a user-owned category. Uniqueness of
// (owner, name, type) is enforced by the store's constraint, not by a
// racy pre-read: a duplicate insert fails with a conflict.
func (s *CategoryService) Create(ctx context.Context, userID string, p CreateCategoryParams) (core.Category, error) {
	c := core.Category{
		Name:   strings.TrimSpace(p.Name),
		Type:   p.Type,
		Icon:   p.Icon,
		UserID: userID,
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	created, err := s.categories.InsertCategory(ctx, c)
	if err != nil {
		return core.Category{}, err
	}

	slog.InfoContext(ctx, "Category created",
		log.FieldComponent, log.ComponentCategories,
		log.FieldCategoryID, created.ID,
		"category_name", created.Name,
		"category_type", created.Type.String(),
		log.FieldUserID, userID)

	return created, nil
}

// Update patches a category's name and/or icon. Shared defaults are
// immutable; another user's category is a permission failure. The
// mutation itself is a single statement scoped to id AND owner, so the
// pre-read only improves the error message.
func (s *CategoryService) Update(ctx context.Context, id int64, userID string, patch core.CategoryPatch) (core.Category, error) {
	if patch.IsEmpty() {
		return core.Category{}, core.NewValidation("no fields to update")
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return core.Category{}, core.NewValidation("category name cannot be empty")
	}

	existing, err := s.categories.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, err
	}
	if existing == nil {
		return core.Category{}, core.NewNotFoundf("category %d not found", id)
	}
	if existing.Shared() {
		return core.Category{}, core.NewValidation("cannot update default categories")
	}
	if existing.UserID != userID {
		return core.Category{}, core.NewPermission("category does not belong to user")
	}

	updated, err := s.categories.UpdateCategory(ctx, id, userID, patch)
	if err != nil {
		return core.Category{}, err
	}
	if updated == nil {
		return core.Category{}, core.NewNotFoundf("category %d not found", id)
	}

	slog.InfoContext(ctx, "Category updated",
		log.FieldComponent, log.ComponentCategories,
		log.FieldCategoryID, updated.ID,
		"category_name", updated.Name,
		log.FieldUserID, userID)

	return *updated, nil
}

// Delete removes a user-owned category. The reference check fails
// closed: when the transaction count cannot be verified the delete is
// refused rather than risking a dangling reference.
func (s *CategoryService) Delete(ctx context.Context, id int64, userID string) (core.Category, error) {
	existing, err := s.categories.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, err
	}
	if existing == nil {
		return core.Category{}, core.NewNotFoundf("category %d not found", id)
	}
	if existing.Shared() {
		return core.Category{}, core.NewValidation("cannot delete default categories")
	}
	if existing.UserID != userID {
		return core.Category{}, core.NewPermission("category does not belong to user")
	}

	refs, err := s.transactions.CountTransactionsByCategory(ctx, id)
	if err != nil {
		return core.Category{}, core.NewStore("verify category references", err)
	}
	if refs > 0 {
		return core.Category{}, core.NewConflictf("cannot delete category; %d transaction(s) reference it", refs)
	}

	deleted, err := s.categories.DeleteCategory(ctx, id, userID)
	if err != nil {
		return core.Category{}, err
	}
	if deleted == nil {
		// Lost a race with another delete of the same row.
		return core.Category{}, core.NewNotFoundf("category %d not found", id)
	}

	slog.InfoContext(ctx, "Category deleted",
		log.FieldComponent, log.ComponentCategories,
		log.FieldCategoryID, deleted.ID,
		"category_name", deleted.Name,
		log.FieldUserID, userID)

	return *deleted, nil
}

// Get returns a category visible to the user, nil when absent.
func (s *CategoryService) Get(ctx context.Context, id int64, userID string) (*core.Category, error) {
	return s.categories.GetVisibleCategory(ctx, id, userID)
}

// ListVisible returns the user's own categories plus the shared
// defaults. Ordering follows the store default.
func (s *CategoryService) ListVisible(ctx context.Context, userID string) ([]core.Category, error) {
	return s.categories.ListVisibleCategories(ctx, userID)
}
