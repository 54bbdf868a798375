package services

import (
	"context"
	"log/slog"
	"strings"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"

	"github.com/shopspring/decimal"
)

// TransactionService is the ledger: it validates mutations against
// category ownership rules, stamps each transaction's type from its
// resolved category, and publishes change events best-effort.
type TransactionService struct {
	store  Store
	events *amqp.Client
}

func NewTransactionService(store Store, events *amqp.Client) *TransactionService {
	return &TransactionService{
		store:  store,
		events: events,
	}
}

// CreateTransactionParams carries the caller-supplied fields for Create.
// A zero Date means "today".
type CreateTransactionParams struct {
	Title         string
	Amount        decimal.Decimal
	PaymentMethod string
	CategoryID    int64
	Description   string
	DocumentURL   string
	Date          core.Date
}

// Create validates the fields, resolves the referenced category under
// the owned-or-shared visibility rule, derives the transaction type
// from it and inserts the record.
func (s *TransactionService) Create(ctx context.Context, userID string, p CreateTransactionParams) (core.Transaction, error) {
	tx := core.Transaction{
		Title:         strings.TrimSpace(p.Title),
		Amount:        p.Amount,
		PaymentMethod: strings.TrimSpace(p.PaymentMethod),
		CategoryID:    p.CategoryID,
		Description:   p.Description,
		DocumentURL:   p.DocumentURL,
		Date:          p.Date,
		UserID:        userID,
	}
	if tx.Date.IsEmpty() {
		tx.Date = core.Today()
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	cat, err := s.resolveCategory(ctx, p.CategoryID, userID)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.Type = cat.Type

	created, err := s.store.InsertTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction created",
		log.FieldComponent, log.ComponentLedger,
		log.FieldTransactionID, created.ID,
		"title", created.Title,
		log.FieldAmount, created.Amount.String(),
		"transaction_type", created.Type.String(),
		log.FieldCategoryID, created.CategoryID,
		log.FieldUserID, userID)

	s.publishEvent(ctx, amqp.EventTransactionCreated, created)

	return created, nil
}

// Update applies a partial patch. When the patch moves the transaction
// to another category, the category is re-validated and the type
// re-derived exactly as in Create. Existence and ownership are checked
// atomically by the scoped store update, not by a separate read.
func (s *TransactionService) Update(ctx context.Context, id int64, userID string, patch core.TransactionPatch) (core.Transaction, error) {
	patch.Type = nil // derived below, never caller-supplied

	if patch.IsEmpty() {
		return core.Transaction{}, core.NewValidation("no fields to update")
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return core.Transaction{}, core.NewValidation("transaction title cannot be empty")
	}
	if patch.Amount != nil && !patch.Amount.IsPositive() {
		return core.Transaction{}, core.NewValidation("amount must be greater than 0")
	}

	if patch.CategoryID != nil {
		cat, err := s.resolveCategory(ctx, *patch.CategoryID, userID)
		if err != nil {
			return core.Transaction{}, err
		}
		typ := cat.Type
		patch.Type = &typ
	}

	updated, err := s.store.UpdateTransaction(ctx, id, userID, patch)
	if err != nil {
		return core.Transaction{}, err
	}
	if updated == nil {
		return core.Transaction{}, core.NewNotFoundf("transaction %d not found", id)
	}

	slog.InfoContext(ctx, "Transaction updated",
		log.FieldComponent, log.ComponentLedger,
		log.FieldTransactionID, updated.ID,
		log.FieldUserID, userID)

	s.publishEvent(ctx, amqp.EventTransactionUpdated, *updated)

	return *updated, nil
}

// Get returns the transaction scoped to id AND owner, nil when absent.
func (s *TransactionService) Get(ctx context.Context, id int64, userID string) (*core.Transaction, error) {
	return s.store.GetTransaction(ctx, id, userID)
}

// List returns the user's transactions most recent first. A date range
// takes precedence over a type filter; a malformed type is rejected.
func (s *TransactionService) List(ctx context.Context, userID string, f core.TransactionFilter) ([]core.Transaction, error) {
	if f.HasRange() {
		f.Type = ""
	} else if f.Type != "" && !f.Type.IsValid() {
		return nil, core.NewValidation("type must be 'income' or 'expense'")
	}
	return s.store.ListTransactions(ctx, userID, f)
}

// Delete removes a single transaction scoped to id AND owner.
func (s *TransactionService) Delete(ctx context.Context, id int64, userID string) (core.Transaction, error) {
	deleted, err := s.store.DeleteTransaction(ctx, id, userID)
	if err != nil {
		return core.Transaction{}, err
	}
	if deleted == nil {
		return core.Transaction{}, core.NewNotFoundf("transaction %d not found", id)
	}

	slog.InfoContext(ctx, "Transaction deleted",
		log.FieldComponent, log.ComponentLedger,
		log.FieldTransactionID, deleted.ID,
		log.FieldUserID, userID)

	s.publishEvent(ctx, amqp.EventTransactionDeleted, *deleted)

	return *deleted, nil
}

// DeleteAll removes every transaction owned by the user and returns the
// deleted set. Irreversible; callers must gate it.
func (s *TransactionService) DeleteAll(ctx context.Context, userID string) ([]core.Transaction, error) {
	deleted, err := s.store.DeleteAllTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "All transactions deleted",
		log.FieldComponent, log.ComponentLedger,
		"count", len(deleted),
		log.FieldUserID, userID)

	for _, tx := range deleted {
		s.publishEvent(ctx, amqp.EventTransactionDeleted, tx)
	}

	return deleted, nil
}

// resolveCategory fetches the category under the visibility rule. An
// invisible or missing category reads as bad caller input, matching the
// create/update contract.
func (s *TransactionService) resolveCategory(ctx context.Context, categoryID int64, userID string) (*core.Category, error) {
	cat, err := s.store.GetVisibleCategory(ctx, categoryID, userID)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, core.NewValidation("category not found or you don't have access to it")
	}
	if !cat.Type.IsValid() {
		return nil, core.NewValidation("invalid category type")
	}
	return cat, nil
}

// publishEvent emits a ledger change event. Failures are logged, never
// surfaced: the write already succeeded locally.
func (s *TransactionService) publishEvent(ctx context.Context, event string, tx core.Transaction) {
	if s.events == nil {
		return
	}
	msg := amqp.NewLedgerEventMessage(event, tx)
	if err := s.events.PublishLedgerEvent(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			log.FieldComponent, log.ComponentLedger,
			log.FieldEvent, event,
			log.FieldTransactionID, tx.ID,
			log.FieldError, err)
	}
}
