// Package storage is the SQLite record store. It maps raw rows into
// typed domain records, failing loudly on corrupt data instead of
// silently defaulting, and keeps every user-scoped mutation a single
// statement filtered by id AND owner.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const categoryColumns = "id, name, type, icon, user_id, created_at"

// InsertCategory implements services.CategoryStore. A violation of the
// unique_user_category index is reported as a conflict.
func (r *SQLiteRepository) InsertCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (name, type, icon, user_id) VALUES (?, ?, ?, ?)`,
		c.Name, c.Type.String(), c.Icon, nullableUser(c.UserID))
	if err != nil {
		if isUniqueViolation(err) {
			return core.Category{}, core.NewConflictf(
				"category '%s' of type '%s' already exists for this user", c.Name, c.Type)
		}
		return core.Category{}, core.NewStore("insert category", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Category{}, core.NewStore("insert category id", err)
	}

	created, err := r.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, err
	}
	if created == nil {
		return core.Category{}, core.NewStore("insert category", fmt.Errorf("row %d vanished after insert", id))
	}
	return *created, nil
}

// GetCategory fetches a category by ID regardless of owner.
func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (*core.Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
	return scanCategoryRow(row)
}

// GetVisibleCategory fetches a category scoped to owned-or-shared
// visibility in a single null-aware filter.
func (r *SQLiteRepository) GetVisibleCategory(ctx context.Context, id int64, userID string) (*core.Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories
		 WHERE id = ? AND (user_id = ? OR user_id IS NULL)`, id, userID)
	return scanCategoryRow(row)
}

func (r *SQLiteRepository) ListVisibleCategories(ctx context.Context, userID string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories
		 WHERE user_id = ? OR user_id IS NULL
		 ORDER BY id`, userID)
	if err != nil {
		return nil, core.NewStore("list categories", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewStore("list categories", err)
	}
	return out, nil
}

// UpdateCategory applies a patch scoped to id AND owner in one
// statement; shared defaults (user_id IS NULL) can never match.
func (r *SQLiteRepository) UpdateCategory(ctx context.Context, id int64, userID string, patch core.CategoryPatch) (*core.Category, error) {
	var (
		sets []string
		args []any
	)
	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Icon != nil {
		sets = append(sets, "icon = ?")
		args = append(args, *patch.Icon)
	}
	if len(sets) == 0 {
		return r.GetVisibleCategory(ctx, id, userID)
	}

	args = append(args, id, userID)
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET `+strings.Join(sets, ", ")+` WHERE id = ? AND user_id = ?`,
		args...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, core.NewConflict("category with this name and type already exists for this user")
		}
		return nil, core.NewStore("update category", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, core.NewStore("update category", err)
	}
	if n == 0 {
		return nil, nil
	}
	return r.GetCategory(ctx, id)
}

// DeleteCategory removes a category scoped to id AND owner and returns
// the deleted record.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id int64, userID string) (*core.Category, error) {
	existing, err := r.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil || existing.Shared() || existing.UserID != userID {
		return nil, nil
	}

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return nil, core.NewStore("delete category", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, core.NewStore("delete category", err)
	}
	if n == 0 {
		return nil, nil
	}
	return existing, nil
}

const transactionColumns = `t.id, t.title, t.amount, t.payment_method, t.category_id, t.type,
	t.description, t.document_url, t.date, t.user_id, t.created_at,
	c.id, c.name, c.type, c.icon`

const transactionJoin = ` FROM transactions t
	LEFT JOIN categories c ON c.id = t.category_id`

func (r *SQLiteRepository) InsertTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions
		 (title, amount, payment_method, category_id, type, description, document_url, date, user_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.Title, tx.Amount.String(), tx.PaymentMethod, tx.CategoryID, tx.Type.String(),
		tx.Description, tx.DocumentURL, tx.Date.String(), tx.UserID)
	if err != nil {
		return core.Transaction{}, core.NewStore("insert transaction", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, core.NewStore("insert transaction id", err)
	}

	created, err := r.GetTransaction(ctx, id, tx.UserID)
	if err != nil {
		return core.Transaction{}, err
	}
	if created == nil {
		return core.Transaction{}, core.NewStore("insert transaction", fmt.Errorf("row %d vanished after insert", id))
	}
	return *created, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64, userID string) (*core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+transactionJoin+`
		 WHERE t.id = ? AND t.user_id = ?`, id, userID)
	return scanTransactionRow(row)
}

// ListTransactions returns the user's transactions joined with their
// category summary, most recent first. A date range takes precedence
// over a type filter; the row id breaks created_at ties so the order
// stays deterministic.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string, f core.TransactionFilter) ([]core.Transaction, error) {
	query := `SELECT ` + transactionColumns + transactionJoin + ` WHERE t.user_id = ?`
	args := []any{userID}

	if f.HasRange() {
		if !f.From.IsEmpty() {
			query += ` AND t.date >= ?`
			args = append(args, f.From.String())
		}
		if !f.To.IsEmpty() {
			query += ` AND t.date <= ?`
			args = append(args, f.To.String())
		}
	} else if f.Type != "" {
		query += ` AND t.type = ?`
		args = append(args, f.Type.String())
	}

	query += ` ORDER BY t.date DESC, t.created_at DESC, t.id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, core.NewStore("list transactions", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewStore("list transactions", err)
	}
	return out, nil
}

// UpdateTransaction applies a patch scoped to id AND owner in a single
// statement; existence and ownership are decided by the affected row
// count, not a separate read.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, id int64, userID string, patch core.TransactionPatch) (*core.Transaction, error) {
	var (
		sets []string
		args []any
	)
	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Amount != nil {
		sets = append(sets, "amount = ?")
		args = append(args, patch.Amount.String())
	}
	if patch.PaymentMethod != nil {
		sets = append(sets, "payment_method = ?")
		args = append(args, *patch.PaymentMethod)
	}
	if patch.CategoryID != nil {
		sets = append(sets, "category_id = ?")
		args = append(args, *patch.CategoryID)
	}
	if patch.Type != nil {
		sets = append(sets, "type = ?")
		args = append(args, patch.Type.String())
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.DocumentURL != nil {
		sets = append(sets, "document_url = ?")
		args = append(args, *patch.DocumentURL)
	}
	if patch.Date != nil {
		sets = append(sets, "date = ?")
		args = append(args, patch.Date.String())
	}
	if len(sets) == 0 {
		return r.GetTransaction(ctx, id, userID)
	}

	args = append(args, id, userID)
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET `+strings.Join(sets, ", ")+` WHERE id = ? AND user_id = ?`,
		args...)
	if err != nil {
		return nil, core.NewStore("update transaction", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, core.NewStore("update transaction", err)
	}
	if n == 0 {
		return nil, nil
	}
	return r.GetTransaction(ctx, id, userID)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64, userID string) (*core.Transaction, error) {
	existing, err := r.GetTransaction(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return nil, core.NewStore("delete transaction", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, core.NewStore("delete transaction", err)
	}
	if n == 0 {
		return nil, nil
	}
	return existing, nil
}

func (r *SQLiteRepository) DeleteAllTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	deleted, err := r.ListTransactions(ctx, userID, core.TransactionFilter{})
	if err != nil {
		return nil, err
	}

	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE user_id = ?`, userID); err != nil {
		return nil, core.NewStore("delete all transactions", err)
	}
	return deleted, nil
}

func (r *SQLiteRepository) CountTransactionsByCategory(ctx context.Context, categoryID int64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE category_id = ?`, categoryID).Scan(&n)
	if err != nil {
		return 0, core.NewStore("count category references", err)
	}
	return n, nil
}

// RecordLedgerEvent appends a consumed ledger event to the audit table.
func (r *SQLiteRepository) RecordLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ledger_events (event, transaction_id, user_id, amount, type, date, occurred_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.Event, msg.TransactionID, msg.UserID, msg.Amount, msg.Type, msg.Date, msg.Timestamp)
	if err != nil {
		return core.NewStore("record ledger event", err)
	}
	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanCategoryRow(row *sql.Row) (*core.Category, error) {
	c, err := scanCategory(row)
	if err != nil {
		if core.KindOf(err) == core.KindNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func scanCategory(s scanner) (core.Category, error) {
	var (
		c         core.Category
		typ       string
		userID    sql.NullString
		createdAt time.Time
	)
	if err := s.Scan(&c.ID, &c.Name, &typ, &c.Icon, &userID, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return core.Category{}, core.NewNotFound("category row not found")
		}
		return core.Category{}, core.NewStore("scan category", err)
	}
	c.Type = core.CategoryType(typ)
	c.UserID = userID.String
	c.CreatedAt = createdAt
	return c, nil
}

func scanTransactionRow(row *sql.Row) (*core.Transaction, error) {
	tx, err := scanTransaction(row)
	if err != nil {
		if core.KindOf(err) == core.KindNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &tx, nil
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		tx        core.Transaction
		amount    string
		typ       string
		date      string
		createdAt time.Time
		catID     sql.NullInt64
		catName   sql.NullString
		catType   sql.NullString
		catIcon   sql.NullString
	)
	err := s.Scan(&tx.ID, &tx.Title, &amount, &tx.PaymentMethod, &tx.CategoryID, &typ,
		&tx.Description, &tx.DocumentURL, &date, &tx.UserID, &createdAt,
		&catID, &catName, &catType, &catIcon)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.Transaction{}, core.NewNotFound("transaction row not found")
		}
		return core.Transaction{}, core.NewStore("scan transaction", err)
	}

	tx.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return core.Transaction{}, core.NewStore("scan transaction",
			fmt.Errorf("row %d: bad amount %q: %w", tx.ID, amount, err))
	}
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		return core.Transaction{}, core.NewStore("scan transaction",
			fmt.Errorf("row %d: bad date %q: %w", tx.ID, date, err))
	}
	tx.Date = core.Date{Time: parsed}
	tx.Type = core.CategoryType(typ)
	tx.CreatedAt = createdAt

	if catID.Valid {
		tx.Category = &core.Category{
			ID:     catID.Int64,
			Name:   catName.String,
			Type:   core.CategoryType(catType.String),
			Icon:   catIcon.String,
			UserID: "",
		}
	}
	return tx, nil
}

func nullableUser(userID string) any {
	if userID == "" {
		return nil
	}
	return userID
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique")
}
