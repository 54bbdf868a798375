package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  CategoryType = "income"
	Expense CategoryType = "expense"
)

type (
	CategoryType string

	Date struct {
		time.Time
	}

	// Category is a spending or income bucket. A category with an empty
	// UserID is a shared default, visible to every user and immutable
	// through user-scoped operations.
	Category struct {
		ID        int64
		Name      string
		Type      CategoryType
		Icon      string
		UserID    string
		CreatedAt time.Time
	}

	// Transaction is a single ledger entry. Type is always derived from
	// the referenced category at write time, never set directly.
	Transaction struct {
		ID            int64
		Title         string
		Amount        decimal.Decimal
		PaymentMethod string
		CategoryID    int64
		Type          CategoryType
		Description   string
		DocumentURL   string
		Date          Date
		UserID        string
		CreatedAt     time.Time
		Category      *Category
	}
)

// IsValid reports whether the category type is one of the known enum values.
func (t CategoryType) IsValid() bool {
	return t == Income || t == Expense
}

func (t CategoryType) String() string {
	return string(t)
}

// Shared reports whether the category is a shared default (no owning user).
func (c Category) Shared() bool {
	return c.UserID == ""
}

// VisibleTo reports whether the category can be read and referenced by
// the given user: either owned by them or shared.
func (c Category) VisibleTo(userID string) bool {
	return c.Shared() || c.UserID == userID
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return NewValidation("category name is required")
	}
	if !c.Type.IsValid() {
		return NewValidation("category type must be 'income' or 'expense'")
	}
	return nil
}

func (tx Transaction) Validate() error {
	if strings.TrimSpace(tx.Title) == "" {
		return NewValidation("transaction title is required")
	}
	if !tx.Amount.IsPositive() {
		return NewValidation("amount must be greater than 0")
	}
	if strings.TrimSpace(tx.PaymentMethod) == "" {
		return NewValidation("payment method is required")
	}
	if tx.CategoryID == 0 {
		return NewValidation("category id is required")
	}
	return nil
}

// NewDate creates a calendar date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar date.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, NewValidation("invalid date format, expected YYYY-MM-DD")
	}
	return Date{Time: t}, nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// IsEmpty reports whether the date was never set.
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// MonthBounds returns the first and last calendar day of (year, month),
// accounting for variable month lengths and leap years.
func MonthBounds(year, month int) (Date, Date, error) {
	if month < 1 || month > 12 {
		return Date{}, Date{}, NewValidation("month must be between 1 and 12")
	}
	first := NewDate(year, month, 1)
	last := Date{Time: first.AddDate(0, 1, -1)}
	return first, last, nil
}
