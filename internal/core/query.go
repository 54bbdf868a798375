package core

import "github.com/shopspring/decimal"

// CategoryPatch is a partial category update. Nil means leave unchanged.
type CategoryPatch struct {
	Name *string
	Icon *string
}

func (p CategoryPatch) IsEmpty() bool {
	return p.Name == nil && p.Icon == nil
}

// TransactionPatch is a partial transaction update. Nil means leave
// unchanged. Type is not caller-settable: the ledger fills it in when
// CategoryID changes, so the transaction's type always mirrors its
// resolved category.
type TransactionPatch struct {
	Title         *string
	Amount        *decimal.Decimal
	PaymentMethod *string
	CategoryID    *int64
	Description   *string
	DocumentURL   *string
	Date          *Date

	Type *CategoryType
}

// IsEmpty reports whether the patch carries no caller-supplied fields.
func (p TransactionPatch) IsEmpty() bool {
	return p.Title == nil && p.Amount == nil && p.PaymentMethod == nil &&
		p.CategoryID == nil && p.Description == nil && p.DocumentURL == nil &&
		p.Date == nil
}

// TransactionFilter narrows a ledger listing. At most one filter kind
// applies: a date range takes precedence over a type filter.
type TransactionFilter struct {
	Type  CategoryType
	From  Date
	To    Date
	Limit int
}

// HasRange reports whether at least one inclusive date bound is set.
// Each bound filters on its own, so a start-only or end-only range is
// still a range.
func (f TransactionFilter) HasRange() bool {
	return !f.From.IsEmpty() || !f.To.IsEmpty()
}
