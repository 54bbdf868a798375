package http

import (
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// categoryJSON is the wire shape of a category. Shared defaults carry a
// null user_id.
type categoryJSON struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	Icon      string  `json:"icon,omitempty"`
	UserID    *string `json:"user_id"`
	CreatedAt string  `json:"created_at,omitempty"`
}

func toCategoryJSON(c core.Category) categoryJSON {
	out := categoryJSON{
		ID:   c.ID,
		Name: c.Name,
		Type: c.Type.String(),
		Icon: c.Icon,
	}
	if !c.Shared() {
		userID := c.UserID
		out.UserID = &userID
	}
	if !c.CreatedAt.IsZero() {
		out.CreatedAt = c.CreatedAt.UTC().Format(time.RFC3339)
	}
	return out
}

func toCategoryJSONList(cats []core.Category) []categoryJSON {
	out := make([]categoryJSON, 0, len(cats))
	for _, c := range cats {
		out = append(out, toCategoryJSON(c))
	}
	return out
}

// categoryRefJSON is the embedded category summary on a transaction.
type categoryRefJSON struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Icon string `json:"icon,omitempty"`
}

type transactionJSON struct {
	ID            int64            `json:"id"`
	Title         string           `json:"title"`
	Amount        decimal.Decimal  `json:"amount"`
	PaymentMethod string           `json:"payment_method"`
	CategoryID    int64            `json:"category_id"`
	Type          string           `json:"type"`
	Description   string           `json:"description,omitempty"`
	DocumentURL   string           `json:"document_url,omitempty"`
	Date          string           `json:"date"`
	CreatedAt     string           `json:"created_at,omitempty"`
	Category      *categoryRefJSON `json:"category,omitempty"`
}

func toTransactionJSON(tx core.Transaction) transactionJSON {
	out := transactionJSON{
		ID:            tx.ID,
		Title:         tx.Title,
		Amount:        tx.Amount,
		PaymentMethod: tx.PaymentMethod,
		CategoryID:    tx.CategoryID,
		Type:          tx.Type.String(),
		Description:   tx.Description,
		DocumentURL:   tx.DocumentURL,
		Date:          tx.Date.String(),
	}
	if !tx.CreatedAt.IsZero() {
		out.CreatedAt = tx.CreatedAt.UTC().Format(time.RFC3339)
	}
	if tx.Category != nil {
		out.Category = &categoryRefJSON{
			Name: tx.Category.Name,
			Type: tx.Category.Type.String(),
			Icon: tx.Category.Icon,
		}
	}
	return out
}

func toTransactionJSONList(txs []core.Transaction) []transactionJSON {
	out := make([]transactionJSON, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionJSON(tx))
	}
	return out
}
