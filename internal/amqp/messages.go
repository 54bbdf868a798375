package amqp

import (
	"encoding/json"
	"time"

	"fintrack/internal/core"
)

// Ledger event names, used as message routing metadata and recorded in
// the audit table.
const (
	EventTransactionCreated = "transaction.created"
	EventTransactionUpdated = "transaction.updated"
	EventTransactionDeleted = "transaction.deleted"
)

// LedgerEventMessage describes a single ledger mutation. It carries
// enough for the audit worker to record the event without a read-back:
// the source row may already be gone by the time it is consumed.
type LedgerEventMessage struct {
	Event         string    `json:"event"`
	TransactionID int64     `json:"transaction_id"`
	UserID        string    `json:"user_id"`
	Amount        string    `json:"amount"`
	Type          string    `json:"type"`
	Date          string    `json:"date"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewLedgerEventMessage builds an event message from a transaction.
func NewLedgerEventMessage(event string, tx core.Transaction) *LedgerEventMessage {
	return &LedgerEventMessage{
		Event:         event,
		TransactionID: tx.ID,
		UserID:        tx.UserID,
		Amount:        tx.Amount.String(),
		Type:          tx.Type.String(),
		Date:          tx.Date.String(),
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventMessageFromJSON creates a message from JSON bytes.
func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
