package worker

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/log"
)

// AuditRecorder persists a ledger event into the audit trail.
type AuditRecorder interface {
	RecordLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error
}

// AuditWorker consumes ledger events published by the API and appends
// them to the audit trail. Events are best-effort on the publishing
// side, so the worker only has to be correct, not complete.
type AuditWorker struct {
	recorder AuditRecorder
}

func NewAuditWorker(recorder AuditRecorder) *AuditWorker {
	return &AuditWorker{recorder: recorder}
}

// HandleLedgerEvent processes a single ledger event message. A non-nil
// return requeues the message.
func (w *AuditWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	if msg == nil {
		return fmt.Errorf("nil ledger event message")
	}
	if !validEvent(msg.Event) {
		slog.WarnContext(ctx, "Dropping ledger event with unknown type",
			log.FieldComponent, log.ComponentWorker,
			log.FieldEvent, msg.Event,
			log.FieldTransactionID, msg.TransactionID)
		return nil
	}

	slog.InfoContext(ctx, "Processing ledger event",
		log.FieldComponent, log.ComponentWorker,
		log.FieldEvent, msg.Event,
		log.FieldTransactionID, msg.TransactionID,
		log.FieldUserID, msg.UserID)

	if err := w.recorder.RecordLedgerEvent(ctx, msg); err != nil {
		return fmt.Errorf("record ledger event %s for transaction %d: %w", msg.Event, msg.TransactionID, err)
	}

	return nil
}

func validEvent(event string) bool {
	switch event {
	case amqp.EventTransactionCreated, amqp.EventTransactionUpdated, amqp.EventTransactionDeleted:
		return true
	}
	return false
}
