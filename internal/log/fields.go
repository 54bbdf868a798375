package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldClientIP  = "client_ip"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldError     = "error"
	FieldOperation = "operation"

	FieldUserID        = "user_id"
	FieldTransactionID = "transaction_id"
	FieldCategoryID    = "category_id"
	FieldAmount        = "amount"
	FieldEvent         = "event"
)

// Components defines standard component names
const (
	ComponentApp        = "app"
	ComponentHTTP       = "http"
	ComponentCategories = "categories"
	ComponentLedger     = "ledger"
	ComponentAnalysis   = "analysis"
	ComponentStorage    = "storage"
	ComponentAMQP       = "amqp"
	ComponentWorker     = "worker"
)
