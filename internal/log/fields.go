package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldOperation   = "operation"
	FieldError       = "error"
	FieldDuration    = "duration_ms"
	FieldUserID      = "user_id"
	FieldCategoryID  = "category_id"
	FieldBudgetID    = "budget_id"
	FieldAmountCents = "amount_cents"
	FieldGranularity = "granularity"
	FieldBucket      = "bucket"
	FieldState       = "state"
	FieldCount       = "count"
	FieldKey         = "key"
	FieldBackend     = "backend"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentReport    = "report"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentAlert     = "alert"
	ComponentRateLimit = "rate_limit"
	ComponentBackend   = "backend"
	ComponentImport    = "import"
	ComponentExport    = "export"
	ComponentCache     = "cache"
)

// Operations defines standard operation names
const (
	OpSummarize = "summarize"
	OpTrends    = "trends"
	OpBudgets   = "budgets"
	OpForecast  = "forecast"
	OpImport    = "import"
	OpExport    = "export"
	OpPublish   = "publish"
	OpConsume   = "consume"
	OpStartup   = "startup"
	OpShutdown  = "shutdown"
)
