package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldCorrelationID = "correlation_id"
	FieldUpdateID      = "update_id"
	FieldOperatorID    = "operator_id"
	FieldUsername      = "username"
	FieldRole          = "role"
	FieldAction        = "action"
	FieldScreen        = "screen"
	FieldEmployee      = "employee"
	FieldAmount        = "amount"
	FieldReason        = "reason"
	FieldFineID        = "fine_id"
	FieldMonth         = "month"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldSuccess       = "success"
	FieldError         = "error"
	FieldErrorType     = "error_type"
	FieldOperation     = "operation"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentNavigator = "navigator"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentTelegram  = "telegram"
	ComponentHTTP      = "http"
	ComponentAuth      = "auth"
	ComponentSession   = "session"
	ComponentBackend   = "backend"
	ComponentCLI       = "cli"
)

// Operations defines standard operation names
const (
	OpRecord   = "record"
	OpRemove   = "remove"
	OpRead     = "read"
	OpAppend   = "append"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpHandle   = "handle"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeAuth          = "auth_error"
	ErrorTypeNotFound      = "not_found_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithCorrelationID adds the per-update correlation id
func (f LogFields) WithCorrelationID(id string) LogFields {
	f[FieldCorrelationID] = id
	return f
}

// WithOperator adds the operator identity
func (f LogFields) WithOperator(id int64, username string) LogFields {
	f[FieldOperatorID] = id
	if username != "" {
		f[FieldUsername] = username
	}
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithErrorType adds the error category
func (f LogFields) WithErrorType(errorType string) LogFields {
	f[FieldErrorType] = errorType
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithFine adds fine-related fields
func (f LogFields) WithFine(id int64, employee string, amount int, reason, month string) LogFields {
	f[FieldFineID] = id
	f[FieldEmployee] = employee
	f[FieldAmount] = amount
	f[FieldReason] = reason
	f[FieldMonth] = month
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
