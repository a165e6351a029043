package log

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Middleware creates HTTP middleware that adds a logger to the request context
// and logs each completed request.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	sl := NewStructuredLogger(logger)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			ctx := NewContext(r.Context(), logger)
			next.ServeHTTP(rec, r.WithContext(ctx))
			sl.LogHTTPEnd(ctx, r, rec.status, time.Since(start).Milliseconds())
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// StructuredLogger provides structured logging methods with context awareness
type StructuredLogger struct {
	logger *Logger
}

// NewStructuredLogger creates a new structured logger
func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{
		logger: logger,
	}
}

// LogHTTPEnd logs the completion of an HTTP request
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64) {
	level := slog.LevelDebug
	if statusCode >= 400 && statusCode < 500 {
		level = slog.LevelWarn
	} else if statusCode >= 500 {
		level = slog.LevelError
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path).
		WithHTTPResponse(statusCode, durationMs)

	sl.logger.Logger.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

// LogFineRecorded logs a successful ledger append
func (sl *StructuredLogger) LogFineRecorded(ctx context.Context, operatorID int64, id int64, employee string, amount int, reason, month string) {
	fields := NewFields().
		WithOperator(operatorID, "").
		WithFine(id, employee, amount, reason, month).
		WithOperation(OpRecord)

	sl.logger.InfoContext(ctx, "Fine recorded", fields.ToSlice()...)
}

// LogFineRemoved logs a ledger deletion
func (sl *StructuredLogger) LogFineRemoved(ctx context.Context, operatorID int64, id int64, employee string, amount int, reason, month string) {
	fields := NewFields().
		WithOperator(operatorID, "").
		WithFine(id, employee, amount, reason, month).
		WithOperation(OpRemove)

	sl.logger.InfoContext(ctx, "Fine removed", fields.ToSlice()...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, errorType string, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	allFields := fields.
		WithError(err).
		WithErrorType(errorType).
		WithOperation(operation)

	sl.logger.ErrorContext(ctx, msg, allFields.ToSlice()...)
}
