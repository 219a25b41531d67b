package log

import (
	"context"
	"log/slog"
	"net/http"
)

type contextKey struct{}

// NewContext returns a copy of ctx carrying logger.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the logger stored by NewContext, or one built on the
// slog default.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(contextKey{}).(*Logger); ok {
		return logger
	}
	return &Logger{Logger: slog.Default(), component: "unknown"}
}

// EventLogger writes the recurring records of the API: request start and
// end, and transaction writes.
type EventLogger struct {
	logger *Logger
}

func NewEventLogger(logger *Logger) *EventLogger {
	return &EventLogger{logger: logger}
}

func requestAttrs(r *http.Request, clientIP string) []any {
	return []any{
		FieldMethod, r.Method,
		FieldPath, r.URL.Path,
		FieldQuery, r.URL.RawQuery,
		FieldClientIP, clientIP,
	}
}

func (e *EventLogger) RequestStarted(ctx context.Context, r *http.Request, clientIP string) {
	args := append(requestAttrs(r, clientIP), FieldUserAgent, r.UserAgent())
	e.logger.DebugContext(ctx, "HTTP request started", args...)
}

// RequestFinished logs at info, warn for 4xx and error for 5xx.
func (e *EventLogger) RequestFinished(ctx context.Context, r *http.Request, status int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	switch {
	case status >= 500:
		level = slog.LevelError
	case status >= 400:
		level = slog.LevelWarn
	}
	args := append(requestAttrs(r, clientIP), FieldStatusCode, status, FieldDuration, durationMs)
	e.logger.emit(ctx, level, "HTTP request completed", args)
}

// TransactionSaved records a transaction write; amount is empty for
// transactions without one.
func (e *EventLogger) TransactionSaved(ctx context.Context, action, userID, id, bankID, amount string) {
	args := []any{
		FieldOperation, action,
		FieldUserID, userID,
		FieldTransactionID, id,
		FieldBankID, bankID,
	}
	if amount != "" {
		args = append(args, FieldAmount, amount)
	}
	e.logger.InfoContext(ctx, "Transaction saved", args...)
}
