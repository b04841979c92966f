package observability

import (
	"context"
	"log/slog"
	"time"

	"github.com/lithammer/shortuuid/v4"
)

const (
	// LogFieldRequestID is the field name for request ID.
	LogFieldRequestID = "request_id"
	// LogFieldUserID is the field name for user ID.
	LogFieldUserID = "user_id"
	// LogFieldOperation is the field name for the service operation.
	LogFieldOperation = "operation"
	// LogFieldDuration is the field name for duration in milliseconds.
	LogFieldDuration = "duration_ms"
	// LogFieldErrorCode is the field name for error code.
	LogFieldErrorCode = "error_code"
	// LogFieldPreferenceID is the field name for the preference record id.
	LogFieldPreferenceID = "preference_id"
)

// RequestContext represents the context for a single request with structured logging.
type RequestContext struct {
	RequestID string
	UserID    string
	Operation string
	StartTime time.Time
	Logger    *slog.Logger
}

// NewRequestContext creates a new request context with a generated request ID.
func NewRequestContext(logger *slog.Logger, operation, userID string) *RequestContext {
	return NewRequestContextWithID(logger, GenerateRequestID(), operation, userID)
}

// NewRequestContextWithID creates a new request context with a specific request ID.
func NewRequestContextWithID(logger *slog.Logger, requestID, operation, userID string) *RequestContext {
	if logger == nil {
		logger = slog.Default()
	}
	return &RequestContext{
		RequestID: requestID,
		UserID:    userID,
		Operation: operation,
		StartTime: time.Now(),
		Logger:    logger,
	}
}

// Info logs an info message.
func (r *RequestContext) Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	r.Logger.LogAttrs(ctx, slog.LevelInfo, msg, r.baseAttrsAppended(attrs...)...)
}

// Debug logs a debug message.
func (r *RequestContext) Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	r.Logger.LogAttrs(ctx, slog.LevelDebug, msg, r.baseAttrsAppended(attrs...)...)
}

// Error logs an error message with the error and the elapsed time.
func (r *RequestContext) Error(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	attrs = append(attrs, slog.String("error", err.Error()), slog.Int64(LogFieldDuration, r.DurationMs()))
	r.Logger.LogAttrs(ctx, slog.LevelError, msg, r.baseAttrsAppended(attrs...)...)
}

// Duration returns the elapsed time since the request started.
func (r *RequestContext) Duration() time.Duration {
	return time.Since(r.StartTime)
}

// DurationMs returns the elapsed time in milliseconds.
func (r *RequestContext) DurationMs() int64 {
	return r.Duration().Milliseconds()
}

func (r *RequestContext) baseAttrsAppended(attrs ...slog.Attr) []slog.Attr {
	base := make([]slog.Attr, 0, 3+len(attrs))
	base = append(base, slog.String(LogFieldRequestID, r.RequestID))
	if r.UserID != "" {
		base = append(base, slog.String(LogFieldUserID, r.UserID))
	}
	if r.Operation != "" {
		base = append(base, slog.String(LogFieldOperation, r.Operation))
	}
	return append(base, attrs...)
}

// GenerateRequestID returns a short, URL-safe request id.
func GenerateRequestID() string {
	return shortuuid.New()
}

type ctxKey struct{}

// WithRequestContext adds the request context to the context.
func WithRequestContext(ctx context.Context, reqCtx *RequestContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, reqCtx)
}

// FromContext extracts the request context from the context.
func FromContext(ctx context.Context) (*RequestContext, bool) {
	reqCtx, ok := ctx.Value(ctxKey{}).(*RequestContext)
	return reqCtx, ok
}

// ForOperation returns a copy of the request context stored in ctx scoped
// to one operation and user. Without one, a fresh context is created.
func ForOperation(ctx context.Context, logger *slog.Logger, operation, userID string) *RequestContext {
	if reqCtx, ok := FromContext(ctx); ok {
		scoped := *reqCtx
		scoped.Operation = operation
		scoped.UserID = userID
		if logger != nil {
			scoped.Logger = logger
		}
		return &scoped
	}
	return NewRequestContext(logger, operation, userID)
}
