// Package audit emits security-event log lines enriched with request and
// user context. The durable audit trail lives in the auth store; these
// lines feed the observability pipeline and must never block or fail the
// request that produced them.
package audit

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"shopcore.dev/internal/auth"
)

type ctxKey string

const requestIDKey ctxKey = "audit_request_id"

// WithRequestID attaches the request identifier to the context for audit logging.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext extracts the audit request id from context if present.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// LogEvent writes one structured audit line. Returns an error only for a
// missing event name; callers are expected to ignore it outside tests.
func LogEvent(ctx context.Context, logger *zap.Logger, event string, fields map[string]string) error {
	event = strings.TrimSpace(event)
	if event == "" {
		return errors.New("event name is required")
	}
	if logger == nil {
		logger = zap.L()
	}

	zfields := make([]zap.Field, 0, len(fields)+3)
	zfields = append(zfields, zap.String("type", "audit"), zap.String("event", event))
	if rid := RequestIDFromContext(ctx); rid != "" {
		zfields = append(zfields, zap.String("request_id", rid))
	}
	if claims, ok := auth.ClaimsFromContext(ctx); ok {
		zfields = append(zfields, zap.String("user_id", claims.Subject))
	}
	for k, v := range fields {
		zfields = append(zfields, zap.String(k, v))
	}
	logger.Info(event, zfields...)
	return nil
}
