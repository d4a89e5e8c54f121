package audit

import (
	"context"
	"log/slog"
	"time"
)

type requestIDKey struct{}

// WithRequestID stores the request id so audit entries can be correlated with access logs
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request id stored by WithRequestID
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// Logger records who did what to which vendor
type Logger struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger.With(slog.String("log_type", "audit")), now: time.Now}
}

// LogAction writes one audit entry. actor is the owner email or "vendor" for token-authenticated calls.
func (al *Logger) LogAction(ctx context.Context, actor, action, resource, resourceID, status, details string) {
	al.logger.InfoContext(ctx, "audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("actor", actor),
		slog.String("status", status),
		slog.String("details", details),
		slog.String("request_id", RequestID(ctx)),
		slog.Time("timestamp", al.now()),
	)
}

func (al *Logger) LogInvite(ctx context.Context, actor, vendorID, status, details string) {
	al.LogAction(ctx, actor, "invite", "vendor", vendorID, status, details)
}

func (al *Logger) LogUpload(ctx context.Context, vendorID, documentType, status, details string) {
	al.LogAction(ctx, "vendor", "upload", "document", vendorID+"/"+documentType, status, details)
}

func (al *Logger) LogSubmit(ctx context.Context, vendorID, status, details string) {
	al.LogAction(ctx, "vendor", "submit", "vendor", vendorID, status, details)
}

func (al *Logger) LogApprove(ctx context.Context, actor, vendorID, status, details string) {
	al.LogAction(ctx, actor, "approve", "vendor", vendorID, status, details)
}

func (al *Logger) LogDenied(ctx context.Context, actor, resourceID, reason string) {
	al.LogAction(ctx, actor, "access_denied", "vendor", resourceID, "denied", reason)
}
