package audit

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// Entry is one audit record for a mutating operation.
type Entry struct {
	TenantID     string
	Actor        string
	Role         string
	Action       string
	ResourceType string
	ResourceID   string
	Metadata     json.RawMessage
	IP           string
	UserAgent    string
	At           time.Time
}

// Logger records audit entries.
type Logger interface {
	Log(ctx context.Context, entry Entry) error
}

// ZapLogger writes audit entries to the structured log.
type ZapLogger struct {
	logger *zap.Logger
}

// NewZapLogger constructs an audit logger.
func NewZapLogger(logger *zap.Logger) *ZapLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapLogger{logger: logger}
}

// Log emits the entry at info level.
func (l *ZapLogger) Log(ctx context.Context, entry Entry) error {
	_ = ctx
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}
	l.logger.Info("audit",
		zap.String("tenant_id", entry.TenantID),
		zap.String("actor", entry.Actor),
		zap.String("role", entry.Role),
		zap.String("action", entry.Action),
		zap.String("resource_type", entry.ResourceType),
		zap.String("resource_id", entry.ResourceID),
		zap.String("ip", entry.IP),
		zap.String("user_agent", entry.UserAgent),
		zap.Time("at", entry.At),
	)
	return nil
}
