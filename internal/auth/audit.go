package auth

import (
	"context"

	"github.com/pharmatrack/pharmatrack-core/internal/audit"
	"github.com/pharmatrack/pharmatrack-core/internal/infrastructure/logging"
)

// Event describes a security-relevant occurrence emitted by Service.
// UserID may be empty when the identifier did not resolve to an account.
type Event struct {
	Action   string
	UserID   string
	Username string
	IP       string
	Details  map[string]any
}

// AuditSink receives security events. Implementations must tolerate
// partial data; Service treats Record failures as non-fatal.
type AuditSink interface {
	Record(ctx context.Context, event Event) error
}

// LoggerSink writes audit events to the structured log.
type LoggerSink struct {
	logger *logging.Logger
}

// NewLoggerSink creates a sink that logs events at info level.
func NewLoggerSink(logger *logging.Logger) *LoggerSink {
	return &LoggerSink{logger: logger.With("component", "auth_audit")}
}

// Record logs the event. It never returns an error.
func (s *LoggerSink) Record(_ context.Context, event Event) error {
	args := []any{
		"action", event.Action,
		"user_id", event.UserID,
		"username", event.Username,
	}
	if event.IP != "" {
		args = append(args, "ip", event.IP)
	}
	for k, v := range event.Details {
		args = append(args, k, v)
	}
	s.logger.Info("audit event", args...)
	return nil
}

// RepositorySink persists audit events to the audit_logs table.
type RepositorySink struct {
	repo audit.Repository
}

// NewRepositorySink creates a sink backed by the audit repository.
func NewRepositorySink(repo audit.Repository) *RepositorySink {
	return &RepositorySink{repo: repo}
}

// Record inserts the event as an audit log entry.
func (s *RepositorySink) Record(ctx context.Context, event Event) error {
	details := make(map[string]any, len(event.Details)+2)
	for k, v := range event.Details {
		details[k] = v
	}
	if event.Username != "" {
		details["username"] = event.Username
	}
	if event.IP != "" {
		details["ip"] = event.IP
	}
	if len(details) == 0 {
		details = nil
	}

	return s.repo.Create(ctx, &audit.AuditLog{
		Action:     event.Action,
		EntityType: "user",
		EntityID:   event.UserID,
		UserID:     event.UserID,
		Source:     "auth",
		Details:    details,
	})
}

// MultiSink fans an event out to several sinks. Record returns the
// first error but still delivers to every sink.
type MultiSink []AuditSink

// Record delivers the event to each sink in order.
func (m MultiSink) Record(ctx context.Context, event Event) error {
	var firstErr error
	for _, sink := range m {
		if err := sink.Record(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
