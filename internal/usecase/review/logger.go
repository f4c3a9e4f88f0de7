package review

import "context"

// Logger provides structured logging for the review use case. The
// orchestrator logs warnings for degraded integration steps and info
// messages for completed operations.
type Logger interface {
	// LogWarning logs a warning message with structured fields.
	LogWarning(ctx context.Context, message string, fields map[string]interface{})

	// LogInfo logs an informational message with structured fields.
	LogInfo(ctx context.Context, message string, fields map[string]interface{})
}
