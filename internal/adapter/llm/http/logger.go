// Package http provides shared plumbing for LLM HTTP clients: structured
// call logging with credential redaction.
package http

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
)

// Logger provides structured logging for LLM API calls.
type Logger interface {
	// LogRequest logs an outgoing API request (API key redacted)
	LogRequest(ctx context.Context, req RequestLog)

	// LogResponse logs an API response with timing and token info
	LogResponse(ctx context.Context, resp ResponseLog)

	// LogError logs an API error
	LogError(ctx context.Context, err ErrorLog)
}

// RequestLog contains request information for logging.
type RequestLog struct {
	Endpoint     string
	Model        string
	Timestamp    time.Time
	PromptChars  int
	PromptTokens int    // Estimated, not provider-reported
	APIKey       string // Redacted before emission
}

// ResponseLog contains response information for logging.
type ResponseLog struct {
	Endpoint     string
	Model        string
	Timestamp    time.Time
	Duration     time.Duration
	TokensIn     int
	TokensOut    int
	StatusCode   int
	FinishReason string
}

// ErrorLog contains error information for logging.
type ErrorLog struct {
	Endpoint   string
	Model      string
	Timestamp  time.Time
	Duration   time.Duration
	Err        error
	Reason     string // classification, e.g. RATE_LIMIT
	StatusCode int
}

// LogLevel defines the logging verbosity level.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelError
)

// DefaultLogger writes human-readable logs via the standard logger. It is the
// zero-configuration implementation; production wiring uses the zap-backed
// logger in the observability package.
type DefaultLogger struct {
	level      LogLevel
	redactKeys bool
}

// NewDefaultLogger creates a logger with the specified level and redaction.
func NewDefaultLogger(level LogLevel, redactKeys bool) *DefaultLogger {
	return &DefaultLogger{level: level, redactKeys: redactKeys}
}

// LogRequest logs an API request.
func (l *DefaultLogger) LogRequest(ctx context.Context, req RequestLog) {
	if l.level > LogLevelDebug {
		return
	}
	log.Printf("[DEBUG] %s/%s: request sent (prompt=%d chars, ~%d tokens, key=%s)",
		req.Endpoint, req.Model, req.PromptChars, req.PromptTokens, l.RedactAPIKey(req.APIKey))
}

// LogResponse logs an API response.
func (l *DefaultLogger) LogResponse(ctx context.Context, resp ResponseLog) {
	if l.level > LogLevelInfo {
		return
	}
	log.Printf("[INFO] %s/%s: response received (status=%d, duration=%.1fs, tokens=%d/%d, finish=%s)",
		resp.Endpoint, resp.Model, resp.StatusCode, resp.Duration.Seconds(),
		resp.TokensIn, resp.TokensOut, resp.FinishReason)
}

// LogError logs an API error.
func (l *DefaultLogger) LogError(ctx context.Context, errLog ErrorLog) {
	if l.level > LogLevelError {
		return
	}
	log.Printf("[ERROR] %s/%s: API call failed (status=%d, reason=%s): %v",
		errLog.Endpoint, errLog.Model, errLog.StatusCode, errLog.Reason, errLog.Err)
}

// RedactAPIKey shows only the last 4 characters of an API key with explicit
// redaction markers.
func (l *DefaultLogger) RedactAPIKey(key string) string {
	if !l.redactKeys {
		return key
	}
	if len(key) <= 4 {
		return "[REDACTED]"
	}
	return fmt.Sprintf("[REDACTED-%s]", key[len(key)-4:])
}

// MaskAuthorization reduces a bearer Authorization header value to a short
// token prefix plus a masking marker, suitable for request logs.
func MaskAuthorization(value string) string {
	if !strings.HasPrefix(value, "Bearer ") {
		return "****(masked)"
	}
	token := strings.TrimPrefix(value, "Bearer ")
	prefix := token
	if idx := nthIndex(token, '-', 2); idx > 0 {
		prefix = token[:idx+1]
	} else if len(token) > 6 {
		prefix = token[:6]
	}
	return "Bearer " + prefix + "****(masked)"
}

func nthIndex(value string, target byte, n int) int {
	count := 0
	for i := 0; i < len(value); i++ {
		if value[i] == target {
			count++
			if count == n {
				return i
			}
		}
	}
	return -1
}
