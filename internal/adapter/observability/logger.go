// Package observability provides the production structured logger. A single
// zap-backed implementation satisfies the logging ports of the LLM HTTP
// layer, the gateways and the review orchestrator.
package observability

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	llmhttp "github.com/bkyoung/bookreviewer/internal/adapter/llm/http"
)

// Config controls the production logger.
type Config struct {
	Enabled       bool
	Level         string // debug, info, warn, error
	Format        string // json or console
	RedactAPIKeys bool
}

// Logger is the zap-backed implementation of the logging ports.
type Logger struct {
	zap        *zap.Logger
	redactKeys bool
}

// NewLogger builds a production logger from config. A disabled config
// returns a no-op logger that still satisfies every port.
func NewLogger(cfg Config) (*Logger, error) {
	if !cfg.Enabled {
		return &Logger{zap: zap.NewNop(), redactKeys: cfg.RedactAPIKeys}, nil
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return &Logger{zap: logger, redactKeys: cfg.RedactAPIKeys}, nil
}

// NewWithZap wraps an existing zap logger. Used by tests with an observer core.
func NewWithZap(logger *zap.Logger, redactKeys bool) *Logger {
	return &Logger{zap: logger, redactKeys: redactKeys}
}

// Sync flushes buffered log entries.
func (l *Logger) Sync() error {
	return l.zap.Sync()
}

// LogRequest logs an outgoing LLM API request with the key redacted.
func (l *Logger) LogRequest(ctx context.Context, req llmhttp.RequestLog) {
	l.zap.Debug("llm request sent",
		zap.String("endpoint", req.Endpoint),
		zap.String("model", req.Model),
		zap.Int("promptChars", req.PromptChars),
		zap.Int("promptTokens", req.PromptTokens),
		zap.String("apiKey", l.redactAPIKey(req.APIKey)),
	)
}

// LogResponse logs an LLM API response with timing and token usage.
func (l *Logger) LogResponse(ctx context.Context, resp llmhttp.ResponseLog) {
	l.zap.Info("llm response received",
		zap.String("endpoint", resp.Endpoint),
		zap.String("model", resp.Model),
		zap.Int("statusCode", resp.StatusCode),
		zap.Duration("duration", resp.Duration),
		zap.Int("tokensIn", resp.TokensIn),
		zap.Int("tokensOut", resp.TokensOut),
		zap.String("finishReason", resp.FinishReason),
	)
}

// LogError logs an LLM API failure with its classified reason.
func (l *Logger) LogError(ctx context.Context, errLog llmhttp.ErrorLog) {
	l.zap.Error("llm call failed",
		zap.String("endpoint", errLog.Endpoint),
		zap.String("model", errLog.Model),
		zap.Int("statusCode", errLog.StatusCode),
		zap.Duration("duration", errLog.Duration),
		zap.String("reason", errLog.Reason),
		zap.Error(errLog.Err),
	)
}

// LogWarning logs a warning with structured fields.
func (l *Logger) LogWarning(ctx context.Context, message string, fields map[string]interface{}) {
	l.zap.Warn(message, mapToFields(fields)...)
}

// LogInfo logs an informational message with structured fields.
func (l *Logger) LogInfo(ctx context.Context, message string, fields map[string]interface{}) {
	l.zap.Info(message, mapToFields(fields)...)
}

func (l *Logger) redactAPIKey(key string) string {
	if !l.redactKeys {
		return key
	}
	if len(key) <= 4 {
		return "[REDACTED]"
	}
	return fmt.Sprintf("[REDACTED-%s]", key[len(key)-4:])
}

func mapToFields(fields map[string]interface{}) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for key, value := range fields {
		out = append(out, zap.Any(key, value))
	}
	return out
}
