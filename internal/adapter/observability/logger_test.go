package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	llmhttp "github.com/bkyoung/bookreviewer/internal/adapter/llm/http"
)

func newObservedLogger(redact bool) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewWithZap(zap.New(core), redact), logs
}

func TestLogRequest_RedactsAPIKey(t *testing.T) {
	logger, logs := newObservedLogger(true)

	logger.LogRequest(context.Background(), llmhttp.RequestLog{
		Endpoint: "/v1/chat/completions",
		Model:    "gpt-4o",
		APIKey:   "sk-proj-abcd1234",
	})

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "[REDACTED-1234]", fields["apiKey"])
}

func TestLogRequest_NoRedactionWhenDisabled(t *testing.T) {
	logger, logs := newObservedLogger(false)

	logger.LogRequest(context.Background(), llmhttp.RequestLog{APIKey: "sk-proj-abcd1234"})

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "sk-proj-abcd1234", fields["apiKey"])
}

func TestLogResponse(t *testing.T) {
	logger, logs := newObservedLogger(true)

	logger.LogResponse(context.Background(), llmhttp.ResponseLog{
		Endpoint:     "/v1/chat/completions",
		StatusCode:   200,
		Duration:     2 * time.Second,
		TokensIn:     50,
		TokensOut:    10,
		FinishReason: "stop",
	})

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(200), fields["statusCode"])
	assert.Equal(t, "stop", fields["finishReason"])
}

func TestLogError_IncludesReason(t *testing.T) {
	logger, logs := newObservedLogger(true)

	logger.LogError(context.Background(), llmhttp.ErrorLog{
		Endpoint:   "/v1/models",
		Reason:     "RATE_LIMIT",
		StatusCode: 429,
		Err:        errors.New("model list returned HTTP 429"),
	})

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "RATE_LIMIT", entries[0].ContextMap()["reason"])
}

func TestLogWarningAndInfo_CarryFields(t *testing.T) {
	logger, logs := newObservedLogger(true)

	logger.LogWarning(context.Background(), "currency conversion failed", map[string]interface{}{
		"error": "quote API down",
	})
	logger.LogInfo(context.Background(), "review created", map[string]interface{}{
		"reviewId": "r-1",
	})

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "currency conversion failed", entries[0].Message)
	assert.Equal(t, "quote API down", entries[0].ContextMap()["error"])
	assert.Equal(t, "r-1", entries[1].ContextMap()["reviewId"])
}

func TestNewLogger_DisabledIsNoOp(t *testing.T) {
	logger, err := NewLogger(Config{Enabled: false})

	require.NoError(t, err)
	// Must not panic on any port method.
	logger.LogWarning(context.Background(), "ignored", nil)
	logger.LogInfo(context.Background(), "ignored", nil)
}

func TestNewLogger_UnknownLevelDefaultsToInfo(t *testing.T) {
	logger, err := NewLogger(Config{Enabled: true, Level: "bogus", Format: "json"})

	require.NoError(t, err)
	require.NotNil(t, logger)
}
