package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactAPIKey(t *testing.T) {
	logger := NewDefaultLogger(LogLevelInfo, true)

	assert.Equal(t, "[REDACTED-2345]", logger.RedactAPIKey("sk-test-key-12345"))
	assert.Equal(t, "[REDACTED]", logger.RedactAPIKey("abc"))
	assert.Equal(t, "[REDACTED]", logger.RedactAPIKey(""))
}

func TestRedactAPIKey_Disabled(t *testing.T) {
	logger := NewDefaultLogger(LogLevelInfo, false)

	assert.Equal(t, "sk-test-key-12345", logger.RedactAPIKey("sk-test-key-12345"))
}

func TestMaskAuthorization(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{
			name:  "bearer token with dashes keeps prefix to second dash",
			value: "Bearer sk-proj-abcdef123456",
			want:  "Bearer sk-proj-****(masked)",
		},
		{
			name:  "bearer token without dashes keeps six chars",
			value: "Bearer abcdefghijkl",
			want:  "Bearer abcdef****(masked)",
		},
		{
			name:  "short bearer token kept whole",
			value: "Bearer abc",
			want:  "Bearer abc****(masked)",
		},
		{
			name:  "non-bearer value fully masked",
			value: "Basic dXNlcjpwYXNz",
			want:  "****(masked)",
		},
		{
			name:  "empty value fully masked",
			value: "",
			want:  "****(masked)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskAuthorization(tt.value))
		})
	}
}
