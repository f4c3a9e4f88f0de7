package openai

import (
	"net/http"
	"strings"

	"github.com/bkyoung/bookreviewer/internal/domain"
)

// classifyError maps an HTTP status and parsed provider error to a failure
// reason. Checks run in a fixed order so classification is deterministic.
func classifyError(statusCode int, detail ErrorDetail) string {
	errType := strings.ToLower(detail.Type)
	errCode := strings.ToLower(detail.Code)

	switch {
	case statusCode == http.StatusUnauthorized:
		return domain.ReasonInvalidKey
	case statusCode == http.StatusTooManyRequests, strings.Contains(errType, "rate_limit"):
		return domain.ReasonRateLimit
	case strings.Contains(errType, "insufficient_quota"), strings.Contains(errCode, "insufficient_quota"):
		return domain.ReasonInsufficientQuota
	case strings.Contains(errType, "invalid_api_key"), strings.Contains(errCode, "invalid_api_key"):
		return domain.ReasonInvalidKey
	case strings.Contains(errCode, "unsupported_parameter"):
		if detail.Param == "model" {
			return domain.ReasonInvalidModel
		}
		return domain.ReasonUnsupportedParam
	default:
		return domain.ReasonUnknown
	}
}
