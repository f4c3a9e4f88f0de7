package domain

// AiOutcome tags how an AI improvement attempt ended. The orchestrator
// branches on this tag rather than on error types.
type AiOutcome string

const (
	// AiSuccess means the content came from the model.
	AiSuccess AiOutcome = "SUCCESS"
	// AiDegraded means the provider was reached (or attempted) but unusable;
	// Reason carries the classification.
	AiDegraded AiOutcome = "DEGRADED"
	// AiSkipped means no attempt was made because the API key is not configured.
	AiSkipped AiOutcome = "SKIPPED"
)

// Classified failure reasons for degraded AI results. ReasonSkipped is used
// on skipped results so the reason field is never empty on a fallback.
const (
	ReasonRateLimit         = "RATE_LIMIT"
	ReasonInsufficientQuota = "INSUFFICIENT_QUOTA"
	ReasonInvalidKey        = "INVALID_KEY"
	ReasonInvalidModel      = "INVALID_MODEL"
	ReasonUnsupportedParam  = "UNSUPPORTED_PARAM"
	ReasonUnknown           = "UNKNOWN"
	ReasonSkipped           = "SKIPPED"
)

// FallbackModel is the model identifier recorded on fallback results.
const FallbackModel = "fallback"

// AiReviewResult is the outcome of one AI improvement attempt. When FromAI is
// false the content is the fallback artifact, token counts are zero and
// Reason is non-empty.
type AiReviewResult struct {
	ImprovedContent  string
	FromAI           bool
	Outcome          AiOutcome
	Model            string // model identifier, or "fallback"
	Reason           string // finish reason ("stop") or failure classification
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int64
}

// SkippedAiResult builds the result used when the API key is absent.
func SkippedAiResult(originalContent string) AiReviewResult {
	return AiReviewResult{
		ImprovedContent: FallbackContent(originalContent),
		FromAI:          false,
		Outcome:         AiSkipped,
		Model:           FallbackModel,
		Reason:          ReasonSkipped,
	}
}

// DegradedAiResult builds the fallback result for a classified provider failure.
func DegradedAiResult(originalContent, reason string) AiReviewResult {
	if reason == "" {
		reason = ReasonUnknown
	}
	return AiReviewResult{
		ImprovedContent: FallbackContent(originalContent),
		FromAI:          false,
		Outcome:         AiDegraded,
		Model:           FallbackModel,
		Reason:          reason,
	}
}
