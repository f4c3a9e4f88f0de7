package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FallbackPrefix marks improved content that was substituted because the AI
// improvement step did not run or did not succeed.
const FallbackPrefix = "[IMPROVEMENT_SKIPPED]\n"

// maxWarningLength caps the aggregated warning message stored on a review.
const maxWarningLength = 500

var (
	// ErrNotFound indicates the requested review does not exist (or is not
	// visible to the caller).
	ErrNotFound = errors.New("review not found")

	// ErrInvalidTitle indicates the review title contains characters that are
	// illegal for the storage backend.
	ErrInvalidTitle = errors.New("title contains characters that cannot be used")

	// ErrBlankField indicates a required request field was empty.
	ErrBlankField = errors.New("required field must not be blank")
)

// invalidTitleChars are characters rejected before any external call is made.
var invalidTitleChars = regexp.MustCompile(`[\\/:*?"<>|#%]`)

// ValidateTitle rejects titles containing filesystem-illegal characters.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return ErrBlankField
	}
	if invalidTitleChars.MatchString(title) {
		return ErrInvalidTitle
	}
	return nil
}

// FallbackContent returns the deterministic placeholder artifact used when AI
// improvement is unavailable.
func FallbackContent(originalContent string) string {
	return FallbackPrefix + originalContent
}

// Status describes the outcome of a single integration step.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
	StatusSkipped Status = "SKIPPED"
)

// IntegrationStatus records the per-step outcome of review creation. Each
// field reflects only its own step.
type IntegrationStatus struct {
	AI             Status
	Currency       Status
	Storage        Status
	WarningMessage string
}

// NewIntegrationStatus normalizes empty statuses to SUCCESS, joins the
// warnings with newlines and truncates the aggregate to 500 characters.
func NewIntegrationStatus(ai, currency, storage Status, warnings []string) IntegrationStatus {
	msg := strings.Join(warnings, "\n")
	if len(msg) > maxWarningLength {
		msg = msg[:maxWarningLength]
	}
	return IntegrationStatus{
		AI:             defaultStatus(ai),
		Currency:       defaultStatus(currency),
		Storage:        defaultStatus(storage),
		WarningMessage: msg,
	}
}

func defaultStatus(s Status) Status {
	if s == "" {
		return StatusSuccess
	}
	return s
}

// Review is the persisted record of a single review creation. It is
// constructed once by the orchestrator and never mutated after persistence.
type Review struct {
	ID              string
	Title           string
	OriginalContent string
	ImprovedContent string
	TokenCount      int64
	USDCost         decimal.Decimal
	KRWCost         *decimal.Decimal // nil when currency conversion failed
	FileID          string           // storage handle; empty when upload was skipped or failed
	OwnerUserID     string
	Integration     IntegrationStatus
	CreatedAt       time.Time
}
