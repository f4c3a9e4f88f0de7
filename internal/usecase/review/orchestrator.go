// Package review implements the review-creation and review-deletion
// orchestration over the AI, currency and file storage gateways.
package review

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bkyoung/bookreviewer/internal/domain"
	"github.com/bkyoung/bookreviewer/internal/usecase/cost"
)

// AiGateway defines the outbound port for AI review improvement. Degraded
// provider states come back as tagged results, not errors.
type AiGateway interface {
	GenerateImprovedReview(ctx context.Context, title, content string) (domain.AiReviewResult, error)
}

// CurrencyConverter defines the outbound port for USD to KRW conversion.
type CurrencyConverter interface {
	ConvertUSDToKRW(ctx context.Context, usd decimal.Decimal) (decimal.Decimal, error)
}

// FileStorage defines the outbound port for artifact storage. Upload returns
// an empty handle when storage is not configured. Delete errors are reported
// to the caller but every caller treats deletion as best-effort.
type FileStorage interface {
	Upload(ctx context.Context, filename, content string) (string, error)
	Download(ctx context.Context, fileID string) (io.ReadCloser, error)
	Delete(ctx context.Context, fileID string) error
}

// Store defines the outbound port for persisting reviews.
type Store interface {
	Save(ctx context.Context, review *domain.Review) error
	Get(ctx context.Context, id string) (domain.Review, error)
	GetForOwner(ctx context.Context, id, ownerUserID string) (domain.Review, error)
	List(ctx context.Context) ([]domain.Review, error)
	ListByOwner(ctx context.Context, ownerUserID string) ([]domain.Review, error)
	Delete(ctx context.Context, id string) error
}

// CurrentUser resolves the identity the orchestrator acts on behalf of.
// Admins see every review; everyone else sees only their own.
type CurrentUser interface {
	UserID(ctx context.Context) (string, error)
	IsAdmin(ctx context.Context) bool
}

// Deps captures the orchestrator dependencies.
type Deps struct {
	AI       AiGateway
	Currency CurrencyConverter
	Storage  FileStorage
	Store    Store
	User     CurrentUser
	Logger   Logger // Optional: structured logging for warnings and info
}

// CreateReviewRequest is the inbound request for review creation.
type CreateReviewRequest struct {
	Title   string
	Content string
}

// User-facing warning messages recorded per degraded integration step.
const (
	warnAISkipped      = "AI improvement skipped: API key not configured"
	warnAIRateLimit    = "AI improvement failed: rate limit exceeded"
	warnAIQuota        = "AI improvement failed: insufficient quota"
	warnAIInvalidKey   = "AI improvement failed: invalid API key"
	warnAIFailed       = "AI improvement failed"
	warnCurrencyFailed = "currency conversion unavailable"
	warnStorageSkipped = "file storage skipped: not configured"
	warnStorageUpload  = "file storage upload failed"
)

// Orchestrator coordinates the create/delete review flows. Each external step
// degrades independently; only bad input and persistence failures abort.
type Orchestrator struct {
	deps Deps
}

// NewOrchestrator wires the orchestrator dependencies.
func NewOrchestrator(deps Deps) *Orchestrator {
	return &Orchestrator{deps: deps}
}

// validateDependencies checks that all required dependencies are present.
func (o *Orchestrator) validateDependencies() error {
	if o.deps.AI == nil {
		return errors.New("ai gateway is required")
	}
	if o.deps.Currency == nil {
		return errors.New("currency converter is required")
	}
	if o.deps.Storage == nil {
		return errors.New("file storage is required")
	}
	if o.deps.Store == nil {
		return errors.New("store is required")
	}
	if o.deps.User == nil {
		return errors.New("current user resolver is required")
	}
	// Logger is optional
	return nil
}

// CreateReview runs the full creation sequence: validate, improve via AI,
// price, convert, upload, persist. AI, currency and storage each degrade
// independently into the review's IntegrationStatus; a persistence failure
// rolls back the uploaded artifact and propagates.
func (o *Orchestrator) CreateReview(ctx context.Context, req CreateReviewRequest) (domain.Review, error) {
	if err := o.validateDependencies(); err != nil {
		return domain.Review{}, err
	}
	if err := domain.ValidateTitle(req.Title); err != nil {
		return domain.Review{}, err
	}
	if strings.TrimSpace(req.Content) == "" {
		return domain.Review{}, fmt.Errorf("review content: %w", domain.ErrBlankField)
	}
	ownerID, err := o.deps.User.UserID(ctx)
	if err != nil {
		return domain.Review{}, fmt.Errorf("resolve current user: %w", err)
	}

	var warnings []string

	// Step 1: AI improvement.
	aiStatus := domain.StatusSuccess
	aiResult, err := o.deps.AI.GenerateImprovedReview(ctx, req.Title, req.Content)
	if err != nil {
		aiStatus = domain.StatusFailed
		warnings = appendIfMissing(warnings, warnAIFailed)
		aiResult = domain.DegradedAiResult(req.Content, domain.ReasonUnknown)
		o.warn(ctx, "ai improvement errored", map[string]interface{}{"error": err.Error()})
	} else {
		switch aiResult.Outcome {
		case domain.AiSkipped:
			aiStatus = domain.StatusSkipped
			warnings = appendIfMissing(warnings, warnAISkipped)
		case domain.AiDegraded:
			aiStatus = domain.StatusFailed
			warnings = appendIfMissing(warnings, aiWarning(aiResult.Reason))
			o.warn(ctx, "ai improvement degraded", map[string]interface{}{"reason": aiResult.Reason})
		}
	}

	var costResult domain.CostResult
	if aiStatus == domain.StatusSuccess {
		costResult = cost.Calculate(aiResult.Model, aiResult.PromptTokens, aiResult.CompletionTokens)
	}

	// Step 2: currency conversion. Zero cost converts to zero.
	currencyStatus := domain.StatusSuccess
	var krwCost *decimal.Decimal
	krw, err := o.deps.Currency.ConvertUSDToKRW(ctx, costResult.USDCost)
	if err != nil {
		currencyStatus = domain.StatusFailed
		warnings = appendIfMissing(warnings, warnCurrencyFailed)
		o.warn(ctx, "currency conversion failed", map[string]interface{}{"error": err.Error()})
	} else {
		krwCost = &krw
	}

	// Step 3: artifact upload.
	storageStatus := domain.StatusSuccess
	fileID, err := o.deps.Storage.Upload(ctx, req.Title, markdownArtifact(req.Title, aiResult.ImprovedContent))
	switch {
	case err != nil:
		storageStatus = domain.StatusFailed
		warnings = appendIfMissing(warnings, warnStorageUpload)
		fileID = ""
		o.warn(ctx, "artifact upload failed", map[string]interface{}{"error": err.Error()})
	case fileID == "":
		storageStatus = domain.StatusSkipped
		warnings = appendIfMissing(warnings, warnStorageSkipped)
	}

	// Step 4: persist, compensating the upload when persistence fails.
	review := domain.Review{
		Title:           req.Title,
		OriginalContent: req.Content,
		ImprovedContent: aiResult.ImprovedContent,
		TokenCount:      costResult.TotalTokens,
		USDCost:         costResult.USDCost,
		KRWCost:         krwCost,
		FileID:          fileID,
		OwnerUserID:     ownerID,
		Integration:     domain.NewIntegrationStatus(aiStatus, currencyStatus, storageStatus, warnings),
	}

	if err := o.deps.Store.Save(ctx, &review); err != nil {
		if fileID != "" {
			if delErr := o.deps.Storage.Delete(ctx, fileID); delErr != nil {
				o.warn(ctx, "failed to roll back uploaded artifact", map[string]interface{}{
					"fileId": fileID,
					"error":  delErr.Error(),
				})
			}
		}
		return domain.Review{}, fmt.Errorf("persist review: %w", err)
	}

	o.info(ctx, "review created", map[string]interface{}{
		"reviewId": review.ID,
		"ai":       string(review.Integration.AI),
		"currency": string(review.Integration.Currency),
		"storage":  string(review.Integration.Storage),
	})
	return review, nil
}

// DeleteReview removes a review the caller can see. The remote artifact is
// deleted best-effort: a storage failure becomes a warning and
// DriveDeleted=false, never an error.
func (o *Orchestrator) DeleteReview(ctx context.Context, id string) (domain.DeleteReviewResult, error) {
	if err := o.validateDependencies(); err != nil {
		return domain.DeleteReviewResult{}, err
	}

	review, err := o.visibleReview(ctx, id)
	if err != nil {
		return domain.DeleteReviewResult{}, err
	}

	result := domain.DeleteReviewResult{}
	if review.FileID != "" {
		if err := o.deps.Storage.Delete(ctx, review.FileID); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("failed to delete stored artifact: %v", err))
			o.warn(ctx, "stored artifact deletion failed", map[string]interface{}{
				"reviewId": id,
				"fileId":   review.FileID,
				"error":    err.Error(),
			})
		} else {
			result.DriveDeleted = true
		}
	}

	if err := o.deps.Store.Delete(ctx, id); err != nil {
		return domain.DeleteReviewResult{}, fmt.Errorf("delete review: %w", err)
	}

	result.Deleted = true
	o.info(ctx, "review deleted", map[string]interface{}{
		"reviewId":     id,
		"driveDeleted": result.DriveDeleted,
	})
	return result, nil
}

// GetReview returns a single review the caller can see. A review owned by
// someone else looks exactly like a missing one.
func (o *Orchestrator) GetReview(ctx context.Context, id string) (domain.Review, error) {
	if err := o.validateDependencies(); err != nil {
		return domain.Review{}, err
	}
	return o.visibleReview(ctx, id)
}

// ListReviews returns every review for admins, otherwise the caller's own.
func (o *Orchestrator) ListReviews(ctx context.Context) ([]domain.Review, error) {
	if err := o.validateDependencies(); err != nil {
		return nil, err
	}
	if o.deps.User.IsAdmin(ctx) {
		return o.deps.Store.List(ctx)
	}
	ownerID, err := o.deps.User.UserID(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve current user: %w", err)
	}
	return o.deps.Store.ListByOwner(ctx, ownerID)
}

// DownloadArtifact streams the stored artifact of a visible review. Reviews
// without a storage handle report not-found.
func (o *Orchestrator) DownloadArtifact(ctx context.Context, id string) (io.ReadCloser, error) {
	if err := o.validateDependencies(); err != nil {
		return nil, err
	}
	review, err := o.visibleReview(ctx, id)
	if err != nil {
		return nil, err
	}
	if review.FileID == "" {
		return nil, fmt.Errorf("review %s has no stored artifact: %w", id, domain.ErrNotFound)
	}
	return o.deps.Storage.Download(ctx, review.FileID)
}

func (o *Orchestrator) visibleReview(ctx context.Context, id string) (domain.Review, error) {
	if o.deps.User.IsAdmin(ctx) {
		return o.deps.Store.Get(ctx, id)
	}
	ownerID, err := o.deps.User.UserID(ctx)
	if err != nil {
		return domain.Review{}, fmt.Errorf("resolve current user: %w", err)
	}
	return o.deps.Store.GetForOwner(ctx, id, ownerID)
}

// markdownArtifact builds the uploaded document body.
func markdownArtifact(title, improvedContent string) string {
	return "# " + title + "\n\n" + improvedContent + "\n"
}

// aiWarning maps a classified failure reason to its user-facing warning.
func aiWarning(reason string) string {
	switch reason {
	case domain.ReasonRateLimit:
		return warnAIRateLimit
	case domain.ReasonInsufficientQuota:
		return warnAIQuota
	case domain.ReasonInvalidKey:
		return warnAIInvalidKey
	default:
		return warnAIFailed
	}
}

// appendIfMissing adds a warning unless the identical message is already
// recorded.
func appendIfMissing(warnings []string, msg string) []string {
	for _, existing := range warnings {
		if existing == msg {
			return warnings
		}
	}
	return append(warnings, msg)
}

func (o *Orchestrator) warn(ctx context.Context, msg string, fields map[string]interface{}) {
	if o.deps.Logger != nil {
		o.deps.Logger.LogWarning(ctx, msg, fields)
	}
}

func (o *Orchestrator) info(ctx context.Context, msg string, fields map[string]interface{}) {
	if o.deps.Logger != nil {
		o.deps.Logger.LogInfo(ctx, msg, fields)
	}
}
