package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/bookreviewer/internal/domain"
	"github.com/bkyoung/bookreviewer/internal/usecase/review"
)

type fakeService struct {
	review    domain.Review
	reviews   []domain.Review
	delResult domain.DeleteReviewResult
	artifact  string
	err       error

	createdReq review.CreateReviewRequest
	deletedID  string
}

func (f *fakeService) CreateReview(_ context.Context, req review.CreateReviewRequest) (domain.Review, error) {
	f.createdReq = req
	return f.review, f.err
}

func (f *fakeService) GetReview(_ context.Context, id string) (domain.Review, error) {
	return f.review, f.err
}

func (f *fakeService) ListReviews(_ context.Context) ([]domain.Review, error) {
	return f.reviews, f.err
}

func (f *fakeService) DeleteReview(_ context.Context, id string) (domain.DeleteReviewResult, error) {
	f.deletedID = id
	return f.delResult, f.err
}

func (f *fakeService) DownloadArtifact(_ context.Context, id string) (io.ReadCloser, error) {
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(strings.NewReader(f.artifact)), nil
}

func sampleCLIReview() domain.Review {
	krw := decimal.NewFromInt(2600)
	return domain.Review{
		ID:              "01HXAMPLE",
		Title:           "Demian",
		OriginalContent: "Great book.",
		ImprovedContent: "A truly great book.",
		TokenCount:      60,
		USDCost:         decimal.RequireFromString("0.0006"),
		KRWCost:         &krw,
		FileID:          "file-123",
		OwnerUserID:     "user-1",
		Integration:     domain.NewIntegrationStatus("", "", "", nil),
		CreatedAt:       time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func runCommand(t *testing.T, service ReviewService, args ...string) (string, string, error) {
	t.Helper()
	color.NoColor = true

	var out, errOut bytes.Buffer
	root := NewRootCommand(Dependencies{
		Service: service,
		Args: Arguments{
			OutWriter: &out,
			ErrWriter: &errOut,
			InReader:  strings.NewReader(""),
		},
		Version: "v1.2.3",
	})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestCreate_PrintsReviewSummary(t *testing.T) {
	service := &fakeService{review: sampleCLIReview()}

	out, _, err := runCommand(t, service, "create", "--title", "Demian", "--content", "Great book.")

	require.NoError(t, err)
	assert.Equal(t, "Demian", service.createdReq.Title)
	assert.Equal(t, "Great book.", service.createdReq.Content)
	assert.Contains(t, out, "01HXAMPLE")
	assert.Contains(t, out, "SUCCESS")
	assert.Contains(t, out, "$0.000600")
	assert.Contains(t, out, "₩2,600")
}

func TestCreate_RequiresTitle(t *testing.T) {
	service := &fakeService{review: sampleCLIReview()}

	_, _, err := runCommand(t, service, "create", "--content", "Great book.")

	assert.Error(t, err)
}

func TestCreate_RequiresContentSource(t *testing.T) {
	service := &fakeService{review: sampleCLIReview()}

	_, _, err := runCommand(t, service, "create", "--title", "Demian")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--content")
}

func TestCreate_PrintsWarnings(t *testing.T) {
	r := sampleCLIReview()
	r.Integration = domain.NewIntegrationStatus(
		domain.StatusSkipped, domain.StatusSuccess, domain.StatusSuccess,
		[]string{"AI improvement skipped: API key not configured"},
	)
	service := &fakeService{review: r}

	out, _, err := runCommand(t, service, "create", "--title", "Demian", "--content", "x")

	require.NoError(t, err)
	assert.Contains(t, out, "SKIPPED")
	assert.Contains(t, out, "AI improvement skipped")
}

func TestGet_PrintsImprovedContent(t *testing.T) {
	service := &fakeService{review: sampleCLIReview()}

	out, _, err := runCommand(t, service, "get", "01HXAMPLE")

	require.NoError(t, err)
	assert.Contains(t, out, "A truly great book.")
}

func TestGet_NotFoundErrors(t *testing.T) {
	service := &fakeService{err: domain.ErrNotFound}

	_, _, err := runCommand(t, service, "get", "nope")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestList_RendersTable(t *testing.T) {
	service := &fakeService{reviews: []domain.Review{sampleCLIReview()}}

	out, _, err := runCommand(t, service, "list")

	require.NoError(t, err)
	assert.Contains(t, out, "TITLE")
	assert.Contains(t, out, "Demian")
	assert.Contains(t, out, "₩2,600")
}

func TestList_Empty(t *testing.T) {
	service := &fakeService{}

	out, _, err := runCommand(t, service, "list")

	require.NoError(t, err)
	assert.Contains(t, out, "no reviews")
}

func TestDelete_WithYesFlag(t *testing.T) {
	service := &fakeService{delResult: domain.DeleteReviewResult{Deleted: true, DriveDeleted: true}}

	out, _, err := runCommand(t, service, "delete", "01HXAMPLE", "--yes")

	require.NoError(t, err)
	assert.Equal(t, "01HXAMPLE", service.deletedID)
	assert.Contains(t, out, "deleted 01HXAMPLE")
	assert.NotContains(t, out, "not removed")
}

func TestDelete_ReportsStorageWarning(t *testing.T) {
	service := &fakeService{delResult: domain.DeleteReviewResult{
		Deleted:      true,
		DriveDeleted: false,
		Warnings:     []string{"failed to delete stored artifact: storage down"},
	}}

	out, errOut, err := runCommand(t, service, "delete", "01HXAMPLE", "--yes")

	require.NoError(t, err)
	assert.Contains(t, out, "not removed")
	assert.Contains(t, errOut, "failed to delete stored artifact")
}

func TestDownload_WritesToStdout(t *testing.T) {
	service := &fakeService{artifact: "# Demian\n\nA truly great book.\n"}

	out, _, err := runCommand(t, service, "download", "01HXAMPLE")

	require.NoError(t, err)
	assert.Equal(t, "# Demian\n\nA truly great book.\n", out)
}

func TestVersionFlag(t *testing.T) {
	service := &fakeService{}

	out, _, err := runCommand(t, service, "--version")

	assert.ErrorIs(t, err, ErrVersionRequested)
	assert.Contains(t, out, "v1.2.3")
}

func TestFormatUSD(t *testing.T) {
	assert.Equal(t, "$0.000600", FormatUSD(decimal.RequireFromString("0.0006")))
	assert.Equal(t, "$0.000000", FormatUSD(decimal.Zero))
}

func TestFormatKRW(t *testing.T) {
	krw := decimal.NewFromInt(1234567)
	assert.Equal(t, "₩1,234,567", FormatKRW(&krw))

	small := decimal.NewFromInt(950)
	assert.Equal(t, "₩950", FormatKRW(&small))

	assert.Equal(t, "-", FormatKRW(nil))
}
