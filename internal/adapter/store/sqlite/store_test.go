package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/bookreviewer/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleReview(owner string) domain.Review {
	krw := decimal.NewFromInt(2600)
	return domain.Review{
		Title:           "Demian",
		OriginalContent: "Great book.",
		ImprovedContent: "A truly great book.",
		TokenCount:      60,
		USDCost:         decimal.RequireFromString("0.000600"),
		KRWCost:         &krw,
		FileID:          "file-123",
		OwnerUserID:     owner,
		Integration:     domain.NewIntegrationStatus("", "", "", nil),
	}
}

func TestSave_AssignsIDAndCreatedAt(t *testing.T) {
	store := newTestStore(t)
	review := sampleReview("user-1")

	require.NoError(t, store.Save(context.Background(), &review))

	assert.NotEmpty(t, review.ID)
	assert.False(t, review.CreatedAt.IsZero())
}

func TestSave_KeepsCallerAssignedID(t *testing.T) {
	store := newTestStore(t)
	review := sampleReview("user-1")
	review.ID = "fixed-id"

	require.NoError(t, store.Save(context.Background(), &review))

	got, err := store.Get(context.Background(), "fixed-id")
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", got.ID)
}

func TestGet_RoundTripsAllFields(t *testing.T) {
	store := newTestStore(t)
	review := sampleReview("user-1")
	review.Integration = domain.NewIntegrationStatus(
		domain.StatusSkipped, domain.StatusFailed, domain.StatusSuccess,
		[]string{"AI improvement skipped", "currency conversion failed"},
	)

	require.NoError(t, store.Save(context.Background(), &review))

	got, err := store.Get(context.Background(), review.ID)
	require.NoError(t, err)
	assert.Equal(t, review.Title, got.Title)
	assert.Equal(t, review.OriginalContent, got.OriginalContent)
	assert.Equal(t, review.ImprovedContent, got.ImprovedContent)
	assert.Equal(t, review.TokenCount, got.TokenCount)
	assert.Equal(t, "0.0006", got.USDCost.String())
	require.NotNil(t, got.KRWCost)
	assert.Equal(t, "2600", got.KRWCost.String())
	assert.Equal(t, review.FileID, got.FileID)
	assert.Equal(t, review.OwnerUserID, got.OwnerUserID)
	assert.Equal(t, domain.StatusSkipped, got.Integration.AI)
	assert.Equal(t, domain.StatusFailed, got.Integration.Currency)
	assert.Equal(t, domain.StatusSuccess, got.Integration.Storage)
	assert.Equal(t, "AI improvement skipped\ncurrency conversion failed", got.Integration.WarningMessage)
}

func TestGet_NilKRWCostSurvivesRoundTrip(t *testing.T) {
	store := newTestStore(t)
	review := sampleReview("user-1")
	review.KRWCost = nil

	require.NoError(t, store.Save(context.Background(), &review))

	got, err := store.Get(context.Background(), review.ID)
	require.NoError(t, err)
	assert.Nil(t, got.KRWCost)
}

func TestGet_UnknownIDIsNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "nope")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetForOwner_HidesOtherOwnersReviews(t *testing.T) {
	store := newTestStore(t)
	review := sampleReview("user-1")
	require.NoError(t, store.Save(context.Background(), &review))

	_, err := store.GetForOwner(context.Background(), review.ID, "user-2")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := store.GetForOwner(context.Background(), review.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, review.ID, got.ID)
}

func TestList_NewestFirst(t *testing.T) {
	store := newTestStore(t)
	base := time.Unix(1_700_000_000, 0).UTC()

	for i, title := range []string{"First", "Second", "Third"} {
		review := sampleReview("user-1")
		review.Title = title
		review.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.Save(context.Background(), &review))
	}

	reviews, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, reviews, 3)
	assert.Equal(t, "Third", reviews[0].Title)
	assert.Equal(t, "Second", reviews[1].Title)
	assert.Equal(t, "First", reviews[2].Title)
}

func TestListByOwner_FiltersByOwner(t *testing.T) {
	store := newTestStore(t)

	mine := sampleReview("user-1")
	require.NoError(t, store.Save(context.Background(), &mine))
	theirs := sampleReview("user-2")
	require.NoError(t, store.Save(context.Background(), &theirs))

	reviews, err := store.ListByOwner(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, mine.ID, reviews[0].ID)

	all, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDelete_RemovesRecord(t *testing.T) {
	store := newTestStore(t)
	review := sampleReview("user-1")
	require.NoError(t, store.Save(context.Background(), &review))

	require.NoError(t, store.Delete(context.Background(), review.ID))

	_, err := store.Get(context.Background(), review.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete_UnknownIDIsNotFound(t *testing.T) {
	store := newTestStore(t)

	err := store.Delete(context.Background(), "nope")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
