package core

import (
	"context"
	"testing"
	"time"

	"foodbike/internal/storage"
	"foodbike/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAverageRating(t *testing.T) {
	cases := []struct {
		name    string
		ratings []int
		want    string
		ok      bool
	}{
		{name: "none", ratings: nil, want: "0", ok: false},
		{name: "single", ratings: []int{5}, want: "5", ok: true},
		{name: "half", ratings: []int{4, 5}, want: "4.5", ok: true},
		{name: "round down", ratings: []int{4, 4, 5}, want: "4.3", ok: true},
		{name: "round up", ratings: []int{2, 3, 3}, want: "2.7", ok: true},
		{name: "half up", ratings: []int{4, 5, 5, 5}, want: "4.8", ok: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reviews := make([]Review, len(tc.ratings))
			for i, r := range tc.ratings {
				reviews[i] = Review{Rating: r}
			}
			got, ok := AverageRating(reviews)
			assert.Equal(t, tc.ok, ok)
			assert.True(t, got.Equal(mustDecimal(tc.want)), "got %s", got)
		})
	}
}

func TestReviewsRefreshRestaurantRating(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	svc := openEmpty(t, storage.NewMemory(), clock)
	r := createKitchen(t, svc, "Sylhet", "Habiganj", 100)
	assert.Equal(t, "4.5", mustRestaurant(t, svc, r.ID).Rating.String(), "default rating before any review")

	for _, rating := range []int{4, 5} {
		o := placeOrder(t, svc, r)
		deliver(t, svc, o.ID)
		_, err := svc.SubmitReview(ctx, customerActor, ReviewInput{OrderID: o.ID, Rating: rating})
		require.NoError(t, err)
		clock.Advance(time.Minute)
	}
	got, err := svc.Rating(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "4.5", got.StringFixed(1))

	o := placeOrder(t, svc, r)
	deliver(t, svc, o.ID)
	_, err = svc.SubmitReview(ctx, customerActor, ReviewInput{OrderID: o.ID, Rating: 4, Comment: "  fine  "})
	require.NoError(t, err)
	got, err = svc.Rating(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "4.3", got.StringFixed(1))

	reviews, err := svc.ListReviews(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 3)
	assert.Equal(t, o.ID, reviews[0].OrderID, "newest first")
	assert.Equal(t, "fine", reviews[0].Comment)
	assert.Equal(t, 4, reviews[2].Rating)
}

func TestDuplicateReviewIsRejected(t *testing.T) {
	ctx := context.Background()
	svc := openEmpty(t, storage.NewMemory(), newTestClock())
	r := createKitchen(t, svc, "Khulna", "Kushtia", 100)
	o := placeOrder(t, svc, r)
	deliver(t, svc, o.ID)

	reviewed, err := svc.HasReviewed(ctx, customerActor.Username, o.ID)
	require.NoError(t, err)
	assert.False(t, reviewed)

	_, err = svc.SubmitReview(ctx, customerActor, ReviewInput{OrderID: o.ID, Rating: 5})
	require.NoError(t, err)
	_, err = svc.SubmitReview(ctx, customerActor, ReviewInput{OrderID: o.ID, Rating: 1})
	require.ErrorIs(t, err, domain.ErrDuplicateKey)

	reviewed, err = svc.HasReviewed(ctx, customerActor.Username, o.ID)
	require.NoError(t, err)
	assert.True(t, reviewed)

	reviews, err := svc.ListReviews(ctx, r.ID)
	require.NoError(t, err)
	assert.Len(t, reviews, 1)
	got, err := svc.Rating(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "5.0", got.StringFixed(1))
}

func TestReviewRequiresDeliveredOwnOrder(t *testing.T) {
	ctx := context.Background()
	svc := openEmpty(t, storage.NewMemory(), newTestClock())
	r := createKitchen(t, svc, "Rajshahi", "Pabna", 100)
	o := placeOrder(t, svc, r)

	_, err := svc.SubmitReview(ctx, customerActor, ReviewInput{OrderID: o.ID, Rating: 4})
	require.ErrorIs(t, err, domain.ErrIllegalTransition)

	deliver(t, svc, o.ID)
	stranger := Actor{Username: "user2", Role: domain.RoleCustomer}
	_, err = svc.SubmitReview(ctx, stranger, ReviewInput{OrderID: o.ID, Rating: 4})
	require.ErrorIs(t, err, domain.ErrIllegalTransition)

	_, err = svc.SubmitReview(ctx, customerActor, ReviewInput{OrderID: "ORD_missing", Rating: 4})
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.SubmitReview(ctx, customerActor, ReviewInput{OrderID: o.ID, Rating: 6})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "rating")
}

func TestReviewOfDeletedRestaurantIsKept(t *testing.T) {
	ctx := context.Background()
	svc := openEmpty(t, storage.NewMemory(), newTestClock())
	r := createKitchen(t, svc, "Barisal", "Pirojpur", 100)
	o := placeOrder(t, svc, r)
	deliver(t, svc, o.ID)
	_, err := svc.DeleteRestaurant(ctx, adminActor, r.ID)
	require.NoError(t, err)

	_, err = svc.SubmitReview(ctx, customerActor, ReviewInput{OrderID: o.ID, Rating: 2})
	require.NoError(t, err)
	reviews, err := svc.ListReviews(ctx, r.ID)
	require.NoError(t, err)
	assert.Len(t, reviews, 1)
}
