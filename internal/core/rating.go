package core

import (
	"foodbike/pkg/domain"

	"github.com/shopspring/decimal"
)

// AverageRating is the mean of the review ratings rounded half-up to one
// decimal. ok is false when there are no reviews.
func AverageRating(reviews []Review) (avg decimal.Decimal, ok bool) {
	if len(reviews) == 0 {
		return decimal.Zero, false
	}
	sum := int64(0)
	for _, r := range reviews {
		sum += int64(r.Rating)
	}
	return decimal.NewFromInt(sum).DivRound(decimal.NewFromInt(int64(len(reviews))), 1), true
}

// refreshRating recomputes a restaurant's rating from its reviews inside tx.
// Reviews of a deleted restaurant are kept and nothing is updated.
func refreshRating(tx domain.Transaction, restaurantID string) (decimal.Decimal, bool, error) {
	if _, ok := tx.FindRestaurant(restaurantID); !ok {
		return decimal.Zero, false, nil
	}
	var reviews []Review
	for _, r := range tx.Snapshot().ListReviews() {
		if r.RestaurantID == restaurantID {
			reviews = append(reviews, r)
		}
	}
	avg, ok := AverageRating(reviews)
	if !ok {
		return decimal.Zero, false, nil
	}
	if _, err := tx.UpdateRestaurant(restaurantID, func(r *Restaurant) error {
		r.Rating = avg
		return nil
	}); err != nil {
		return decimal.Zero, false, err
	}
	return avg, true, nil
}
