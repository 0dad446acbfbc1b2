package core

import (
	"context"
	"strings"

	"foodbike/pkg/domain"
)

// ReviewInput is a customer's rating of a delivered order.
type ReviewInput struct {
	OrderID string `json:"order_id" validate:"required"`
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Comment string `json:"comment,omitempty" validate:"max=1000"`
}

// SubmitReview stores the review and refreshes the restaurant rating in the
// same transaction. A second review of the same order by the same customer
// yields a *domain.DuplicateKeyError.
func (s *Service) SubmitReview(ctx context.Context, actor Actor, in ReviewInput) (Review, error) {
	in.Comment = strings.TrimSpace(in.Comment)
	if err := domain.Validate(domain.EntityReview, in); err != nil {
		return Review{}, err
	}
	var created Review
	_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		o, ok := tx.FindOrder(in.OrderID)
		if !ok {
			return &domain.NotFoundError{Entity: domain.EntityOrder, Key: in.OrderID}
		}
		if _, err := domain.EvaluateAction(s.transitionContext(tx.Snapshot(), actor, o), domain.OrderActionReview); err != nil {
			return err
		}
		var err error
		created, err = tx.CreateReview(Review{
			ID:           s.newID(ReviewIDPrefix),
			RestaurantID: o.RestaurantID,
			UserID:       actor.Username,
			OrderID:      o.ID,
			Rating:       in.Rating,
			Comment:      in.Comment,
		})
		if err != nil {
			return err
		}
		_, _, err = refreshRating(tx, o.RestaurantID)
		return err
	})
	if err != nil && !domain.IsSoft(err) {
		return Review{}, err
	}
	actx := s.actorContext(ctx, actor)
	s.logSoft(actx, "submit_review", err)
	s.metrics.IncTransition(string(domain.OrderActionReview))
	s.log.Info(s.log.WithFields(actx, map[string]any{"order_id": created.OrderID, "restaurant_id": created.RestaurantID}), "review submitted")
	return created, err
}

// ListReviews returns a restaurant's reviews newest first.
func (s *Service) ListReviews(ctx context.Context, restaurantID string) ([]Review, error) {
	var out []Review
	err := s.store.View(ctx, func(v domain.TransactionView) error {
		for _, r := range v.ListReviews() {
			if r.RestaurantID == restaurantID {
				out = append(out, r)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	newestFirst(out, func(r Review) int64 { return r.CreatedAt.UnixNano() })
	return out, nil
}

// HasReviewed reports whether username already reviewed the order.
func (s *Service) HasReviewed(ctx context.Context, username, orderID string) (bool, error) {
	reviewed := false
	err := s.store.View(ctx, func(v domain.TransactionView) error {
		reviewed = hasReview(v, username, orderID)
		return nil
	})
	return reviewed, err
}

func hasReview(v domain.TransactionView, username, orderID string) bool {
	for _, r := range v.ListReviews() {
		if r.UserID == username && r.OrderID == orderID {
			return true
		}
	}
	return false
}
