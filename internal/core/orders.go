package core

import (
	"context"
	"strconv"
	"strings"

	"foodbike/pkg/domain"

	"github.com/shopspring/decimal"
)

// OrderRequest is a customer's basket. ItemIDs may repeat to order a dish twice.
type OrderRequest struct {
	RestaurantID    string   `json:"restaurant_id" validate:"required"`
	ItemIDs         []string `json:"items" validate:"required,min=1,dive,required"`
	DeliveryAddress string   `json:"delivery_address,omitempty"`
	PaymentMethod   string   `json:"payment_method,omitempty"`
}

// DeliveryConfirmation accompanies a deliver action.
type DeliveryConfirmation struct {
	// CashReceived must be set for cash-on-delivery orders.
	CashReceived bool
}

// PlaceOrder creates a pending order. Item prices are captured now; later menu
// edits do not change the order.
func (s *Service) PlaceOrder(ctx context.Context, actor Actor, req OrderRequest) (Order, error) {
	if err := requireRole(actor, "place orders", domain.RoleCustomer); err != nil {
		return Order{}, err
	}
	if err := domain.Validate(domain.EntityOrder, req); err != nil {
		return Order{}, err
	}
	payment := strings.TrimSpace(req.PaymentMethod)
	if payment == "" {
		payment = domain.PaymentCashOnDelivery
	}

	var created Order
	_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		r, ok := tx.FindRestaurant(req.RestaurantID)
		if !ok {
			return &domain.NotFoundError{Entity: domain.EntityRestaurant, Key: req.RestaurantID}
		}
		items := make([]MenuItem, 0, len(req.ItemIDs))
		total := decimal.Zero
		for i, id := range req.ItemIDs {
			item, ok := r.FindMenuItem(id)
			if !ok {
				return domain.NewValidationError(domain.EntityOrder, itemField(i), "is not on the menu of "+r.ID)
			}
			items = append(items, item)
			total = total.Add(item.Price)
		}
		var err error
		created, err = tx.CreateOrder(Order{
			ID:              s.newID(OrderIDPrefix),
			CustomerID:      actor.Username,
			RestaurantID:    r.ID,
			RestaurantName:  r.Name,
			Subregion:       r.Subregion,
			DeliveryAddress: strings.TrimSpace(req.DeliveryAddress),
			Items:           items,
			TotalPrice:      total,
			Status:          domain.OrderStatusPending,
			PaymentMethod:   payment,
		})
		return err
	})
	if err != nil && !domain.IsSoft(err) {
		return Order{}, err
	}
	actx := s.actorContext(ctx, actor)
	s.logSoft(actx, "place_order", err)
	s.log.Info(s.log.WithFields(actx, map[string]any{"order_id": created.ID, "restaurant_id": created.RestaurantID}), "order placed")
	return created, err
}

func itemField(i int) string {
	return "items[" + strconv.Itoa(i) + "]"
}

// ConfirmOrder moves a pending order to confirmed.
func (s *Service) ConfirmOrder(ctx context.Context, actor Actor, orderID string) (Order, error) {
	return s.transition(ctx, actor, orderID, domain.OrderActionConfirm, nil)
}

// CancelOrder lets the customer withdraw a pending order.
func (s *Service) CancelOrder(ctx context.Context, actor Actor, orderID string) (Order, error) {
	return s.transition(ctx, actor, orderID, domain.OrderActionCancel, nil)
}

// MarkReady signals the kitchen finished a confirmed order.
func (s *Service) MarkReady(ctx context.Context, actor Actor, orderID string) (Order, error) {
	return s.transition(ctx, actor, orderID, domain.OrderActionMarkReady, nil)
}

// ClaimOrder assigns a ready order to the calling courier.
func (s *Service) ClaimOrder(ctx context.Context, actor Actor, orderID string) (Order, error) {
	return s.transition(ctx, actor, orderID, domain.OrderActionClaim, func(o *Order) error {
		o.CourierID = actor.Username
		return nil
	})
}

// DeclineOrder lets a courier pass on a ready order. Nothing is written.
func (s *Service) DeclineOrder(ctx context.Context, actor Actor, orderID string) (Order, error) {
	return s.transition(ctx, actor, orderID, domain.OrderActionDecline, nil)
}

// DeliverOrder completes a claimed order. Cash-on-delivery orders need
// confirm.CashReceived; without it nothing changes.
func (s *Service) DeliverOrder(ctx context.Context, actor Actor, orderID string, confirm DeliveryConfirmation) (Order, error) {
	return s.transition(ctx, actor, orderID, domain.OrderActionDeliver, func(o *Order) error {
		if o.IsCashOnDelivery() && !confirm.CashReceived {
			return domain.ErrCashConfirmationRequired
		}
		return nil
	})
}

// transition runs action through the lifecycle table inside the write path.
// An order found past its confirmation window is auto-cancelled first and the
// flip is committed even though the requested action is then rejected.
func (s *Service) transition(ctx context.Context, actor Actor, orderID string, action domain.OrderAction, mutate func(*Order) error) (Order, error) {
	var (
		result  Order
		expired *domain.IllegalTransitionError
	)
	_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		current, ok := tx.FindOrder(orderID)
		if !ok {
			return &domain.NotFoundError{Entity: domain.EntityOrder, Key: orderID}
		}
		if domain.ShouldAutoCancel(current, tx.Now()) {
			flipped, err := autoCancel(tx, current)
			if err != nil {
				return err
			}
			result = flipped
			_, rejected := domain.EvaluateAction(s.transitionContext(tx.Snapshot(), actor, flipped), action)
			expired, _ = rejected.(*domain.IllegalTransitionError)
			if expired == nil {
				expired = &domain.IllegalTransitionError{OrderID: orderID, Action: action, Current: flipped.Status, Reason: "order expired"}
			}
			return nil
		}
		next, err := domain.EvaluateAction(s.transitionContext(tx.Snapshot(), actor, current), action)
		if err != nil {
			return err
		}
		if next == current.Status && mutate == nil {
			result = current
			return nil
		}
		result, err = tx.UpdateOrder(orderID, func(o *Order) error {
			if mutate != nil {
				if err := mutate(o); err != nil {
					return err
				}
			}
			o.Status = next
			return nil
		})
		return err
	})
	actx := s.log.WithField(s.actorContext(ctx, actor), "order_id", orderID)
	if expired != nil {
		s.metrics.AddAutoCancellations(1)
		s.logSoft(actx, "auto_cancel", err)
		s.log.Info(actx, "order auto-cancelled on access")
		return result, expired
	}
	if err != nil && !domain.IsSoft(err) {
		return Order{}, err
	}
	s.logSoft(actx, string(action), err)
	s.metrics.IncTransition(string(action))
	s.log.Debug(s.log.WithFields(actx, map[string]any{"action": string(action), "status": string(result.Status)}), "order transition")
	return result, err
}

func autoCancel(tx domain.Transaction, o Order) (Order, error) {
	next, err := domain.EvaluateAction(domain.TransitionContext{Order: o, Actor: domain.System}, domain.OrderActionAutoCancel)
	if err != nil {
		return Order{}, err
	}
	return tx.UpdateOrder(o.ID, func(o *Order) error {
		o.Status = next
		return nil
	})
}

func (s *Service) transitionContext(v domain.TransactionView, actor Actor, o Order) domain.TransitionContext {
	c := domain.TransitionContext{Order: o, Actor: actor}
	if r, ok := v.FindRestaurant(o.RestaurantID); ok {
		c.RestaurantOperator = r.OperatorUsername
	}
	c.Reviewed = hasReview(v, o.CustomerID, o.ID)
	return c
}

// AllowedActions lists what actor may do with the order right now.
func (s *Service) AllowedActions(ctx context.Context, actor Actor, orderID string) ([]domain.OrderAction, error) {
	o, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	var actions []domain.OrderAction
	err = s.store.View(ctx, func(v domain.TransactionView) error {
		actions = domain.AllowedActions(s.transitionContext(v, actor, o))
		return nil
	})
	return actions, err
}

// GetOrder returns one order after applying a due auto-cancellation.
func (s *Service) GetOrder(ctx context.Context, orderID string) (Order, error) {
	if err := s.sweep(ctx, func(o Order) bool { return o.ID == orderID }); err != nil && !domain.IsSoft(err) {
		return Order{}, err
	}
	var (
		o  Order
		ok bool
	)
	if err := s.store.View(ctx, func(v domain.TransactionView) error {
		o, ok = v.FindOrder(orderID)
		return nil
	}); err != nil {
		return Order{}, err
	}
	if !ok {
		return Order{}, &domain.NotFoundError{Entity: domain.EntityOrder, Key: orderID}
	}
	return o, nil
}

// ListCustomerOrders returns a customer's orders newest first.
func (s *Service) ListCustomerOrders(ctx context.Context, username string) ([]Order, error) {
	return s.listOrders(ctx, func(o Order) bool { return o.CustomerID == username })
}

// ListRestaurantOrders returns a restaurant's orders newest first.
func (s *Service) ListRestaurantOrders(ctx context.Context, restaurantID string) ([]Order, error) {
	return s.listOrders(ctx, func(o Order) bool { return o.RestaurantID == restaurantID })
}

// ListCourierQueue returns ready orders that are unclaimed or claimed by the courier.
func (s *Service) ListCourierQueue(ctx context.Context, actor Actor) ([]Order, error) {
	if err := requireRole(actor, "view the delivery queue", domain.RoleCourier); err != nil {
		return nil, err
	}
	return s.listOrders(ctx, func(o Order) bool {
		return o.Status == domain.OrderStatusReady && (o.CourierID == "" || o.CourierID == actor.Username)
	})
}

// ListAllOrders returns every order newest first.
func (s *Service) ListAllOrders(ctx context.Context) ([]Order, error) {
	return s.listOrders(ctx, func(Order) bool { return true })
}

// listOrders sweeps the pending orders of the selection before reading it,
// so an expired order is never returned as pending. A soft storage error
// from the sweep is returned alongside the list.
func (s *Service) listOrders(ctx context.Context, match func(Order) bool) ([]Order, error) {
	sweepErr := s.sweep(ctx, match)
	if sweepErr != nil && !domain.IsSoft(sweepErr) {
		return nil, sweepErr
	}
	var out []Order
	err := s.store.View(ctx, func(v domain.TransactionView) error {
		for _, o := range v.ListOrders() {
			if match(o) {
				out = append(out, o)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	newestFirst(out, func(o Order) int64 { return o.CreatedAt.UnixNano() })
	return out, sweepErr
}

// sweep flips every matching pending order past the window. The check runs on
// a snapshot first so the common case takes no write lock.
func (s *Service) sweep(ctx context.Context, match func(Order) bool) error {
	now := s.store.Now()
	var due []string
	if err := s.store.View(ctx, func(v domain.TransactionView) error {
		for _, o := range v.ListOrders() {
			if match(o) && domain.ShouldAutoCancel(o, now) {
				due = append(due, o.ID)
			}
		}
		return nil
	}); err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}
	flipped := 0
	_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		flipped = 0
		for _, id := range due {
			o, ok := tx.FindOrder(id)
			if !ok || !domain.ShouldAutoCancel(o, tx.Now()) {
				continue
			}
			if _, err := autoCancel(tx, o); err != nil {
				return err
			}
			flipped++
		}
		return nil
	})
	if err != nil && !domain.IsSoft(err) {
		return err
	}
	s.metrics.AddAutoCancellations(flipped)
	sctx := s.log.WithField(ctx, "count", flipped)
	s.logSoft(sctx, "auto_cancel", err)
	s.log.Info(sctx, "pending orders auto-cancelled")
	return err
}
