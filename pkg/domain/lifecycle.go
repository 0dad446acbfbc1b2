package domain

import (
	"fmt"
	"time"
)

// AutoCancelWindow is how long an order may stay pending before it is treated as abandoned.
const AutoCancelWindow = time.Hour

// OrderAction names a step of the order lifecycle.
type OrderAction string

const (
	OrderActionConfirm    OrderAction = "confirm"
	OrderActionCancel     OrderAction = "cancel"
	OrderActionAutoCancel OrderAction = "auto_cancel"
	OrderActionMarkReady  OrderAction = "mark_ready"
	OrderActionClaim      OrderAction = "claim"
	OrderActionDecline    OrderAction = "decline"
	OrderActionDeliver    OrderAction = "deliver"
	OrderActionReview     OrderAction = "review"
)

// TransitionContext is everything the lifecycle table needs to judge an action.
type TransitionContext struct {
	Order Order
	Actor Actor
	// RestaurantOperator is the username owning the order's restaurant, if any.
	RestaurantOperator string
	// Reviewed reports whether the order's customer already reviewed it.
	Reviewed bool
}

type orderTransition struct {
	action OrderAction
	role   Role
	from   OrderStatus
	to     OrderStatus
	guard  func(TransitionContext) string
}

// orderTransitions is the single table driving validation and presentation.
// Claim, decline and review keep the status; they are gated by the same table.
var orderTransitions = []orderTransition{
	{action: OrderActionConfirm, role: RoleRestaurantOperator, from: OrderStatusPending, to: OrderStatusConfirmed, guard: ownsRestaurant},
	{action: OrderActionCancel, role: RoleCustomer, from: OrderStatusPending, to: OrderStatusCancelled, guard: ownsOrder},
	{action: OrderActionAutoCancel, role: "", from: OrderStatusPending, to: OrderStatusAutoCancelled},
	{action: OrderActionMarkReady, role: RoleRestaurantOperator, from: OrderStatusConfirmed, to: OrderStatusReady, guard: ownsRestaurant},
	{action: OrderActionClaim, role: RoleCourier, from: OrderStatusReady, to: OrderStatusReady, guard: claimable},
	{action: OrderActionDecline, role: RoleCourier, from: OrderStatusReady, to: OrderStatusReady, guard: declinable},
	{action: OrderActionDeliver, role: RoleCourier, from: OrderStatusReady, to: OrderStatusDelivered, guard: claimedBySelf},
	{action: OrderActionReview, role: RoleCustomer, from: OrderStatusDelivered, to: OrderStatusDelivered, guard: ownsOrder},
}

func ownsRestaurant(c TransitionContext) string {
	if c.RestaurantOperator == "" || c.RestaurantOperator != c.Actor.Username {
		return "actor does not operate the restaurant"
	}
	return ""
}

func ownsOrder(c TransitionContext) string {
	if c.Order.CustomerID != c.Actor.Username {
		return "actor did not place the order"
	}
	return ""
}

func claimable(c TransitionContext) string {
	if c.Order.CourierID != "" && c.Order.CourierID != c.Actor.Username {
		return fmt.Sprintf("already claimed by %s", c.Order.CourierID)
	}
	return ""
}

func declinable(c TransitionContext) string {
	if c.Order.CourierID == c.Actor.Username {
		return "actor holds the delivery"
	}
	return ""
}

func claimedBySelf(c TransitionContext) string {
	if c.Order.CourierID != c.Actor.Username {
		return "delivery is not claimed by actor"
	}
	return ""
}

func lookupTransition(action OrderAction) (orderTransition, bool) {
	for _, t := range orderTransitions {
		if t.action == action {
			return t, true
		}
	}
	return orderTransition{}, false
}

// EvaluateAction checks action against the lifecycle table and returns the
// status the order moves to. A rejected action yields an *IllegalTransitionError;
// a second review of the same order yields a *DuplicateKeyError.
func EvaluateAction(c TransitionContext, action OrderAction) (OrderStatus, error) {
	t, ok := lookupTransition(action)
	if !ok {
		return "", &IllegalTransitionError{OrderID: c.Order.ID, Action: action, Current: c.Order.Status, Reason: "unknown action"}
	}
	illegal := func(reason string) error {
		return &IllegalTransitionError{OrderID: c.Order.ID, Action: action, Attempted: t.to, Current: c.Order.Status, Reason: reason}
	}
	if c.Order.Status != t.from {
		return "", illegal(fmt.Sprintf("requires status %s", t.from))
	}
	if t.role == "" {
		if c.Actor != System {
			return "", illegal("system only")
		}
	} else if c.Actor.Role != t.role {
		return "", illegal(fmt.Sprintf("requires role %s", t.role))
	}
	if t.guard != nil {
		if reason := t.guard(c); reason != "" {
			return "", illegal(reason)
		}
	}
	if action == OrderActionReview && c.Reviewed {
		return "", &DuplicateKeyError{Entity: EntityReview, Key: c.Actor.Username + "/" + c.Order.ID}
	}
	return t.to, nil
}

// AllowedActions lists the actions the context's actor may take right now,
// in table order. Auto-cancellation is never offered.
func AllowedActions(c TransitionContext) []OrderAction {
	var out []OrderAction
	for _, t := range orderTransitions {
		if t.action == OrderActionAutoCancel {
			continue
		}
		if _, err := EvaluateAction(c, t.action); err == nil {
			out = append(out, t.action)
		}
	}
	return out
}

// CanTransition reports whether the table contains an edge from -> to.
// Staying in a non-terminal status is always permitted.
func CanTransition(from, to OrderStatus) bool {
	if from == to {
		return !from.IsTerminal()
	}
	for _, t := range orderTransitions {
		if t.from == from && t.to == to {
			return true
		}
	}
	return false
}

// ShouldAutoCancel reports whether a pending order has outlived the cancellation window at now.
func ShouldAutoCancel(o Order, now time.Time) bool {
	return o.Status == OrderStatusPending && now.Sub(o.CreatedAt) > AutoCancelWindow
}

// StageState describes one step of the happy path for progress display.
type StageState string

const (
	StageCompleted StageState = "completed"
	StageCurrent   StageState = "current"
	StageUpcoming  StageState = "upcoming"
	StageCancelled StageState = "cancelled"
	StageSkipped   StageState = "skipped"
)

// Stage pairs a happy-path status with its display state.
type Stage struct {
	Status OrderStatus
	State  StageState
}

var happyPath = []OrderStatus{OrderStatusPending, OrderStatusConfirmed, OrderStatusReady, OrderStatusDelivered}

// StageProgress maps a status onto the happy path. Cancelled statuses are
// resolved before any ordinal comparison.
func StageProgress(status OrderStatus) []Stage {
	out := make([]Stage, len(happyPath))
	if status.IsCancelled() {
		for i, s := range happyPath {
			state := StageSkipped
			if i == 0 {
				state = StageCancelled
			}
			out[i] = Stage{Status: s, State: state}
		}
		return out
	}
	current := 0
	for i, s := range happyPath {
		if s == status {
			current = i
		}
	}
	for i, s := range happyPath {
		state := StageUpcoming
		switch {
		case i < current:
			state = StageCompleted
		case i == current && status == OrderStatusDelivered:
			state = StageCompleted
		case i == current:
			state = StageCurrent
		}
		out[i] = Stage{Status: s, State: state}
	}
	return out
}
