package domain

import "fmt"

// Role is the fixed capability set of an account.
type Role string

const (
	RoleAdmin              Role = "admin"
	RoleCustomer           Role = "customer"
	RoleRestaurantOperator Role = "restaurant_operator"
	RoleCourier            Role = "courier"
)

func (r Role) String() string {
	return string(r)
}

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleCustomer, RoleRestaurantOperator, RoleCourier:
		return true
	default:
		return false
	}
}

func ParseRole(value string) (Role, error) {
	r := Role(value)
	if !r.IsValid() {
		return "", fmt.Errorf("invalid role %q", value)
	}
	return r, nil
}

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending       OrderStatus = "pending"
	OrderStatusConfirmed     OrderStatus = "confirmed"
	OrderStatusReady         OrderStatus = "ready"
	OrderStatusDelivered     OrderStatus = "delivered"
	OrderStatusCancelled     OrderStatus = "cancelled"
	OrderStatusAutoCancelled OrderStatus = "auto_cancelled"
)

func (s OrderStatus) String() string {
	return string(s)
}

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusReady, OrderStatusDelivered,
		OrderStatusCancelled, OrderStatusAutoCancelled:
		return true
	default:
		return false
	}
}

// IsCancelled reports whether the status is one of the cancellation side exits.
func (s OrderStatus) IsCancelled() bool {
	return s == OrderStatusCancelled || s == OrderStatusAutoCancelled
}

// IsTerminal reports whether no further transition is accepted.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s.IsCancelled()
}

func ParseOrderStatus(value string) (OrderStatus, error) {
	s := OrderStatus(value)
	if !s.IsValid() {
		return "", fmt.Errorf("invalid order status %q", value)
	}
	return s, nil
}

// ApplicationStatus is the review state of an onboarding application.
type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusApproved ApplicationStatus = "approved"
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

func (s ApplicationStatus) String() string {
	return string(s)
}

func (s ApplicationStatus) IsValid() bool {
	switch s {
	case ApplicationStatusPending, ApplicationStatusApproved, ApplicationStatusRejected:
		return true
	default:
		return false
	}
}

func ParseApplicationStatus(value string) (ApplicationStatus, error) {
	s := ApplicationStatus(value)
	if !s.IsValid() {
		return "", fmt.Errorf("invalid application status %q", value)
	}
	return s, nil
}

// AuditAction classifies administrator audit entries.
type AuditAction string

const (
	AuditApprovedApplication AuditAction = "APPROVED_APPLICATION"
	AuditRejectedApplication AuditAction = "REJECTED_APPLICATION"
	AuditAddedRestaurant     AuditAction = "ADDED_RESTAURANT"
	AuditDeletedRestaurant   AuditAction = "DELETED_RESTAURANT"
	AuditEditedMenu          AuditAction = "EDITED_MENU"
	AuditAddedMenuItem       AuditAction = "ADDED_MENU_ITEM"
	AuditEditedMenuItem      AuditAction = "EDITED_MENU_ITEM"
)

func (a AuditAction) String() string {
	return string(a)
}

func (a AuditAction) IsValid() bool {
	switch a {
	case AuditApprovedApplication, AuditRejectedApplication, AuditAddedRestaurant, AuditDeletedRestaurant,
		AuditEditedMenu, AuditAddedMenuItem, AuditEditedMenuItem:
		return true
	default:
		return false
	}
}

func ParseAuditAction(value string) (AuditAction, error) {
	a := AuditAction(value)
	if !a.IsValid() {
		return "", fmt.Errorf("invalid audit action %q", value)
	}
	return a, nil
}

// PaymentCashOnDelivery is the payment method that requires a cash-received
// confirmation before delivery commits.
const PaymentCashOnDelivery = "Cash on Delivery"
