// Package domain defines the persistent records, value types, order lifecycle
// table and rule evaluation primitives used by the foodbike ordering core.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and storage units.
const (
	// EntityAccount identifies a user account keyed by username.
	EntityAccount EntityType = "account"
	// EntityRestaurant identifies a restaurant record (menu embedded).
	EntityRestaurant EntityType = "restaurant"
	// EntityMenuItem identifies a menu item inside a restaurant menu.
	EntityMenuItem EntityType = "menu_item"
	// EntityOrder identifies a customer order.
	EntityOrder EntityType = "order"
	// EntityApplication identifies a restaurant onboarding application.
	EntityApplication EntityType = "application"
	// EntityAuditEntry identifies an append-only administrator audit entry.
	EntityAuditEntry EntityType = "audit_entry"
	// EntityReview identifies a customer review of a delivered order.
	EntityReview EntityType = "review"
)

// DefaultRestaurantRating is assigned to restaurants created without a rating.
var DefaultRestaurantRating = decimal.RequireFromString("4.5")

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock prevents the transaction from committing.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Actor identifies the caller of a role-gated operation.
type Actor struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// System is the actor used for passive transitions such as auto-cancellation.
var System = Actor{Username: "system"}

// Account is a registered user. Role is fixed at creation.
type Account struct {
	Username     string    `json:"username" validate:"required,min=3,max=32,username"`
	PasswordHash string    `json:"password_hash"`
	Email        string    `json:"email" validate:"required,email"`
	Phone        string    `json:"phone" validate:"required,phone"`
	Role         Role      `json:"role" validate:"required,role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Actor returns the role-carrying identity for the account.
func (a Account) Actor() Actor {
	return Actor{Username: a.Username, Role: a.Role}
}

// MenuItem is a priced dish owned by exactly one restaurant menu.
type MenuItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name" validate:"required,max=120"`
	Description string          `json:"description,omitempty" validate:"max=500"`
	Price       decimal.Decimal `json:"price" validate:"gt=0"`
}

// Restaurant is a listed venue. Rating is seeded or derived from reviews.
type Restaurant struct {
	ID               string          `json:"id"`
	Name             string          `json:"name" validate:"required,max=120"`
	Region           string          `json:"region" validate:"required,region"`
	Subregion        string          `json:"subregion"`
	Address          string          `json:"address" validate:"required"`
	Rating           decimal.Decimal `json:"rating" validate:"gte=0,lte=5"`
	Menu             []MenuItem      `json:"menu" validate:"dive"`
	OperatorUsername string          `json:"operator_username,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// FindMenuItem returns the menu item with the given id.
func (r Restaurant) FindMenuItem(id string) (MenuItem, bool) {
	for _, item := range r.Menu {
		if item.ID == id {
			return item, true
		}
	}
	return MenuItem{}, false
}

// Order is a customer purchase. TotalPrice is fixed at placement time.
type Order struct {
	ID              string          `json:"id"`
	CustomerID      string          `json:"customer_id" validate:"required"`
	RestaurantID    string          `json:"restaurant_id" validate:"required"`
	RestaurantName  string          `json:"restaurant_name"`
	Subregion       string          `json:"subregion"`
	DeliveryAddress string          `json:"delivery_address,omitempty"`
	Items           []MenuItem      `json:"items" validate:"required,min=1,dive"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	Status          OrderStatus     `json:"status"`
	CourierID       string          `json:"courier_id,omitempty"`
	PaymentMethod   string          `json:"payment_method,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// IsCashOnDelivery reports whether delivery requires a cash confirmation.
func (o Order) IsCashOnDelivery() bool {
	return o.PaymentMethod == PaymentCashOnDelivery
}

// Application is an operator's request to list a new restaurant.
type Application struct {
	ID               string            `json:"id"`
	OperatorUsername string            `json:"operator_username" validate:"required"`
	RestaurantName   string            `json:"restaurant_name" validate:"required,max=120"`
	Region           string            `json:"region" validate:"required,region"`
	Subregion        string            `json:"subregion" validate:"required"`
	Address          string            `json:"address" validate:"required"`
	Rating           decimal.Decimal   `json:"rating" validate:"gte=0,lte=5"`
	MenuItems        []MenuItem        `json:"menu_items" validate:"dive"`
	Status           ApplicationStatus `json:"status"`
	AppliedAt        time.Time         `json:"applied_at"`
	DecidedAt        *time.Time        `json:"decided_at,omitempty"`
	AdminMessage     string            `json:"admin_message,omitempty"`
	MessageViewed    bool              `json:"message_viewed"`
}

// AuditEntry records an administrator action. Entries are never mutated.
type AuditEntry struct {
	ID            string      `json:"id"`
	AdminUsername string      `json:"admin_username" validate:"required"`
	Action        AuditAction `json:"action_type" validate:"required,audit_action"`
	TargetName    string      `json:"target_name" validate:"required"`
	Details       string      `json:"details,omitempty"`
	Timestamp     time.Time   `json:"timestamp"`
}

// Review is a customer's rating of a delivered order.
type Review struct {
	ID           string    `json:"id"`
	RestaurantID string    `json:"restaurant_id" validate:"required"`
	UserID       string    `json:"user_id" validate:"required"`
	OrderID      string    `json:"order_id" validate:"required"`
	Rating       int       `json:"rating" validate:"min=1,max=5"`
	Comment      string    `json:"comment,omitempty" validate:"max=1000"`
	CreatedAt    time.Time `json:"created_at"`
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}
