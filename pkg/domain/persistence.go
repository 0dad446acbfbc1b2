package domain

import (
	"context"
	"time"
)

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	Now() time.Time
	CreateAccount(Account) (Account, error)
	CreateRestaurant(Restaurant) (Restaurant, error)
	UpdateRestaurant(id string, mutator func(*Restaurant) error) (Restaurant, error)
	DeleteRestaurant(id string) bool
	CreateOrder(Order) (Order, error)
	UpdateOrder(id string, mutator func(*Order) error) (Order, error)
	CreateApplication(Application) (Application, error)
	UpdateApplication(id string, mutator func(*Application) error) (Application, error)
	CreateAuditEntry(AuditEntry) (AuditEntry, error)
	CreateReview(Review) (Review, error)
	FindAccount(username string) (Account, bool)
	FindRestaurant(id string) (Restaurant, bool)
	FindOrder(id string) (Order, bool)
	FindApplication(id string) (Application, bool)
}

// TransactionView provides read-only access to snapshot data. List methods
// return records in insertion order.
type TransactionView interface {
	FindAccount(username string) (Account, bool)
	ListAccounts() []Account
	FindRestaurant(id string) (Restaurant, bool)
	ListRestaurants() []Restaurant
	FindOrder(id string) (Order, bool)
	ListOrders() []Order
	FindApplication(id string) (Application, bool)
	ListApplications() []Application
	ListAuditEntries() []AuditEntry
	ListReviews() []Review
}

// PersistentStore is the transactional boundary higher layers depend on.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
}
