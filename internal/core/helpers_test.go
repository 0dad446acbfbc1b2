package core

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"foodbike/internal/config"
	"foodbike/internal/storage"
	"foodbike/pkg/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testPasswords = config.PasswordConfig{
	ArgonMemoryKB:    64,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     8,
	ArgonKeyLen:      16,
}

var (
	adminActor    = Actor{Username: "admin1", Role: domain.RoleAdmin}
	customerActor = Actor{Username: "user1", Role: domain.RoleCustomer}
	operatorActor = Actor{Username: "entrepreneur1", Role: domain.RoleRestaurantOperator}
	courierActor  = Actor{Username: "courier1", Role: domain.RoleCourier}
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func openService(t *testing.T, units storage.Store, clock *testClock, seed config.SeedConfig) *Service {
	t.Helper()
	svc, err := Open(context.Background(), units, Options{
		Clock:    clock.Now,
		Seed:     seed,
		Password: testPasswords,
	})
	require.NoError(t, err)
	return svc
}

// openSeeded opens a service with the reference dataset and sample accounts.
func openSeeded(t *testing.T, units storage.Store, clock *testClock) *Service {
	t.Helper()
	return openService(t, units, clock, config.SeedConfig{RandomSeed: DefaultSeed})
}

// openEmpty opens a service without seed data and registers the operator
// account used as restaurant owner in tests.
func openEmpty(t *testing.T, units storage.Store, clock *testClock) *Service {
	t.Helper()
	svc := openService(t, units, clock, seedDisabled())
	_, err := svc.Register(context.Background(), Registration{
		Username: operatorActor.Username,
		Password: "Entrepreneur@123",
		Email:    "ent@foodbike.com",
		Phone:    "01111111111",
		Role:     domain.RoleRestaurantOperator,
	})
	require.NoError(t, err)
	return svc
}

func createKitchen(t *testing.T, svc *Service, region, subregion string, prices ...int64) Restaurant {
	t.Helper()
	menu := make([]MenuItemInput, len(prices))
	for i, p := range prices {
		menu[i] = MenuItemInput{Name: "Dish " + strconv.Itoa(i+1), Price: decimal.NewFromInt(p)}
	}
	r, err := svc.CreateRestaurant(context.Background(), adminActor, RestaurantInput{
		Name:             "Kitchen " + subregion,
		Region:           region,
		Subregion:        subregion,
		Address:          "Station Road, " + subregion,
		OperatorUsername: operatorActor.Username,
		Menu:             menu,
	})
	require.NoError(t, err)
	return r
}

func placeOrder(t *testing.T, svc *Service, r Restaurant) Order {
	t.Helper()
	o, err := svc.PlaceOrder(context.Background(), customerActor, OrderRequest{
		RestaurantID: r.ID,
		ItemIDs:      []string{r.Menu[0].ID},
	})
	require.NoError(t, err)
	return o
}

// deliver drives an order from pending to delivered.
func deliver(t *testing.T, svc *Service, orderID string) Order {
	t.Helper()
	ctx := context.Background()
	_, err := svc.ConfirmOrder(ctx, operatorActor, orderID)
	require.NoError(t, err)
	_, err = svc.MarkReady(ctx, operatorActor, orderID)
	require.NoError(t, err)
	_, err = svc.ClaimOrder(ctx, courierActor, orderID)
	require.NoError(t, err)
	o, err := svc.DeliverOrder(ctx, courierActor, orderID, DeliveryConfirmation{CashReceived: true})
	require.NoError(t, err)
	return o
}

func restaurantIDs(t *testing.T, svc *Service) []string {
	t.Helper()
	all, err := svc.SearchRestaurants(context.Background(), RestaurantFilter{})
	require.NoError(t, err)
	ids := make([]string, len(all))
	for i, r := range all {
		ids[i] = r.ID
	}
	return ids
}

func seedDisabled() config.SeedConfig { return config.SeedConfig{Disabled: true} }

func mustDecimal(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func mustRestaurant(t *testing.T, svc *Service, id string) Restaurant {
	t.Helper()
	r, err := svc.GetRestaurant(context.Background(), id)
	require.NoError(t, err)
	return r
}
