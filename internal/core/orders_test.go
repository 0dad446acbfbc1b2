package core

import (
	"context"
	"testing"
	"time"

	"foodbike/internal/metrics"
	"foodbike/internal/storage"
	"foodbike/pkg/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderFromPlacementToRatingScenario(t *testing.T) {
	ctx := context.Background()
	svc := openEmpty(t, storage.NewMemory(), newTestClock())

	r, err := svc.CreateRestaurant(ctx, adminActor, RestaurantInput{
		Name:             "Puran Dhaka Kitchen",
		Region:           "Dhaka",
		Subregion:        "Dhaka",
		Address:          "Lalbagh, Dhaka",
		OperatorUsername: operatorActor.Username,
		Menu:             []MenuItemInput{{Name: "Kacchi", Price: decimal.NewFromInt(100)}},
	})
	require.NoError(t, err)
	require.Equal(t, "DH001", r.ID)

	o, err := svc.PlaceOrder(ctx, customerActor, OrderRequest{RestaurantID: "DH001", ItemIDs: []string{r.Menu[0].ID}})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, o.Status)
	assert.True(t, o.TotalPrice.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, domain.PaymentCashOnDelivery, o.PaymentMethod)

	o, err = svc.ConfirmOrder(ctx, operatorActor, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, o.Status)

	o, err = svc.MarkReady(ctx, operatorActor, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusReady, o.Status)

	o, err = svc.ClaimOrder(ctx, courierActor, o.ID)
	require.NoError(t, err)
	assert.Equal(t, courierActor.Username, o.CourierID)
	assert.Equal(t, domain.OrderStatusReady, o.Status)

	_, err = svc.DeliverOrder(ctx, courierActor, o.ID, DeliveryConfirmation{})
	require.ErrorIs(t, err, domain.ErrCashConfirmationRequired)
	still, err := svc.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusReady, still.Status)

	o, err = svc.DeliverOrder(ctx, courierActor, o.ID, DeliveryConfirmation{CashReceived: true})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDelivered, o.Status)

	_, err = svc.SubmitReview(ctx, customerActor, ReviewInput{OrderID: o.ID, Rating: 5, Comment: "Great"})
	require.NoError(t, err)

	rating, err := svc.Rating(ctx, "DH001")
	require.NoError(t, err)
	assert.Equal(t, "5.0", rating.StringFixed(1))
}

func TestPendingOrderAutoCancelsOnListAfterWindow(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	reg := prometheus.NewRegistry()
	units := storage.NewMemory()
	svc, err := Open(ctx, units, Options{
		Clock:    clock.Now,
		Seed:     seedDisabled(),
		Password: testPasswords,
		Metrics:  metrics.NewStoreMetrics(reg),
	})
	require.NoError(t, err)
	_, err = svc.Register(ctx, Registration{Username: operatorActor.Username, Password: "Entrepreneur@123", Email: "ent@foodbike.com", Phone: "01111111111", Role: domain.RoleRestaurantOperator})
	require.NoError(t, err)
	r := createKitchen(t, svc, "Dhaka", "Gazipur", 150)
	o := placeOrder(t, svc, r)

	clock.Advance(time.Hour)
	orders, err := svc.ListCustomerOrders(ctx, customerActor.Username)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, domain.OrderStatusPending, orders[0].Status, "the window is exclusive")

	clock.Advance(time.Minute)
	orders, err = svc.ListCustomerOrders(ctx, customerActor.Username)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, domain.OrderStatusAutoCancelled, orders[0].Status)

	_, err = svc.ConfirmOrder(ctx, operatorActor, o.ID)
	var illegal *domain.IllegalTransitionError
	require.ErrorAs(t, err, &illegal)
	assert.Equal(t, domain.OrderStatusAutoCancelled, illegal.Current)
	assert.Equal(t, domain.OrderActionConfirm, illegal.Action)

	// The flip was persisted.
	again := openService(t, units, clock, seedDisabled())
	stored, err := again.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusAutoCancelled, stored.Status)

	assert.Equal(t, 1.0, counterValue(t, reg, "foodbike_order_auto_cancellations_total"))
}

func TestExpiredOrderIsCancelledOnDirectTransition(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	svc := openEmpty(t, storage.NewMemory(), clock)
	r := createKitchen(t, svc, "Sylhet", "Sylhet", 90)
	o := placeOrder(t, svc, r)

	clock.Advance(2 * time.Hour)
	got, err := svc.ConfirmOrder(ctx, operatorActor, o.ID)
	require.ErrorIs(t, err, domain.ErrIllegalTransition)
	assert.Equal(t, domain.OrderStatusAutoCancelled, got.Status)

	stored, err := svc.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusAutoCancelled, stored.Status)

	_, err = svc.CancelOrder(ctx, customerActor, o.ID)
	require.ErrorIs(t, err, domain.ErrIllegalTransition)
}

func TestRestaurantListSweepsOnlyItsOrders(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	svc := openEmpty(t, storage.NewMemory(), clock)
	a := createKitchen(t, svc, "Chittagong", "Feni", 100)
	b := createKitchen(t, svc, "Chittagong", "Comilla", 100)
	oa := placeOrder(t, svc, a)
	ob := placeOrder(t, svc, b)

	clock.Advance(90 * time.Minute)
	list, err := svc.ListRestaurantOrders(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.OrderStatusAutoCancelled, list[0].Status)

	var raw Order
	require.NoError(t, svc.Store().View(ctx, func(v domain.TransactionView) error {
		raw, _ = v.FindOrder(ob.ID)
		return nil
	}))
	assert.Equal(t, domain.OrderStatusPending, raw.Status, "orders outside the listed set are untouched")
	assert.NotEqual(t, oa.ID, ob.ID)
}

func TestCustomerCancelsPendingOrder(t *testing.T) {
	ctx := context.Background()
	svc := openEmpty(t, storage.NewMemory(), newTestClock())
	r := createKitchen(t, svc, "Rangpur", "Rangpur", 70)
	o := placeOrder(t, svc, r)

	stranger := Actor{Username: "user2", Role: domain.RoleCustomer}
	_, err := svc.CancelOrder(ctx, stranger, o.ID)
	require.ErrorIs(t, err, domain.ErrIllegalTransition)

	got, err := svc.CancelOrder(ctx, customerActor, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, got.Status)

	_, err = svc.ConfirmOrder(ctx, operatorActor, o.ID)
	require.ErrorIs(t, err, domain.ErrIllegalTransition)
}

func TestCourierClaimAndDecline(t *testing.T) {
	ctx := context.Background()
	svc := openEmpty(t, storage.NewMemory(), newTestClock())
	r := createKitchen(t, svc, "Khulna", "Khulna", 200)
	o := placeOrder(t, svc, r)
	_, err := svc.ConfirmOrder(ctx, operatorActor, o.ID)
	require.NoError(t, err)

	_, err = svc.ClaimOrder(ctx, courierActor, o.ID)
	require.ErrorIs(t, err, domain.ErrIllegalTransition, "not ready yet")

	_, err = svc.MarkReady(ctx, operatorActor, o.ID)
	require.NoError(t, err)

	other := Actor{Username: "courier2", Role: domain.RoleCourier}
	queue, err := svc.ListCourierQueue(ctx, other)
	require.NoError(t, err)
	require.Len(t, queue, 1)

	declined, err := svc.DeclineOrder(ctx, other, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusReady, declined.Status)
	assert.Empty(t, declined.CourierID)

	_, err = svc.ClaimOrder(ctx, courierActor, o.ID)
	require.NoError(t, err)
	_, err = svc.ClaimOrder(ctx, other, o.ID)
	require.ErrorIs(t, err, domain.ErrIllegalTransition)
	_, err = svc.DeliverOrder(ctx, other, o.ID, DeliveryConfirmation{CashReceived: true})
	require.ErrorIs(t, err, domain.ErrIllegalTransition)
	_, err = svc.DeclineOrder(ctx, courierActor, o.ID)
	require.ErrorIs(t, err, domain.ErrIllegalTransition, "the holder cannot decline")

	queue, err = svc.ListCourierQueue(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, queue)
	queue, err = svc.ListCourierQueue(ctx, courierActor)
	require.NoError(t, err)
	assert.Len(t, queue, 1)

	_, err = svc.ListCourierQueue(ctx, customerActor)
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestNonCashDeliveryNeedsNoConfirmation(t *testing.T) {
	ctx := context.Background()
	svc := openEmpty(t, storage.NewMemory(), newTestClock())
	r := createKitchen(t, svc, "Barisal", "Barguna", 80)
	o, err := svc.PlaceOrder(ctx, customerActor, OrderRequest{RestaurantID: r.ID, ItemIDs: []string{r.Menu[0].ID}, PaymentMethod: "bKash"})
	require.NoError(t, err)
	_, err = svc.ConfirmOrder(ctx, operatorActor, o.ID)
	require.NoError(t, err)
	_, err = svc.MarkReady(ctx, operatorActor, o.ID)
	require.NoError(t, err)
	_, err = svc.ClaimOrder(ctx, courierActor, o.ID)
	require.NoError(t, err)
	got, err := svc.DeliverOrder(ctx, courierActor, o.ID, DeliveryConfirmation{})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDelivered, got.Status)
}

func TestPlaceOrderValidation(t *testing.T) {
	ctx := context.Background()
	svc := openEmpty(t, storage.NewMemory(), newTestClock())
	r := createKitchen(t, svc, "Mymensingh", "Jamalpur", 100, 40)

	_, err := svc.PlaceOrder(ctx, operatorActor, OrderRequest{RestaurantID: r.ID, ItemIDs: []string{r.Menu[0].ID}})
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.PlaceOrder(ctx, customerActor, OrderRequest{RestaurantID: r.ID})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "items")

	_, err = svc.PlaceOrder(ctx, customerActor, OrderRequest{RestaurantID: "MY999", ItemIDs: []string{"x"}})
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.PlaceOrder(ctx, customerActor, OrderRequest{RestaurantID: r.ID, ItemIDs: []string{r.Menu[0].ID, "item_404"}})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "items[1]")

	o, err := svc.PlaceOrder(ctx, customerActor, OrderRequest{RestaurantID: r.ID, ItemIDs: []string{r.Menu[0].ID, r.Menu[1].ID, r.Menu[1].ID}})
	require.NoError(t, err)
	assert.Equal(t, "180", o.TotalPrice.String())

	// Later menu edits leave the order untouched.
	_, err = svc.UpdateMenuItem(ctx, adminActor, r.ID, r.Menu[0].ID, MenuItemInput{Name: "Dish 1", Price: decimal.NewFromInt(999)})
	require.NoError(t, err)
	got, err := svc.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "180", got.TotalPrice.String())
}

func TestAllowedActionsFollowLifecycleTable(t *testing.T) {
	ctx := context.Background()
	svc := openEmpty(t, storage.NewMemory(), newTestClock())
	r := createKitchen(t, svc, "Rajshahi", "Bogra", 60)
	o := placeOrder(t, svc, r)

	actions, err := svc.AllowedActions(ctx, operatorActor, o.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.OrderAction{domain.OrderActionConfirm}, actions)

	actions, err = svc.AllowedActions(ctx, customerActor, o.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.OrderAction{domain.OrderActionCancel}, actions)

	actions, err = svc.AllowedActions(ctx, courierActor, o.ID)
	require.NoError(t, err)
	assert.Empty(t, actions)

	deliver(t, svc, o.ID)
	actions, err = svc.AllowedActions(ctx, customerActor, o.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.OrderAction{domain.OrderActionReview}, actions)

	_, err = svc.SubmitReview(ctx, customerActor, ReviewInput{OrderID: o.ID, Rating: 3})
	require.NoError(t, err)
	actions, err = svc.AllowedActions(ctx, customerActor, o.ID)
	require.NoError(t, err)
	assert.Empty(t, actions)
}

func TestListOrdersNewestFirst(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	svc := openEmpty(t, storage.NewMemory(), clock)
	r := createKitchen(t, svc, "Dhaka", "Faridpur", 100)

	var placed []string
	for i := 0; i < 3; i++ {
		placed = append(placed, placeOrder(t, svc, r).ID)
		clock.Advance(time.Minute)
	}
	list, err := svc.ListAllOrders(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{placed[2], placed[1], placed[0]}, []string{list[0].ID, list[1].ID, list[2].ID})
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		var total float64
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		return total
	}
	t.Fatalf("metric %s not gathered", name)
	return 0
}
