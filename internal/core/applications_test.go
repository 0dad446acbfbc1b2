package core

import (
	"context"
	"testing"

	"foodbike/internal/storage"
	"foodbike/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func submitTestApplication(t *testing.T, svc *Service, name string) Application {
	t.Helper()
	app, err := svc.SubmitApplication(context.Background(), operatorActor, ApplicationInput{
		RestaurantName: name,
		Region:         "Barisal",
		Subregion:      "Patuakhali",
		Address:        "Kuakata Road",
		MenuItems:      []MenuItemInput{{Name: "Ilish Bhaja", Price: mustDecimal("350")}},
	})
	require.NoError(t, err)
	return app
}

func TestSubmitApplicationValidation(t *testing.T) {
	ctx := context.Background()
	svc := openEmpty(t, storage.NewMemory(), newTestClock())

	_, err := svc.SubmitApplication(ctx, customerActor, ApplicationInput{RestaurantName: "X", Region: "Dhaka", Subregion: "Dhaka", Address: "Y"})
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.SubmitApplication(ctx, operatorActor, ApplicationInput{Region: "Dhaka", Subregion: "Sylhet"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	for _, field := range []string{"restaurant_name", "subregion", "address"} {
		assert.Contains(t, verr.Fields, field)
	}

	app := submitTestApplication(t, svc, "Sagor Kinara")
	assert.Equal(t, domain.ApplicationStatusPending, app.Status)
	assert.Equal(t, operatorActor.Username, app.OperatorUsername)
	assert.Equal(t, "4.5", app.Rating.String())
	require.Len(t, app.MenuItems, 1)
	assert.NotEmpty(t, app.MenuItems[0].ID)
}

func TestRejectApplicationAndReadMessage(t *testing.T) {
	ctx := context.Background()
	svc := openEmpty(t, storage.NewMemory(), newTestClock())
	app := submitTestApplication(t, svc, "Sagor Kinara")

	_, err := svc.RejectApplication(ctx, operatorActor, app.ID, "no")
	require.ErrorIs(t, err, domain.ErrForbidden)

	rejected, err := svc.RejectApplication(ctx, adminActor, app.ID, "menu incomplete")
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationStatusRejected, rejected.Status)
	assert.Equal(t, "menu incomplete", rejected.AdminMessage)
	assert.False(t, rejected.MessageViewed)

	_, err = svc.ApproveApplication(ctx, adminActor, app.ID, "changed my mind")
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, restaurantIDs(t, svc))

	other := Actor{Username: "entrepreneur2", Role: domain.RoleRestaurantOperator}
	_, err = svc.MarkApplicationMessageViewed(ctx, other, app.ID)
	require.ErrorIs(t, err, domain.ErrForbidden)
	viewed, err := svc.MarkApplicationMessageViewed(ctx, operatorActor, app.ID)
	require.NoError(t, err)
	assert.True(t, viewed.MessageViewed)
	_, err = svc.MarkApplicationMessageViewed(ctx, operatorActor, "APP_missing")
	require.ErrorIs(t, err, domain.ErrNotFound)

	entries, err := svc.ListAudit(ctx, AuditFilter{Action: domain.AuditRejectedApplication})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Sagor Kinara", entries[0].TargetName)
}

func TestListApplicationsFilters(t *testing.T) {
	ctx := context.Background()
	svc := openEmpty(t, storage.NewMemory(), newTestClock())
	a := submitTestApplication(t, svc, "One")
	submitTestApplication(t, svc, "Two")

	res, err := svc.ApproveApplication(ctx, adminActor, a.ID, "ok")
	require.NoError(t, err)
	assert.True(t, res.Materialized)
	assert.Equal(t, "BA001", res.Restaurant.ID)
	assert.Equal(t, domain.ApplicationStatusApproved, res.Application.Status)

	pending, err := svc.ListApplications(ctx, ApplicationFilter{Status: domain.ApplicationStatusPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Two", pending[0].RestaurantName)

	mine, err := svc.ListApplications(ctx, ApplicationFilter{Operator: operatorActor.Username})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	none, err := svc.ListApplications(ctx, ApplicationFilter{Operator: "entrepreneur2"})
	require.NoError(t, err)
	assert.Empty(t, none)
}
