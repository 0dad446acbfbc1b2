package core

import (
	"context"
	"testing"

	"foodbike/internal/storage"
	"foodbike/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRegistration(username string, role domain.Role) Registration {
	return Registration{
		Username: username,
		Password: "Secret@1",
		Email:    username + "@foodbike.com",
		Phone:    "01712345678",
		Role:     role,
	}
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := openService(t, storage.NewMemory(), newTestClock(), seedDisabled())

	reg := validRegistration("rahim", domain.RoleCustomer)
	reg.Username = "  rahim "
	acc, err := svc.Register(ctx, reg)
	require.NoError(t, err)
	assert.Equal(t, "rahim", acc.Username)
	assert.Empty(t, acc.PasswordHash)

	var stored Account
	require.NoError(t, svc.Store().View(ctx, func(v domain.TransactionView) error {
		stored, _ = v.FindAccount("rahim")
		return nil
	}))
	assert.NotEmpty(t, stored.PasswordHash)
	assert.NotContains(t, stored.PasswordHash, "Secret@1")

	got, err := svc.Login(ctx, "rahim", "Secret@1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCustomer, got.Role)

	_, err = svc.Login(ctx, "rahim", "secret@1")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = svc.Login(ctx, "karim", "Secret@1")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestRegisterRejectsTakenUsername(t *testing.T) {
	ctx := context.Background()
	svc := openService(t, storage.NewMemory(), newTestClock(), seedDisabled())
	_, err := svc.Register(ctx, validRegistration("rahim", domain.RoleCustomer))
	require.NoError(t, err)

	_, err = svc.Register(ctx, validRegistration("rahim", domain.RoleCourier))
	require.ErrorIs(t, err, domain.ErrDuplicateKey)

	acc, err := svc.GetAccount(ctx, "rahim")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCustomer, acc.Role)
}

func TestRegisterReportsEveryInvalidField(t *testing.T) {
	svc := openService(t, storage.NewMemory(), newTestClock(), seedDisabled())
	_, err := svc.Register(context.Background(), Registration{
		Username: "a b",
		Password: "password",
		Email:    "not-an-email",
		Phone:    "12345",
		Role:     "chef",
	})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, domain.EntityAccount, verr.Entity)
	for _, field := range []string{"username", "password", "email", "phone", "role"} {
		assert.Contains(t, verr.Fields, field)
	}
}

func TestAnyRoleMaySelfRegister(t *testing.T) {
	ctx := context.Background()
	svc := openService(t, storage.NewMemory(), newTestClock(), seedDisabled())
	for _, role := range []domain.Role{domain.RoleCustomer, domain.RoleRestaurantOperator, domain.RoleCourier, domain.RoleAdmin} {
		_, err := svc.Register(ctx, validRegistration("user_"+string(role), role))
		require.NoError(t, err, role)
	}

	couriers, err := svc.ListAccounts(ctx, domain.RoleCourier)
	require.NoError(t, err)
	require.Len(t, couriers, 1)
	assert.Equal(t, "user_"+string(domain.RoleCourier), couriers[0].Username)

	all, err := svc.ListAccounts(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)
	for _, a := range all {
		assert.Empty(t, a.PasswordHash)
	}

	_, err = svc.GetAccount(ctx, "nobody")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
