package services

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/ebdashboard/internal/app/auth"
	"github.com/yigit/ebdashboard/internal/app/models"
	"github.com/yigit/ebdashboard/internal/app/models/dto"
	"github.com/yigit/ebdashboard/internal/pkg/apperrors"
)

func farmReq(email string) *dto.RegisterFarmRequest {
	lat, lng := 40.7128, -74.006
	return &dto.RegisterFarmRequest{
		FarmName:   "Green Acres",
		FarmerName: "Sam Rivera",
		Email:      email,
		FarmSize:   12.5,
		FarmType:   models.FarmTypeOrganic,
		Latitude:   &lat,
		Longitude:  &lng,
	}
}

func (f *fixture) activeFarm(t *testing.T, farms FarmService, email string) *models.Farm {
	t.Helper()
	ctx := context.Background()
	farm, err := farms.Register(ctx, f.admin, farmReq(email))
	require.NoError(t, err)
	farm, err = farms.UpdateStatus(ctx, f.admin, farm.FarmCode, models.FarmStatusActive)
	require.NoError(t, err)
	return farm
}

func TestRegisterFarm(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	farms := NewFarmService(f.store.Repositories(), fixedClock)
	actor := f.addStudent(t, 100, 0)

	farm, err := farms.Register(ctx, actor, farmReq("  Farm@Example.com "))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(farm.FarmCode, "FARM-"))
	assert.Equal(t, "farm@example.com", farm.Email)
	assert.Equal(t, models.FarmStatusPendingVerification, farm.Status)
	assert.Equal(t, fixedNow, farm.RegistrationDate)
	require.NotNil(t, farm.UserID)
	assert.Equal(t, actor.UserID, *farm.UserID)

	got, err := farms.Get(ctx, farm.FarmCode)
	require.NoError(t, err)
	assert.Equal(t, farm.FarmName, got.FarmName)

	_, err = farms.Register(ctx, actor, farmReq("FARM@example.com"))
	requireKind(t, err, apperrors.ErrConflict)

	_, err = farms.Get(ctx, "FARM-MISSING")
	requireKind(t, err, apperrors.ErrNotFound)
}

func TestRegisterFarmValidation(t *testing.T) {
	f := newFixture(t)
	farms := NewFarmService(f.store.Repositories(), fixedClock)
	badLat := 91.0

	cases := []struct {
		name   string
		mutate func(r *dto.RegisterFarmRequest)
	}{
		{"latitude out of range", func(r *dto.RegisterFarmRequest) { r.Latitude = &badLat }},
		{"missing longitude", func(r *dto.RegisterFarmRequest) { r.Longitude = nil }},
		{"farm too small", func(r *dto.RegisterFarmRequest) { r.FarmSize = 0.05 }},
		{"unknown type", func(r *dto.RegisterFarmRequest) { r.FarmType = "orchard" }},
		{"blank name", func(r *dto.RegisterFarmRequest) { r.FarmName = "   " }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := farmReq("farm@example.com")
			tc.mutate(req)
			_, err := farms.Register(context.Background(), f.admin, req)
			requireKind(t, err, apperrors.ErrValidation)
		})
	}
}

func TestFarmStatusAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repos := f.store.Repositories()
	farms := NewFarmService(repos, fixedClock)
	credits := NewCreditService(repos, fixedClock)
	student := f.addStudent(t, 100, 0)

	farm, err := farms.Register(ctx, student, farmReq("a@farm.org"))
	require.NoError(t, err)

	_, err = farms.UpdateStatus(ctx, student, farm.FarmCode, models.FarmStatusActive)
	requireKind(t, err, apperrors.ErrForbidden)
	_, err = farms.UpdateStatus(ctx, f.admin, farm.FarmCode, "retired")
	requireKind(t, err, apperrors.ErrValidation)

	updated, err := farms.UpdateStatus(ctx, f.admin, farm.FarmCode, models.FarmStatusActive)
	require.NoError(t, err)
	assert.Equal(t, models.FarmStatusActive, updated.Status)

	list, err := farms.List(ctx, models.FarmFilter{Status: models.FarmStatusActive})
	require.NoError(t, err)
	require.Len(t, list.Farms, 1)
	assert.Equal(t, int64(1), list.Pagination.TotalItems)

	_, err = farms.List(ctx, models.FarmFilter{FarmType: "orchard"})
	requireKind(t, err, apperrors.ErrValidation)

	_, err = credits.Generate(ctx, f.admin, &dto.GenerateCreditsRequest{
		FarmID:           farm.FarmCode,
		BaselineEmission: decimal.NewFromInt(100),
		ActualEmission:   decimal.NewFromInt(60),
	})
	require.NoError(t, err)

	err = farms.Delete(ctx, student, farm.FarmCode)
	requireKind(t, err, apperrors.ErrForbidden)
	err = farms.Delete(ctx, f.admin, farm.FarmCode)
	requireKind(t, err, apperrors.ErrConflict)

	other, err := farms.Register(ctx, student, farmReq("b@farm.org"))
	require.NoError(t, err)
	require.NoError(t, farms.Delete(ctx, f.admin, other.FarmCode))
	err = farms.Delete(ctx, f.admin, other.FarmCode)
	requireKind(t, err, apperrors.ErrNotFound)
}

func TestGenerateCredits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repos := f.store.Repositories()
	farms := NewFarmService(repos, fixedClock)
	credits := NewCreditService(repos, fixedClock)
	farm := f.activeFarm(t, farms, "c@farm.org")

	credit, err := credits.Generate(ctx, f.admin, &dto.GenerateCreditsRequest{
		FarmID:           farm.FarmCode,
		BaselineEmission: decimal.RequireFromString("120.50"),
		ActualEmission:   decimal.RequireFromString("80.25"),
	})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("40.25").Equal(credit.CreditsGenerated))
	assert.Equal(t, models.CreditStatusPending, credit.Status)
	assert.Equal(t, fixedNow, credit.CreatedAt)

	over, err := credits.Generate(ctx, f.admin, &dto.GenerateCreditsRequest{
		FarmID:           farm.FarmCode,
		BaselineEmission: decimal.NewFromInt(50),
		ActualEmission:   decimal.NewFromInt(70),
	})
	require.NoError(t, err)
	assert.True(t, over.CreditsGenerated.IsZero())

	list, err := credits.List(ctx, models.CreditFilter{FarmCode: farm.FarmCode})
	require.NoError(t, err)
	assert.Len(t, list.Credits, 2)

	student := f.addStudent(t, 100, 0)
	_, err = credits.Generate(ctx, student, &dto.GenerateCreditsRequest{FarmID: farm.FarmCode})
	requireKind(t, err, apperrors.ErrForbidden)

	_, err = credits.Generate(ctx, f.admin, &dto.GenerateCreditsRequest{
		FarmID:           farm.FarmCode,
		BaselineEmission: decimal.NewFromInt(-1),
	})
	requireKind(t, err, apperrors.ErrValidation)

	_, err = credits.Generate(ctx, f.admin, &dto.GenerateCreditsRequest{
		FarmID:           farm.FarmCode,
		BaselineEmission: decimal.RequireFromString("1.005"),
	})
	requireKind(t, err, apperrors.ErrValidation)

	_, err = credits.Generate(ctx, f.admin, &dto.GenerateCreditsRequest{FarmID: "FARM-NOPE"})
	requireKind(t, err, apperrors.ErrNotFound)

	pending, err := farms.Register(ctx, f.admin, farmReq("d@farm.org"))
	require.NoError(t, err)
	_, err = credits.Generate(ctx, f.admin, &dto.GenerateCreditsRequest{FarmID: pending.FarmCode})
	ce := requireKind(t, err, apperrors.ErrInvalidState)
	assert.Equal(t, string(models.FarmStatusPendingVerification), ce.Details["currentStatus"])
}

func TestCreditLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repos := f.store.Repositories()
	credits := NewCreditService(repos, fixedClock)
	farm := f.activeFarm(t, NewFarmService(repos, fixedClock), "e@farm.org")

	credit, err := credits.Generate(ctx, f.admin, &dto.GenerateCreditsRequest{
		FarmID:           farm.FarmCode,
		BaselineEmission: decimal.NewFromInt(10),
		ActualEmission:   decimal.NewFromInt(4),
	})
	require.NoError(t, err)

	_, err = credits.UpdateStatus(ctx, f.admin, credit.ID, &dto.UpdateCreditStatusRequest{Status: models.CreditStatusSold, SoldTo: "Acme"})
	ce := requireKind(t, err, apperrors.ErrInvalidState)
	assert.Equal(t, string(models.CreditStatusPending), ce.Details["currentStatus"])

	verified, err := credits.UpdateStatus(ctx, f.admin, credit.ID, &dto.UpdateCreditStatusRequest{Status: models.CreditStatusVerified})
	require.NoError(t, err)
	assert.Equal(t, models.CreditStatusVerified, verified.Status)
	require.NotNil(t, verified.VerificationDate)
	assert.Equal(t, fixedNow, *verified.VerificationDate)

	_, err = credits.UpdateStatus(ctx, f.admin, credit.ID, &dto.UpdateCreditStatusRequest{Status: models.CreditStatusSold})
	requireKind(t, err, apperrors.ErrValidation)

	sold, err := credits.UpdateStatus(ctx, f.admin, credit.ID, &dto.UpdateCreditStatusRequest{Status: models.CreditStatusSold, SoldTo: " Acme Corp "})
	require.NoError(t, err)
	assert.Equal(t, models.CreditStatusSold, sold.Status)
	assert.Equal(t, "Acme Corp", sold.SoldTo)
	require.NotNil(t, sold.SoldDate)

	_, err = credits.UpdateStatus(ctx, f.admin, credit.ID, &dto.UpdateCreditStatusRequest{Status: models.CreditStatusVerified})
	requireKind(t, err, apperrors.ErrInvalidState)

	_, err = credits.UpdateStatus(ctx, f.admin, credit.ID, &dto.UpdateCreditStatusRequest{Status: models.CreditStatusPending})
	requireKind(t, err, apperrors.ErrValidation)

	_, err = credits.UpdateStatus(ctx, auth.Actor{UserID: 5, Role: models.RoleCompany}, credit.ID, &dto.UpdateCreditStatusRequest{Status: models.CreditStatusVerified})
	requireKind(t, err, apperrors.ErrForbidden)

	_, err = credits.UpdateStatus(ctx, f.admin, 9999, &dto.UpdateCreditStatusRequest{Status: models.CreditStatusVerified})
	requireKind(t, err, apperrors.ErrNotFound)

	got, err := credits.Get(ctx, credit.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CreditStatusSold, got.Status)
}
