package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/ebdashboard/internal/app/models"
	"github.com/yigit/ebdashboard/internal/app/repositories"
	"github.com/yigit/ebdashboard/internal/pkg/apperrors"
)

var fixedAt = time.Date(2025, 4, 23, 12, 0, 0, 0, time.UTC)

func newFarm(code, email string) *models.Farm {
	return &models.Farm{
		FarmCode:         code,
		FarmName:         "Green Acres",
		FarmerName:       "Sam Rivera",
		Email:            email,
		FarmSize:         5,
		FarmType:         models.FarmTypeCrop,
		Status:           models.FarmStatusActive,
		RegistrationDate: fixedAt,
	}
}

func TestTransitionRejectsNonTerminalTarget(t *testing.T) {
	repos := New().Repositories()
	ctx := context.Background()
	pr := &models.PurchaseRequest{StudentID: 1, Status: models.StatusPending, RequestedAt: fixedAt}
	require.NoError(t, repos.PurchaseRequests.Create(ctx, pr))

	_, err := repos.PurchaseRequests.Transition(ctx, models.StatusTransition{RequestID: pr.ID, To: models.StatusPending, At: fixedAt})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	stored, err := repos.PurchaseRequests.GetByID(ctx, pr.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Nil(t, stored.ReviewedAt)

	_, err = repos.PurchaseRequests.Transition(ctx, models.StatusTransition{RequestID: pr.ID, To: models.StatusCancelled, At: fixedAt})
	require.NoError(t, err)

	_, err = repos.PurchaseRequests.Transition(ctx, models.StatusTransition{RequestID: pr.ID, To: models.StatusApproved, At: fixedAt})
	var conflict *repositories.TransitionConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, models.StatusCancelled, conflict.Current)
}

func TestUserEmailExists(t *testing.T) {
	repos := New().Repositories()
	ctx := context.Background()

	exists, err := repos.Users.EmailExists(ctx, "ada@uni.edu")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repos.Users.Create(ctx, &models.User{Email: "ada@uni.edu", Role: models.RoleStudent}))

	exists, err = repos.Users.EmailExists(ctx, "ADA@uni.edu")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestFarmConflicts(t *testing.T) {
	repos := New().Repositories()
	ctx := context.Background()

	require.NoError(t, repos.Farms.Create(ctx, newFarm("FARM-A", "a@farm.org")))

	err := repos.Farms.Create(ctx, newFarm("FARM-B", "A@farm.org"))
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	err = repos.Farms.Create(ctx, newFarm("FARM-A", "other@farm.org"))
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	exists, err := repos.Farms.EmailExists(ctx, "A@FARM.ORG")
	require.NoError(t, err)
	assert.True(t, exists)

	credit := &models.CarbonCredit{FarmCode: "FARM-A", CreditsGenerated: decimal.NewFromInt(3), Status: models.CreditStatusPending, CreatedAt: fixedAt}
	require.NoError(t, repos.Credits.Create(ctx, credit))

	err = repos.Farms.Delete(ctx, "FARM-A")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	err = repos.Farms.Delete(ctx, "FARM-Z")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	err = repos.Credits.Create(ctx, &models.CarbonCredit{FarmCode: "FARM-Z", Status: models.CreditStatusPending, CreatedAt: fixedAt})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	n, err := repos.Farms.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCreditTransition(t *testing.T) {
	repos := New().Repositories()
	ctx := context.Background()
	require.NoError(t, repos.Farms.Create(ctx, newFarm("FARM-A", "a@farm.org")))
	credit := &models.CarbonCredit{FarmCode: "FARM-A", Status: models.CreditStatusPending, CreatedAt: fixedAt}
	require.NoError(t, repos.Credits.Create(ctx, credit))

	_, err := repos.Credits.Transition(ctx, models.CreditTransition{CreditID: credit.ID, From: models.CreditStatusPending, To: models.CreditStatusSold, At: fixedAt})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	verified, err := repos.Credits.Transition(ctx, models.CreditTransition{CreditID: credit.ID, From: models.CreditStatusPending, To: models.CreditStatusVerified, At: fixedAt})
	require.NoError(t, err)
	require.NotNil(t, verified.VerificationDate)
	assert.Equal(t, fixedAt, *verified.VerificationDate)

	_, err = repos.Credits.Transition(ctx, models.CreditTransition{CreditID: credit.ID, From: models.CreditStatusPending, To: models.CreditStatusVerified, At: fixedAt})
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)

	_, err = repos.Credits.Transition(ctx, models.CreditTransition{CreditID: 999, From: models.CreditStatusVerified, To: models.CreditStatusSold, At: fixedAt})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	sold, err := repos.Credits.Transition(ctx, models.CreditTransition{CreditID: credit.ID, From: models.CreditStatusVerified, To: models.CreditStatusSold, SoldTo: "Acme", At: fixedAt})
	require.NoError(t, err)
	assert.Equal(t, "Acme", sold.SoldTo)

	list, total, err := repos.Credits.List(ctx, models.CreditFilter{Status: models.CreditStatusSold, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, list, 1)
}

func TestUserDelete(t *testing.T) {
	store := New()
	repos := store.Repositories()
	ctx := context.Background()

	owner := &models.User{Email: "owner@farm.org", Role: models.RoleCompany}
	require.NoError(t, repos.Users.Create(ctx, owner))
	reviewer := &models.User{Email: "reviewer@acme.com", Role: models.RoleCompany}
	require.NoError(t, repos.Users.Create(ctx, reviewer))

	farm := newFarm("FARM-A", "a@farm.org")
	ownerID := owner.ID
	farm.UserID = &ownerID
	require.NoError(t, repos.Farms.Create(ctx, farm))

	pr := &models.PurchaseRequest{StudentID: 1, Status: models.StatusPending, RequestedAt: fixedAt}
	require.NoError(t, repos.PurchaseRequests.Create(ctx, pr))
	reviewerID := reviewer.ID
	_, err := repos.PurchaseRequests.Transition(ctx, models.StatusTransition{RequestID: pr.ID, To: models.StatusApproved, ReviewedBy: &reviewerID, At: fixedAt})
	require.NoError(t, err)

	err = repos.Users.Delete(ctx, reviewer.ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	require.NoError(t, repos.Users.Delete(ctx, owner.ID))
	stored, err := repos.Farms.GetByCode(ctx, "FARM-A")
	require.NoError(t, err)
	assert.Nil(t, stored.UserID)

	err = repos.Users.Delete(ctx, owner.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestWithinTxRollsBackFarm(t *testing.T) {
	store := New()
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithinTx(ctx, func(ctx context.Context, repos *repositories.Repositories) error {
		require.NoError(t, repos.Farms.Create(ctx, newFarm("FARM-A", "a@farm.org")))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = store.Repositories().Farms.GetByCode(ctx, "FARM-A")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
