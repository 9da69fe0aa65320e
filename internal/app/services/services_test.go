package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/ebdashboard/internal/app/auth"
	"github.com/yigit/ebdashboard/internal/app/models"
	"github.com/yigit/ebdashboard/internal/app/models/dto"
	"github.com/yigit/ebdashboard/internal/app/repositories/memory"
	"github.com/yigit/ebdashboard/internal/pkg/apperrors"
	"github.com/yigit/ebdashboard/internal/pkg/email"
)

var fixedNow = time.Date(2025, 4, 23, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type fakeMailer struct {
	mu       sync.Mutex
	approved []email.PurchaseMessage
	rejected []email.PurchaseMessage
}

func (m *fakeMailer) SendPurchaseApprovedEmail(_, _ string, msg email.PurchaseMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.approved = append(m.approved, msg)
	return nil
}

func (m *fakeMailer) SendPurchaseRejectedEmail(_, _ string, msg email.PurchaseMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected = append(m.rejected, msg)
	return nil
}

type fixture struct {
	users    int
	store    *memory.Store
	purchase PurchaseService
	mailer   *fakeMailer
	admin    auth.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	mailer := &fakeMailer{}
	return &fixture{
		store:    store,
		purchase: NewPurchaseService(store.Repositories(), store, mailer, 0, fixedClock),
		mailer:   mailer,
		admin:    auth.Actor{UserID: 1000, Role: models.RoleAdmin},
	}
}

func (f *fixture) addStudent(t *testing.T, limit, used int64) auth.Actor {
	t.Helper()
	ctx := context.Background()
	repos := f.store.Repositories()

	f.users++
	user := &models.User{Username: "student", Email: fmt.Sprintf("student%d@uni.edu", f.users), Role: models.RoleStudent, IsActive: true}
	require.NoError(t, repos.Users.Create(ctx, user))

	student := &models.Student{
		UserID:        user.ID,
		Name:          "Ada",
		Email:         user.Email,
		Year:          models.YearJunior,
		PurchaseLimit: decimal.NewFromInt(limit),
	}
	require.NoError(t, repos.Students.Create(ctx, student))
	if used > 0 {
		ok, err := repos.Students.ApplyApprovedPurchase(ctx, student.ID, decimal.NewFromInt(used), fixedNow)
		require.NoError(t, err)
		require.True(t, ok)
	}
	return auth.Actor{UserID: user.ID, Role: models.RoleStudent, StudentID: student.ID}
}

func (f *fixture) student(t *testing.T, id int64) *models.Student {
	t.Helper()
	s, err := f.store.Repositories().Students.GetByID(context.Background(), id)
	require.NoError(t, err)
	return s
}

func createReq(price string, qty int) *dto.CreatePurchaseRequestRequest {
	return &dto.CreatePurchaseRequestRequest{
		CompanyID: 3,
		Items: []dto.PurchaseItemRequest{
			{Name: "Compost bin", Quantity: qty, PricePerUnit: decimal.RequireFromString(price)},
		},
	}
}

func requireKind(t *testing.T, err error, kind error) *apperrors.CustomError {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, kind)
	ce, ok := apperrors.AsCustomError(err)
	require.True(t, ok, "expected a CustomError, got %T", err)
	return ce
}

func TestCreatePurchaseRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := f.addStudent(t, 1000, 0)

	pr, err := f.purchase.Create(ctx, actor, createReq("25.50", 2))
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, pr.Status)
	assert.True(t, decimal.RequireFromString("51").Equal(pr.TotalAmount))
	assert.Equal(t, fixedNow, pr.RequestedAt)
	assert.Equal(t, 1, f.student(t, actor.StudentID).PurchaseRequestsCount)
}

func TestCreatePurchaseRequestLimitExceeded(t *testing.T) {
	f := newFixture(t)
	actor := f.addStudent(t, 1000, 900)

	_, err := f.purchase.Create(context.Background(), actor, createReq("150", 1))

	ce := requireKind(t, err, apperrors.ErrLimitExceeded)
	assert.True(t, decimal.NewFromInt(100).Equal(ce.Details["available"].(decimal.Decimal)))
	assert.True(t, decimal.NewFromInt(150).Equal(ce.Details["requested"].(decimal.Decimal)))
	assert.Equal(t, 0, f.student(t, actor.StudentID).PurchaseRequestsCount)
}

func TestCreatePurchaseRequestValidation(t *testing.T) {
	f := newFixture(t)
	actor := f.addStudent(t, 1000, 0)

	tests := []struct {
		name string
		req  *dto.CreatePurchaseRequestRequest
	}{
		{"no items", &dto.CreatePurchaseRequestRequest{CompanyID: 3}},
		{"zero quantity", createReq("10", 0)},
		{"negative price", createReq("-1", 1)},
		{"sub-cent price", createReq("0.005", 3)},
		{"missing company", &dto.CreatePurchaseRequestRequest{Items: createReq("10", 1).Items}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.purchase.Create(context.Background(), actor, tt.req)
			requireKind(t, err, apperrors.ErrValidation)
		})
	}
}

func TestCreatePurchaseRequestRequiresStudent(t *testing.T) {
	f := newFixture(t)
	_, err := f.purchase.Create(context.Background(), f.admin, createReq("10", 1))
	requireKind(t, err, apperrors.ErrForbidden)
}

func TestApproveRecordsOneTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := f.addStudent(t, 1000, 0)
	pr, err := f.purchase.Create(ctx, actor, createReq("40", 3))
	require.NoError(t, err)

	approved, err := f.purchase.Approve(ctx, f.admin, pr.ID)
	require.NoError(t, err)

	assert.Equal(t, models.StatusApproved, approved.Status)
	require.NotNil(t, approved.ReviewedBy)
	assert.Equal(t, f.admin.UserID, *approved.ReviewedBy)

	st := f.student(t, actor.StudentID)
	assert.True(t, decimal.NewFromInt(120).Equal(st.UsedPurchaseAmount))
	assert.Equal(t, 1, st.TotalPurchases)

	repos := f.store.Repositories()
	n, err := repos.Transactions.CountByRequest(ctx, pr.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	txs, err := repos.Transactions.ListByStudent(ctx, actor.StudentID, 0)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, models.TransactionPurchase, txs[0].Type)
	assert.Equal(t, "Purchase approved: Compost bin", txs[0].Description)

	require.Len(t, f.mailer.approved, 1)
	assert.Equal(t, "880.00", f.mailer.approved[0].Available)
}

func TestApproveIsTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := f.addStudent(t, 1000, 0)
	pr, err := f.purchase.Create(ctx, actor, createReq("10", 1))
	require.NoError(t, err)

	_, err = f.purchase.Approve(ctx, f.admin, pr.ID)
	require.NoError(t, err)

	_, err = f.purchase.Approve(ctx, f.admin, pr.ID)
	ce := requireKind(t, err, apperrors.ErrInvalidState)
	assert.Equal(t, "Purchase request is already approved", ce.Message)
	assert.Equal(t, "approved", ce.Details["currentStatus"])

	_, err = f.purchase.Reject(ctx, f.admin, pr.ID, "late")
	requireKind(t, err, apperrors.ErrInvalidState)

	st := f.student(t, actor.StudentID)
	assert.Equal(t, 1, st.TotalPurchases)
	assert.True(t, decimal.NewFromInt(10).Equal(st.UsedPurchaseAmount))
}

func TestApproveRollsBackWhenLimitExhausted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := f.addStudent(t, 100, 0)

	first, err := f.purchase.Create(ctx, actor, createReq("80", 1))
	require.NoError(t, err)
	second, err := f.purchase.Create(ctx, actor, createReq("60", 1))
	require.NoError(t, err)

	_, err = f.purchase.Approve(ctx, f.admin, first.ID)
	require.NoError(t, err)

	_, err = f.purchase.Approve(ctx, f.admin, second.ID)
	ce := requireKind(t, err, apperrors.ErrLimitExceeded)
	assert.True(t, decimal.NewFromInt(20).Equal(ce.Details["available"].(decimal.Decimal)))

	stored, err := f.store.Repositories().PurchaseRequests.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Nil(t, stored.ReviewedBy)

	st := f.student(t, actor.StudentID)
	assert.True(t, decimal.NewFromInt(80).Equal(st.UsedPurchaseAmount))
	assert.Equal(t, 1, st.TotalPurchases)
}

func TestConcurrentApproveSucceedsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := f.addStudent(t, 1000, 0)
	pr, err := f.purchase.Create(ctx, actor, createReq("50", 1))
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.purchase.Approve(ctx, f.admin, pr.ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	}
	assert.Equal(t, 1, succeeded)

	st := f.student(t, actor.StudentID)
	assert.Equal(t, 1, st.TotalPurchases)
	assert.True(t, decimal.NewFromInt(50).Equal(st.UsedPurchaseAmount))
}

func TestRejectRequiresReason(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := f.addStudent(t, 1000, 0)
	pr, err := f.purchase.Create(ctx, actor, createReq("10", 1))
	require.NoError(t, err)

	_, err = f.purchase.Reject(ctx, f.admin, pr.ID, "   ")
	requireKind(t, err, apperrors.ErrValidation)

	stored, err := f.store.Repositories().PurchaseRequests.GetByID(ctx, pr.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)

	rejected, err := f.purchase.Reject(ctx, f.admin, pr.ID, " Vendor not approved ")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, rejected.Status)
	require.NotNil(t, rejected.ReasonForRejection)
	assert.Equal(t, "Vendor not approved", *rejected.ReasonForRejection)
	require.Len(t, f.mailer.rejected, 1)
	assert.Equal(t, "Vendor not approved", f.mailer.rejected[0].Reason)
}

func TestReviewRequiresReviewer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := f.addStudent(t, 1000, 0)
	pr, err := f.purchase.Create(ctx, actor, createReq("10", 1))
	require.NoError(t, err)

	_, err = f.purchase.Approve(ctx, actor, pr.ID)
	requireKind(t, err, apperrors.ErrForbidden)

	company := auth.Actor{UserID: 77, Role: models.RoleCompany}
	_, err = f.purchase.Approve(ctx, company, pr.ID)
	assert.NoError(t, err)
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addStudent(t, 1000, 0)
	other := f.addStudent(t, 1000, 0)
	pr, err := f.purchase.Create(ctx, owner, createReq("10", 1))
	require.NoError(t, err)

	_, err = f.purchase.Cancel(ctx, other, pr.ID)
	requireKind(t, err, apperrors.ErrForbidden)

	cancelled, err := f.purchase.Cancel(ctx, owner, pr.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Nil(t, cancelled.ReviewedBy)

	_, err = f.purchase.Cancel(ctx, owner, pr.ID)
	ce := requireKind(t, err, apperrors.ErrInvalidState)
	assert.Equal(t, "Cannot cancel a cancelled request", ce.Message)

	_, err = f.purchase.Approve(ctx, f.admin, pr.ID)
	requireKind(t, err, apperrors.ErrInvalidState)
}

func TestGetAndListMine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.addStudent(t, 1000, 0)
	other := f.addStudent(t, 1000, 0)

	for i := 0; i < 3; i++ {
		_, err := f.purchase.Create(ctx, owner, createReq("10", 1))
		require.NoError(t, err)
	}
	otherReq, err := f.purchase.Create(ctx, other, createReq("10", 1))
	require.NoError(t, err)

	_, err = f.purchase.Get(ctx, owner, otherReq.ID)
	requireKind(t, err, apperrors.ErrForbidden)

	_, err = f.purchase.Get(ctx, owner, 9999)
	requireKind(t, err, apperrors.ErrNotFound)

	mine, err := f.purchase.ListMine(ctx, owner, "", 1, 2)
	require.NoError(t, err)
	assert.Len(t, mine.Requests, 2)
	assert.Equal(t, int64(3), mine.Pagination.TotalItems)
	assert.Equal(t, 2, mine.Pagination.TotalPages)

	all, err := f.purchase.List(ctx, models.PurchaseRequestFilter{Status: models.StatusPending})
	require.NoError(t, err)
	assert.Equal(t, int64(4), all.Pagination.TotalItems)

	_, err = f.purchase.List(ctx, models.PurchaseRequestFilter{Status: "shipped"})
	requireKind(t, err, apperrors.ErrValidation)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := f.addStudent(t, 1000, 0)

	a, err := f.purchase.Create(ctx, actor, createReq("30", 1))
	require.NoError(t, err)
	b, err := f.purchase.Create(ctx, actor, createReq("20", 1))
	require.NoError(t, err)
	_, err = f.purchase.Create(ctx, actor, createReq("5", 1))
	require.NoError(t, err)

	_, err = f.purchase.Approve(ctx, f.admin, a.ID)
	require.NoError(t, err)
	_, err = f.purchase.Reject(ctx, f.admin, b.ID, "no")
	require.NoError(t, err)

	stats, err := f.purchase.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, []dto.StatusCount{
		{Status: models.StatusPending, Count: 1},
		{Status: models.StatusApproved, Count: 1},
		{Status: models.StatusRejected, Count: 1},
		{Status: models.StatusCancelled, Count: 0},
	}, stats.StatusCounts)
	assert.True(t, decimal.NewFromInt(30).Equal(stats.TotalApprovedAmount))
	assert.Equal(t, int64(1), stats.RecentApprovedCount)
	assert.Equal(t, int64(1), stats.PendingCount)
}

func TestReconcileRepairsOrphanedApproval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := f.addStudent(t, 1000, 0)
	pr, err := f.purchase.Create(ctx, actor, createReq("15", 2))
	require.NoError(t, err)

	// approve without the ledger entry, as a crash between statements would leave it
	repos := f.store.Repositories()
	reviewer := f.admin.UserID
	_, err = repos.PurchaseRequests.Transition(ctx, models.StatusTransition{
		RequestID: pr.ID, To: models.StatusApproved, ReviewedBy: &reviewer, At: fixedNow,
	})
	require.NoError(t, err)

	recon := NewReconciliationService(repos, f.store, zerolog.Nop(), fixedClock)

	repaired, err := recon.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)

	n, err := repos.Transactions.CountByRequest(ctx, pr.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	repaired, err = recon.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, repaired)
}
