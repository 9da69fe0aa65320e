package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/ebdashboard/internal/app/auth"
	"github.com/yigit/ebdashboard/internal/app/models"
	"github.com/yigit/ebdashboard/internal/app/models/dto"
	"github.com/yigit/ebdashboard/internal/pkg/apperrors"
)

func (f *fixture) addAccount(t *testing.T, role models.Role, emailAddr string) *models.User {
	t.Helper()
	user := &models.User{Username: string(role), Email: emailAddr, Role: role, IsActive: true}
	require.NoError(t, f.store.Repositories().Users.Create(context.Background(), user))
	return user
}

func rolePtr(r models.Role) *models.Role { return &r }

func boolPtr(b bool) *bool { return &b }

func TestAdminListsUsersAndStudents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := NewAdminService(f.store.Repositories(), fixedClock)
	student := f.addStudent(t, 100, 0)
	f.addAccount(t, models.RoleCompany, "buyer@acme.com")

	_, err := admin.ListUsers(ctx, student, models.UserFilter{})
	requireKind(t, err, apperrors.ErrForbidden)

	all, err := admin.ListUsers(ctx, f.admin, models.UserFilter{})
	require.NoError(t, err)
	assert.Len(t, all.Users, 2)
	assert.Equal(t, int64(2), all.Pagination.TotalItems)

	companies, err := admin.ListUsers(ctx, f.admin, models.UserFilter{Role: models.RoleCompany})
	require.NoError(t, err)
	require.Len(t, companies.Users, 1)
	assert.Equal(t, "buyer@acme.com", companies.Users[0].Email)

	_, err = admin.ListUsers(ctx, f.admin, models.UserFilter{Role: "farmer"})
	requireKind(t, err, apperrors.ErrValidation)

	paged, err := admin.ListUsers(ctx, f.admin, models.UserFilter{Page: 2, PageSize: 1})
	require.NoError(t, err)
	assert.Len(t, paged.Users, 1)
	assert.Equal(t, 2, paged.Pagination.TotalPages)

	students, err := admin.ListStudents(ctx, f.admin, 0, 0)
	require.NoError(t, err)
	require.Len(t, students.Students, 1)
	assert.Equal(t, student.StudentID, students.Students[0].ID)
	assert.Equal(t, 1, students.Pagination.CurrentPage)

	user, err := admin.GetUser(ctx, f.admin, student.UserID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, user.Role)

	_, err = admin.GetUser(ctx, f.admin, 4242)
	requireKind(t, err, apperrors.ErrNotFound)
}

func TestAdminUpdateUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := NewAdminService(f.store.Repositories(), fixedClock)
	student := f.addStudent(t, 100, 0)
	company := f.addAccount(t, models.RoleCompany, "buyer@acme.com")

	updated, err := admin.UpdateUser(ctx, f.admin, company.ID, &dto.UpdateUserRequest{Role: rolePtr(models.RoleAdmin), IsActive: boolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, updated.Role)
	assert.False(t, updated.IsActive)
	assert.Equal(t, fixedNow, updated.UpdatedAt)

	stored, err := f.store.Repositories().Users.GetByID(ctx, company.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, stored.Role)
	assert.False(t, stored.IsActive)

	cases := []struct {
		name string
		id   int64
		req  *dto.UpdateUserRequest
		kind error
	}{
		{"empty update", company.ID, &dto.UpdateUserRequest{}, apperrors.ErrValidation},
		{"unknown role", company.ID, &dto.UpdateUserRequest{Role: rolePtr("farmer")}, apperrors.ErrValidation},
		{"student to company", student.UserID, &dto.UpdateUserRequest{Role: rolePtr(models.RoleCompany)}, apperrors.ErrValidation},
		{"company to student", company.ID, &dto.UpdateUserRequest{Role: rolePtr(models.RoleStudent)}, apperrors.ErrValidation},
		{"deactivate self", f.admin.UserID, &dto.UpdateUserRequest{IsActive: boolPtr(false)}, apperrors.ErrValidation},
		{"demote self", f.admin.UserID, &dto.UpdateUserRequest{Role: rolePtr(models.RoleCompany)}, apperrors.ErrValidation},
		{"missing user", 4242, &dto.UpdateUserRequest{IsActive: boolPtr(true)}, apperrors.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := admin.UpdateUser(ctx, f.admin, tc.id, tc.req)
			requireKind(t, err, tc.kind)
		})
	}

	deactivated, err := admin.UpdateUser(ctx, f.admin, student.UserID, &dto.UpdateUserRequest{IsActive: boolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, deactivated.Role)
	assert.False(t, deactivated.IsActive)

	_, err = admin.UpdateUser(ctx, student, company.ID, &dto.UpdateUserRequest{IsActive: boolPtr(true)})
	requireKind(t, err, apperrors.ErrForbidden)
}

func TestAdminDeleteUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := NewAdminService(f.store.Repositories(), fixedClock)
	student := f.addStudent(t, 1000, 0)
	reviewer := f.addAccount(t, models.RoleCompany, "reviewer@acme.com")
	spare := f.addAccount(t, models.RoleCompany, "spare@acme.com")

	pr, err := f.purchase.Create(ctx, student, createReq("10", 1))
	require.NoError(t, err)
	_, err = f.purchase.Approve(ctx, auth.Actor{UserID: reviewer.ID, Role: models.RoleCompany}, pr.ID)
	require.NoError(t, err)

	err = admin.DeleteUser(ctx, f.admin, reviewer.ID)
	requireKind(t, err, apperrors.ErrConflict)

	err = admin.DeleteUser(ctx, f.admin, f.admin.UserID)
	requireKind(t, err, apperrors.ErrValidation)

	err = admin.DeleteUser(ctx, student, spare.ID)
	requireKind(t, err, apperrors.ErrForbidden)

	require.NoError(t, admin.DeleteUser(ctx, f.admin, spare.ID))
	_, err = admin.GetUser(ctx, f.admin, spare.ID)
	requireKind(t, err, apperrors.ErrNotFound)

	err = admin.DeleteUser(ctx, f.admin, spare.ID)
	requireKind(t, err, apperrors.ErrNotFound)
}

func TestAdminActivityFeed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := NewAdminService(f.store.Repositories(), fixedClock)
	student := f.addStudent(t, 1000, 0)

	_, err := admin.Activity(ctx, student)
	requireKind(t, err, apperrors.ErrForbidden)

	empty, err := admin.Activity(ctx, f.admin)
	require.NoError(t, err)
	assert.Empty(t, empty.Activity)

	pr, err := f.purchase.Create(ctx, student, createReq("25", 2))
	require.NoError(t, err)
	_, err = f.purchase.Approve(ctx, f.admin, pr.ID)
	require.NoError(t, err)

	feed, err := admin.Activity(ctx, f.admin)
	require.NoError(t, err)
	require.Len(t, feed.Activity, 2)

	types := map[string]bool{}
	for _, ev := range feed.Activity {
		types[ev.Type] = true
		assert.Equal(t, "Ada", ev.User)
	}
	assert.True(t, types["purchase"])
	assert.True(t, types["transaction"])

	for _, ev := range feed.Activity {
		switch ev.Type {
		case "purchase":
			assert.Equal(t, "Purchase request approved", ev.Action)
			assert.Equal(t, "1 item(s) - $50.00", ev.Details)
		case "transaction":
			assert.Equal(t, "purchase - $50.00", ev.Details)
		}
	}
}
