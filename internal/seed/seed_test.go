package seed

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/ebdashboard/internal/app/models"
	"github.com/yigit/ebdashboard/internal/app/repositories/memory"
	"golang.org/x/crypto/bcrypt"
)

func TestCreateDefaultDataIsIdempotent(t *testing.T) {
	repos := memory.New().Repositories()
	ctx := context.Background()
	opts := Options{AdminEmail: "Admin@Campus.edu", AdminPassword: "s3cret-pass"}

	require.NoError(t, CreateDefaultData(ctx, repos, opts, zerolog.Nop()))
	require.NoError(t, CreateDefaultData(ctx, repos, opts, zerolog.Nop()))

	admin, err := repos.Users.GetByEmail(ctx, "admin@campus.edu")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte("s3cret-pass")))

	users, err := repos.Users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), users)

	courses, err := repos.Courses.List(ctx)
	require.NoError(t, err)
	assert.Len(t, courses, len(DefaultCourses))
}

func TestCreateDefaultDataWithoutAdminPassword(t *testing.T) {
	repos := memory.New().Repositories()
	ctx := context.Background()

	require.NoError(t, CreateDefaultData(ctx, repos, Options{AdminEmail: "admin@campus.edu"}, zerolog.Nop()))

	users, err := repos.Users.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, users)
}
