package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/ebdashboard/internal/app/models"
	"github.com/yigit/ebdashboard/internal/pkg/apperrors"
)

func newTestService() *JWTService {
	return NewJWTService(JWTConfig{
		SecretKey:      "test-secret",
		AccessTokenExp: time.Hour,
		TokenIssuer:    "ebdashboard",
	})
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := newTestService()
	user := &models.User{ID: 7, Email: "ada@uni.edu", Role: models.RoleStudent}

	token, expiresIn, err := svc.GenerateAccessToken(user, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3600), expiresIn)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "student", claims.Role)
	assert.Equal(t, int64(3), claims.StudentID)
	assert.Equal(t, "ebdashboard", claims.Issuer)
}

func TestJWTService_Expired(t *testing.T) {
	svc := newTestService()
	user := &models.User{ID: 1, Email: "admin@uni.edu", Role: models.RoleAdmin}

	token, _, err := svc.GenerateAccessToken(user, 0)
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.ValidateToken(token)

	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
}

func TestJWTService_WrongSecret(t *testing.T) {
	token, _, err := newTestService().GenerateAccessToken(&models.User{ID: 1, Email: "a@b.c", Role: models.RoleAdmin}, 0)
	require.NoError(t, err)

	other := NewJWTService(JWTConfig{SecretKey: "other", AccessTokenExp: time.Hour})
	_, err = other.ValidateToken(token)

	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
}

func TestJWTService_StudentWithoutProfileRejected(t *testing.T) {
	svc := newTestService()
	token, _, err := svc.GenerateAccessToken(&models.User{ID: 2, Email: "s@uni.edu", Role: models.RoleStudent}, 0)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{header: "Bearer a.b.c", want: "a.b.c"},
		{header: "a.b.c", want: "a.b.c"},
		{header: "", wantErr: true},
		{header: "Basic xyz", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ExtractBearerToken(tt.header)
		if tt.wantErr {
			assert.Error(t, err, tt.header)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)

	assert.True(t, CheckPassword(hash, "s3cret!"))
	assert.False(t, CheckPassword(hash, "wrong"))
}
