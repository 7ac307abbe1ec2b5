package service

import (
	"context"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testTokenKey = "0123456789abcdef0123456789abcdef"

func newTestAuth(t *testing.T) *AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	svc, err := NewAuthService(testTokenKey, time.Hour, "Admin@Shop.com", string(hash))
	require.NoError(t, err)
	return svc
}

func TestNewAuthServiceKeySize(t *testing.T) {
	_, err := NewAuthService("short", time.Hour, "", "")
	require.ErrorIs(t, err, ErrInvalidTokenKey)
}

func TestLoginCustomer(t *testing.T) {
	svc := newTestAuth(t)
	ctx := context.Background()

	res, err := svc.Login(ctx, " Karim@Mail.com ", "anything")
	require.NoError(t, err)
	require.Equal(t, "karim@mail.com", res.User.Email)
	require.Equal(t, "karim", res.User.Name)
	require.False(t, res.User.IsAdmin)

	// 同一個 email 得到同一個 id
	again, err := svc.Login(ctx, "karim@mail.com", "other")
	require.NoError(t, err)
	require.Equal(t, res.User.ID, again.User.ID)

	user, err := svc.VerifyToken(res.AccessToken)
	require.NoError(t, err)
	require.Equal(t, res.User, *user)

	_, err = svc.Login(ctx, "", "")
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	require.Contains(t, appErr.Fields, "email")
	require.Contains(t, appErr.Fields, "password")
}

func TestLoginAdmin(t *testing.T) {
	svc := newTestAuth(t)
	ctx := context.Background()

	res, err := svc.Login(ctx, "admin@shop.com", "s3cret")
	require.NoError(t, err)
	require.True(t, res.User.IsAdmin)

	user, err := svc.VerifyToken(res.AccessToken)
	require.NoError(t, err)
	require.True(t, user.IsAdmin)

	_, err = svc.Login(ctx, "admin@shop.com", "wrong")
	require.True(t, apperr.IsCode(err, apperr.UnauthenticatedCode))
}

func TestVerifyTokenRejects(t *testing.T) {
	svc := newTestAuth(t)
	res, err := svc.Login(context.Background(), "a@b.com", "x")
	require.NoError(t, err)

	_, err = svc.VerifyToken("not-a-token")
	require.True(t, apperr.IsCode(err, apperr.UnauthenticatedCode))

	// 不同 key 簽出的 token
	other, err := NewAuthService("ffffffffffffffffffffffffffffffff", time.Hour, "", "")
	require.NoError(t, err)
	_, err = other.VerifyToken(res.AccessToken)
	require.True(t, apperr.IsCode(err, apperr.UnauthenticatedCode))

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.VerifyToken(res.AccessToken)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "token expired", appErr.Message)
}
