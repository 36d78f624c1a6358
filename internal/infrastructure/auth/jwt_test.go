package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/procureledger/internal/domain"
	"github.com/iho/procureledger/internal/infrastructure/auth"
	"github.com/iho/procureledger/internal/usecase"
)

var (
	_ usecase.IdentityProvider = auth.ContextIdentity{}
	_ usecase.IdentityProvider = auth.StaticIdentity("")
)

func TestJWTManagerGenerateAndVerify(t *testing.T) {
	t.Parallel()

	manager := auth.NewJWTManager("super-secret", time.Minute)

	user := &domain.User{
		ID:    "user-123",
		Email: "user@example.com",
		Role:  domain.RoleApprover,
	}

	token, err := manager.Generate(user)
	require.NoError(t, err)

	claims, err := manager.Verify(token)
	require.NoError(t, err)

	assert.Equal(t, user, claims.User())
	assert.Equal(t, "procureledger", claims.Issuer)
}

func TestJWTManagerGenerateRejectsBadUsers(t *testing.T) {
	t.Parallel()

	manager := auth.NewJWTManager("secret", time.Minute)

	_, err := manager.Generate(&domain.User{Role: domain.RoleAdmin})
	assert.Error(t, err)

	_, err = manager.Generate(&domain.User{ID: "u-1", Role: "viewer"})
	assert.Error(t, err)
}

func TestJWTManagerVerifyErrors(t *testing.T) {
	t.Parallel()

	manager := auth.NewJWTManager("secret", time.Minute)

	expiredClaims := auth.Claims{
		Email: "expired@example.com",
		Role:  domain.RoleFinance,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "procureledger",
			Subject:   "expired",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Minute)),
			NotBefore: jwt.NewNumericDate(time.Now().Add(-2 * time.Minute)),
		},
	}

	expiredToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, expiredClaims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = manager.Verify(expiredToken)
	assert.ErrorIs(t, err, domain.ErrExpiredToken)

	otherManager := auth.NewJWTManager("other-secret", time.Minute)
	_, err = otherManager.Verify(expiredToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	_, err = manager.Verify("not-a-token")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	foreign := jwt.RegisteredClaims{
		Issuer:    "someone-else",
		Subject:   "u-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}
	foreignToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{Role: domain.RoleAdmin, RegisteredClaims: foreign}).
		SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = manager.Verify(foreignToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken, "foreign issuer")

	foreign.Issuer = "procureledger"
	foreign.ExpiresAt = nil
	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{Role: domain.RoleAdmin, RegisteredClaims: foreign}).
		SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = manager.Verify(noExpiry)
	assert.ErrorIs(t, err, domain.ErrInvalidToken, "missing expiry")
}

func TestContextIdentity(t *testing.T) {
	t.Parallel()

	_, err := auth.ContextIdentity{}.ActingUser(context.Background())
	assert.True(t, errors.Is(err, domain.ErrUnauthenticated))

	ctx := domain.ContextWithUser(context.Background(), &domain.User{ID: "u-cfo", Role: domain.RoleApprover})
	id, err := auth.ContextIdentity{}.ActingUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u-cfo", id)
}

func TestStaticIdentity(t *testing.T) {
	t.Parallel()

	id, err := auth.StaticIdentity("ops").ActingUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ops", id)

	_, err = auth.StaticIdentity("").ActingUser(context.Background())
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}
