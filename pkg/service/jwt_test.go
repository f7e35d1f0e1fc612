package service

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vipauto/pkg/constants"
	apperrors "vipauto/pkg/errors"
	"vipauto/pkg/types"
)

var andrey = types.Identity{Login: "Master.Andrey", Name: "Андрей", Role: constants.RoleMaster}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("secret", time.Hour, zap.NewNop())

	token, err := svc.GenerateToken(andrey)
	require.NoError(t, err)

	identity, err := svc.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, andrey, identity)
	assert.False(t, identity.IsPrivileged())
}

func TestJWTService_Expired(t *testing.T) {
	svc := NewJWTService("secret", time.Hour, zap.NewNop()).(*jwtService)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := svc.GenerateToken(andrey)
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Authenticate(token)
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
}

func TestJWTService_WrongSecret(t *testing.T) {
	token, err := NewJWTService("secret", time.Hour, zap.NewNop()).GenerateToken(andrey)
	require.NoError(t, err)

	_, err = NewJWTService("other", time.Hour, zap.NewNop()).Authenticate(token)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestJWTService_RejectsUnknownRole(t *testing.T) {
	claims := &JwtCustomClaim{
		Login: "ghost",
		Name:  "Призрак",
		Role:  "SUPERUSER",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewJWTService("secret", time.Hour, zap.NewNop()).Authenticate(token)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestJWTService_RejectsNoneAlgorithm(t *testing.T) {
	claims := &JwtCustomClaim{
		Login: andrey.Login, Role: string(constants.RoleDirector),
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewJWTService("secret", time.Hour, zap.NewNop()).Authenticate(token)
	assert.Error(t, err)
}

func TestJWTService_EmptyToken(t *testing.T) {
	_, err := NewJWTService("secret", time.Hour, zap.NewNop()).Authenticate("")
	assert.ErrorIs(t, err, apperrors.ErrTokenNotFound)
}
