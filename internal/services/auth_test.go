package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vipauto/internal/dto"
	"vipauto/internal/entities"
	"vipauto/internal/repositories"
	"vipauto/pkg/config"
	"vipauto/pkg/constants"
	apperrors "vipauto/pkg/errors"
	"vipauto/pkg/utils"
)

func newAuthFixture(t *testing.T, withCache bool) (AuthServiceInterface, *miniredis.Miniredis) {
	t.Helper()
	hash, err := utils.HashPassword("secret")
	require.NoError(t, err)

	store := newMemStore()
	store.users = []entities.User{{Login: "Master.Andrey", Name: "Андрей", Role: constants.RoleMaster, Password: hash}}

	cfg := &config.AuthConfig{MaxLoginAttempts: 3, LockoutDuration: 15 * time.Minute}
	if !withCache {
		return NewAuthService(store, nil, zap.NewNop(), cfg), nil
	}
	mr := miniredis.RunT(t)
	cache := repositories.NewRedisCacheRepository(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	return NewAuthService(store, cache, zap.NewNop(), cfg), mr
}

func TestAuthService_Login(t *testing.T) {
	svc, _ := newAuthFixture(t, true)
	ctx := context.Background()

	user, err := svc.Login(ctx, dto.LoginDTO{Login: "Master.Andrey", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "Андрей", user.Name)
	assert.Equal(t, constants.RoleMaster, user.Role)

	_, err = svc.Login(ctx, dto.LoginDTO{Login: "Master.Andrey", Password: "wrong"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = svc.Login(ctx, dto.LoginDTO{Login: "nobody", Password: "secret"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestAuthService_Lockout(t *testing.T) {
	svc, mr := newAuthFixture(t, true)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Login(ctx, dto.LoginDTO{Login: "Master.Andrey", Password: "wrong"})
		require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	}

	_, err := svc.Login(ctx, dto.LoginDTO{Login: "Master.Andrey", Password: "secret"})
	require.ErrorIs(t, err, apperrors.ErrAccountLocked, "верный пароль не помогает во время блокировки")
	assert.Equal(t, http.StatusTooManyRequests, apperrors.StatusCode(err))
	assert.True(t, mr.Exists("lockout:Master.Andrey"))

	mr.FastForward(16 * time.Minute)
	_, err = svc.Login(ctx, dto.LoginDTO{Login: "Master.Andrey", Password: "secret"})
	require.NoError(t, err)
	assert.False(t, mr.Exists("login_attempts:Master.Andrey"))
}

func TestAuthService_SuccessResetsAttempts(t *testing.T) {
	svc, mr := newAuthFixture(t, true)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, _ = svc.Login(ctx, dto.LoginDTO{Login: "Master.Andrey", Password: "wrong"})
	}
	_, err := svc.Login(ctx, dto.LoginDTO{Login: "Master.Andrey", Password: "secret"})
	require.NoError(t, err)
	assert.False(t, mr.Exists("login_attempts:Master.Andrey"))

	_, _ = svc.Login(ctx, dto.LoginDTO{Login: "Master.Andrey", Password: "wrong"})
	_, err = svc.Login(ctx, dto.LoginDTO{Login: "Master.Andrey", Password: "secret"})
	assert.NoError(t, err)
}

func TestAuthService_WithoutCache(t *testing.T) {
	svc, _ := newAuthFixture(t, false)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, _ = svc.Login(ctx, dto.LoginDTO{Login: "Master.Andrey", Password: "wrong"})
	}
	_, err := svc.Login(ctx, dto.LoginDTO{Login: "Master.Andrey", Password: "secret"})
	assert.NoError(t, err)
}
