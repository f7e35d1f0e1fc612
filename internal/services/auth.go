package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"vipauto/internal/dto"
	"vipauto/internal/entities"
	"vipauto/internal/repositories"
	"vipauto/pkg/config"
	"vipauto/pkg/constants"
	apperrors "vipauto/pkg/errors"
	"vipauto/pkg/metrics"
	"vipauto/pkg/utils"
)

// UserFinder - поиск сотрудника по логину.
type UserFinder interface {
	FindUserByLogin(ctx context.Context, login string) (*entities.User, error)
}

type AuthServiceInterface interface {
	Login(ctx context.Context, payload dto.LoginDTO) (*entities.User, error)
}

type AuthService struct {
	userRepo  UserFinder
	cacheRepo repositories.CacheRepositoryInterface
	logger    *zap.Logger
	cfg       *config.AuthConfig
}

// NewAuthService: cacheRepo может быть nil, тогда блокировка по числу попыток отключена.
func NewAuthService(
	userRepo UserFinder,
	cacheRepo repositories.CacheRepositoryInterface,
	logger *zap.Logger,
	cfg *config.AuthConfig,
) AuthServiceInterface {
	return &AuthService{
		userRepo:  userRepo,
		cacheRepo: cacheRepo,
		logger:    logger,
		cfg:       cfg,
	}
}

func (s *AuthService) Login(ctx context.Context, payload dto.LoginDTO) (*entities.User, error) {
	logger := s.logger.With(zap.String("login", payload.Login))

	if err := s.checkLockout(ctx, payload.Login); err != nil {
		metrics.LoginsTotal.WithLabelValues("locked").Inc()
		logger.Warn("вход заблокирован")
		return nil, err
	}

	user, err := s.userRepo.FindUserByLogin(ctx, payload.Login)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidCredentials) {
			metrics.LoginsTotal.WithLabelValues("invalid").Inc()
			logger.Info("неизвестный логин")
			return nil, apperrors.ErrInvalidCredentials
		}
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	if err := utils.ComparePasswords(user.Password, payload.Password); err != nil {
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		logger.Info("неверный пароль")
		s.handleFailedLoginAttempt(ctx, payload.Login)
		return nil, apperrors.ErrInvalidCredentials
	}

	s.resetLoginAttempts(ctx, payload.Login)
	metrics.LoginsTotal.WithLabelValues("ok").Inc()
	logger.Info("успешный вход", zap.String("role", user.Role.String()))
	return user, nil
}

func (s *AuthService) checkLockout(ctx context.Context, login string) error {
	if s.cacheRepo == nil {
		return nil
	}
	lockoutKey := fmt.Sprintf(constants.CacheKeyLockout, login)

	// Если ключ существует - вход заблокирован
	locked, err := s.cacheRepo.Exists(ctx, lockoutKey)
	if err != nil {
		// Redis недоступен: блокировка не применяется.
		s.logger.Warn("не удалось проверить блокировку входа", zap.String("login", login), zap.Error(err))
		return nil
	}
	if !locked {
		return nil
	}
	return apperrors.NewHttpError(
		http.StatusTooManyRequests,
		fmt.Sprintf("Слишком много неудачных попыток. Попробуйте через %.0f минут.", s.cfg.LockoutDuration.Minutes()),
		apperrors.ErrAccountLocked,
		nil,
	)
}

func (s *AuthService) handleFailedLoginAttempt(ctx context.Context, login string) {
	if s.cacheRepo == nil {
		return
	}
	attemptsKey := fmt.Sprintf(constants.CacheKeyLoginAttempts, login)
	attempts, err := s.cacheRepo.Incr(ctx, attemptsKey)
	if err != nil {
		s.logger.Warn("не удалось учесть неудачную попытку входа", zap.String("login", login), zap.Error(err))
		return
	}
	if attempts == 1 {
		_, _ = s.cacheRepo.Expire(ctx, attemptsKey, s.cfg.LockoutDuration)
	}
	if attempts >= int64(s.cfg.MaxLoginAttempts) {
		lockoutKey := fmt.Sprintf(constants.CacheKeyLockout, login)
		_ = s.cacheRepo.Set(ctx, lockoutKey, "locked", s.cfg.LockoutDuration)
		_ = s.cacheRepo.Del(ctx, attemptsKey)
		s.logger.Warn("вход заблокирован после неудачных попыток",
			zap.String("login", login),
			zap.Int64("attempts", attempts),
			zap.Duration("duration", s.cfg.LockoutDuration))
	}
}

func (s *AuthService) resetLoginAttempts(ctx context.Context, login string) {
	if s.cacheRepo == nil {
		return
	}
	attemptsKey := fmt.Sprintf(constants.CacheKeyLoginAttempts, login)
	lockoutKey := fmt.Sprintf(constants.CacheKeyLockout, login)
	_ = s.cacheRepo.Del(ctx, attemptsKey, lockoutKey)
}
