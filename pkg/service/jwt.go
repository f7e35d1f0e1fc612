package service

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"vipauto/pkg/constants"
	apperrors "vipauto/pkg/errors"
	"vipauto/pkg/types"
)

// JwtCustomClaim - роль и имя зашиваются в токен при входе и не
// перечитываются из БД, пока токен жив.
type JwtCustomClaim struct {
	Login string `json:"login"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type JWTService interface {
	GenerateToken(identity types.Identity) (string, error)
	ValidateToken(tokenString string) (*JwtCustomClaim, error)
	// Authenticate проверяет токен и возвращает личность соединения.
	Authenticate(tokenString string) (types.Identity, error)
	GetAccessTokenTTL() time.Duration
}

type jwtService struct {
	secretKey      []byte
	accessTokenExp time.Duration
	logger         *zap.Logger
	now            func() time.Time
}

func NewJWTService(secretKey string, accessTokenExp time.Duration, logger *zap.Logger) JWTService {
	return &jwtService{
		secretKey:      []byte(secretKey),
		accessTokenExp: accessTokenExp,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *jwtService) GenerateToken(identity types.Identity) (string, error) {
	now := s.now()
	claims := &JwtCustomClaim{
		Login: identity.Login,
		Name:  identity.Name,
		Role:  identity.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.Login,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTokenExp)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	tokenString, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("не удалось подписать токен: %w", err)
	}
	return tokenString, nil
}

func (s *jwtService) GetAccessTokenTTL() time.Duration {
	return s.accessTokenExp
}

func (s *jwtService) ValidateToken(tokenString string) (*JwtCustomClaim, error) {
	if tokenString == "" {
		return nil, apperrors.ErrTokenNotFound
	}

	token, err := jwt.ParseWithClaims(tokenString, &JwtCustomClaim{}, func(token *jwt.Token) (interface{}, error) {
		switch token.Method.(type) {
		case *jwt.SigningMethodHMAC:
			return s.secretKey, nil
		default:
			return nil, apperrors.ErrInvalidSigningMethod
		}
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		s.logger.Debug("Ошибка парсинга или проверки подписи токена", zap.Error(err))
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, apperrors.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, apperrors.ErrTokenNotYetValid
		case errors.Is(err, apperrors.ErrInvalidSigningMethod):
			return nil, apperrors.ErrInvalidSigningMethod
		default:
			return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidToken, err)
		}
	}

	claims, ok := token.Claims.(*JwtCustomClaim)
	if !ok || !token.Valid {
		s.logger.Warn("Токен невалиден или не удалось извлечь claims")
		return nil, apperrors.ErrInvalidToken
	}
	if claims.ExpiresAt == nil {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}

func (s *jwtService) Authenticate(tokenString string) (types.Identity, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return types.Identity{}, err
	}
	role, err := constants.ParseRole(claims.Role)
	if err != nil || claims.Login == "" {
		s.logger.Warn("Токен с неизвестной ролью или без логина", zap.String("role", claims.Role))
		return types.Identity{}, apperrors.ErrInvalidToken
	}
	return types.Identity{Login: claims.Login, Name: claims.Name, Role: role}, nil
}
