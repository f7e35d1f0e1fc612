package middleware

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"vipauto/pkg/api"
	"vipauto/pkg/contextkeys"
	apperrors "vipauto/pkg/errors"
	"vipauto/pkg/service"
	"vipauto/pkg/types"
	"vipauto/pkg/utils"
)

type AuthMiddleware struct {
	jwtService service.JWTService
	logger     *zap.Logger
}

func NewAuthMiddleware(jwtSvc service.JWTService, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtSvc,
		logger:     logger,
	}
}

// Auth проверяет Bearer-токен и кладёт личность сотрудника в контекст запроса.
func (m *AuthMiddleware) Auth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tokenString, err := utils.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			m.logger.Warn("AuthMiddleware: неверный заголовок Authorization", zap.Error(err))
			return api.ErrorResponse(c, err)
		}

		identity, err := m.jwtService.Authenticate(tokenString)
		if err != nil {
			m.logger.Warn("AuthMiddleware: ошибка валидации токена", zap.Error(err))
			return api.ErrorResponse(c, err)
		}

		ctx := context.WithValue(c.Request().Context(), contextkeys.IdentityKey, identity)
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// RequirePrivileged пропускает только директора и старшего мастера. Ставится после Auth.
func (m *AuthMiddleware) RequirePrivileged(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		identity, ok := IdentityFromContext(c.Request().Context())
		if !ok {
			return api.ErrorResponse(c, apperrors.ErrUnauthorized)
		}
		if !identity.IsPrivileged() {
			m.logger.Warn("AuthMiddleware: недостаточно прав", zap.String("login", identity.Login))
			return api.ErrorResponse(c, apperrors.ErrForbidden)
		}
		return next(c)
	}
}

func IdentityFromContext(ctx context.Context) (types.Identity, bool) {
	identity, ok := ctx.Value(contextkeys.IdentityKey).(types.Identity)
	return identity, ok
}
