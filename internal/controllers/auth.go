package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"vipauto/internal/dto"
	"vipauto/internal/services"
	"vipauto/pkg/api"
	apperrors "vipauto/pkg/errors"
	"vipauto/pkg/service"
)

type AuthController struct {
	authService services.AuthServiceInterface
	jwtSvc      service.JWTService
	logger      *zap.Logger
}

func NewAuthController(
	authService services.AuthServiceInterface,
	jwtSvc service.JWTService,
	logger *zap.Logger,
) *AuthController {
	return &AuthController{
		authService: authService,
		jwtSvc:      jwtSvc,
		logger:      logger,
	}
}

// Login выдаёт JWT с логином, именем и ролью сотрудника.
func (ctrl *AuthController) Login(c echo.Context) error {
	var payload dto.LoginDTO

	if err := c.Bind(&payload); err != nil {
		ctrl.logger.Warn("Login: ошибка привязки данных", zap.Error(err))
		return api.ErrorResponse(c, apperrors.NewBadRequestError("Неверный формат данных для входа"))
	}

	if err := c.Validate(&payload); err != nil {
		ctrl.logger.Warn("Login: ошибка валидации данных", zap.Error(err))
		return api.ErrorResponse(c, apperrors.NewBadRequestError("Укажите логин и пароль"))
	}

	user, err := ctrl.authService.Login(c.Request().Context(), payload)
	if err != nil {
		ctrl.logger.Warn("Login: ошибка авторизации", zap.String("login", payload.Login), zap.Error(err))
		return api.ErrorResponse(c, err)
	}

	token, err := ctrl.jwtSvc.GenerateToken(user.Identity())
	if err != nil {
		ctrl.logger.Error("Login: не удалось выпустить токен", zap.String("login", user.Login), zap.Error(err))
		return api.ErrorResponse(c, err)
	}

	return c.JSON(http.StatusOK, dto.LoginResponseDTO{
		Token:     token,
		ExpiresIn: int64(ctrl.jwtSvc.GetAccessTokenTTL().Seconds()),
		User:      user.Identity(),
	})
}
