package routes

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"vipauto/internal/controllers"
	"vipauto/internal/services"
	"vipauto/pkg/api"
	"vipauto/pkg/middleware"
	"vipauto/pkg/service"
	"vipauto/pkg/utils"
	appwebsocket "vipauto/pkg/websocket"
)

// Dependencies - всё, что нужно роутеру. Сервисы собираются в main.
type Dependencies struct {
	// Ctx ограничивает жизнь WebSocket-сессий временем работы сервера.
	Ctx          context.Context
	Validator    *validator.Validate
	JWT          service.JWTService
	AuthService  services.AuthServiceInterface
	Hub          *appwebsocket.Hub
	Broadcaster  services.BroadcastServiceInterface
	Commands     appwebsocket.MessageHandler
	ReportExport services.ReportExportServiceInterface
	HealthChecks map[string]controllers.Pinger
	Logger       *zap.Logger
}

func InitRouter(e *echo.Echo, deps Dependencies) {
	logger := deps.Logger
	logger.Info("InitRouter: Начало создания маршрутов")

	// --- 0. ОБЩИЕ КОМПОНЕНТЫ ---
	e.HideBanner = true
	e.HTTPErrorHandler = api.HTTPErrorHandler
	e.Validator = utils.NewValidator(deps.Validator)

	e.Use(echomw.RecoverWithConfig(echomw.RecoverConfig{
		DisableStackAll: true,
		StackSize:       1 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("!!! ОБНАРУЖЕНА ПАНИКА (PANIC) !!!",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err),
				zap.String("stack", string(stack)),
			)
			return err
		},
	}))
	e.Use(middleware.RequestLogger(logger))

	authMW := middleware.NewAuthMiddleware(deps.JWT, logger)

	// --- 1. КОНТРОЛЛЕРЫ ---
	authCtrl := controllers.NewAuthController(deps.AuthService, deps.JWT, logger)
	wsCtrl := controllers.NewWebSocketController(deps.Ctx, deps.Hub, deps.JWT, deps.Broadcaster, deps.Commands, logger)
	reportCtrl := controllers.NewReportController(deps.ReportExport, logger)
	healthCtrl := controllers.NewHealthController(deps.HealthChecks, logger)

	// --- 2. РОУТЕРЫ ---
	e.POST("/login", authCtrl.Login)
	e.GET("/ws", wsCtrl.ServeWs)

	e.GET("/health", healthCtrl.Live)
	e.GET("/health/ready", healthCtrl.Ready)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	secureGroup := e.Group("/api", authMW.Auth)
	secureGroup.GET("/reports/:weekId/export", reportCtrl.ExportWeek, authMW.RequirePrivileged)

	logger.Info("INIT_ROUTER: Создание маршрутов завершено")
}
