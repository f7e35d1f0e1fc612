package controllers

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"vipauto/internal/services"
	"vipauto/pkg/api"
	apperrors "vipauto/pkg/errors"
	"vipauto/pkg/service"
	"vipauto/pkg/utils"
	appwebsocket "vipauto/pkg/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketController struct {
	// ctx живёт столько же, сколько сервер: запрос завершается сразу после апгрейда.
	ctx         context.Context
	hub         *appwebsocket.Hub
	jwtService  service.JWTService
	broadcaster services.BroadcastServiceInterface
	router      appwebsocket.MessageHandler
	logger      *zap.Logger
}

func NewWebSocketController(
	ctx context.Context,
	hub *appwebsocket.Hub,
	jwtService service.JWTService,
	broadcaster services.BroadcastServiceInterface,
	router appwebsocket.MessageHandler,
	logger *zap.Logger,
) *WebSocketController {
	return &WebSocketController{
		ctx:         ctx,
		hub:         hub,
		jwtService:  jwtService,
		broadcaster: broadcaster,
		router:      router,
		logger:      logger,
	}
}

// tokenFromRequest берёт токен из ?token= или из заголовка Authorization.
func tokenFromRequest(c echo.Context) (string, error) {
	if token := c.QueryParam("token"); token != "" {
		return token, nil
	}
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return "", apperrors.ErrTokenNotFound
	}
	return utils.BearerToken(header)
}

// ServeWs проверяет токен до апгрейда: без валидной личности соединение не открывается.
func (ctrl *WebSocketController) ServeWs(c echo.Context) error {
	tokenString, err := tokenFromRequest(c)
	if err != nil {
		ctrl.logger.Warn("WebSocket: токен не передан", zap.String("remote_ip", c.RealIP()))
		return api.ErrorResponse(c, err)
	}

	identity, err := ctrl.jwtService.Authenticate(tokenString)
	if err != nil {
		ctrl.logger.Warn("WebSocket: недействительный токен", zap.String("remote_ip", c.RealIP()), zap.Error(err))
		return api.ErrorResponse(c, err)
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		ctrl.logger.Error("WebSocket: не удалось улучшить соединение", zap.Error(err))
		return nil
	}

	client := appwebsocket.NewClient(ctrl.hub, conn, identity, ctrl.logger)
	if !ctrl.hub.Register(client) {
		_ = conn.Close()
		return nil
	}

	go client.WritePump()

	if err := ctrl.broadcaster.SendInitial(ctrl.ctx, client); err != nil {
		ctrl.logger.Error("WebSocket: не удалось отправить начальные данные", zap.String("login", identity.Login), zap.Error(err))
		ctrl.broadcaster.Reply(client, appwebsocket.TypeServerError, services.MsgReadFailed)
	}

	go client.ReadPump(ctrl.ctx, ctrl.router)

	ctrl.logger.Info("WebSocket: клиент подключен",
		zap.String("login", identity.Login),
		zap.String("name", identity.Name),
		zap.String("role", identity.Role.String()))
	return nil
}
