package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Pinger - зависимость, доступность которой проверяет readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	checks map[string]Pinger
	logger *zap.Logger
}

// NewHealthController: nil-зависимости пропускаются (например, выключенный Redis).
func NewHealthController(checks map[string]Pinger, logger *zap.Logger) *HealthController {
	active := make(map[string]Pinger, len(checks))
	for name, p := range checks {
		if p != nil {
			active[name] = p
		}
	}
	return &HealthController{checks: active, logger: logger}
}

func (ctrl *HealthController) Live(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (ctrl *HealthController) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	result := make(map[string]string, len(ctrl.checks))
	for name, p := range ctrl.checks {
		if err := p.Ping(ctx); err != nil {
			ctrl.logger.Warn("проверка готовности не пройдена", zap.String("dependency", name), zap.Error(err))
			result[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		result[name] = "up"
	}
	return c.JSON(status, result)
}
