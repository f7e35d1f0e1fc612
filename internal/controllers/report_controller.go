package controllers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"vipauto/internal/services"
	"vipauto/pkg/api"
	apperrors "vipauto/pkg/errors"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportController struct {
	exportService services.ReportExportServiceInterface
	logger        *zap.Logger
}

func NewReportController(exportService services.ReportExportServiceInterface, logger *zap.Logger) *ReportController {
	return &ReportController{exportService: exportService, logger: logger}
}

// ExportWeek отдаёт XLSX закрытой недели. Книга собирается в память целиком,
// чтобы ошибку можно было вернуть JSON-ом до начала ответа.
func (ctrl *ReportController) ExportWeek(c echo.Context) error {
	weekID := c.Param("weekId")
	if weekID == "" {
		return api.ErrorResponse(c, apperrors.NewBadRequestError("Не указана неделя"))
	}

	var buf bytes.Buffer
	if err := ctrl.exportService.ExportWeek(c.Request().Context(), weekID, &buf); err != nil {
		ctrl.logger.Warn("ExportWeek: не удалось выгрузить неделю", zap.String("week_id", weekID), zap.Error(err))
		return api.ErrorResponse(c, err)
	}

	fileName := fmt.Sprintf("report_%s.xlsx", weekID)
	c.Response().Header().Set("Content-Disposition", "attachment; filename="+fileName)
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}
