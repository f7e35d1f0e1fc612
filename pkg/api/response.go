package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "vipauto/pkg/errors"
)

// MessageResponse - тело ошибки HTTP: {"message": "..."}.
type MessageResponse struct {
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ErrorResponse отдаёт ошибку клиенту. Для HttpError берётся только сообщение для
// пользователя, для остальных ошибок код определяется по таксономии apperrors.
// Внутренние ошибки наружу не раскрываются.
func ErrorResponse(c echo.Context, err error) error {
	var httpErr *apperrors.HttpError
	if errors.As(err, &httpErr) {
		return c.JSON(httpErr.Code, MessageResponse{Message: httpErr.Message, Details: httpErr.Details})
	}

	code := apperrors.StatusCode(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "Внутренняя ошибка сервера"
	}
	return c.JSON(code, MessageResponse{Message: msg})
}

// HTTPErrorHandler - обработчик ошибок echo, приводящий все ответы к одному формату.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg, ok := he.Message.(string)
		if !ok {
			msg = http.StatusText(he.Code)
		}
		_ = c.JSON(he.Code, MessageResponse{Message: msg})
		return
	}
	_ = ErrorResponse(c, err)
}
