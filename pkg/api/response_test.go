package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "vipauto/pkg/errors"
)

func render(t *testing.T, err error) (int, MessageResponse) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, ErrorResponse(c, err))

	var body MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestErrorResponse(t *testing.T) {
	code, body := render(t, apperrors.NewHttpError(http.StatusTooManyRequests, "Подождите", apperrors.ErrAccountLocked, nil))
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, "Подождите", body.Message)

	code, body = render(t, fmt.Errorf("логин: %w", apperrors.ErrInvalidCredentials))
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Contains(t, body.Message, apperrors.ErrInvalidCredentials.Error())

	code, body = render(t, fmt.Errorf("pgx: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.NotContains(t, body.Message, "pgx")
}
