package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vipauto/pkg/constants"
	"vipauto/pkg/service"
	"vipauto/pkg/types"
)

func TestAuthMiddleware(t *testing.T) {
	jwtSvc := service.NewJWTService("test-secret", time.Hour, zap.NewNop())
	m := NewAuthMiddleware(jwtSvc, zap.NewNop())

	handler := m.Auth(m.RequirePrivileged(func(c echo.Context) error {
		identity, ok := IdentityFromContext(c.Request().Context())
		require.True(t, ok)
		return c.String(http.StatusOK, identity.Login)
	}))

	call := func(header string) *httptest.ResponseRecorder {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set(echo.HeaderAuthorization, header)
		}
		rec := httptest.NewRecorder()
		require.NoError(t, handler(e.NewContext(req, rec)))
		return rec
	}

	director, err := jwtSvc.GenerateToken(types.Identity{Login: "Chief.Orlov", Name: "Орлов", Role: constants.RoleDirector})
	require.NoError(t, err)
	master, err := jwtSvc.GenerateToken(types.Identity{Login: "Master.Andrey", Name: "Андрей", Role: constants.RoleMaster})
	require.NoError(t, err)

	rec := call("Bearer " + director)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Chief.Orlov", rec.Body.String())

	assert.Equal(t, http.StatusForbidden, call("Bearer "+master).Code)
	assert.Equal(t, http.StatusUnauthorized, call("").Code)
	assert.Equal(t, http.StatusUnauthorized, call("Token abc").Code)
	assert.Equal(t, http.StatusUnauthorized, call("Bearer garbage").Code)
}
