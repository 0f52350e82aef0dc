package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdesk/internal/transport/middleware"
)

func newJSONContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestRegisterCreatesOrgAndAdmin(t *testing.T) {
	team := newFakeTeamRepo()
	authAPI := NewAuthAPI(team, middleware.NewAuthMiddleware("test-secret"))

	c, rec := newJSONContext(t, http.MethodPost, "/auth/register",
		`{"organization_name":"Acme Sales","email":"owner@acme.com","password":"password123","display_name":"Owner"}`)

	require.NoError(t, authAPI.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "owner@acme.com", resp.User.Email)
	assert.Equal(t, "admin", resp.User.Role)

	user, err := team.FindUserByEmail(c.Request().Context(), "owner@acme.com")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", user.PasswordHash)

	_, err = team.FindOrganizationByID(c.Request().Context(), user.OrganizationID)
	assert.NoError(t, err)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	authAPI := NewAuthAPI(newFakeTeamRepo(), middleware.NewAuthMiddleware("test-secret"))

	c, rec := newJSONContext(t, http.MethodPost, "/auth/register",
		`{"organization_name":"Acme","email":"a@b.com","password":"short"}`)

	require.NoError(t, authAPI.Register(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	team := newFakeTeamRepo()
	authAPI := NewAuthAPI(team, middleware.NewAuthMiddleware("test-secret"))

	c, rec := newJSONContext(t, http.MethodPost, "/auth/register",
		`{"organization_name":"Acme","email":"owner@acme.com","password":"password123"}`)
	require.NoError(t, authAPI.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	c, rec = newJSONContext(t, http.MethodPost, "/auth/register",
		`{"organization_name":"Other","email":"owner@acme.com","password":"password123"}`)
	require.NoError(t, authAPI.Register(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLogin(t *testing.T) {
	team := newFakeTeamRepo()
	authAPI := NewAuthAPI(team, middleware.NewAuthMiddleware("test-secret"))

	c, rec := newJSONContext(t, http.MethodPost, "/auth/register",
		`{"organization_name":"Acme","email":"owner@acme.com","password":"password123"}`)
	require.NoError(t, authAPI.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"valid credentials", `{"email":"owner@acme.com","password":"password123"}`, http.StatusOK},
		{"wrong password", `{"email":"owner@acme.com","password":"wrongpass"}`, http.StatusUnauthorized},
		{"unknown email", `{"email":"nobody@acme.com","password":"password123"}`, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newJSONContext(t, http.MethodPost, "/auth/login", tt.body)
			require.NoError(t, authAPI.Login(c))
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestLoginRejectsDeactivatedUser(t *testing.T) {
	team := newFakeTeamRepo()
	authAPI := NewAuthAPI(team, middleware.NewAuthMiddleware("test-secret"))

	c, rec := newJSONContext(t, http.MethodPost, "/auth/register",
		`{"organization_name":"Acme","email":"owner@acme.com","password":"password123"}`)
	require.NoError(t, authAPI.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	user, err := team.FindUserByEmail(c.Request().Context(), "owner@acme.com")
	require.NoError(t, err)
	require.NoError(t, team.DeactivateUser(c.Request().Context(), user.OrganizationID, user.ID))

	c, rec = newJSONContext(t, http.MethodPost, "/auth/login",
		`{"email":"owner@acme.com","password":"password123"}`)
	require.NoError(t, authAPI.Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
