package server

import (
	"net/http"
	"testing"

	"chirp/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthHandlers_RegisterLoginMe(t *testing.T) {
	api := newTestAPI(t)
	s := api.register("ann@example.com")

	me := api.do(http.MethodGet, "/api/users/me", nil, s.Access)
	require.Equal(t, http.StatusOK, me.Status)
	assert.Equal(t, "ann@example.com", me.result()["email"])
	assert.NotContains(t, me.result(), "password")

	login := api.do(http.MethodPost, "/api/users/login", map[string]any{
		"email": "ann@example.com", "password": testPassword,
	}, "")
	require.Equal(t, http.StatusOK, login.Status)
	assert.NotEmpty(t, login.result()["access_token"])

	bad := api.do(http.MethodPost, "/api/users/login", map[string]any{
		"email": "ann@example.com", "password": "Wrong1!pw",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, bad.Status)
	assert.Equal(t, models.CodeUnauthorized, bad.Body["code"])
	assert.Equal(t, "Invalid credentials", bad.Body["error"])
}

func TestAuthHandlers_RegisterErrors(t *testing.T) {
	api := newTestAPI(t)
	api.register("dup@example.com")

	dup := api.do(http.MethodPost, "/api/users/register", map[string]any{
		"name": "Dup", "email": "dup@example.com", "password": testPassword,
		"confirm_password": testPassword, "date_of_birth": "1990-01-01T00:00:00Z",
	}, "")
	assert.Equal(t, http.StatusConflict, dup.Status)

	weak := api.do(http.MethodPost, "/api/users/register", map[string]any{
		"name": "Weak", "email": "weak@example.com", "password": "abc",
		"confirm_password": "abc", "date_of_birth": "1990-01-01T00:00:00Z",
	}, "")
	assert.Equal(t, http.StatusBadRequest, weak.Status)
	assert.Equal(t, models.CodeValidation, weak.Body["code"])
	assert.NotEmpty(t, weak.Body["details"])
}

func TestAuthHandlers_MissingAndMalformedTokens(t *testing.T) {
	api := newTestAPI(t)

	res := api.do(http.MethodGet, "/api/users/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, "Access token is required", res.Body["error"])

	res = api.do(http.MethodGet, "/api/users/me", nil, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, res.Status)
}

func TestAuthHandlers_LogoutRevokesAccessToken(t *testing.T) {
	api := newTestAPI(t)
	s := api.register("out@example.com")

	res := api.do(http.MethodPost, "/api/users/logout", map[string]any{"refresh_token": s.Refresh}, s.Access)
	require.Equal(t, http.StatusOK, res.Status)

	res = api.do(http.MethodGet, "/api/users/me", nil, s.Access)
	assert.Equal(t, http.StatusUnauthorized, res.Status)

	res = api.do(http.MethodPost, "/api/users/logout", map[string]any{"refresh_token": s.Refresh}, "")
	assert.Equal(t, http.StatusUnauthorized, res.Status)
}

func TestAuthHandlers_RefreshIsSingleUse(t *testing.T) {
	api := newTestAPI(t)
	s := api.register("rot@example.com")

	first := api.do(http.MethodPost, "/api/users/refresh-token", map[string]any{"refresh_token": s.Refresh}, "")
	require.Equal(t, http.StatusOK, first.Status)
	newAccess := first.result()["access_token"].(string)

	again := api.do(http.MethodPost, "/api/users/refresh-token", map[string]any{"refresh_token": s.Refresh}, "")
	assert.Equal(t, http.StatusUnauthorized, again.Status)

	// The old access token died with its session; the new one works.
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/users/me", nil, s.Access).Status)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/users/me", nil, newAccess).Status)
}

func TestAuthHandlers_VerifiedRequired(t *testing.T) {
	api := newTestAPI(t)
	s := api.register("gate@example.com")

	res := api.do(http.MethodPost, "/api/tweets", map[string]any{"content": "hi"}, s.Access)
	assert.Equal(t, http.StatusForbidden, res.Status)
	assert.Equal(t, "User not verified", res.Body["error"])

	api.setVerify(s.ID, models.UserBanned)
	res = api.do(http.MethodPost, "/api/tweets", map[string]any{"content": "hi"}, s.Access)
	assert.Equal(t, http.StatusForbidden, res.Status)
	assert.Equal(t, "User is banned", res.Body["error"])

	api.setVerify(s.ID, models.UserVerified)
	res = api.do(http.MethodPost, "/api/tweets", map[string]any{"content": "hi"}, s.Access)
	assert.Equal(t, http.StatusCreated, res.Status)
}

func TestAuthHandlers_ForgotPasswordUnknownEmail(t *testing.T) {
	api := newTestAPI(t)

	res := api.do(http.MethodPost, "/api/users/forgot-password", map[string]any{"email": "nobody@example.com"}, "")
	assert.Equal(t, http.StatusNotFound, res.Status)

	res = api.do(http.MethodPost, "/api/users/forgot-password", map[string]any{}, "")
	assert.Equal(t, http.StatusBadRequest, res.Status)
}

func TestAuthHandlers_ChangePassword(t *testing.T) {
	api := newTestAPI(t)
	s := api.verified("pw@example.com")

	res := api.do(http.MethodPut, "/api/users/change-password", map[string]any{
		"old_password": "Nope1!xx", "password": "N3w!pass", "confirm_password": "N3w!pass",
	}, s.Access)
	assert.Equal(t, http.StatusUnprocessableEntity, res.Status)

	res = api.do(http.MethodPut, "/api/users/change-password", map[string]any{
		"old_password": testPassword, "password": "N3w!pass", "confirm_password": "N3w!pass",
	}, s.Access)
	require.Equal(t, http.StatusOK, res.Status)

	login := api.do(http.MethodPost, "/api/users/login", map[string]any{
		"email": "pw@example.com", "password": "N3w!pass",
	}, "")
	assert.Equal(t, http.StatusOK, login.Status)
}
