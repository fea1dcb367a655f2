package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mall_manager/constants"
	"mall_manager/database"
)

func TestLoginReturnsTokensAndCookies(t *testing.T) {
	app, _ := setupTest(t)
	user := createUser(t, "diner@test.com", constants.RoleUser)

	req := jsonRequest(t, http.MethodPost, "/api/v1/auth/login",
		map[string]any{"email": user.Email, "password": "secret123"})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var names []string
	for _, cookie := range resp.Cookies() {
		names = append(names, cookie.Name)
		assert.True(t, cookie.HttpOnly, "auth cookies must be http-only")
	}
	assert.Contains(t, names, "access_token")
	assert.Contains(t, names, "refresh_token")
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	app, _ := setupTest(t)
	user := createUser(t, "diner@test.com", constants.RoleUser)

	req := jsonRequest(t, http.MethodPost, "/api/v1/auth/login",
		map[string]any{"email": user.Email, "password": "not-the-one"})
	status, _ := doRequest(t, app, req)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestLoginRejectsDisabledAccount(t *testing.T) {
	app, _ := setupTest(t)
	user := createUser(t, "banned@test.com", constants.RoleUser)
	require.NoError(t, database.DB.Model(user).Update("is_active", false).Error)

	req := jsonRequest(t, http.MethodPost, "/api/v1/auth/login",
		map[string]any{"email": user.Email, "password": "secret123"})
	status, _ := doRequest(t, app, req)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestMeReturnsCurrentUser(t *testing.T) {
	app, _ := setupTest(t)
	user := createUser(t, "diner@test.com", constants.RoleUser)

	req := authedRequest(t, http.MethodGet, "/api/v1/auth/me", nil, user, nil)
	status, envelope := doRequest(t, app, req)
	require.Equal(t, http.StatusOK, status)
	data := dataOf(t, envelope)
	assert.Equal(t, user.Email, data["email"])
	assert.Empty(t, data["password"], "password hash must never be serialized")
}

func TestMeRequiresAuth(t *testing.T) {
	app, _ := setupTest(t)

	req := jsonRequest(t, http.MethodGet, "/api/v1/auth/me", nil)
	status, _ := doRequest(t, app, req)
	assert.Equal(t, http.StatusUnauthorized, status)
}
