package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/liceo-academic-api/internal/middleware"
	"github.com/noah-isme/liceo-academic-api/internal/models"
	appErrors "github.com/noah-isme/liceo-academic-api/pkg/errors"
)

func TestAuthLogin(t *testing.T) {
	srv := &fakeAuthSrv{login: &models.LoginResponse{AccessToken: "token", ExpiresIn: 3600}}
	h := NewAuthHandler(srv)
	c, rec := newGinContext(http.MethodPost, "/auth/login", map[string]string{"email": "admin@liceo.test", "password": "secret"})

	h.Login(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(decodeEnvelope(rec).Data), `"token"`)
}

func TestAuthLoginInvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&fakeAuthSrv{err: appErrors.ErrUnauthorized})
	c, rec := newGinContext(http.MethodPost, "/auth/login", map[string]string{"email": "admin@liceo.test", "password": "nope"})

	h.Login(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMeRequiresClaims(t *testing.T) {
	h := NewAuthHandler(&fakeAuthSrv{})
	c, rec := newGinContext(http.MethodGet, "/auth/me", nil)

	h.Me(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMeUsesTokenSubject(t *testing.T) {
	srv := &fakeAuthSrv{me: &models.UserInfo{ID: "usr-1", Email: "admin@liceo.test", Role: models.RoleAdmin}}
	h := NewAuthHandler(srv)
	c, rec := newGinContext(http.MethodGet, "/auth/me", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "usr-1", Role: models.RoleAdmin})

	h.Me(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "usr-1", srv.user)
}
