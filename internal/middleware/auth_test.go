package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/model-marketplace/internal/repository"
	"github.com/iliyamo/model-marketplace/internal/utils"
)

const testSecret = "gate-secret"

type fakeUsers struct {
	user repository.User
	err  error
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (repository.User, error) {
	if f.err != nil {
		return repository.User{}, f.err
	}
	if id != f.user.ID {
		return repository.User{}, repository.ErrUserNotFound
	}
	return f.user, nil
}

func gateRequest(t *testing.T, users UserStore, authorization string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/notifications", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var captured echo.Context
	h := AuthGate(testSecret, users)(func(c echo.Context) error {
		captured = c
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return rec, captured
}

func TestAuthGateRejectsMissingHeader(t *testing.T) {
	rec, next := gateRequest(t, &fakeUsers{}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, next, "handler must not run")
}

func TestAuthGateRejectsMalformedToken(t *testing.T) {
	rec, next := gateRequest(t, &fakeUsers{}, "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, next)
}

func TestAuthGateRejectsUnknownUser(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 42, repository.RoleArtist, 5)
	require.NoError(t, err)

	rec, next := gateRequest(t, &fakeUsers{err: repository.ErrUserNotFound}, "Bearer "+tok.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, next)
}

func TestAuthGateResolvesIdentityFromStore(t *testing.T) {
	// The token still claims artist, but the store says the user is now an
	// admin. The gate must trust the store, never the cached claim.
	tok, err := utils.NewAccessToken(testSecret, 42, repository.RoleArtist, 5)
	require.NoError(t, err)
	users := &fakeUsers{user: repository.User{ID: 42, Username: "moderator", Role: repository.RoleAdmin}}

	rec, next := gateRequest(t, users, "Bearer "+tok.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, next)
	assert.Equal(t, uint64(42), next.Get("user_id"))
	assert.Equal(t, "moderator", next.Get("username"))
	assert.Equal(t, repository.RoleAdmin, next.Get("role"))
}

func roleRequest(t *testing.T, role string, allowed ...string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/models/pending", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if role != "" {
		c.Set("role", role)
	}
	h := RequireRole(allowed...)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return rec
}

func TestRequireRole(t *testing.T) {
	assert.Equal(t, http.StatusOK, roleRequest(t, repository.RoleAdmin, repository.RoleAdmin).Code)
	assert.Equal(t, http.StatusForbidden, roleRequest(t, repository.RoleArtist, repository.RoleAdmin).Code)
	assert.Equal(t, http.StatusForbidden, roleRequest(t, "", repository.RoleAdmin).Code)
}
