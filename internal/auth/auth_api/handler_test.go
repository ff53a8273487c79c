package auth_api_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etickets/internal/auth"
	"etickets/internal/auth/auth_api"
	authdb "etickets/internal/auth/db"
	"etickets/internal/database/dbtest"
	"etickets/internal/logger"
)

func newRouter(t *testing.T) *chi.Mux {
	t.Helper()
	store := &authdb.DB{Bun: dbtest.New(t)}
	log := logger.NewWithWriter(io.Discard)
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	svc := auth.NewAuthService(store, tokens, nil, log)

	r := chi.NewRouter()
	auth_api.NewHandler(svc, auth.NewMiddleware(tokens, store, log), log).RegisterRoutes(r)
	return r
}

func post(r http.Handler, path, body, token string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(rec, req)
	return rec
}

func TestRegisterLoginLogout(t *testing.T) {
	r := newRouter(t)

	rec := post(r, "/api/auth/register", `{"name":"Hala","email":"hala@example.com","password":"pass1234"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "pass1234")

	rec = post(r, "/api/auth/register", `{"name":"Hala","email":"hala@example.com","password":"pass1234"}`, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = post(r, "/api/auth/login", `{"email":"hala@example.com","password":"nope"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = post(r, "/api/auth/login", `{"email":"hala@example.com","password":"pass1234"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var login struct {
		Token string `json:"token"`
		User  struct {
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	assert.Equal(t, "customer", login.User.Role)
	require.NotEmpty(t, login.Token)

	rec = post(r, "/api/auth/logout", "", login.Token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = post(r, "/api/auth/logout", "", login.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "the token no longer authenticates")
}

func TestLoginBadBody(t *testing.T) {
	r := newRouter(t)
	rec := post(r, "/api/auth/login", `{`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
