package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/mehmetcc/boom-backend/internal/authentication"
	"github.com/mehmetcc/boom-backend/internal/testdb"
	"github.com/mehmetcc/boom-backend/internal/user"
	"github.com/mehmetcc/boom-backend/internal/utils"
)

func testConfig() *utils.Config {
	return &utils.Config{
		Server: &utils.ServerConfig{
			Environment:     "test",
			RequestTimeout:  5 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			AllowedOrigins:  []string{"http://localhost:4200"},
		},
		Admin: &utils.AdminConfig{Username: "admin", Password: "admin-pass"},
		Token: &utils.TokenConfig{
			AccessTokenSecret:  "access-secret",
			RefreshTokenSecret: "refresh-secret",
			AccessTokenTTL:     15 * time.Minute,
			RefreshTokenTTL:    7 * 24 * time.Hour,
			SweepInterval:      time.Hour,
		},
		Security: &utils.SecurityConfig{BcryptCost: bcrypt.MinCost, AuthRateLimit: 1000},
	}
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	logger := zaptest.NewLogger(t)
	db := testdb.Open(t, &user.User{}, &authentication.RefreshToken{})

	users := user.NewUserService(user.NewUserRepository(db), user.NewBcryptHasher(cfg.Security.BcryptCost), logger)
	issuer := utils.NewTokenIssuer(cfg.Token)
	auth := authentication.NewAuthenticationService(users, authentication.NewRefreshTokenRepository(db), issuer, logger)

	router, err := NewRouter(Dependencies{Config: cfg, Logger: logger, Users: users, Auth: auth, Issuer: issuer})
	require.NoError(t, err)
	return router
}

func call(t *testing.T, h http.Handler, method, path string, body any, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRouter_PublicRoutes(t *testing.T) {
	h := newTestServer(t)

	w := call(t, h, http.MethodGet, "/api", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Hello API"}`, w.Body.String())

	w = call(t, h, http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = call(t, h, http.MethodGet, "/api/docs/index.html", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = call(t, h, http.MethodGet, "/api/users", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_SessionLifecycle(t *testing.T) {
	h := newTestServer(t)

	w := call(t, h, http.MethodPost, "/api/auth/signup", gin.H{"email": "a@x.io", "password": "Passw0rd!", "name": "Ann"}, "")
	require.Equal(t, http.StatusCreated, w.Code)
	var signedUp authentication.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &signedUp))

	w = call(t, h, http.MethodGet, "/api/users/me", nil, signedUp.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	var me user.Profile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, signedUp.User.ID, me.ID)

	w = call(t, h, http.MethodGet, "/api/users/"+me.ID, nil, signedUp.AccessToken)
	assert.Equal(t, http.StatusOK, w.Code)

	w = call(t, h, http.MethodGet, "/api/users/me", nil, signedUp.RefreshToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = call(t, h, http.MethodPost, "/api/auth/refresh", gin.H{"refreshToken": signedUp.RefreshToken}, "")
	require.Equal(t, http.StatusOK, w.Code)
	var rotated authentication.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rotated))

	w = call(t, h, http.MethodPost, "/api/auth/logout", nil, rotated.AccessToken)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = call(t, h, http.MethodPost, "/api/auth/refresh", gin.H{"refreshToken": rotated.RefreshToken}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
