package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/techfolio/authd/internal/auth/domain"
	"github.com/techfolio/authd/internal/auth/service"
	"github.com/techfolio/authd/internal/auth/store/drivers/sqlite"
	"github.com/techfolio/authd/pkg/idx"
	"github.com/techfolio/authd/pkg/jwtx"

	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestRouter(t *testing.T) *Router {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	ctx := context.Background()
	require.NoError(t, st.Users().CreateUser(ctx, domain.User{
		Username: "alice", Active: true, OrganizationID: "org-1",
	}))

	role := domain.Role{ID: idx.New().String(), Name: "MANAGER", Active: true}
	require.NoError(t, st.Roles().CreateRole(ctx, role))
	require.NoError(t, st.Users().AssignRole(ctx, "alice", role.ID))

	perm := domain.Permission{
		ID: idx.New().String(), Resource: "portfolio", Action: "write",
		DisplayName: "Write portfolio", Active: true,
	}
	require.NoError(t, st.Permissions().CreatePermission(ctx, perm))
	require.NoError(t, st.Roles().GrantPermission(ctx, role.ID, perm.ID))

	signer, err := jwtx.NewSignerHS256(testSecret)
	require.NoError(t, err)

	const issuer = "techfolio-auth"
	tokens := &service.TokenService{
		Signer:   signer,
		Verifier: jwtx.NewVerifierHS256(testSecret, issuer),
		Issuer:   issuer,
		TTL:      time.Hour,
	}
	authorizer := &service.AuthorizeService{Store: st}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter("test", st, logger)
	router.AuthService = &service.AuthService{
		Tokens:     tokens,
		Authorizer: authorizer,
	}
	router.AuthorizeService = authorizer
	router.ApplyRoutes()
	return router
}

func postJSON(t *testing.T, router *Router, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func loginAlice(t *testing.T, router *Router) LoginResponse {
	t.Helper()

	rec := postJSON(t, router, "/v1/auth/login", map[string]any{
		"principal":     "alice",
		"authorities":   []string{"ROLE_MANAGER"},
		"session_index": "sso-42",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var response LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	return response
}

func TestLoginEndpoint(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	t.Run("success", func(t *testing.T) {
		response := loginAlice(t, router)
		require.True(t, response.Authenticated)
		require.Equal(t, "alice", response.Username)
		require.NotEmpty(t, response.Token)
		require.Equal(t, "sso-42", response.SessionIndex)
		require.Len(t, response.Permissions, 1)
	})

	t.Run("malformed assertion", func(t *testing.T) {
		rec := postJSON(t, router, "/v1/auth/login", map[string]any{
			"principal": 42,
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)

		var response LoginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		require.False(t, response.Authenticated)
		require.Empty(t, response.Token)
	})

	t.Run("unparseable body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewReader([]byte("{")))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestValidateEndpoint(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	token := loginAlice(t, router).Token

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/validate", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var response ValidateResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		require.True(t, response.Valid)
		require.Equal(t, "alice", response.Username)
	})

	t.Run("body token", func(t *testing.T) {
		rec := postJSON(t, router, "/v1/auth/validate", map[string]string{"token": token})
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		rec := postJSON(t, router, "/v1/auth/validate", map[string]string{"token": "garbage"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)

		var response ValidateResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		require.False(t, response.Valid)
	})

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/validate", bytes.NewReader(nil))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRefreshEndpoint(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	token := loginAlice(t, router).Token

	rec := postJSON(t, router, "/v1/auth/refresh", map[string]string{"token": token})
	require.Equal(t, http.StatusOK, rec.Code)

	var response RefreshResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.NotEmpty(t, response.Token)
	require.NotEqual(t, token, response.Token)

	t.Run("undecodable token", func(t *testing.T) {
		rec := postJSON(t, router, "/v1/auth/refresh", map[string]string{"token": "garbage"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAuthorizeEndpoint(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	t.Run("granted", func(t *testing.T) {
		rec := postJSON(t, router, "/v1/auth/authorize", AuthorizeRequest{
			Username: "alice", Resource: "portfolio", Action: "write",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var response AuthorizeResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		require.True(t, response.Authorized)
	})

	t.Run("denied", func(t *testing.T) {
		rec := postJSON(t, router, "/v1/auth/authorize", AuthorizeRequest{
			Username: "alice", Resource: "portfolio", Action: "delete",
		})
		require.Equal(t, http.StatusForbidden, rec.Code)

		var response AuthorizeResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		require.False(t, response.Authorized)
		require.NotEmpty(t, response.Error)
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := postJSON(t, router, "/v1/auth/authorize", AuthorizeRequest{Username: "alice"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestPermissionsEndpoint(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/users/alice/permissions", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var response PermissionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.True(t, response.Active)
	require.Equal(t, "org-1", response.OrganizationID)
	require.Equal(t, []string{"MANAGER"}, response.Roles)
	require.Len(t, response.Permissions, 1)

	t.Run("unknown user is an empty listing, not 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/users/ghost/permissions", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var response PermissionsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		require.False(t, response.Active)
		require.Empty(t, response.Permissions)
	})
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	for _, path := range []string{"/livez", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
}
