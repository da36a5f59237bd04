package http

import (
	"net/http"

	"github.com/techfolio/authd/internal/auth/service"
	"github.com/techfolio/authd/pkg/httpx"
)

// RefreshResponse carries the renewed token.
type RefreshResponse struct {
	Token string `json:"token"`
}

// RefreshHandler serves POST /v1/auth/refresh. The old token comes from the
// Authorization header or a {"token": ...} body; a new token for the same
// identity is returned when the old one is refreshable.
type RefreshHandler struct {
	AuthService *service.AuthService
}

func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, ok := tokenFromRequest(r)
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_request", "no token in Authorization header or body")
		return
	}

	refreshed, ok := h.AuthService.RefreshToken(r.Context(), raw)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized,
			"invalid_token", "token is not refreshable")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, RefreshResponse{Token: refreshed})
}
