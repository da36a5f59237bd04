package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/techfolio/authd/internal/auth/domain"
	"github.com/techfolio/authd/internal/auth/service"
	"github.com/techfolio/authd/pkg/httpx"
	"github.com/techfolio/authd/pkg/slogx"
)

// LoginResponse is the wire shape of an authentication outcome. Token and
// permission fields are omitted on failure.
type LoginResponse struct {
	Authenticated bool                `json:"authenticated"`
	Username      string              `json:"username"`
	Authorities   []string            `json:"authorities,omitempty"`
	Token         string              `json:"token,omitempty"`
	SessionIndex  string              `json:"session_index,omitempty"`
	ExpiresAt     *time.Time          `json:"expires_at,omitempty"`
	Permissions   []domain.Permission `json:"permissions,omitempty"`
	Error         string              `json:"error,omitempty"`
}

// LoginHandler serves POST /v1/auth/login. The body is the upstream identity
// assertion as a JSON object; its shape is validated during extraction, not
// here.
type LoginHandler struct {
	AuthService *service.AuthService
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		log.Debug("unparseable login body", "error", err)
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_request", "request body must be a JSON object")
		return
	}

	result := h.AuthService.AuthenticateUser(ctx, domain.MapAssertion(body))

	response := LoginResponse{
		Authenticated: result.Authenticated,
		Username:      result.Username,
		Authorities:   result.Authorities,
		Token:         result.Token,
		SessionIndex:  result.SessionIndex,
		Permissions:   result.Permissions,
		Error:         result.Error,
	}
	if !result.ExpiresAt.IsZero() {
		response.ExpiresAt = &result.ExpiresAt
	}

	status := http.StatusOK
	if !result.Authenticated {
		status = http.StatusUnauthorized
	}
	httpx.WriteJSON(w, status, response)
}
