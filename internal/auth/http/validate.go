package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/techfolio/authd/internal/auth/service"
	"github.com/techfolio/authd/pkg/httpx"
)

// ValidateResponse is the wire shape of a token validation outcome.
type ValidateResponse struct {
	Valid        bool       `json:"valid"`
	Username     string     `json:"username,omitempty"`
	Authorities  []string   `json:"authorities,omitempty"`
	SessionIndex string     `json:"session_index,omitempty"`
	IssuedAt     *time.Time `json:"issued_at,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	Expired      bool       `json:"expired"`
	Error        string     `json:"error,omitempty"`
}

// ValidateHandler serves POST /v1/auth/validate. The token comes from the
// Authorization header or a {"token": ...} body.
type ValidateHandler struct {
	AuthService *service.AuthService
}

func (h *ValidateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, ok := tokenFromRequest(r)
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_request", "no token in Authorization header or body")
		return
	}

	result := h.AuthService.ValidateToken(r.Context(), raw)

	response := ValidateResponse{
		Valid:        result.Valid,
		Username:     result.Username,
		Authorities:  result.Authorities,
		SessionIndex: result.SessionIndex,
		Expired:      result.Expired,
		Error:        result.Error,
	}
	if !result.IssuedAt.IsZero() {
		response.IssuedAt = &result.IssuedAt
	}
	if !result.ExpiresAt.IsZero() {
		response.ExpiresAt = &result.ExpiresAt
	}

	status := http.StatusOK
	if !result.Valid {
		status = http.StatusUnauthorized
	}
	httpx.WriteJSON(w, status, response)
}

// tokenFromRequest pulls the raw token from the Authorization header first,
// falling back to a JSON body with a "token" field.
func tokenFromRequest(r *http.Request) (string, bool) {
	if token, ok := httpx.BearerToken(r); ok {
		return token, true
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return "", false
	}
	return body.Token, body.Token != ""
}
