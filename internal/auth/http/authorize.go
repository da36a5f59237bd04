package http

import (
	"encoding/json"
	"net/http"

	"github.com/techfolio/authd/internal/auth/domain"
	"github.com/techfolio/authd/internal/auth/service"
	"github.com/techfolio/authd/pkg/httpx"
)

// AuthorizeRequest asks whether a user may perform an action on a resource.
type AuthorizeRequest struct {
	Username string `json:"username"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

// AuthorizeResponse is the wire shape of an authorization decision.
type AuthorizeResponse struct {
	Authorized  bool                `json:"authorized"`
	Username    string              `json:"username"`
	Resource    string              `json:"resource"`
	Action      string              `json:"action"`
	Permissions []domain.Permission `json:"permissions,omitempty"`
	Error       string              `json:"error,omitempty"`
}

// AuthorizeHandler serves POST /v1/auth/authorize.
type AuthorizeHandler struct {
	AuthService *service.AuthService
}

func (h *AuthorizeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req AuthorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_request", "request body must be a JSON object")
		return
	}
	if req.Username == "" || req.Resource == "" || req.Action == "" {
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_request", "username, resource and action are required")
		return
	}

	decision := h.AuthService.AuthorizeUser(r.Context(), req.Username, req.Resource, req.Action)

	response := AuthorizeResponse{
		Authorized:  decision.Authorized,
		Username:    decision.Username,
		Resource:    decision.Resource,
		Action:      decision.Action,
		Permissions: decision.Permissions,
		Error:       decision.Error,
	}

	status := http.StatusOK
	if !decision.Authorized {
		status = http.StatusForbidden
	}
	httpx.WriteJSON(w, status, response)
}
