package http

import (
	"net/http"

	"github.com/techfolio/authd/internal/auth/domain"
	"github.com/techfolio/authd/internal/auth/service"
	"github.com/techfolio/authd/pkg/httpx"
)

// PermissionsResponse is the resolved listing for a single user. Unknown
// users produce an empty, inactive listing rather than a 404 so callers
// cannot probe for valid usernames.
type PermissionsResponse struct {
	Username       string              `json:"username"`
	Active         bool                `json:"active"`
	OrganizationID string              `json:"organization_id,omitempty"`
	Roles          []string            `json:"roles,omitempty"`
	Permissions    []domain.Permission `json:"permissions,omitempty"`
}

// PermissionsHandler serves GET /v1/users/{username}/permissions.
type PermissionsHandler struct {
	AuthorizeService *service.AuthorizeService
}

func (h *PermissionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	if username == "" {
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_request", "username path segment is required")
		return
	}

	listing := h.AuthorizeService.GetUserPermissions(r.Context(), username)

	httpx.WriteJSON(w, http.StatusOK, PermissionsResponse{
		Username:       listing.Username,
		Active:         listing.Active,
		OrganizationID: listing.OrganizationID,
		Roles:          listing.Roles,
		Permissions:    listing.Permissions,
	})
}
