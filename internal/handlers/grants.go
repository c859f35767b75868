package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/estatedesk/estatedesk/internal/authz"
	"github.com/estatedesk/estatedesk/internal/middleware"
	"github.com/estatedesk/estatedesk/internal/services"
	apperrors "github.com/estatedesk/estatedesk/pkg/errors"
	"github.com/estatedesk/estatedesk/pkg/response"
)

// GrantHandler serves the role-grant matrix endpoints and the ad-hoc
// permission check used by the UI to toggle controls.
type GrantHandler struct {
	svc      *services.GrantService
	resolver *authz.Resolver
}

func NewGrantHandler(db *gorm.DB, audit *services.AuditService) (*GrantHandler, error) {
	svc, err := services.NewGrantService(db, audit)
	if err != nil {
		return nil, err
	}
	resolver, err := authz.NewResolver(db)
	if err != nil {
		return nil, err
	}
	return &GrantHandler{svc: svc, resolver: resolver}, nil
}

// GET /api/roles
func (h *GrantHandler) ListRoles(c *gin.Context) {
	roles, err := h.svc.ListRoles(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, roles)
}

// GET /api/roles/:id/grants
func (h *GrantHandler) GetRoleGrants(c *gin.Context) {
	grants, err := h.svc.GetGrantsForRole(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, grants)
}

// GET /api/roles/:id/grants/matrix
func (h *GrantHandler) GetRoleMatrix(c *gin.Context) {
	matrix, err := h.resolver.RolePagePermissions(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, apperrors.ErrStoreUnavailable)
		return
	}
	response.Success(c, http.StatusOK, matrix)
}

type grantRef struct {
	PageID         string `json:"page_id" validate:"required"`
	PermissionType string `json:"permission_type" validate:"required,oneof=view create update delete assign"`
}

type replaceRoleGrantsRequest struct {
	Grants []grantRef `json:"grants" validate:"required,dive"`
}

// PUT /api/roles/:id/grants
func (h *GrantHandler) ReplaceRoleGrants(c *gin.Context) {
	var req replaceRoleGrantsRequest
	if !bindAndValidate(c, &req) {
		return
	}

	refs := make([]services.PagePermissionRef, 0, len(req.Grants))
	for _, grant := range req.Grants {
		refs = append(refs, services.PagePermissionRef{
			PageID:         grant.PageID,
			PermissionType: grant.PermissionType,
		})
	}

	if err := h.svc.ReplaceAllGrantsForRole(requestContext(c), c.Param("id"), refs); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"replaced": len(refs)})
}

type grantState struct {
	PermissionType string `json:"permission_type" validate:"required,oneof=view create update delete assign"`
	IsGranted      bool   `json:"is_granted"`
}

type replacePageGrantsRequest struct {
	PageID string       `json:"page_id" validate:"required"`
	States []grantState `json:"states" validate:"required,dive"`
}

// PUT /api/roles/:id/grants/page
func (h *GrantHandler) ReplacePageGrants(c *gin.Context) {
	var req replacePageGrantsRequest
	if !bindAndValidate(c, &req) {
		return
	}

	states := make([]services.GrantState, 0, len(req.States))
	for _, state := range req.States {
		states = append(states, services.GrantState{
			PermissionType: state.PermissionType,
			IsGranted:      state.IsGranted,
		})
	}

	if err := h.svc.ReplaceGrantsForPage(requestContext(c), c.Param("id"), req.PageID, states); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"replaced": len(states)})
}

// GET /api/permissions/check?page=/tenants&permission=update
func (h *GrantHandler) Check(c *gin.Context) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	pageURL := strings.TrimSpace(c.Query("page"))
	permType := strings.TrimSpace(c.Query("permission"))
	if pageURL == "" {
		response.Error(c, apperrors.NewBadRequest("page query parameter is required"))
		return
	}
	if permType == "" {
		permType = authz.PermView
	}
	if !authz.ValidPermissionType(permType) {
		response.Error(c, apperrors.NewBadRequest("unknown permission type"))
		return
	}

	decision, err := h.resolver.HasPermission(requestContext(c), identity, pageURL, permType)
	if err != nil {
		response.Error(c, apperrors.ErrStoreUnavailable)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"has_permission": decision.Allowed,
		"reason":         decision.Reason,
		"page_url":       pageURL,
		"permission":     permType,
	})
}
