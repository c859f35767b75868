package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/estatedesk/estatedesk/internal/authz"
	"github.com/estatedesk/estatedesk/internal/middleware"
	"github.com/estatedesk/estatedesk/internal/services"
	apperrors "github.com/estatedesk/estatedesk/pkg/errors"
	"github.com/estatedesk/estatedesk/pkg/response"
)

// PageHandler serves the permission catalog and the per-user sidebar.
type PageHandler struct {
	svc      *services.PageService
	resolver *authz.Resolver
}

func NewPageHandler(db *gorm.DB, audit *services.AuditService) (*PageHandler, error) {
	svc, err := services.NewPageService(db, audit)
	if err != nil {
		return nil, err
	}
	resolver, err := authz.NewResolver(db)
	if err != nil {
		return nil, err
	}
	return &PageHandler{svc: svc, resolver: resolver}, nil
}

// GET /api/pages/visible
func (h *PageHandler) Visible(c *gin.Context) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	pages, err := h.resolver.VisiblePages(requestContext(c), identity)
	if err != nil {
		response.Error(c, apperrors.ErrStoreUnavailable)
		return
	}
	response.Success(c, http.StatusOK, pages)
}

// GET /api/pages
func (h *PageHandler) List(c *gin.Context) {
	pages, err := h.svc.ListActivePages(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, pages)
}

// GET /api/pages/catalog
func (h *PageHandler) Catalog(c *gin.Context) {
	pages, err := h.svc.ListPagesWithPermissions(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, pages)
}

type pageRequest struct {
	Name         string   `json:"name" validate:"required,max=120"`
	URL          string   `json:"url" validate:"required,max=200"`
	Icon         string   `json:"icon" validate:"max=60"`
	DisplayOrder int      `json:"display_order"`
	Description  string   `json:"description" validate:"max=500"`
	Permissions  []string `json:"permissions"`
}

// POST /api/pages
func (h *PageHandler) Create(c *gin.Context) {
	var req pageRequest
	if !bindAndValidate(c, &req) {
		return
	}

	page, err := h.svc.CreatePage(requestContext(c), services.PageInput{
		Name:         req.Name,
		URL:          req.URL,
		Icon:         req.Icon,
		DisplayOrder: req.DisplayOrder,
		Description:  req.Description,
		Permissions:  req.Permissions,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, page)
}

type pageUpdateRequest struct {
	Name         string   `json:"name" validate:"max=120"`
	URL          string   `json:"url" validate:"max=200"`
	Icon         string   `json:"icon" validate:"max=60"`
	DisplayOrder int      `json:"display_order"`
	Description  string   `json:"description" validate:"max=500"`
	Permissions  []string `json:"permissions"`
}

// PUT /api/pages/:id
func (h *PageHandler) Update(c *gin.Context) {
	var req pageUpdateRequest
	if !bindAndValidate(c, &req) {
		return
	}

	page, err := h.svc.UpdatePage(requestContext(c), c.Param("id"), services.PageInput{
		Name:         req.Name,
		URL:          req.URL,
		Icon:         req.Icon,
		DisplayOrder: req.DisplayOrder,
		Description:  req.Description,
		Permissions:  req.Permissions,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, page)
}

// DELETE /api/pages/:id
func (h *PageHandler) Deactivate(c *gin.Context) {
	if err := h.svc.DeactivatePage(requestContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deactivated": true})
}
