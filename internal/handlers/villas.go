package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/estatedesk/estatedesk/internal/middleware"
	"github.com/estatedesk/estatedesk/internal/models"
	apperrors "github.com/estatedesk/estatedesk/pkg/errors"
	"github.com/estatedesk/estatedesk/pkg/response"
)

// VillaHandler serves the villa read surface with ownership scoping.
type VillaHandler struct {
	db *gorm.DB
}

func NewVillaHandler(db *gorm.DB) (*VillaHandler, error) {
	if db == nil {
		return nil, errors.New("villa handler: db is required")
	}
	return &VillaHandler{db: db}, nil
}

// GET /api/villas
func (h *VillaHandler) List(c *gin.Context) {
	authzCtx, ok := middleware.AuthzFromContext(c)
	if !ok {
		response.Error(c, apperrors.ErrForbidden)
		return
	}

	query := h.db.WithContext(requestContext(c)).
		Where("is_active = ?", true).
		Order("name ASC")
	if authzCtx.Restricted() {
		query = query.Where("id IN ?", authzCtx.Scope.VillaIDs)
	}

	var villas []models.Villa
	if err := query.Find(&villas).Error; err != nil {
		response.Error(c, apperrors.ErrInternalServer)
		return
	}
	response.Success(c, http.StatusOK, villas)
}

// GET /api/villas/:id
func (h *VillaHandler) Get(c *gin.Context) {
	authzCtx, ok := middleware.AuthzFromContext(c)
	if !ok {
		response.Error(c, apperrors.ErrForbidden)
		return
	}

	var villa models.Villa
	err := h.db.WithContext(requestContext(c)).
		Where("id = ? AND is_active = ?", c.Param("id"), true).
		First(&villa).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Error(c, apperrors.ErrNotFound)
		} else {
			response.Error(c, apperrors.ErrInternalServer)
		}
		return
	}

	if authzCtx.Restricted() && !authzCtx.Scope.ContainsVilla(villa.ID) {
		response.Error(c, apperrors.ErrForbidden)
		return
	}
	response.Success(c, http.StatusOK, villa)
}
