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

// BuildingHandler serves the building read surface. Ownership-scoped callers
// only see buildings inside their resolved scope; absence and exclusion stay
// distinguishable (404 vs 403).
type BuildingHandler struct {
	db *gorm.DB
}

func NewBuildingHandler(db *gorm.DB) (*BuildingHandler, error) {
	if db == nil {
		return nil, errors.New("building handler: db is required")
	}
	return &BuildingHandler{db: db}, nil
}

// GET /api/buildings
func (h *BuildingHandler) List(c *gin.Context) {
	authzCtx, ok := middleware.AuthzFromContext(c)
	if !ok {
		response.Error(c, apperrors.ErrForbidden)
		return
	}

	query := h.db.WithContext(requestContext(c)).
		Where("is_active = ?", true).
		Order("name ASC")
	if authzCtx.Restricted() {
		// Empty scope is a valid state and yields an empty list
		query = query.Where("id IN ?", authzCtx.Scope.BuildingIDs)
	}

	var buildings []models.Building
	if err := query.Find(&buildings).Error; err != nil {
		response.Error(c, apperrors.ErrInternalServer)
		return
	}
	response.Success(c, http.StatusOK, buildings)
}

// GET /api/buildings/:id
func (h *BuildingHandler) Get(c *gin.Context) {
	authzCtx, ok := middleware.AuthzFromContext(c)
	if !ok {
		response.Error(c, apperrors.ErrForbidden)
		return
	}

	var building models.Building
	err := h.db.WithContext(requestContext(c)).
		Where("id = ? AND is_active = ?", c.Param("id"), true).
		First(&building).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Error(c, apperrors.ErrNotFound)
		} else {
			response.Error(c, apperrors.ErrInternalServer)
		}
		return
	}

	if authzCtx.Restricted() && !authzCtx.Scope.ContainsBuilding(building.ID) {
		response.Error(c, apperrors.ErrForbidden)
		return
	}
	response.Success(c, http.StatusOK, building)
}
