package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/estatedesk/estatedesk/internal/authz"
	"github.com/estatedesk/estatedesk/internal/middleware"
	"github.com/estatedesk/estatedesk/internal/models"
	apperrors "github.com/estatedesk/estatedesk/pkg/errors"
	"github.com/estatedesk/estatedesk/pkg/response"
)

// TenantHandler serves the tenant read surface. A scoped caller sees a tenant
// when the tenant's apartment sits in an assigned building or the tenant is
// linked to the caller directly; the two legs form a union.
type TenantHandler struct {
	db *gorm.DB
}

func NewTenantHandler(db *gorm.DB) (*TenantHandler, error) {
	if db == nil {
		return nil, errors.New("tenant handler: db is required")
	}
	return &TenantHandler{db: db}, nil
}

// GET /api/tenants
func (h *TenantHandler) List(c *gin.Context) {
	authzCtx, ok := middleware.AuthzFromContext(c)
	if !ok {
		response.Error(c, apperrors.ErrForbidden)
		return
	}

	ctx := requestContext(c)
	query := h.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC")
	if authzCtx.Restricted() {
		apartments := h.db.WithContext(ctx).
			Model(&models.Apartment{}).
			Select("id").
			Where("building_id IN ?", authzCtx.Scope.BuildingIDs)
		query = query.Where("id IN ? OR apartment_id IN (?)", authzCtx.Scope.TenantIDs, apartments)
	}

	var tenants []models.Tenant
	if err := query.Find(&tenants).Error; err != nil {
		response.Error(c, apperrors.ErrInternalServer)
		return
	}
	response.Success(c, http.StatusOK, tenants)
}

// GET /api/tenants/:id
func (h *TenantHandler) Get(c *gin.Context) {
	authzCtx, ok := middleware.AuthzFromContext(c)
	if !ok {
		response.Error(c, apperrors.ErrForbidden)
		return
	}

	ctx := requestContext(c)

	var tenant models.Tenant
	err := h.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", c.Param("id"), true).
		First(&tenant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Error(c, apperrors.ErrNotFound)
		} else {
			response.Error(c, apperrors.ErrInternalServer)
		}
		return
	}

	if authzCtx.Restricted() {
		visible, err := h.tenantInScope(c, &tenant, authzCtx.Scope)
		if err != nil {
			// Cannot prove membership, so the request is refused
			response.Error(c, apperrors.ErrStoreUnavailable)
			return
		}
		if !visible {
			response.Error(c, apperrors.ErrForbidden)
			return
		}
	}
	response.Success(c, http.StatusOK, tenant)
}

func (h *TenantHandler) tenantInScope(c *gin.Context, tenant *models.Tenant, scope authz.Scope) (bool, error) {
	if scope.ContainsTenant(tenant.ID) {
		return true, nil
	}
	if tenant.ApartmentID == nil {
		return false, nil
	}

	var apartment models.Apartment
	err := h.db.WithContext(requestContext(c)).
		First(&apartment, "id = ?", *tenant.ApartmentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return scope.ContainsBuilding(apartment.BuildingID), nil
}
