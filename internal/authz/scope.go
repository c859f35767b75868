package authz

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/estatedesk/estatedesk/internal/models"
)

// ScopeResolver computes the concrete entity-id sets an ownership-scoped
// identity may touch. Assignment edges are read fresh on every resolution so
// a revoked assignment takes effect on the next request.
type ScopeResolver struct {
	db *gorm.DB
}

// NewScopeResolver constructs a scope resolver backed by the provided database.
func NewScopeResolver(db *gorm.DB) (*ScopeResolver, error) {
	if db == nil {
		return nil, errors.New("scope resolver: db is required")
	}
	return &ScopeResolver{db: db}, nil
}

// TenantFilter restricts tenant visibility for an owner. A tenant is visible
// when its apartment's building is in BuildingIDs OR the tenant id is in
// TenantIDs; the two legs are a union, never an intersection.
type TenantFilter struct {
	BuildingIDs []string `json:"building_ids"`
	TenantIDs   []string `json:"tenant_ids"`
}

// OwnerBuildings returns the building ids assigned to the owner. No
// assignments resolves to an empty set, not an error.
func (s *ScopeResolver) OwnerBuildings(ctx context.Context, userID string) ([]string, error) {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errors.New("scope resolver: user id is required")
	}

	var ids []string
	if err := s.db.WithContext(ctx).
		Model(&models.OwnerBuilding{}).
		Where("user_id = ?", userID).
		Pluck("building_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("scope resolver: owner buildings: %w", err)
	}
	return ids, nil
}

// OwnerVillas returns the villa ids assigned to the owner.
func (s *ScopeResolver) OwnerVillas(ctx context.Context, userID string) ([]string, error) {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errors.New("scope resolver: user id is required")
	}

	var ids []string
	if err := s.db.WithContext(ctx).
		Model(&models.OwnerVilla{}).
		Where("user_id = ?", userID).
		Pluck("villa_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("scope resolver: owner villas: %w", err)
	}
	return ids, nil
}

// ResolveTenantFilter builds the tenant visibility filter for an owner from
// both assignment edges.
func (s *ScopeResolver) ResolveTenantFilter(ctx context.Context, userID string) (TenantFilter, error) {
	ctx = ensureContext(ctx)

	buildingIDs, err := s.OwnerBuildings(ctx, userID)
	if err != nil {
		return TenantFilter{}, err
	}

	var tenantIDs []string
	if err := s.db.WithContext(ctx).
		Model(&models.TenantOwner{}).
		Where("user_id = ?", userID).
		Pluck("tenant_id", &tenantIDs).Error; err != nil {
		return TenantFilter{}, fmt.Errorf("scope resolver: tenant links: %w", err)
	}

	return TenantFilter{BuildingIDs: buildingIDs, TenantIDs: tenantIDs}, nil
}
