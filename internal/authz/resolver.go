package authz

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/estatedesk/estatedesk/internal/models"
)

// Resolver answers "can this identity do X on page Y" and "which pages can
// this identity see" against the grant matrix. Every lookup reads the store
// fresh; decisions are never cached across requests.
type Resolver struct {
	db *gorm.DB
}

// NewResolver constructs a permission resolver backed by the provided database.
func NewResolver(db *gorm.DB) (*Resolver, error) {
	if db == nil {
		return nil, errors.New("authz resolver: db is required")
	}
	return &Resolver{db: db}, nil
}

// VisiblePages returns the active pages the identity may see, ordered by
// display order. Superusers see the whole catalog; everyone else sees only
// pages with a granted view row.
func (r *Resolver) VisiblePages(ctx context.Context, identity Identity) ([]models.Page, error) {
	ctx = ensureContext(ctx)

	if identity.Superuser {
		var pages []models.Page
		if err := r.db.WithContext(ctx).
			Where("is_active = ?", true).
			Order("display_order ASC").
			Find(&pages).Error; err != nil {
			return nil, fmt.Errorf("authz resolver: list pages: %w", err)
		}
		return pages, nil
	}

	if strings.TrimSpace(identity.RoleID) == "" {
		return nil, errors.New("authz resolver: role id is required")
	}

	var pages []models.Page
	err := r.db.WithContext(ctx).
		Joins("JOIN role_grants ON role_grants.page_id = pages.id").
		Where("pages.is_active = ?", true).
		Where("role_grants.role_id = ? AND role_grants.permission_type = ? AND role_grants.is_granted = ?",
			identity.RoleID, PermView, true).
		Order("pages.display_order ASC").
		Find(&pages).Error
	if err != nil {
		return nil, fmt.Errorf("authz resolver: visible pages: %w", err)
	}
	return pages, nil
}

// HasPermission evaluates a single (page URL, permission type) pair for the
// identity. An unknown or inactive page denies rather than erroring; a store
// failure denies and reports the error so callers fail closed.
func (r *Resolver) HasPermission(ctx context.Context, identity Identity, pageURL, permType string) (Decision, error) {
	ctx = ensureContext(ctx)

	if identity.Superuser {
		return Allow(ReasonSuperuser), nil
	}

	pageURL = strings.TrimSpace(pageURL)
	if pageURL == "" {
		return Deny(ReasonUnknownPage), nil
	}
	if permType == "" {
		permType = PermView
	}

	var page models.Page
	err := r.db.WithContext(ctx).
		Where("url = ? AND is_active = ?", pageURL, true).
		First(&page).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Deny(ReasonUnknownPage), nil
		}
		return Deny(ReasonStoreError), fmt.Errorf("authz resolver: load page: %w", err)
	}

	var grant models.RoleGrant
	err = r.db.WithContext(ctx).
		Where("role_id = ? AND page_id = ? AND permission_type = ?", identity.RoleID, page.ID, permType).
		First(&grant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Deny(ReasonNoGrant), nil
		}
		return Deny(ReasonStoreError), fmt.Errorf("authz resolver: load grant: %w", err)
	}

	if !grant.IsGranted {
		return Deny(ReasonRevoked), nil
	}
	return Allow(ReasonGranted), nil
}

// PermissionState is one permission type on a page with its grant state.
type PermissionState struct {
	PermissionType string `json:"permission_type"`
	IsGranted      bool   `json:"is_granted"`
}

// PageGrants pairs a page with the grant state of each supported permission
// type for one role.
type PageGrants struct {
	Page        models.Page       `json:"page"`
	Permissions []PermissionState `json:"permissions"`
}

// RolePagePermissions returns, for every active page, every supported
// permission type and its grant state for the role. Pages without any grant
// rows still appear with all types ungranted, so the role editor never has to
// special-case missing rows.
func (r *Resolver) RolePagePermissions(ctx context.Context, roleID string) ([]PageGrants, error) {
	ctx = ensureContext(ctx)

	roleID = strings.TrimSpace(roleID)
	if roleID == "" {
		return nil, errors.New("authz resolver: role id is required")
	}

	var pages []models.Page
	if err := r.db.WithContext(ctx).
		Preload("Permissions").
		Where("is_active = ?", true).
		Order("display_order ASC").
		Find(&pages).Error; err != nil {
		return nil, fmt.Errorf("authz resolver: list pages: %w", err)
	}

	var grants []models.RoleGrant
	if err := r.db.WithContext(ctx).
		Where("role_id = ?", roleID).
		Find(&grants).Error; err != nil {
		return nil, fmt.Errorf("authz resolver: list grants: %w", err)
	}

	granted := make(map[string]bool, len(grants))
	for _, grant := range grants {
		granted[grant.PageID+"/"+grant.PermissionType] = grant.IsGranted
	}

	out := make([]PageGrants, 0, len(pages))
	for _, page := range pages {
		states := make([]PermissionState, 0, len(page.Permissions))
		for _, perm := range page.Permissions {
			states = append(states, PermissionState{
				PermissionType: perm.PermissionType,
				IsGranted:      granted[page.ID+"/"+perm.PermissionType],
			})
		}
		page.Permissions = nil
		out = append(out, PageGrants{Page: page, Permissions: states})
	}

	return out, nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}
