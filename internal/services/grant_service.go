package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/estatedesk/estatedesk/internal/models"
	apperrors "github.com/estatedesk/estatedesk/pkg/errors"
	"github.com/estatedesk/estatedesk/pkg/metrics"
)

var (
	// ErrRoleNotFound indicates the requested role does not exist.
	ErrRoleNotFound = apperrors.New("ROLE_NOT_FOUND", "Role not found", http.StatusNotFound)
	// ErrSuperuserRoleImmutable prevents grant edits on superuser roles,
	// whose bypass cannot be overridden by matrix rows.
	ErrSuperuserRoleImmutable = apperrors.New("ROLE_IMMUTABLE", "Superuser roles bypass the grant matrix", http.StatusBadRequest)
)

// GrantService is the only mutation surface of the grant matrix. Replaces are
// transactional: delete the affected scope, insert the new rows, commit. A
// failed insert rolls the delete back, so a role is never left with a
// partially applied grant set.
type GrantService struct {
	db           *gorm.DB
	auditService *AuditService
}

// NewGrantService constructs a GrantService using the provided database handle.
func NewGrantService(db *gorm.DB, audit *AuditService) (*GrantService, error) {
	if db == nil {
		return nil, errors.New("grant service: db is required")
	}
	return &GrantService{db: db, auditService: audit}, nil
}

// RoleGrantView is one row of the role editor matrix: every supported
// permission of every active page, with absent grant rows reported as
// ungranted.
type RoleGrantView struct {
	PageID         string `json:"page_id"`
	PageName       string `json:"page_name"`
	PageURL        string `json:"page_url"`
	PermissionType string `json:"permission_type"`
	IsGranted      bool   `json:"is_granted"`
}

// GrantState is the single-page replace payload entry. Explicit false rows
// are persisted so the role editor can round-trip its checkboxes.
type GrantState struct {
	PermissionType string `json:"permission_type"`
	IsGranted      bool   `json:"is_granted"`
}

// PagePermissionRef is the bulk replace payload entry. Only granted pairs are
// listed; absence means denied.
type PagePermissionRef struct {
	PageID         string `json:"page_id"`
	PermissionType string `json:"permission_type"`
}

// GetGrantsForRole returns the full catalog joined against the role's grant
// rows. Every (active page, supported permission) pair appears exactly once;
// pairs without a stored row default to denied.
func (s *GrantService) GetGrantsForRole(ctx context.Context, roleID string) ([]RoleGrantView, error) {
	ctx = ensureContext(ctx)

	if _, err := s.loadRole(ctx, roleID); err != nil {
		return nil, err
	}

	var pages []models.Page
	if err := s.db.WithContext(ctx).
		Preload("Permissions").
		Where("is_active = ?", true).
		Order("display_order ASC").
		Find(&pages).Error; err != nil {
		return nil, fmt.Errorf("grant service: list pages: %w", err)
	}

	var grants []models.RoleGrant
	if err := s.db.WithContext(ctx).
		Where("role_id = ?", roleID).
		Find(&grants).Error; err != nil {
		return nil, fmt.Errorf("grant service: list grants: %w", err)
	}

	granted := make(map[string]bool, len(grants))
	for _, grant := range grants {
		granted[grant.PageID+"/"+grant.PermissionType] = grant.IsGranted
	}

	var out []RoleGrantView
	for _, page := range pages {
		for _, perm := range page.Permissions {
			out = append(out, RoleGrantView{
				PageID:         page.ID,
				PageName:       page.Name,
				PageURL:        page.URL,
				PermissionType: perm.PermissionType,
				IsGranted:      granted[page.ID+"/"+perm.PermissionType],
			})
		}
	}

	return out, nil
}

// ReplaceGrantsForPage atomically replaces one role's grants on one page.
// All supplied states are persisted, including explicit false rows.
func (s *GrantService) ReplaceGrantsForPage(ctx context.Context, roleID, pageID string, states []GrantState) error {
	ctx = ensureContext(ctx)

	role, err := s.loadRole(ctx, roleID)
	if err != nil {
		return err
	}
	if role.IsSuperuser {
		return ErrSuperuserRoleImmutable
	}

	page, supported, err := s.loadPagePermissions(ctx, pageID)
	if err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(states))
	for _, state := range states {
		permType := strings.TrimSpace(state.PermissionType)
		if permType == "" {
			return apperrors.NewBadRequest("permission_type is required")
		}
		if _, ok := supported[permType]; !ok {
			return apperrors.NewBadRequest(fmt.Sprintf("page %s does not support permission %q", page.URL, permType))
		}
		if _, dup := seen[permType]; dup {
			return apperrors.NewBadRequest(fmt.Sprintf("duplicate permission %q", permType))
		}
		seen[permType] = struct{}{}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ? AND page_id = ?", role.ID, page.ID).Delete(&models.RoleGrant{}).Error; err != nil {
			return fmt.Errorf("grant service: clear page grants: %w", err)
		}

		for _, state := range states {
			grant := models.RoleGrant{
				RoleID:         role.ID,
				PageID:         page.ID,
				PermissionType: strings.TrimSpace(state.PermissionType),
				IsGranted:      state.IsGranted,
			}
			if err := tx.Create(&grant).Error; err != nil {
				return fmt.Errorf("grant service: insert grant: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		metrics.GrantReplacements.WithLabelValues("page", "error").Inc()
		return err
	}
	metrics.GrantReplacements.WithLabelValues("page", "success").Inc()

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "grants.replace_page",
		Resource: role.ID,
		Result:   "success",
		Metadata: map[string]any{
			"page_id": page.ID,
			"url":     page.URL,
			"count":   len(states),
		},
	})

	return nil
}

// ReplaceAllGrantsForRole atomically replaces a role's entire grant set. The
// payload is validated before the transaction opens; only granted rows are
// inserted, since absence already means denied.
func (s *GrantService) ReplaceAllGrantsForRole(ctx context.Context, roleID string, refs []PagePermissionRef) error {
	ctx = ensureContext(ctx)

	role, err := s.loadRole(ctx, roleID)
	if err != nil {
		return err
	}
	if role.IsSuperuser {
		return ErrSuperuserRoleImmutable
	}

	// Validate the whole payload before touching the matrix.
	seen := make(map[string]struct{}, len(refs))
	pageCache := make(map[string]map[string]struct{})
	for _, ref := range refs {
		pageID := strings.TrimSpace(ref.PageID)
		permType := strings.TrimSpace(ref.PermissionType)
		if pageID == "" || permType == "" {
			return apperrors.NewBadRequest("page_id and permission_type are required")
		}

		supported, ok := pageCache[pageID]
		if !ok {
			var page *models.Page
			page, supported, err = s.loadPagePermissions(ctx, pageID)
			if err != nil {
				return err
			}
			pageCache[page.ID] = supported
		}
		if _, ok := supported[permType]; !ok {
			return apperrors.NewBadRequest(fmt.Sprintf("page %s does not support permission %q", pageID, permType))
		}

		key := pageID + "/" + permType
		if _, dup := seen[key]; dup {
			return apperrors.NewBadRequest(fmt.Sprintf("duplicate grant %s", key))
		}
		seen[key] = struct{}{}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", role.ID).Delete(&models.RoleGrant{}).Error; err != nil {
			return fmt.Errorf("grant service: clear role grants: %w", err)
		}

		for _, ref := range refs {
			grant := models.RoleGrant{
				RoleID:         role.ID,
				PageID:         strings.TrimSpace(ref.PageID),
				PermissionType: strings.TrimSpace(ref.PermissionType),
				IsGranted:      true,
			}
			if err := tx.Create(&grant).Error; err != nil {
				return fmt.Errorf("grant service: insert grant: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		metrics.GrantReplacements.WithLabelValues("role", "error").Inc()
		return err
	}
	metrics.GrantReplacements.WithLabelValues("role", "success").Inc()

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "grants.replace_role",
		Resource: role.ID,
		Result:   "success",
		Metadata: map[string]any{"count": len(refs)},
	})

	return nil
}

// ListRoles returns every role with its grant rows preloaded.
func (s *GrantService) ListRoles(ctx context.Context) ([]models.Role, error) {
	ctx = ensureContext(ctx)

	var roles []models.Role
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("grant service: list roles: %w", err)
	}
	return roles, nil
}

func (s *GrantService) loadRole(ctx context.Context, roleID string) (*models.Role, error) {
	roleID = strings.TrimSpace(roleID)
	if roleID == "" {
		return nil, apperrors.NewBadRequest("role id is required")
	}

	var role models.Role
	if err := s.db.WithContext(ctx).First(&role, "id = ?", roleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("grant service: load role: %w", err)
	}
	return &role, nil
}

func (s *GrantService) loadPagePermissions(ctx context.Context, pageID string) (*models.Page, map[string]struct{}, error) {
	var page models.Page
	err := s.db.WithContext(ctx).
		Preload("Permissions").
		Where("id = ? AND is_active = ?", strings.TrimSpace(pageID), true).
		First(&page).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrPageNotFound
		}
		return nil, nil, fmt.Errorf("grant service: load page: %w", err)
	}

	supported := make(map[string]struct{}, len(page.Permissions))
	for _, perm := range page.Permissions {
		supported[perm.PermissionType] = struct{}{}
	}
	return &page, supported, nil
}
