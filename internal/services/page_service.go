package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/estatedesk/estatedesk/internal/authz"
	"github.com/estatedesk/estatedesk/internal/models"
	apperrors "github.com/estatedesk/estatedesk/pkg/errors"
)

var (
	// ErrPageNotFound indicates the requested page does not exist or is deactivated.
	ErrPageNotFound = apperrors.New("PAGE_NOT_FOUND", "Page not found", http.StatusNotFound)
	// ErrPageURLTaken indicates the page URL is already registered.
	ErrPageURLTaken = apperrors.New("PAGE_URL_TAKEN", "Page URL already exists", http.StatusBadRequest)
)

// PageService manages the permission catalog: pages and the permission types
// each page supports.
type PageService struct {
	db           *gorm.DB
	auditService *AuditService
}

// NewPageService constructs a PageService using the provided database handle.
func NewPageService(db *gorm.DB, audit *AuditService) (*PageService, error) {
	if db == nil {
		return nil, errors.New("page service: db is required")
	}
	return &PageService{db: db, auditService: audit}, nil
}

// PageInput describes the payload accepted by CreatePage and UpdatePage.
type PageInput struct {
	Name         string
	URL          string
	Icon         string
	DisplayOrder int
	Description  string
	Permissions  []string
}

// ListActivePages returns active pages ordered by display order.
func (s *PageService) ListActivePages(ctx context.Context) ([]models.Page, error) {
	ctx = ensureContext(ctx)

	var pages []models.Page
	if err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("display_order ASC").
		Find(&pages).Error; err != nil {
		return nil, fmt.Errorf("page service: list pages: %w", err)
	}
	return pages, nil
}

// ListPagesWithPermissions returns active pages with their supported
// permission types preloaded. Preloading keeps one entry per page regardless
// of how many permission types it supports.
func (s *PageService) ListPagesWithPermissions(ctx context.Context) ([]models.Page, error) {
	ctx = ensureContext(ctx)

	var pages []models.Page
	if err := s.db.WithContext(ctx).
		Preload("Permissions").
		Where("is_active = ?", true).
		Order("display_order ASC").
		Find(&pages).Error; err != nil {
		return nil, fmt.Errorf("page service: list pages with permissions: %w", err)
	}
	return pages, nil
}

// GetPage loads one active page by id.
func (s *PageService) GetPage(ctx context.Context, pageID string) (*models.Page, error) {
	ctx = ensureContext(ctx)

	var page models.Page
	err := s.db.WithContext(ctx).
		Preload("Permissions").
		Where("id = ? AND is_active = ?", strings.TrimSpace(pageID), true).
		First(&page).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, fmt.Errorf("page service: load page: %w", err)
	}
	return &page, nil
}

// CreatePage registers a new catalog page together with its supported
// permission types.
func (s *PageService) CreatePage(ctx context.Context, input PageInput) (*models.Page, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	url := strings.TrimSpace(input.URL)
	if name == "" || url == "" {
		return nil, apperrors.NewBadRequest("page name and url are required")
	}
	permTypes, err := normalisePermissionTypes(input.Permissions)
	if err != nil {
		return nil, err
	}

	page := &models.Page{
		Name:         name,
		URL:          url,
		Icon:         strings.TrimSpace(input.Icon),
		DisplayOrder: input.DisplayOrder,
		Description:  strings.TrimSpace(input.Description),
		IsActive:     true,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(page).Error; err != nil {
			if isUniqueConstraintError(err) {
				return ErrPageURLTaken
			}
			return fmt.Errorf("page service: create page: %w", err)
		}

		for _, permType := range permTypes {
			perm := models.PagePermission{PageID: page.ID, PermissionType: permType}
			if err := tx.Create(&perm).Error; err != nil {
				return fmt.Errorf("page service: create page permission: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "page.create",
		Resource: page.ID,
		Result:   "success",
		Metadata: map[string]any{
			"name":        page.Name,
			"url":         page.URL,
			"permissions": permTypes,
		},
	})

	return page, nil
}

// UpdatePage modifies page metadata and, when permissions are supplied,
// replaces the page's supported permission types.
func (s *PageService) UpdatePage(ctx context.Context, pageID string, input PageInput) (*models.Page, error) {
	ctx = ensureContext(ctx)

	var page models.Page
	if err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", pageID, true).First(&page).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, fmt.Errorf("page service: load page: %w", err)
	}

	updates := map[string]any{}
	if name := strings.TrimSpace(input.Name); name != "" && name != page.Name {
		updates["name"] = name
	}
	if url := strings.TrimSpace(input.URL); url != "" && url != page.URL {
		updates["url"] = url
	}
	if icon := strings.TrimSpace(input.Icon); icon != page.Icon {
		updates["icon"] = icon
	}
	if input.DisplayOrder != 0 && input.DisplayOrder != page.DisplayOrder {
		updates["display_order"] = input.DisplayOrder
	}
	if desc := strings.TrimSpace(input.Description); desc != page.Description {
		updates["description"] = desc
	}

	var permTypes []string
	if input.Permissions != nil {
		var err error
		permTypes, err = normalisePermissionTypes(input.Permissions)
		if err != nil {
			return nil, err
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&page).Updates(updates).Error; err != nil {
				if isUniqueConstraintError(err) {
					return ErrPageURLTaken
				}
				return fmt.Errorf("page service: update page: %w", err)
			}
		}

		if input.Permissions != nil {
			if err := tx.Where("page_id = ?", page.ID).Delete(&models.PagePermission{}).Error; err != nil {
				return fmt.Errorf("page service: clear page permissions: %w", err)
			}
			for _, permType := range permTypes {
				perm := models.PagePermission{PageID: page.ID, PermissionType: permType}
				if err := tx.Create(&perm).Error; err != nil {
					return fmt.Errorf("page service: create page permission: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Preload("Permissions").First(&page, "id = ?", page.ID).Error; err != nil {
		return nil, fmt.Errorf("page service: reload page: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "page.update",
		Resource: page.ID,
		Result:   "success",
		Metadata: updates,
	})

	return &page, nil
}

// DeactivatePage soft-deletes a page. Existing grants stay in place so they
// remain referentially valid if the page is reactivated.
func (s *PageService) DeactivatePage(ctx context.Context, pageID string) error {
	ctx = ensureContext(ctx)

	var page models.Page
	if err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", pageID, true).First(&page).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPageNotFound
		}
		return fmt.Errorf("page service: load page: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&page).Update("is_active", false).Error; err != nil {
		return fmt.Errorf("page service: deactivate page: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "page.deactivate",
		Resource: page.ID,
		Result:   "success",
		Metadata: map[string]any{"url": page.URL},
	})

	return nil
}

func normalisePermissionTypes(values []string) ([]string, error) {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if !authz.ValidPermissionType(value) {
			return nil, apperrors.NewBadRequest(fmt.Sprintf("unknown permission type %q", value))
		}
		if _, exists := seen[value]; exists {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}

	if len(out) == 0 {
		out = []string{authz.PermView}
	}
	return out, nil
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
