package database

import (
	"gorm.io/gorm"

	"github.com/estatedesk/estatedesk/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.Page{},
		&models.PagePermission{},
		&models.RoleGrant{},
		&models.Building{},
		&models.Villa{},
		&models.Apartment{},
		&models.Tenant{},
		&models.OwnerBuilding{},
		&models.OwnerVilla{},
		&models.TenantOwner{},
		&models.AuditLog{},
	)
}

type seedPage struct {
	name        string
	url         string
	icon        string
	order       int
	description string
	permissions []string
}

var defaultPages = []seedPage{
	{"Dashboard", "/dashboard", "layout-dashboard", 10, "Portfolio overview", []string{"view"}},
	{"Buildings", "/buildings", "building", 20, "Buildings and floors", []string{"view", "create", "update", "delete", "assign"}},
	{"Villas", "/villas", "home", 30, "Standalone villas", []string{"view", "create", "update", "delete", "assign"}},
	{"Apartments", "/apartments", "door-open", 40, "Apartment units", []string{"view", "create", "update", "delete"}},
	{"Tenants", "/tenants", "users", 50, "Tenant records", []string{"view", "create", "update", "delete", "assign"}},
	{"Contracts", "/contracts", "file-text", 60, "Lease contracts", []string{"view", "create", "update", "delete"}},
	{"Transactions", "/transactions", "credit-card", 70, "Financial transactions", []string{"view", "create"}},
	{"Users", "/users", "user-cog", 80, "Back-office accounts", []string{"view", "create", "update", "delete"}},
	{"Permissions", "/permissions", "shield", 90, "Roles, grants, and the page catalog", []string{"view", "create", "update", "delete", "assign"}},
}

// SeedData populates the page catalog, default roles, and their grants.
// All inserts are idempotent so the seed can run on every start-up.
func SeedData(db *gorm.DB) error {
	roles := []models.Role{
		{
			BaseModel:   models.BaseModel{ID: "admin"},
			Name:        "Administrator",
			Description: "Full system access",
			IsSystem:    true,
			IsSuperuser: true,
		},
		{
			BaseModel:   models.BaseModel{ID: "manager"},
			Name:        "Manager",
			Description: "Day-to-day property management",
			IsSystem:    true,
		},
		{
			BaseModel:      models.BaseModel{ID: "owner"},
			Name:           "Owner",
			Description:    "Access restricted to assigned properties",
			IsSystem:       true,
			ScopeOwnership: true,
		},
		{
			BaseModel:   models.BaseModel{ID: "tenant"},
			Name:        "Tenant",
			Description: "Tenant self-service access",
			IsSystem:    true,
		},
	}

	for _, role := range roles {
		if err := db.Where(models.Role{BaseModel: models.BaseModel{ID: role.ID}}).Attrs(role).FirstOrCreate(&models.Role{}).Error; err != nil {
			return err
		}
	}

	pageIDs := make(map[string]string, len(defaultPages))
	for _, page := range defaultPages {
		record := models.Page{
			Name:         page.name,
			URL:          page.url,
			Icon:         page.icon,
			DisplayOrder: page.order,
			Description:  page.description,
			IsActive:     true,
		}

		var stored models.Page
		if err := db.Where(models.Page{URL: page.url}).Attrs(record).FirstOrCreate(&stored).Error; err != nil {
			return err
		}
		pageIDs[page.url] = stored.ID

		for _, permType := range page.permissions {
			perm := models.PagePermission{PageID: stored.ID, PermissionType: permType}
			if err := db.Where(models.PagePermission{PageID: stored.ID, PermissionType: permType}).
				Attrs(perm).FirstOrCreate(&models.PagePermission{}).Error; err != nil {
				return err
			}
		}
	}

	return seedDefaultGrants(db, pageIDs)
}

// seedDefaultGrants gives non-superuser system roles a usable starting
// matrix. Administrators bypass the matrix and need no rows.
func seedDefaultGrants(db *gorm.DB, pageIDs map[string]string) error {
	grants := map[string]map[string][]string{
		"manager": {
			"/dashboard":    {"view"},
			"/buildings":    {"view", "create", "update"},
			"/villas":       {"view", "create", "update"},
			"/apartments":   {"view", "create", "update"},
			"/tenants":      {"view", "create", "update"},
			"/contracts":    {"view", "create", "update"},
			"/transactions": {"view", "create"},
		},
		"owner": {
			"/dashboard": {"view"},
			"/buildings": {"view"},
			"/villas":    {"view"},
			"/tenants":   {"view"},
			"/contracts": {"view"},
		},
		"tenant": {
			"/dashboard": {"view"},
			"/contracts": {"view"},
		},
	}

	for roleID, pages := range grants {
		for url, permTypes := range pages {
			pageID, ok := pageIDs[url]
			if !ok {
				continue
			}
			for _, permType := range permTypes {
				grant := models.RoleGrant{
					RoleID:         roleID,
					PageID:         pageID,
					PermissionType: permType,
					IsGranted:      true,
				}
				if err := db.Where(models.RoleGrant{RoleID: roleID, PageID: pageID, PermissionType: permType}).
					Attrs(grant).FirstOrCreate(&models.RoleGrant{}).Error; err != nil {
					return err
				}
			}
		}
	}

	return nil
}
