package models

// Page is a navigable admin-UI unit guarded by permissions.
//
// Pages are never physically deleted; they are deactivated so historical
// grants stay referentially valid.
type Page struct {
	BaseModel

	Name         string `gorm:"not null" json:"name"`
	URL          string `gorm:"uniqueIndex;not null" json:"url"`
	Icon         string `json:"icon"`
	DisplayOrder int    `gorm:"default:0;index" json:"display_order"`
	Description  string `json:"description"`
	IsActive     bool   `gorm:"default:true;index" json:"is_active"`

	Permissions []PagePermission `gorm:"foreignKey:PageID" json:"permissions,omitempty"`
}

// PagePermission is one grantable capability on a page: the smallest unit a
// role can be granted.
type PagePermission struct {
	BaseModel

	PageID         string `gorm:"type:uuid;not null;uniqueIndex:idx_page_permission,priority:1" json:"page_id"`
	PermissionType string `gorm:"type:varchar(16);not null;uniqueIndex:idx_page_permission,priority:2" json:"permission_type"`
}

// TableName overrides the default table name for GORM.
func (PagePermission) TableName() string {
	return "page_permissions"
}
