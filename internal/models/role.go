package models

// Role is an identity class assigned to users.
//
// IsSuperuser marks roles that bypass the grant matrix entirely. The flag is
// resolved once when the identity is loaded; handlers never compare role
// identifiers against literals.
type Role struct {
	BaseModel

	Name           string `gorm:"uniqueIndex;not null" json:"name"`
	Description    string `json:"description"`
	IsSystem       bool   `gorm:"default:false" json:"is_system"`
	IsSuperuser    bool   `gorm:"default:false" json:"is_superuser"`
	ScopeOwnership bool   `gorm:"default:false" json:"scope_ownership"`

	Grants []RoleGrant `gorm:"foreignKey:RoleID" json:"grants,omitempty"`
	Users  []User      `gorm:"foreignKey:RoleID" json:"users,omitempty"`
}

// RoleGrant persists one granted (or explicitly revoked) PagePermission for a
// role. Absence of a row means denied.
type RoleGrant struct {
	BaseModel

	RoleID         string `gorm:"type:uuid;not null;uniqueIndex:idx_role_page_perm,priority:1" json:"role_id"`
	PageID         string `gorm:"type:uuid;not null;uniqueIndex:idx_role_page_perm,priority:2;index" json:"page_id"`
	PermissionType string `gorm:"type:varchar(16);not null;uniqueIndex:idx_role_page_perm,priority:3" json:"permission_type"`
	IsGranted      bool   `gorm:"default:false" json:"is_granted"`
}

// TableName overrides the default table name for GORM.
func (RoleGrant) TableName() string {
	return "role_grants"
}
