package models

// Assignment edges link owner users to the entities they manage. The
// authorization core reads these as facts; they are written by the
// entity-assignment endpoints, never by the resolvers.

// OwnerBuilding assigns a building to an owner user.
type OwnerBuilding struct {
	BaseModel

	UserID     string `gorm:"type:uuid;not null;uniqueIndex:idx_owner_building,priority:1" json:"user_id"`
	BuildingID string `gorm:"type:uuid;not null;uniqueIndex:idx_owner_building,priority:2" json:"building_id"`
}

// TableName overrides the default table name for GORM.
func (OwnerBuilding) TableName() string {
	return "owner_buildings"
}

// OwnerVilla assigns a villa to an owner user.
type OwnerVilla struct {
	BaseModel

	UserID  string `gorm:"type:uuid;not null;uniqueIndex:idx_owner_villa,priority:1" json:"user_id"`
	VillaID string `gorm:"type:uuid;not null;uniqueIndex:idx_owner_villa,priority:2" json:"villa_id"`
}

// TableName overrides the default table name for GORM.
func (OwnerVilla) TableName() string {
	return "owner_villas"
}

// TenantOwner links a tenant directly to an owner, independent of which
// building the tenant currently lives in.
type TenantOwner struct {
	BaseModel

	UserID   string `gorm:"type:uuid;not null;uniqueIndex:idx_tenant_owner,priority:1" json:"user_id"`
	TenantID string `gorm:"type:uuid;not null;uniqueIndex:idx_tenant_owner,priority:2" json:"tenant_id"`
}

// TableName overrides the default table name for GORM.
func (TenantOwner) TableName() string {
	return "tenant_owners"
}
