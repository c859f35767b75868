package models

// Building is a managed property containing floors and apartments.
type Building struct {
	BaseModel

	Name     string `gorm:"not null" json:"name"`
	Address  string `json:"address"`
	Floors   int    `gorm:"default:0" json:"floors"`
	IsActive bool   `gorm:"default:true;index" json:"is_active"`
}

// Villa is a standalone managed property.
type Villa struct {
	BaseModel

	Name     string `gorm:"not null" json:"name"`
	Address  string `json:"address"`
	IsActive bool   `gorm:"default:true;index" json:"is_active"`
}

// Apartment is a rentable unit inside a building.
type Apartment struct {
	BaseModel

	BuildingID string `gorm:"type:uuid;not null;index" json:"building_id"`
	Number     string `gorm:"not null" json:"number"`
	Floor      int    `gorm:"default:0" json:"floor"`
	IsActive   bool   `gorm:"default:true" json:"is_active"`
}

// Tenant is a renter. ApartmentID links the tenant to its current unit and,
// through it, to a building for ownership-scoped visibility.
type Tenant struct {
	BaseModel

	Name        string  `gorm:"not null" json:"name"`
	Email       string  `gorm:"index" json:"email"`
	Phone       string  `json:"phone"`
	ApartmentID *string `gorm:"type:uuid;index" json:"apartment_id"`
	IsActive    bool    `gorm:"default:true;index" json:"is_active"`
}
