package models

import "time"

// Listing is an item offered for rent by its owner.
type Listing struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OwnerID     uint      `gorm:"not null;index:idx_listings_owner" json:"owner_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	PricePerDay float64   `gorm:"not null" json:"price_per_day"`
	IsActive    bool      `gorm:"not null;default:true;index:idx_listings_active" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`

	Owner *User `gorm:"foreignKey:OwnerID;constraint:OnDelete:RESTRICT" json:"-"`
}

// TableName specifies the table name for GORM
func (Listing) TableName() string {
	return "listings"
}
