package domain

import "time"

// ProductImage Model
type ProductImage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"index;not null" json:"productId"` // Foreign key to Product
	URL       string    `gorm:"size:512;not null" json:"url"`    // Public URL or /uploads path
	PublicID  string    `gorm:"size:255" json:"-"`               // Storage reference used for deletion
	CreatedAt time.Time `json:"createdAt"`
}
