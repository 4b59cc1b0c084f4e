package domain

import "time"

// Seller Model, one per seller-role user
type Seller struct {
	ID               uint              `gorm:"primaryKey" json:"id"`
	UserID           uint              `gorm:"uniqueIndex;not null" json:"userId"` // Foreign key to User
	BusinessName     string            `gorm:"size:255;not null" json:"businessName"`
	BusinessType     string            `gorm:"size:128" json:"businessType"`
	BusinessLocation string            `gorm:"size:255;not null" json:"businessLocation"`
	SocialLinks      map[string]string `gorm:"type:text;serializer:json" json:"socialLinks"` // e.g. instagram -> URL
	Experience       string            `gorm:"size:255" json:"experience"`
	Interests        string            `gorm:"type:text" json:"interests"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}
