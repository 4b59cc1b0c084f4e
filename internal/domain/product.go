package domain

import "time"

// Product Model
type Product struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	SellerID    uint           `gorm:"index;not null" json:"sellerId"` // User ID of the seller
	Name        string         `gorm:"size:255;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Price       float64        `gorm:"not null" json:"price"`
	Category    string         `gorm:"size:128;index" json:"category"`
	Story       string         `gorm:"type:text" json:"story"` // The artisan's story behind the piece
	Stock       int            `gorm:"not null;default:0" json:"stock"`
	Images      []ProductImage `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"images,omitempty"`
	Photo       *string        `gorm:"-" json:"photo"` // First image URL, filled for listings
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// FirstImageURL returns the URL of the earliest image, or nil
func (p *Product) FirstImageURL() *string {
	if len(p.Images) == 0 {
		return nil
	}
	first := p.Images[0]
	for _, img := range p.Images[1:] {
		if img.ID < first.ID {
			first = img
		}
	}
	return &first.URL
}
