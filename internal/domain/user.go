package domain

import "time"

// Roles a user can register with
const (
	RoleCustomer = "customer" // Buyer
	RoleSeller   = "seller"   // Artisan allowed to list products
)

// User Model
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`                                   // Primary key
	Name         string    `gorm:"size:255;not null" json:"name"`                          // Full name
	Email        *string   `gorm:"size:255;uniqueIndex" json:"email,omitempty"`            // Unique email, optional when phone is set
	Phone        *string   `gorm:"size:32;uniqueIndex" json:"phone,omitempty"`             // Unique phone, optional when email is set
	PasswordHash string    `gorm:"not null" json:"-"`                                      // Bcrypt hash
	Role         string    `gorm:"size:16;not null;default:customer" json:"role"`          // customer or seller
	Seller       *Seller   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"` // Seller profile
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsSeller reports whether the user may list products
func (u *User) IsSeller() bool {
	return u.Role == RoleSeller
}

// UserResponse is the public shape returned by auth endpoints
type UserResponse struct {
	ID               uint              `json:"id"`
	Name             string            `json:"name"`
	Email            string            `json:"email,omitempty"`
	Phone            string            `json:"phone,omitempty"`
	Role             string            `json:"role"`
	BusinessName     string            `json:"businessName,omitempty"`
	BusinessType     string            `json:"businessType,omitempty"`
	BusinessLocation string            `json:"businessLocation,omitempty"`
	SocialLinks      map[string]string `json:"socialLinks,omitempty"`
}

// ToResponse flattens the user and its seller profile, if loaded
func (u *User) ToResponse() UserResponse {
	resp := UserResponse{ID: u.ID, Name: u.Name, Role: u.Role}
	if u.Email != nil {
		resp.Email = *u.Email
	}
	if u.Phone != nil {
		resp.Phone = *u.Phone
	}
	if u.Seller != nil {
		resp.BusinessName = u.Seller.BusinessName
		resp.BusinessType = u.Seller.BusinessType
		resp.BusinessLocation = u.Seller.BusinessLocation
		resp.SocialLinks = u.Seller.SocialLinks
	}
	return resp
}
