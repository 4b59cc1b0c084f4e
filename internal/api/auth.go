package api

import (
	"errors"   // Error matching
	"net/http" // HTTP status codes
	"regexp"   // Regular expressions
	"strings"  // String manipulation
	"time"     // Token lifetime

	"artisanhub/internal/domain"     // Importing domain models
	"artisanhub/internal/middleware" // Context helpers
	"artisanhub/internal/notify"     // Event names
	"artisanhub/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"golang.org/x/crypto/bcrypt" // Password hashing
	"gorm.io/gorm"               // GORM ORM library
)

const minPasswordLen = 6

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// RegisterRequest is the registration body for customers and sellers
type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Name      string `json:"name"` // Used when first/last are absent
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
	Role      string `json:"role"`   // customer or seller
	Seller    string `json:"seller"` // Legacy flag, "seller" selects the seller role

	BusinessName     string            `json:"businessName"`
	BusinessType     string            `json:"businessType"`
	Location         string            `json:"location"`
	BusinessLocation string            `json:"businessLocation"` // Alias of location
	Experience       string            `json:"experience"`
	Interests        string            `json:"interests"`
	SocialLinks      map[string]string `json:"socialLinks"`
}

// LoginRequest accepts either an email address or a phone number
type LoginRequest struct {
	EmailOrPhone string `json:"emailOrPhone" binding:"required"`
	Password     string `json:"password" binding:"required"`
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	Token string              `json:"token"`
	User  domain.UserResponse `json:"user"`
}

func (r *RegisterRequest) fullName() string {
	if name := strings.TrimSpace(strings.TrimSpace(r.FirstName) + " " + strings.TrimSpace(r.LastName)); name != "" {
		return name
	}
	return strings.TrimSpace(r.Name)
}

func (r *RegisterRequest) role() string {
	role := strings.ToLower(strings.TrimSpace(r.Role))
	if role == "" {
		if strings.EqualFold(r.Seller, domain.RoleSeller) {
			return domain.RoleSeller
		}
		return domain.RoleCustomer
	}
	return role
}

func (r *RegisterRequest) location() string {
	if loc := strings.TrimSpace(r.Location); loc != "" {
		return loc
	}
	return strings.TrimSpace(r.BusinessLocation)
}

// validate normalizes the request and returns the first problem found
func (r *RegisterRequest) validate() string {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Phone = strings.TrimSpace(r.Phone)
	switch {
	case r.fullName() == "":
		return "Name is required"
	case r.Email == "" && r.Phone == "":
		return "Email or phone is required"
	case r.Email != "" && !emailPattern.MatchString(r.Email):
		return "Invalid email address"
	case len(r.Password) < minPasswordLen:
		return "Password must be at least 6 characters"
	}
	role := r.role()
	if role != domain.RoleCustomer && role != domain.RoleSeller {
		return "Role must be customer or seller"
	}
	if role == domain.RoleSeller && (strings.TrimSpace(r.BusinessName) == "" || r.location() == "") {
		return "Seller business information is required"
	}
	return ""
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func issueToken(user *domain.User, secret string, ttl time.Duration) (string, error) {
	email := ""
	if user.Email != nil {
		email = *user.Email
	}
	return utils.GenerateJWT(user.ID, user.Role, email, secret, ttl)
}

// RegisterHandler creates a user, plus a seller profile for sellers, and logs them in
func RegisterHandler(db *gorm.DB, events Publisher, jwtSecret string, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request"})
			return
		}
		if msg := req.validate(); msg != "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": msg})
			return
		}
		var count int64 // Friendly duplicate messages, the unique indexes still guard races
		if req.Email != "" {
			if err := db.Model(&domain.User{}).Where("email = ?", req.Email).Count(&count).Error; err == nil && count > 0 {
				c.JSON(http.StatusBadRequest, gin.H{"message": "Email already registered"})
				return
			}
		}
		if req.Phone != "" {
			if err := db.Model(&domain.User{}).Where("phone = ?", req.Phone).Count(&count).Error; err == nil && count > 0 {
				c.JSON(http.StatusBadRequest, gin.H{"message": "Phone already registered"})
				return
			}
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to hash password"})
			return
		}
		user := domain.User{
			Name:         req.fullName(),
			Email:        optional(req.Email),
			Phone:        optional(req.Phone),
			PasswordHash: string(hash),
			Role:         req.role(),
		}
		// User and seller profile are created atomically
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Omit("Seller").Create(&user).Error; err != nil {
				return err
			}
			if !user.IsSeller() {
				return nil
			}
			seller := domain.Seller{
				UserID:           user.ID,
				BusinessName:     strings.TrimSpace(req.BusinessName),
				BusinessType:     strings.TrimSpace(req.BusinessType),
				BusinessLocation: req.location(),
				SocialLinks:      req.SocialLinks,
				Experience:       req.Experience,
				Interests:        req.Interests,
			}
			if err := tx.Create(&seller).Error; err != nil {
				return err
			}
			user.Seller = &seller
			return nil
		})
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				c.JSON(http.StatusBadRequest, gin.H{"message": "Email or phone already registered"})
				return
			}
			logrus.WithFields(logrus.Fields{
				"role":  user.Role,
				"error": err.Error(),
			}).Error("Registration failed")
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Registration failed"})
			return
		}
		token, err := issueToken(&user, jwtSecret, ttl)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to generate token"})
			return
		}
		logrus.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("User registered")
		events.Publish(notify.EventUserRegistered, gin.H{"userId": user.ID, "name": user.Name, "role": user.Role})
		c.JSON(http.StatusCreated, AuthResponse{Token: token, User: user.ToResponse()})
	}
}

// LoginHandler authenticates by email or phone and returns a JWT token
func LoginHandler(db *gorm.DB, jwtSecret string, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Email/phone and password are required"})
			return
		}
		ident := strings.TrimSpace(req.EmailOrPhone)
		query := db.Preload("Seller").Where("phone = ?", ident)
		if strings.Contains(ident, "@") {
			query = db.Preload("Seller").Where("email = ?", strings.ToLower(ident))
		}
		var user domain.User
		if err := query.First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusUnauthorized, gin.H{"message": "User not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Login failed"})
			return
		}
		// Compare provided password with stored hash
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Incorrect password"})
			return
		}
		token, err := issueToken(&user, jwtSecret, ttl)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to generate token"})
			return
		}
		c.JSON(http.StatusOK, AuthResponse{Token: token, User: user.ToResponse()})
	}
}

// MeHandler returns the authenticated user
func MeHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.CurrentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		var user domain.User
		if err := db.Preload("Seller").First(&user, userID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user.ToResponse()})
	}
}
