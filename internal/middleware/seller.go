package middleware

import (
	"artisanhub/internal/domain" // Importing domain models
	"net/http"                   // HTTP status codes

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// CtxUser holds the *domain.User loaded by SellerOnlyMiddleware
const CtxUser = "currentUser"

// SellerOnlyMiddleware checks the user's role from the database on each request
func SellerOnlyMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := CurrentUserID(c) // Get userID from context
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		var user domain.User // Fetch user from database, the token role may be stale
		if err := db.Preload("Seller").First(&user, userID).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "User not found"})
			return
		}
		if !user.IsSeller() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Seller access required"})
			return
		}
		c.Set(CtxUser, &user) // Handlers reuse the loaded user
		c.Next()
	}
}
