package middleware

import (
	"net/http"                  // HTTP status codes
	"spendwise/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// RequireRole gates a route on the caller's role. The role is re-read from
// the database on each request rather than trusted from the token.
func RequireRole(db *gorm.DB, role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
			return
		}
		var user domain.User // Fetch user from database
		if err := db.First(&user, userID).Error; err != nil {
			// If user not found or any error, abort with forbidden status
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "Not authorized to access this route"})
			return
		}
		// Check the user's role
		if user.Role != role {
			// If role does not match, abort with forbidden status
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "Not authorized to access this route"})
			return
		}
		c.Set("role", string(user.Role)) // Refresh role in context from the DB
		c.Next()                         // Proceed to the next handler
	}
}
