package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tireshop-service/internal/models"
)

// AdminAuth guards the admin API with a static bearer token. An empty
// configured token locks the admin surface entirely rather than leaving it
// open.
func AdminAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.JSON(http.StatusForbidden, models.NewErrorResponse("ADMIN_DISABLED", "Admin API is not configured"))
			c.Abort()
			return
		}

		header := c.GetHeader("Authorization")
		presented := strings.TrimPrefix(header, "Bearer ")
		if presented == header || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			c.JSON(http.StatusUnauthorized, models.NewErrorResponse("UNAUTHORIZED", "Invalid admin token"))
			c.Abort()
			return
		}

		c.Next()
	}
}
