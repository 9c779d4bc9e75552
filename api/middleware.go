package api

import (
	"net/http"
	"strings"

	"github.com/Ravi1548/Transport-Facility/internal/auth"
	"github.com/gin-gonic/gin"
)

const employeeIDKey = "employee_id"

// AuthRequired resolves the current employee from the bearer token.
// Requests without a valid token have no caller identity, so none of
// the ownership or conflict checks may run for them.
func AuthRequired(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		claims, err := tokens.Parse(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Set(employeeIDKey, claims.EmployeeID)
		c.Next()
	}
}

func currentEmployeeID(c *gin.Context) string {
	return c.GetString(employeeIDKey)
}
