package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/orgops-api/internal/models"
	appErrors "github.com/noah-isme/orgops-api/pkg/errors"
)

// RequireRoles only lets through requests whose token carries one of roles. It must
// run after JWT.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		claims := Claims(c)
		switch {
		case claims == nil:
			abort(c, appErrors.ErrUnauthorized)
		case !allowed[claims.Role]:
			abort(c, appErrors.ErrForbidden)
		default:
			c.Next()
		}
	}
}
