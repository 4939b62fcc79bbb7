package handler

import (
	"github.com/noah-isme/orgops-api/internal/models"
)

// actorName picks the most readable identity for logs and notifications.
func actorName(claims *models.JWTClaims) string {
	switch {
	case claims == nil:
		return ""
	case claims.FullName != "":
		return claims.FullName
	case claims.Email != "":
		return claims.Email
	default:
		return claims.UserID
	}
}
