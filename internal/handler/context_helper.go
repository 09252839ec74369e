package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/medfac-dev/timetable-api/internal/middleware"
	"github.com/medfac-dev/timetable-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// canActFor reports whether the caller may act on behalf of doctorID.
// Admins act on anyone, doctors only on themselves.
func canActFor(c *gin.Context, doctorID string) bool {
	claims := claimsFromContext(c)
	if claims == nil {
		return false
	}
	if claims.Role == models.RoleAdmin {
		return true
	}
	return doctorID != "" && (doctorID == claims.DoctorID || doctorID == claims.UserID)
}
