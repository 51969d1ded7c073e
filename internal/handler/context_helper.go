package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pointku-api/internal/middleware"
	"github.com/noah-isme/pointku-api/internal/models"
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

// viewerFromContext returns nil when the request carries no usable claims; the
// services answer a nil viewer with UNAUTHORIZED.
func viewerFromContext(c *gin.Context) models.Viewer {
	claims := claimsFromContext(c)
	if claims == nil {
		return nil
	}
	viewer, err := claims.Viewer()
	if err != nil {
		return nil
	}
	return viewer
}
