package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	Name   string   `json:"name"`
	jwt.RegisteredClaims
}

// Viewer converts the claims into the caller's viewer variant.
func (c *JWTClaims) Viewer() (Viewer, error) {
	return NewViewer(c.UserID, c.Role)
}
