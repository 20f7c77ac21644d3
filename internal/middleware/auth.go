package middleware

import (
	"errors"
	"net/http"

	"github.com/KidOfCoding/TripManagement/internal/auth"
	"github.com/KidOfCoding/TripManagement/internal/models"
	"github.com/gin-gonic/gin"
)

const (
	// ClaimsKey is the gin context key holding the caller's *models.Claims.
	ClaimsKey = "claims"
	// RequestIDKey is the gin context key holding the request id.
	RequestIDKey = "request_id"
)

// TokenValidator verifies a bearer token.
type TokenValidator interface {
	ExtractTokenFromHeader(authHeader string) (string, error)
	ValidateToken(tokenString string) (*models.Claims, error)
}

// AuthMiddleware provides JWT authentication middleware
type AuthMiddleware struct {
	tokens TokenValidator
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(tokens TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Authenticate rejects requests without a valid bearer token and stores the
// claims on the context. Nothing downstream runs for a rejected request.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := m.tokens.ExtractTokenFromHeader(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Authorization header required"})
			return
		}

		claims, err := m.tokens.ValidateToken(token)
		if err != nil {
			message := "Invalid token"
			if errors.Is(err, auth.ErrExpiredToken) {
				message = "Token expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": message})
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// GetClaims returns the claims stored by Authenticate.
func GetClaims(c *gin.Context) (*models.Claims, bool) {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*models.Claims)
	return claims, ok && claims != nil
}

// AccountID returns the caller's account id, or "" when unauthenticated.
func AccountID(c *gin.Context) string {
	if claims, ok := GetClaims(c); ok {
		return claims.AccountID
	}
	return ""
}
