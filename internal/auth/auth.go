package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/KidOfCoding/TripManagement/internal/config"
	"github.com/KidOfCoding/TripManagement/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("token expired")
	ErrMissingSecret = errors.New("JWT_SECRET is not set")
)

// Service verifies bearer tokens issued by the identity provider.
type Service struct {
	jwtSecret []byte
}

// NewService creates a token service. An empty secret is refused so that
// requests can never pass with unsigned tokens.
func NewService(cfg config.AuthConfig) (*Service, error) {
	if cfg.JWTSecret == "" {
		return nil, ErrMissingSecret
	}
	return &Service{jwtSecret: []byte(cfg.JWTSecret)}, nil
}

// GenerateToken signs a token for accountID, as the identity provider does.
func (s *Service) GenerateToken(accountID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": accountID,
		"exp": now.Add(ttl).Unix(),
		"iat": now.Unix(),
	}
	if email != "" {
		claims["email"] = email
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken validates a JWT token and returns the claims. The account id
// is read from "sub", falling back to "user_id".
func (s *Service) ValidateToken(tokenString string) (*models.Claims, error) {
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	accountID, _ := claims["sub"].(string)
	if accountID == "" {
		accountID, _ = claims["user_id"].(string)
	}
	if accountID == "" {
		return nil, ErrInvalidToken
	}

	email, _ := claims["email"].(string)
	var exp int64
	if v, ok := claims["exp"].(float64); ok {
		exp = int64(v)
	}

	return &models.Claims{
		AccountID: accountID,
		Email:     email,
		Exp:       exp,
	}, nil
}

// ExtractTokenFromHeader extracts token from Authorization header
func (s *Service) ExtractTokenFromHeader(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrInvalidToken
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrInvalidToken
	}

	return parts[1], nil
}
