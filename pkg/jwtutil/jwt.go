package jwtutil

import (
	"time"

	"github.com/golang-jwt/jwt/v4"

	"schoolhub/pkg/config"
)

var (
	secret     = []byte("schoolhubsecretkey")
	expiration = 24 * time.Hour
)

// Initialize configures the signing key and token lifetime from configuration
func Initialize(cfg *config.JWTConfig) {
	if cfg.SigningKey != "" {
		secret = []byte(cfg.SigningKey)
	}
	if cfg.ExpirationHours > 0 {
		expiration = time.Duration(cfg.ExpirationHours) * time.Hour
	}
}

// UserClaims represents the JWT claims for an authenticated principal.
// Role and SchoolID are only present once a role context has been activated;
// a token without them authenticates the principal but grants no data access.
type UserClaims struct {
	Email      string `json:"email"`
	UserID     uint   `json:"user_id"`
	Role       string `json:"role,omitempty"`
	SchoolID   *uint  `json:"school_id,omitempty"`
	SchoolName string `json:"school_name,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken creates a JWT token carrying only the principal identity
func GenerateToken(email string, userID uint) (string, error) {
	return GenerateTokenWithRole(email, userID, "", nil, "")
}

// GenerateTokenWithRole creates a JWT token with an activated role context
func GenerateTokenWithRole(email string, userID uint, role string, schoolID *uint, schoolName string) (string, error) {
	claims := UserClaims{
		Email:      email,
		UserID:     userID,
		Role:       role,
		SchoolID:   schoolID,
		SchoolName: schoolName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken validates and parses the JWT token
func ValidateToken(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrSignatureInvalid
}
