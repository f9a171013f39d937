// Package auth issues and verifies the signed bearer tokens handed out at login.
// Tokens are HS256, carry the user id and role, and expire after TokenValidity.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/campus-showcase/showcase-backend/errs"
)

// TokenValidity is how long a login token stays usable.
const TokenValidity = time.Hour

// Claims carries the identity embedded in a login token.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"id"`
	Role   string `json:"role"`
}

// GenerateToken signs a token for the given user id and role.
func GenerateToken(userID, role string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		UserID: userID,
		Role:   role,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies the signature and expiry of a token and returns its claims.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errs.ErrInvalidToken
	}

	return claims, nil
}
