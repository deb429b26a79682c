package util

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var errInvalidToken = errors.New("invalid token")

type adminClaims struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}

// GenerateToken issues a signed admin session token.
func GenerateToken(userID uint, secret string, expireHours int) (string, error) {
	claims := adminClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(expireHours) * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken parses and verifies a token, returning the admin user ID.
func ValidateToken(tokenString, secret string) (uint, error) {
	claims := &adminClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return 0, errInvalidToken
	}
	return claims.UserID, nil
}
