package services

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// VerifyTriggerToken checks the bearer token presented to the manual sync
// endpoint: HMAC-signed with the shared secret and unexpired. Returns the
// token's subject for the audit log.
func VerifyTriggerToken(tokenString, secret string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})

	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}

	subject, ok := claims["sub"].(string)
	if !ok {
		return "", ErrInvalidToken
	}
	return subject, nil
}
