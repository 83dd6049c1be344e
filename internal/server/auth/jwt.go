// Package auth mints and verifies the HS256 access tokens handed out at
// sign-in.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/simpleshare/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

const issuer = "simpleshare"

// Claims carries the signed-in user's id next to the registered claims.
type Claims struct {
	jwt.RegisteredClaims
	UID string `json:"uid"`
}

func GenerateToken(uid string, secretKey []byte, validity time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		UID: uid,
	})

	return token.SignedString(secretKey)
}

// GetUIDFromToken validates tokenString and returns its uid. Expired tokens
// yield common.ErrTokenExpired, anything else unusable yields
// common.ErrInvalidToken.
func GetUIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid || claims.UID == "" {
		return "", common.ErrInvalidToken
	}

	return claims.UID, nil
}
