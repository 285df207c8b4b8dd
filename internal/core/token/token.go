// Package token signs and verifies the opaque credentials issued at login.
// Tokens are HS256 JWTs carrying the user id and role, valid for a fixed
// window from issuance. There is no refresh: expiry forces a new login.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/civicgov/birth-registry/certificate-service/internal/core/domain"
)

const TTL = time.Hour

var ErrInvalid = errors.New("invalid token")

// Identity is the resolved subject of a verified token.
type Identity struct {
	UserID string
	Role   domain.Role
}

func Sign(userID string, role domain.Role, secret []byte, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": string(role),
		"iat":  now.Unix(),
		"exp":  now.Add(TTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Verify parses a signed credential and returns the embedded identity.
// Expired, malformed or foreign-signed tokens all come back as ErrInvalid.
func Verify(tokenString string, secret []byte) (*Identity, error) {
	tok, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrInvalid
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalid
	}

	userID, ok := claims["sub"].(string)
	if !ok || userID == "" {
		return nil, ErrInvalid
	}

	roleClaim, ok := claims["role"].(string)
	if !ok || !domain.Role(roleClaim).Valid() {
		return nil, ErrInvalid
	}

	return &Identity{UserID: userID, Role: domain.Role(roleClaim)}, nil
}
