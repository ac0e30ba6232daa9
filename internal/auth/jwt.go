// Package auth issues and parses the HS256 JWTs that carry a user's identity.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// timeNow is a test seam for the token clock.
var timeNow = time.Now

// registeredNames are the payload members decoded into Claims fields.
var registeredNames = map[string]bool{
	"user_id": true, "email": true,
	"iss": true, "sub": true, "aud": true, "exp": true, "nbf": true, "iat": true, "jti": true,
}

// Claims is the token payload: the user's id and email plus the standard
// registered claims. ExpiresAt and IssuedAt are only set when the token was
// issued with a validity duration. Extra holds any other members of a parsed
// payload as decoded JSON values; it is never written by GenerateToken.
type Claims struct {
	UserID string         `json:"user_id"`
	Email  string         `json:"email"`
	Extra  map[string]any `json:"-"`
	jwt.RegisteredClaims
}

// GenerateToken signs a token for the user with secretKey.
// A validity of zero or less issues a token without an expiry.
func GenerateToken(userID, email string, secretKey []byte, validity time.Duration) (string, error) {
	if len(secretKey) == 0 {
		return "", common.ErrInvalidKey
	}

	claims := Claims{UserID: userID, Email: email}
	if validity > 0 {
		now := timeNow()
		claims.IssuedAt = jwt.NewNumericDate(now)
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(validity))
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies the signature of tokenString and returns its claims.
// Every failure wraps common.ErrInvalidToken; expired tokens additionally
// match common.ErrTokenExpired.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	if len(secretKey) == 0 {
		return nil, fmt.Errorf("%w: signing key unavailable", common.ErrInvalidToken)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(timeNow),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", common.ErrInvalidToken, common.ErrTokenExpired)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	claims.Extra = extraClaims(token)
	return claims, nil
}

// extraClaims returns the payload members of a verified token that have no
// Claims field, or nil when there are none.
func extraClaims(token *jwt.Token) map[string]any {
	all := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token.Raw, all); err != nil {
		return nil
	}

	var extra map[string]any
	for name, v := range all {
		if registeredNames[name] {
			continue
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[name] = v
	}
	return extra
}
