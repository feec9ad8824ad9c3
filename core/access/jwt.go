// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package access

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/relabs-tech/bistroboss/core"
)

// DefaultTokenLifetime is the lifetime of issued bearer tokens. There is no refresh,
// clients request a new token when the old one expired.
const DefaultTokenLifetime = time.Hour

// TokenService issues and verifies HMAC signed bearer tokens. A token carries
// exactly one identity claim, the caller's email.
type TokenService struct {
	secret   []byte
	lifetime time.Duration
}

type tokenClaims struct {
	EMail string `json:"email"`
	jwt.RegisteredClaims
}

// NewTokenService returns a token service signing with the given secret
func NewTokenService(secret string) *TokenService {
	if secret == "" {
		panic("token secret is missing")
	}
	return &TokenService{
		secret:   []byte(secret),
		lifetime: DefaultTokenLifetime,
	}
}

// WithLifetime returns a copy of the service which issues tokens with the given lifetime
func (s *TokenService) WithLifetime(lifetime time.Duration) *TokenService {
	c := *s
	c.lifetime = lifetime
	return &c
}

// Issue returns a signed token for identity
func (s *TokenService) Issue(identity string) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		EMail: identity,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetime)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("cannot sign token: %w", err)
	}
	return signed, nil
}

// Verify validates signature and expiry of tokenString and returns the identity
// it was issued for. All failures wrap core.ErrTokenInvalid.
func (s *TokenService) Verify(tokenString string) (string, error) {
	claims := tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrTokenInvalid, err)
	}
	if !token.Valid || claims.EMail == "" {
		return "", core.ErrTokenInvalid
	}
	return claims.EMail, nil
}

// BearerToken extracts the token from an Authorization header of the form
// "Bearer <token>". Anything else yields core.ErrTokenMissing.
func BearerToken(header string) (string, error) {
	if len(header) < 8 || strings.ToLower(header[:7]) != "bearer " {
		return "", core.ErrTokenMissing
	}
	tokenString := strings.TrimSpace(header[7:])
	if tokenString == "" || tokenString == "null" || tokenString == "undefined" {
		return "", core.ErrTokenMissing
	}
	return tokenString, nil
}
