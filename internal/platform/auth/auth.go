// Package auth issues and validates the portal's bearer tokens. A token
// carries a principal: the identity kind (patient or doctor), the email used
// as the cross-entity join key, and a display name.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Principal kinds.
const (
	KindPatient = "patient"
	KindDoctor  = "doctor"
)

// Principal is the authenticated identity attached to a request.
type Principal struct {
	Kind  string
	Email string
	Name  string
}

// Claims is the JWT claim set for portal tokens.
type Claims struct {
	jwt.RegisteredClaims
	Kind  string `json:"kind"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type contextKey string

const principalKey contextKey = "principal"

// WithPrincipal stores the principal on the context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext retrieves the authenticated principal. The second
// return value is false for unauthenticated requests.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// TokenIssuer signs portal tokens with an HMAC secret.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer creates an issuer. ttl bounds token validity.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token for the given principal.
func (i *TokenIssuer) Issue(p Principal) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		Kind:  p.Kind,
		Email: p.Email,
		Name:  p.Name,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse validates a signed token and returns its principal.
func (i *TokenIssuer) Parse(tokenStr string) (Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return Principal{}, fmt.Errorf("invalid token")
	}
	if claims.Kind != KindPatient && claims.Kind != KindDoctor {
		return Principal{}, fmt.Errorf("unknown principal kind %q", claims.Kind)
	}
	return Principal{Kind: claims.Kind, Email: claims.Email, Name: claims.Name}, nil
}
