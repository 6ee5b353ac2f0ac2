// Package auth provides [ninelives.AuthProvider] implementations for the
// command router: a JWT bearer-token provider and a label-based
// authorizer, grounded on the ordered-chain/claims-to-attributes shape
// the rest of the retrieval pack uses for its own auth seams.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/flyingrobots/ninelives"
)

// ErrUnsupportedPayload is returned when the auth payload is not a JWT
// provider's bearer-token shape (e.g. a mTLS payload routed to a JWT
// provider in an all-must-pass chain).
var ErrUnsupportedPayload = errors.New("ninelives/auth: unsupported auth payload")

// JWTProvider authenticates a bearer token carried as the envelope's auth
// payload — a string or []byte holding the raw JWT — against Keyfunc,
// per the canonical wire envelope's "bearer-token" auth variant (§6).
type JWTProvider struct {
	Keyfunc jwt.Keyfunc
	// PrincipalClaim names the claim used as Identity.Principal; "sub" if
	// empty.
	PrincipalClaim string
}

// NewJWTProvider returns a JWTProvider validating tokens with keyfunc.
func NewJWTProvider(keyfunc jwt.Keyfunc) *JWTProvider {
	return &JWTProvider{Keyfunc: keyfunc, PrincipalClaim: "sub"}
}

// Authenticate parses and validates the bearer token in auth, returning
// an [ninelives.Identity] whose Principal is the configured claim and
// whose Attributes mirror every other string-valued claim.
func (p *JWTProvider) Authenticate(_ context.Context, auth any) (ninelives.Identity, error) {
	token, ok := tokenString(auth)
	if !ok {
		return ninelives.Identity{}, ErrUnsupportedPayload
	}

	claims := jwt.MapClaims{}

	parsed, err := jwt.ParseWithClaims(token, claims, p.Keyfunc)
	if err != nil {
		return ninelives.Identity{}, fmt.Errorf("ninelives/auth: parse jwt: %w", err)
	}

	if !parsed.Valid {
		return ninelives.Identity{}, errors.New("ninelives/auth: jwt failed validation")
	}

	principalClaim := p.PrincipalClaim
	if principalClaim == "" {
		principalClaim = "sub"
	}

	principal, _ := claims[principalClaim].(string)

	attrs := make(map[string]string, len(claims))
	for k, v := range claims {
		if k == principalClaim {
			continue
		}
		if s, ok := v.(string); ok {
			attrs[k] = s
		}
	}

	return ninelives.Identity{Principal: principal, Attributes: attrs}, nil
}

func tokenString(auth any) (string, bool) {
	switch v := auth.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	default:
		return "", false
	}
}
