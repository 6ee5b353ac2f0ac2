package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("test-secret-key")

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	s, err := token.SignedString(testSecret)
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}

	return s
}

func keyfunc(*jwt.Token) (any, error) { return testSecret, nil }

func TestJWTProviderAuthenticatesValidToken(t *testing.T) {
	p := NewJWTProvider(keyfunc)

	token := signToken(t, jwt.MapClaims{
		"sub":  "alice",
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	id, err := p.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if id.Principal != "alice" {
		t.Fatalf("Principal = %q, want alice", id.Principal)
	}
	if id.Attributes["role"] != "admin" {
		t.Fatalf("Attributes[role] = %q, want admin", id.Attributes["role"])
	}
}

func TestJWTProviderAcceptsByteSlicePayload(t *testing.T) {
	p := NewJWTProvider(keyfunc)

	token := signToken(t, jwt.MapClaims{"sub": "bob"})

	id, err := p.Authenticate(context.Background(), []byte(token))
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if id.Principal != "bob" {
		t.Fatalf("Principal = %q, want bob", id.Principal)
	}
}

func TestJWTProviderRejectsUnsupportedPayloadType(t *testing.T) {
	p := NewJWTProvider(keyfunc)

	_, err := p.Authenticate(context.Background(), 12345)
	if err != ErrUnsupportedPayload {
		t.Fatalf("err = %v, want ErrUnsupportedPayload", err)
	}
}

func TestJWTProviderRejectsInvalidSignature(t *testing.T) {
	p := NewJWTProvider(keyfunc)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "eve"})
	signed, err := token.SignedString([]byte("wrong-secret"))
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}

	if _, err := p.Authenticate(context.Background(), signed); err == nil {
		t.Fatal("token signed with the wrong secret should be rejected")
	}
}

func TestJWTProviderRejectsMalformedToken(t *testing.T) {
	p := NewJWTProvider(keyfunc)

	if _, err := p.Authenticate(context.Background(), "not-a-jwt"); err == nil {
		t.Fatal("malformed token should be rejected")
	}
}

func TestJWTProviderCustomPrincipalClaim(t *testing.T) {
	p := NewJWTProvider(keyfunc)
	p.PrincipalClaim = "user_id"

	token := signToken(t, jwt.MapClaims{"user_id": "u-42", "sub": "ignored"})

	id, err := p.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if id.Principal != "u-42" {
		t.Fatalf("Principal = %q, want u-42", id.Principal)
	}
	if _, ok := id.Attributes["user_id"]; ok {
		t.Fatal("the principal claim itself should not also appear in Attributes")
	}
}
