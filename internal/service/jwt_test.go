package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestJWTRoundTrip(t *testing.T) {
	InitJWT("test-secret")

	token, err := GenerateJWT(42)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	userID, err := ParseJWT(token)
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if userID != 42 {
		t.Fatalf("ParseJWT = %d; want 42", userID)
	}
}

func TestJWTTampered(t *testing.T) {
	InitJWT("test-secret")

	token, err := GenerateJWT(42)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	if _, err := ParseJWT(token + "x"); err == nil {
		t.Fatalf("expected tampered token to be rejected")
	}
	if _, err := ParseJWT("not-a-token"); err == nil {
		t.Fatalf("expected garbage token to be rejected")
	}
}

func TestJWTRejectsForeignIssuer(t *testing.T) {
	InitJWT("test-secret")

	now := time.Now().Unix()
	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": int64(42),
		"iss":     "someone-else",
		"exp":     time.Now().Add(time.Hour).Unix(),
		"iat":     now,
		"nbf":     now,
	})
	token, err := foreign.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := ParseJWT(token); err == nil {
		t.Fatalf("expected token from a foreign issuer to be rejected")
	}
}
