package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"hotel_revenue/internal/auth"
)

func TestVerify_RoundTrip(t *testing.T) {
	tok, err := auth.Sign("s3cret", 42, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	v, _ := auth.NewVerifier("s3cret")
	c, err := v.Verify(tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if c.UserID != 42 {
		t.Fatalf("user id = %d", c.UserID)
	}
}

func TestVerify_Rejects(t *testing.T) {
	v, _ := auth.NewVerifier("s3cret")

	wrongKey, _ := auth.Sign("other", 42, time.Hour)
	expired, _ := auth.Sign("s3cret", 42, -time.Minute)
	noUser, _ := auth.Sign("s3cret", 0, time.Hour)
	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": 42}).SignedString([]byte("s3cret"))

	cases := map[string]string{
		"garbage":   "not-a-token",
		"wrong key": wrongKey,
		"expired":   expired,
		"no user":   noUser,
		"no exp":    noExp,
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := v.Verify(tok); !errors.Is(err, auth.ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestNewVerifier_RequiresSecret(t *testing.T) {
	if _, err := auth.NewVerifier(""); err == nil {
		t.Fatalf("expected error")
	}
}
