package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/pilotkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAndParse_Success(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")
	locator := "uploads/3f1c.png"

	tok, err := GenerateToken(&locator, secret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	got, err := GetLocatorFromToken(tok, secret)
	if err != nil {
		t.Fatalf("GetLocatorFromToken error: %v", err)
	}
	if got == nil || *got != locator {
		t.Fatalf("locator mismatch: got %v want %q", got, locator)
	}
}

func TestGenerateAndParse_NullLocator(t *testing.T) {
	t.Parallel()

	secret := []byte("k")
	tok, err := GenerateToken(nil, secret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	got, err := GetLocatorFromToken(tok, secret)
	if err != nil {
		t.Fatalf("GetLocatorFromToken error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil locator, got %q", *got)
	}
}

func TestGenerateToken_ClaimsShape(t *testing.T) {
	t.Parallel()

	secret := []byte("k")
	locator := "a.png"
	before := time.Now().Add(-time.Second)

	tok, err := GenerateToken(&locator, secret, 15*24*time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	raw := jwt.MapClaims{}
	if _, err := jwt.ParseWithClaims(tok, raw, func(*jwt.Token) (interface{}, error) { return secret, nil }); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if raw["fingerprint_image_path"] != locator {
		t.Fatalf("fingerprint_image_path claim = %v", raw["fingerprint_image_path"])
	}

	iat, err := raw.GetIssuedAt()
	if err != nil || iat == nil {
		t.Fatalf("iat missing: %v", err)
	}
	exp, err := raw.GetExpirationTime()
	if err != nil || exp == nil {
		t.Fatalf("exp missing: %v", err)
	}
	if iat.Before(before) {
		t.Fatalf("iat %v before %v", iat, before)
	}
	if d := exp.Sub(iat.Time); d != 15*24*time.Hour {
		t.Fatalf("exp - iat = %v", d)
	}
}

func TestGetLocatorFromToken_Expired(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	tok, err := GenerateToken(nil, secret, -1*time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	_, err = GetLocatorFromToken(tok, secret)
	if !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("expected common.ErrTokenExpired, got %v", err)
	}
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expired token must also be invalid, got %v", err)
	}
}

func TestGetLocatorFromToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken(nil, []byte("right-secret"), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	_, err = GetLocatorFromToken(tok, []byte("wrong-secret"))
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}

func TestGetLocatorFromToken_WrongAlgorithm(t *testing.T) {
	t.Parallel()

	secret := []byte("k")
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{}).SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := GetLocatorFromToken(tok, secret); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}

func TestGetLocatorFromToken_MalformedString(t *testing.T) {
	t.Parallel()

	_, err := GetLocatorFromToken("not.a.jwt", []byte("k"))
	if err == nil {
		t.Fatalf("expected error for malformed token, got nil")
	}
}
