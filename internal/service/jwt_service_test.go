package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"academy-api/internal/domain"
)

func testUser() domain.User {
	return domain.User{
		ID:        "u1",
		Email:     "user@example.com",
		Role:      domain.RoleStudent,
		Verified:  true,
		CreatedAt: time.Now().UTC(),
	}
}

func TestJWTService_GenerateParseAccess(t *testing.T) {
	svc := NewJWTService("secret", 2*time.Hour, 24*time.Hour)

	token, err := svc.GenerateAccessToken(testUser())
	if err != nil {
		t.Fatalf("generate access: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token")
	}

	claims, err := svc.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("parse access: %v", err)
	}
	if claims.UserID != "u1" || claims.Email != "user@example.com" || claims.Role != "student" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestJWTService_RejectsExpiredAccessToken(t *testing.T) {
	svc := NewJWTService("secret", 2*time.Hour, 24*time.Hour)
	now := time.Now().UTC()
	claims := Claims{
		UserID:    "u1",
		Email:     "user@example.com",
		Role:      "student",
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti-1",
			Issuer:    "academy-api",
			Subject:   "u1",
			IssuedAt:  jwt.NewNumericDate(now.Add(-2*time.Hour - time.Second)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Second)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := svc.ParseAccessToken(signed); !errors.Is(err, ErrJWTExpired) {
		t.Fatalf("expected ErrJWTExpired, got %v", err)
	}
}

func TestJWTService_AcceptsTokenNearExpiry(t *testing.T) {
	svc := NewJWTService("secret", 2*time.Hour, 24*time.Hour)
	now := time.Now().UTC()
	claims := Claims{
		UserID:    "u1",
		Email:     "user@example.com",
		Role:      "student",
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti-1",
			Issuer:    "academy-api",
			Subject:   "u1",
			IssuedAt:  jwt.NewNumericDate(now.Add(-2*time.Hour + time.Second)),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Second)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := svc.ParseAccessToken(signed); err != nil {
		t.Fatalf("expected token still valid before expiry, got %v", err)
	}
}

func TestJWTService_RejectsWrongIssuer(t *testing.T) {
	svc := NewJWTService("secret", 2*time.Hour, 24*time.Hour)
	now := time.Now().UTC()
	claims := Claims{
		UserID:    "u1",
		Email:     "user@example.com",
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "other-issuer",
			Subject:   "u1",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := svc.ParseAccessToken(signed); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid for wrong issuer, got %v", err)
	}
}

func TestJWTService_RejectsVerifyTokenAsAccess(t *testing.T) {
	svc := NewJWTService("secret", 2*time.Hour, 24*time.Hour)

	verify, err := svc.GenerateVerifyToken(testUser())
	if err != nil {
		t.Fatalf("generate verify: %v", err)
	}
	if _, err := svc.ParseAccessToken(verify); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid for verify token in access flow, got %v", err)
	}
	if _, err := svc.ParseVerifyToken(verify); err != nil {
		t.Fatalf("expected verify token to parse in verify flow, got %v", err)
	}
}

func TestJWTService_RejectsEmptySecret(t *testing.T) {
	svc := NewJWTService("", 2*time.Hour, 24*time.Hour)

	if _, err := svc.GenerateAccessToken(testUser()); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid on empty secret, got %v", err)
	}
}

func TestJWTService_RevokeAccessToken(t *testing.T) {
	svc := NewJWTServiceWithStore("secret", 2*time.Hour, 24*time.Hour, NewMemoryRevokedTokenStore())

	token, err := svc.GenerateAccessToken(testUser())
	if err != nil {
		t.Fatalf("generate access: %v", err)
	}
	if _, err := svc.ParseAccessToken(token); err != nil {
		t.Fatalf("parse before revoke: %v", err)
	}

	if err := svc.RevokeAccessToken(token); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := svc.ParseAccessToken(token); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected revoked token to be rejected, got %v", err)
	}
}
