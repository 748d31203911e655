package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"academy-api/internal/domain"
)

// JWTService emite y valida tokens JWT.
// Emite dos tipos: tokens de acceso (sesion, 2 horas) y tokens de
// verificacion (link de verify-email).
type JWTService struct {
	secret    []byte
	accessTTL time.Duration
	verifyTTL time.Duration
	issuer    string
	revoked   RevokedTokenStore
}

type Claims struct {
	UserID    string `json:"uid"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

var (
	ErrJWTInvalid = errors.New("jwt invalid")
	ErrJWTExpired = errors.New("jwt expired")
)

func NewJWTService(secret string, accessTTL, verifyTTL time.Duration) *JWTService {
	if accessTTL <= 0 {
		accessTTL = 2 * time.Hour
	}
	if verifyTTL <= 0 {
		verifyTTL = 24 * time.Hour
	}
	return &JWTService{
		secret:    []byte(secret),
		accessTTL: accessTTL,
		verifyTTL: verifyTTL,
		issuer:    "academy-api",
		revoked:   NewMemoryRevokedTokenStore(),
	}
}

func NewJWTServiceWithStore(secret string, accessTTL, verifyTTL time.Duration, revoked RevokedTokenStore) *JWTService {
	svc := NewJWTService(secret, accessTTL, verifyTTL)
	if revoked != nil {
		svc.revoked = revoked
	}
	return svc
}

// GenerateAccessToken firma un token de sesion para el usuario.
func (s *JWTService) GenerateAccessToken(user domain.User) (string, error) {
	return s.signToken(user, s.accessTTL, "access")
}

// GenerateVerifyToken firma el token que viaja en el link de verificacion.
func (s *JWTService) GenerateVerifyToken(user domain.User) (string, error) {
	return s.signToken(user, s.verifyTTL, "verify")
}

// AccessTTL expone la vigencia configurada del token de acceso.
func (s *JWTService) AccessTTL() time.Duration {
	return s.accessTTL
}

// ParseAccessToken valida firma, vigencia, issuer y tipo, y rechaza
// tokens revocados por logout.
func (s *JWTService) ParseAccessToken(accessToken string) (Claims, error) {
	claims, err := s.parseTyped(accessToken, "access")
	if err != nil {
		return Claims{}, err
	}
	if s.revoked != nil && claims.ID != "" {
		revoked, err := s.revoked.IsRevoked(claims.ID)
		if err != nil || revoked {
			return Claims{}, ErrJWTInvalid
		}
	}
	return claims, nil
}

// ParseVerifyToken valida un token de link de verificacion.
func (s *JWTService) ParseVerifyToken(verifyToken string) (Claims, error) {
	return s.parseTyped(verifyToken, "verify")
}

// RevokeAccessToken anula el token por su jti durante el resto de su vida.
func (s *JWTService) RevokeAccessToken(accessToken string) error {
	claims, err := s.parseTyped(accessToken, "access")
	if err != nil {
		return err
	}
	if claims.ID == "" || s.revoked == nil {
		return ErrJWTInvalid
	}
	ttl := s.accessTTL
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	return s.revoked.Revoke(claims.ID, ttl)
}

func (s *JWTService) signToken(user domain.User, ttl time.Duration, tokenType string) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrJWTInvalid
	}
	now := time.Now().UTC()
	claims := Claims{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      string(user.Role),
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *JWTService) parseTyped(tokenString, tokenType string) (Claims, error) {
	if len(s.secret) == 0 {
		return Claims{}, ErrJWTInvalid
	}
	if strings.TrimSpace(tokenString) == "" {
		return Claims{}, ErrJWTInvalid
	}
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return Claims{}, err
	}
	if claims.TokenType != tokenType {
		return Claims{}, ErrJWTInvalid
	}
	if !s.isValidClaims(claims) {
		return Claims{}, ErrJWTInvalid
	}
	return claims, nil
}

func (s *JWTService) parseToken(tokenString string) (Claims, error) {
	var claims Claims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrJWTExpired
		}
		return Claims{}, ErrJWTInvalid
	}
	return claims, nil
}

func (s *JWTService) isValidClaims(claims Claims) bool {
	if strings.TrimSpace(claims.UserID) == "" {
		return false
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return false
	}
	if claims.Subject != claims.UserID {
		return false
	}
	return strings.TrimSpace(claims.Issuer) == s.issuer
}
