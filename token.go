package filedepot

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token issuance belongs to the external auth subsystem; the gateway only
// needs to resolve a bearer token into an owner identity. The signer lives
// here as well so tooling and tests can mint compatible tokens.

// AuthConfig holds the token verification settings.
type AuthConfig struct {
	Secret   string
	Lifetime time.Duration
}

type ownerClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenVerifier resolves HS256 bearer tokens into owner identifiers.
type TokenVerifier struct {
	secret   []byte
	lifetime time.Duration
}

func NewTokenVerifier(cfg AuthConfig) (*TokenVerifier, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("new token verifier: %w: empty secret", ErrInvalidInput)
	}

	lifetime := cfg.Lifetime
	if lifetime <= 0 {
		lifetime = time.Hour
	}

	return &TokenVerifier{secret: []byte(cfg.Secret), lifetime: lifetime}, nil
}

// Sign mints a token carrying the given owner identity.
func (v *TokenVerifier) Sign(ownerID uuid.UUID) (string, error) {
	now := time.Now()
	claims := ownerClaims{
		UserID: ownerID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.lifetime)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return token, nil
}

// Verify resolves a bearer token into the owner identifier it carries.
// Every failure mode (bad signature, expiry, malformed claims) collapses
// into ErrUnauthorized; callers get no hint about which check failed.
func (v *TokenVerifier) Verify(tokenString string) (uuid.UUID, error) {
	var claims ownerClaims

	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return uuid.Nil, fmt.Errorf("verify token: %w: %v", ErrUnauthorized, err)
	}

	ownerID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("verify token: %w: bad user_id claim", ErrUnauthorized)
	}

	return ownerID, nil
}
