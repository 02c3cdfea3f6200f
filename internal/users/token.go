package users

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/meridian-id/meridian-id/internal/shared"
)

// Token failure modes. Both are Unauthorized at the boundary; expiry is
// distinguished only so callers can report it.
var (
	ErrTokenExpired   = shared.E(shared.KindUnauthorized, "token expired")
	ErrTokenMalformed = shared.E(shared.KindUnauthorized, "invalid token")
)

// Claims are the identity assertions embedded in a bearer token. The
// account id travels in the registered subject claim.
type Claims struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
	jwt.RegisteredClaims
}

// UserID returns the account id carried by the token.
func (c *Claims) UserID() string {
	return c.Subject
}

// TokenService signs and verifies bearer tokens with a server-held HS256
// secret and owns the expiry policy.
type TokenService struct {
	secret      []byte
	ttl         time.Duration
	renewWindow time.Duration
}

const (
	// DefaultTokenTTL favors a long-lived token unless configured otherwise.
	DefaultTokenTTL = 7 * 24 * time.Hour
	// DefaultRenewWindow is the remaining lifetime below which a validated
	// token qualifies for proactive renewal.
	DefaultRenewWindow = time.Hour
)

// NewTokenService builds a TokenService. Zero durations fall back to the
// defaults.
func NewTokenService(secret []byte, ttl, renewWindow time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if renewWindow <= 0 {
		renewWindow = DefaultRenewWindow
	}
	return &TokenService{secret: secret, ttl: ttl, renewWindow: renewWindow}
}

// Issue signs a token carrying the account's identity claims.
func (s *TokenService) Issue(id string, email string, role Role) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", shared.WrapErr("sign token", err)
	}
	return signed, nil
}

// Validate parses and verifies a token, failing closed: signature
// mismatch, structural corruption, missing identity claims and expiry are
// all rejections.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}
	if !token.Valid {
		return nil, ErrTokenMalformed
	}
	if claims.Subject == "" || claims.Email == "" || claims.Role == "" {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

// NearExpiry reports whether a validated token's remaining lifetime is
// below the renewal threshold.
func (s *TokenService) NearExpiry(claims *Claims) bool {
	if claims == nil || claims.ExpiresAt == nil {
		return false
	}
	return time.Until(claims.ExpiresAt.Time) < s.renewWindow
}
