// Package token issues and verifies the bearer tokens that authenticate API
// requests. Verification is stateless: a token is valid iff its HS256
// signature checks out against the server secret and it has not expired.
package token

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

type Config struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

// ConfigFromEnv reads token config from env vars. TOKEN_TTL accepts a Go
// duration string; expiry is fixed at issuance and there is no refresh.
func ConfigFromEnv() Config {
	ttl := 7 * 24 * time.Hour
	if env := os.Getenv("TOKEN_TTL"); env != "" {
		if parsed, err := time.ParseDuration(env); err == nil && parsed > 0 {
			ttl = parsed
		}
	}
	issuer := os.Getenv("TOKEN_ISSUER")
	if issuer == "" {
		issuer = "medical-records-api"
	}
	return Config{Secret: os.Getenv("TOKEN_SECRET"), TTL: ttl, Issuer: issuer}
}

// Service signs and verifies bearer tokens.
type Service struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// NewService constructs a Service. When cfg.Secret is empty a random
// per-process secret is generated; previously issued tokens then become
// invalid on restart, so production deployments should always set one.
func NewService(cfg Config) (*Service, bool, error) {
	generated := false
	secret := []byte(cfg.Secret)
	if len(secret) == 0 {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, false, err
		}
		secret = []byte(base64.RawURLEncoding.EncodeToString(buf))
		generated = true
	}
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Service{secret: secret, ttl: ttl, issuer: cfg.Issuer}, generated, nil
}

// Issue signs a token for the given user id, expiring TTL from now.
func (s *Service) Issue(userID int64) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks signature and expiry and returns the user id carried in the
// subject claim. Malformed, expired, and wrongly signed tokens all yield
// ErrInvalidToken.
func (s *Service) Verify(tokenString string) (int64, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return 0, ErrInvalidToken
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return userID, nil
}
