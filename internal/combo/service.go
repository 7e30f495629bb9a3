// Package combo hands an authenticated shield session over to the game
// server as a signed combo token.
package combo

import (
	"context"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ys4e/pancake/internal/account/entity"
	"github.com/ys4e/pancake/pkg/utilities"
)

const accountTypeNormal = 1

var ErrGuestLogin = errors.New("guest login not supported")

type Config struct {
	Issuer string
	TTL    time.Duration
}

// ConfigFromEnv reads COMBO_ISSUER and COMBO_TOKEN_TTL.
func ConfigFromEnv() Config {
	cfg := Config{Issuer: "pancake", TTL: 24 * time.Hour}
	if v := os.Getenv("COMBO_ISSUER"); v != "" {
		cfg.Issuer = v
	}
	if v, err := time.ParseDuration(os.Getenv("COMBO_TOKEN_TTL")); err == nil && v > 0 {
		cfg.TTL = v
	}
	return cfg
}

// Authenticator checks a login token without side effects. Implemented by
// *shield.Service.
type Authenticator interface {
	Authenticate(ctx context.Context, uid int64, token, device string) (*entity.Account, error)
}

// Claims of a combo token.
type Claims struct {
	Device string `json:"device"`
	jwt.RegisteredClaims
}

// Grant is the data of a successful combo login.
type Grant struct {
	ComboID     string `json:"combo_id"`
	OpenID      string `json:"open_id"`
	ComboToken  string `json:"combo_token"`
	Data        string `json:"data"`
	Heartbeat   bool   `json:"heartbeat"`
	AccountType int    `json:"account_type"`
}

// Service signs combo tokens with the process RSA key.
type Service struct {
	auth   Authenticator
	key    *rsa.PrivateKey
	kid    string
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewService(auth Authenticator, key *rsa.PrivateKey, cfg Config) *Service {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	return &Service{
		auth:   auth,
		key:    key,
		kid:    keyID(&key.PublicKey),
		issuer: cfg.Issuer,
		ttl:    cfg.TTL,
		now:    time.Now,
	}
}

// keyID is the base64url of the first 8 bytes of SHA-256 over the modulus.
func keyID(pub *rsa.PublicKey) string {
	h := sha256.Sum256(pub.N.Bytes())
	return base64.RawURLEncoding.EncodeToString(h[:8])
}

// Login authenticates the shield session and signs a combo token for it.
func (s *Service) Login(ctx context.Context, uid int64, token, device string, guest bool) (*Grant, error) {
	if guest {
		return nil, ErrGuestLogin
	}
	acct, err := s.auth.Authenticate(ctx, uid, token, device)
	if err != nil {
		return nil, err
	}

	now := s.now()
	claims := Claims{
		Device: device,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   strconv.FormatInt(acct.UID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        utilities.NewKSUID(),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = s.kid
	signed, err := tok.SignedString(s.key)
	if err != nil {
		return nil, fmt.Errorf("sign combo token: %w", err)
	}

	return &Grant{
		ComboID:     utilities.NewSnowflakeID(),
		OpenID:      claims.Subject,
		ComboToken:  signed,
		Data:        `{"guest":false}`,
		Heartbeat:   false,
		AccountType: accountTypeNormal,
	}, nil
}

// ParseToken verifies a combo token and returns its claims.
func (s *Service) ParseToken(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return &s.key.PublicKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// JWKS returns a minimal JWKS containing the public key.
func (s *Service) JWKS() map[string]any {
	pub := s.key.PublicKey
	jwk := map[string]any{
		"kty": "RSA",
		"use": "sig",
		"alg": "RS256",
		"kid": s.kid,
		"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}
	return map[string]any{"keys": []any{jwk}}
}
