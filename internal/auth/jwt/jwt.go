// Package jwt issues and verifies HS256 tokens. The provider mints tokens for
// backends that trust a shared development secret; the stub backend uses the
// same code to sign login responses and check bearer headers.
package jwt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const Type = "jwt"

// DefaultTTL applies when neither TTLSeconds nor ExpiresAt is set.
const DefaultTTL = 5 * time.Minute

type Config struct {
	// Secret is the HMAC secret key used for HS256 signing (required)
	Secret     string `mapstructure:"secret" yaml:"secret"`
	TTLSeconds int64  `mapstructure:"ttl_seconds" yaml:"ttl_seconds"`

	Subject   string `mapstructure:"sub" yaml:"sub"`
	Issuer    string `mapstructure:"iss" yaml:"iss"`
	ExpiresAt int64  `mapstructure:"exp" yaml:"exp"`

	// Custom claims, e.g. {"userId": 1}
	Custom map[string]interface{} `mapstructure:"custom" yaml:"custom"`
}

// Issue creates a signed JWT token string from Config.
func (c Config) Issue() (string, error) {
	if len(c.Secret) == 0 {
		return "", errors.New("jwt: secret required")
	}
	now := time.Now()
	exp := c.ExpiresAt
	if exp == 0 {
		ttl := time.Duration(c.TTLSeconds) * time.Second
		if ttl <= 0 {
			ttl = DefaultTTL
		}
		exp = now.Add(ttl).Unix()
	}
	claims := jwt.MapClaims{"iat": now.Unix(), "exp": exp}
	if c.Subject != "" {
		claims["sub"] = c.Subject
	}
	if c.Issuer != "" {
		claims["iss"] = c.Issuer
	}
	for k, v := range c.Custom {
		claims[k] = v
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(c.Secret))
}

// Verify checks signature and expiry of tok and returns its claims.
func Verify(secret, tok string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("jwt: invalid token")
	}
	return claims, nil
}

type Method struct {
	C Config
}

func (m Method) Acquire(_ context.Context) (string, error) {
	return m.C.Issue()
}
