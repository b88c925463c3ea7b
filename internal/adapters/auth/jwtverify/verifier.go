// Package jwtverify valida tokens HS256 emitidos por el proveedor de identidad.
package jwtverify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"apa-backoffice/internal/domain/errs"
	"apa-backoffice/internal/ports/auth"

	"github.com/golang-jwt/jwt/v5"
)

var ErrSecretMissing = fmt.Errorf("jwt secret missing: %w", errs.ErrConfiguration)

type tokenClaims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Verifier implementa auth.AuthVerifier.
type Verifier struct {
	secret []byte
	issuer string
	leeway time.Duration
}

func New(secret, issuer string) (*Verifier, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrSecretMissing
	}
	return &Verifier{secret: []byte(secret), issuer: strings.TrimSpace(issuer), leeway: 30 * time.Second}, nil
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, errs.ErrUnauthorized
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var c tokenClaims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) { return v.secret, nil }, opts...)
	if err != nil {
		return auth.Claims{}, fmt.Errorf("%w: %v", errs.ErrUnauthorized, err)
	}

	uid := strings.TrimSpace(c.Subject)
	if uid == "" {
		return auth.Claims{}, fmt.Errorf("%w: token without subject", errs.ErrUnauthorized)
	}
	return auth.Claims{UserID: uid, Email: strings.TrimSpace(c.Email), Name: strings.TrimSpace(c.Name)}, nil
}

// Sign emite un token; lo usan los tests y la herramienta de desarrollo.
func (v *Verifier) Sign(c auth.Claims, ttl time.Duration, now time.Time) (string, error) {
	if c.UserID == "" {
		return "", errors.New("jwtverify: empty user id")
	}
	tc := tokenClaims{
		Email: c.Email,
		Name:  c.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.UserID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, tc).SignedString(v.secret)
}
