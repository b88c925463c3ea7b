// Package identity verifica tokens contra el proveedor de identidad remoto
// (endpoint de introspección).
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"apa-backoffice/internal/domain/errs"
	"apa-backoffice/internal/platform/httpclient"
	"apa-backoffice/internal/ports/auth"
)

const introspectPath = "/v1/tokens/introspect"

var ErrNotConfigured = fmt.Errorf("identity provider not configured: %w", errs.ErrConfiguration)

type Config struct {
	BaseURL string
	APIKey  string

	// Si está vacío se usa "X-Api-Key".
	APIKeyHeader string

	Timeout time.Duration
}

// Verifier implementa auth.AuthVerifier.
type Verifier struct {
	http *httpclient.Client
}

func NewVerifier(cfg Config) (*Verifier, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" || strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	h := strings.TrimSpace(cfg.APIKeyHeader)
	if h == "" {
		h = "X-Api-Key"
	}
	c, err := httpclient.New(cfg.BaseURL, cfg.Timeout, map[string]string{h: strings.TrimSpace(cfg.APIKey)})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrConfiguration, err)
	}
	return &Verifier{http: c}, nil
}

type introspectResponse struct {
	Active bool   `json:"active"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, errs.ErrUnauthorized
	}

	var out introspectResponse
	err := v.http.DoJSON(ctx, http.MethodPost, introspectPath,
		map[string]string{"Authorization": "Bearer " + token},
		map[string]string{"token": token}, &out)
	switch {
	case errors.Is(err, errs.ErrUnauthorized):
		return auth.Claims{}, errs.ErrUnauthorized
	case errors.Is(err, errs.ErrTransient):
		return auth.Claims{}, fmt.Errorf("identity introspect: %w", err)
	case err != nil:
		return auth.Claims{}, fmt.Errorf("identity introspect: %w: %v", errs.ErrTransient, err)
	}

	uid := strings.TrimSpace(out.UserID)
	if !out.Active || uid == "" {
		return auth.Claims{}, errs.ErrUnauthorized
	}
	return auth.Claims{UserID: uid, Email: strings.TrimSpace(out.Email), Name: strings.TrimSpace(out.Name)}, nil
}
