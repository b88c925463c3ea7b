package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"apa-backoffice/internal/domain/errs"
	"apa-backoffice/internal/ports/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeProvider(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != introspectPath || r.Header.Get("X-Api-Key") != "key" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		var in struct {
			Token string `json:"token"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		switch in.Token {
		case "good":
			_ = json.NewEncoder(w).Encode(map[string]any{"active": true, "user_id": "ana", "email": "ana@example.com", "name": "Ana"})
		case "revoked":
			_ = json.NewEncoder(w).Encode(map[string]any{"active": false, "user_id": "ana"})
		case "boom":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewVerifier_NotConfigured(t *testing.T) {
	_, err := NewVerifier(Config{BaseURL: "http://x"})
	assert.True(t, errors.Is(err, errs.ErrConfiguration))
}

func TestVerify(t *testing.T) {
	srv := fakeProvider(t)
	v, err := NewVerifier(Config{BaseURL: srv.URL, APIKey: "key"})
	require.NoError(t, err)
	ctx := context.Background()

	c, err := v.Verify(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, auth.Claims{UserID: "ana", Email: "ana@example.com", Name: "Ana"}, c)

	for _, tok := range []string{"", "revoked", "unknown"} {
		_, err = v.Verify(ctx, tok)
		assert.True(t, errors.Is(err, errs.ErrUnauthorized), tok)
	}

	_, err = v.Verify(ctx, "boom")
	assert.True(t, errors.Is(err, errs.ErrTransient))
}

func TestVerify_WrongAPIKey(t *testing.T) {
	srv := fakeProvider(t)
	v, _ := NewVerifier(Config{BaseURL: srv.URL, APIKey: "nope"})
	_, err := v.Verify(context.Background(), "good")
	assert.True(t, errors.Is(err, errs.ErrUnauthorized))
}
