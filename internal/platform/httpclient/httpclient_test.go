package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"apa-backoffice/internal/domain/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/echo":
			var in map[string]string
			_ = json.NewDecoder(r.Body).Decode(&in)
			in["key"] = r.Header.Get("X-Api-Key")
			in["extra"] = r.Header.Get("X-Extra")
			_ = json.NewEncoder(w).Encode(in)
		case "/denied":
			w.WriteHeader(http.StatusForbidden)
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("down"))
		}
	}))
	defer srv.Close()

	c, err := New(srv.URL+"/", 0, map[string]string{"X-Api-Key": "k"})
	require.NoError(t, err)
	ctx := context.Background()

	var out map[string]string
	require.NoError(t, c.DoJSON(ctx, http.MethodPost, "echo", map[string]string{"X-Extra": "x"}, map[string]string{"a": "1"}, &out))
	assert.Equal(t, map[string]string{"a": "1", "key": "k", "extra": "x"}, out)

	err = c.DoJSON(ctx, http.MethodGet, "/denied", nil, nil, nil)
	assert.True(t, errors.Is(err, errs.ErrUnauthorized))

	err = c.DoJSON(ctx, http.MethodGet, "/down", nil, nil, nil)
	assert.True(t, errors.Is(err, errs.ErrTransient))
	var he *HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, "down", he.Body)
}

func TestNew_InvalidBaseURL(t *testing.T) {
	_, err := New("not a url", 0, nil)
	assert.Error(t, err)
}
