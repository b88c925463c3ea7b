package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("AUTH_MODE", "JWT")
	t.Setenv("MINIO_USE_SSL", "nope")
	t.Setenv("IDENTITY_TIMEOUT", "2s")
	t.Setenv("BOOTSTRAP_ADMINS", " admin-1, ,admin-2 ")
	t.Setenv("MINIO_ENDPOINT", "")
	t.Setenv("MINIO_BUCKET", "")

	c := Load()

	assert.Equal(t, "9090", c.Port)
	assert.Equal(t, AuthModeJWT, c.AuthMode)
	assert.True(t, c.MinioUseSSL)
	assert.Equal(t, 2*time.Second, c.IdentityTimeout)
	assert.Equal(t, []string{"admin-1", "admin-2"}, c.BootstrapAdmins)
	assert.Equal(t, "apa-images", c.MinioBucket)
	assert.False(t, c.MinioConfigured())
}

func TestValidate_AuthMode(t *testing.T) {
	for _, mode := range []AuthMode{AuthModeDev, AuthModeJWT, AuthModeRemote} {
		assert.NoError(t, Config{AuthMode: mode}.Validate(), mode)
	}

	t.Setenv("AUTH_MODE", "firebase")
	c := Load()
	err := c.Validate()
	assert.True(t, errors.Is(err, ErrInvalid))
	assert.Contains(t, err.Error(), "firebase")

	assert.Error(t, Config{AuthMode: "jwt "}.Validate())
}
