package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyhub/auth"
	"studyhub/config"
)

func TestNewTransport(t *testing.T) {
	base := config.Config{SecretKey: "test-secret", TokenTTL: time.Hour}

	t.Run("bearer", func(t *testing.T) {
		cfg := base
		cfg.AuthTransport = config.TransportBearer
		transport, err := NewTransport(&cfg)
		require.NoError(t, err)
		assert.IsType(t, &auth.BearerTransport{}, transport)
	})

	t.Run("cookie", func(t *testing.T) {
		cfg := base
		cfg.AuthTransport = config.TransportCookie
		transport, err := NewTransport(&cfg)
		require.NoError(t, err)
		assert.IsType(t, &auth.CookieTransport{}, transport)
	})

	t.Run("unknown value is a startup error", func(t *testing.T) {
		cfg := base
		cfg.AuthTransport = "saml"
		_, err := NewTransport(&cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "saml")
	})
}
