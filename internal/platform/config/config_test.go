package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("dev defaults load without any environment", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.Server.Addr)
		assert.Equal(t, 5*time.Second, cfg.Claims.TxTimeout)
		assert.Empty(t, cfg.DB.URL)
		assert.True(t, cfg.IsDev())
	})

	t.Run("reads prefixed variables", func(t *testing.T) {
		t.Setenv("FRONTDESK_ADDR", ":9090")
		t.Setenv("FRONTDESK_CLAIM_TX_TIMEOUT", "2s")
		t.Setenv("FRONTDESK_BULK_REVOKE_CONFIRMATION_CODE", "ASAMBLEA-2026")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, ":9090", cfg.Server.Addr)
		assert.Equal(t, 2*time.Second, cfg.Claims.TxTimeout)
		assert.Equal(t, "ASAMBLEA-2026", cfg.Claims.BulkRevokeConfirmationCode)
	})

	t.Run("reads every documented variable under the single prefix", func(t *testing.T) {
		session := "6f1c2a0e-8a51-4d7e-9d0b-2f7f1f0c9b11"
		t.Setenv("FRONTDESK_ENV", "production")
		t.Setenv("FRONTDESK_DATABASE_URL", "postgres://desk@db/frontdesk")
		t.Setenv("FRONTDESK_REDIS_URL", "redis://cache:6379/0")
		t.Setenv("FRONTDESK_JWT_SIGNING_KEY", "s3cret")
		t.Setenv("FRONTDESK_BULK_REVOKE_CONFIRMATION_CODE", "ASAMBLEA-2026")
		t.Setenv("FRONTDESK_ASSEMBLY_SESSION_ID", session)
		t.Setenv("FRONTDESK_LOG_LEVEL", "debug")

		cfg, err := Load()
		require.NoError(t, err)
		assert.False(t, cfg.IsDev())
		assert.Equal(t, "postgres://desk@db/frontdesk", cfg.DB.URL)
		assert.Equal(t, "redis://cache:6379/0", cfg.Redis.URL)
		assert.Equal(t, "s3cret", cfg.Auth.JWTSigningKey)
		assert.Equal(t, session, cfg.Claims.AssemblySessionID)
		assert.Equal(t, "debug", cfg.Log.Level)
	})

	t.Run("section-prefixed names are not read", func(t *testing.T) {
		t.Setenv("FRONTDESK_SERVER_ADDR", ":7070")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.Server.Addr)
	})

	t.Run("production requires secrets", func(t *testing.T) {
		t.Setenv("FRONTDESK_ENV", "production")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JWT_SIGNING_KEY")
		assert.Contains(t, err.Error(), "BULK_REVOKE_CONFIRMATION_CODE")
	})

	t.Run("rejects malformed assembly session id", func(t *testing.T) {
		t.Setenv("FRONTDESK_ASSEMBLY_SESSION_ID", "not-a-uuid")

		_, err := Load()
		require.Error(t, err)
	})
}
