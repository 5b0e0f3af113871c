package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DevelopmentDefaults(t *testing.T) {
	t.Setenv("LECTERN_ENV", "")

	cfg, err := Load(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.Equal(t, 30*time.Second, cfg.Verification.ResendCooldown)
	assert.Equal(t, 10*time.Minute, cfg.Verification.CodeTTL)
	assert.Equal(t, 3, cfg.Verification.MaxAttempts)
	assert.Equal(t, 6, cfg.Verification.CodeLength)
	assert.True(t, cfg.Notify.SMSDryRun)
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lectern.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
environment: production
auth:
  jwt_signing_key: from-file
verification:
  code_hash_key: file-key
  resend_cooldown: 45s
`), 0o600))
	t.Setenv("LECTERN_AUTH_JWT_SIGNING_KEY", "from-env")

	cfg, err := Load(context.Background(), path)
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "from-env", cfg.Auth.JWTSigningKey)
	assert.Equal(t, 45*time.Second, cfg.Verification.ResendCooldown)
	assert.Equal(t, "file-key", cfg.Verification.CodeHashKey)
}

func TestLoad_ProductionCooldownDefault(t *testing.T) {
	t.Setenv("LECTERN_ENV", "production")
	t.Setenv("LECTERN_AUTH_JWT_SIGNING_KEY", "k")
	t.Setenv("LECTERN_VERIFICATION_CODE_HASH_KEY", "h")

	cfg, err := Load(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, cfg.Verification.ResendCooldown)
	assert.False(t, cfg.Notify.SMSDryRun)
}

func TestValidate(t *testing.T) {
	t.Run("production requires secrets", func(t *testing.T) {
		t.Setenv("LECTERN_ENV", "production")
		_, err := Load(context.Background(), "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt_signing_key")
		assert.Contains(t, err.Error(), "code_hash_key")
	})

	t.Run("expose codes refused in production", func(t *testing.T) {
		cfg := &Config{Environment: EnvProduction}
		cfg.applyDefaults()
		cfg.Auth.JWTSigningKey = "k"
		cfg.Verification.CodeHashKey = "h"
		cfg.Verification.ExposeCodes = true
		require.Error(t, cfg.Validate())
	})

	t.Run("unknown environment", func(t *testing.T) {
		cfg := &Config{Environment: "staging"}
		cfg.applyDefaults()
		require.Error(t, cfg.Validate())
	})
}
