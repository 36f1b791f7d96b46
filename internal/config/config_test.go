package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":4001", cfg.Server.Address)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 180*time.Second, cfg.Auth.OtpTTL)
	assert.Equal(t, 60*time.Second, cfg.Auth.OtpCooldown)
	assert.Equal(t, 5, cfg.Auth.OtpMaxAttempts)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  address: ":9000"
database:
  driver: pgx
  url: postgres://localhost/soundcrew
auth:
  otp_ttl: 5m
`), 0o600))

	t.Setenv("PORT", "8080")
	t.Setenv("OTP_RESEND_COOLDOWN_SECONDS", "30")
	t.Setenv("AWS_REGION", "ap-northeast-2")
	t.Setenv("CDN_DOMAIN", "cdn.example.com")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "pgx", cfg.Database.Driver)
	assert.Equal(t, 5*time.Minute, cfg.Auth.OtpTTL)
	assert.Equal(t, 30*time.Second, cfg.Auth.OtpCooldown)
	assert.Equal(t, "ap-northeast-2", cfg.S3.Region)
	assert.Equal(t, "https://cdn.example.com", cfg.S3.PublicBase)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.CORSOrigins)
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	t.Setenv("OTP_MAX_ATTEMPTS", "many")
	_, err := Load("")
	assert.Error(t, err)
}
