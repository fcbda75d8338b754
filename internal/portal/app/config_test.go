package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable LoadConfig reads, so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORTAL_CONFIG_FILE", "PORTAL_API_URL", "PORTAL_API_TIMEOUT", "PORTAL_PUBLIC_URL", "PORTAL_TRUSTED_PROXIES",
		"PORTAL_SESSION_DRIVER", "PORTAL_DATABASE_FILE", "PORTAL_MASTER_KEY", "PORTAL_MASTER_KEY_FILE", "PORTAL_SESSION_IDLE_TTL",
		"PORTAL_COOKIE_SECURE", "PORTAL_CHECK_TOKEN_EXPIRY",
		"PORTAL_CONSTANCIA_S3_BUCKET", "PORTAL_CONSTANCIA_S3_KEY", "PORTAL_CONSTANCIA_S3_REGION",
		"PORTAL_CONSTANCIA_S3_ENDPOINT", "PORTAL_S3_ACCESS_KEY", "PORTAL_S3_SECRET_KEY",
		"ENV", "LOG_LEVEL", "LOG_FORMAT", "PORT", "SHUTDOWN_GRACE_PERIOD", "HOUSEKEEPING_INTERVAL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "http://localhost:3001", cfg.APIURL)
	require.Equal(t, 10*time.Second, cfg.APITimeout)
	require.Equal(t, "sqlite", cfg.SessionDriver)
	require.Equal(t, "portal.db", cfg.DatabaseFile)
	require.Equal(t, 12*time.Hour, cfg.SessionIdleTTL)
	require.False(t, cfg.CookieSecure)
	require.False(t, cfg.CheckTokenExpiry)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, time.Hour, cfg.HousekeepingInterval)
}

func TestLoadConfigEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORTAL_API_URL", "https://api.orpe.mx")
	t.Setenv("PORTAL_SESSION_DRIVER", "bolt")
	t.Setenv("PORTAL_SESSION_IDLE_TTL", "30") // integer minutes
	t.Setenv("PORTAL_COOKIE_SECURE", "true")
	t.Setenv("PORTAL_CHECK_TOKEN_EXPIRY", "1")
	t.Setenv("PORTAL_CONSTANCIA_S3_BUCKET", "docs")
	t.Setenv("PORTAL_CONSTANCIA_S3_KEY", "constancia.pdf")
	t.Setenv("PORT", "9090")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "https://api.orpe.mx", cfg.APIURL)
	require.Equal(t, "bolt", cfg.SessionDriver)
	require.Equal(t, 30*time.Minute, cfg.SessionIdleTTL)
	require.True(t, cfg.CookieSecure)
	require.True(t, cfg.CheckTokenExpiry)
	require.Equal(t, S3Config{Bucket: "docs", Key: "constancia.pdf"}, cfg.ConstanciaS3)
	require.Equal(t, 9090, cfg.Port)
}

func TestLoadConfigFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  url: https://staging-api.orpe.mx
  timeout: 5s
public_url: https://portal.orpe.mx
session:
  driver: memory
  idle_ttl: 2h
  cookie_secure: true
log:
  level: debug
port: 7000
`), 0o600))

	clearEnv(t)
	t.Setenv("PORTAL_CONFIG_FILE", path)
	t.Setenv("PORT", "7100")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "https://staging-api.orpe.mx", cfg.APIURL)
	require.Equal(t, 5*time.Second, cfg.APITimeout)
	require.Equal(t, "https://portal.orpe.mx", cfg.PublicURL)
	require.Equal(t, "memory", cfg.SessionDriver)
	require.Equal(t, 2*time.Hour, cfg.SessionIdleTTL)
	require.True(t, cfg.CookieSecure)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, 7100, cfg.Port, "environment wins over the file")
}

func TestLoadConfigFileErrors(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	_, err := LoadConfigFrom(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("session:\n  idle_ttl: forever\n"), 0o600))
	_, err = LoadConfigFrom(bad)
	require.ErrorContains(t, err, "session.idle_ttl")
}

func TestConfigValidate(t *testing.T) {
	cfg := defaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.SessionDriver = "redis"
	require.Error(t, cfg.Validate())

	cfg = defaultConfig()
	cfg.ConstanciaS3.Bucket = "docs"
	require.Error(t, cfg.Validate())

	cfg = defaultConfig()
	cfg.TrustedProxies = "10.0.0.0/8, 127.0.0.1"
	require.NoError(t, cfg.Validate())
	cfg.TrustedProxies = "proxy.internal"
	require.ErrorContains(t, cfg.Validate(), "PORTAL_TRUSTED_PROXIES")
}
