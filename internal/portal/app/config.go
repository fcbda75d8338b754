package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/aussiebroadwan/portalfiscal/pkg/httpx"
)

type Config struct {
	APIURL     string        // Base URL of the fiscal API (default: http://localhost:3001)
	APITimeout time.Duration // Timeout of every fiscal API call (default: 10s)
	PublicURL  string        // Optional: origin used in shared client links (default: derived from the request)

	TrustedProxies string // Optional: comma separated IPs/CIDRs whose X-Forwarded-* headers are believed

	SessionDriver    string        // Session store driver (memory, sqlite, bolt) (default: sqlite)
	DatabaseFile     string        // Path of the sqlite or bolt file (default: ./portal.db)
	MasterKey        string        // Optional: material for the token sealing key
	MasterKeyFile    string        // Optional: key file, created on first start when missing
	SessionIdleTTL   time.Duration // Idle time after which a session is dropped (default: 12h)
	CookieSecure     bool          // Mark the session cookie Secure (default: false)
	CheckTokenExpiry bool          // Drop sessions whose JWT exp has passed (default: false)

	ConstanciaS3 S3Config // Optional: serve the constancia from S3 instead of the API

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Session pruning interval (default: 1h)
}

type S3Config struct {
	Bucket    string
	Key       string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// fileConfig is the YAML overlay. Every field is optional; environment
// variables still win over it.
type fileConfig struct {
	API struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"api"`
	PublicURL      string `yaml:"public_url"`
	TrustedProxies string `yaml:"trusted_proxies"`
	Session   struct {
		Driver           string `yaml:"driver"`
		DatabaseFile     string `yaml:"database_file"`
		MasterKeyFile    string `yaml:"master_key_file"`
		IdleTTL          string `yaml:"idle_ttl"`
		CookieSecure     *bool  `yaml:"cookie_secure"`
		CheckTokenExpiry *bool  `yaml:"check_token_expiry"`
	} `yaml:"session"`
	Constancia struct {
		S3 struct {
			Bucket   string `yaml:"bucket"`
			Key      string `yaml:"key"`
			Region   string `yaml:"region"`
			Endpoint string `yaml:"endpoint"`
		} `yaml:"s3"`
	} `yaml:"constancia"`
	Env string `yaml:"env"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Port                 int    `yaml:"port"`
	ShutdownGracePeriod  string `yaml:"shutdown_grace_period"`
	HousekeepingInterval string `yaml:"housekeeping_interval"`
}

func defaultConfig() Config {
	return Config{
		APIURL:               "http://localhost:3001",
		APITimeout:           10 * time.Second,
		SessionDriver:        "sqlite",
		DatabaseFile:         "portal.db",
		SessionIdleTTL:       12 * time.Hour,
		Env:                  "dev",
		LogLevel:             "info",
		LogFormat:            "json",
		Port:                 8080,
		ShutdownGracePeriod:  10 * time.Second,
		HousekeepingInterval: 1 * time.Hour,
	}
}

// LoadConfig reads the configuration from a .env file (if present), the YAML
// file named by PORTAL_CONFIG_FILE (if set) and the environment, in that
// order of increasing precedence.
func LoadConfig() (Config, error) {
	return LoadConfigFrom("")
}

// LoadConfigFrom is LoadConfig with an explicit YAML path. An empty path
// falls back to PORTAL_CONFIG_FILE.
func LoadConfigFrom(path string) (Config, error) {
	// .env never overrides variables that are already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	if path == "" {
		path = os.Getenv("PORTAL_CONFIG_FILE")
	}

	cfg := defaultConfig()
	if path != "" {
		fc, err := readConfigFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := fc.apply(&cfg); err != nil {
			return Config{}, fmt.Errorf("invalid config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readConfigFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &fc, nil
}

func (fc *fileConfig) apply(cfg *Config) error {
	setString(&cfg.APIURL, fc.API.URL)
	setString(&cfg.PublicURL, fc.PublicURL)
	setString(&cfg.TrustedProxies, fc.TrustedProxies)
	setString(&cfg.SessionDriver, fc.Session.Driver)
	setString(&cfg.DatabaseFile, fc.Session.DatabaseFile)
	setString(&cfg.MasterKeyFile, fc.Session.MasterKeyFile)
	setString(&cfg.ConstanciaS3.Bucket, fc.Constancia.S3.Bucket)
	setString(&cfg.ConstanciaS3.Key, fc.Constancia.S3.Key)
	setString(&cfg.ConstanciaS3.Region, fc.Constancia.S3.Region)
	setString(&cfg.ConstanciaS3.Endpoint, fc.Constancia.S3.Endpoint)
	setString(&cfg.Env, fc.Env)
	setString(&cfg.LogLevel, fc.Log.Level)
	setString(&cfg.LogFormat, fc.Log.Format)

	if fc.Session.CookieSecure != nil {
		cfg.CookieSecure = *fc.Session.CookieSecure
	}
	if fc.Session.CheckTokenExpiry != nil {
		cfg.CheckTokenExpiry = *fc.Session.CheckTokenExpiry
	}
	if fc.Port != 0 {
		cfg.Port = fc.Port
	}

	durations := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"api.timeout", fc.API.Timeout, &cfg.APITimeout},
		{"session.idle_ttl", fc.Session.IdleTTL, &cfg.SessionIdleTTL},
		{"shutdown_grace_period", fc.ShutdownGracePeriod, &cfg.ShutdownGracePeriod},
		{"housekeeping_interval", fc.HousekeepingInterval, &cfg.HousekeepingInterval},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		v, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = v
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.APIURL = getEnvOrDefault("PORTAL_API_URL", cfg.APIURL)
	cfg.APITimeout = getEnvDurationOrDefault("PORTAL_API_TIMEOUT", cfg.APITimeout)
	cfg.PublicURL = getEnvOrDefault("PORTAL_PUBLIC_URL", cfg.PublicURL)
	cfg.TrustedProxies = getEnvOrDefault("PORTAL_TRUSTED_PROXIES", cfg.TrustedProxies)

	cfg.SessionDriver = getEnvOrDefault("PORTAL_SESSION_DRIVER", cfg.SessionDriver)
	cfg.DatabaseFile = getEnvOrDefault("PORTAL_DATABASE_FILE", cfg.DatabaseFile)
	cfg.MasterKey = getEnvOrDefault("PORTAL_MASTER_KEY", cfg.MasterKey)
	cfg.MasterKeyFile = getEnvOrDefault("PORTAL_MASTER_KEY_FILE", cfg.MasterKeyFile)
	cfg.SessionIdleTTL = getEnvDurationOrDefault("PORTAL_SESSION_IDLE_TTL", cfg.SessionIdleTTL)
	cfg.CookieSecure = getEnvBoolOrDefault("PORTAL_COOKIE_SECURE", cfg.CookieSecure)
	cfg.CheckTokenExpiry = getEnvBoolOrDefault("PORTAL_CHECK_TOKEN_EXPIRY", cfg.CheckTokenExpiry)

	cfg.ConstanciaS3.Bucket = getEnvOrDefault("PORTAL_CONSTANCIA_S3_BUCKET", cfg.ConstanciaS3.Bucket)
	cfg.ConstanciaS3.Key = getEnvOrDefault("PORTAL_CONSTANCIA_S3_KEY", cfg.ConstanciaS3.Key)
	cfg.ConstanciaS3.Region = getEnvOrDefault("PORTAL_CONSTANCIA_S3_REGION", cfg.ConstanciaS3.Region)
	cfg.ConstanciaS3.Endpoint = getEnvOrDefault("PORTAL_CONSTANCIA_S3_ENDPOINT", cfg.ConstanciaS3.Endpoint)
	cfg.ConstanciaS3.AccessKey = getEnvOrDefault("PORTAL_S3_ACCESS_KEY", cfg.ConstanciaS3.AccessKey)
	cfg.ConstanciaS3.SecretKey = getEnvOrDefault("PORTAL_S3_SECRET_KEY", cfg.ConstanciaS3.SecretKey)

	cfg.Env = getEnvOrDefault("ENV", cfg.Env)
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnvOrDefault("LOG_FORMAT", cfg.LogFormat)
	cfg.Port = getEnvIntOrDefault("PORT", cfg.Port)
	cfg.ShutdownGracePeriod = getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", cfg.ShutdownGracePeriod)
	cfg.HousekeepingInterval = getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", cfg.HousekeepingInterval)
}

// Validate rejects settings the application cannot start with.
func (c Config) Validate() error {
	switch c.SessionDriver {
	case "memory", "sqlite", "bolt":
	default:
		return fmt.Errorf("unknown session driver %q (want memory, sqlite or bolt)", c.SessionDriver)
	}
	if c.APIURL == "" {
		return errors.New("PORTAL_API_URL must not be empty")
	}
	if _, err := httpx.ParseTrustedProxies(c.TrustedProxies); err != nil {
		return fmt.Errorf("PORTAL_TRUSTED_PROXIES: %w", err)
	}
	if c.ConstanciaS3.Bucket != "" && c.ConstanciaS3.Key == "" {
		return errors.New("PORTAL_CONSTANCIA_S3_KEY is required when a bucket is set")
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
