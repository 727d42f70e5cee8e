package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// Config holds runtime settings for the portal server.
type Config struct {
	Port               string        `yaml:"port"`
	DatabaseURL        string        `yaml:"database_url"`
	LogMode            string        `yaml:"log_mode"`
	SessionTTL         time.Duration `yaml:"session_ttl"`
	CookieSecure       bool          `yaml:"cookie_secure"`
	AllowedOrigins     []string      `yaml:"allowed_origins"`
	UploadDir          string        `yaml:"upload_dir"`
	MaxUploadBytes     int64         `yaml:"max_upload_bytes"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	DBMaxOpenConns     int           `yaml:"db_max_open_conns"`
	LoginRatePerMinute int           `yaml:"login_rate_per_minute"`
	LoginBurst         int           `yaml:"login_burst"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Port:               "5050",
		LogMode:            "development",
		SessionTTL:         6 * time.Hour,
		AllowedOrigins:     []string{"http://localhost:5173"},
		UploadDir:          "uploads",
		MaxUploadBytes:     10 << 20,
		RequestTimeout:     15 * time.Second,
		DBMaxOpenConns:     20,
		LoginRatePerMinute: 10,
		LoginBurst:         5,
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in that order of precedence (environment wins).
//
// Environment variables:
//   - CONFIG_FILE: path to a YAML overlay (optional)
//   - PORT, DATABASE_URL, LOG_MODE
//   - SESSION_TTL (Go duration, default 6h), COOKIE_SECURE
//   - ALLOWED_ORIGINS: comma separated list of CORS origins
//   - UPLOAD_DIR, MAX_UPLOAD_BYTES
//   - REQUEST_TIMEOUT (default 15s), DB_MAX_OPEN_CONNS
//   - LOGIN_RATE_PER_MINUTE, LOGIN_BURST
func Load() (Config, error) {
	_ = godotenv.Load(".env.local")

	cfg := Defaults()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.LogMode = getEnv("LOG_MODE", c.LogMode)
	c.SessionTTL = getEnvAsDuration("SESSION_TTL", c.SessionTTL)
	c.CookieSecure = getEnvAsBool("COOKIE_SECURE", c.CookieSecure)
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		c.AllowedOrigins = splitList(origins)
	}
	c.UploadDir = getEnv("UPLOAD_DIR", c.UploadDir)
	c.MaxUploadBytes = int64(getEnvAsInt("MAX_UPLOAD_BYTES", int(c.MaxUploadBytes)))
	c.RequestTimeout = getEnvAsDuration("REQUEST_TIMEOUT", c.RequestTimeout)
	c.DBMaxOpenConns = getEnvAsInt("DB_MAX_OPEN_CONNS", c.DBMaxOpenConns)
	c.LoginRatePerMinute = getEnvAsInt("LOGIN_RATE_PER_MINUTE", c.LoginRatePerMinute)
	c.LoginBurst = getEnvAsInt("LOGIN_BURST", c.LoginBurst)
}

// Validate checks settings the server cannot start without.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is empty")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
