package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config groups the application configuration (read via Viper from env vars
// and, optionally, a .env file).
type Config struct {
	App     AppConfig
	DB      DBConfig
	HTTP    HTTPConfig
	JWT     JWTConfig
	FIRS    FIRSConfig
	Host    HostConfig
	Webhook WebhookConfig
	Worker  WorkerConfig
}

// AppConfig holds general application settings.
type AppConfig struct {
	Env  string // development, staging, production
	Name string
}

// DBConfig holds PostgreSQL settings. If DatabaseURL is non-empty it is used
// as the full connection string.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
}

// ConnectionString returns DatabaseURL if set, otherwise the built DSN.
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN builds the PostgreSQL connection string with URL encoding for special
// characters in the password.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// HTTPConfig holds the HTTP server settings.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr returns the listen address (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// JWTConfig holds settings for the read-API bearer tokens.
type JWTConfig struct {
	Secret     string
	Expiration int // minutes
	Issuer     string
}

// FIRSConfig holds settings for the FIRS e-invoicing platform.
type FIRSConfig struct {
	BaseURL        string // e.g. https://einvoice.firs.gov.ng
	APIKey         string
	APISecret      string
	ServiceID      string // 8-character service ID assigned by FIRS
	Environment    string // "sandbox" or "production"
	SupplierTIN    string
	KeyPath        string // PEM private key used to sign proof artifacts
	CertPath       string // PEM certificate embedded in the artifact payload
	RequestTimeout time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	PollInterval   time.Duration
}

// HostConfig points at the host business-record system's read API, the
// source of invoice and party data.
type HostConfig struct {
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration
}

// WebhookConfig holds credentials for the host-system webhook endpoints.
// APIKeyHash is a bcrypt hash of the shared webhook key.
type WebhookConfig struct {
	APIKeyHash string
}

// WorkerConfig bounds the submission worker pool.
type WorkerConfig struct {
	MaxConcurrent int64
}

// Load reads configuration from environment variables (and optionally from a
// .env file in the working directory). Env vars take priority.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // the file is optional

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:  getString(v, "APP_ENV", "development"),
			Name: getString(v, "APP_NAME", "zutax-api"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "zutax"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "zutax-api"),
		},
		FIRS: FIRSConfig{
			BaseURL:        getString(v, "FIRS_BASE_URL", ""),
			APIKey:         getString(v, "FIRS_API_KEY", ""),
			APISecret:      getString(v, "FIRS_API_SECRET", ""),
			ServiceID:      getString(v, "FIRS_SERVICE_ID", ""),
			Environment:    getString(v, "FIRS_ENVIRONMENT", "sandbox"),
			SupplierTIN:    getString(v, "FIRS_SUPPLIER_TIN", ""),
			KeyPath:        getString(v, "FIRS_SIGNING_KEY_PATH", ""),
			CertPath:       getString(v, "FIRS_CERT_PATH", ""),
			RequestTimeout: getDuration(v, "FIRS_REQUEST_TIMEOUT", 30*time.Second),
			MaxRetries:     getInt(v, "FIRS_MAX_RETRIES", 5),
			RetryBaseDelay: getDuration(v, "FIRS_RETRY_BASE_DELAY", 2*time.Second),
			RetryMaxDelay:  getDuration(v, "FIRS_RETRY_MAX_DELAY", 5*time.Minute),
			PollInterval:   getDuration(v, "FIRS_POLL_INTERVAL", time.Minute),
		},
		Host: HostConfig{
			BaseURL:        getString(v, "HOST_BASE_URL", ""),
			APIKey:         getString(v, "HOST_API_KEY", ""),
			RequestTimeout: getDuration(v, "HOST_REQUEST_TIMEOUT", 10*time.Second),
		},
		Webhook: WebhookConfig{
			APIKeyHash: getString(v, "WEBHOOK_API_KEY_HASH", ""),
		},
		Worker: WorkerConfig{
			MaxConcurrent: int64(getInt(v, "WORKER_MAX_CONCURRENT", 8)),
		},
	}

	if cfg.FIRS.ServiceID != "" && len(cfg.FIRS.ServiceID) != 8 {
		return nil, fmt.Errorf("config: FIRS_SERVICE_ID must be exactly 8 characters, got %d", len(cfg.FIRS.ServiceID))
	}

	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, _ := strconv.Atoi(v.GetString(key))
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getDuration(v *viper.Viper, key string, def time.Duration) time.Duration {
	if v.IsSet(key) {
		if d, err := time.ParseDuration(v.GetString(key)); err == nil {
			return d
		}
	}
	return def
}
