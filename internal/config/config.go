package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all configuration for the client, the CLI and the fake backend.
type Config struct {
	App       AppConfig
	API       APIConfig
	Session   SessionConfig
	Redis     RedisConfig
	Telemetry TelemetryConfig
	MockAPI   MockAPIConfig
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"homefinder"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
}

// APIConfig holds settings for the backend HTTP client.
type APIConfig struct {
	BaseURL    string        `envconfig:"HOMEFINDER_API_URL" default:"http://localhost:5000/api"`
	Timeout    time.Duration `envconfig:"HOMEFINDER_TIMEOUT" default:"30s"`
	CSRFCookie string        `envconfig:"HOMEFINDER_CSRF_COOKIE" default:"csrf_access_token"`
	CSRFHeader string        `envconfig:"HOMEFINDER_CSRF_HEADER" default:"X-CSRF-TOKEN"`
}

// SessionConfig selects where persisted client state lives.
type SessionConfig struct {
	Storage string `envconfig:"SESSION_STORAGE" default:"file"` // memory, file, sqlite, mysql, postgres, redis
	Dir     string `envconfig:"SESSION_DIR" default:""`         // file storage; defaults to ~/.homefinder
	DSN     string `envconfig:"SESSION_DSN" default:""`         // sqlite path or mysql/postgres DSN
}

// RedisConfig holds Redis settings for the redis session storage.
type RedisConfig struct {
	Host      string `envconfig:"REDIS_HOST" default:"localhost"`
	Port      int    `envconfig:"REDIS_PORT" default:"6379"`
	Password  string `envconfig:"REDIS_PASSWORD" default:""`
	DB        int    `envconfig:"REDIS_DB" default:"0"`
	KeyPrefix string `envconfig:"REDIS_KEY_PREFIX" default:"homefinder:"`
}

// TelemetryConfig holds tracing settings. Tracing is disabled when the
// endpoint is empty.
type TelemetryConfig struct {
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:""`
}

// MockAPIConfig holds settings for the in-memory fake backend.
type MockAPIConfig struct {
	Host            string        `envconfig:"MOCKAPI_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"MOCKAPI_PORT" default:"5000"`
	JWTSecret       string        `envconfig:"MOCKAPI_JWT_SECRET" default:"dev-secret-change-me"`
	TokenTTL        time.Duration `envconfig:"MOCKAPI_TOKEN_TTL" default:"1h"`
	Seed            bool          `envconfig:"MOCKAPI_SEED" default:"true"`
	Cache           string        `envconfig:"MOCKAPI_CACHE" default:"memory"` // memory, redis
	MaxUploadBytes  int64         `envconfig:"MOCKAPI_MAX_UPLOAD_BYTES" default:"5242880"`
	ExposeResetKeys bool          `envconfig:"MOCKAPI_EXPOSE_RESET_TOKENS" default:"false"`
	SecureCookies   bool          `envconfig:"MOCKAPI_SECURE_COOKIES" default:"false"`
	AllowedOrigins  []string      `envconfig:"MOCKAPI_ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	ReadTimeout     time.Duration `envconfig:"MOCKAPI_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"MOCKAPI_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"MOCKAPI_SHUTDOWN_TIMEOUT" default:"30s"`
}

// Address returns the fake backend address in host:port format.
func (m *MockAPIConfig) Address() string {
	return fmt.Sprintf("%s:%d", m.Host, m.Port)
}

// Address returns the Redis address in host:port format.
func (r *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
