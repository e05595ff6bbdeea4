package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT, default=3000"`
	GinMode  string `env:"GIN_MODE, default=debug"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Database DatabaseConfig
	JWT      JWTConfig
	Assets   AssetsConfig

	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS, default=*"`

	LoginRateLimit LoginRateLimitConfig
}

type DatabaseConfig struct {
	// Driver is one of postgres, mysql, sqlite.
	Driver string `env:"DB_DRIVER, default=postgres"`
	// DSN takes precedence over the discrete connection fields.
	DSN      string `env:"DATABASE_URL"`
	Host     string `env:"DB_HOST, default=localhost"`
	Port     string `env:"DB_PORT, default=5432"`
	User     string `env:"DB_USER, default=projects"`
	Password string `env:"DB_PASSWORD, default=projects"`
	Name     string `env:"DB_NAME, default=projects"`
	SSLMode  string `env:"DB_SSLMODE, default=disable"`
	LogSQL   bool   `env:"DB_LOG_SQL, default=false"`

	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS, default=10"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS, default=5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME, default=30m"`
}

type JWTConfig struct {
	Secret string        `env:"JWT_SECRET, default=default-secret-key-change-me"`
	TTL    time.Duration `env:"JWT_TTL, default=1h"`
}

// AssetsConfig configures avatar storage. Without a bucket, avatar sources
// are stored as given.
type AssetsConfig struct {
	GCSBucket          string        `env:"GCS_BUCKET"`
	GCSCredentialsFile string        `env:"GCS_CREDENTIALS_FILE"`
	FetchTimeout       time.Duration `env:"ASSET_FETCH_TIMEOUT, default=10s"`
}

type LoginRateLimitConfig struct {
	RPS   float64 `env:"LOGIN_RATE_LIMIT_RPS, default=1"`
	Burst int     `env:"LOGIN_RATE_LIMIT_BURST, default=5"`
}

// Load reads an optional .env file and then the process environment.
func Load(ctx context.Context) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return &cfg, nil
}

// ConnectionString returns the connection string for the configured driver.
func (c DatabaseConfig) ConnectionString() string {
	if c.DSN != "" {
		return c.DSN
	}

	switch c.Driver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			c.User,
			c.Password,
			c.Host,
			c.Port,
			c.Name,
		)
	case "sqlite":
		return c.Name + ".db"
	default:
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			c.Host,
			c.Port,
			c.User,
			c.Password,
			c.Name,
			c.SSLMode,
		)
	}
}

// CORSOrigins splits the comma-separated origin list.
func (c *Config) CORSOrigins() []string {
	parts := strings.Split(c.CORSAllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

// IsRelease reports whether gin runs in release mode.
func (c *Config) IsRelease() bool {
	return c.GinMode == "release"
}
