package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name     string `envconfig:"APP_NAME" default:"BOQ Reconciliation"`
		Port     int    `envconfig:"PORT" default:"8080"`
		LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	}

	DB struct {
		Host        string `envconfig:"DB_HOST" default:"localhost"`
		Port        int    `envconfig:"DB_PORT" default:"5432"`
		User        string `envconfig:"DB_USER" default:"postgres"`
		Password    string `envconfig:"DB_PASSWORD" default:""`
		Name        string `envconfig:"DB_NAME" default:"boqrecon"`
		SSLMode     string `envconfig:"DB_SSLMODE" default:"disable"`
		AutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"false"`
	}

	Server struct {
		Timeout        time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		AllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	}

	// Redis is optional; without an address runs are serialized by the
	// database alone.
	Redis struct {
		Addr     string `envconfig:"REDIS_ADDR"`
		Password string `envconfig:"REDIS_PASSWORD"`
		DB       int    `envconfig:"REDIS_DB" default:"0"`
	}

	Parser struct {
		URL     string        `envconfig:"PARSER_URL"`
		Token   string        `envconfig:"PARSER_TOKEN"`
		Timeout time.Duration `envconfig:"PARSER_TIMEOUT" default:"60s"`
	}

	Auth struct {
		JWTSecret string `envconfig:"JWT_SECRET"`
	}

	// TUI acts on behalf of one user since it has no token to read one from.
	TUI struct {
		UserID string `envconfig:"TUI_USER_ID" default:"local"`
	}

	Matching struct {
		Workers           int           `envconfig:"MATCH_WORKERS" default:"0"`
		ParallelThreshold int           `envconfig:"MATCH_PARALLEL_THRESHOLD" default:"500"`
		LoadRetries       int           `envconfig:"MATCH_LOAD_RETRIES" default:"3"`
		RetryInterval     time.Duration `envconfig:"MATCH_RETRY_INTERVAL" default:"100ms"`
		LockTTL           time.Duration `envconfig:"MATCH_LOCK_TTL" default:"2m"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name, c.DB.SSLMode)
}

// Level parses App.LogLevel, falling back to info.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.App.LogLevel)); err != nil {
		return slog.LevelInfo
	}

	return l
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
