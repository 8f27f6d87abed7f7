package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DevAPIKey is used when RESEARCH_API_KEY is not set. Only for local development.
const DevAPIKey = "test-api-key"

var ErrMissingOpenAIKey = errors.New("OPENAI_API_KEY is not set")

// Config is loaded from environment variables (and .env when present).
type Config struct {
	HTTP     HTTPConfig
	Auth     AuthConfig
	OpenAI   OpenAIConfig `envPrefix:"OPENAI_"`
	Worker   WorkerConfig
	Research ResearchConfig
	Postgres PostgresConfig `envPrefix:"POSTGRES_"`
	Redis    RedisConfig    `envPrefix:"REDIS_"`
	Log      LogConfig      `envPrefix:"LOG_"`
}

type HTTPConfig struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:":8000"`
	AllowedOrigins  []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

type AuthConfig struct {
	APIKey string `env:"RESEARCH_API_KEY"`

	// UsingDevKey is set by Sanitize when APIKey fell back to DevAPIKey.
	UsingDevKey bool
}

type OpenAIConfig struct {
	APIKey  string `env:"API_KEY"`
	Model   string `env:"MODEL" envDefault:"gpt-4o"`
	BaseURL string `env:"BASE_URL"`
}

type WorkerConfig struct {
	Workers       int           `env:"WORKERS" envDefault:"8"`
	JobTimeout    time.Duration `env:"JOB_TIMEOUT" envDefault:"15m"`
	JobRetention  time.Duration `env:"JOB_RETENTION" envDefault:"24h"`
	EvictInterval time.Duration `env:"EVICT_INTERVAL" envDefault:"10m"`
}

type ResearchConfig struct {
	MaxSearches       int `env:"MAX_SEARCHES" envDefault:"5"`
	SearchConcurrency int `env:"SEARCH_CONCURRENCY" envDefault:"3"`
}

// PostgresConfig enables the job archive when DSN is set.
type PostgresConfig struct {
	DSN string `env:"DSN"`
}

// RedisConfig enables progress publishing when Addr is set.
type RedisConfig struct {
	Addr          string `env:"ADDR"`
	Password      string `env:"PASSWORD"`
	DB            int    `env:"DB" envDefault:"0"`
	ChannelPrefix string `env:"CHANNEL_PREFIX" envDefault:"research:progress"`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

// Load reads .env if it exists, then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return Config{}, fmt.Errorf("load .env file: %w", err)
		}
	}
	return Parse()
}

func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	cfg.Sanitize()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Sanitize applies guardrails to values loaded from env.
func (c *Config) Sanitize() {
	if c.Auth.APIKey == "" {
		c.Auth.APIKey = DevAPIKey
		c.Auth.UsingDevKey = true
	}

	if c.Worker.Workers < 1 {
		c.Worker.Workers = 1
	}
	if c.Worker.JobTimeout <= 0 {
		c.Worker.JobTimeout = 15 * time.Minute
	}
	if c.Worker.JobRetention < 0 {
		c.Worker.JobRetention = 0
	}
	if c.Worker.EvictInterval <= 0 {
		c.Worker.EvictInterval = 10 * time.Minute
	}

	if c.Research.MaxSearches < 1 {
		c.Research.MaxSearches = 1
	}
	if c.Research.MaxSearches > 20 {
		c.Research.MaxSearches = 20
	}
	if c.Research.SearchConcurrency < 1 {
		c.Research.SearchConcurrency = 1
	}
	if c.Research.SearchConcurrency > c.Research.MaxSearches {
		c.Research.SearchConcurrency = c.Research.MaxSearches
	}

	if c.HTTP.ShutdownTimeout <= 0 {
		c.HTTP.ShutdownTimeout = 10 * time.Second
	}
	origins := c.HTTP.AllowedOrigins[:0]
	for _, o := range c.HTTP.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = append(origins, "*")
	}
	c.HTTP.AllowedOrigins = origins

	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
}

// Validate reports settings the service cannot start without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.OpenAI.APIKey) == "" {
		return ErrMissingOpenAIKey
	}
	return nil
}
