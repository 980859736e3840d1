package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bryanwahyu/compliance-dashboard/internal/domain/progress"
)

// Session store drivers.
const (
	DriverMemory   = "memory"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverMinio    = "minio"
)

// Fast-analysis providers.
const (
	ProviderBackend = "backend"
	ProviderOpenAI  = "openai"
	ProviderLocal   = "local"
)

type Config struct {
	Server struct {
		Port         int    `yaml:"port"`
		SecureCookie bool   `yaml:"secureCookie"`
		LogLevel     string `yaml:"logLevel"`
		LogFormat    string `yaml:"logFormat"` // text | json
	} `yaml:"server"`

	Backend struct {
		URL     string        `yaml:"url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"backend"`

	Progress progress.Config `yaml:"progress"`

	Session struct {
		Driver          string        `yaml:"driver"`
		TTL             time.Duration `yaml:"ttl"`
		CleanupInterval time.Duration `yaml:"cleanupInterval"`
	} `yaml:"session"`

	Database struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	AI struct {
		Provider string `yaml:"provider"`
		APIKey   string `yaml:"apiKey"`
		Model    string `yaml:"model"`
		BaseURL  string `yaml:"baseURL"`
	} `yaml:"ai"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"cors"`

	RateLimit struct {
		Capacity   int `yaml:"capacity"`
		RefillRate int `yaml:"refillRate"`
	} `yaml:"rateLimit"`

	Upload struct {
		MaxBytes       int64 `yaml:"maxBytes"`
		MaxPolicyBytes int   `yaml:"maxPolicyBytes"`
	} `yaml:"upload"`

	Demo struct {
		SampleFile string `yaml:"sampleFile"`
		Watch      bool   `yaml:"watch"`
		// Enabled shortens the loading page to the demo schedule.
		Enabled bool `yaml:"enabled"`
	} `yaml:"demo"`
}

// Load reads the YAML file at path. A missing file is not an error: the
// defaults and environment overrides still apply.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Server.LogFormat == "" {
		c.Server.LogFormat = "text"
	}
	if c.Backend.URL == "" {
		c.Backend.URL = "http://localhost:8000"
	}
	c.Backend.URL = strings.TrimRight(c.Backend.URL, "/")
	if c.Backend.Timeout <= 0 {
		c.Backend.Timeout = 5 * time.Minute
	}
	if c.Demo.Enabled && c.Progress.Total <= 0 {
		c.Progress.Total = progress.DemoConfig().Total
		c.Progress.MessageInterval = progress.DemoConfig().MessageInterval
	}
	c.Progress = c.Progress.WithDefaults()
	if c.Session.Driver == "" {
		c.Session.Driver = DriverMemory
	}
	if c.Session.TTL <= 0 {
		c.Session.TTL = 12 * time.Hour
	}
	if c.Session.CleanupInterval <= 0 {
		c.Session.CleanupInterval = 10 * time.Minute
	}
	if c.Database.Port == 0 {
		switch c.Session.Driver {
		case DriverPostgres:
			c.Database.Port = 5432
		default:
			c.Database.Port = 3306
		}
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Minio.BucketName == "" {
		c.Minio.BucketName = "compliance-sessions"
	}
	if c.AI.Provider == "" {
		c.AI.Provider = ProviderBackend
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
	if c.RateLimit.Capacity <= 0 {
		c.RateLimit.Capacity = 20
	}
	if c.RateLimit.RefillRate <= 0 {
		c.RateLimit.RefillRate = 1
	}
	if c.Upload.MaxBytes <= 0 {
		c.Upload.MaxBytes = 32 << 20
	}
	if c.Upload.MaxPolicyBytes <= 0 {
		c.Upload.MaxPolicyBytes = 1 << 20
	}
}

// applyEnv lets secrets and deployment knobs come from the environment
// (or a .env file loaded before Load).
func (c *Config) applyEnv() {
	str := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	str(&c.Backend.URL, "BACKEND_URL")
	str(&c.Session.Driver, "SESSION_DRIVER")
	str(&c.Database.Password, "DB_PASSWORD")
	str(&c.Minio.AccessKey, "MINIO_ACCESS_KEY")
	str(&c.Minio.SecretKey, "MINIO_SECRET_KEY")
	str(&c.AI.Provider, "AI_PROVIDER")
	str(&c.AI.APIKey, "OPENAI_API_KEY")
	str(&c.AI.Model, "OPENAI_MODEL")
	str(&c.Demo.SampleFile, "DEMO_SAMPLE_FILE")
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
}

// Validate checks the enumerations.
func (c *Config) Validate() error {
	switch c.Session.Driver {
	case DriverMemory, DriverMySQL, DriverPostgres, DriverMinio:
	default:
		return fmt.Errorf("unknown session driver %q", c.Session.Driver)
	}
	switch c.AI.Provider {
	case ProviderBackend, ProviderLocal:
	case ProviderOpenAI:
		if c.AI.APIKey == "" {
			return fmt.Errorf("ai.provider openai requires an API key")
		}
	default:
		return fmt.Errorf("unknown ai provider %q", c.AI.Provider)
	}
	return nil
}

// Helper to build the MySQL DSN
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// PostgresDSN builds a lib/pq connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
