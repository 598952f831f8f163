package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Drafts    DraftsConfig    `yaml:"drafts"`
	Cache     CacheConfig     `yaml:"cache"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// DevUser is the login used for every request when not running on a tailnet.
	DevUser string `yaml:"dev_user"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// Draft backends.
const (
	DraftsMemory = "memory"
	DraftsSQLite = "sqlite"
)

type DraftsConfig struct {
	Backend string `yaml:"backend"`
	Dir     string `yaml:"dir"`
}

type CacheConfig struct {
	SizeMB     int `yaml:"size_mb"`
	TTLSeconds int `yaml:"ttl_seconds"`
}

// TTL is the cache entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix LIFTLOG_ and underscore-separated paths:
//
//	LIFTLOG_SERVER_HOST, LIFTLOG_SERVER_PORT, LIFTLOG_SERVER_DEV_USER,
//	LIFTLOG_DB_HOST, LIFTLOG_DB_PORT, LIFTLOG_DB_NAME,
//	LIFTLOG_DB_USER, LIFTLOG_DB_PASSWORD, LIFTLOG_DB_SSLMODE,
//	LIFTLOG_AUTH_API_KEY,
//	LIFTLOG_TAILSCALE_ENABLED, LIFTLOG_TAILSCALE_HOSTNAME, LIFTLOG_TAILSCALE_STATE_DIR,
//	LIFTLOG_DRAFTS_BACKEND, LIFTLOG_DRAFTS_DIR,
//	LIFTLOG_CACHE_SIZE_MB, LIFTLOG_CACHE_TTL_SECONDS,
//	LIFTLOG_METRICS_ENABLED, LIFTLOG_METRICS_PATH
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server:    ServerConfig{DevUser: "local"},
		Tailscale: TailscaleConfig{Hostname: "liftlog", StateDir: "tsnet-state"},
		Drafts:    DraftsConfig{Backend: DraftsMemory, Dir: "drafts"},
		Cache:     CacheConfig{SizeMB: 16, TTLSeconds: 60},
		Metrics:   MetricsConfig{Path: "/metrics"},
	}
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func applyEnvOverrides(cfg *Config) {
	envString("LIFTLOG_SERVER_HOST", &cfg.Server.Host)
	envInt("LIFTLOG_SERVER_PORT", &cfg.Server.Port)
	envString("LIFTLOG_SERVER_DEV_USER", &cfg.Server.DevUser)

	envString("LIFTLOG_DB_HOST", &cfg.Database.Host)
	envInt("LIFTLOG_DB_PORT", &cfg.Database.Port)
	envString("LIFTLOG_DB_NAME", &cfg.Database.Name)
	envString("LIFTLOG_DB_USER", &cfg.Database.User)
	envString("LIFTLOG_DB_PASSWORD", &cfg.Database.Password)
	envString("LIFTLOG_DB_SSLMODE", &cfg.Database.SSLMode)

	envString("LIFTLOG_AUTH_API_KEY", &cfg.Auth.APIKey)

	envBool("LIFTLOG_TAILSCALE_ENABLED", &cfg.Tailscale.Enabled)
	envString("LIFTLOG_TAILSCALE_HOSTNAME", &cfg.Tailscale.Hostname)
	envString("LIFTLOG_TAILSCALE_STATE_DIR", &cfg.Tailscale.StateDir)

	envString("LIFTLOG_DRAFTS_BACKEND", &cfg.Drafts.Backend)
	envString("LIFTLOG_DRAFTS_DIR", &cfg.Drafts.Dir)

	envInt("LIFTLOG_CACHE_SIZE_MB", &cfg.Cache.SizeMB)
	envInt("LIFTLOG_CACHE_TTL_SECONDS", &cfg.Cache.TTLSeconds)

	envBool("LIFTLOG_METRICS_ENABLED", &cfg.Metrics.Enabled)
	envString("LIFTLOG_METRICS_PATH", &cfg.Metrics.Path)
}

func (c *Config) validate() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	switch c.Drafts.Backend {
	case DraftsMemory:
	case DraftsSQLite:
		if c.Drafts.Dir == "" {
			return fmt.Errorf("drafts.dir is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("drafts.backend must be %q or %q, got %q", DraftsMemory, DraftsSQLite, c.Drafts.Backend)
	}
	if c.Cache.SizeMB < 0 || c.Cache.TTLSeconds < 0 {
		return fmt.Errorf("cache.size_mb and cache.ttl_seconds must not be negative")
	}
	if c.Metrics.Enabled && (c.Metrics.Path == "" || c.Metrics.Path[0] != '/') {
		return fmt.Errorf("metrics.path must start with /")
	}
	return nil
}
