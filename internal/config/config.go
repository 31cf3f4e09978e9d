package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the ErrSight server.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Upload    UploadConfig
	Analytics AnalyticsConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL      string
	CacheTTL time.Duration
}

type UploadConfig struct {
	// MaxFileBytes caps a single uploaded log file.
	MaxFileBytes int64
	// AllowedExtensions is the lowercase extension whitelist.
	AllowedExtensions []string
}

// AnalyticsConfig overrides the engine's tuning constants. Zero values keep
// the engine defaults.
type AnalyticsConfig struct {
	MaxFeatures          int
	ClusterEps           float64
	ClusterMinSize       int
	BurstWindow          time.Duration
	CoOccurrenceMinRatio float64
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("ERRSIGHT_PORT", 8080),
			Env:  envString("ERRSIGHT_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL:      os.Getenv("REDIS_URL"),
			CacheTTL: envDurationSecs("CACHE_TTL_SECS", time.Hour),
		},
		Upload: UploadConfig{
			MaxFileBytes:      int64(envInt("UPLOAD_MAX_FILE_MB", 100)) << 20,
			AllowedExtensions: envList("UPLOAD_ALLOWED_EXTENSIONS", []string{".log"}),
		},
		Analytics: AnalyticsConfig{
			MaxFeatures:          envInt("ANALYTICS_MAX_FEATURES", 0),
			ClusterEps:           envFloat("ANALYTICS_CLUSTER_EPS", 0),
			ClusterMinSize:       envInt("ANALYTICS_CLUSTER_MIN_SIZE", 0),
			BurstWindow:          envDuration("ANALYTICS_BURST_WINDOW", 0),
			CoOccurrenceMinRatio: envFloat("ANALYTICS_COOCCURRENCE_MIN_RATIO", 0),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Upload.MaxFileBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_FILE_MB must be positive")
	}
	for _, ext := range c.Upload.AllowedExtensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("UPLOAD_ALLOWED_EXTENSIONS entries must start with a dot, got %q", ext)
		}
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}

// envList parses a comma-separated list, lowercasing and trimming entries.
func envList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
