package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	LogLevel           string
	Port               string
	DatabaseURL        string
	DBMaxConns         int
	JWTSecret          string
	RedisURL           string
	GeoIPDBPath        string
	StoragePath        string
	CORSAllowedOrigins []string
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RateLimitPerMin    int
	Usage              UsageConfig
}

// UsageConfig drives the daily usage summary job.
type UsageConfig struct {
	RetentionDays int
	Locale        string
	WeekendDays   string
	Timezone      string
	RunHour       int
	RunOnStart    bool
	LockTTL       time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		LogLevel:           os.Getenv("LOG_LEVEL"),
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		DBMaxConns:         getEnvInt("DB_MAX_CONNS", 10),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		RedisURL:           os.Getenv("REDIS_URL"),
		GeoIPDBPath:        os.Getenv("GEOIP_DB_PATH"),
		StoragePath:        getEnv("STORAGE_PATH", "./storage"),
		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		Usage: UsageConfig{
			RetentionDays: getEnvInt("USAGE_RETENTION_DAYS", 60),
			Locale:        getEnv("USAGE_LOCALE", "en-US"),
			WeekendDays:   os.Getenv("USAGE_WEEKEND_DAYS"),
			Timezone:      getEnv("USAGE_TIMEZONE", "UTC"),
			RunHour:       getEnvInt("USAGE_RUN_HOUR", 1),
			RunOnStart:    getEnvBool("USAGE_RUN_ON_START", false),
			LockTTL:       time.Minute * time.Duration(getEnvInt("USAGE_LOCK_TTL_MINUTES", 30)),
		},
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Usage.RetentionDays <= 0 {
		return nil, fmt.Errorf("USAGE_RETENTION_DAYS must be positive")
	}
	if cfg.Usage.RunHour < 0 || cfg.Usage.RunHour > 23 {
		return nil, fmt.Errorf("USAGE_RUN_HOUR must be between 0 and 23")
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Location resolves the configured usage timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Usage.Timezone)
	if err != nil {
		return nil, fmt.Errorf("USAGE_TIMEZONE: %w", err)
	}
	return loc, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
