package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/platinummonkey/staffing/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Auth          AuthConfig
	RateLimit     RateLimitConfig
	Redis         RedisConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s health checks)
	HealthPort string

	CORSOrigins  []string
	MaxBodyBytes int64

	// TrustedProxies lists the IPs or CIDRs allowed to set X-Forwarded-For.
	// Empty means the peer address is always the client.
	TrustedProxies []string
}

// DatabaseConfig holds PostgreSQL settings. URL wins over the individual
// parts when both are set.
type DatabaseConfig struct {
	URL         string
	Host        string
	Port        string
	User        string
	Password    string
	Name        string
	SSLMode     string
	ReplicaURLs string

	MaxConns     int
	MinConns     int
	Timeout      time.Duration
	MaxLifetime  time.Duration
	MaxIdleTime  time.Duration
	MigrateOnRun bool
}

// AuthConfig holds session settings
type AuthConfig struct {
	JWTSecret    string
	SessionTTL   time.Duration
	CookieSecure bool
}

// RateLimitConfig bounds login attempts per client IP
type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Window   time.Duration
	Burst    int
}

// RedisConfig is optional. When URL is set the login limiter is shared
// across instances.
type RedisConfig struct {
	URL        string
	Password   string
	DB         int
	MaxRetries int
	PoolSize   int
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool

	AuditEnabled bool

	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool
}

// LoadConfig loads an optional .env file, then reads configuration from the
// environment. Variables already set in the environment win over the file.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv reads configuration from the environment only
func FromEnv() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Database:      loadDatabaseConfig(),
		Auth:          loadAuthConfig(),
		RateLimit:     loadRateLimitConfig(),
		Redis:         loadRedisConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("STAFFING_HOST", "0.0.0.0"),
		Port:            getEnv("STAFFING_PORT", "8080"),
		ReadTimeout:     getEnvDuration("STAFFING_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("STAFFING_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("STAFFING_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("STAFFING_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("STAFFING_HEALTH_PORT", "9090"),
		CORSOrigins:     getEnvList("STAFFING_CORS_ORIGINS", []string{"*"}),
		MaxBodyBytes:    getEnvInt64("STAFFING_MAX_BODY_BYTES", 1<<20),
		TrustedProxies:  getEnvList("STAFFING_TRUSTED_PROXIES", nil),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:          getEnv("STAFFING_DATABASE_URL", ""),
		Host:         getEnv("STAFFING_DB_HOST", "localhost"),
		Port:         getEnv("STAFFING_DB_PORT", "5432"),
		User:         getEnv("STAFFING_DB_USER", "postgres"),
		Password:     getEnv("STAFFING_DB_PASSWORD", ""),
		Name:         getEnv("STAFFING_DB_NAME", "staffing"),
		SSLMode:      getEnv("STAFFING_DB_SSLMODE", "disable"),
		ReplicaURLs:  getEnv("STAFFING_DB_REPLICA_URLS", ""),
		MaxConns:     getEnvInt("STAFFING_DB_MAX_CONNS", 20),
		MinConns:     getEnvInt("STAFFING_DB_MIN_CONNS", 2),
		Timeout:      getEnvDuration("STAFFING_DB_TIMEOUT", 5*time.Second),
		MaxLifetime:  getEnvDuration("STAFFING_DB_MAX_LIFETIME", 30*time.Minute),
		MaxIdleTime:  getEnvDuration("STAFFING_DB_MAX_IDLE_TIME", 5*time.Minute),
		MigrateOnRun: getEnvBool("STAFFING_DB_MIGRATE", true),
	}
}

func loadAuthConfig() AuthConfig {
	return AuthConfig{
		JWTSecret:    getEnv("STAFFING_JWT_SECRET", ""),
		SessionTTL:   getEnvDuration("STAFFING_SESSION_TTL", 8*time.Hour),
		CookieSecure: getEnvBool("STAFFING_COOKIE_SECURE", false),
	}
}

func loadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:  getEnvBool("STAFFING_LOGIN_RATE_LIMIT_ENABLED", true),
		Requests: getEnvInt("STAFFING_LOGIN_RATE_LIMIT", 10),
		Window:   getEnvDuration("STAFFING_LOGIN_RATE_WINDOW", time.Minute),
		Burst:    getEnvInt("STAFFING_LOGIN_RATE_BURST", 5),
	}
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		URL:        getEnv("STAFFING_REDIS_URL", ""),
		Password:   getEnv("STAFFING_REDIS_PASSWORD", ""),
		DB:         getEnvInt("STAFFING_REDIS_DB", -1),
		MaxRetries: getEnvInt("STAFFING_REDIS_MAX_RETRIES", 3),
		PoolSize:   getEnvInt("STAFFING_REDIS_POOL_SIZE", 10),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           observability.ParseLogLevel(getEnv("STAFFING_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("STAFFING_METRICS_ENABLED", true),
		AuditEnabled:       getEnvBool("STAFFING_AUDIT_ENABLED", true),
		OTelEnabled:        getEnvBool("STAFFING_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("STAFFING_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("STAFFING_OTEL_SERVICE_NAME", "staffing-server"),
		OTelServiceVersion: getEnv("STAFFING_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("STAFFING_OTEL_INSECURE", true),
	}
}

// DSN returns the connection string for the primary database
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + d.Port,
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": []string{d.SSLMode}}.Encode(),
	}
	return u.String()
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}
	for _, proxy := range c.Server.TrustedProxies {
		if net.ParseIP(proxy) == nil {
			if _, _, err := net.ParseCIDR(proxy); err != nil {
				return fmt.Errorf("invalid trusted proxy %q", proxy)
			}
		}
	}

	if c.Database.URL == "" && (c.Database.Host == "" || c.Database.Name == "") {
		return fmt.Errorf("database URL or host and name are required")
	}
	if c.Database.MaxConns <= 0 {
		return fmt.Errorf("database max connections must be positive")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("STAFFING_JWT_SECRET is required")
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
			return fmt.Errorf("login rate limit requires a positive request count and window")
		}
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping blank entries
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
