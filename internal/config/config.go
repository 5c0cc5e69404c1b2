package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Storage    StorageConfig
	Queue      QueueConfig
	Auth       AuthConfig
	Access     AccessConfig
	Membership MembershipConfig
	Payout     PayoutConfig
	Scheduler  SchedulerConfig
	Metrics    MetricsConfig
	Tracing    TracingConfig
	Logging    LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	RateLimitRPS    int
	RateLimitBurst  int
}

// DatabaseConfig holds database configuration.
// When Enabled is false the service runs on the in-memory store.
type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled         bool
	Host            string
	Port            int
	Password        string
	DB              int
	SubscriptionTTL time.Duration
}

// StorageConfig holds object storage configuration for content files
type StorageConfig struct {
	Enabled         bool
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Region          string
	UseSSL          bool
	URLExpiry       time.Duration
}

// QueueConfig holds message queue configuration
type QueueConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Vhost    string
}

// AuthConfig holds bearer token configuration
type AuthConfig struct {
	JWTSecret string
}

// AccessConfig controls how the content service reaches subscription records
type AccessConfig struct {
	// MembershipBaseURL points at a remote membership service.
	// Empty means subscriptions are read from the local store.
	MembershipBaseURL string
	MembershipAPIKey  string
	LookupTimeout     time.Duration
	MaxRetries        int
}

// MembershipConfig holds tier rules
type MembershipConfig struct {
	MaxTiersPerCreator int
	AllowedPrices      []float64
}

// PayoutConfig holds the payout formula parameters
type PayoutConfig struct {
	PerformanceScore    float64
	PerformanceSource   string // static, content
	SmoothingWindowDays int
}

// SchedulerConfig holds cron schedules
type SchedulerConfig struct {
	Enabled                 bool
	RevenueSnapshotSchedule string
	LockTTL                 time.Duration
}

// MetricsConfig holds prometheus server configuration
type MetricsConfig struct {
	Enabled bool
	Port    int
}

// TracingConfig holds jaeger configuration
type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level  string
	Format string
	Output string
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return unmarshal(v)
}

// Default returns the configuration built from defaults alone
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	cfg, err := unmarshal(v)
	if err != nil {
		panic(err)
	}
	return cfg
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks values the services cannot work around
func (c *Config) Validate() error {
	if c.Payout.SmoothingWindowDays <= 0 {
		return fmt.Errorf("payout.smoothingWindowDays must be positive, got %d", c.Payout.SmoothingWindowDays)
	}
	if c.Payout.PerformanceScore < 0 {
		return fmt.Errorf("payout.performanceScore must not be negative, got %v", c.Payout.PerformanceScore)
	}
	switch c.Payout.PerformanceSource {
	case "static", "content":
	default:
		return fmt.Errorf("payout.performanceSource must be static or content, got %q", c.Payout.PerformanceSource)
	}
	if c.Membership.MaxTiersPerCreator < 0 {
		return fmt.Errorf("membership.maxTiersPerCreator must not be negative")
	}
	if c.Access.LookupTimeout <= 0 {
		return fmt.Errorf("access.lookupTimeout must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.readTimeout", "30s")
	v.SetDefault("server.writeTimeout", "30s")
	v.SetDefault("server.shutdownTimeout", "10s")
	v.SetDefault("server.rateLimitRPS", 50)
	v.SetDefault("server.rateLimitBurst", 100)

	// Database defaults
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "creatorhub")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.maxConns", 25)
	v.SetDefault("database.minConns", 5)

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.subscriptionTTL", "30s")

	// Storage defaults
	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.endpoint", "localhost:9000")
	v.SetDefault("storage.accessKeyID", "minioadmin")
	v.SetDefault("storage.secretAccessKey", "minioadmin")
	v.SetDefault("storage.bucketName", "content")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.useSSL", false)
	v.SetDefault("storage.urlExpiry", "1h")

	// Queue defaults
	v.SetDefault("queue.enabled", false)
	v.SetDefault("queue.host", "localhost")
	v.SetDefault("queue.port", 5672)
	v.SetDefault("queue.user", "guest")
	v.SetDefault("queue.password", "guest")
	v.SetDefault("queue.vhost", "/")

	v.SetDefault("auth.jwtSecret", "")

	// Access defaults
	v.SetDefault("access.membershipBaseURL", "")
	v.SetDefault("access.membershipAPIKey", "")
	v.SetDefault("access.lookupTimeout", "3s")
	v.SetDefault("access.maxRetries", 3)

	// Membership defaults
	v.SetDefault("membership.maxTiersPerCreator", 3)
	v.SetDefault("membership.allowedPrices", []float64{})

	// Payout defaults
	v.SetDefault("payout.performanceScore", 0.75)
	v.SetDefault("payout.performanceSource", "static")
	v.SetDefault("payout.smoothingWindowDays", 7)

	// Scheduler defaults
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.revenueSnapshotSchedule", "@daily")
	v.SetDefault("scheduler.lockTTL", "10m")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.serviceName", "creatorhub")
	v.SetDefault("tracing.endpoint", "http://localhost:14268/api/traces")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
}
