package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"
)

// Config holds the configuration for a mindful-platform agent
type Config struct {
	// MQTT configuration
	MQTTBroker   string
	MQTTPort     int
	MQTTUser     string
	MQTTPassword string
	MQTTClientID string

	// Redis configuration
	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int

	// Postgres configuration
	PostgresHost               string
	PostgresPort               int
	PostgresUser               string
	PostgresPassword           string
	PostgresDB                 string
	PostgresSSLMode            string
	PostgresMaxConnections     int
	PostgresMaxIdleConnections int
	PostgresConnMaxLifetime    time.Duration

	// Service configuration
	ServiceName string
	HealthPort  int
	LogLevel    string

	// Analytics agent configuration
	APIPort              int
	DetectionWindowDays  int
	MinEntriesForStats   int
	SweepIntervalMinutes int
	RiskCacheTTLMinutes  int
	CohortSeedFile       string

	// Insight agent configuration
	InsightIntervalMinutes int
	FreeInsightLimit       int
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		MQTTBroker:    "localhost",
		MQTTPort:      1883,
		MQTTUser:      "",
		MQTTPassword:  "",
		MQTTClientID:  "",
		RedisHost:     "localhost",
		RedisPort:     6379,
		RedisPassword: "",
		RedisDB:       0,

		PostgresHost:               "localhost",
		PostgresPort:               5432,
		PostgresUser:               "mindful",
		PostgresPassword:           "",
		PostgresDB:                 "mindful",
		PostgresSSLMode:            "disable",
		PostgresMaxConnections:     10,
		PostgresMaxIdleConnections: 5,
		PostgresConnMaxLifetime:    30 * time.Minute,

		ServiceName: "mindful-agent",
		HealthPort:  8080,
		LogLevel:    "info",

		// Analytics agent defaults
		APIPort:              3004,
		DetectionWindowDays:  30,
		MinEntriesForStats:   10,
		SweepIntervalMinutes: 1440,
		RiskCacheTTLMinutes:  15,
		CohortSeedFile:       "",

		// Insight agent defaults
		InsightIntervalMinutes: 1440,
		FreeInsightLimit:       3,
	}
}

// LoadFromEnv loads configuration from environment variables with MINDFUL_ prefix
func (c *Config) LoadFromEnv() {
	// MQTT configuration
	if v := os.Getenv("MINDFUL_MQTT_BROKER"); v != "" {
		c.MQTTBroker = v
	}
	if v := os.Getenv("MINDFUL_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.MQTTPort = port
		}
	}
	if v := os.Getenv("MINDFUL_MQTT_USER"); v != "" {
		c.MQTTUser = v
	}
	if v := os.Getenv("MINDFUL_MQTT_PASSWORD"); v != "" {
		c.MQTTPassword = v
	}
	if v := os.Getenv("MINDFUL_MQTT_CLIENT_ID"); v != "" {
		c.MQTTClientID = v
	}

	// Redis configuration
	if v := os.Getenv("MINDFUL_REDIS_HOST"); v != "" {
		c.RedisHost = v
	}
	if v := os.Getenv("MINDFUL_REDIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.RedisPort = port
		}
	}
	if v := os.Getenv("MINDFUL_REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv("MINDFUL_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.RedisDB = db
		}
	}

	// Postgres configuration
	if v := os.Getenv("MINDFUL_POSTGRES_HOST"); v != "" {
		c.PostgresHost = v
	}
	if v := os.Getenv("MINDFUL_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.PostgresPort = port
		}
	}
	if v := os.Getenv("MINDFUL_POSTGRES_USER"); v != "" {
		c.PostgresUser = v
	}
	if v := os.Getenv("MINDFUL_POSTGRES_PASSWORD"); v != "" {
		c.PostgresPassword = v
	}
	if v := os.Getenv("MINDFUL_POSTGRES_DB"); v != "" {
		c.PostgresDB = v
	}
	if v := os.Getenv("MINDFUL_POSTGRES_SSLMODE"); v != "" {
		c.PostgresSSLMode = v
	}
	if v := os.Getenv("MINDFUL_POSTGRES_MAX_CONNECTIONS"); v != "" {
		if maxConns, err := strconv.Atoi(v); err == nil {
			c.PostgresMaxConnections = maxConns
		}
	}

	// Service configuration
	if v := os.Getenv("MINDFUL_SERVICE_NAME"); v != "" {
		c.ServiceName = v
	}
	if v := os.Getenv("MINDFUL_HEALTH_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.HealthPort = port
		}
	}
	if v := os.Getenv("MINDFUL_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}

	// Analytics agent configuration
	if v := os.Getenv("MINDFUL_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.APIPort = port
		}
	}
	if v := os.Getenv("MINDFUL_DETECTION_WINDOW_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil {
			c.DetectionWindowDays = days
		}
	}
	if v := os.Getenv("MINDFUL_MIN_ENTRIES_FOR_STATS"); v != "" {
		if minEntries, err := strconv.Atoi(v); err == nil {
			c.MinEntriesForStats = minEntries
		}
	}
	if v := os.Getenv("MINDFUL_SWEEP_INTERVAL_MINUTES"); v != "" {
		if interval, err := strconv.Atoi(v); err == nil {
			c.SweepIntervalMinutes = interval
		}
	}
	if v := os.Getenv("MINDFUL_RISK_CACHE_TTL_MINUTES"); v != "" {
		if ttl, err := strconv.Atoi(v); err == nil {
			c.RiskCacheTTLMinutes = ttl
		}
	}
	if v := os.Getenv("MINDFUL_COHORT_SEED_FILE"); v != "" {
		c.CohortSeedFile = v
	}

	// Insight agent configuration
	if v := os.Getenv("MINDFUL_INSIGHT_INTERVAL_MINUTES"); v != "" {
		if interval, err := strconv.Atoi(v); err == nil {
			c.InsightIntervalMinutes = interval
		}
	}
	if v := os.Getenv("MINDFUL_FREE_INSIGHT_LIMIT"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil {
			c.FreeInsightLimit = limit
		}
	}
}

// LoadFromFlags parses command-line flags and overrides config values
func (c *Config) LoadFromFlags() {
	// MQTT flags
	pflag.StringVar(&c.MQTTBroker, "mqtt-broker", c.MQTTBroker, "MQTT broker hostname")
	pflag.IntVar(&c.MQTTPort, "mqtt-port", c.MQTTPort, "MQTT broker port")
	pflag.StringVar(&c.MQTTUser, "mqtt-user", c.MQTTUser, "MQTT username")
	pflag.StringVar(&c.MQTTPassword, "mqtt-password", c.MQTTPassword, "MQTT password")
	pflag.StringVar(&c.MQTTClientID, "mqtt-client-id", c.MQTTClientID, "MQTT client ID")

	// Redis flags
	pflag.StringVar(&c.RedisHost, "redis-host", c.RedisHost, "Redis hostname")
	pflag.IntVar(&c.RedisPort, "redis-port", c.RedisPort, "Redis port")
	pflag.StringVar(&c.RedisPassword, "redis-password", c.RedisPassword, "Redis password")
	pflag.IntVar(&c.RedisDB, "redis-db", c.RedisDB, "Redis database number")

	// Postgres flags
	pflag.StringVar(&c.PostgresHost, "postgres-host", c.PostgresHost, "Postgres hostname")
	pflag.IntVar(&c.PostgresPort, "postgres-port", c.PostgresPort, "Postgres port")
	pflag.StringVar(&c.PostgresUser, "postgres-user", c.PostgresUser, "Postgres username")
	pflag.StringVar(&c.PostgresPassword, "postgres-password", c.PostgresPassword, "Postgres password")
	pflag.StringVar(&c.PostgresDB, "postgres-db", c.PostgresDB, "Postgres database name")
	pflag.StringVar(&c.PostgresSSLMode, "postgres-sslmode", c.PostgresSSLMode, "Postgres SSL mode")

	// Service flags
	pflag.StringVar(&c.ServiceName, "service-name", c.ServiceName, "Service name")
	pflag.IntVar(&c.HealthPort, "health-port", c.HealthPort, "Health check HTTP port")
	pflag.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")

	// Analytics agent flags
	pflag.IntVar(&c.APIPort, "api-port", c.APIPort, "HTTP API port")
	pflag.IntVar(&c.DetectionWindowDays, "detection-window-days", c.DetectionWindowDays, "Meal entry window for pattern detection (days)")
	pflag.IntVar(&c.MinEntriesForStats, "min-entries-for-stats", c.MinEntriesForStats, "Minimum entries required for statistical detection")
	pflag.IntVar(&c.SweepIntervalMinutes, "sweep-interval-minutes", c.SweepIntervalMinutes, "Interval between full detection sweeps (minutes)")
	pflag.IntVar(&c.RiskCacheTTLMinutes, "risk-cache-ttl-minutes", c.RiskCacheTTLMinutes, "TTL for cached risk scores (minutes)")
	pflag.StringVar(&c.CohortSeedFile, "cohort-seed-file", c.CohortSeedFile, "YAML file with cold-start cohort seed patterns")

	// Insight agent flags
	pflag.IntVar(&c.InsightIntervalMinutes, "insight-interval-minutes", c.InsightIntervalMinutes, "Interval between insight generation sweeps (minutes)")
	pflag.IntVar(&c.FreeInsightLimit, "free-insight-limit", c.FreeInsightLimit, "Insights a free-tier user receives before locking")

	pflag.Parse()
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT broker is required")
	}
	if c.MQTTPort <= 0 || c.MQTTPort > 65535 {
		return fmt.Errorf("MQTT port must be between 1 and 65535")
	}
	if c.RedisHost == "" {
		return fmt.Errorf("Redis host is required")
	}
	if c.RedisPort <= 0 || c.RedisPort > 65535 {
		return fmt.Errorf("Redis port must be between 1 and 65535")
	}
	if c.PostgresHost == "" {
		return fmt.Errorf("Postgres host is required")
	}
	if c.PostgresPort <= 0 || c.PostgresPort > 65535 {
		return fmt.Errorf("Postgres port must be between 1 and 65535")
	}
	if c.HealthPort <= 0 || c.HealthPort > 65535 {
		return fmt.Errorf("Health port must be between 1 and 65535")
	}
	if c.ServiceName == "" {
		return fmt.Errorf("Service name is required")
	}
	if c.DetectionWindowDays <= 0 {
		return fmt.Errorf("Detection window must be at least 1 day")
	}
	if c.MinEntriesForStats < 0 {
		return fmt.Errorf("Minimum entries for statistics cannot be negative")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// MQTTAddress returns the full MQTT broker address
func (c *Config) MQTTAddress() string {
	return fmt.Sprintf("tcp://%s:%d", c.MQTTBroker, c.MQTTPort)
}

// RedisAddress returns the full Redis address
func (c *Config) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// PostgresConnectionString returns a lib/pq connection string
func (c *Config) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser,
		c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}
