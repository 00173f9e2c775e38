// internal/infrastructure/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers
const (
	StoreDriverMongo  = "mongo"
	StoreDriverMemory = "memory"
)

// Config holds all configuration for the application
type Config struct {
	// App
	AppVersion string
	LogLevel   string

	// Server
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Store
	StoreDriver   string
	MongoURI      string
	MongoDB       string
	MongoUser     string
	MongoPassword string

	// AWS / SQS
	AWSRegion               string
	AWSEndpoint             string
	MovementQueue           string
	PreNotificationQueue    string
	CustomsDeclarationQueue string
	QueueWaitSeconds        int
	EtaNotificationQueue    string
	MatchNotificationQueue  string

	// Hold action
	HoldActionEnabled        bool
	HoldActionURL            string
	HoldActionIgnoreNotFound bool
	HoldActionTimeout        time.Duration
	HoldActionRatePerSecond  float64
	HoldActionClientID       string
	HoldActionClientSecret   string
	HoldActionTokenURL       string

	// Audit
	AuditInboundEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		AppVersion:   getEnv("APP_VERSION", "1.0.0"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		Port:         getEnv("PORT", "8080"),
		ReadTimeout:  time.Duration(getEnvAsInt("READ_TIMEOUT", 30)) * time.Second,
		WriteTimeout: time.Duration(getEnvAsInt("WRITE_TIMEOUT", 30)) * time.Second,

		StoreDriver:   getEnv("STORE_DRIVER", StoreDriverMongo),
		MongoURI:      getEnv("MONGODB_DSN", "mongodb://localhost:27017"),
		MongoDB:       getEnv("MONGO_DB", "movement_holds"),
		MongoUser:     getEnv("MONGO_USER", ""),
		MongoPassword: getEnv("MONGO_PASSWORD", ""),

		AWSRegion:               getEnv("AWS_REGION", "eu-west-2"),
		AWSEndpoint:             getEnv("AWS_ENDPOINT", ""),
		MovementQueue:           getEnv("MOVEMENT_QUEUE", "movement-events"),
		PreNotificationQueue:    getEnv("PRENOTIFICATION_QUEUE", "pre-notification-events"),
		CustomsDeclarationQueue: getEnv("CUSTOMS_DECLARATION_QUEUE", "customs-declaration-events"),
		QueueWaitSeconds:        getEnvAsInt("QUEUE_WAIT_SECONDS", 20),
		EtaNotificationQueue:    getEnv("ETA_NOTIFICATION_QUEUE", "movement-eta-notifications"),
		MatchNotificationQueue:  getEnv("MATCH_NOTIFICATION_QUEUE", "movement-match-notifications"),

		HoldActionEnabled:        getEnvAsBool("HOLD_ACTION_ENABLED", false),
		HoldActionURL:            getEnv("HOLD_ACTION_URL", "http://localhost:9090"),
		HoldActionIgnoreNotFound: getEnvAsBool("HOLD_ACTION_IGNORE_NOT_FOUND", false),
		HoldActionTimeout:        getEnvAsDuration("HOLD_ACTION_TIMEOUT", 30*time.Second),
		HoldActionRatePerSecond:  getEnvAsFloat("HOLD_ACTION_RATE_PER_SECOND", 10),
		HoldActionClientID:       getEnv("HOLD_ACTION_CLIENT_ID", ""),
		HoldActionClientSecret:   getEnv("HOLD_ACTION_CLIENT_SECRET", ""),
		HoldActionTokenURL:       getEnv("HOLD_ACTION_TOKEN_URL", ""),

		AuditInboundEnabled: getEnvAsBool("AUDIT_INBOUND_ENABLED", true),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks values that cannot be defaulted sensibly
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverMongo, StoreDriverMemory:
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q, want %q or %q", c.StoreDriver, StoreDriverMongo, StoreDriverMemory)
	}

	// SQS long polling allows at most 20 seconds
	if c.QueueWaitSeconds < 0 || c.QueueWaitSeconds > 20 {
		return fmt.Errorf("QUEUE_WAIT_SECONDS must be between 0 and 20, got %d", c.QueueWaitSeconds)
	}

	if c.HoldActionEnabled && c.HoldActionURL == "" {
		return fmt.Errorf("HOLD_ACTION_URL is required when HOLD_ACTION_ENABLED is set")
	}

	if c.HoldActionClientID != "" && c.HoldActionTokenURL == "" {
		return fmt.Errorf("HOLD_ACTION_TOKEN_URL is required with HOLD_ACTION_CLIENT_ID")
	}

	return nil
}

// Helper functions to get environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
