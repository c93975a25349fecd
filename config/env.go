package config

import (
	"fmt"
	"os"
	"sync"

	"github.com/joho/godotenv"
)

// Config holds all environment configuration
type Config struct {
	// Database
	DatabaseHost     string
	DatabasePort     string
	PostgresUser     string
	PostgresPassword string
	DatabaseName     string

	// Authentication
	JWTSecret string
	AdminKey  string

	// Mailer
	MailerURL string

	// Scheduler
	SchedulerIntervalSeconds int

	// Other
	KafkaBroker     string
	ActivityTopic   string
	FrontendURL     string
	DefaultTimezone string
}

var (
	appConfig *Config
	onceEnv   sync.Once
)

// loadConfig loads and validates all environment variables
func loadConfig() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	config := &Config{
		// Database - required
		DatabaseHost:     getEnvWithDefault("DATABASE_HOST", "localhost"),
		DatabasePort:     getEnvWithDefault("DATABASE_PORT", "5432"),
		PostgresUser:     getEnvWithDefault("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnvWithDefault("POSTGRES_PASSWORD", "postgres"),
		DatabaseName:     getEnvWithDefault("DATABASE_NAME", "postgres"),

		// JWT - required
		JWTSecret: getEnvWithDefault("JWT_SECRET", "dummyjwt"),
		// Shared secret for the admin login endpoint - required
		AdminKey: getEnv("ADMIN_KEY"),

		// Mailer - required for notification delivery
		MailerURL: getEnv("MAILER_URL"),

		// Scheduler
		SchedulerIntervalSeconds: getEnvAsInt("SCHEDULER_INTERVAL_SECONDS", 60),

		// Other
		KafkaBroker:     os.Getenv("KAFKA_BROKER"),
		ActivityTopic:   getEnvWithDefault("ACTIVITY_TOPIC", "round-activity"),
		FrontendURL:     getEnvWithDefault("FRONTEND_URL", "http://localhost:3000"),
		DefaultTimezone: getEnvWithDefault("DEFAULT_TIMEZONE", "America/New_York"),
	}

	appConfig = config
	return config
}

func Env() *Config {
	onceEnv.Do(func() {
		appConfig = loadConfig()
	})
	return appConfig
}

// Helper functions
func getEnv(key string) string {
	value := os.Getenv(key)
	if value == "" && IsProduction() {
		panic(fmt.Sprintf("Required environment variable %s is not set", key))
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var value int
	_, err := fmt.Sscanf(valueStr, "%d", &value)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// IsProduction returns true if running in production
func IsProduction() bool {
	return getEnvWithDefault("ENVIRONMENT", "development") == "production"
}

// IsDevelopment returns true if running in development
func IsDevelopment() bool {
	return !IsProduction()
}
