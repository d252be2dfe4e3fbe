package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // TIMEZONE must resolve on minimal images

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Port           string
	AllowedOrigins []string
	WSReadTimeout  time.Duration
	WSWriteTimeout time.Duration
	LogLevel       string
	LogFile        string
	PingPeriod     time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64

	// Dashboard time zone; days and hours are bucketed in it
	Timezone *time.Location

	PollPresence time.Duration
	PollTickets  time.Duration
	PollAlerts   time.Duration
	PollRanking  time.Duration

	AgingWarning  time.Duration
	AgingCritical time.Duration

	SkipAuth          bool
	SupabaseJWTSecret string
	OIDCIssuer        string
	Environment       string

	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Port:              getEnv("PORT", "8080"),
		AllowedOrigins:    strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:5173"), ","),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFile:           os.Getenv("LOG_FILE"),
		SkipAuth:          os.Getenv("SKIP_AUTH") == "true",
		SupabaseJWTSecret: os.Getenv("SUPABASE_JWT_SECRET"),
		OIDCIssuer:        os.Getenv("OIDC_ISSUER"),
		Environment:       getEnv("ENV", "production"),
		KafkaTopic:        getEnv("KAFKA_TOPIC", "eprosys.atendimentos"),
		KafkaGroupID:      getEnv("KAFKA_GROUP_ID", "eprosys-analytics"),
	}

	// Parse WebSocket timeouts
	wsReadTimeout, err := strconv.Atoi(getEnv("WS_READ_TIMEOUT", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid WS_READ_TIMEOUT: %w", err)
	}
	config.WSReadTimeout = time.Duration(wsReadTimeout) * time.Second

	wsWriteTimeout, err := strconv.Atoi(getEnv("WS_WRITE_TIMEOUT", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid WS_WRITE_TIMEOUT: %w", err)
	}
	config.WSWriteTimeout = time.Duration(wsWriteTimeout) * time.Second

	// Calculate WebSocket constants
	config.PongWait = config.WSReadTimeout
	config.PingPeriod = (config.PongWait * 9) / 10 // Must be less than pongWait
	config.WriteWait = config.WSWriteTimeout
	config.MaxMessageSize = 512

	config.Timezone, err = time.LoadLocation(getEnv("TIMEZONE", "America/Sao_Paulo"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	if config.PollPresence, err = seconds("POLL_PRESENCE_SECONDS", "10"); err != nil {
		return nil, err
	}
	if config.PollTickets, err = seconds("POLL_TICKETS_SECONDS", "30"); err != nil {
		return nil, err
	}
	if config.PollAlerts, err = seconds("POLL_ALERTS_SECONDS", "60"); err != nil {
		return nil, err
	}
	if config.PollRanking, err = seconds("POLL_RANKING_SECONDS", "300"); err != nil {
		return nil, err
	}

	warning, err := strconv.Atoi(getEnv("AGING_WARNING_MINUTES", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid AGING_WARNING_MINUTES: %w", err)
	}
	critical, err := strconv.Atoi(getEnv("AGING_CRITICAL_MINUTES", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid AGING_CRITICAL_MINUTES: %w", err)
	}
	if critical < warning {
		return nil, fmt.Errorf("AGING_CRITICAL_MINUTES (%d) must not be below AGING_WARNING_MINUTES (%d)", critical, warning)
	}
	config.AgingWarning = time.Duration(warning) * time.Minute
	config.AgingCritical = time.Duration(critical) * time.Minute

	// Trim spaces from allowed origins
	for i, origin := range config.AllowedOrigins {
		config.AllowedOrigins[i] = strings.TrimSpace(origin)
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				config.KafkaBrokers = append(config.KafkaBrokers, b)
			}
		}
	}

	return config, nil
}

// AllowUnverifiedTokens reports whether JWT signatures may be skipped
func (c *Config) AllowUnverifiedTokens() bool {
	return c.Environment == "development"
}

// seconds parses a positive whole number of seconds
func seconds(key, defaultValue string) (time.Duration, error) {
	n, err := strconv.Atoi(getEnv(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive, got %d", key, n)
	}
	return time.Duration(n) * time.Second, nil
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
