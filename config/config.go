package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the API server and CLI commands read from the environment.
type Config struct {
	Env  string
	Port string

	MongoURI      string
	MongoDatabase string

	// RedisAddress enables the report rate limiter and the cross-instance
	// event relay. Empty leaves both off.
	RedisAddress  string
	RedisPassword string

	JWTSecret string
	JWTTTL    time.Duration
	Domain    string

	CORSOrigins []string

	ReportDailyLimit    int
	ReportLimitPrefix   string
	StatusTransitions   string
	StatusEventsChannel string

	LogLevel  string
	LogFormat string
}

// IsProduction reports whether GO_ENV is "production".
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg := &Config{
		Env:                 getEnv("GO_ENV", "development"),
		Port:                getEnv("PORT", "8080"),
		MongoURI:            os.Getenv("MONGODB_URI"),
		MongoDatabase:       getEnv("MONGODB_DATABASE", "civicsetu"),
		RedisAddress:        os.Getenv("REDIS_ADDRESS"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		Domain:              os.Getenv("DOMAIN"),
		CORSOrigins:         splitList(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:3001,http://localhost:8081")),
		ReportLimitPrefix:   getEnv("REDIS_QUEUE_FOR_REPORT_LIMIT", "report-limit"),
		StatusTransitions:   strings.ToLower(getEnv("STATUS_TRANSITIONS", "strict")),
		StatusEventsChannel: getEnv("STATUS_EVENTS_CHANNEL", "civicsetu:report-status"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "console"),
	}

	ttlHours, err := getInt("JWT_TTL_HOURS", 72)
	if err != nil {
		return nil, err
	}
	cfg.JWTTTL = time.Duration(ttlHours) * time.Hour

	cfg.ReportDailyLimit, err = getInt("REPORT_DAILY_LIMIT", 20)
	if err != nil {
		return nil, err
	}

	switch cfg.StatusTransitions {
	case "strict", "permissive":
	default:
		return nil, fmt.Errorf("STATUS_TRANSITIONS must be strict or permissive, got %q", cfg.StatusTransitions)
	}

	return cfg, nil
}

// ValidateServer checks the settings the HTTP server cannot start without.
func (c *Config) ValidateServer() error {
	if c.MongoURI == "" {
		return fmt.Errorf("please define the MONGODB_URI environment variable")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is not set")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
