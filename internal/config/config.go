package config

import (
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppPort          = "8080"
	defaultCountry          = "Thailand"
	defaultEventsTopic      = "order.created"
	defaultWebhookTolerance = 5 * time.Minute
	defaultOrderTxTimeout   = 10 * time.Second
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppPort    string
	AppEnv     string

	JWTSecret         string
	InternalSecretKey string

	// Payment provider webhook
	WebhookSecret    string
	WebhookTolerance time.Duration

	// Optional infrastructure; empty disables the component.
	RedisAddr    string
	KafkaBrokers []string
	EventsTopic  string

	DefaultCountry string
	OrderTxTimeout time.Duration
}

// Load reads the environment (and a .env file when present).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:            os.Getenv("DB_HOST"),
		DBUser:            os.Getenv("DB_USER"),
		DBPassword:        os.Getenv("DB_PASSWORD"),
		DBName:            os.Getenv("DB_NAME"),
		DBPort:            os.Getenv("DB_PORT"),
		AppPort:           getenv("APP_PORT", defaultAppPort),
		AppEnv:            os.Getenv("APP_ENV"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		InternalSecretKey: os.Getenv("INTERNAL_SECRET_KEY"),
		WebhookSecret:     os.Getenv("PAYMENT_WEBHOOK_SECRET"),
		WebhookTolerance:  getDuration("WEBHOOK_TOLERANCE", defaultWebhookTolerance),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		KafkaBrokers:      splitList(os.Getenv("KAFKA_BROKERS")),
		EventsTopic:       getenv("ORDER_EVENTS_TOPIC", defaultEventsTopic),
		DefaultCountry:    getenv("DEFAULT_COUNTRY", defaultCountry),
		OrderTxTimeout:    getDuration("ORDER_TX_TIMEOUT", defaultOrderTxTimeout),
	}

	if cfg.DBHost == "" {
		return nil, errors.New("DB_HOST is not set")
	}
	if cfg.WebhookSecret == "" {
		return nil, errors.New("PAYMENT_WEBHOOK_SECRET is not set")
	}

	return cfg, nil
}

// LoadConfig is Load for main packages: a broken environment is fatal.
func LoadConfig() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("Environment variables not loaded properly: %v", err)
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
