// Package config reads process configuration from the environment. A .env
// file in the working directory is loaded first when present; real
// environment variables win over it.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"

	PaymentProviderStripe = "stripe"
	PaymentProviderFake   = "fake"

	EventBrokerNone  = "none"
	EventBrokerKafka = "kafka"
	EventBrokerAMQP  = "amqp"
)

type Config struct {
	Port     string
	LogLevel slog.Level

	StorageDriver string
	DatabaseURL   string
	SeedProducts  bool

	JWTSecret         string
	JWTExpiry         time.Duration
	JWTExpiryDisabled bool

	PaymentProvider string
	StripeSecretKey string
	PaymentCurrency string
	PaymentTimeout  time.Duration

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	ProductCacheTTL time.Duration
	AuthRateLimit   int

	EventBroker  string
	KafkaBrokers []string
	AMQPURL      string
	AMQPExchange string
}

// Load reads the configuration and validates it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var errs []error
	p := parser{errs: &errs}

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		LogLevel:          p.level("LOG_LEVEL", slog.LevelInfo),
		StorageDriver:     strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverPostgres)),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		SeedProducts:      p.boolean("SEED_PRODUCTS", false),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		JWTExpiry:         p.duration("JWT_EXPIRY", 24*time.Hour),
		JWTExpiryDisabled: p.boolean("JWT_EXPIRY_DISABLED", false),
		PaymentProvider:   strings.ToLower(getEnv("PAYMENT_PROVIDER", PaymentProviderStripe)),
		StripeSecretKey:   getEnv("STRIPE_SECRET_KEY", ""),
		PaymentCurrency:   strings.ToLower(getEnv("PAYMENT_CURRENCY", "eur")),
		PaymentTimeout:    p.duration("PAYMENT_TIMEOUT", 10*time.Second),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           p.integer("REDIS_DB", 0),
		ProductCacheTTL:   p.duration("PRODUCT_CACHE_TTL", 5*time.Minute),
		AuthRateLimit:     p.integer("AUTH_RATE_LIMIT", 10),
		EventBroker:       strings.ToLower(getEnv("EVENT_BROKER", EventBrokerNone)),
		KafkaBrokers:      splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		AMQPURL:           getEnv("AMQP_URL", ""),
		AMQPExchange:      getEnv("AMQP_EXCHANGE", "orders"),
	}

	errs = append(errs, cfg.validate()...)
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() []error {
	var errs []error

	switch c.StorageDriver {
	case StorageDriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres storage driver"))
		}
	case StorageDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER must be %q or %q", StorageDriverPostgres, StorageDriverMemory))
	}

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if !c.JWTExpiryDisabled && c.JWTExpiry <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRY must be positive"))
	}

	switch c.PaymentProvider {
	case PaymentProviderStripe:
		if c.StripeSecretKey == "" {
			errs = append(errs, errors.New("STRIPE_SECRET_KEY is required for the stripe payment provider"))
		}
	case PaymentProviderFake:
	default:
		errs = append(errs, fmt.Errorf("PAYMENT_PROVIDER must be %q or %q", PaymentProviderStripe, PaymentProviderFake))
	}
	if c.PaymentTimeout <= 0 {
		errs = append(errs, errors.New("PAYMENT_TIMEOUT must be positive"))
	}

	if c.AuthRateLimit < 0 {
		errs = append(errs, errors.New("AUTH_RATE_LIMIT must not be negative"))
	}

	switch c.EventBroker {
	case EventBrokerNone:
	case EventBrokerKafka:
		if len(c.KafkaBrokers) == 0 {
			errs = append(errs, errors.New("KAFKA_BROKERS is required for the kafka event broker"))
		}
	case EventBrokerAMQP:
		if c.AMQPURL == "" {
			errs = append(errs, errors.New("AMQP_URL is required for the amqp event broker"))
		}
	default:
		errs = append(errs, fmt.Errorf("EVENT_BROKER must be one of %q, %q, %q", EventBrokerNone, EventBrokerKafka, EventBrokerAMQP))
	}
	return errs
}

func getEnv(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parser collects conversion errors so all of them are reported at once.
type parser struct {
	errs *[]error
}

func (p parser) fail(key, val string, err error) {
	*p.errs = append(*p.errs, fmt.Errorf("%s=%q: %w", key, val, err))
}

func (p parser) duration(key string, fallback time.Duration) time.Duration {
	val := getEnv(key, "")
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		p.fail(key, val, err)
		return fallback
	}
	return d
}

func (p parser) boolean(key string, fallback bool) bool {
	val := getEnv(key, "")
	if val == "" {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		p.fail(key, val, err)
		return fallback
	}
	return b
}

func (p parser) integer(key string, fallback int) int {
	val := getEnv(key, "")
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		p.fail(key, val, err)
		return fallback
	}
	return n
}

func (p parser) level(key string, fallback slog.Level) slog.Level {
	val := getEnv(key, "")
	if val == "" {
		return fallback
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(val)); err != nil {
		p.fail(key, val, err)
		return fallback
	}
	return l
}
