package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sheikh-saqib/crypto-purchase-pipeline/internal/models"
	"github.com/sheikh-saqib/crypto-purchase-pipeline/internal/pipeline"
	"github.com/shopspring/decimal"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP    HTTPConfig
	Logging LoggingConfig
	Policy  PolicyConfig
	Storage StorageConfig
	Rates   RatesConfig
	Users   UsersConfig
	Kafka   KafkaConfig

	BatchConcurrency int
}

type HTTPConfig struct {
	Addr           string
	RateLimitRPS   float64
	RateLimitBurst int
}

type LoggingConfig struct {
	Level  string
	Format string // json|console
}

// PolicyConfig holds the business constants handed to the pipeline.
type PolicyConfig struct {
	CommissionUSD       decimal.Decimal
	SupportedCurrencies []models.Currency
}

type StorageConfig struct {
	Driver      string // sqlite|postgres|memory
	SQLitePath  string
	PostgresDSN string
}

type RatesConfig struct {
	Source      string // fixed|http
	URL         string
	CacheTTL    time.Duration
	HTTPTimeout time.Duration
}

type UsersConfig struct {
	Directory string // memory|redis
	File      string
	RedisAddr string
	KeyPrefix string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Load reads an optional .env file, then environment variables, applying defaults.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("could not load .env file: %v", err)
	}

	cfg := Config{
		HTTP: HTTPConfig{
			Addr: valueOrDefault("HTTP_ADDR", ":8080"),
		},
		Logging: LoggingConfig{
			Level:  valueOrDefault("LOG_LEVEL", "info"),
			Format: valueOrDefault("LOG_FORMAT", "json"),
		},
		Storage: StorageConfig{
			Driver:      strings.ToLower(valueOrDefault("STORAGE_DRIVER", "sqlite")),
			SQLitePath:  valueOrDefault("SQLITE_PATH", "transactions.db"),
			PostgresDSN: os.Getenv("POSTGRES_DSN"),
		},
		Rates: RatesConfig{
			Source: strings.ToLower(valueOrDefault("RATE_SOURCE", "fixed")),
			URL:    valueOrDefault("RATE_SOURCE_URL", "https://api.coinbase.com"),
		},
		Users: UsersConfig{
			Directory: strings.ToLower(valueOrDefault("USER_DIRECTORY", "memory")),
			File:      os.Getenv("USERS_FILE"),
			RedisAddr: valueOrDefault("REDIS_ADDR", "localhost:6379"),
			KeyPrefix: valueOrDefault("REDIS_KEY_PREFIX", "user:"),
		},
		Kafka: KafkaConfig{
			Brokers: splitCSV(os.Getenv("KAFKA_BROKERS")),
			Topic:   valueOrDefault("KAFKA_TOPIC", "purchase_completed"),
		},
	}

	var err error
	if cfg.HTTP.RateLimitRPS, err = parseFloat("HTTP_RATE_LIMIT_RPS", 20); err != nil {
		return Config{}, err
	}
	if cfg.HTTP.RateLimitBurst, err = parseInt("HTTP_RATE_LIMIT_BURST", 40); err != nil {
		return Config{}, err
	}
	if cfg.BatchConcurrency, err = parseInt("BATCH_CONCURRENCY", 4); err != nil {
		return Config{}, err
	}
	if cfg.Rates.CacheTTL, err = parseDuration("RATE_CACHE_TTL", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.Rates.HTTPTimeout, err = parseDuration("RATE_HTTP_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}

	commission := valueOrDefault("COMMISSION_USD", "5.0")
	cfg.Policy.CommissionUSD, err = decimal.NewFromString(commission)
	if err != nil {
		return Config{}, fmt.Errorf("invalid COMMISSION_USD %q: %w", commission, err)
	}
	for _, c := range splitCSV(valueOrDefault("SUPPORTED_CURRENCIES", "USD,EUR,GBP")) {
		cfg.Policy.SupportedCurrencies = append(cfg.Policy.SupportedCurrencies, models.Currency(strings.ToUpper(c)))
	}

	if err := cfg.PipelinePolicy().Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid pipeline policy: %w", err)
	}
	switch cfg.Storage.Driver {
	case "sqlite", "memory":
	case "postgres":
		if cfg.Storage.PostgresDSN == "" {
			return Config{}, fmt.Errorf("POSTGRES_DSN is required when STORAGE_DRIVER is postgres")
		}
	default:
		return Config{}, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.Storage.Driver)
	}
	if cfg.Rates.Source != "fixed" && cfg.Rates.Source != "http" {
		return Config{}, fmt.Errorf("unknown RATE_SOURCE %q", cfg.Rates.Source)
	}
	if cfg.Users.Directory != "memory" && cfg.Users.Directory != "redis" {
		return Config{}, fmt.Errorf("unknown USER_DIRECTORY %q", cfg.Users.Directory)
	}

	return cfg, nil
}

// PipelinePolicy converts the policy settings into the pipeline's Policy.
func (c Config) PipelinePolicy() pipeline.Policy {
	return pipeline.Policy{
		CommissionUSD:       c.Policy.CommissionUSD,
		SupportedCurrencies: c.Policy.SupportedCurrencies,
	}
}

func valueOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
	}
	return n, nil
}

func parseFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
	}
	return f, nil
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
