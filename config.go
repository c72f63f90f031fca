package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/samim9090/noirman-ecommerce/database"
	"github.com/samim9090/noirman-ecommerce/notification"
	aws_pkg "github.com/samim9090/noirman-ecommerce/pkg/aws"
	"github.com/samim9090/noirman-ecommerce/services"
)

// Config holds all configuration for the storefront.
type Config struct {
	Port   string
	AppEnv string

	Postgres database.PostgresConfig
	MongoURL string
	MongoDB  string
	RedisURL string

	JWTSecret           string
	TrustGatewayHeaders bool
	AllowedOrigins      []string

	StripeSecretKey     string
	StripeWebhookSecret string
	Currency            string

	// Event bus: Kafka when brokers are set, SNS otherwise
	EventsTopicARN string
	KafkaBrokers   []string
	KafkaTopic     string

	NotificationQueueURL string
	SMTP                 notification.SMTPConfig

	Shipping services.ShippingPolicy

	CartTTL         time.Duration
	IdempotencyTTL  time.Duration
	ProductCacheTTL time.Duration

	MetricsEnabled   bool
	MetricsNamespace string
	LogGroup         string
	TraceStdout      bool
}

// LoadConfig reads configuration from environment variables (and a .env file
// when present) with optional Secrets Manager override.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:   getEnv("PORT", "5000"),
		AppEnv: getEnv("APP_ENV", "development"),
		Postgres: database.PostgresConfig{
			User:     os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			DBName:   os.Getenv("POSTGRES_DB"),
			Host:     os.Getenv("POSTGRES_HOST"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
			TimeZone: getEnv("POSTGRES_TIMEZONE", "Asia/Kolkata"),
		},
		MongoURL: getEnv("MONGO_URL", "mongodb://localhost:27017"),
		MongoDB:  getEnv("MONGO_DB", "noirman"),
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		JWTSecret:           os.Getenv("JWT_SECRET"),
		TrustGatewayHeaders: os.Getenv("TRUST_GATEWAY_HEADERS") == "true",
		AllowedOrigins:      splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		Currency:            getEnv("CURRENCY", "inr"),

		EventsTopicARN: os.Getenv("EVENTS_SNS_TOPIC_ARN"),
		KafkaBrokers:   splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:     getEnv("KAFKA_TOPIC", "storefront-events"),

		NotificationQueueURL: os.Getenv("NOTIFICATION_QUEUE_URL"),
		SMTP: notification.SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     os.Getenv("SMTP_PORT"),
			Username: os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASS"),
			From:     os.Getenv("SMTP_FROM"),
		},

		MetricsEnabled:   os.Getenv("CLOUDWATCH_METRICS_ENABLED") == "true",
		MetricsNamespace: getEnv("CLOUDWATCH_NAMESPACE", "NoirMan"),
		LogGroup:         os.Getenv("CLOUDWATCH_LOG_GROUP"),
		TraceStdout:      os.Getenv("OTEL_TRACES_STDOUT") == "true",
	}

	var err error
	if cfg.Shipping.FreeThreshold, err = getEnvInt64("FREE_SHIPPING_THRESHOLD", services.DefaultShippingPolicy.FreeThreshold); err != nil {
		return nil, err
	}
	if cfg.Shipping.Fee, err = getEnvInt64("SHIPPING_FEE", services.DefaultShippingPolicy.Fee); err != nil {
		return nil, err
	}
	if cfg.CartTTL, err = getEnvDuration("CART_TTL", 30*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.IdempotencyTTL, err = getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.ProductCacheTTL, err = getEnvDuration("PRODUCT_CACHE_TTL", 10*time.Minute); err != nil {
		return nil, err
	}

	// Override credentials from Secrets Manager when running on AWS
	if os.Getenv("AWS_USE_SECRETS") == "true" {
		if err := cfg.applySecrets(context.Background()); err != nil {
			return nil, err
		}
	}

	if cfg.Postgres.User == "" || cfg.Postgres.Password == "" || cfg.Postgres.DBName == "" || cfg.Postgres.Host == "" {
		return nil, fmt.Errorf("database config incomplete")
	}
	if cfg.JWTSecret == "" && !cfg.TrustGatewayHeaders {
		return nil, fmt.Errorf("JWT_SECRET not set")
	}
	if cfg.StripeSecretKey == "" {
		return nil, fmt.Errorf("STRIPE_SECRET_KEY not set")
	}
	return cfg, nil
}

func (cfg *Config) applySecrets(ctx context.Context) error {
	awsCfg, err := aws_pkg.LoadAWSConfig(ctx)
	if err != nil {
		return err
	}
	sm := aws_pkg.NewSecretsClient(awsCfg)

	if m, err := sm.GetSecretMap(ctx, getEnv("DB_SECRET_NAME", "storefront/DB_CREDENTIALS")); err == nil {
		override(m, "POSTGRES_USER", &cfg.Postgres.User)
		override(m, "POSTGRES_PASSWORD", &cfg.Postgres.Password)
		override(m, "POSTGRES_DB", &cfg.Postgres.DBName)
		override(m, "POSTGRES_HOST", &cfg.Postgres.Host)
		override(m, "POSTGRES_PORT", &cfg.Postgres.Port)
	} else {
		return fmt.Errorf("load database secret: %w", err)
	}

	if m, err := sm.GetSecretMap(ctx, getEnv("APP_SECRET_NAME", "storefront/APP_SECRETS")); err == nil {
		override(m, "JWT_SECRET", &cfg.JWTSecret)
		override(m, "STRIPE_SECRET_KEY", &cfg.StripeSecretKey)
		override(m, "STRIPE_WEBHOOK_SECRET", &cfg.StripeWebhookSecret)
		override(m, "SMTP_PASS", &cfg.SMTP.Password)
	} else {
		return fmt.Errorf("load app secret: %w", err)
	}
	return nil
}

func override(m map[string]string, key string, dst *string) {
	if v, ok := m[key]; ok && v != "" {
		*dst = v
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, val)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
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
