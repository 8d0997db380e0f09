package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"catalog-service/database"
	"catalog-service/enrichment"
	"catalog-service/providers"
	"catalog-service/storage"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the catalog service.
type Config struct {
	Port    string `validate:"required,numeric"`
	AppEnv  string
	Service string

	Postgres database.Config

	JWTSecret       string        `validate:"required"`
	AccessTokenTTL  time.Duration `validate:"gt=0"`
	BcryptCost      int           `validate:"gte=4,lte=31"`
	RequestTimeout  time.Duration `validate:"gte=0"`
	AllowedOrigins  []string
	RedisURL        string
	CloudWatchLogs  bool
	CloudWatchStats bool

	GeminiAPIKey string
	Gemini       providers.GeminiConfig
	ImageChain   string
	Providers    enrichment.ProviderSettings

	MediaStore string `validate:"oneof=local s3"`
	MediaDir   string `validate:"required"`
	S3         storage.S3Config

	AWSRegion     string
	AWSEndpoint   string
	AWSAccessKey  string
	AWSSecretKey  string
	UseAWSSecrets bool
}

// SecretGetter reads a named secret. *aws.SecretsClient satisfies it.
type SecretGetter interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

var configValidator = validator.New()

// LoadConfig reads .env (if present) and the environment, applies the Secrets
// Manager override when AWS_USE_SECRETS=true and validates the result.
func LoadConfig(ctx context.Context, newSecrets func(*Config) (SecretGetter, error)) (*Config, error) {
	_ = godotenv.Load()

	cfg := configFromEnv()
	if cfg.UseAWSSecrets && newSecrets != nil {
		sm, err := newSecrets(cfg)
		if err != nil {
			return nil, fmt.Errorf("secrets manager: %w", err)
		}
		applySecrets(ctx, cfg, sm)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func configFromEnv() *Config {
	mediaStore := strings.ToLower(getEnv("MEDIA_STORE", "local"))
	return &Config{
		Port:    getEnv("PORT", "8085"),
		AppEnv:  getEnv("APP_ENV", "development"),
		Service: getEnv("SERVICE_NAME", "catalog-service"),

		Postgres: database.Config{
			Host:        os.Getenv("POSTGRES_HOST"),
			Port:        getEnv("POSTGRES_PORT", "5432"),
			User:        os.Getenv("POSTGRES_USER"),
			Password:    os.Getenv("POSTGRES_PASSWORD"),
			Name:        os.Getenv("POSTGRES_DB"),
			SSLMode:     getEnv("POSTGRES_SSLMODE", "disable"),
			TimeZone:    getEnv("POSTGRES_TIMEZONE", "UTC"),
			MaxAttempts: getEnvInt("POSTGRES_MAX_ATTEMPTS", 5),
		},

		JWTSecret:       os.Getenv("JWT_SECRET"),
		AccessTokenTTL:  time.Duration(getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 60)) * time.Minute,
		BcryptCost:      getEnvInt("BCRYPT_COST", 10),
		RequestTimeout:  getEnvDuration("REQUEST_TIMEOUT", 0),
		AllowedOrigins:  splitList(getEnv("ALLOWED_ORIGINS", "*")),
		RedisURL:        os.Getenv("REDIS_URL"),
		CloudWatchLogs:  getEnvBool("CLOUDWATCH_LOGS_ENABLED", false),
		CloudWatchStats: getEnvBool("CLOUDWATCH_ENABLED", false),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		Gemini: providers.GeminiConfig{
			Model:       getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			Temperature: 0.85,
			TopP:        0.9,
			Timeout:     getEnvDuration("GEMINI_TIMEOUT", 30*time.Second),
		},
		ImageChain: getEnv("IMAGE_API_PROVIDER", "placeholder"),
		Providers: enrichment.ProviderSettings{
			Pollinations: providers.PollinationsConfig{
				Width:   getEnvInt("POLLINATIONS_WIDTH", 1024),
				Height:  getEnvInt("POLLINATIONS_HEIGHT", 1024),
				Seed:    os.Getenv("POLLINATIONS_SEED"),
				NoLogo:  getEnv("POLLINATIONS_NOLOGO", "1"),
				Timeout: getEnvDuration("POLLINATIONS_TIMEOUT", 120*time.Second),
			},
			OpenAI: providers.OpenAIImageConfig{
				APIKey:  os.Getenv("OPENAI_API_KEY"),
				Model:   getEnv("OPENAI_IMAGE_MODEL", "gpt-image-1"),
				Size:    getEnv("OPENAI_IMAGE_SIZE", "512x512"),
				Timeout: getEnvDuration("OPENAI_TIMEOUT", 120*time.Second),
			},
		},

		MediaStore: mediaStore,
		MediaDir:   getEnv("MEDIA_DIR", "media"),
		S3: storage.S3Config{
			Bucket:           os.Getenv("AWS_S3_BUCKET"),
			Prefix:           os.Getenv("AWS_S3_PREFIX"),
			Endpoint:         os.Getenv("AWS_S3_ENDPOINT"),
			CloudFrontDomain: os.Getenv("AWS_CLOUDFRONT_DOMAIN"),
		},

		AWSRegion:     getEnv("AWS_REGION", "us-east-1"),
		AWSEndpoint:   os.Getenv("AWS_ENDPOINT"),
		AWSAccessKey:  os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretKey:  os.Getenv("AWS_SECRET_ACCESS_KEY"),
		UseAWSSecrets: getEnvBool("AWS_USE_SECRETS", false),
	}
}

// applySecrets overrides credentials with values from Secrets Manager. Missing
// or unreadable secrets keep the environment values.
func applySecrets(ctx context.Context, cfg *Config, sm SecretGetter) {
	if v, err := sm.GetSecret(ctx, "catalog/JWT_SECRET"); err == nil && v != "" {
		cfg.JWTSecret = v
	}
	if v, err := sm.GetSecret(ctx, "catalog/GEMINI_API_KEY"); err == nil && v != "" {
		cfg.GeminiAPIKey = v
	}
	if v, err := sm.GetSecret(ctx, "catalog/OPENAI_API_KEY"); err == nil && v != "" {
		cfg.Providers.OpenAI.APIKey = v
	}

	dbjson, err := sm.GetSecret(ctx, "catalog/DB_CREDENTIALS")
	if err != nil || dbjson == "" {
		return
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(dbjson), &m); err != nil {
		return
	}
	override := func(dst *string, key string) {
		if v, ok := m[key]; ok && v != "" {
			*dst = v
		}
	}
	override(&cfg.Postgres.User, "POSTGRES_USER")
	override(&cfg.Postgres.Password, "POSTGRES_PASSWORD")
	override(&cfg.Postgres.Name, "POSTGRES_DB")
	override(&cfg.Postgres.Host, "POSTGRES_HOST")
	override(&cfg.Postgres.Port, "POSTGRES_PORT")
}

// Validate checks field constraints and the cross-field requirements.
func (c *Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Postgres.User == "" || c.Postgres.Password == "" || c.Postgres.Name == "" || c.Postgres.Host == "" {
		return fmt.Errorf("database config incomplete")
	}
	if c.MediaStore == "s3" && c.S3.Bucket == "" {
		return fmt.Errorf("AWS_S3_BUCKET is required when MEDIA_STORE=s3")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

// getEnvDuration accepts Go durations ("90s") or a plain number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSuffix(strings.TrimSpace(part), "/"); p != "" {
			out = append(out, p)
		}
	}
	return out
}
