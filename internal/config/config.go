// Package config reads settings from the environment, after loading an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Env      string
	Port     string
	LogLevel string

	DatabaseURL string
	RedisURL    string

	ClerkSecretKey     string
	ClerkWebhookSecret string
	ModeratorIDs       []string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3PublicURL string

	FCMServiceAccountJSON string
	SentryDSN             string
	OverpassURL           string
	ShareLinkBase         string

	MetricsUser string
	MetricsPass string

	// Addresses or CIDRs whose X-Forwarded-For is believed.
	TrustedProxies []string

	// TimeZone decides which calendar day "today" is for streaks.
	TimeZone string
}

// Load reads .env when present and then the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using environment")
	}

	return &Config{
		Env:      getEnv("APP_ENV", "development"),
		Port:     getEnv("PORT", "3000"),
		LogLevel: getEnv("LOG_LEVEL", ""),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		ClerkSecretKey:     os.Getenv("CLERK_SECRET_KEY"),
		ClerkWebhookSecret: os.Getenv("CLERK_WEBHOOK_SECRET"),
		ModeratorIDs:       splitList(os.Getenv("MODERATOR_IDS")),

		S3Bucket:    os.Getenv("S3_BUCKET"),
		S3Region:    getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3PublicURL: os.Getenv("S3_PUBLIC_URL"),

		FCMServiceAccountJSON: os.Getenv("FCM_SERVICE_ACCOUNT_JSON"),
		SentryDSN:             os.Getenv("SENTRY_DSN"),
		OverpassURL:           getEnv("OVERPASS_URL", "https://overpass-api.de/api/interpreter"),
		ShareLinkBase:         getEnv("SHARE_LINK_BASE", "https://wildapp.app/invite"),

		MetricsUser: os.Getenv("METRICS_USER"),
		MetricsPass: os.Getenv("METRICS_PASS"),

		TrustedProxies: splitList(os.Getenv("TRUSTED_PROXIES")),

		TimeZone: getEnv("APP_TIMEZONE", "UTC"),
	}
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// ValidateServe checks the settings `serve` cannot run without.
func (c *Config) ValidateServe() error {
	var errs []error
	if c.ClerkSecretKey == "" {
		errs = append(errs, errors.New("CLERK_SECRET_KEY is required"))
	}
	if c.DatabaseURL == "" && !c.IsDev() {
		errs = append(errs, errors.New("DATABASE_URL is required outside development"))
	}
	return errors.Join(errs...)
}

func (c *Config) ValidateDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// GetInt reads an integer variable, falling back on absence or parse error.
func GetInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
