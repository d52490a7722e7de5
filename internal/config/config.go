package config

import (
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"strings"
	"time"

	"github.com/joho/godotenv" // For loading .env files
	"github.com/shopspring/decimal"
)

// Config holds the application configuration
type Config struct {
	AppPort    string // Application port
	DBUser     string // Database user
	DBPassword string // Database password
	DBHost     string // Database host
	DBPort     string // Database port
	DBName     string // Database name
	JWTSecret  string // JWT secret key
	RedisAddr  string // Redis server address
	RedisPass  string // Redis password
	RedisDB    int    // Redis database number
	IsProd     bool   // Is production environment

	AccessTokenTTL  time.Duration // Lifetime of access tokens
	RefreshTokenTTL time.Duration // Lifetime of refresh tokens

	MinDonationAmount decimal.Decimal // Smallest accepted donation
	MaxDonationAmount decimal.Decimal // Largest accepted donation
	Milestones        []int64         // Donation-count thresholds that trigger a thank-you mail

	QueueConcurrency int           // Concurrent jobs per worker process
	QueueMaxRetry    int           // Delivery attempts per job
	QueueRetryBase   time.Duration // Base delay for exponential backoff

	CacheTTL time.Duration // TTL for read-through cache entries

	PaystackSecret  string // Gateway secret, also the webhook HMAC key
	PaystackBaseURL string // Gateway API base URL

	SMTPHost string // Mail server host
	SMTPPort int    // Mail server port
	SMTPUser string // Mail server username
	SMTPPass string // Mail server password
	SMTPFrom string // Sender address for outgoing mail
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	smtpPort, _ := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	return &Config{
		AppPort:    getEnv("APP_PORT", "8080"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBName:     os.Getenv("DB_NAME"),
		JWTSecret:  os.Getenv("JWT_SECRET"),
		RedisAddr:  os.Getenv("REDIS_ADDR"),
		RedisPass:  os.Getenv("REDIS_PASS"),
		RedisDB:    redisDB,
		IsProd:     os.Getenv("IS_PROD") == "true",

		AccessTokenTTL:  envDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: envDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),

		MinDonationAmount: envDecimal("MIN_DONATION_AMOUNT", "100"),
		MaxDonationAmount: envDecimal("MAX_DONATION_AMOUNT", "1000000"),
		Milestones:        envInts("DONATION_MILESTONES", []int64{2, 5, 10, 25, 50, 100}),

		QueueConcurrency: envInt("QUEUE_CONCURRENCY", 5),
		QueueMaxRetry:    envInt("QUEUE_MAX_RETRY", 3),
		QueueRetryBase:   envDuration("QUEUE_RETRY_BASE", time.Second),

		CacheTTL: envDuration("CACHE_TTL", 60*time.Second),

		PaystackSecret:  os.Getenv("PAYSTACK_SECRET_KEY"),
		PaystackBaseURL: getEnv("PAYSTACK_BASE_URL", "https://api.paystack.co"),

		SMTPHost: os.Getenv("SMTP_HOST"),
		SMTPPort: smtpPort,
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASS"),
		SMTPFrom: getEnv("SMTP_FROM", "no-reply@givehub.local"),
	}
}

// getEnv returns the value of key or a fallback when unset.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envInt parses an integer environment variable with a fallback.
func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}

// envDuration parses a duration environment variable with a fallback.
func envDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}

// envDecimal parses a decimal environment variable with a fallback.
func envDecimal(key, fallback string) decimal.Decimal {
	if v, err := decimal.NewFromString(os.Getenv(key)); err == nil {
		return v
	}
	d, _ := decimal.NewFromString(fallback)
	return d
}

// envInts parses a comma-separated list of integers with a fallback.
func envInts(key string, fallback []int64) []int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	var out []int64
	for _, part := range strings.Split(raw, ",") {
		if v, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64); err == nil && v > 0 {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
