package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string
	BaseURL string // public base URL embedded in magic links

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	RedisURL string // empty disables throttling and attempt caps (fail-open)

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	SessionMaxAgeDays int

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	SNSRegion string

	GoogleClientID string

	Channels ChannelConfig

	TTL      TTLConfig
	Throttle ThrottleConfig

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Artifacts  string
	Users      string
	Identities string
}

// ChannelConfig enumerates which sign-in channels are live. Resolved once at
// startup; OAuth providers appear only when their credentials are configured.
type ChannelConfig struct {
	EnableEmailLink bool
	EnableEmailCode bool
	EnablePhone     bool
	OAuthProviders  []string
}

// OAuthEnabled reports whether the named OAuth provider is configured.
func (c ChannelConfig) OAuthEnabled(provider string) bool {
	for _, p := range c.OAuthProviders {
		if p == provider {
			return true
		}
	}
	return false
}

// TTLConfig holds the per-channel artifact lifetimes.
// Defaults: magic links 24h, email and phone codes 10m.
type TTLConfig struct {
	EmailLink time.Duration
	EmailCode time.Duration
	Phone     time.Duration
}

// ThrottleConfig bounds issuance frequency and mismatch retries per
// (identifier, channel). Enforced only when Redis is configured.
type ThrottleConfig struct {
	RequestCooldown   time.Duration
	MaxVerifyAttempts int
}

// Load reads all configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		AppPort:        getEnv("APP_PORT", "3000"),
		AppEnv:         getEnv("APP_ENV", "development"),
		BaseURL:        getEnv("BASE_URL", "http://localhost:3000"),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Artifacts:  getEnv("DYNAMO_TABLE_ARTIFACTS", "verification_artifacts"),
			Users:      getEnv("DYNAMO_TABLE_USERS", "users"),
			Identities: getEnv("DYNAMO_TABLE_IDENTITIES", "identities"),
		},
		RedisURL:          getEnv("REDIS_URL", ""),
		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		SessionMaxAgeDays: getEnvInt("SESSION_MAX_AGE_DAYS", 30),
		SMTPHost:          getEnv("SMTP_HOST", "localhost"),
		SMTPPort:          getEnv("SMTP_PORT", "1025"),
		SMTPFrom:          getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
		SNSRegion:         getEnv("SNS_REGION", "us-east-1"),
		GoogleClientID:    getEnv("GOOGLE_CLIENT_ID", ""),
		Channels: ChannelConfig{
			EnableEmailLink: getEnvBool("ENABLE_EMAIL_LINK", true),
			EnableEmailCode: getEnvBool("ENABLE_EMAIL_CODE", true),
			EnablePhone:     getEnvBool("ENABLE_PHONE", true),
		},
		TTL: TTLConfig{
			EmailLink: getEnvDuration("TTL_EMAIL_LINK", 24*time.Hour),
			EmailCode: getEnvDuration("TTL_EMAIL_CODE", 10*time.Minute),
			Phone:     getEnvDuration("TTL_PHONE", 10*time.Minute),
		},
		Throttle: ThrottleConfig{
			RequestCooldown:   getEnvDuration("REQUEST_COOLDOWN", time.Minute),
			MaxVerifyAttempts: getEnvInt("MAX_VERIFY_ATTEMPTS", 5),
		},
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}

	if cfg.GoogleClientID != "" {
		cfg.Channels.OAuthProviders = append(cfg.Channels.OAuthProviders, "google")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
