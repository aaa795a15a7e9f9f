package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	PublicBaseURL     string `mapstructure:"PUBLIC_BASE_URL"`

	// Persistence. STORE_MODE is "mongo" or "memory".
	StoreMode    string `mapstructure:"STORE_MODE"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Redis configuration. An empty REDIS_ADDR disables the queue and webhook dedupe cache.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Secrets.
	JWTSecret           string `mapstructure:"JWT_SECRET"`
	DownloadTokenSecret string `mapstructure:"DOWNLOAD_TOKEN_SECRET"`

	// Pricing and invoicing.
	GSTRate                float64 `mapstructure:"GST_RATE"`
	Currency               string  `mapstructure:"CURRENCY"`
	InvoicePrefix          string  `mapstructure:"INVOICE_PREFIX"`
	InvoiceLenientBackfill bool    `mapstructure:"INVOICE_LENIENT_BACKFILL"`
	CompanyName            string  `mapstructure:"COMPANY_NAME"`
	CompanyGSTIN           string  `mapstructure:"COMPANY_GSTIN"`
	CompanyAddress         string  `mapstructure:"COMPANY_ADDRESS"`
	Renderer               string  `mapstructure:"RENDERER"`
	InvoiceSweepSpec       string  `mapstructure:"INVOICE_SWEEP_SPEC"`

	// Payment gateway.
	StripeSecretKey      string `mapstructure:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret  string `mapstructure:"STRIPE_WEBHOOK_SECRET"`
	PaymentForceMock     bool   `mapstructure:"PAYMENT_FORCE_MOCK"`
	PaymentMockFallback  bool   `mapstructure:"PAYMENT_MOCK_FALLBACK"`
	SimulatedAutoCapture bool   `mapstructure:"SIMULATED_AUTO_CAPTURE"`

	// Artifact storage. STORAGE_BACKEND is "local", "gcs" or "cloudinary".
	StorageBackend       string `mapstructure:"STORAGE_BACKEND"`
	StorageRoot          string `mapstructure:"STORAGE_ROOT"`
	GCSBucket            string `mapstructure:"GCS_BUCKET"`
	GCSCredentialsFile   string `mapstructure:"GCS_CREDENTIALS_FILE"`
	CloudinaryURL        string `mapstructure:"CLOUDINARY_URL"`
	StorageEncryptionKey string `mapstructure:"STORAGE_ENCRYPTION_KEY"`

	// Email.
	SMTPHost         string `mapstructure:"SMTP_HOST"`
	SMTPPort         int    `mapstructure:"SMTP_PORT"`
	SMTPUser         string `mapstructure:"SMTP_USER"`
	SMTPPassword     string `mapstructure:"SMTP_PASSWORD"`
	EmailFrom        string `mapstructure:"EMAIL_FROM"`
	EmailFromName    string `mapstructure:"EMAIL_FROM_NAME"`
	EmailMaxAttempts int    `mapstructure:"EMAIL_MAX_ATTEMPTS"`

	FollowUpTimeout time.Duration `mapstructure:"FOLLOWUP_TIMEOUT"`
}

var AppConfig Config

func LoadConfig() {
	// A local .env is optional; real deployments inject the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, continuing with process environment")
	}

	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func setDefaults() {
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 120)
	viper.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")

	viper.SetDefault("STORE_MODE", "memory")
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "ylgguide")

	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 1)

	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("DOWNLOAD_TOKEN_SECRET", "")

	viper.SetDefault("GST_RATE", 18.0)
	viper.SetDefault("CURRENCY", "INR")
	viper.SetDefault("INVOICE_PREFIX", "INV")
	viper.SetDefault("INVOICE_LENIENT_BACKFILL", false)
	viper.SetDefault("COMPANY_NAME", "YLG Guide")
	viper.SetDefault("COMPANY_GSTIN", "")
	viper.SetDefault("COMPANY_ADDRESS", "")
	viper.SetDefault("RENDERER", "pdf")
	viper.SetDefault("INVOICE_SWEEP_SPEC", "@every 10m")

	viper.SetDefault("STRIPE_SECRET_KEY", "")
	viper.SetDefault("STRIPE_WEBHOOK_SECRET", "")
	viper.SetDefault("PAYMENT_FORCE_MOCK", false)
	viper.SetDefault("PAYMENT_MOCK_FALLBACK", false)
	viper.SetDefault("SIMULATED_AUTO_CAPTURE", false)

	viper.SetDefault("STORAGE_BACKEND", "local")
	viper.SetDefault("STORAGE_ROOT", "./data/invoices")
	viper.SetDefault("GCS_BUCKET", "")
	viper.SetDefault("GCS_CREDENTIALS_FILE", "")
	viper.SetDefault("CLOUDINARY_URL", "")
	viper.SetDefault("STORAGE_ENCRYPTION_KEY", "")

	viper.SetDefault("SMTP_HOST", "")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("SMTP_USER", "")
	viper.SetDefault("SMTP_PASSWORD", "")
	viper.SetDefault("EMAIL_FROM", "bookings@ylgguide.local")
	viper.SetDefault("EMAIL_FROM_NAME", "YLG Guide")
	viper.SetDefault("EMAIL_MAX_ATTEMPTS", 3)

	viper.SetDefault("FOLLOWUP_TIMEOUT", "60s")
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// RedisEnabled reports whether a Redis address was configured.
func (c Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// TokenSecret is the master secret for invoice download tokens, falling back to the JWT secret.
func (c Config) TokenSecret() string {
	if c.DownloadTokenSecret != "" {
		return c.DownloadTokenSecret
	}
	return c.JWTSecret
}
