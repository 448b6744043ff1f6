package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort      string `mapstructure:"APP_PORT"`
	Env          string `mapstructure:"ENV"`
	LogLevel     string `mapstructure:"LOG_LEVEL"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Auth.
	JWTSecret         string        `mapstructure:"JWT_SECRET"`
	JWTExpiry         time.Duration `mapstructure:"JWT_EXPIRY"`
	MaxRequestsPerMin int           `mapstructure:"MAX_REQUESTS_PER_MIN"`
	RateBurst         int           `mapstructure:"RATE_BURST"`
	CORSOrigins       []string      `mapstructure:"CORS_ORIGINS"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisAuthDB   int    `mapstructure:"REDIS_AUTH_DB"`

	// Scheduling.
	ClinicTimezone   string `mapstructure:"CLINIC_TIMEZONE"`
	DefaultSlotStart string `mapstructure:"DEFAULT_SLOT_START"`
	DefaultSlotEnd   string `mapstructure:"DEFAULT_SLOT_END"`

	// Stripe.
	StripeKey           string        `mapstructure:"STRIPE_KEY"`
	StripeWebhookSecret string        `mapstructure:"STRIPE_WEBHOOK_SECRET"`
	PaymentSuccessURL   string        `mapstructure:"PAYMENT_SUCCESS_URL"`
	PaymentCancelURL    string        `mapstructure:"PAYMENT_CANCEL_URL"`
	PaymentLinkExpiry   time.Duration `mapstructure:"PAYMENT_LINK_EXPIRY"`

	// SMTP relay.
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	MailFrom     string `mapstructure:"MAIL_FROM"`

	// WhatsApp gateway (wappi.pro).
	WappiBaseURL    string        `mapstructure:"WAPPI_BASE_URL"`
	WappiToken      string        `mapstructure:"WAPPI_TOKEN"`
	WappiProfileID  string        `mapstructure:"WAPPI_PROFILE_ID"`
	WappiTimeout    time.Duration `mapstructure:"WAPPI_TIMEOUT"`
	WappiMaxRetries int           `mapstructure:"WAPPI_MAX_RETRIES"`

	// Event mirror.
	RabbitMQURL    string `mapstructure:"RABBITMQ_URL"`
	EventsExchange string `mapstructure:"EVENTS_EXCHANGE"`

	// Media storage.
	MediaBackend        string `mapstructure:"MEDIA_BACKEND"`
	MinioEndpoint       string `mapstructure:"MINIO_ENDPOINT"`
	MinioAccessKey      string `mapstructure:"MINIO_ACCESS_KEY"`
	MinioSecretKey      string `mapstructure:"MINIO_SECRET_KEY"`
	MinioBucket         string `mapstructure:"MINIO_BUCKET"`
	MinioUseSSL         bool   `mapstructure:"MINIO_USE_SSL"`
	CloudinaryCloudName string `mapstructure:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `mapstructure:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `mapstructure:"CLOUDINARY_API_SECRET"`
	CloudinaryFolder    string `mapstructure:"CLOUDINARY_FOLDER"`
	GCSBucket           string `mapstructure:"GCS_BUCKET"`
	GCSCredentialsFile  string `mapstructure:"GCS_CREDENTIALS_FILE"`
}

var AppConfig Config

func LoadConfig() {
	// A local .env is optional; real deployments inject the environment.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

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
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "clinicdesk")

	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("JWT_EXPIRY", time.Hour)
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 200)
	viper.SetDefault("RATE_BURST", 50)
	viper.SetDefault("CORS_ORIGINS", []string{"*"})

	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_AUTH_DB", 1)

	viper.SetDefault("CLINIC_TIMEZONE", "UTC")
	viper.SetDefault("DEFAULT_SLOT_START", "09:00")
	viper.SetDefault("DEFAULT_SLOT_END", "10:00")

	viper.SetDefault("STRIPE_KEY", "")
	viper.SetDefault("STRIPE_WEBHOOK_SECRET", "")
	viper.SetDefault("PAYMENT_SUCCESS_URL", "http://localhost:5173/payment/success")
	viper.SetDefault("PAYMENT_CANCEL_URL", "http://localhost:5173/payment/cancel")
	viper.SetDefault("PAYMENT_LINK_EXPIRY", 23*time.Hour)

	viper.SetDefault("SMTP_HOST", "")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("SMTP_USERNAME", "")
	viper.SetDefault("SMTP_PASSWORD", "")
	viper.SetDefault("MAIL_FROM", "")

	viper.SetDefault("WAPPI_BASE_URL", "https://wappi.pro")
	viper.SetDefault("WAPPI_TOKEN", "")
	viper.SetDefault("WAPPI_PROFILE_ID", "")
	viper.SetDefault("WAPPI_TIMEOUT", 15*time.Second)
	viper.SetDefault("WAPPI_MAX_RETRIES", 2)

	viper.SetDefault("RABBITMQ_URL", "")
	viper.SetDefault("EVENTS_EXCHANGE", "clinicdesk.events")

	viper.SetDefault("MEDIA_BACKEND", "minio")
	viper.SetDefault("MINIO_ENDPOINT", "")
	viper.SetDefault("MINIO_ACCESS_KEY", "")
	viper.SetDefault("MINIO_SECRET_KEY", "")
	viper.SetDefault("MINIO_BUCKET", "clinicdesk-media")
	viper.SetDefault("MINIO_USE_SSL", false)
	viper.SetDefault("GCS_BUCKET", "")
	viper.SetDefault("GCS_CREDENTIALS_FILE", "")
	viper.SetDefault("CLOUDINARY_CLOUD_NAME", "")
	viper.SetDefault("CLOUDINARY_API_KEY", "")
	viper.SetDefault("CLOUDINARY_API_SECRET", "")
	viper.SetDefault("CLOUDINARY_FOLDER", "clinicdesk")
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// ClinicLocation resolves CLINIC_TIMEZONE, falling back to UTC.
func ClinicLocation() *time.Location {
	if AppConfig.ClinicTimezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(AppConfig.ClinicTimezone)
	if err != nil {
		log.Printf("Unknown CLINIC_TIMEZONE %q, using UTC", AppConfig.ClinicTimezone)
		return time.UTC
	}
	return loc
}
