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
	PublicSiteURL     string `mapstructure:"PUBLIC_SITE_URL"`

	// Proxies whose X-Forwarded-For is believed, comma separated. Empty trusts none.
	TrustedProxies []string `mapstructure:"TRUSTED_PROXIES"`

	// MongoDB.
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Redis configuration.
	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
	RedisPassword   string        `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB    int           `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB    int           `mapstructure:"REDIS_QUEUE_DB"`
	CatalogCacheTTL time.Duration `mapstructure:"CATALOG_CACHE_TTL"`

	// Session tokens are issued by the identity provider and signed with this secret.
	SessionSecret string `mapstructure:"SESSION_SECRET"`
	SessionCookie string `mapstructure:"SESSION_COOKIE"`

	// Stripe.
	StripeSecretKey     string `mapstructure:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `mapstructure:"STRIPE_WEBHOOK_SECRET"`
	Currency            string `mapstructure:"CURRENCY"`

	// Payment rules, whole percentages.
	DepositPercent    int64 `mapstructure:"DEPOSIT_PERCENT"`
	MinBalancePercent int64 `mapstructure:"MIN_BALANCE_PERCENT"`

	// Mailjet.
	MailjetAPIKey    string `mapstructure:"MAILJET_API_KEY"`
	MailjetSecretKey string `mapstructure:"MAILJET_SECRET_KEY"`
	MailFromEmail    string `mapstructure:"MAIL_FROM_EMAIL"`
	MailFromName     string `mapstructure:"MAIL_FROM_NAME"`
}

var AppConfig Config

func LoadConfig() {
	// A local .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	v.SetDefault("TRUSTED_PROXIES", "")
	v.SetDefault("PUBLIC_SITE_URL", "http://localhost:5173")
	v.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	v.SetDefault("DATABASE_NAME", "outlandish")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_CACHE_DB", 0)
	v.SetDefault("REDIS_QUEUE_DB", 1)
	v.SetDefault("CATALOG_CACHE_TTL", "10m")
	v.SetDefault("SESSION_SECRET", "")
	v.SetDefault("SESSION_COOKIE", "outlandish_session")
	v.SetDefault("STRIPE_SECRET_KEY", "")
	v.SetDefault("STRIPE_WEBHOOK_SECRET", "")
	v.SetDefault("CURRENCY", "gbp")
	v.SetDefault("DEPOSIT_PERCENT", 25)
	v.SetDefault("MIN_BALANCE_PERCENT", 20)
	v.SetDefault("MAILJET_API_KEY", "")
	v.SetDefault("MAILJET_SECRET_KEY", "")
	v.SetDefault("MAIL_FROM_EMAIL", "bookings@outlandish.tours")
	v.SetDefault("MAIL_FROM_NAME", "Outlandish Tours")
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
