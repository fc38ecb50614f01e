// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultAccessSecret         = "access-secret-change-in-production"
	defaultRefreshSecret        = "refresh-secret-change-in-production"
	defaultEmailVerifySecret    = "email-verify-secret-change-in-production"
	defaultForgotPasswordSecret = "forgot-password-secret-change-in-production"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port          string `mapstructure:"PORT"`
	PublicBaseURL string `mapstructure:"PUBLIC_BASE_URL"`
	Env           string `mapstructure:"APP_ENV"`
	LogLevel      string `mapstructure:"LOG_LEVEL"`

	DBHost       string `mapstructure:"DB_HOST"`
	DBPort       string `mapstructure:"DB_PORT"`
	DBUser       string `mapstructure:"DB_USER"`
	DBPassword   string `mapstructure:"DB_PASSWORD"`
	DBName       string `mapstructure:"DB_NAME"`
	DBSSLMode    string `mapstructure:"DB_SSLMODE"`
	DBSchemaMode string `mapstructure:"DB_SCHEMA_MODE"`

	DBMaxOpenConns           int `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns           int `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifetimeMinutes int `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`

	RedisURL       string `mapstructure:"REDIS_URL"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	FeatureFlags   string `mapstructure:"FEATURE_FLAGS"`

	AccessTokenSecret         string        `mapstructure:"ACCESS_TOKEN_SECRET"`
	RefreshTokenSecret        string        `mapstructure:"REFRESH_TOKEN_SECRET"`
	EmailVerifyTokenSecret    string        `mapstructure:"EMAIL_VERIFY_TOKEN_SECRET"`
	ForgotPasswordTokenSecret string        `mapstructure:"FORGOT_PASSWORD_TOKEN_SECRET"`
	AccessTokenTTL            time.Duration `mapstructure:"ACCESS_TOKEN_TTL"`
	RefreshTokenTTL           time.Duration `mapstructure:"REFRESH_TOKEN_TTL"`
	EmailVerifyTokenTTL       time.Duration `mapstructure:"EMAIL_VERIFY_TOKEN_TTL"`
	ForgotPasswordTokenTTL    time.Duration `mapstructure:"FORGOT_PASSWORD_TOKEN_TTL"`
	TokenClockSkew            time.Duration `mapstructure:"TOKEN_CLOCK_SKEW"`

	UploadDir           string `mapstructure:"UPLOAD_DIR"`
	MaxImageUploadBytes int64  `mapstructure:"MAX_IMAGE_UPLOAD_BYTES"`
	MaxVideoUploadBytes int64  `mapstructure:"MAX_VIDEO_UPLOAD_BYTES"`

	SessionPurgeSchedule string        `mapstructure:"SESSION_PURGE_SCHEDULE"`
	FollowingCacheTTL    time.Duration `mapstructure:"FOLLOWING_CACHE_TTL"`

	TracingEnabled     bool    `mapstructure:"TRACING_ENABLED"`
	OTLPEndpoint       string  `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	TracingSampleRatio float64 `mapstructure:"TRACING_SAMPLE_RATIO"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base file is optional.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	setDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("PORT", "4000")
	viper.SetDefault("PUBLIC_BASE_URL", "http://localhost:4000")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "chirp")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_SCHEMA_MODE", "hybrid")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 5)
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")
	viper.SetDefault("FEATURE_FLAGS", "")

	viper.SetDefault("ACCESS_TOKEN_SECRET", defaultAccessSecret)
	viper.SetDefault("REFRESH_TOKEN_SECRET", defaultRefreshSecret)
	viper.SetDefault("EMAIL_VERIFY_TOKEN_SECRET", defaultEmailVerifySecret)
	viper.SetDefault("FORGOT_PASSWORD_TOKEN_SECRET", defaultForgotPasswordSecret)
	viper.SetDefault("ACCESS_TOKEN_TTL", "15m")
	viper.SetDefault("REFRESH_TOKEN_TTL", "2400h")
	viper.SetDefault("EMAIL_VERIFY_TOKEN_TTL", "168h")
	viper.SetDefault("FORGOT_PASSWORD_TOKEN_TTL", "168h")
	viper.SetDefault("TOKEN_CLOCK_SKEW", "30s")

	viper.SetDefault("UPLOAD_DIR", "uploads")
	viper.SetDefault("MAX_IMAGE_UPLOAD_BYTES", 300*1024)
	viper.SetDefault("MAX_VIDEO_UPLOAD_BYTES", 50*1024*1024)

	viper.SetDefault("SESSION_PURGE_SCHEDULE", "@every 1h")
	viper.SetDefault("FOLLOWING_CACHE_TTL", "60s")

	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	viper.SetDefault("TRACING_SAMPLE_RATIO", 1.0)
}

func (c *Config) normalize() {
	c.DBSSLMode = strings.ToLower(strings.TrimSpace(c.DBSSLMode))
	c.DBSchemaMode = strings.ToLower(strings.TrimSpace(c.DBSchemaMode))
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.PublicBaseURL = strings.TrimRight(c.PublicBaseURL, "/")
}

// IsProduction reports whether the app runs with production safeguards.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}

	secrets := map[string]string{
		"ACCESS_TOKEN_SECRET":          c.AccessTokenSecret,
		"REFRESH_TOKEN_SECRET":         c.RefreshTokenSecret,
		"EMAIL_VERIFY_TOKEN_SECRET":    c.EmailVerifyTokenSecret,
		"FORGOT_PASSWORD_TOKEN_SECRET": c.ForgotPasswordTokenSecret,
	}
	for name, value := range secrets {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return errors.New("ACCESS_TOKEN_TTL and REFRESH_TOKEN_TTL must be positive")
	}

	if c.IsProduction() {
		defaults := map[string]bool{
			defaultAccessSecret:         true,
			defaultRefreshSecret:        true,
			defaultEmailVerifySecret:    true,
			defaultForgotPasswordSecret: true,
		}
		seen := make(map[string]string, len(secrets))
		for name, value := range secrets {
			if defaults[value] {
				return fmt.Errorf("%s must be changed from the default value in production", name)
			}
			if len(value) < 32 {
				return fmt.Errorf("%s must be at least 32 characters in production", name)
			}
			if other, dup := seen[value]; dup {
				return fmt.Errorf("%s and %s must not share a signing key", name, other)
			}
			seen[value] = name
		}
		if c.DBPassword == "password" || c.DBPassword == "" {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
			return errors.New("DB_SSLMODE must enable SSL in production")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	} else if len(c.AccessTokenSecret) < 32 {
		log.Println("WARNING: ACCESS_TOKEN_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}
