package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvironmentDevelopment = "development"
	EnvironmentTest        = "test"
	EnvironmentProduction  = "production"

	defaultJWTSecret = "testlab-dev-secret"
)

// Config is kept flat and comparable so the app can detect an unset config
// with a zero-value comparison.
type Config struct {
	GeneralEnvironment string `mapstructure:"GENERAL_ENVIRONMENT"`
	GeneralVersion     string `mapstructure:"GENERAL_VERSION"`
	GeneralLogLevel    string `mapstructure:"GENERAL_LOG_LEVEL"`
	GeneralLogFormat   string `mapstructure:"GENERAL_LOG_FORMAT"`

	ServerPort            int    `mapstructure:"SERVER_PORT"`
	ServerCorsOrigins     string `mapstructure:"SERVER_CORS_ORIGINS"`
	ServerSubmitRateLimit int    `mapstructure:"SERVER_SUBMIT_RATE_LIMIT"`
	ServerURL             string `mapstructure:"SERVER_URL"`

	DatabaseDbPath       string `mapstructure:"DATABASE_DB_PATH"`
	DatabaseAutoMigrate  bool   `mapstructure:"DATABASE_AUTO_MIGRATE"`
	DatabaseCacheAddress string `mapstructure:"DATABASE_CACHE_ADDRESS"`
	DatabaseCachePort    int    `mapstructure:"DATABASE_CACHE_PORT"`
	DatabaseCacheDB      int    `mapstructure:"DATABASE_CACHE_DB"`

	SecurityJwtSecret       string        `mapstructure:"SECURITY_JWT_SECRET"`
	SecurityJwtIssuer       string        `mapstructure:"SECURITY_JWT_ISSUER"`
	SecurityTokenTTL        time.Duration `mapstructure:"SECURITY_TOKEN_TTL"`
	SecurityAdminPrincipals string        `mapstructure:"SECURITY_ADMIN_PRINCIPALS"`

	CompanyName         string `mapstructure:"COMPANY_NAME"`
	CompanyAddressLine1 string `mapstructure:"COMPANY_ADDRESS_LINE1"`
	CompanyAddressLine2 string `mapstructure:"COMPANY_ADDRESS_LINE2"`
	CompanyCity         string `mapstructure:"COMPANY_CITY"`
	CompanyState        string `mapstructure:"COMPANY_STATE"`
	CompanyPincode      string `mapstructure:"COMPANY_PINCODE"`
	CompanyGSTIN        string `mapstructure:"COMPANY_GSTIN"`
	CompanyEmail        string `mapstructure:"COMPANY_EMAIL"`
	CompanyPhones       string `mapstructure:"COMPANY_PHONES"`
}

var keys = []string{
	"GENERAL_ENVIRONMENT", "GENERAL_VERSION", "GENERAL_LOG_LEVEL", "GENERAL_LOG_FORMAT",
	"SERVER_PORT", "SERVER_CORS_ORIGINS", "SERVER_SUBMIT_RATE_LIMIT", "SERVER_URL",
	"DATABASE_DB_PATH", "DATABASE_AUTO_MIGRATE", "DATABASE_CACHE_ADDRESS",
	"DATABASE_CACHE_PORT", "DATABASE_CACHE_DB",
	"SECURITY_JWT_SECRET", "SECURITY_JWT_ISSUER", "SECURITY_TOKEN_TTL",
	"SECURITY_ADMIN_PRINCIPALS",
	"COMPANY_NAME", "COMPANY_ADDRESS_LINE1", "COMPANY_ADDRESS_LINE2", "COMPANY_CITY",
	"COMPANY_STATE", "COMPANY_PINCODE", "COMPANY_GSTIN", "COMPANY_EMAIL", "COMPANY_PHONES",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("GENERAL_ENVIRONMENT", EnvironmentDevelopment)
	v.SetDefault("GENERAL_VERSION", "dev")
	v.SetDefault("GENERAL_LOG_LEVEL", "info")
	v.SetDefault("GENERAL_LOG_FORMAT", "text")

	v.SetDefault("SERVER_PORT", 8288)
	v.SetDefault("SERVER_CORS_ORIGINS", "*")
	v.SetDefault("SERVER_SUBMIT_RATE_LIMIT", 20)
	v.SetDefault("SERVER_URL", "http://localhost:8288")

	v.SetDefault("DATABASE_DB_PATH", "data/testlab.db")
	v.SetDefault("DATABASE_AUTO_MIGRATE", true)
	v.SetDefault("DATABASE_CACHE_ADDRESS", "")
	v.SetDefault("DATABASE_CACHE_PORT", 6379)
	v.SetDefault("DATABASE_CACHE_DB", 0)

	v.SetDefault("SECURITY_JWT_SECRET", defaultJWTSecret)
	v.SetDefault("SECURITY_JWT_ISSUER", "testlab")
	v.SetDefault("SECURITY_TOKEN_TTL", 24*time.Hour)
	v.SetDefault("SECURITY_ADMIN_PRINCIPALS", "")

	v.SetDefault("COMPANY_NAME", "Sanwariya Testing Lab LLP")
	v.SetDefault("COMPANY_ADDRESS_LINE1", "Ground Floor, Plot No.-G1-548")
	v.SetDefault("COMPANY_ADDRESS_LINE2", "RIICO industrial area, Sitapura")
	v.SetDefault("COMPANY_CITY", "Jaipur")
	v.SetDefault("COMPANY_STATE", "Rajasthan")
	v.SetDefault("COMPANY_PINCODE", "302022")
	v.SetDefault("COMPANY_GSTIN", "08AFQFS6982Q1ZK")
	v.SetDefault("COMPANY_EMAIL", "sanwariyatestinglab@gmail.com")
	v.SetDefault("COMPANY_PHONES", "8890074166,7737031940")
}

// InitConfig reads TESTLAB_* environment variables on top of an optional
// .env file in the working directory.
func InitConfig() (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, err
		}
	}

	v.SetEnvPrefix("TESTLAB")
	v.AutomaticEnv()
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return Config{}, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, err
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

func (c Config) Validate() error {
	if c.DatabaseDbPath == "" {
		return errors.New("DATABASE_DB_PATH is required")
	}

	if c.ServerPort <= 0 {
		return errors.New("SERVER_PORT must be positive")
	}

	if c.IsProduction() && (c.SecurityJwtSecret == "" || c.SecurityJwtSecret == defaultJWTSecret) {
		return errors.New("SECURITY_JWT_SECRET must be set in production")
	}

	return nil
}

func (c Config) IsProduction() bool {
	return c.GeneralEnvironment == EnvironmentProduction
}

func (c Config) AdminPrincipals() []string {
	return splitList(c.SecurityAdminPrincipals)
}

func (c Config) Phones() []string {
	return splitList(c.CompanyPhones)
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
