package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Log       LogConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Backend   BackendConfig
	Artifact  ArtifactConfig
	Printer   PrinterConfig
	Metrics   MetricsConfig
}

type AppConfig struct {
	Name  string
	Env   string
	Port  string
	Debug bool
}

type LogConfig struct {
	Level string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	Timezone string
}

// JWTConfig holds the secret shared with the backend that issues operator tokens.
type JWTConfig struct {
	Secret string
	Leeway time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type RateLimitConfig struct {
	Requests int
	Duration int
}

// BackendConfig describes the REST API that owns products, customers and invoices.
type BackendConfig struct {
	BaseURL             string
	Timeout             time.Duration
	RequestsPerSecond   float64
	Burst               int
	CustomerLookupLimit int
	SubmitTimeout       time.Duration
}

// ArtifactConfig controls where downloaded invoice PDFs are kept.
type ArtifactConfig struct {
	Enabled bool
	Path    string
}

type PrinterConfig struct {
	Type      string
	USBPath   string
	Address   string
	Width     int
	AutoPrint bool

	StoreName    string
	StoreAddress string
	StorePhone   string
	StoreTaxID   string
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

// Load reads .env (when present) and the environment. The returned error is
// only the .env read failure, which callers may treat as a warning.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	readErr := viper.ReadInConfig()

	viper.SetDefault("APP_NAME", "billdesk-api")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_DEBUG", true)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_NAME", "billdesk")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_TIMEZONE", "Asia/Kolkata")
	viper.SetDefault("JWT_SECRET", "change-this-secret-in-production")
	viper.SetDefault("JWT_LEEWAY_SECONDS", 30)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("CORS_ALLOWED_HEADERS", []string{})
	viper.SetDefault("RATE_LIMIT_REQUESTS", 100)
	viper.SetDefault("RATE_LIMIT_DURATION", 60)
	viper.SetDefault("BACKEND_BASE_URL", "http://localhost:8000/api")
	viper.SetDefault("BACKEND_TIMEOUT_SECONDS", 15)
	viper.SetDefault("BACKEND_REQUESTS_PER_SECOND", 20)
	viper.SetDefault("BACKEND_BURST", 40)
	viper.SetDefault("BACKEND_CUSTOMER_LOOKUP_LIMIT", 1000)
	viper.SetDefault("INVOICE_SUBMIT_TIMEOUT_SECONDS", 30)
	viper.SetDefault("ARTIFACT_ENABLED", true)
	viper.SetDefault("STORAGE_PATH", "./storage/invoices")
	viper.SetDefault("PRINTER_TYPE", "none")
	viper.SetDefault("PRINTER_WIDTH", 32)
	viper.SetDefault("PRINTER_STORE_NAME", "BillDesk Store")
	viper.SetDefault("PRINTER_AUTO_PRINT", true)
	viper.SetDefault("METRICS_ENABLED", true)
	viper.SetDefault("METRICS_PATH", "/metrics")

	cfg := &Config{
		App: AppConfig{
			Name:  viper.GetString("APP_NAME"),
			Env:   viper.GetString("APP_ENV"),
			Port:  viper.GetString("APP_PORT"),
			Debug: viper.GetBool("APP_DEBUG"),
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			SSLMode:  viper.GetString("DB_SSL_MODE"),
			Timezone: viper.GetString("DB_TIMEZONE"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("JWT_SECRET"),
			Leeway: time.Duration(viper.GetInt("JWT_LEEWAY_SECONDS")) * time.Second,
		},
		CORS: CORSConfig{
			AllowedOrigins: viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods: viper.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders: viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Duration: viper.GetInt("RATE_LIMIT_DURATION"),
		},
		Backend: BackendConfig{
			BaseURL:             viper.GetString("BACKEND_BASE_URL"),
			Timeout:             time.Duration(viper.GetInt("BACKEND_TIMEOUT_SECONDS")) * time.Second,
			RequestsPerSecond:   viper.GetFloat64("BACKEND_REQUESTS_PER_SECOND"),
			Burst:               viper.GetInt("BACKEND_BURST"),
			CustomerLookupLimit: viper.GetInt("BACKEND_CUSTOMER_LOOKUP_LIMIT"),
			SubmitTimeout:       time.Duration(viper.GetInt("INVOICE_SUBMIT_TIMEOUT_SECONDS")) * time.Second,
		},
		Artifact: ArtifactConfig{
			Enabled: viper.GetBool("ARTIFACT_ENABLED"),
			Path:    viper.GetString("STORAGE_PATH"),
		},
		Printer: PrinterConfig{
			Type:      viper.GetString("PRINTER_TYPE"),
			USBPath:   viper.GetString("PRINTER_USB_PATH"),
			Address:   viper.GetString("PRINTER_ADDRESS"),
			Width:     viper.GetInt("PRINTER_WIDTH"),
			AutoPrint: viper.GetBool("PRINTER_AUTO_PRINT"),

			StoreName:    viper.GetString("PRINTER_STORE_NAME"),
			StoreAddress: viper.GetString("PRINTER_STORE_ADDRESS"),
			StorePhone:   viper.GetString("PRINTER_STORE_PHONE"),
			StoreTaxID:   viper.GetString("PRINTER_STORE_GSTIN"),
		},
		Metrics: MetricsConfig{
			Enabled: viper.GetBool("METRICS_ENABLED"),
			Path:    viper.GetString("METRICS_PATH"),
		},
	}

	return cfg, readErr
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.Timezone
}

// RequestsPerSecond converts the window-based limit into a token rate.
func (c *RateLimitConfig) RequestsPerSecond() float64 {
	if c.Duration <= 0 {
		return float64(c.Requests)
	}
	return float64(c.Requests) / float64(c.Duration)
}
