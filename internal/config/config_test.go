package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()
	t.Chdir(t.TempDir())

	cfg, err := Load()
	assert.Error(t, err, "no .env file in an empty directory")
	require.NotNil(t, cfg)

	assert.Equal(t, "billdesk-api", cfg.App.Name)
	assert.Equal(t, "http://localhost:8000/api", cfg.Backend.BaseURL)
	assert.Equal(t, 1000, cfg.Backend.CustomerLookupLimit)
	assert.Equal(t, 30*time.Second, cfg.Backend.SubmitTimeout)
	assert.Equal(t, 30*time.Second, cfg.JWT.Leeway)
	assert.Equal(t, "none", cfg.Printer.Type)
	assert.True(t, cfg.Artifact.Enabled)
}

func TestLoad_Environment(t *testing.T) {
	viper.Reset()
	t.Chdir(t.TempDir())
	t.Setenv("BACKEND_BASE_URL", "https://billing.example.com/api")
	t.Setenv("BACKEND_CUSTOMER_LOOKUP_LIMIT", "250")
	t.Setenv("INVOICE_SUBMIT_TIMEOUT_SECONDS", "5")
	t.Setenv("PRINTER_TYPE", "network")
	t.Setenv("PRINTER_ADDRESS", "10.0.0.5:9100")
	t.Setenv("ARTIFACT_ENABLED", "false")

	cfg, _ := Load()

	assert.Equal(t, "https://billing.example.com/api", cfg.Backend.BaseURL)
	assert.Equal(t, 250, cfg.Backend.CustomerLookupLimit)
	assert.Equal(t, 5*time.Second, cfg.Backend.SubmitTimeout)
	assert.Equal(t, "network", cfg.Printer.Type)
	assert.Equal(t, "10.0.0.5:9100", cfg.Printer.Address)
	assert.False(t, cfg.Artifact.Enabled)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: "5432", Name: "billdesk", User: "u", Password: "p", SSLMode: "disable", Timezone: "UTC"}
	assert.Equal(t, "host=db user=u password=p dbname=billdesk port=5432 sslmode=disable TimeZone=UTC", c.DSN())
}

func TestRateLimitConfig_RequestsPerSecond(t *testing.T) {
	assert.Equal(t, 2.0, (&RateLimitConfig{Requests: 120, Duration: 60}).RequestsPerSecond())
	assert.Equal(t, 10.0, (&RateLimitConfig{Requests: 10}).RequestsPerSecond())
}
