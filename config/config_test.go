package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("PDF_MAX_CONCURRENT", "")
	t.Setenv("PDF_LOAD_TIMEOUT", "")
	t.Setenv("PDF_NETWORK_IDLE", "")

	cfg := Load()
	assert.Equal(t, "test", cfg.Environment)
	assert.Equal(t, 4, cfg.PDFMaxConcurrent)
	assert.Equal(t, 30*time.Second, cfg.PDFLoadTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.PDFNetworkIdle)
	assert.True(t, cfg.ChromeNoSandbox)
	assert.False(t, cfg.PDFSanitizeHTML)
	assert.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("PDF_MAX_CONCURRENT", "2")
	t.Setenv("PDF_LOAD_TIMEOUT", "5s")
	t.Setenv("PDF_NETWORK_IDLE", "750ms")
	t.Setenv("PDF_CHROME_NO_SANDBOX", "no")
	t.Setenv("PDF_SANITIZE_HTML", "on")
	t.Setenv("ALLOWED_ORIGINS", "https://a.test,https://b.test")

	cfg := Load()
	assert.Equal(t, 2, cfg.PDFMaxConcurrent)
	assert.Equal(t, 5*time.Second, cfg.PDFLoadTimeout)
	assert.Equal(t, 750*time.Millisecond, cfg.PDFNetworkIdle)
	assert.False(t, cfg.ChromeNoSandbox)
	assert.True(t, cfg.PDFSanitizeHTML)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.AllowedOrigins)
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("SOME_TIMEOUT", "15")
	assert.Equal(t, 15*time.Second, getEnvDuration("SOME_TIMEOUT", time.Second))

	t.Setenv("SOME_TIMEOUT", "250ms")
	assert.Equal(t, 250*time.Millisecond, getEnvDuration("SOME_TIMEOUT", time.Second))

	t.Setenv("SOME_TIMEOUT", "soon")
	assert.Equal(t, time.Second, getEnvDuration("SOME_TIMEOUT", time.Second))
}

func TestGetEnvIntInvalid(t *testing.T) {
	t.Setenv("SOME_INT", "abc")
	assert.Equal(t, 7, getEnvInt("SOME_INT", 7))
}

func TestValidateAPITokenDevelopment(t *testing.T) {
	assert.NoError(t, ValidateAPIToken("", "development"))
	assert.NoError(t, ValidateAPIToken("short", "development"))
}
