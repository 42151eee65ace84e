package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	// MinAPITokenLength is the minimum required length for the API token in production
	MinAPITokenLength = 32
)

type Config struct {
	ServerPort  string
	DBPath      string
	Environment string
	LogLevel    string
	UploadDir   string
	// API access
	APIToken       string
	AllowedOrigins []string
	// PDF rendering
	ChromePath        string
	ChromeNoSandbox   bool
	PDFMaxConcurrent  int
	PDFLoadTimeout    time.Duration
	PDFNetworkIdle    time.Duration
	PDFRenderTimeout  time.Duration
	PDFDisableScripts bool
	PDFSanitizeHTML   bool
	PDFArchiveEnabled bool
	PDFMaxHTMLBytes   int
	// Generative AI (OpenAI-compatible endpoint)
	AIAPIKey       string
	AIBaseURL      string
	AIModel        string
	AIVisionModel  string
	AITimeout      time.Duration
	AINoteMaxChars int
	// Rate limiting (requests per second per IP on expensive routes)
	RateLimitPerSecond float64
	// S3-compatible storage (Cloudflare R2, MinIO, AWS)
	S3Endpoint        string
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3BucketName      string
	S3PublicURL       string
}

func Load() *Config {
	// Load .env file (ignore error if not present - use system env vars)
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found, using system environment variables")
	}

	environment := getEnv("ENVIRONMENT", "development")
	apiToken := getEnv("API_TOKEN", "")

	// Validate API token - this will fatal in production if invalid
	ValidateAPIToken(apiToken, environment)

	return &Config{
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		DBPath:             getEnv("DB_PATH", "db/app.db"),
		Environment:        environment,
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		UploadDir:          getEnv("UPLOAD_DIR", "static/uploads"),
		APIToken:           apiToken,
		AllowedOrigins:     strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		ChromePath:         getEnv("CHROME_PATH", ""),
		ChromeNoSandbox:    getEnvBool("PDF_CHROME_NO_SANDBOX", true),
		PDFMaxConcurrent:   getEnvInt("PDF_MAX_CONCURRENT", 4),
		PDFLoadTimeout:     getEnvDuration("PDF_LOAD_TIMEOUT", 30*time.Second),
		PDFNetworkIdle:     getEnvDuration("PDF_NETWORK_IDLE", 500*time.Millisecond),
		PDFRenderTimeout:   getEnvDuration("PDF_RENDER_TIMEOUT", 60*time.Second),
		PDFDisableScripts:  getEnvBool("PDF_DISABLE_SCRIPTS", false),
		PDFSanitizeHTML:    getEnvBool("PDF_SANITIZE_HTML", false),
		PDFArchiveEnabled:  getEnvBool("PDF_ARCHIVE_ENABLED", false),
		PDFMaxHTMLBytes:    getEnvInt("PDF_MAX_HTML_BYTES", 5<<20),
		AIAPIKey:           getEnv("AI_API_KEY", ""),
		AIBaseURL:          getEnv("AI_BASE_URL", ""),
		AIModel:            getEnv("AI_MODEL", "gpt-4o-mini"),
		AIVisionModel:      getEnv("AI_VISION_MODEL", "gpt-4o-mini"),
		AITimeout:          getEnvDuration("AI_TIMEOUT", 45*time.Second),
		AINoteMaxChars:     getEnvInt("AI_NOTE_MAX_CHARS", 600),
		RateLimitPerSecond: getEnvFloat("RATE_LIMIT_PER_SECOND", 2),
		S3Endpoint:         getEnv("S3_ENDPOINT", ""),
		S3Region:           getEnv("S3_REGION", "auto"),
		S3AccessKeyID:      getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey:  getEnv("S3_SECRET_ACCESS_KEY", ""),
		S3BucketName:       getEnv("S3_BUCKET_NAME", ""),
		S3PublicURL:        getEnv("S3_PUBLIC_URL", ""),
	}
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Debug().Str("key", key).Str("default", defaultValue).Msg("Using default value")
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	// Accept common boolean representations
	switch strings.ToLower(value) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Warn().Str("key", key).Str("value", value).Msg("Invalid integer, using default")
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Warn().Str("key", key).Str("value", value).Msg("Invalid number, using default")
		return defaultValue
	}
	return f
}

// getEnvDuration accepts Go duration strings ("30s", "1m") or a bare number of seconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	log.Warn().Str("key", key).Str("value", value).Msg("Invalid duration, using default")
	return defaultValue
}

// ValidateAPIToken validates the API token meets security requirements.
// In production it must be present and at least MinAPITokenLength characters.
func ValidateAPIToken(token string, environment string) error {
	if environment != "production" {
		if token == "" {
			log.Warn().Msg("API_TOKEN is empty: /api routes accept any caller. This is acceptable only in development.")
		}
		return nil
	}

	if len(token) < MinAPITokenLength {
		log.Fatal().
			Int("min_length", MinAPITokenLength).
			Int("current_length", len(token)).
			Msg("API_TOKEN is missing or too short for production. Generate with: openssl rand -base64 32")
	}

	return nil
}
