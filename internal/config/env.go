package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Inference providers understood by llm.NewGateway.
const (
	ProviderKeyword     = "keyword"
	ProviderHuggingFace = "huggingface"
	ProviderGemini      = "gemini"
)

type Config struct {
	Port        string
	AppVersion  string
	DatabaseURL string
	SslCertPath string
	JWTSecret   string

	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string
	S3Endpoint   string

	InferenceProvider string
	HFAPIKey          string
	HFBaseURL         string
	AIAPIKey          string
	GenModel          string
	DefaultModel      string
	InferenceTimeout  time.Duration

	RedisURL      string
	CORSOrigins   []string
	LogLevel      string
	AdminEmail    string
	AdminPassword string
	IngestWorkers int
	MaxUploadMB   int
}

// LoadConfig loads the environment variables and return config
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		AppVersion:  getEnv("APP_VERSION", "1.0.0"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		SslCertPath: getEnv("SSL_CERT_PATH", ""),
		JWTSecret:   getEnv("JWT_SECRET", ""),

		AwsAccessKey: getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey: getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:    getEnv("AWS_REGION", "us-east-2"),
		BucketName:   getEnv("BUCKET_NAME", "counsel-docs"),
		S3Endpoint:   getEnv("S3_ENDPOINT", ""),

		InferenceProvider: strings.ToLower(getEnv("INFERENCE_PROVIDER", ProviderKeyword)),
		HFAPIKey:          getEnv("HF_API_KEY", ""),
		HFBaseURL:         getEnv("HF_BASE_URL", "https://api-inference.huggingface.co"),
		AIAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GenModel:          getEnv("GEN_MODEL", "gemini-1.5-flash"),
		DefaultModel:      getEnv("DEFAULT_MODEL", "flan-t5-legal"),
		InferenceTimeout:  getEnvDuration("INFERENCE_TIMEOUT", 30*time.Second),

		RedisURL:      getEnv("REDIS_URL", ""),
		CORSOrigins:   splitList(getEnv("CORS_ORIGINS", "http://localhost:5173,http://localhost:8888")),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		IngestWorkers: getEnvInt("INGEST_WORKERS", 2),
		MaxUploadMB:   getEnvInt("MAX_UPLOAD_MB", 50),
	}

	return cfg
}

// Validate reports every missing setting at once so a misconfigured deploy fails on the first start.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL not set"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET not set"))
	}
	if c.BucketName == "" {
		errs = append(errs, errors.New("BUCKET_NAME not set"))
	}
	switch c.InferenceProvider {
	case ProviderKeyword:
	case ProviderHuggingFace:
		if c.HFAPIKey == "" {
			errs = append(errs, errors.New("HF_API_KEY required for huggingface provider"))
		}
	case ProviderGemini:
		if c.AIAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY required for gemini provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported INFERENCE_PROVIDER %q", c.InferenceProvider))
	}
	if c.IngestWorkers < 1 {
		errs = append(errs, errors.New("INGEST_WORKERS must be at least 1"))
	}
	return errors.Join(errs...)
}

// MaxUploadBytes is the multipart limit applied to document uploads.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("WARN: %s=%q not a duration, using default %s", key, v, def)
		return def
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
