package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	RedisURL    string
	QueueName   string

	StoragePath    string
	StorageBaseURL string

	OpenAIAPIKey          string
	OpenAIBaseURL         string
	StabilityAPIKey       string
	StabilityBaseURL      string
	ReplicateAPIKey       string
	ReplicateBaseURL      string
	ReplicateModelVersion string
	InsightFaceURL        string

	MaxRetries        int
	IdentityThreshold float64
	FidelityThreshold float64
	OutputDPI         int
	PollInterval      time.Duration
	PollMaxAttempts   int

	GenerateTimeout   time.Duration
	StatusTimeout     time.Duration
	EmbeddingTimeout  time.Duration
	SimilarityTimeout time.Duration
	DownloadTimeout   time.Duration

	WorkerConcurrency   int
	EngineRatePerMinute int
	ReferenceCacheTTL   time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8081"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		QueueName:   getEnv("QUEUE_NAME", "photogen:generation"),

		StoragePath:    getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL: strings.TrimRight(os.Getenv("STORAGE_BASE_URL"), "/"),

		OpenAIAPIKey:          os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:         getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		StabilityAPIKey:       os.Getenv("STABILITY_API_KEY"),
		StabilityBaseURL:      getEnv("STABILITY_BASE_URL", "https://api.stability.ai"),
		ReplicateAPIKey:       os.Getenv("REPLICATE_API_KEY"),
		ReplicateBaseURL:      getEnv("REPLICATE_BASE_URL", "https://api.replicate.com/v1"),
		ReplicateModelVersion: os.Getenv("REPLICATE_MODEL_VERSION"),
		InsightFaceURL:        getEnv("INSIGHTFACE_URL", "http://insightface:5000"),

		MaxRetries:        getEnvInt("GENERATION_MAX_RETRIES", 3),
		IdentityThreshold: getEnvFloat("FACE_SIMILARITY_THRESHOLD", 0.65),
		FidelityThreshold: getEnvFloat("PRODUCT_SSIM_THRESHOLD", 0.92),
		OutputDPI:         getEnvInt("OUTPUT_DPI", 300),
		PollInterval:      time.Millisecond * time.Duration(getEnvInt("ENGINE_POLL_INTERVAL_MS", 2000)),
		PollMaxAttempts:   getEnvInt("ENGINE_POLL_MAX_ATTEMPTS", 60),

		GenerateTimeout:   time.Second * time.Duration(getEnvInt("ENGINE_GENERATE_TIMEOUT_SECONDS", 120)),
		StatusTimeout:     time.Second * time.Duration(getEnvInt("ENGINE_STATUS_TIMEOUT_SECONDS", 10)),
		EmbeddingTimeout:  time.Second * time.Duration(getEnvInt("EMBEDDING_TIMEOUT_SECONDS", 30)),
		SimilarityTimeout: time.Second * time.Duration(getEnvInt("SIMILARITY_TIMEOUT_SECONDS", 10)),
		DownloadTimeout:   time.Second * time.Duration(getEnvInt("DOWNLOAD_TIMEOUT_SECONDS", 30)),

		WorkerConcurrency:   getEnvInt("WORKER_CONCURRENCY", 4),
		EngineRatePerMinute: getEnvInt("ENGINE_RATE_PER_MINUTE", 30),
		ReferenceCacheTTL:   time.Minute * time.Duration(getEnvInt("REFERENCE_CACHE_TTL_MINUTES", 30)),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.StorageBaseURL == "" {
		cfg.StorageBaseURL = "http://localhost:" + cfg.Port + "/static"
	}
	cfg.clamp()

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	return cfg, nil
}

func (c *Config) clamp() {
	if c.MaxRetries < 1 {
		c.MaxRetries = 1
	}
	if c.IdentityThreshold <= 0 || c.IdentityThreshold > 1 {
		c.IdentityThreshold = 0.65
	}
	if c.FidelityThreshold <= 0 || c.FidelityThreshold > 1 {
		c.FidelityThreshold = 0.92
	}
	if c.OutputDPI <= 0 {
		c.OutputDPI = 300
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Second
	}
	if c.PollMaxAttempts < 1 {
		c.PollMaxAttempts = 60
	}
	if c.WorkerConcurrency < 1 {
		c.WorkerConcurrency = 1
	}
	if c.EngineRatePerMinute < 1 {
		c.EngineRatePerMinute = 30
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return fallback
}
