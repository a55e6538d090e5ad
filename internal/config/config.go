package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Port        string
	DatabaseURL string
	LogLevel    string

	// S3 archive of raw uploads; disabled when S3Endpoint is empty
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3BucketName      string
	S3UseSSL          bool

	// Redis result cache; disabled when RedisAddr is empty
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	// Kafka analysis events; disabled when KafkaBrokers is empty
	KafkaBrokers []string
	KafkaTopic   string

	// Classifier
	ClassifierBackend   string
	HFAPIToken          string
	HFModelURL          string
	OpenAIAPIKey        string
	OpenAIBaseURL       string
	OpenAIModel         string
	AnthropicAPIKey     string
	AnthropicModel      string
	ClassifierTimeout   time.Duration
	ClassifierWorkers   int
	ClassifierBatchSize int

	// Pipeline tuning
	SimilarityNGram     int
	SimilarityWindow    int
	SimilarityStep      int
	SimilarityThreshold float64
	ChunkSize           int
	MinChunkSize        int
	MinClassifyLength   int
	MinTextLength       int
	PDFMaxPages         int
	DedupScope          string

	RateLimitRPS   float64
	RateLimitBurst int

	// Upload limits
	MaxFileSize int64
}

// Load reads configuration from the environment. When CONFIG_FILE names a
// TOML file its keys (same names as the environment variables) fill in
// anything the environment leaves unset.
func Load() (*Config, error) {
	src, err := newSource(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:              src.getEnv("PORT", "8080"),
		DatabaseURL:       src.getEnv("DATABASE_URL", "./data/documents.db"),
		LogLevel:          src.getEnv("LOG_LEVEL", "info"),
		S3Endpoint:        src.getEnv("S3_ENDPOINT", ""),
		S3AccessKeyID:     src.getEnv("S3_ACCESS_KEY_ID", "minioadmin"),
		S3SecretAccessKey: src.getEnv("S3_SECRET_ACCESS_KEY", "minioadmin"),
		S3BucketName:      src.getEnv("S3_BUCKET_NAME", "documents"),
		S3UseSSL:          src.getBool("S3_USE_SSL", false),

		RedisAddr:     src.getEnv("REDIS_ADDR", ""),
		RedisPassword: src.getEnv("REDIS_PASSWORD", ""),
		RedisDB:       src.getInt("REDIS_DB", 0),
		CacheTTL:      src.getDuration("CACHE_TTL", time.Hour),

		KafkaBrokers: splitAndTrim(src.getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:   src.getEnv("KAFKA_TOPIC", "document-analysis"),

		ClassifierBackend:   strings.ToLower(src.getEnv("CLASSIFIER_BACKEND", "heuristic")),
		HFAPIToken:          src.getEnv("HF_API_TOKEN", ""),
		HFModelURL:          src.getEnv("HF_MODEL_URL", ""),
		OpenAIAPIKey:        src.getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:       src.getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:         src.getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		AnthropicAPIKey:     src.getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:      src.getEnv("ANTHROPIC_MODEL", "claude-3-haiku-20240307"),
		ClassifierTimeout:   src.getDuration("CLASSIFIER_TIMEOUT", 60*time.Second),
		ClassifierWorkers:   src.getInt("CLASSIFIER_WORKERS", 4),
		ClassifierBatchSize: src.getInt("CLASSIFIER_BATCH_SIZE", 8),

		SimilarityNGram:     src.getInt("SIMILARITY_NGRAM", 5),
		SimilarityWindow:    src.getInt("SIMILARITY_WINDOW", 200),
		SimilarityStep:      src.getInt("SIMILARITY_STEP", 100),
		SimilarityThreshold: src.getFloat("SIMILARITY_THRESHOLD", 0.3),
		ChunkSize:           src.getInt("CHUNK_SIZE", 512),
		MinChunkSize:        src.getInt("MIN_CHUNK_SIZE", 100),
		MinClassifyLength:   src.getInt("MIN_CLASSIFY_LENGTH", 300),
		MinTextLength:       src.getInt("MIN_TEXT_LENGTH", 100),
		PDFMaxPages:         src.getInt("PDF_MAX_PAGES", 20),
		DedupScope:          strings.ToLower(src.getEnv("DEDUP_SCOPE", "global")),

		RateLimitRPS:   src.getFloat("RATE_LIMIT_RPS", 2),
		RateLimitBurst: src.getInt("RATE_LIMIT_BURST", 5),

		MaxFileSize: int64(src.getInt("MAX_FILE_SIZE", 10*1024*1024)),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.ClassifierBackend {
	case "heuristic", "huggingface":
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when CLASSIFIER_BACKEND=openai")
		}
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required when CLASSIFIER_BACKEND=anthropic")
		}
	default:
		return fmt.Errorf("CLASSIFIER_BACKEND must be one of heuristic, huggingface, openai, anthropic")
	}

	if c.DedupScope != "global" && c.DedupScope != "owner" {
		return fmt.Errorf("DEDUP_SCOPE must be global or owner")
	}
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("SIMILARITY_THRESHOLD must be in (0, 1]")
	}

	positive := map[string]int{
		"SIMILARITY_NGRAM":      c.SimilarityNGram,
		"SIMILARITY_WINDOW":     c.SimilarityWindow,
		"SIMILARITY_STEP":       c.SimilarityStep,
		"CHUNK_SIZE":            c.ChunkSize,
		"CLASSIFIER_WORKERS":    c.ClassifierWorkers,
		"CLASSIFIER_BATCH_SIZE": c.ClassifierBatchSize,
		"PDF_MAX_PAGES":         c.PDFMaxPages,
		"RATE_LIMIT_BURST":      c.RateLimitBurst,
	}
	for key, v := range positive {
		if v <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}

	if c.MinChunkSize < 0 || c.MinClassifyLength < 0 || c.MinTextLength < 0 {
		return fmt.Errorf("MIN_CHUNK_SIZE, MIN_CLASSIFY_LENGTH and MIN_TEXT_LENGTH cannot be negative")
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE must be positive")
	}
	if c.ClassifierTimeout <= 0 {
		return fmt.Errorf("CLASSIFIER_TIMEOUT must be positive")
	}
	if c.RateLimitRPS <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be positive")
	}

	return nil
}

// source resolves a key from the environment first, then the config file.
type source struct {
	file map[string]string
}

func newSource(path string) (*source, error) {
	s := &source{file: map[string]string{}}
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	for key, value := range raw {
		switch v := value.(type) {
		case []any:
			parts := make([]string, len(v))
			for i, p := range v {
				parts[i] = fmt.Sprint(p)
			}
			s.file[strings.ToUpper(key)] = strings.Join(parts, ",")
		case map[string]any:
			return nil, fmt.Errorf("config file %s: table %q is not supported, use flat keys", path, key)
		default:
			s.file[strings.ToUpper(key)] = fmt.Sprint(v)
		}
	}

	return s, nil
}

func (s *source) getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if value, ok := s.file[key]; ok && value != "" {
		return value
	}
	return defaultValue
}

func (s *source) getInt(key string, fallback int) int {
	if parsed, err := strconv.Atoi(s.getEnv(key, "")); err == nil {
		return parsed
	}
	return fallback
}

func (s *source) getFloat(key string, fallback float64) float64 {
	if parsed, err := strconv.ParseFloat(s.getEnv(key, ""), 64); err == nil {
		return parsed
	}
	return fallback
}

func (s *source) getBool(key string, fallback bool) bool {
	if parsed, err := strconv.ParseBool(s.getEnv(key, "")); err == nil {
		return parsed
	}
	return fallback
}

func (s *source) getDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(s.getEnv(key, "")); err == nil {
		return d
	}
	return fallback
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
