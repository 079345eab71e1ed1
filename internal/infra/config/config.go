package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env      string
	Server   ServerConfig
	DB       DBConfig
	Corpus   CorpusConfig
	Embedder EmbedderConfig
	Rerank   RerankConfig
	LLM      LLMConfig
	Pipeline PipelineConfig
	Cache    CacheConfig
	Images   ImagesConfig
}

type ServerConfig struct {
	Port        string `validate:"required"`
	FrontendURL string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	MaxConns int32
	MinConns int32
}

// DSN builds the pool connection string for the embeddings database.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.Name)
}

type CorpusConfig struct {
	CSVPath string `validate:"required"`
}

type EmbedderConfig struct {
	URL       string `validate:"required,url"`
	Model     string `validate:"required"`
	Dimension int    `validate:"gt=0"`
	Timeout   int    `validate:"gt=0"`
}

type RerankConfig struct {
	Enabled   bool
	URL       string `validate:"omitempty,url"`
	Model     string
	BatchSize int `validate:"gt=0"`
	Timeout   int `validate:"gt=0"`
}

// LLMConfig drives the explanation generator. An empty APIKey is not a
// configuration error: the generator degrades to "no explanation".
type LLMConfig struct {
	Enabled           bool
	Provider          string `validate:"oneof=gemini openai anthropic"`
	APIKey            string
	Model             string
	MaxTokens         int     `validate:"gt=0"`
	Temperature       float64 `validate:"gte=0,lte=1"`
	RequestsPerMinute int     `validate:"gt=0"`
	Timeout           int     `validate:"gt=0"`
}

type PipelineConfig struct {
	TopK          int `validate:"gt=0"`
	RetrievalTopK int `validate:"gt=0"`
	StageTimeout  int `validate:"gt=0"` // seconds, wraps each pipeline stage
}

type CacheConfig struct {
	Size int
	TTL  int // minutes
}

// ImagesConfig controls recipe image resolution. An empty S3Bucket disables
// presigning and falls back to BaseURL joining.
type ImagesConfig struct {
	S3Bucket   string
	Region     string
	BaseURL    string
	PresignTTL int // minutes
}

func Load() *Config {
	return &Config{
		Env: getEnv("NODE_ENV", "development"),
		Server: ServerConfig{
			Port:        getEnv("PORT", "3001"),
			FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		},
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "recipes-db"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "chef_user"),
			Password: getSecret("DB_PASSWORD", "DB_PASSWORD_FILE", "chef_password"),
			Name:     getEnv("DB_NAME", "recipes_db"),
			MaxConns: int32(getEnvInt("DB_MAX_CONNS", 10)),
			MinConns: int32(getEnvInt("DB_MIN_CONNS", 2)),
		},
		Corpus: CorpusConfig{
			CSVPath: getEnv("RECIPES_CSV_PATH", "data/recipes.csv"),
		},
		Embedder: EmbedderConfig{
			URL:       getEnv("EMBEDDER_URL", "http://embedder:8080"),
			Model:     getEnv("EMBEDDING_MODEL", "all-MiniLM-L6-v2"),
			Dimension: getEnvInt("EMBEDDING_DIMENSION", 384),
			Timeout:   getEnvInt("EMBEDDER_TIMEOUT_SECONDS", 30),
		},
		Rerank: RerankConfig{
			Enabled:   getEnvBool("RERANKER_ENABLED", true),
			URL:       getEnv("RERANKER_URL", "http://reranker:8081"),
			Model:     getEnv("RERANKER_MODEL", "cross-encoder/ms-marco-MiniLM-L-6-v2"),
			BatchSize: getEnvInt("RERANKER_BATCH_SIZE", 32),
			Timeout:   getEnvInt("RERANKER_TIMEOUT_SECONDS", 30),
		},
		LLM: loadLLM(),
		Pipeline: PipelineConfig{
			TopK:          getEnvInt("PIPELINE_TOP_K", 10),
			RetrievalTopK: getEnvInt("PIPELINE_RETRIEVAL_TOP_K", 50),
			StageTimeout:  getEnvInt("PIPELINE_STAGE_TIMEOUT_SECONDS", 60),
		},
		Cache: CacheConfig{
			Size: getEnvInt("EXPLANATION_CACHE_SIZE", 256),
			TTL:  getEnvInt("EXPLANATION_CACHE_TTL_MINUTES", 10),
		},
		Images: ImagesConfig{
			S3Bucket:   getEnv("S3_BUCKET_NAME", ""),
			Region:     getEnv("AWS_REGION", ""),
			BaseURL:    getEnv("IMAGE_BASE_URL", ""),
			PresignTTL: getEnvInt("IMAGE_PRESIGN_TTL_MINUTES", 15),
		},
	}
}

// loadLLM resolves the provider-specific credential and model defaults.
// The GEMINI_* names are accepted as alternates because gemini is the
// default provider and existing deployments configure it that way.
func loadLLM() LLMConfig {
	provider := strings.ToLower(getEnv("LLM_PROVIDER", "gemini"))
	cfg := LLMConfig{
		Enabled:           getEnvBool("LLM_ENABLED", getEnvBool("GEMINI_ENABLED", true)),
		Provider:          provider,
		MaxTokens:         getEnvInt("LLM_MAX_TOKENS", getEnvInt("GEMINI_MAX_TOKENS", 2000)),
		Temperature:       getEnvFloat64("LLM_TEMPERATURE", getEnvFloat64("GEMINI_TEMPERATURE", 0.7)),
		RequestsPerMinute: getEnvInt("LLM_REQUESTS_PER_MINUTE", 30),
		Timeout:           getEnvInt("LLM_TIMEOUT_SECONDS", 60),
	}

	switch provider {
	case "openai":
		cfg.APIKey = getSecret("OPENAI_API_KEY", "OPENAI_API_KEY_FILE", "")
		cfg.Model = getEnv("LLM_MODEL", "gpt-4o-mini")
	case "anthropic":
		cfg.APIKey = getSecret("ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY_FILE", "")
		cfg.Model = getEnv("LLM_MODEL", "claude-3-5-haiku-20241022")
	default:
		cfg.APIKey = getSecret("GEMINI_API_KEY", "GEMINI_API_KEY_FILE", "")
		cfg.Model = getEnvWithAlt("LLM_MODEL", "GEMINI_MODEL", "models/gemini-2.5-flash")
	}

	return cfg
}

var validate = validator.New()

// Validate reports configuration values that would otherwise only fail
// mid-request.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, ve := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s failed %q", ve.Namespace(), ve.Tag()))
		}
		return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
	}
	return err
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	// 1. Try direct environment variable
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}

	// 2. Try reading from file specified by fileEnvKey
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	return fallback
}

func getEnvWithAlt(key, altKey, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	if value, ok := os.LookupEnv(altKey); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat64(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
