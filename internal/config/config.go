// Package config loads service configuration from environment variables.
// Invalid values fall back to defaults rather than failing startup.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// MaxUploadBytes is the largest accepted audio file (100 MiB), enforced
// both by the transfer client before any network activity and by the
// direct multipart endpoint on the server.
const MaxUploadBytes = 100 * 1024 * 1024

// ServiceConfig holds process identity and listen addresses.
type ServiceConfig struct {
	Name        string
	HTTPPort    string
	MetricsPort string
	Environment string
}

// BlobConfig holds object-store settings for the transfer path.
type BlobConfig struct {
	// StoreURL is the base URL uploads are PUT to.
	StoreURL string
	// TokenTTL bounds the validity of an issued upload credential.
	TokenTTL time.Duration
}

// ScratchConfig holds transient scratch storage settings.
type ScratchConfig struct {
	// Dir overrides scratch directory resolution when non-empty.
	Dir string
}

// STTConfig selects and parameterizes the transcription provider.
type STTConfig struct {
	Provider    string // groq, google, mock
	Model       string
	Language    string
	APIKey      string
	BaseURL     string
	Temperature float32
}

// TextOpsConfig parameterizes the text-manipulation collaborator.
type TextOpsConfig struct {
	Model     string
	APIKey    string
	BaseURL   string
	MaxTokens int
}

// DocsConfig holds Google Docs export settings.
type DocsConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	TokenPath    string
}

// KafkaConfig holds event publishing settings.
type KafkaConfig struct {
	Enabled         bool
	Brokers         []string
	TopicUploads    string
	TopicTranscript string
	Principal       string
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // json, console
}

// Configuration is the root configuration for the service.
type Configuration struct {
	Service       ServiceConfig
	Blob          BlobConfig
	Scratch       ScratchConfig
	STT           STTConfig
	TextOps       TextOpsConfig
	Docs          DocsConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
}

// Load reads configuration from the environment.
func Load() *Configuration {
	principal := envOrDefault("SERVICE_PRINCIPAL", "svc-audio-transcription")

	return &Configuration{
		Service: ServiceConfig{
			Name:        principal,
			HTTPPort:    envOrDefault("HTTP_PORT", "8080"),
			MetricsPort: envOrDefault("METRICS_PORT", "9090"),
			Environment: envOrDefault("ENV", "prod"),
		},
		Blob: BlobConfig{
			StoreURL: envOrDefault("BLOB_STORE_URL", ""),
			TokenTTL: envOrDefaultDuration("BLOB_TOKEN_TTL", 10*time.Minute),
		},
		Scratch: ScratchConfig{
			Dir: envOrDefault("SCRATCH_DIR", ""),
		},
		STT: STTConfig{
			Provider:    envOrDefault("STT_PROVIDER", "mock"),
			Model:       envOrDefault("STT_MODEL", "distil-whisper-large-v3-en"),
			Language:    envOrDefault("STT_LANGUAGE", "en"),
			APIKey:      envOrDefault("GROQ_API_KEY", ""),
			BaseURL:     envOrDefault("STT_BASE_URL", "https://api.groq.com/openai/v1"),
			Temperature: 0,
		},
		TextOps: TextOpsConfig{
			Model:     envOrDefault("TEXTOPS_MODEL", "llama-3.1-8b-instant"),
			APIKey:    envOrDefault("TEXTOPS_API_KEY", os.Getenv("GROQ_API_KEY")),
			BaseURL:   envOrDefault("TEXTOPS_BASE_URL", "https://api.groq.com/openai/v1"),
			MaxTokens: envOrDefaultInt("TEXTOPS_MAX_TOKENS", 1024),
		},
		Docs: DocsConfig{
			ClientID:     envOrDefault("GOOGLE_CLIENT_ID", ""),
			ClientSecret: envOrDefault("GOOGLE_CLIENT_SECRET", ""),
			RedirectURL:  envOrDefault("GOOGLE_REDIRECT_URL", "http://localhost:8080/v1/auth/google/callback"),
			TokenPath:    envOrDefault("GOOGLE_TOKEN_PATH", "token.json"),
		},
		Kafka: KafkaConfig{
			Enabled:         envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:         envOrDefaultSlice("KAFKA_BROKERS", nil),
			TopicUploads:    envOrDefault("KAFKA_TOPIC_UPLOADS", "transcription.uploads"),
			TopicTranscript: envOrDefault("KAFKA_TOPIC_TRANSCRIPTS", "transcription.results"),
			Principal:       envOrDefault("KAFKA_PRINCIPAL", principal),
		},
		Observability: ObservabilityConfig{
			LogLevel:  envOrDefault("LOG_LEVEL", "info"),
			LogFormat: envOrDefault("LOG_FORMAT", "json"),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(strings.ToLower(v)); err == nil {
			return b
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envOrDefaultSlice(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return def
}
