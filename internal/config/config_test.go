package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	envVars := []string{
		"SERVICE_PRINCIPAL", "HTTP_PORT", "METRICS_PORT", "LOG_LEVEL",
		"STT_PROVIDER", "STT_MODEL", "STT_LANGUAGE", "STT_BASE_URL",
		"BLOB_STORE_URL", "BLOB_TOKEN_TTL", "SCRATCH_DIR",
		"TEXTOPS_MODEL", "TEXTOPS_MAX_TOKENS",
		"KAFKA_ENABLED", "KAFKA_BROKERS", "KAFKA_PRINCIPAL",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}

	cfg := Load()

	if cfg.Service.Name != "svc-audio-transcription" {
		t.Errorf("expected default principal 'svc-audio-transcription', got %s", cfg.Service.Name)
	}
	if cfg.Service.HTTPPort != "8080" {
		t.Errorf("expected default HTTP port '8080', got %s", cfg.Service.HTTPPort)
	}
	if cfg.Service.MetricsPort != "9090" {
		t.Errorf("expected default metrics port '9090', got %s", cfg.Service.MetricsPort)
	}

	if cfg.STT.Provider != "mock" {
		t.Errorf("expected default STT provider 'mock', got %s", cfg.STT.Provider)
	}
	if cfg.STT.Model != "distil-whisper-large-v3-en" {
		t.Errorf("expected default model 'distil-whisper-large-v3-en', got %s", cfg.STT.Model)
	}
	if cfg.STT.Language != "en" {
		t.Errorf("expected default language 'en', got %s", cfg.STT.Language)
	}
	if cfg.STT.Temperature != 0 {
		t.Errorf("expected temperature 0, got %f", cfg.STT.Temperature)
	}

	if cfg.Blob.TokenTTL != 10*time.Minute {
		t.Errorf("expected default token TTL 10m, got %v", cfg.Blob.TokenTTL)
	}

	if cfg.TextOps.Model != "llama-3.1-8b-instant" {
		t.Errorf("expected default textops model 'llama-3.1-8b-instant', got %s", cfg.TextOps.Model)
	}
	if cfg.TextOps.MaxTokens != 1024 {
		t.Errorf("expected default max tokens 1024, got %d", cfg.TextOps.MaxTokens)
	}

	if cfg.Kafka.Enabled {
		t.Error("expected Kafka disabled by default")
	}

	if cfg.Observability.LogLevel != "info" {
		t.Errorf("expected default log level 'info', got %s", cfg.Observability.LogLevel)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Setenv("SERVICE_PRINCIPAL", "custom-principal")
	os.Setenv("HTTP_PORT", "9999")
	os.Setenv("STT_PROVIDER", "groq")
	os.Setenv("STT_LANGUAGE", "es")
	os.Setenv("BLOB_TOKEN_TTL", "30m")
	os.Setenv("KAFKA_ENABLED", "true")
	os.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092")
	os.Setenv("TEXTOPS_MAX_TOKENS", "2048")

	defer func() {
		os.Unsetenv("SERVICE_PRINCIPAL")
		os.Unsetenv("HTTP_PORT")
		os.Unsetenv("STT_PROVIDER")
		os.Unsetenv("STT_LANGUAGE")
		os.Unsetenv("BLOB_TOKEN_TTL")
		os.Unsetenv("KAFKA_ENABLED")
		os.Unsetenv("KAFKA_BROKERS")
		os.Unsetenv("TEXTOPS_MAX_TOKENS")
	}()

	cfg := Load()

	if cfg.Service.Name != "custom-principal" {
		t.Errorf("expected principal 'custom-principal', got %s", cfg.Service.Name)
	}
	if cfg.Service.HTTPPort != "9999" {
		t.Errorf("expected port '9999', got %s", cfg.Service.HTTPPort)
	}
	if cfg.STT.Provider != "groq" {
		t.Errorf("expected STT provider 'groq', got %s", cfg.STT.Provider)
	}
	if cfg.STT.Language != "es" {
		t.Errorf("expected language 'es', got %s", cfg.STT.Language)
	}
	if cfg.Blob.TokenTTL != 30*time.Minute {
		t.Errorf("expected token TTL 30m, got %v", cfg.Blob.TokenTTL)
	}
	if !cfg.Kafka.Enabled {
		t.Error("expected Kafka enabled")
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "broker-2:9092" {
		t.Errorf("expected two trimmed brokers, got %v", cfg.Kafka.Brokers)
	}
	if cfg.TextOps.MaxTokens != 2048 {
		t.Errorf("expected max tokens 2048, got %d", cfg.TextOps.MaxTokens)
	}
}

func TestLoad_InvalidValues_FallbackToDefaults(t *testing.T) {
	os.Setenv("BLOB_TOKEN_TTL", "not-a-duration")
	os.Setenv("KAFKA_ENABLED", "invalid")
	os.Setenv("TEXTOPS_MAX_TOKENS", "invalid")

	defer func() {
		os.Unsetenv("BLOB_TOKEN_TTL")
		os.Unsetenv("KAFKA_ENABLED")
		os.Unsetenv("TEXTOPS_MAX_TOKENS")
	}()

	cfg := Load()

	if cfg.Blob.TokenTTL != 10*time.Minute {
		t.Errorf("expected default token TTL on invalid input, got %v", cfg.Blob.TokenTTL)
	}
	if cfg.Kafka.Enabled {
		t.Error("expected default Kafka enabled=false on invalid input")
	}
	if cfg.TextOps.MaxTokens != 1024 {
		t.Errorf("expected default max tokens on invalid input, got %d", cfg.TextOps.MaxTokens)
	}
}

func TestLoad_KafkaPrincipal_FallsBackToServicePrincipal(t *testing.T) {
	os.Setenv("SERVICE_PRINCIPAL", "my-service")
	os.Unsetenv("KAFKA_PRINCIPAL")

	defer os.Unsetenv("SERVICE_PRINCIPAL")

	cfg := Load()

	if cfg.Kafka.Principal != "my-service" {
		t.Errorf("expected Kafka principal to fall back to service principal, got %s", cfg.Kafka.Principal)
	}
}

func TestEnvOrDefaultBool(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		def      bool
		expected bool
	}{
		{"true string", "true", false, true},
		{"false string", "false", true, false},
		{"1", "1", false, true},
		{"0", "0", true, false},
		{"TRUE uppercase", "TRUE", false, true},
		{"invalid", "invalid", true, true},
		{"empty", "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "TEST_BOOL_VAR"
			if tt.envValue != "" {
				os.Setenv(key, tt.envValue)
			} else {
				os.Unsetenv(key)
			}
			defer os.Unsetenv(key)

			got := envOrDefaultBool(key, tt.def)
			if got != tt.expected {
				t.Errorf("envOrDefaultBool(%s, %v) = %v, want %v", tt.envValue, tt.def, got, tt.expected)
			}
		})
	}
}
