// Package stt defines the interface for speech-to-text providers.
package stt

import (
	"context"
	"fmt"

	"audio-transcription-service/internal/config"
	"audio-transcription-service/internal/models"
	"audio-transcription-service/internal/stt/google"
	"audio-transcription-service/internal/stt/groq"
	"audio-transcription-service/internal/stt/mock"
)

// Transcriber converts an audio file on local disk into a verbose
// transcript. Implementations must be safe for concurrent use.
type Transcriber interface {
	// Transcribe sends the audio at audioPath to the provider and returns
	// the structured result.
	Transcribe(ctx context.Context, audioPath string) (*models.Transcription, error)

	// Provider returns the provider name for logging and metrics.
	Provider() string
}

// New creates a Transcriber based on the configured provider.
func New(cfg config.STTConfig) (Transcriber, error) {
	switch cfg.Provider {
	case "groq":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("GROQ_API_KEY not set")
		}
		return groq.New(groq.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Language:    cfg.Language,
			Temperature: cfg.Temperature,
		}), nil
	case "google":
		return google.New(context.Background(), google.Config{
			Language: cfg.Language,
		})
	case "mock":
		return mock.New(), nil
	default:
		return nil, fmt.Errorf("unknown STT provider: %s (supported: groq, google, mock)", cfg.Provider)
	}
}
