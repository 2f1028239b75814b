// Package groq provides a Whisper transcription adapter backed by Groq's
// OpenAI-compatible audio API.
package groq

import (
	"context"

	openai "github.com/sashabaranov/go-openai"

	"audio-transcription-service/internal/models"
)

// Config parameterizes the Groq adapter.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Language    string
	Temperature float32
}

// Adapter implements transcription against Groq's audio endpoint.
type Adapter struct {
	client *openai.Client
	cfg    Config
}

// New creates a new Groq adapter.
func New(cfg Config) *Adapter {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Adapter{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
	}
}

// Provider returns the provider name.
func (a *Adapter) Provider() string { return "groq" }

// Transcribe sends the audio file and requests a verbose response with
// word- and segment-level timestamps. Temperature is fixed at the
// configured value (0 for fully deterministic decoding).
func (a *Adapter) Transcribe(ctx context.Context, audioPath string) (*models.Transcription, error) {
	resp, err := a.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:       a.cfg.Model,
		FilePath:    audioPath,
		Format:      openai.AudioResponseFormatVerboseJSON,
		Language:    a.cfg.Language,
		Temperature: a.cfg.Temperature,
		TimestampGranularities: []openai.TranscriptionTimestampGranularity{
			openai.TranscriptionTimestampGranularityWord,
			openai.TranscriptionTimestampGranularitySegment,
		},
	})
	if err != nil {
		return nil, err
	}

	out := &models.Transcription{
		Text:     resp.Text,
		Model:    a.cfg.Model,
		Language: resp.Language,
		Duration: resp.Duration,
	}
	for _, s := range resp.Segments {
		out.Segments = append(out.Segments, models.Segment{
			ID:    s.ID,
			Start: s.Start,
			End:   s.End,
			Text:  s.Text,
		})
	}
	for _, w := range resp.Words {
		out.Words = append(out.Words, models.Word{
			Word:  w.Word,
			Start: w.Start,
			End:   w.End,
		})
	}
	return out, nil
}
