// Package google provides a Google Cloud Speech-to-Text adapter using
// batch recognition with word time offsets.
package google

import (
	"context"
	"fmt"
	"os"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "google.golang.org/genproto/googleapis/cloud/speech/v1"

	"audio-transcription-service/internal/models"
)

// Config parameterizes the Google adapter.
type Config struct {
	Language string
}

// Adapter implements transcription using Google Cloud Speech-to-Text.
type Adapter struct {
	client *speech.Client
	cfg    Config
}

// New creates a new Google STT adapter.
// Requires GOOGLE_APPLICATION_CREDENTIALS environment variable to be set.
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.Language == "" || len(cfg.Language) == 2 {
		// Cloud Speech wants a BCP-47 tag, not a bare ISO 639-1 code.
		cfg.Language = "en-US"
	}
	return &Adapter{client: c, cfg: cfg}, nil
}

// Provider returns the provider name.
func (a *Adapter) Provider() string { return "google" }

// Transcribe runs a synchronous recognition over the audio file.
func (a *Adapter) Transcribe(ctx context.Context, audioPath string) (*models.Transcription, error) {
	data, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}

	resp, err := a.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			LanguageCode:          a.cfg.Language,
			EnableWordTimeOffsets: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: data},
		},
	})
	if err != nil {
		return nil, err
	}

	out := &models.Transcription{
		Model:    "google-cloud-speech",
		Language: a.cfg.Language,
	}

	var texts []string
	for i, r := range resp.Results {
		if len(r.Alternatives) == 0 {
			continue
		}
		alt := r.Alternatives[0]
		texts = append(texts, alt.Transcript)

		seg := models.Segment{ID: i, Text: alt.Transcript}
		for wi, w := range alt.Words {
			word := models.Word{
				Word:  w.Word,
				Start: w.StartTime.AsDuration().Seconds(),
				End:   w.EndTime.AsDuration().Seconds(),
			}
			out.Words = append(out.Words, word)
			if wi == 0 {
				seg.Start = word.Start
			}
			seg.End = word.End
		}
		out.Segments = append(out.Segments, seg)
	}
	out.Text = strings.Join(texts, " ")
	if len(out.Words) > 0 {
		out.Duration = out.Words[len(out.Words)-1].End
	}

	return out, nil
}

// Close releases the underlying client connection.
func (a *Adapter) Close() error {
	return a.client.Close()
}
