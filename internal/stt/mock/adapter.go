// Package mock provides a mock transcriber for testing without service
// credentials. It returns a deterministic verbose transcript and can be
// configured to fail.
package mock

import (
	"context"
	"path/filepath"
	"sync"

	"audio-transcription-service/internal/models"
)

// DefaultTranscript is the canned result returned on success.
var DefaultTranscript = models.Transcription{
	Text:     "Thank you for calling, how can I help you today?",
	Model:    "mock-whisper",
	Language: "en",
	Duration: 3.2,
	Segments: []models.Segment{
		{ID: 0, Start: 0, End: 1.6, Text: "Thank you for calling,"},
		{ID: 1, Start: 1.6, End: 3.2, Text: "how can I help you today?"},
	},
	Words: []models.Word{
		{Word: "Thank", Start: 0, End: 0.3},
		{Word: "you", Start: 0.3, End: 0.5},
		{Word: "for", Start: 0.5, End: 0.7},
		{Word: "calling", Start: 0.7, End: 1.6},
		{Word: "how", Start: 1.6, End: 1.8},
		{Word: "can", Start: 1.8, End: 2.0},
		{Word: "I", Start: 2.0, End: 2.1},
		{Word: "help", Start: 2.1, End: 2.4},
		{Word: "you", Start: 2.4, End: 2.6},
		{Word: "today", Start: 2.6, End: 3.2},
	},
}

// Adapter implements a mock transcriber.
type Adapter struct {
	mu     sync.Mutex
	err    error
	result *models.Transcription

	// Calls records the audio paths received, for assertions.
	Calls []string
}

// New creates a new mock adapter returning DefaultTranscript.
func New() *Adapter {
	r := DefaultTranscript
	return &Adapter{result: &r}
}

// Provider returns the provider name.
func (a *Adapter) Provider() string { return "mock" }

// FailWith makes subsequent Transcribe calls return err.
func (a *Adapter) FailWith(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.err = err
}

// ReturnResult overrides the canned transcript.
func (a *Adapter) ReturnResult(r *models.Transcription) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.result = r
}

// Transcribe returns the canned transcript or the configured error.
func (a *Adapter) Transcribe(ctx context.Context, audioPath string) (*models.Transcription, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.Calls = append(a.Calls, filepath.Base(audioPath))
	if a.err != nil {
		return nil, a.err
	}
	r := *a.result
	return &r, nil
}
