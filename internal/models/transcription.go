// Package models defines the wire-level data structures shared between the
// HTTP API, the transcription providers, and the client pipeline.
package models

// Transcription is the verbose transcription result returned by the
// dispatch endpoint. Segments and Words carry timing metadata when the
// provider supplies it; Text is always present on success.
type Transcription struct {
	Text     string    `json:"text"`
	Model    string    `json:"model,omitempty"`
	Language string    `json:"language,omitempty"`
	Duration float64   `json:"duration,omitempty"`
	Segments []Segment `json:"segments,omitempty"`
	Words    []Word    `json:"words,omitempty"`
}

// Segment is a span of transcribed audio with start/end offsets in seconds.
type Segment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Word is a single word with timing offsets in seconds.
type Word struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// ObjectReference identifies a completed upload in the object store.
// Filenames are timestamp-qualified by the transfer client, so a reference
// is never reused across sessions.
type ObjectReference struct {
	URL      string `json:"blobUrl"`
	FileName string `json:"fileName"`
}

// UploadCredential is the scoped, short-lived authorization returned to a
// transfer client before an upload begins. It is consumed exactly once and
// never persisted; enforcement of the content-type allow-list happens at
// the storage provider using this policy.
type UploadCredential struct {
	AllowedContentTypes []string `json:"allowedContentTypes"`
	AddRandomSuffix     bool     `json:"addRandomSuffix"`
	Token               string   `json:"token"`
	TokenPayload        string   `json:"tokenPayload,omitempty"`
}

// CompletedBlob is the object metadata delivered by the storage provider's
// upload-completed callback.
type CompletedBlob struct {
	URL         string `json:"url"`
	Pathname    string `json:"pathname"`
	ContentType string `json:"contentType,omitempty"`
	Size        int64  `json:"size,omitempty"`
}
