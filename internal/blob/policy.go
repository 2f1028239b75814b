// Package blob implements the out-of-band upload path: the authorization
// policy that scopes what a client may upload, the completion hook invoked
// when the storage provider confirms an upload, and the transfer client
// that streams files to the store.
package blob

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"audio-transcription-service/internal/apperrors"
	"audio-transcription-service/internal/events"
	"audio-transcription-service/internal/models"
	"audio-transcription-service/internal/observability/metrics"
)

// AllowedContentTypes is the enumerated allow-list of audio/video MIME
// types a scoped credential permits. Anything else is rejected by omission;
// enforcement happens at the storage provider using the returned policy,
// not by inspecting bytes.
var AllowedContentTypes = []string{
	"audio/wav",
	"audio/mp3",
	"audio/mp4",
	"audio/mpeg",
	"audio/ogg",
	"audio/webm",
	"audio/flac",
	"audio/x-m4a",
	"audio/aac",
	"video/mp4",
	"video/webm",
}

// CompletionHook receives the upload-completed callback from the storage
// provider. It is an extension point for post-upload bookkeeping; it runs
// fire-and-forget and performs no blocking work the uploader waits on.
type CompletionHook interface {
	UploadCompleted(ctx context.Context, blob models.CompletedBlob, tokenPayload string)
}

// NoopHook is a CompletionHook that does nothing.
type NoopHook struct{}

// UploadCompleted implements CompletionHook.
func (NoopHook) UploadCompleted(context.Context, models.CompletedBlob, string) {}

// EventHook publishes upload-completed events to Kafka.
type EventHook struct {
	Publisher *events.Publisher
}

// UploadCompleted implements CompletionHook.
func (h *EventHook) UploadCompleted(ctx context.Context, blob models.CompletedBlob, tokenPayload string) {
	ev := events.UploadCompleted{
		EventType:    "upload.completed",
		URL:          blob.URL,
		Pathname:     blob.Pathname,
		ContentType:  blob.ContentType,
		Size:         blob.Size,
		TokenPayload: tokenPayload,
		Timestamp:    time.Now().UnixMilli(),
	}
	if err := h.Publisher.PublishUploadCompleted(ctx, blob.Pathname, ev); err != nil {
		log.Error().Err(err).Str("pathname", blob.Pathname).Msg("Failed to publish upload event")
	}
}

// Authorizer issues scoped upload credentials and handles completion
// callbacks.
type Authorizer struct {
	hook     CompletionHook
	tokenTTL time.Duration
	metrics  *metrics.Metrics
}

// NewAuthorizer creates an Authorizer. A nil hook defaults to NoopHook.
func NewAuthorizer(hook CompletionHook, tokenTTL time.Duration) *Authorizer {
	if hook == nil {
		hook = NoopHook{}
	}
	return &Authorizer{
		hook:     hook,
		tokenTTL: tokenTTL,
		metrics:  metrics.DefaultMetrics,
	}
}

type tokenPayload struct {
	Pathname string `json:"pathname"`
	Expires  int64  `json:"expires"`
}

// IssueCredential returns a short-lived credential scoped to one upload of
// the named pathname. AddRandomSuffix is false: object names already carry
// a client-side timestamp.
func (a *Authorizer) IssueCredential(pathname string) (*models.UploadCredential, error) {
	if pathname == "" {
		a.metrics.RecordCredentialDenied("missing_pathname")
		return nil, apperrors.Validation("pathname is required")
	}

	payload, err := json.Marshal(tokenPayload{
		Pathname: pathname,
		Expires:  time.Now().Add(a.tokenTTL).UnixMilli(),
	})
	if err != nil {
		a.metrics.RecordCredentialDenied("internal")
		return nil, apperrors.Authorization(err, "failed to issue upload credential")
	}

	a.metrics.RecordCredentialIssued()
	return &models.UploadCredential{
		AllowedContentTypes: AllowedContentTypes,
		AddRandomSuffix:     false,
		Token:               uuid.NewString(),
		TokenPayload:        string(payload),
	}, nil
}

// HandleCompleted processes the asynchronous upload-completed callback
// from the storage provider and invokes the bookkeeping hook.
func (a *Authorizer) HandleCompleted(ctx context.Context, blob models.CompletedBlob, payload string) error {
	if blob.URL == "" || blob.Pathname == "" {
		return apperrors.Validation("completed blob metadata is required")
	}

	a.metrics.RecordUploadCompleted(blob.Size)
	a.hook.UploadCompleted(ctx, blob, payload)
	return nil
}

// ContentTypeAllowed reports whether ct is in the allow-list.
func ContentTypeAllowed(ct string) bool {
	for _, allowed := range AllowedContentTypes {
		if ct == allowed {
			return true
		}
	}
	return false
}
