package blob

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"context"

	"audio-transcription-service/internal/apperrors"
	"audio-transcription-service/internal/config"
	"audio-transcription-service/internal/models"
	"audio-transcription-service/internal/observability/logging"
)

// ValidExtensions is the file-extension allow-list checked client-side
// before any network transfer begins.
var ValidExtensions = []string{
	"wav", "mp3", "mp4", "m4a", "flac", "ogg", "opus", "webm", "mpga", "mpeg",
}

// ExtensionAllowed reports whether ext (without dot, any case) is accepted.
func ExtensionAllowed(ext string) bool {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, e := range ValidExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// AuthorizeEvent is the request envelope the transfer client posts to the
// authorization endpoint, mirroring the storage provider's client protocol:
// both credential issuance and the provider's completion callback arrive at
// the same URL, distinguished by Type.
type AuthorizeEvent struct {
	Type    string           `json:"type"` // generate-client-token, upload-completed
	Payload AuthorizePayload `json:"payload"`
}

// AuthorizePayload carries the event-specific fields.
type AuthorizePayload struct {
	Pathname     string                `json:"pathname,omitempty"`
	Blob         *models.CompletedBlob `json:"blob,omitempty"`
	TokenPayload string                `json:"tokenPayload,omitempty"`
}

// Event type constants for AuthorizeEvent.
const (
	EventGenerateToken   = "generate-client-token"
	EventUploadCompleted = "upload-completed"
)

// Client streams files to the object store out-of-band, bypassing the
// application server's body-size limits. Failures surface as UploadError
// with no automatic retry; the user resubmits.
type Client struct {
	authorizeURL string
	storeURL     string
	httpClient   *http.Client
	tickInterval time.Duration
}

// NewClient creates a transfer client. tickInterval controls the simulated
// progress cadence; zero means the 500ms default.
func NewClient(authorizeURL, storeURL string, httpClient *http.Client, tickInterval time.Duration) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		authorizeURL: authorizeURL,
		storeURL:     storeURL,
		httpClient:   httpClient,
		tickInterval: tickInterval,
	}
}

// Upload validates the file, obtains a scoped credential, and PUTs the
// content to the store under a timestamp-qualified name. onProgress
// receives the simulated progress percentage; the simulation is cancelled
// the moment the transfer completes or fails.
func (c *Client) Upload(ctx context.Context, fileName, contentType string, size int64, content io.Reader, onProgress func(int)) (*models.ObjectReference, error) {
	logger := logging.WithUpload(fileName, contentType)

	// Pre-checks before any network transfer begins.
	if fileName == "" {
		return nil, apperrors.Validation("please select an audio file")
	}
	ext := filepath.Ext(fileName)
	if !ExtensionAllowed(ext) {
		return nil, apperrors.Validation("invalid file type. Allowed extensions: %s", strings.Join(ValidExtensions, ", "))
	}
	if size > config.MaxUploadBytes {
		return nil, apperrors.Validation("file too large. Maximum size is 100MB")
	}

	// Unique object name: millisecond timestamp plus the original
	// extension avoids collisions without server coordination.
	objectName := fmt.Sprintf("audio_%d%s", time.Now().UnixMilli(), strings.ToLower(ext))

	cred, err := c.requestCredential(ctx, objectName)
	if err != nil {
		return nil, err
	}
	if contentType != "" && !credentialAllows(cred, contentType) {
		return nil, apperrors.Upload(nil, "content type %s not permitted by upload policy", contentType)
	}

	sim := newProgressSimulator(c.tickInterval, onProgress)
	sim.Start()
	defer sim.Stop()

	ref, err := c.put(ctx, cred, objectName, contentType, content)
	sim.Stop()
	if err != nil {
		logger.Error().Err(err).Msg("Blob transfer failed")
		return nil, err
	}

	logger.Info().Str("objectName", objectName).Str("url", ref.URL).Msg("Blob transfer completed")
	return ref, nil
}

func (c *Client) requestCredential(ctx context.Context, pathname string) (*models.UploadCredential, error) {
	body, err := json.Marshal(AuthorizeEvent{
		Type:    EventGenerateToken,
		Payload: AuthorizePayload{Pathname: pathname},
	})
	if err != nil {
		return nil, apperrors.Upload(err, "failed to build credential request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authorizeURL, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.Upload(err, "failed to build credential request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Upload(err, "credential request failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, apperrors.Upload(nil, "credential request rejected: %s", strings.TrimSpace(string(msg)))
	}

	var cred models.UploadCredential
	if err := json.NewDecoder(resp.Body).Decode(&cred); err != nil {
		return nil, apperrors.Upload(err, "invalid credential response")
	}
	return &cred, nil
}

func (c *Client) put(ctx context.Context, cred *models.UploadCredential, objectName, contentType string, content io.Reader) (*models.ObjectReference, error) {
	url := strings.TrimSuffix(c.storeURL, "/") + "/" + objectName

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, content)
	if err != nil {
		return nil, apperrors.Upload(err, "failed to build transfer request")
	}
	req.Header.Set("Authorization", "Bearer "+cred.Token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Upload(err, "transfer to object store failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, apperrors.Upload(nil, "object store rejected upload: %s", strings.TrimSpace(string(msg)))
	}

	// Providers that return the final object metadata win; otherwise the
	// reference is derived from the store URL and object name.
	ref := &models.ObjectReference{URL: url, FileName: objectName}
	var uploaded models.CompletedBlob
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err == nil && uploaded.URL != "" {
		ref.URL = uploaded.URL
	}
	return ref, nil
}

func credentialAllows(cred *models.UploadCredential, contentType string) bool {
	for _, ct := range cred.AllowedContentTypes {
		if ct == contentType {
			return true
		}
	}
	return false
}
