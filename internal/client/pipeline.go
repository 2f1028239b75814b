package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"audio-transcription-service/internal/apperrors"
	"audio-transcription-service/internal/blob"
	"audio-transcription-service/internal/models"
	"audio-transcription-service/internal/observability/logging"
)

// Pipeline runs the full upload-and-transcribe sequence against a running
// service, driving the session state machine. One logical operation per
// session: submission is rejected while a phase is in flight, and there is
// no automatic retry anywhere; resubmission is a user action.
type Pipeline struct {
	session     *Session
	uploads     *blob.Client
	dispatchURL string
	httpClient  *http.Client
}

// NewPipeline creates a pipeline for the given session.
func NewPipeline(session *Session, uploads *blob.Client, dispatchURL string, httpClient *http.Client) *Pipeline {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Pipeline{
		session:     session,
		uploads:     uploads,
		dispatchURL: dispatchURL,
		httpClient:  httpClient,
	}
}

// Run executes one attempt: upload the selected file's content, then
// dispatch the resulting object reference for transcription. Mid-flight
// cancellation is not supported beyond ctx; in-flight server work runs to
// completion or failure.
func (p *Pipeline) Run(ctx context.Context, content io.Reader) (*models.Transcription, error) {
	logger := logging.WithComponent("pipeline")

	if err := p.session.BeginUpload(); err != nil {
		return nil, err
	}
	file := p.session.File()

	ref, err := p.uploads.Upload(ctx, file.Name, file.ContentType, file.Size, content, p.session.SetProgress)
	if err != nil {
		p.session.Fail(apperrors.UserMessage(err))
		return nil, err
	}

	if err := p.session.BeginTranscribe(); err != nil {
		p.session.Fail(err.Error())
		return nil, err
	}
	logger.Info().Str("blobUrl", ref.URL).Msg("Upload complete, dispatching transcription")

	result, err := p.dispatch(ctx, *ref)
	if err != nil {
		p.session.Fail(apperrors.UserMessage(err))
		return nil, err
	}

	if err := p.session.Complete(result); err != nil {
		return nil, err
	}
	return result, nil
}

func (p *Pipeline) dispatch(ctx context.Context, ref models.ObjectReference) (*models.Transcription, error) {
	body, err := json.Marshal(ref)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to encode dispatch request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.dispatchURL, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.Internal(err, "failed to build dispatch request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Transcription(err, "transcription request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errBody struct {
			Error string `json:"error"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&errBody); decodeErr == nil && errBody.Error != "" {
			return nil, apperrors.Transcription(nil, "%s", errBody.Error)
		}
		return nil, apperrors.Transcription(nil, "transcription failed: %s", resp.Status)
	}

	var result models.Transcription
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apperrors.Transcription(err, "invalid transcription response")
	}
	if result.Text == "" {
		return nil, apperrors.Transcription(nil, "empty transcript returned")
	}
	return &result, nil
}
