// Package transcribe implements the transcription dispatch pipeline:
// fetch a completed upload by reference, stage it in scratch storage,
// run the transcription provider, and clean up on every exit path.
package transcribe

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"audio-transcription-service/internal/apperrors"
	"audio-transcription-service/internal/events"
	"audio-transcription-service/internal/models"
	"audio-transcription-service/internal/observability/logging"
	"audio-transcription-service/internal/observability/metrics"
	"audio-transcription-service/internal/scratch"
	"audio-transcription-service/internal/stt"
)

// Dispatcher coordinates one transcription request end to end. Requests
// are independent and stateless between calls; the scratch directory is
// the only shared resource.
type Dispatcher struct {
	httpClient  *http.Client
	scratch     *scratch.Dir
	transcriber stt.Transcriber
	publisher   *events.Publisher
	metrics     *metrics.Metrics
}

// NewDispatcher creates a dispatcher. httpClient may be nil, in which case
// a client without its own timeout is used: long transcriptions of large
// files inherit the hosting server's response-time allowance instead.
func NewDispatcher(httpClient *http.Client, dir *scratch.Dir, t stt.Transcriber) *Dispatcher {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Dispatcher{
		httpClient:  httpClient,
		scratch:     dir,
		transcriber: t,
		metrics:     metrics.DefaultMetrics,
	}
}

// SetPublisher enables transcription-completed bookkeeping events. Nil
// (the default) means no events are emitted.
func (d *Dispatcher) SetPublisher(p *events.Publisher) {
	d.publisher = p
}

// Dispatch fetches the object behind ref, transcribes it, and returns the
// verbose transcript. The transient scratch copy never outlives the
// request: it is deleted on success, on transcription failure, and on any
// unexpected error, with deletion failures logged but never propagated.
func (d *Dispatcher) Dispatch(ctx context.Context, ref models.ObjectReference) (*models.Transcription, error) {
	start := time.Now()
	logger := logging.WithDispatch(ref.FileName, ref.URL, d.transcriber.Provider())

	result, err := d.dispatch(ctx, ref)

	d.metrics.RecordDispatch(apperrors.KindOf(err).String(), err, time.Since(start).Seconds())
	if err != nil {
		logger.Error().Err(err).Msg("Dispatch failed")
		return nil, err
	}
	logger.Info().
		Int("textChars", len(result.Text)).
		Dur("duration", time.Since(start)).
		Msg("Dispatch completed")
	d.publishCompleted(ctx, ref.FileName, result)
	return result, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, ref models.ObjectReference) (*models.Transcription, error) {
	if ref.URL == "" || ref.FileName == "" {
		return nil, apperrors.Validation("missing required parameters: blobUrl and fileName")
	}

	// Step 1: fetch the object. No partial state to clean up yet.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.URL, nil)
	if err != nil {
		return nil, apperrors.Fetch(err, "invalid blob URL")
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Fetch(err, "failed to download file from blob store")
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.Fetch(nil, "failed to download file from blob store: %s", resp.Status)
	}

	return d.stageAndTranscribe(ctx, ref.FileName, resp.Body, resp.ContentLength)
}

// DispatchDirect is the multipart binding of the same pipeline: the file
// content arrives in the request body instead of the object store, so the
// remote fetch is skipped and the identical scratch+transcribe path runs.
func (d *Dispatcher) DispatchDirect(ctx context.Context, fileName string, body io.Reader, size int64) (*models.Transcription, error) {
	start := time.Now()
	logger := logging.WithDispatch(fileName, "", d.transcriber.Provider())

	if fileName == "" {
		err := apperrors.Validation("no file provided")
		d.metrics.RecordDispatch(apperrors.KindOf(err).String(), err, time.Since(start).Seconds())
		return nil, err
	}

	result, err := d.stageAndTranscribe(ctx, fileName, body, size)

	d.metrics.RecordDispatch(apperrors.KindOf(err).String(), err, time.Since(start).Seconds())
	if err != nil {
		logger.Error().Err(err).Msg("Direct dispatch failed")
		return nil, err
	}
	logger.Info().Int("textChars", len(result.Text)).Msg("Direct dispatch completed")
	d.publishCompleted(ctx, fileName, result)
	return result, nil
}

// publishCompleted emits the bookkeeping event. Publish failures are
// logged inside the publisher and never affect the dispatch result.
func (d *Dispatcher) publishCompleted(ctx context.Context, fileName string, result *models.Transcription) {
	if d.publisher == nil {
		return
	}
	_ = d.publisher.PublishTranscriptionCompleted(ctx, fileName, events.TranscriptionCompleted{
		EventType: "transcription.completed",
		FileName:  fileName,
		Model:     result.Model,
		Language:  result.Language,
		TextChars: len(result.Text),
		Timestamp: time.Now().UnixMilli(),
	})
}

// stageAndTranscribe writes body to scratch storage, verifies the written
// length when known, runs the provider, and always removes the scratch copy.
func (d *Dispatcher) stageAndTranscribe(ctx context.Context, fileName string, body io.Reader, size int64) (*models.Transcription, error) {
	path, _, err := d.scratch.Write(fileName, body, size)
	if err != nil {
		return nil, apperrors.Storage(err, "failed to write temporary file")
	}

	// From here on the scratch copy must be deleted on every exit path.
	defer d.scratch.Remove(path)

	sttStart := time.Now()
	result, err := d.transcriber.Transcribe(ctx, path)
	d.metrics.RecordSTTRequest(d.transcriber.Provider(), err, time.Since(sttStart).Seconds())
	if err != nil {
		return nil, classifyServiceError(err)
	}
	return result, nil
}

// classifyServiceError maps an upstream failure to the taxonomy. When the
// upstream response carries a structured error message it is surfaced
// verbatim; otherwise a generic message is used. Either way this is a
// caller-correctable failure: most stem from unsupported or corrupt input.
func classifyServiceError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apperrors.Transcription(err, "%s", apiErr.Message)
	}
	return apperrors.Transcription(err, "failed to transcribe audio")
}
