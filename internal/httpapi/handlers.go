package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"audio-transcription-service/internal/apperrors"
	"audio-transcription-service/internal/blob"
	"audio-transcription-service/internal/config"
	"audio-transcription-service/internal/docs"
	"audio-transcription-service/internal/models"
	"audio-transcription-service/internal/textops"
)

// dispatcher runs the fetch-stage-transcribe pipeline.
type dispatcher interface {
	Dispatch(ctx context.Context, ref models.ObjectReference) (*models.Transcription, error)
	DispatchDirect(ctx context.Context, fileName string, body io.Reader, size int64) (*models.Transcription, error)
}

// textManipulator applies LLM-backed operations to transcript text.
type textManipulator interface {
	Manipulate(ctx context.Context, req textops.Request) (string, error)
}

// documentExporter creates Google Docs and runs the authorization flow.
type documentExporter interface {
	Export(ctx context.Context, req docs.ExportRequest) (*docs.ExportResult, error)
	Exchange(ctx context.Context, code string) error
	ConsentURL() string
}

// Handlers holds the collaborators behind the HTTP surface.
type Handlers struct {
	authorizer *blob.Authorizer
	dispatcher dispatcher
	textops    textManipulator
	exporter   documentExporter
}

// NewHandlers wires the API handlers to their collaborators.
func NewHandlers(authorizer *blob.Authorizer, d dispatcher, t textManipulator, e documentExporter) *Handlers {
	return &Handlers{
		authorizer: authorizer,
		dispatcher: d,
		textops:    t,
		exporter:   e,
	}
}

// UploadEvents is the single authorization endpoint for the out-of-band
// upload path. Credential issuance and the provider's completion callback
// arrive as a typed envelope on the same URL.
func (h *Handlers) UploadEvents(w http.ResponseWriter, r *http.Request) {
	var ev blob.AuthorizeEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, r, apperrors.Validation("invalid request body"))
		return
	}

	switch ev.Type {
	case blob.EventGenerateToken:
		cred, err := h.authorizer.IssueCredential(ev.Payload.Pathname)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, cred)

	case blob.EventUploadCompleted:
		if ev.Payload.Blob == nil {
			writeError(w, r, apperrors.Validation("completed blob metadata is required"))
			return
		}
		if err := h.authorizer.HandleCompleted(r.Context(), *ev.Payload.Blob, ev.Payload.TokenPayload); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"response": "ok"})

	default:
		writeError(w, r, apperrors.Validation("unknown event type: %s", ev.Type))
	}
}

// CreateTranscription dispatches a transcription for a completed upload,
// identified by its object reference.
func (h *Handlers) CreateTranscription(w http.ResponseWriter, r *http.Request) {
	var ref models.ObjectReference
	if err := json.NewDecoder(r.Body).Decode(&ref); err != nil {
		writeError(w, r, apperrors.Validation("invalid request body"))
		return
	}

	result, err := h.dispatcher.Dispatch(r.Context(), ref)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// CreateTranscriptionDirect is the multipart binding: the audio arrives in
// the request body instead of the object store. The same extension and
// size limits the upload path enforces apply here, server-side.
func (h *Handlers) CreateTranscriptionDirect(w http.ResponseWriter, r *http.Request) {
	// The body cap allows for multipart boundary and header overhead so a
	// file of exactly the limit still parses; the header.Size check below
	// is the authoritative bound on the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadBytes+1<<20)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, r, apperrors.Validation("file too large. Maximum size is 100MB"))
			return
		}
		writeError(w, r, apperrors.Validation("no file provided"))
		return
	}
	defer file.Close()

	if !blob.ExtensionAllowed(filepath.Ext(header.Filename)) {
		writeError(w, r, apperrors.Validation("invalid file type. Allowed extensions: %s",
			strings.Join(blob.ValidExtensions, ", ")))
		return
	}
	if header.Size > config.MaxUploadBytes {
		writeError(w, r, apperrors.Validation("file too large. Maximum size is 100MB"))
		return
	}

	result, err := h.dispatcher.DispatchDirect(r.Context(), header.Filename, file, header.Size)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ManipulateText runs a text manipulation operation over transcript text.
func (h *Handlers) ManipulateText(w http.ResponseWriter, r *http.Request) {
	var req textops.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, apperrors.Validation("invalid request body"))
		return
	}

	result, err := h.textops.Manipulate(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": result})
}

// ExportDocument exports a transcript to Google Docs, or answers with the
// authorization URL when no token is stored yet.
func (h *Handlers) ExportDocument(w http.ResponseWriter, r *http.Request) {
	var req docs.ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, apperrors.Validation("invalid request body"))
		return
	}

	result, err := h.exporter.Export(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GoogleAuth redirects the user to the Google consent screen.
func (h *Handlers) GoogleAuth(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.exporter.ConsentURL(), http.StatusTemporaryRedirect)
}

// GoogleAuthCallback exchanges the authorization code for a token, stores
// it, and sends the user back to the application root.
func (h *Handlers) GoogleAuthCallback(w http.ResponseWriter, r *http.Request) {
	if err := h.exporter.Exchange(r.Context(), r.URL.Query().Get("code")); err != nil {
		writeError(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}
