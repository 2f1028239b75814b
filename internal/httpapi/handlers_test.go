package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"audio-transcription-service/internal/apperrors"
	"audio-transcription-service/internal/blob"
	"audio-transcription-service/internal/config"
	"audio-transcription-service/internal/docs"
	"audio-transcription-service/internal/models"
	"audio-transcription-service/internal/textops"
)

type fakeDispatcher struct {
	result    *models.Transcription
	err       error
	panicMsg  string
	dispatch  []models.ObjectReference
	direct    []string
	directLen int64
}

func (f *fakeDispatcher) Dispatch(_ context.Context, ref models.ObjectReference) (*models.Transcription, error) {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	f.dispatch = append(f.dispatch, ref)
	return f.result, f.err
}

func (f *fakeDispatcher) DispatchDirect(_ context.Context, fileName string, body io.Reader, size int64) (*models.Transcription, error) {
	f.direct = append(f.direct, fileName)
	f.directLen = size
	io.Copy(io.Discard, body)
	return f.result, f.err
}

type fakeTextOps struct {
	result string
	err    error
	reqs   []textops.Request
}

func (f *fakeTextOps) Manipulate(_ context.Context, req textops.Request) (string, error) {
	f.reqs = append(f.reqs, req)
	return f.result, f.err
}

type fakeExporter struct {
	result *docs.ExportResult
	err    error
	codes  []string
}

func (f *fakeExporter) Export(_ context.Context, _ docs.ExportRequest) (*docs.ExportResult, error) {
	return f.result, f.err
}

func (f *fakeExporter) Exchange(_ context.Context, code string) error {
	f.codes = append(f.codes, code)
	if code == "" {
		return apperrors.Validation("No authorization code provided")
	}
	return f.err
}

func (f *fakeExporter) ConsentURL() string { return "https://accounts.google.com/o/oauth2/auth?x=1" }

type testServer struct {
	router     http.Handler
	dispatcher *fakeDispatcher
	textops    *fakeTextOps
	exporter   *fakeExporter
}

func newTestServer() *testServer {
	d := &fakeDispatcher{result: &models.Transcription{Text: "hello"}}
	tx := &fakeTextOps{result: "summary"}
	ex := &fakeExporter{result: &docs.ExportResult{URL: "https://docs.google.com/document/d/doc-1/edit"}}
	h := NewHandlers(blob.NewAuthorizer(nil, time.Hour), d, tx, ex)
	return &testServer{router: NewRouter(h), dispatcher: d, textops: tx, exporter: ex}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer()

	for _, path := range []string{"/v1/liveness", "/v1/readiness"} {
		w := s.do(t, http.MethodGet, path, nil)
		if w.Code != http.StatusOK {
			t.Errorf("%s returned %d", path, w.Code)
		}
	}
}

func TestUploadEvents_GenerateToken(t *testing.T) {
	s := newTestServer()

	w := s.do(t, http.MethodPost, "/v1/uploads/events", blob.AuthorizeEvent{
		Type:    blob.EventGenerateToken,
		Payload: blob.AuthorizePayload{Pathname: "audio_123.mp3"},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var cred models.UploadCredential
	if err := json.NewDecoder(w.Body).Decode(&cred); err != nil {
		t.Fatalf("decode credential: %v", err)
	}
	if cred.Token == "" {
		t.Error("expected a credential token")
	}
	if len(cred.AllowedContentTypes) == 0 {
		t.Error("expected the content-type allow-list on the credential")
	}
	if cred.AddRandomSuffix {
		t.Error("expected AddRandomSuffix false")
	}
}

func TestUploadEvents_GenerateToken_MissingPathname(t *testing.T) {
	s := newTestServer()

	w := s.do(t, http.MethodPost, "/v1/uploads/events", blob.AuthorizeEvent{
		Type: blob.EventGenerateToken,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestUploadEvents_UploadCompleted(t *testing.T) {
	s := newTestServer()

	w := s.do(t, http.MethodPost, "/v1/uploads/events", blob.AuthorizeEvent{
		Type: blob.EventUploadCompleted,
		Payload: blob.AuthorizePayload{
			Blob: &models.CompletedBlob{URL: "http://store/audio_1.mp3", Pathname: "audio_1.mp3", Size: 9},
		},
	})
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestUploadEvents_UnknownType(t *testing.T) {
	s := newTestServer()

	w := s.do(t, http.MethodPost, "/v1/uploads/events", blob.AuthorizeEvent{Type: "mystery"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(decodeError(t, w), "unknown event type") {
		t.Error("expected unknown-event message")
	}
}

func TestCreateTranscription(t *testing.T) {
	s := newTestServer()

	w := s.do(t, http.MethodPost, "/v1/transcriptions", models.ObjectReference{
		URL: "http://store/audio_1.mp3", FileName: "audio_1.mp3",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var result models.Transcription
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("decode transcription: %v", err)
	}
	if result.Text != "hello" {
		t.Errorf("unexpected transcript: %q", result.Text)
	}
	if len(s.dispatcher.dispatch) != 1 {
		t.Errorf("expected one dispatch, got %d", len(s.dispatcher.dispatch))
	}
}

func TestCreateTranscription_ErrorShape(t *testing.T) {
	s := newTestServer()
	s.dispatcher.result = nil
	s.dispatcher.err = apperrors.Transcription(nil, "could not process audio file")

	w := s.do(t, http.MethodPost, "/v1/transcriptions", models.ObjectReference{
		URL: "http://store/audio_1.mp3", FileName: "audio_1.mp3",
	})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if decodeError(t, w) != "could not process audio file" {
		t.Errorf("expected upstream message in {error}, got %q", decodeError(t, w))
	}
}

func TestCreateTranscription_InternalErrorHidesDetails(t *testing.T) {
	s := newTestServer()
	s.dispatcher.result = nil
	s.dispatcher.err = io.ErrUnexpectedEOF // unclassified

	w := s.do(t, http.MethodPost, "/v1/transcriptions", models.ObjectReference{
		URL: "http://store/audio_1.mp3", FileName: "audio_1.mp3",
	})

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if strings.Contains(decodeError(t, w), "EOF") {
		t.Error("expected internal details hidden from the response")
	}
}

func multipartBody(t *testing.T, fieldFile, fileName, content string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(fieldFile, fileName)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fw.Write([]byte(content))
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestCreateTranscriptionDirect(t *testing.T) {
	s := newTestServer()

	body, contentType := multipartBody(t, "file", "note.mp3", "mp3 bytes")
	req := httptest.NewRequest(http.MethodPost, "/v1/transcriptions/direct", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(s.dispatcher.direct) != 1 || s.dispatcher.direct[0] != "note.mp3" {
		t.Errorf("expected direct dispatch of note.mp3, got %v", s.dispatcher.direct)
	}
}

func TestCreateTranscriptionDirect_RejectsBadExtension(t *testing.T) {
	s := newTestServer()

	body, contentType := multipartBody(t, "file", "malware.exe", "MZ")
	req := httptest.NewRequest(http.MethodPost, "/v1/transcriptions/direct", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if len(s.dispatcher.direct) != 0 {
		t.Error("expected no dispatch for a disallowed extension")
	}
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

// streamMultipart produces a multipart body carrying size bytes of audio
// without holding it in memory.
func streamMultipart(t *testing.T, fileName string, size int64) (io.Reader, string) {
	t.Helper()
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		fw, err := mw.CreateFormFile("file", fileName)
		if err == nil {
			_, err = io.CopyN(fw, zeroReader{}, size)
		}
		mw.Close()
		pw.CloseWithError(err)
	}()
	return pr, mw.FormDataContentType()
}

func TestCreateTranscriptionDirect_RejectsOversized(t *testing.T) {
	tests := []struct {
		name string
		size int64
	}{
		// Trips the request body cap before the part is fully read.
		{"far over limit", config.MaxUploadBytes + 2*1024*1024},
		// Parses fine, caught by the file-size bound.
		{"just over limit", config.MaxUploadBytes + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer()

			body, contentType := streamMultipart(t, "big.mp3", tt.size)
			req := httptest.NewRequest(http.MethodPost, "/v1/transcriptions/direct", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()
			s.router.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			if got := decodeError(t, w); got != "file too large. Maximum size is 100MB" {
				t.Errorf("expected size-limit message, got %q", got)
			}
			if len(s.dispatcher.direct) != 0 {
				t.Error("expected no dispatch for an oversized file")
			}
		})
	}
}

func TestCreateTranscriptionDirect_AcceptsFileAtLimit(t *testing.T) {
	s := newTestServer()

	body, contentType := streamMultipart(t, "exact.mp3", config.MaxUploadBytes)
	req := httptest.NewRequest(http.MethodPost, "/v1/transcriptions/direct", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for a file of exactly the limit, got %d: %s", w.Code, w.Body.String())
	}
	if s.dispatcher.directLen != config.MaxUploadBytes {
		t.Errorf("expected the full file dispatched, got %d bytes", s.dispatcher.directLen)
	}
}

func TestCreateTranscriptionDirect_NoFile(t *testing.T) {
	s := newTestServer()

	body, contentType := multipartBody(t, "other", "note.mp3", "x")
	req := httptest.NewRequest(http.MethodPost, "/v1/transcriptions/direct", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestHandlerPanic_RendersErrorShape(t *testing.T) {
	s := newTestServer()
	s.dispatcher.panicMsg = "nil pointer somewhere"

	w := s.do(t, http.MethodPost, "/v1/transcriptions", models.ObjectReference{
		URL: "http://store/audio_1.mp3", FileName: "audio_1.mp3",
	})

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON error response, got Content-Type %q", ct)
	}
	msg := decodeError(t, w)
	if msg == "" {
		t.Fatal("expected an {error} body")
	}
	if strings.Contains(msg, "nil pointer") {
		t.Errorf("expected panic details hidden from the response, got %q", msg)
	}
}

func TestManipulateText(t *testing.T) {
	s := newTestServer()

	w := s.do(t, http.MethodPost, "/v1/text/manipulations", textops.Request{
		Text: "transcript", Operation: textops.OperationSummarize,
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Result string `json:"result"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if body.Result != "summary" {
		t.Errorf("unexpected result: %q", body.Result)
	}
}

func TestManipulateText_ValidationError(t *testing.T) {
	s := newTestServer()
	s.textops.err = apperrors.Validation("Text is required")

	w := s.do(t, http.MethodPost, "/v1/text/manipulations", textops.Request{Operation: textops.OperationSummarize})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if decodeError(t, w) != "Text is required" {
		t.Errorf("unexpected message: %q", decodeError(t, w))
	}
}

func TestExportDocument_AuthRedirect(t *testing.T) {
	s := newTestServer()
	s.exporter.result = &docs.ExportResult{AuthURL: "http://localhost:8080/v1/auth/google"}

	w := s.do(t, http.MethodPost, "/v1/documents", map[string]string{"title": "t", "content": "c"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body docs.ExportResult
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if body.AuthURL == "" || body.URL != "" {
		t.Errorf("expected authUrl-only result, got %+v", body)
	}
}

func TestGoogleAuth_RedirectsToConsent(t *testing.T) {
	s := newTestServer()

	w := s.do(t, http.MethodGet, "/v1/auth/google", nil)
	if w.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected 307, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); !strings.Contains(loc, "accounts.google.com") {
		t.Errorf("unexpected redirect target: %s", loc)
	}
}

func TestGoogleAuthCallback(t *testing.T) {
	s := newTestServer()

	w := s.do(t, http.MethodGet, "/v1/auth/google/callback?code=abc", nil)
	if w.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected 307, got %d: %s", w.Code, w.Body.String())
	}
	if len(s.exporter.codes) != 1 || s.exporter.codes[0] != "abc" {
		t.Errorf("expected code exchanged, got %v", s.exporter.codes)
	}

	w = s.do(t, http.MethodGet, "/v1/auth/google/callback", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without code, got %d", w.Code)
	}
}
