package docs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gdocs "google.golang.org/api/docs/v1"
	"google.golang.org/api/option"

	"audio-transcription-service/internal/apperrors"
	"audio-transcription-service/internal/config"
	"audio-transcription-service/internal/observability/logging"
	"audio-transcription-service/internal/observability/metrics"
)

const documentsScope = "https://www.googleapis.com/auth/documents"

// documentWriter is the slice of the Docs API the exporter uses.
type documentWriter interface {
	CreateDocument(ctx context.Context, tok *oauth2.Token, title string) (documentID string, err error)
	InsertText(ctx context.Context, tok *oauth2.Token, documentID, text string) error
}

// ExportRequest carries the transcript and its provenance.
type ExportRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	FileInfo struct {
		Name string `json:"name"`
	} `json:"fileInfo"`
	TranscriptionInfo struct {
		Model    string `json:"model"`
		Language string `json:"language"`
	} `json:"transcriptionInfo"`
}

// ExportResult is either a document URL or an authorization redirect.
// Exactly one field is set.
type ExportResult struct {
	URL     string `json:"url,omitempty"`
	AuthURL string `json:"authUrl,omitempty"`
}

// Exporter creates Google Docs from transcripts. Without a stored token it
// answers with the authorization URL instead of failing.
type Exporter struct {
	oauth   *oauth2.Config
	tokens  TokenStore
	writer  documentWriter
	authURL string
	now     func() time.Time
	metrics *metrics.Metrics
}

// NewExporter creates an exporter from configuration. authURL is the
// service's own endpoint that begins the OAuth flow.
func NewExporter(cfg config.DocsConfig, tokens TokenStore, authURL string) *Exporter {
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       []string{documentsScope},
		Endpoint:     google.Endpoint,
	}
	return &Exporter{
		oauth:   oauthCfg,
		tokens:  tokens,
		writer:  &apiWriter{oauth: oauthCfg},
		authURL: authURL,
		now:     time.Now,
		metrics: metrics.DefaultMetrics,
	}
}

// ConsentURL returns the Google consent-screen URL to redirect the user to.
// Offline access with forced consent so a refresh token is always granted.
func (e *Exporter) ConsentURL() string {
	return e.oauth.AuthCodeURL("", oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
}

// Exchange trades an authorization code for a token and stores it.
func (e *Exporter) Exchange(ctx context.Context, code string) error {
	if code == "" {
		return apperrors.Validation("No authorization code provided")
	}
	tok, err := e.oauth.Exchange(ctx, code)
	if err != nil {
		return apperrors.Internal(err, "Authentication failed")
	}
	if err := e.tokens.Save(tok); err != nil {
		return apperrors.Internal(err, "failed to store authentication token")
	}
	logger := logging.WithComponent("docs")
	logger.Info().Msg("Google authorization token stored")
	return nil
}

// Export creates a document titled req.Title containing a metadata header
// followed by the transcript, and returns its edit URL. With no stored
// token the result carries AuthURL and nothing is created.
func (e *Exporter) Export(ctx context.Context, req ExportRequest) (*ExportResult, error) {
	logger := logging.WithComponent("docs")

	if req.Title == "" || req.Content == "" {
		return nil, apperrors.Validation("Title and content are required")
	}

	tok, err := e.tokens.Load()
	if errors.Is(err, ErrNoToken) {
		logger.Info().Msg("No authentication token found, answering with auth redirect")
		if e.metrics != nil {
			e.metrics.RecordDocAuthRedirect()
		}
		return &ExportResult{AuthURL: e.authURL}, nil
	}
	if err != nil {
		return nil, apperrors.Internal(err, "failed to load authentication token")
	}

	url, err := e.create(ctx, tok, req)
	if e.metrics != nil {
		e.metrics.RecordDocExport(err)
	}
	if err != nil {
		logger.Error().Err(err).Str("title", req.Title).Msg("Document export failed")
		return nil, err
	}
	logger.Info().Str("title", req.Title).Str("url", url).Msg("Transcript exported")
	return &ExportResult{URL: url}, nil
}

func (e *Exporter) create(ctx context.Context, tok *oauth2.Token, req ExportRequest) (string, error) {
	documentID, err := e.writer.CreateDocument(ctx, tok, req.Title)
	if err != nil {
		return "", apperrors.Internal(err, "Failed to export to Google Docs")
	}
	if documentID == "" {
		return "", apperrors.Internal(nil, "Failed to export to Google Docs: no document ID returned")
	}

	if err := e.writer.InsertText(ctx, tok, documentID, e.documentBody(req)); err != nil {
		return "", apperrors.Internal(err, "Failed to export to Google Docs")
	}
	return fmt.Sprintf("https://docs.google.com/document/d/%s/edit", documentID), nil
}

// documentBody prefixes the transcript with a provenance header.
func (e *Exporter) documentBody(req ExportRequest) string {
	source := req.FileInfo.Name
	if source == "" {
		source = "Uploaded audio file"
	}
	model := req.TranscriptionInfo.Model
	if model == "" {
		model = "Unknown"
	}
	language := req.TranscriptionInfo.Language
	if language == "" {
		language = "auto-detected"
	}

	return fmt.Sprintf(
		"Metadata:\nSource: %s\nDate: %s\nModel: %s\nLanguage: %s\n\nTranscription:\n\n%s",
		source, e.now().Format("2006-01-02 15:04:05"), model, language, req.Content,
	)
}

// apiWriter talks to the real Docs API with a per-call authorized client.
type apiWriter struct {
	oauth *oauth2.Config
}

func (w *apiWriter) service(ctx context.Context, tok *oauth2.Token) (*gdocs.Service, error) {
	return gdocs.NewService(ctx, option.WithHTTPClient(w.oauth.Client(ctx, tok)))
}

func (w *apiWriter) CreateDocument(ctx context.Context, tok *oauth2.Token, title string) (string, error) {
	svc, err := w.service(ctx, tok)
	if err != nil {
		return "", err
	}
	doc, err := svc.Documents.Create(&gdocs.Document{Title: title}).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return doc.DocumentId, nil
}

func (w *apiWriter) InsertText(ctx context.Context, tok *oauth2.Token, documentID, text string) error {
	svc, err := w.service(ctx, tok)
	if err != nil {
		return err
	}
	_, err = svc.Documents.BatchUpdate(documentID, &gdocs.BatchUpdateDocumentRequest{
		Requests: []*gdocs.Request{
			{
				InsertText: &gdocs.InsertTextRequest{
					Location: &gdocs.Location{Index: 1},
					Text:     text,
				},
			},
		},
	}).Context(ctx).Do()
	return err
}
