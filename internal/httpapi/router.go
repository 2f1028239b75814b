package httpapi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"audio-transcription-service/internal/apperrors"
	"audio-transcription-service/internal/observability"
)

// NewRouter constructs the HTTP router for the service.
func NewRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(recoverer)
	r.Use(observability.RequestLogger())

	// Health endpoints
	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	// API routes
	r.Route("/v1", func(r chi.Router) {
		r.Post("/uploads/events", h.UploadEvents)
		r.Post("/transcriptions", h.CreateTranscription)
		r.Post("/transcriptions/direct", h.CreateTranscriptionDirect)
		r.Post("/text/manipulations", h.ManipulateText)
		r.Post("/documents", h.ExportDocument)
		r.Get("/auth/google", h.GoogleAuth)
		r.Get("/auth/google/callback", h.GoogleAuthCallback)
	})

	return r
}

// recoverer converts a handler panic into the service's JSON error shape
// instead of a bare 500.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				writeError(w, r, apperrors.Internal(fmt.Errorf("panic: %v", rec), "an unexpected error occurred"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
