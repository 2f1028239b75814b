// Package httpapi exposes the service over HTTP: upload authorization,
// transcription dispatch, text manipulation, and document export. Every
// failure is rendered as the same {"error": "..."} JSON shape.
package httpapi

import (
	"encoding/json"
	"net/http"

	"audio-transcription-service/internal/apperrors"
	"audio-transcription-service/internal/observability/logging"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger := logging.WithComponent("http")
		logger.Error().Err(err).Msg("Failed to encode response")
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError maps err onto the taxonomy's status code and user message.
// Internals never leak: unclassified errors render a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.StatusCode(err)
	logger := logging.WithComponent("http")

	ev := logger.Warn()
	if status >= 500 {
		ev = logger.Error()
	}
	ev.Err(err).Str("path", r.URL.Path).Int("status", status).Msg("Request failed")

	writeJSON(w, status, errorBody{Error: apperrors.UserMessage(err)})
}
