// Package apperrors defines the error taxonomy for the service and its
// mapping onto HTTP status codes. Every API boundary converts errors to a
// single JSON shape; nothing leaks an unclassified failure to the
// transport layer.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for status mapping and logging.
type Kind int

const (
	// KindValidation - missing or invalid caller input.
	KindValidation Kind = iota
	// KindAuthorization - upload credential issuance failed.
	KindAuthorization
	// KindUpload - transfer to the object store was rejected or failed.
	KindUpload
	// KindFetch - object retrieval failed after the upload reported success.
	KindFetch
	// KindStorage - transient scratch write or verify failed.
	KindStorage
	// KindTranscription - the upstream transcription service rejected or
	// failed to process the audio. Mapped to 400, not 500: most such
	// failures stem from unsupported or corrupt input.
	KindTranscription
	// KindInternal - anything unanticipated.
	KindInternal
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "VALIDATION"
	case KindAuthorization:
		return "AUTHORIZATION"
	case KindUpload:
		return "UPLOAD"
	case KindFetch:
		return "FETCH"
	case KindStorage:
		return "STORAGE"
	case KindTranscription:
		return "TRANSCRIPTION_SERVICE"
	case KindInternal:
		return "INTERNAL"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", k)
	}
}

// Error carries a kind, a user-facing message, and an optional cause.
type Error struct {
	kind  Kind
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.msg)
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error { return e.cause }

// Kind returns the error's classification.
func (e *Error) Kind() Kind { return e.kind }

// Message returns the user-facing message without the kind prefix.
func (e *Error) Message() string { return e.msg }

// New constructs a classified error.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap constructs a classified error around a cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...), cause: cause}
}

// Validation builds a KindValidation error.
func Validation(format string, args ...any) *Error {
	return New(KindValidation, format, args...)
}

// Authorization builds a KindAuthorization error.
func Authorization(cause error, format string, args ...any) *Error {
	return Wrap(KindAuthorization, cause, format, args...)
}

// Upload builds a KindUpload error.
func Upload(cause error, format string, args ...any) *Error {
	return Wrap(KindUpload, cause, format, args...)
}

// Fetch builds a KindFetch error.
func Fetch(cause error, format string, args ...any) *Error {
	return Wrap(KindFetch, cause, format, args...)
}

// Storage builds a KindStorage error.
func Storage(cause error, format string, args ...any) *Error {
	return Wrap(KindStorage, cause, format, args...)
}

// Transcription builds a KindTranscription error.
func Transcription(cause error, format string, args ...any) *Error {
	return Wrap(KindTranscription, cause, format, args...)
}

// Internal builds a KindInternal error.
func Internal(cause error, format string, args ...any) *Error {
	return Wrap(KindInternal, cause, format, args...)
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindInternal
}

// StatusCode maps an error to its HTTP status. Every caller-correctable
// kind maps to 400; only KindInternal (and unclassified errors) map to 500.
func StatusCode(err error) int {
	if KindOf(err) == KindInternal {
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

// UserMessage returns the message suitable for the {error} JSON field.
// Unclassified errors get a generic message so internals are not exposed.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.msg
	}
	return "an unexpected error occurred"
}
