// Package client provides the upload-and-transcribe orchestration: a
// session state machine driving idle → uploading → transcribing →
// complete, and a pipeline that runs the full sequence against a server.
package client

import (
	"errors"
	"fmt"
	"sync"

	"audio-transcription-service/internal/models"
)

// State represents the lifecycle state of an upload session.
type State int

const (
	// StateIdle - no work in flight; a file may or may not be selected.
	StateIdle State = iota
	// StateUploading - the blob transfer is in progress.
	StateUploading
	// StateTranscribing - the upload completed, dispatch is in progress.
	StateTranscribing
	// StateComplete - a transcript is available.
	StateComplete
	// StateFailed - either phase failed; the user may resubmit.
	StateFailed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateUploading:
		return "UPLOADING"
	case StateTranscribing:
		return "TRANSCRIBING"
	case StateComplete:
		return "COMPLETE"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// Errors for invalid transitions.
var (
	ErrNoFileSelected = errors.New("please select an audio file")
	ErrBusy           = errors.New("an upload is already in progress")
)

// SelectedFile describes the file chosen for a session.
type SelectedFile struct {
	Name        string
	Size        int64
	ContentType string
}

// Session is the orchestration state machine for one upload-and-transcribe
// attempt. At most one session is active per client at a time; selecting a
// new file replaces any prior transcript. Thread-safe.
//
// State transitions:
//
//	IDLE → UPLOADING → TRANSCRIBING → COMPLETE
//	            │            │
//	            └────────────┴──→ FAILED
//
// FAILED and COMPLETE both allow resubmission, which re-enters UPLOADING
// and discards the previous transcript immediately.
type Session struct {
	mu         sync.RWMutex
	state      State
	file       *SelectedFile
	progress   int
	errMsg     string
	transcript *models.Transcription
}

// NewSession creates a session in IDLE state.
func NewSession() *Session {
	return &Session{state: StateIdle}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Progress returns the current progress percentage.
func (s *Session) Progress() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progress
}

// Transcript returns the transcript, or nil before completion.
func (s *Session) Transcript() *models.Transcription {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transcript
}

// ErrorMessage returns the failure message, empty unless FAILED.
func (s *Session) ErrorMessage() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

// File returns the selected file, or nil.
func (s *Session) File() *SelectedFile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.file
}

// Select records a file choice. Any prior error, progress, and transcript
// are cleared: a new selection invalidates the previous result.
func (s *Session) Select(f SelectedFile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.file = &f
	s.errMsg = ""
	s.progress = 0
	s.transcript = nil
}

// BeginUpload transitions to UPLOADING. Guarded: a file must be selected
// (surfaced as a validation message, not a state change) and no attempt may
// already be in flight. Re-entering from FAILED or COMPLETE discards the
// previous transcript immediately so no stale data is shown.
func (s *Session) BeginUpload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateUploading, StateTranscribing:
		return ErrBusy
	}
	if s.file == nil {
		return ErrNoFileSelected
	}

	s.state = StateUploading
	s.transcript = nil
	s.errMsg = ""
	s.progress = 0
	return nil
}

// SetProgress records simulated or phase progress. The value is clamped to
// be non-decreasing within an attempt and cannot reach 100 before COMPLETE.
func (s *Session) SetProgress(p int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateUploading && s.state != StateTranscribing {
		return
	}
	if p <= s.progress {
		return
	}
	if p >= 100 {
		p = 99
	}
	s.progress = p
}

// BeginTranscribe transitions UPLOADING → TRANSCRIBING when the transfer
// yields an object reference, and sets progress to 90.
func (s *Session) BeginTranscribe() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateUploading {
		return fmt.Errorf("cannot transcribe from state %s", s.state)
	}
	s.state = StateTranscribing
	s.progress = 90
	return nil
}

// Complete transitions TRANSCRIBING → COMPLETE with the final transcript
// and sets progress to exactly 100.
func (s *Session) Complete(t *models.Transcription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateTranscribing {
		return fmt.Errorf("cannot complete from state %s", s.state)
	}
	s.state = StateComplete
	s.transcript = t
	s.progress = 100
	return nil
}

// Fail transitions to FAILED from either in-flight phase, capturing a
// human-readable message and resetting progress to 0.
func (s *Session) Fail(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateUploading && s.state != StateTranscribing {
		return
	}
	s.state = StateFailed
	s.errMsg = msg
	s.progress = 0
	s.transcript = nil
}
