// Package docs exports transcripts to Google Docs, holding the OAuth token
// in an injected store rather than an ambient file path baked into the
// export logic.
package docs

import (
	"encoding/json"
	"errors"
	"os"
	"sync"

	"golang.org/x/oauth2"
)

// ErrNoToken indicates no stored credential; the caller should start the
// authorization flow.
var ErrNoToken = errors.New("no authentication token found")

// TokenStore persists the OAuth token between export requests.
type TokenStore interface {
	// Load returns the stored token, or ErrNoToken.
	Load() (*oauth2.Token, error)
	// Save persists the token, replacing any previous one.
	Save(tok *oauth2.Token) error
}

// FileStore keeps the token as JSON at a fixed path.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed token store.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load implements TokenStore.
func (s *FileStore) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

// Save implements TokenStore.
func (s *FileStore) Save(tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

// MemoryStore keeps the token in memory. Used in tests and for ephemeral
// deployments where re-authorization on restart is acceptable.
type MemoryStore struct {
	mu  sync.Mutex
	tok *oauth2.Token
}

// NewMemoryStore creates an empty in-memory token store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load implements TokenStore.
func (s *MemoryStore) Load() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tok == nil {
		return nil, ErrNoToken
	}
	return s.tok, nil
}

// Save implements TokenStore.
func (s *MemoryStore) Save(tok *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tok = tok
	return nil
}
