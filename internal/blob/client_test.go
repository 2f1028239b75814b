package blob

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"audio-transcription-service/internal/apperrors"
	"audio-transcription-service/internal/models"
)

// testBackend stands in for the authorization endpoint and the object store.
type testBackend struct {
	mu        sync.Mutex
	tokenSeen string
	putPaths  []string
	rejectPut bool
	denyToken bool
}

func (b *testBackend) start(t *testing.T) (authorizeURL, storeURL string) {
	t.Helper()

	auth := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ev AuthorizeEvent
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil || ev.Type != EventGenerateToken {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if b.denyToken {
			http.Error(w, "credential denied", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(models.UploadCredential{
			AllowedContentTypes: AllowedContentTypes,
			Token:               "test-token",
		})
	}))
	t.Cleanup(auth.Close)

	store := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.tokenSeen = r.Header.Get("Authorization")
		b.putPaths = append(b.putPaths, r.URL.Path)
		reject := b.rejectPut
		b.mu.Unlock()

		if reject {
			http.Error(w, "content type rejected by policy", http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(store.Close)

	return auth.URL, store.URL
}

func TestUpload_Success(t *testing.T) {
	backend := &testBackend{}
	authURL, storeURL := backend.start(t)
	c := NewClient(authURL, storeURL, nil, time.Millisecond)

	content := "mp3 bytes"
	ref, err := c.Upload(context.Background(), "sample.mp3", "audio/mpeg", int64(len(content)), strings.NewReader(content), nil)
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	if !strings.HasPrefix(ref.FileName, "audio_") || !strings.HasSuffix(ref.FileName, ".mp3") {
		t.Errorf("expected timestamp-qualified object name, got %s", ref.FileName)
	}
	if backend.tokenSeen != "Bearer test-token" {
		t.Errorf("expected credential token on transfer, got %q", backend.tokenSeen)
	}
}

func TestUpload_UniqueObjectNames(t *testing.T) {
	backend := &testBackend{}
	authURL, storeURL := backend.start(t)
	c := NewClient(authURL, storeURL, nil, time.Millisecond)

	r1, err := c.Upload(context.Background(), "a.mp3", "audio/mpeg", 1, strings.NewReader("x"), nil)
	if err != nil {
		t.Fatalf("first upload failed: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	r2, err := c.Upload(context.Background(), "a.mp3", "audio/mpeg", 1, strings.NewReader("x"), nil)
	if err != nil {
		t.Fatalf("second upload failed: %v", err)
	}

	if r1.FileName == r2.FileName {
		t.Errorf("expected distinct object names, both were %s", r1.FileName)
	}
}

func TestUpload_RejectsOversizedBeforeNetwork(t *testing.T) {
	backend := &testBackend{}
	authURL, storeURL := backend.start(t)
	c := NewClient(authURL, storeURL, nil, time.Millisecond)

	_, err := c.Upload(context.Background(), "big.mp3", "audio/mpeg", 101*1024*1024, strings.NewReader(""), nil)
	if apperrors.KindOf(err) != apperrors.KindValidation {
		t.Fatalf("expected KindValidation, got %v", apperrors.KindOf(err))
	}
	if !strings.Contains(apperrors.UserMessage(err), "100MB") {
		t.Errorf("expected size-limit message, got %q", apperrors.UserMessage(err))
	}
	if len(backend.putPaths) != 0 {
		t.Error("expected no network transfer for oversized file")
	}
}

func TestUpload_RejectsDisallowedExtensionBeforeNetwork(t *testing.T) {
	backend := &testBackend{}
	authURL, storeURL := backend.start(t)
	c := NewClient(authURL, storeURL, nil, time.Millisecond)

	_, err := c.Upload(context.Background(), "sample.exe", "application/x-msdownload", 1024, strings.NewReader("MZ"), nil)
	if apperrors.KindOf(err) != apperrors.KindValidation {
		t.Fatalf("expected KindValidation, got %v", apperrors.KindOf(err))
	}
	if len(backend.putPaths) != 0 {
		t.Error("expected no network transfer for disallowed extension")
	}
}

func TestUpload_NoFileSelected(t *testing.T) {
	c := NewClient("http://unused", "http://unused", nil, time.Millisecond)

	_, err := c.Upload(context.Background(), "", "", 0, strings.NewReader(""), nil)
	if apperrors.KindOf(err) != apperrors.KindValidation {
		t.Errorf("expected KindValidation, got %v", apperrors.KindOf(err))
	}
}

func TestUpload_CredentialDenied(t *testing.T) {
	backend := &testBackend{denyToken: true}
	authURL, storeURL := backend.start(t)
	c := NewClient(authURL, storeURL, nil, time.Millisecond)

	_, err := c.Upload(context.Background(), "a.mp3", "audio/mpeg", 1, strings.NewReader("x"), nil)
	if apperrors.KindOf(err) != apperrors.KindUpload {
		t.Errorf("expected KindUpload, got %v", apperrors.KindOf(err))
	}
}

func TestUpload_StoreRejection(t *testing.T) {
	backend := &testBackend{rejectPut: true}
	authURL, storeURL := backend.start(t)
	c := NewClient(authURL, storeURL, nil, time.Millisecond)

	_, err := c.Upload(context.Background(), "a.mp3", "audio/mpeg", 1, strings.NewReader("x"), nil)
	if apperrors.KindOf(err) != apperrors.KindUpload {
		t.Fatalf("expected KindUpload, got %v", apperrors.KindOf(err))
	}
	if !strings.Contains(apperrors.UserMessage(err), "rejected") {
		t.Errorf("expected provider rejection surfaced verbatim, got %q", apperrors.UserMessage(err))
	}
}

func TestUpload_ContentTypeOutsidePolicy(t *testing.T) {
	backend := &testBackend{}
	authURL, storeURL := backend.start(t)
	c := NewClient(authURL, storeURL, nil, time.Millisecond)

	// Extension passes the client pre-check but the declared MIME type is
	// outside the credential's allow-list.
	_, err := c.Upload(context.Background(), "a.mp3", "text/plain", 1, strings.NewReader("x"), nil)
	if apperrors.KindOf(err) != apperrors.KindUpload {
		t.Errorf("expected KindUpload, got %v", apperrors.KindOf(err))
	}
	if len(backend.putPaths) != 0 {
		t.Error("expected no transfer when policy denies the content type")
	}
}

func TestProgressSimulation_MonotonicWithCeiling(t *testing.T) {
	var mu sync.Mutex
	var seen []int

	sim := newProgressSimulator(time.Millisecond, func(p int) {
		mu.Lock()
		seen = append(seen, p)
		mu.Unlock()
	})
	sim.Start()
	time.Sleep(30 * time.Millisecond)
	sim.Stop()
	// Stop must be idempotent.
	sim.Stop()

	mu.Lock()
	defer mu.Unlock()

	if len(seen) == 0 || seen[0] != progressStart {
		t.Fatalf("expected simulation to start at %d, got %v", progressStart, seen)
	}
	prev := 0
	for _, p := range seen {
		if p < prev {
			t.Fatalf("progress decreased: %v", seen)
		}
		if p > progressCeiling {
			t.Fatalf("progress exceeded ceiling before completion: %v", seen)
		}
		prev = p
	}
}

func TestProgressSimulation_StopsEmitting(t *testing.T) {
	var mu sync.Mutex
	count := 0

	sim := newProgressSimulator(time.Millisecond, func(int) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	sim.Start()
	time.Sleep(5 * time.Millisecond)
	sim.Stop()

	mu.Lock()
	after := count
	mu.Unlock()

	time.Sleep(10 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if count != after {
		t.Errorf("expected no updates after Stop, got %d more", count-after)
	}
}

func TestExtensionAllowed(t *testing.T) {
	tests := []struct {
		ext  string
		want bool
	}{
		{"mp3", true},
		{".mp3", true},
		{"WAV", true},
		{"opus", true},
		{"exe", false},
		{"", false},
		{"txt", false},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			if got := ExtensionAllowed(tt.ext); got != tt.want {
				t.Errorf("ExtensionAllowed(%q) = %v, want %v", tt.ext, got, tt.want)
			}
		})
	}
}
