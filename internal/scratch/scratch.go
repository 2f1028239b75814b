// Package scratch manages the transient scratch directory used to hold a
// fetched audio object for the duration of a single dispatch request.
// Collisions between concurrent requests are avoided by timestamp-qualified
// filenames generated per uploading client, not by locking.
package scratch

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"audio-transcription-service/internal/observability/logging"
	"audio-transcription-service/internal/observability/metrics"
)

// Dir is a resolved, created scratch directory.
type Dir struct {
	path    string
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// Resolve picks the scratch directory and creates it if missing.
// An explicit override wins. Otherwise: when the working tree is not
// writable (read-only deployment filesystems), fall back to the system
// temp directory, which is the one writable location in such environments;
// otherwise use a project-local uploads directory.
func Resolve(override string) (*Dir, error) {
	dir := override
	if dir == "" {
		local := filepath.Join(".", "uploads")
		if workingTreeWritable() {
			dir = local
		} else {
			dir = os.TempDir()
		}
	}

	// Idempotent create
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch dir %s: %w", dir, err)
	}

	d := &Dir{
		path:    dir,
		logger:  logging.WithComponent("scratch"),
		metrics: metrics.DefaultMetrics,
	}
	d.logger.Info().Str("dir", dir).Msg("Scratch directory ready")
	return d, nil
}

func workingTreeWritable() bool {
	f, err := os.CreateTemp(".", ".scratch-probe-*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}

// Path returns the resolved directory path.
func (d *Dir) Path() string { return d.path }

// Probe verifies the directory is still present and writable. Used as a
// readiness check: a full or revoked volume must take the service out of
// rotation before a dispatch fails mid-request.
func (d *Dir) Probe() error {
	f, err := os.CreateTemp(d.path, ".readyz-probe-*")
	if err != nil {
		return fmt.Errorf("scratch dir %s not writable: %w", d.path, err)
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return nil
}

// Write persists r under name and verifies the written file exists and
// matches the expected length. expected < 0 skips the length check.
func (d *Dir) Write(name string, r io.Reader, expected int64) (string, int64, error) {
	path := filepath.Join(d.path, filepath.Base(name))

	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("create %s: %w", path, err)
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		d.Remove(path)
		return "", 0, fmt.Errorf("write %s: %w", path, err)
	}

	// Verify the file landed with the expected size before transcribing.
	info, err := os.Stat(path)
	if err != nil {
		return "", 0, fmt.Errorf("verify %s: %w", path, err)
	}
	if expected >= 0 && info.Size() != expected {
		d.Remove(path)
		return "", 0, fmt.Errorf("verify %s: wrote %d bytes, expected %d", path, info.Size(), expected)
	}

	d.metrics.RecordScratchWrite(n)
	d.logger.Debug().Str("path", path).Int64("bytes", n).Msg("Scratch file written")
	return path, n, nil
}

// Remove deletes a scratch file best-effort. Failures are logged and
// counted but never returned; cleanup must not mask the primary error of
// the request that created the file.
func (d *Dir) Remove(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		d.metrics.RecordScratchCleanupFailure()
		d.logger.Error().Err(err).Str("path", path).Msg("Failed to delete scratch file")
		return
	}
	d.logger.Debug().Str("path", path).Msg("Scratch file deleted")
}
