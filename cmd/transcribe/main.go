// Command transcribe uploads an audio file to a running service instance
// and prints the transcript. It exercises the same orchestration the
// browser client runs: authorize, transfer, dispatch.
package main

import (
	"context"
	"flag"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"audio-transcription-service/internal/blob"
	"audio-transcription-service/internal/client"
	"audio-transcription-service/internal/observability/logging"
)

func main() {
	var (
		server   = flag.String("server", "http://localhost:8080", "service base URL")
		store    = flag.String("store", "", "object store base URL (defaults to <server>/store)")
		filePath = flag.String("file", "", "audio file to transcribe")
		timeout  = flag.Duration("timeout", 10*time.Minute, "overall timeout")
		verbose  = flag.Bool("verbose", false, "print per-segment timestamps")
	)
	flag.Parse()

	// Keep library logging out of the way of the progress display.
	logging.Init(logging.Config{Level: "warn", Format: "console", TimeFormat: time.RFC3339})

	if *filePath == "" {
		fmt.Fprintln(os.Stderr, "usage: transcribe -file <audio> [-server URL]")
		os.Exit(2)
	}

	f, err := os.Open(*filePath)
	if err != nil {
		fatal(err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		fatal(err)
	}

	storeURL := *store
	if storeURL == "" {
		storeURL = strings.TrimSuffix(*server, "/") + "/store"
	}

	session := client.NewSession()
	session.Select(client.SelectedFile{
		Name:        filepath.Base(*filePath),
		Size:        info.Size(),
		ContentType: mime.TypeByExtension(filepath.Ext(*filePath)),
	})

	uploads := blob.NewClient(
		strings.TrimSuffix(*server, "/")+"/v1/uploads/events",
		storeURL,
		nil,
		0,
	)
	pipeline := client.NewPipeline(session, uploads,
		strings.TrimSuffix(*server, "/")+"/v1/transcriptions", nil)

	done := make(chan struct{})
	go reportProgress(session, done)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := pipeline.Run(ctx, f)
	close(done)
	if err != nil {
		fmt.Fprintf(os.Stderr, "\ntranscription failed: %s\n", session.ErrorMessage())
		os.Exit(1)
	}

	fmt.Printf("\n--- transcript (%s, %.1fs audio) ---\n%s\n", result.Language, result.Duration, result.Text)
	if *verbose {
		for _, seg := range result.Segments {
			fmt.Printf("[%7.2f - %7.2f] %s\n", seg.Start, seg.End, strings.TrimSpace(seg.Text))
		}
	}
}

// reportProgress prints the session's progress whenever it changes.
func reportProgress(session *client.Session, done <-chan struct{}) {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	last := -1
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if p := session.Progress(); p != last {
				last = p
				fmt.Printf("\r%-12s %3d%%", session.State(), p)
			}
		}
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
