package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"audio-transcription-service/internal/app"
	"audio-transcription-service/internal/blob"
	"audio-transcription-service/internal/config"
	"audio-transcription-service/internal/docs"
	"audio-transcription-service/internal/events"
	"audio-transcription-service/internal/httpapi"
	"audio-transcription-service/internal/observability"
	"audio-transcription-service/internal/scratch"
	"audio-transcription-service/internal/stt"
	"audio-transcription-service/internal/textops"
	"audio-transcription-service/internal/transcribe"
)

func main() {
	cfg := config.Load()

	application := app.New(cfg)
	if err := application.Start(); err != nil {
		log.Fatal().Err(err).Msg("Application startup failed")
	}

	// Kafka publisher with separate topics for upload and transcription
	// bookkeeping events. Disabled config means log-only mode.
	publisher := events.New(&events.Config{
		Enabled:         cfg.Kafka.Enabled,
		Brokers:         cfg.Kafka.Brokers,
		TopicUploads:    cfg.Kafka.TopicUploads,
		TopicTranscript: cfg.Kafka.TopicTranscript,
		Principal:       cfg.Kafka.Principal,
	})
	defer publisher.Close()

	scratchDir, err := scratch.Resolve(cfg.Scratch.Dir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to resolve scratch directory")
	}

	transcriber, err := stt.New(cfg.STT)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create transcription provider")
	}

	dispatcher := transcribe.NewDispatcher(nil, scratchDir, transcriber)
	dispatcher.SetPublisher(publisher)

	authorizer := blob.NewAuthorizer(&blob.EventHook{Publisher: publisher}, cfg.Blob.TokenTTL)

	textService := textops.New(cfg.TextOps)

	authURL := "http://localhost:" + cfg.Service.HTTPPort + "/v1/auth/google"
	exporter := docs.NewExporter(cfg.Docs, docs.NewFileStore(cfg.Docs.TokenPath), authURL)

	handlers := httpapi.NewHandlers(authorizer, dispatcher, textService, exporter)
	router := httpapi.NewRouter(handlers)

	// Metrics and health endpoints on their own port. Readiness tracks the
	// scratch volume a dispatch request will need.
	obsServer := observability.NewServer(":"+cfg.Service.MetricsPort,
		observability.Check{Name: "scratch", Probe: scratchDir.Probe},
	)
	obsServer.Start()

	server := &http.Server{
		Addr:    ":" + cfg.Service.HTTPPort,
		Handler: router,
		// No WriteTimeout: transcription of a 100MB file can legitimately
		// take minutes, and the dispatch response must wait for it.
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Str("provider", transcriber.Provider()).
			Msg("Audio transcription service started")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP serve failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP shutdown error")
	}
	if err := obsServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Observability shutdown error")
	}
	application.Shutdown()
}
