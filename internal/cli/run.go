package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Morris88826/YouClipAI/internal/config"
	"github.com/Morris88826/YouClipAI/internal/library"
	"github.com/Morris88826/YouClipAI/internal/pipeline"
	"github.com/Morris88826/YouClipAI/internal/ports"
	"github.com/Morris88826/YouClipAI/internal/ports/adapters/ffmpeg"
	"github.com/Morris88826/YouClipAI/internal/ports/adapters/openaillm"
	"github.com/Morris88826/YouClipAI/internal/ports/adapters/whispercpp"
	"github.com/Morris88826/YouClipAI/internal/ports/adapters/youtubeapi"
	"github.com/Morris88826/YouClipAI/internal/ports/adapters/ytdlp"
	"github.com/Morris88826/YouClipAI/internal/retry"
	"github.com/Morris88826/YouClipAI/internal/server"
	"github.com/Morris88826/YouClipAI/internal/tasks"
)

// serve wires the adapters into the pipeline and runs the HTTP server until
// the context is cancelled or a termination signal arrives. Cancelling the
// worker context stops in-flight stage work.
func serve(ctx context.Context, cfg config.Config) error {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := os.MkdirAll(cfg.DownloadsDir, 0o755); err != nil {
		return fmt.Errorf("create downloads dir: %w", err)
	}

	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()

	lib := library.New(cfg.DownloadsDir)
	reg := tasks.NewRegistry()
	llm := openaillm.New(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)

	var asr ports.Transcriber = openaillm.NewTranscriber(cfg.OpenAIAPIKey, "", cfg.OpenAIBaseURL)
	if cfg.WhisperBin != "" {
		asr = whispercpp.New(cfg.WhisperBin, cfg.WhisperModel)
	}

	pipe := pipeline.New(pipeline.Deps{
		Lib:       lib,
		Registry:  reg,
		Acquirer:  ytdlp.New(cfg.YTDLPPath),
		Video:     ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath),
		ASR:       asr,
		Analyzer:  llm,
		Extractor: llm,
		Ranker:    llm,
		Videos:    youtubeapi.New(cfg.YouTubeAPIKey),
		Filter:    llm,
		Retry:     retry.Default(),
		Logger:    log,
	}, pipeline.Config{
		ChunkLength:      cfg.ChunkLength,
		WindowLength:     cfg.WindowLength,
		MaxAnalyzeVideos: cfg.MaxAnalyzeVideos,
	})

	srv := server.New(workerCtx, pipe, reg, lib, log)
	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", httpSrv.Addr, "downloads", lib.Root())
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-sigCtx.Done():
	}

	log.Info("shutting down")
	stopWorkers()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
