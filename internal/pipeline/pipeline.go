// Package pipeline sequences the stage executors — fetch, transcribe,
// search, clip extraction — for one task, publishing progress and the
// terminal state to the task registry. Each Run* entry point is a worker: it
// is spawned on its own goroutine by a handler and owns its task record
// until the record turns terminal.
package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/Morris88826/YouClipAI/internal/library"
	"github.com/Morris88826/YouClipAI/internal/ports"
	"github.com/Morris88826/YouClipAI/internal/retry"
	"github.com/Morris88826/YouClipAI/internal/search"
	"github.com/Morris88826/YouClipAI/internal/tasks"
)

type Deps struct {
	Lib      *library.Library
	Registry *tasks.Registry

	Acquirer  ports.Acquirer
	Video     ports.VideoTool
	ASR       ports.Transcriber
	Analyzer  ports.QueryAnalyzer
	Extractor ports.WindowExtractor
	Ranker    ports.Ranker
	Videos    ports.VideoSearcher
	Filter    ports.VideoFilter

	Retry  retry.Policy
	Logger *slog.Logger
}

type Config struct {
	// ChunkLength is the transcription chunk length in seconds.
	ChunkLength int
	// WindowLength is the search analysis window in seconds.
	WindowLength int
	// MaxAnalyzeVideos caps how many discovered videos a composite analyze
	// task works through.
	MaxAnalyzeVideos int
}

func (c Config) Validate() error {
	if c.ChunkLength <= 0 {
		return fmt.Errorf("chunk length must be > 0")
	}
	if c.WindowLength <= 0 {
		return fmt.Errorf("analysis window length must be > 0")
	}
	if c.WindowLength > 2*c.ChunkLength {
		// A window may span at most two chunk files.
		return fmt.Errorf("analysis window length must be <= twice the chunk length")
	}
	if c.MaxAnalyzeVideos <= 0 {
		return fmt.Errorf("max analyze videos must be > 0")
	}
	return nil
}

func DefaultConfig() Config {
	return Config{
		ChunkLength:      search.DefaultChunkLength,
		WindowLength:     search.DefaultWindowLength,
		MaxAnalyzeVideos: 3,
	}
}

type Pipeline struct {
	d   Deps
	cfg Config
	log *slog.Logger
}

func New(d Deps, cfg Config) *Pipeline {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{d: d, cfg: cfg, log: log}
}
