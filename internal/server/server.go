// Package server exposes the pipeline over HTTP. Every mutating endpoint
// registers a task, spawns a worker goroutine and answers immediately with
// the task id; clients follow up on the progress endpoint until the task
// turns terminal.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Morris88826/YouClipAI/internal/library"
	"github.com/Morris88826/YouClipAI/internal/pipeline"
	"github.com/Morris88826/YouClipAI/internal/tasks"
)

type Server struct {
	pipe *pipeline.Pipeline
	reg  *tasks.Registry
	lib  *library.Library
	log  *slog.Logger

	// workerCtx is the lifetime of all spawned workers; cancelling it on
	// shutdown stops in-flight stage work.
	workerCtx context.Context
}

func New(workerCtx context.Context, pipe *pipeline.Pipeline, reg *tasks.Registry, lib *library.Library, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{pipe: pipe, reg: reg, lib: lib, log: log, workerCtx: workerCtx}
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api/videos", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/fetch", s.handleFetch)
		r.Post("/transcribe", s.handleTranscribe)
		r.Post("/search", s.handleSearch)
		r.Get("/progress/{taskID}", s.handleProgress)
	})
	r.Get("/clips/{videoID}/{clipName}", s.handleClip)
	return r
}

type analyzeRequest struct {
	Query     string   `json:"query"`
	VideoURLs []string `json:"video_urls"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	id := s.reg.Create(tasks.KindAnalyze, "Analyzing the query")
	go s.pipe.RunAnalyze(s.workerCtx, id, req.Query, req.VideoURLs)
	writeAccepted(w, id)
}

type urlRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	id := s.reg.Create(tasks.KindFetch, "Processing the video")
	go s.pipe.RunFetch(s.workerCtx, id, req.URL)
	writeAccepted(w, id)
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	id := s.reg.Create(tasks.KindTranscribe, "Transcribing the video")
	go s.pipe.RunTranscribe(s.workerCtx, id, req.URL)
	writeAccepted(w, id)
}

type searchRequest struct {
	VideoID      string `json:"video_id"`
	Query        string `json:"query"`
	ChunkLength  int    `json:"chunk_length"`
	WindowLength int    `json:"window_length"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.VideoID) == "" {
		writeError(w, http.StatusBadRequest, "video_id is required")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	id := s.reg.Create(tasks.KindSearch, "Searching the video")
	go s.pipe.RunSearch(s.workerCtx, id, req.VideoID, req.Query, req.ChunkLength, req.WindowLength)
	writeAccepted(w, id)
}

// handleProgress delivers the task's current snapshot. A terminal snapshot
// is consumed on delivery, so the same poller asking again gets a 404.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "taskID")
	task, err := s.reg.Poll(id)
	if err != nil {
		if errors.Is(err, tasks.ErrTaskNotFound) {
			writeError(w, http.StatusNotFound, "task not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// handleClip serves a rendered clip file. Both path segments must be plain
// names; anything resembling traversal is rejected before touching disk.
func (s *Server) handleClip(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")
	clipName := chi.URLParam(r, "clipName")
	if !safeSegment(videoID) || !safeSegment(clipName) {
		writeError(w, http.StatusBadRequest, "invalid clip path")
		return
	}
	switch filepath.Ext(clipName) {
	case ".mp4", ".srt":
	default:
		writeError(w, http.StatusBadRequest, "invalid clip path")
		return
	}
	http.ServeFile(w, r, filepath.Join(s.lib.ClipsDir(videoID), clipName))
}

func safeSegment(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, "/\\")
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeAccepted(w http.ResponseWriter, taskID string) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"task_id": taskID,
	})
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{
		"status":  "error",
		"message": msg,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("write response", "error", err)
	}
}
