package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Morris88826/YouClipAI/internal/library"
	"github.com/Morris88826/YouClipAI/internal/pipeline"
	"github.com/Morris88826/YouClipAI/internal/retry"
	"github.com/Morris88826/YouClipAI/internal/tasks"
	"github.com/Morris88826/YouClipAI/internal/types"
)

type stubAcquirer struct{}

func (stubAcquirer) Resolve(_ context.Context, ref string) (types.VideoMeta, error) {
	return types.VideoMeta{ID: "vid1", Title: "a title", URL: ref}, nil
}

func (stubAcquirer) Download(_ context.Context, _, dest string) error {
	return os.WriteFile(dest, []byte("video"), 0o644)
}

type stubVideoTool struct{}

func (stubVideoTool) ExtractAudioMono16k(_ context.Context, _, outWav string) error {
	return os.WriteFile(outWav, []byte("audio"), 0o644)
}

func (stubVideoTool) ExportChunk(_ context.Context, _ string, _, _ time.Duration, outWav string) error {
	return os.WriteFile(outWav, []byte("chunk"), 0o644)
}

func (stubVideoTool) RenderClip(_ context.Context, _ string, _, _ time.Duration, outMP4 string) error {
	return os.WriteFile(outMP4, []byte("clip"), 0o644)
}

func (stubVideoTool) ProbeDuration(context.Context, string) (time.Duration, error) {
	return 30 * time.Second, nil
}

func newTestServer(t *testing.T) (*Server, *library.Library) {
	t.Helper()
	lib := library.New(t.TempDir())
	reg := tasks.NewRegistry()
	pipe := pipeline.New(pipeline.Deps{
		Lib:      lib,
		Registry: reg,
		Acquirer: stubAcquirer{},
		Video:    stubVideoTool{},
		Retry:    retry.Policy{Attempts: 1},
	}, pipeline.DefaultConfig())
	return New(context.Background(), pipe, reg, lib, nil), lib
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestFetchLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Router()

	rec := postJSON(t, h, "/api/videos/fetch", `{"url":"https://youtu.be/vid1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	var accepted struct {
		Status string `json:"status"`
		TaskID string `json:"task_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &accepted); err != nil {
		t.Fatalf("decode accept response: %v", err)
	}
	if accepted.Status != "success" || accepted.TaskID == "" {
		t.Fatalf("unexpected accept response: %+v", accepted)
	}

	// Poll until the worker finishes.
	var task tasks.Task
	deadline := time.Now().Add(2 * time.Second)
	for {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/videos/progress/"+accepted.TaskID, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("progress status %d: %s", rec.Code, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &task); err != nil {
			t.Fatalf("decode progress: %v", err)
		}
		if task.Status != tasks.StatusProcessing {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("task never finished: %+v", task)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if task.Status != tasks.StatusCompleted || task.Progress != 100 {
		t.Fatalf("unexpected terminal task: %+v", task)
	}

	// The terminal snapshot was consumed; a second poll is a 404.
	rec2 := httptest.NewRecorder()
	h.ServeHTTP(rec2, httptest.NewRequest(http.MethodGet, "/api/videos/progress/"+accepted.TaskID, nil))
	if rec2.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after terminal delivery, got %d", rec2.Code)
	}
}

func TestValidation(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Router()

	cases := []struct {
		path string
		body string
	}{
		{"/api/videos/analyze", `{}`},
		{"/api/videos/analyze", `not json`},
		{"/api/videos/fetch", `{"url":"  "}`},
		{"/api/videos/transcribe", `{}`},
		{"/api/videos/search", `{"query":"q"}`},
		{"/api/videos/search", `{"video_id":"abc"}`},
	}
	for _, tc := range cases {
		rec := postJSON(t, h, tc.path, tc.body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s %q: expected 400, got %d", tc.path, tc.body, rec.Code)
		}
		var resp map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%s: decode error body: %v", tc.path, err)
		}
		if resp["status"] != "error" {
			t.Errorf("%s: unexpected error body: %v", tc.path, resp)
		}
	}
}

func TestProgressUnknownTask(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/videos/progress/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestClipServing(t *testing.T) {
	srv, lib := newTestServer(t)
	h := srv.Router()

	if err := lib.ResetClipsDir("vid1"); err != nil {
		t.Fatalf("reset clips: %v", err)
	}
	clip := filepath.Join(lib.ClipsDir("vid1"), "10_41.mp4")
	if err := os.WriteFile(clip, []byte("clip-bytes"), 0o644); err != nil {
		t.Fatalf("write clip: %v", err)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clips/vid1/10_41.mp4", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "clip-bytes" {
		t.Fatalf("unexpected clip body: %q", rec.Body.String())
	}

	bad := []string{
		"/clips/../vid1/10_41.mp4",
		"/clips/vid1/..",
		"/clips/vid1/notes.txt",
	}
	for _, path := range bad {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.URL.Path = path
		h.ServeHTTP(rec, req)
		if rec.Code == http.StatusOK {
			t.Errorf("%s: traversal-ish path served", path)
		}
	}
}
