package tasks

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestCreateAndGet(t *testing.T) {
	r := NewRegistry()
	id := r.Create(KindFetch, "Processing the video")

	got, err := r.Get(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Kind != KindFetch || got.Status != StatusProcessing || got.Progress != 0 {
		t.Fatalf("unexpected initial record: %+v", got)
	}
	if got.Message != "Processing the video" {
		t.Fatalf("unexpected message: %q", got.Message)
	}
}

func TestGetUnknown(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Get("nope"); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestUpdateUnknownIsNoop(t *testing.T) {
	r := NewRegistry()
	called := false
	r.Update("nope", func(*Task) { called = true })
	if called {
		t.Fatal("update callback ran for an unknown id")
	}
}

func TestPollConsumesTerminalOnly(t *testing.T) {
	r := NewRegistry()
	id := r.Create(KindSearch, "searching")

	// Non-terminal polls do not consume the record.
	for i := 0; i < 3; i++ {
		got, err := r.Poll(id)
		if err != nil {
			t.Fatalf("poll %d: %v", i, err)
		}
		if got.Status != StatusProcessing {
			t.Fatalf("unexpected status: %s", got.Status)
		}
	}

	r.Complete(id, []string{"clip"}, "done")

	got, err := r.Poll(id)
	if err != nil {
		t.Fatalf("terminal poll: %v", err)
	}
	if got.Status != StatusCompleted || got.Progress != 100 {
		t.Fatalf("unexpected terminal snapshot: %+v", got)
	}

	if _, err := r.Poll(id); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound after terminal delivery, got %v", err)
	}
}

func TestFailSetsTerminalState(t *testing.T) {
	r := NewRegistry()
	id := r.Create(KindTranscribe, "transcribing")
	r.Update(id, func(t *Task) { t.Subtask = KindTranscribe })
	r.Fail(id, "HTTP 403: video unavailable")

	got, err := r.Get(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusError || got.Progress != 100 {
		t.Fatalf("unexpected error record: %+v", got)
	}
	if got.Message != "HTTP 403: video unavailable" {
		t.Fatalf("error message not surfaced verbatim: %q", got.Message)
	}
	if got.Subtask != "" {
		t.Fatalf("subtask not cleared on terminal state: %q", got.Subtask)
	}
}

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewID()
		if seen[id] {
			t.Fatalf("duplicate id: %s", id)
		}
		seen[id] = true
		if !strings.Contains(id, "-") {
			t.Fatalf("unexpected id format: %s", id)
		}
	}
}

func TestConcurrentWriters(t *testing.T) {
	r := NewRegistry()
	id := r.Create(KindAnalyze, "go")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			r.SetProgress(id, p, "working")
			_, _ = r.Get(id)
		}(i)
	}
	wg.Wait()

	got, err := r.Get(id)
	if err != nil {
		t.Fatalf("get after concurrent updates: %v", err)
	}
	if got.Progress < 0 || got.Progress > 100 {
		t.Fatalf("progress out of range: %d", got.Progress)
	}
}
