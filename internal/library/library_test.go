package library

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Morris88826/YouClipAI/internal/types"
)

func TestRootReportsConfiguredDirectory(t *testing.T) {
	dir := t.TempDir()
	l := New(dir)
	if l.Root() != dir {
		t.Fatalf("root: got %q want %q", l.Root(), dir)
	}
	if got := l.VideoPath("abc"); filepath.Dir(got) != filepath.Join(dir, "abc") {
		t.Fatalf("video path not under root: %q", got)
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	l := New(t.TempDir())
	meta := types.VideoMeta{ID: "abc123", Title: "Media Day", URL: "https://www.youtube.com/watch?v=abc123"}

	if l.HasMetadata(meta.ID) {
		t.Fatal("metadata reported present before write")
	}
	if err := l.EnsureDir(meta.ID); err != nil {
		t.Fatalf("ensure dir: %v", err)
	}
	if err := l.WriteMetadata(meta); err != nil {
		t.Fatalf("write metadata: %v", err)
	}
	if !l.HasMetadata(meta.ID) {
		t.Fatal("metadata reported absent after write")
	}

	got, err := l.ReadMetadata(meta.ID)
	if err != nil {
		t.Fatalf("read metadata: %v", err)
	}
	if got != meta {
		t.Fatalf("metadata round trip: got %+v want %+v", got, meta)
	}
}

func TestChunkTranscriptRoundTripAbsoluteOffsets(t *testing.T) {
	l := New(t.TempDir())
	const videoID = "vid"
	if err := l.EnsureDir(videoID); err != nil {
		t.Fatalf("ensure dir: %v", err)
	}

	// Words at chunk-local offsets 0.0, 1.5, 3.0 in chunk index 2 with
	// chunk_length=120 are stored with absolute offsets 240.0, 241.5, 243.0.
	const chunkLen = 120.0
	local := []types.Word{
		{Word: "hello", Start: 0.0, End: 0.4},
		{Word: "media", Start: 1.5, End: 1.9},
		{Word: "day", Start: 3.0, End: 3.2},
	}
	abs := make([]types.Word, len(local))
	for i, w := range local {
		abs[i] = types.Word{Word: w.Word, Start: w.Start + 2*chunkLen, End: w.End + 2*chunkLen}
	}
	if err := l.WriteChunkTranscript(videoID, 2, abs); err != nil {
		t.Fatalf("write chunk transcript: %v", err)
	}

	got, err := l.ReadChunkTranscript(videoID, 2)
	if err != nil {
		t.Fatalf("read chunk transcript: %v", err)
	}
	wantStarts := []float64{240.0, 241.5, 243.0}
	if len(got) != len(wantStarts) {
		t.Fatalf("expected %d words, got %d", len(wantStarts), len(got))
	}
	for i, w := range got {
		if w.Start != wantStarts[i] {
			t.Fatalf("word %d start: got %v want %v", i, w.Start, wantStarts[i])
		}
	}
	if got[0].Word != "hello" || got[2].Word != "day" {
		t.Fatalf("word text round trip failed: %+v", got)
	}
}

func TestHasChunkRequiresBothFiles(t *testing.T) {
	l := New(t.TempDir())
	const videoID = "vid"
	if err := l.EnsureDir(videoID); err != nil {
		t.Fatalf("ensure dir: %v", err)
	}
	if l.HasChunk(videoID, 0) {
		t.Fatal("chunk reported present in empty dir")
	}

	if err := os.WriteFile(l.ChunkAudioPath(videoID, 0), []byte("wav"), 0o644); err != nil {
		t.Fatalf("write chunk audio: %v", err)
	}
	if l.HasChunk(videoID, 0) {
		t.Fatal("chunk reported present with audio only")
	}

	if err := l.WriteChunkTranscript(videoID, 0, nil); err != nil {
		t.Fatalf("write transcript: %v", err)
	}
	if !l.HasChunk(videoID, 0) {
		t.Fatal("chunk reported absent with both files present")
	}
}

func TestCountChunkTranscripts(t *testing.T) {
	l := New(t.TempDir())
	const videoID = "vid"

	n, err := l.CountChunkTranscripts(videoID)
	if err != nil {
		t.Fatalf("count on missing dir: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 transcripts, got %d", n)
	}

	if err := l.EnsureDir(videoID); err != nil {
		t.Fatalf("ensure dir: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := l.WriteChunkTranscript(videoID, i, nil); err != nil {
			t.Fatalf("write transcript %d: %v", i, err)
		}
	}
	// A stray non-csv file must not be counted.
	if err := os.WriteFile(filepath.Join(l.TranscriptsDir(videoID), "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write stray file: %v", err)
	}

	n, err = l.CountChunkTranscripts(videoID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 transcripts, got %d", n)
	}
}

func TestReadWordsInRange(t *testing.T) {
	l := New(t.TempDir())
	const videoID = "vid"
	const chunkLen = 120
	if err := l.EnsureDir(videoID); err != nil {
		t.Fatalf("ensure dir: %v", err)
	}

	if err := l.WriteChunkTranscript(videoID, 0, []types.Word{
		{Word: "early", Start: 2.0, End: 2.4},
		{Word: "inside", Start: 110.0, End: 110.5},
	}); err != nil {
		t.Fatalf("write chunk 0: %v", err)
	}
	if err := l.WriteChunkTranscript(videoID, 1, []types.Word{
		{Word: "straddle", Start: 129.8, End: 130.4},
		{Word: "late", Start: 200.0, End: 200.3},
	}); err != nil {
		t.Fatalf("write chunk 1: %v", err)
	}

	got, err := l.ReadWordsInRange(videoID, 100, 130, chunkLen)
	if err != nil {
		t.Fatalf("read words: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 words, got %+v", got)
	}
	if got[0].Word != "inside" || got[1].Word != "straddle" {
		t.Fatalf("unexpected words: %+v", got)
	}

	got, err = l.ReadWordsInRange(videoID, 500, 600, chunkLen)
	if err != nil {
		t.Fatalf("read out-of-range: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no words past the transcript, got %+v", got)
	}
}

func TestResetClipsDirWipesStaleFiles(t *testing.T) {
	l := New(t.TempDir())
	const videoID = "vid"
	if err := l.ResetClipsDir(videoID); err != nil {
		t.Fatalf("reset clips dir: %v", err)
	}
	stale := l.ClipPath(videoID, 10, 40)
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatalf("write stale clip: %v", err)
	}

	if err := l.ResetClipsDir(videoID); err != nil {
		t.Fatalf("second reset: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("stale clip survived reset: %v", err)
	}
	entries, err := os.ReadDir(l.ClipsDir(videoID))
	if err != nil {
		t.Fatalf("read clips dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("clips dir not empty after reset: %d entries", len(entries))
	}
}
