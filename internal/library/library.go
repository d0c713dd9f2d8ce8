// Package library manages per-video working directories under the downloads
// root: raw media, raw audio, chunked transcripts and extracted clips.
//
// Layout per video id:
//
//	{root}/{id}/video.mp4
//	{root}/{id}/audio.wav
//	{root}/{id}/metadata.json
//	{root}/{id}/chunks/0000.wav ...
//	{root}/{id}/transcriptions/0000.csv ...
//	{root}/{id}/clips/{start}_{end}.mp4 ...
//
// Everything written here is idempotent: files are keyed by (id, index) and
// immutable once written, except the clips directory which is wiped and
// rebuilt on every search run.
package library

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/Morris88826/YouClipAI/internal/types"
)

type Library struct {
	root string
}

func New(root string) *Library {
	return &Library{root: root}
}

func (l *Library) Root() string { return l.root }

func (l *Library) Dir(videoID string) string {
	return filepath.Join(l.root, videoID)
}

func (l *Library) VideoPath(videoID string) string {
	return filepath.Join(l.Dir(videoID), "video.mp4")
}

func (l *Library) AudioPath(videoID string) string {
	return filepath.Join(l.Dir(videoID), "audio.wav")
}

func (l *Library) MetadataPath(videoID string) string {
	return filepath.Join(l.Dir(videoID), "metadata.json")
}

func (l *Library) ChunksDir(videoID string) string {
	return filepath.Join(l.Dir(videoID), "chunks")
}

func (l *Library) TranscriptsDir(videoID string) string {
	return filepath.Join(l.Dir(videoID), "transcriptions")
}

func (l *Library) ClipsDir(videoID string) string {
	return filepath.Join(l.Dir(videoID), "clips")
}

func (l *Library) ChunkAudioPath(videoID string, idx int) string {
	return filepath.Join(l.ChunksDir(videoID), fmt.Sprintf("%04d.wav", idx))
}

func (l *Library) ChunkTranscriptPath(videoID string, idx int) string {
	return filepath.Join(l.TranscriptsDir(videoID), fmt.Sprintf("%04d.csv", idx))
}

// ClipPath names a clip by its integer-second range.
func (l *Library) ClipPath(videoID string, start, end int) string {
	return filepath.Join(l.ClipsDir(videoID), fmt.Sprintf("%d_%d.mp4", start, end))
}

// ClipSubtitlePath names the subtitle sidecar for a clip.
func (l *Library) ClipSubtitlePath(videoID string, start, end int) string {
	return filepath.Join(l.ClipsDir(videoID), fmt.Sprintf("%d_%d.srt", start, end))
}

// EnsureDir creates the working directory skeleton for a video.
func (l *Library) EnsureDir(videoID string) error {
	for _, d := range []string{
		l.Dir(videoID),
		l.ChunksDir(videoID),
		l.TranscriptsDir(videoID),
	} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// HasMetadata reports whether the fetch stage already completed for this id.
func (l *Library) HasMetadata(videoID string) bool {
	_, err := os.Stat(l.MetadataPath(videoID))
	return err == nil
}

func (l *Library) WriteMetadata(meta types.VideoMeta) error {
	b, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	return os.WriteFile(l.MetadataPath(meta.ID), b, 0o644)
}

func (l *Library) ReadMetadata(videoID string) (types.VideoMeta, error) {
	b, err := os.ReadFile(l.MetadataPath(videoID))
	if err != nil {
		return types.VideoMeta{}, err
	}
	var meta types.VideoMeta
	if err := json.Unmarshal(b, &meta); err != nil {
		return types.VideoMeta{}, fmt.Errorf("parse metadata: %w", err)
	}
	return meta, nil
}

// HasChunk reports whether both the chunk audio and its transcript exist,
// which lets a re-run skip the chunk entirely.
func (l *Library) HasChunk(videoID string, idx int) bool {
	if _, err := os.Stat(l.ChunkAudioPath(videoID, idx)); err != nil {
		return false
	}
	_, err := os.Stat(l.ChunkTranscriptPath(videoID, idx))
	return err == nil
}

// WriteChunkTranscript persists one chunk's words as word,start,end CSV rows.
// Offsets are written with two decimals; callers pass absolute offsets.
func (l *Library) WriteChunkTranscript(videoID string, idx int, words []types.Word) error {
	f, err := os.Create(l.ChunkTranscriptPath(videoID, idx))
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"word", "start", "end"}); err != nil {
		return err
	}
	for _, word := range words {
		rec := []string{
			word.Word,
			strconv.FormatFloat(word.Start, 'f', 2, 64),
			strconv.FormatFloat(word.End, 'f', 2, 64),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// ReadChunkTranscript loads one chunk's rows back in file order.
func (l *Library) ReadChunkTranscript(videoID string, idx int) ([]types.Word, error) {
	f, err := os.Open(l.ChunkTranscriptPath(videoID, idx))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	recs, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read transcript csv: %w", err)
	}
	words := make([]types.Word, 0, len(recs))
	for i, rec := range recs {
		if i == 0 { // header
			continue
		}
		if len(rec) != 3 {
			return nil, fmt.Errorf("transcript row %d: expected 3 fields, got %d", i, len(rec))
		}
		start, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("transcript row %d start: %w", i, err)
		}
		end, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, fmt.Errorf("transcript row %d end: %w", i, err)
		}
		words = append(words, types.Word{Word: rec[0], Start: start, End: end})
	}
	return words, nil
}

// CountChunkTranscripts returns how many chunk transcript files exist for the
// video. Files are counted, not listed, because chunk indices are dense.
func (l *Library) CountChunkTranscripts(videoID string) (int, error) {
	entries, err := os.ReadDir(l.TranscriptsDir(videoID))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".csv" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return len(names), nil
}

// ReadWordsInRange collects the words overlapping [start, end] seconds from
// the chunk files the range spans. Used to caption clips after extraction.
func (l *Library) ReadWordsInRange(videoID string, start, end float64, chunkLen int) ([]types.Word, error) {
	if chunkLen <= 0 || end <= start {
		return nil, nil
	}
	n, err := l.CountChunkTranscripts(videoID)
	if err != nil || n == 0 {
		return nil, err
	}

	startIdx := int(start) / chunkLen
	endIdx := int(end) / chunkLen
	if startIdx > n-1 {
		return nil, nil
	}
	if endIdx > n-1 {
		endIdx = n - 1
	}

	var out []types.Word
	for i := startIdx; i <= endIdx; i++ {
		rows, err := l.ReadChunkTranscript(videoID, i)
		if err != nil {
			return nil, err
		}
		for _, w := range rows {
			if w.End > start && w.Start < end {
				out = append(out, w)
			}
		}
	}
	return out, nil
}

// ResetClipsDir wipes and recreates the clips directory: the latest search
// run wins and no stale clip survives it.
func (l *Library) ResetClipsDir(videoID string) error {
	dir := l.ClipsDir(videoID)
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}
