// Package search implements the sliding-window transcript search: it walks a
// video's chunked transcript with 50%-overlapping analysis windows, asks the
// extraction collaborator whether each window matches the target, and has
// the ranking collaborator merge and order the accumulated candidates.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Morris88826/YouClipAI/internal/library"
	"github.com/Morris88826/YouClipAI/internal/ports"
	"github.com/Morris88826/YouClipAI/internal/retry"
	"github.com/Morris88826/YouClipAI/internal/types"
)

// ErrNoTranscripts is returned when the video has no transcript chunks; the
// window loop cannot run over an empty transcript directory.
var ErrNoTranscripts = errors.New("no transcript chunks for video")

const (
	DefaultChunkLength  = 120 // seconds, matches the transcribe stage
	DefaultWindowLength = 120
)

type Params struct {
	VideoID string
	// ChunkLength is the fixed transcript chunk length in seconds.
	ChunkLength int
	// WindowLength is the analysis window in seconds; defaults to ChunkLength.
	WindowLength int
	// Target is the "What" extracted from the query.
	Target string
	// Query is the original free-text query, used for ranking.
	Query string
}

func (p *Params) applyDefaults() {
	if p.ChunkLength <= 0 {
		p.ChunkLength = DefaultChunkLength
	}
	if p.WindowLength <= 0 {
		p.WindowLength = p.ChunkLength
	}
}

type Deps struct {
	Lib       *library.Library
	Extractor ports.WindowExtractor
	Ranker    ports.Ranker
	Retry     retry.Policy
	Logger    *slog.Logger
	// Progress receives coarse percentages in [0,90] as the scan advances.
	Progress func(pct int)
}

// Run scans all windows and returns the merged ranges, most relevant first.
//
// Window geometry: step is half the window length, so any interval shorter
// than half a window is presented whole to the extractor at least once even
// when it straddles a chunk boundary. A window spans at most the chunk file
// containing its start and the one containing its end (clamped to the last
// chunk), concatenated in order before filtering.
func Run(ctx context.Context, d Deps, p Params) ([]types.TimeRange, error) {
	p.applyDefaults()
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	progress := d.Progress
	if progress == nil {
		progress = func(int) {}
	}

	nChunks, err := d.Lib.CountChunkTranscripts(p.VideoID)
	if err != nil {
		return nil, fmt.Errorf("count transcripts: %w", err)
	}
	if nChunks == 0 {
		return nil, ErrNoTranscripts
	}

	step := p.WindowLength / 2
	if step < 1 {
		step = 1
	}
	total := nChunks * p.ChunkLength

	var cands []types.Candidate
	for t := 0; t < total; t += step {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		winEnd := t + p.WindowLength - 1

		rows, err := loadWindow(d.Lib, p.VideoID, p.ChunkLength, nChunks, t, winEnd)
		if err != nil {
			return nil, err
		}
		log.Debug("analyzing window", "video_id", p.VideoID, "start", t, "end", winEnd, "words", len(rows))

		if len(rows) > 0 {
			var (
				cand types.Candidate
				ok   bool
			)
			err := d.Retry.Do(ctx, func(ctx context.Context) error {
				var exErr error
				cand, ok, exErr = d.Extractor.ExtractWindow(ctx, rows, p.Target)
				return exErr
			})
			if err != nil {
				return nil, fmt.Errorf("extract window [%d,%d]: %w", t, winEnd, err)
			}
			if ok {
				cands = append(cands, cand)
			}
		}

		covered := winEnd/p.ChunkLength + 1
		if covered > nChunks-1 {
			covered = nChunks - 1
		}
		progress(covered * 90 / nChunks)
	}

	var ranges []types.TimeRange
	err = d.Retry.Do(ctx, func(ctx context.Context) error {
		var rkErr error
		ranges, rkErr = d.Ranker.RankAndMerge(ctx, cands, p.Query)
		return rkErr
	})
	if err != nil {
		return nil, fmt.Errorf("rank candidates: %w", err)
	}
	ranges = MergeRanges(ranges, MergeGapSeconds)
	log.Info("search finished", "video_id", p.VideoID, "candidates", len(cands), "ranges", len(ranges))
	return ranges, nil
}

// loadWindow reads the chunk file(s) the window spans and keeps only the
// rows lying fully inside [start, end].
func loadWindow(lib *library.Library, videoID string, chunkLen, nChunks, start, end int) ([]types.Word, error) {
	startIdx := start / chunkLen
	endIdx := end / chunkLen
	if endIdx > nChunks-1 {
		endIdx = nChunks - 1
	}
	if startIdx > nChunks-1 {
		startIdx = nChunks - 1
	}

	rows, err := lib.ReadChunkTranscript(videoID, startIdx)
	if err != nil {
		return nil, fmt.Errorf("read chunk %d: %w", startIdx, err)
	}
	if endIdx != startIdx {
		next, err := lib.ReadChunkTranscript(videoID, endIdx)
		if err != nil {
			return nil, fmt.Errorf("read chunk %d: %w", endIdx, err)
		}
		rows = append(rows, next...)
	}

	lo, hi := float64(start), float64(end)
	filtered := rows[:0:0]
	for _, w := range rows {
		if w.Start >= lo && w.End <= hi {
			filtered = append(filtered, w)
		}
	}
	return filtered, nil
}

// WindowCount reports how many windows the scan visits for a given chunk
// count and geometry.
func WindowCount(nChunks, chunkLen, windowLen int) int {
	step := windowLen / 2
	if step < 1 {
		step = 1
	}
	total := nChunks * chunkLen
	return (total + step - 1) / step
}
