// Package ports declares the interfaces to every external collaborator the
// pipeline depends on. Stages are written against these; adapters live in
// ports/adapters.
package ports

import (
	"context"
	"time"

	"github.com/Morris88826/YouClipAI/internal/types"
)

// Acquirer resolves and downloads source videos.
type Acquirer interface {
	// Resolve maps a source reference (URL or id) to video metadata without
	// downloading anything.
	Resolve(ctx context.Context, ref string) (types.VideoMeta, error)
	// Download fetches the raw media stream to dest.
	Download(ctx context.Context, ref, dest string) error
}

// VideoTool wraps media container operations.
type VideoTool interface {
	ExtractAudioMono16k(ctx context.Context, inVideo, outWav string) error
	// ExportChunk cuts a fixed-length slice out of a wav file.
	ExportChunk(ctx context.Context, inWav string, offset, length time.Duration, outWav string) error
	// RenderClip re-encodes the [start,end] interval of a video with a fixed
	// codec pair for broad playback compatibility.
	RenderClip(ctx context.Context, inVideo string, start, end time.Duration, outMP4 string) error
	ProbeDuration(ctx context.Context, path string) (time.Duration, error)
}

// Transcriber turns one audio chunk into timed words. Offsets are local to
// the chunk; callers shift them to absolute video time.
type Transcriber interface {
	Transcribe(ctx context.Context, wavPath string) ([]types.Word, error)
}

// QueryAnalyzer extracts the 4W1H frame of a query and derives a video
// search string from it.
type QueryAnalyzer interface {
	ExtractFrame(ctx context.Context, query string) (types.QueryFrame, error)
	BuildSearchString(ctx context.Context, frame types.QueryFrame) (string, error)
}

// WindowExtractor decides whether one transcript window contains content
// matching the target description. ok is false when the window holds no
// match.
type WindowExtractor interface {
	ExtractWindow(ctx context.Context, words []types.Word, target string) (c types.Candidate, ok bool, err error)
}

// Ranker merges overlapping, thematically related candidates and orders the
// merged ranges most-relevant-first against the original query.
type Ranker interface {
	RankAndMerge(ctx context.Context, cands []types.Candidate, query string) ([]types.TimeRange, error)
}

// VideoSearcher returns external candidate videos for a text query.
type VideoSearcher interface {
	Search(ctx context.Context, query string) ([]types.VideoHit, error)
}

// VideoFilter narrows a hit list to the videos most likely to contain the
// queried content, judged by title.
type VideoFilter interface {
	FilterHits(ctx context.Context, hits []types.VideoHit, query string) ([]types.VideoHit, error)
}
