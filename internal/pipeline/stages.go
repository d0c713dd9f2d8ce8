package pipeline

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/Morris88826/YouClipAI/internal/search"
	"github.com/Morris88826/YouClipAI/internal/subtitles"
	"github.com/Morris88826/YouClipAI/internal/tasks"
	"github.com/Morris88826/YouClipAI/internal/types"
)

// TranscribeResult is the transcribe stage's task payload.
type TranscribeResult struct {
	VideoID               string `json:"video_id"`
	ChunkLengthSeconds    int    `json:"chunk_length_seconds"`
	AnalysisWindowSeconds int    `json:"analysis_window_seconds"`
	TranscriptDirectory   string `json:"transcript_directory"`
}

// finish converts a worker's outcome into the task's terminal state. Any
// panic inside the worker is caught here: the registry record turns to
// error instead of the whole process dying with the goroutine.
func (p *Pipeline) finish(taskID string, fn func() (any, string, error)) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("worker panic", "task_id", taskID, "panic", r)
			p.d.Registry.Fail(taskID, fmt.Sprintf("internal error: %v", r))
		}
	}()
	result, msg, err := fn()
	if err != nil {
		p.log.Error("task failed", "task_id", taskID, "error", err)
		p.d.Registry.Fail(taskID, err.Error())
		return
	}
	p.d.Registry.Complete(taskID, result, msg)
}

// RunFetch executes a fetch-only task.
func (p *Pipeline) RunFetch(ctx context.Context, taskID, ref string) {
	p.finish(taskID, func() (any, string, error) {
		meta, err := p.fetch(ctx, ref, func(pct int, msg string) {
			p.d.Registry.SetProgress(taskID, pct, msg)
		})
		if err != nil {
			return nil, "", err
		}
		return meta, "Successfully processed the video", nil
	})
}

// RunTranscribe executes a transcribe task, fetching the video first when
// its working directory does not exist yet.
func (p *Pipeline) RunTranscribe(ctx context.Context, taskID, ref string) {
	p.finish(taskID, func() (any, string, error) {
		res, err := p.transcribe(ctx, taskID, ref)
		if err != nil {
			return nil, "", err
		}
		return res, "Successfully transcribed the video", nil
	})
}

// RunSearch executes a search task over an already-transcribed video.
func (p *Pipeline) RunSearch(ctx context.Context, taskID, videoID, query string, chunkLen, windowLen int) {
	p.finish(taskID, func() (any, string, error) {
		if chunkLen <= 0 {
			chunkLen = p.cfg.ChunkLength
		}
		if windowLen <= 0 {
			windowLen = p.cfg.WindowLength
		}

		p.d.Registry.SetProgress(taskID, 2, "Analyzing the query")
		frame, err := p.extractFrame(ctx, query)
		if err != nil {
			return nil, "", err
		}

		results, err := p.searchVideo(ctx, taskID, videoID, frame.What, query, chunkLen, windowLen)
		if err != nil {
			return nil, "", err
		}
		return results, "Successfully searched the video", nil
	})
}

// RunAnalyze executes the composite task: resolve the query to candidate
// videos (unless refs are given), then transcribe and search each in order,
// accumulating one combined ranked result list. Any stage failure aborts
// the whole composite and discards partial results.
func (p *Pipeline) RunAnalyze(ctx context.Context, taskID, query string, refs []string) {
	p.finish(taskID, func() (any, string, error) {
		p.d.Registry.SetProgress(taskID, 2, "Analyzing the query")
		frame, err := p.extractFrame(ctx, query)
		if err != nil {
			return nil, "", err
		}

		if len(refs) == 0 {
			refs, err = p.discoverVideos(ctx, taskID, frame, query)
			if err != nil {
				return nil, "", err
			}
		}
		if len(refs) == 0 {
			return nil, "", fmt.Errorf("no candidate videos found for query")
		}

		var combined []types.RankedResult
		for i, ref := range refs {
			p.d.Registry.Update(taskID, func(t *tasks.Task) {
				t.CurrentIndex = i
				t.Subtask = tasks.KindTranscribe
				t.Progress = 2
				t.Message = fmt.Sprintf("Transcribing video %d of %d", i+1, len(refs))
			})
			tres, err := p.transcribe(ctx, taskID, ref)
			if err != nil {
				return nil, "", err
			}

			p.d.Registry.Update(taskID, func(t *tasks.Task) {
				t.Subtask = tasks.KindSearch
				t.Progress = 5
				t.Message = fmt.Sprintf("Searching video %d of %d", i+1, len(refs))
			})
			results, err := p.searchVideo(ctx, taskID, tres.VideoID, frame.What, query, tres.ChunkLengthSeconds, tres.AnalysisWindowSeconds)
			if err != nil {
				return nil, "", err
			}
			combined = append(combined, results...)
		}
		return combined, "Successfully analyzed the query", nil
	})
}

// fetch resolves the source reference and ensures the video's working
// directory holds raw media, raw audio and metadata. A metadata record on
// disk short-circuits the download entirely. Progress goes through report
// so callers embedding fetch as a sub-step can rescale it to their own band.
func (p *Pipeline) fetch(ctx context.Context, ref string, report func(pct int, msg string)) (types.VideoMeta, error) {
	meta, err := p.d.Acquirer.Resolve(ctx, ref)
	if err != nil {
		return types.VideoMeta{}, err
	}

	if p.d.Lib.HasMetadata(meta.ID) {
		p.log.Info("fetch cache hit", "video_id", meta.ID)
		return p.d.Lib.ReadMetadata(meta.ID)
	}

	if err := p.d.Lib.EnsureDir(meta.ID); err != nil {
		return types.VideoMeta{}, err
	}

	report(10, "Downloading the video")
	if err := p.d.Acquirer.Download(ctx, ref, p.d.Lib.VideoPath(meta.ID)); err != nil {
		return types.VideoMeta{}, err
	}

	report(60, "Extracting audio")
	if err := p.d.Video.ExtractAudioMono16k(ctx, p.d.Lib.VideoPath(meta.ID), p.d.Lib.AudioPath(meta.ID)); err != nil {
		return types.VideoMeta{}, err
	}

	if err := p.d.Lib.WriteMetadata(meta); err != nil {
		return types.VideoMeta{}, err
	}
	p.log.Info("fetch completed", "video_id", meta.ID, "title", meta.Title)
	return meta, nil
}

// transcribe splits the video's audio into fixed-length chunks and
// transcribes each one that is not already on disk. A crash mid-run loses
// at most the in-flight chunk; finished chunks are skipped on resume.
func (p *Pipeline) transcribe(ctx context.Context, taskID, ref string) (TranscribeResult, error) {
	// The embedded download is only the opening sliver of a transcribe task,
	// so its progress is squeezed into the band below the 5% chunking mark.
	meta, err := p.fetch(ctx, ref, func(pct int, msg string) {
		p.d.Registry.SetProgress(taskID, 2+pct*3/100, msg)
	})
	if err != nil {
		return TranscribeResult{}, err
	}
	p.d.Registry.SetProgress(taskID, 5, "Splitting audio into chunks")

	dur, err := p.d.Video.ProbeDuration(ctx, p.d.Lib.AudioPath(meta.ID))
	if err != nil {
		return TranscribeResult{}, err
	}
	chunkLen := time.Duration(p.cfg.ChunkLength) * time.Second
	nChunks := int((dur + chunkLen - 1) / chunkLen)
	if nChunks < 1 {
		nChunks = 1
	}

	progress := 5
	step := 90 / nChunks
	for i := 0; i < nChunks; i++ {
		if err := ctx.Err(); err != nil {
			return TranscribeResult{}, err
		}
		if p.d.Lib.HasChunk(meta.ID, i) {
			p.log.Debug("chunk already transcribed", "video_id", meta.ID, "chunk", i)
		} else {
			offset := time.Duration(i) * chunkLen
			chunkWav := p.d.Lib.ChunkAudioPath(meta.ID, i)
			if err := p.d.Video.ExportChunk(ctx, p.d.Lib.AudioPath(meta.ID), offset, chunkLen, chunkWav); err != nil {
				return TranscribeResult{}, err
			}
			words, err := p.d.ASR.Transcribe(ctx, chunkWav)
			if err != nil {
				return TranscribeResult{}, err
			}
			base := float64(i * p.cfg.ChunkLength)
			for j := range words {
				words[j].Start = round2(words[j].Start + base)
				words[j].End = round2(words[j].End + base)
			}
			if err := p.d.Lib.WriteChunkTranscript(meta.ID, i, words); err != nil {
				return TranscribeResult{}, err
			}
		}
		progress += step
		p.d.Registry.SetProgress(taskID, progress, fmt.Sprintf("Transcribed chunk %d of %d", i+1, nChunks))
	}

	return TranscribeResult{
		VideoID:               meta.ID,
		ChunkLengthSeconds:    p.cfg.ChunkLength,
		AnalysisWindowSeconds: p.cfg.WindowLength,
		TranscriptDirectory:   p.d.Lib.TranscriptsDir(meta.ID),
	}, nil
}

// searchVideo runs the sliding-window search over one transcribed video and
// cuts a clip for every merged range. The clip directory is wiped first:
// the latest search run wins.
func (p *Pipeline) searchVideo(ctx context.Context, taskID, videoID, target, query string, chunkLen, windowLen int) ([]types.RankedResult, error) {
	ranges, err := search.Run(ctx, search.Deps{
		Lib:       p.d.Lib,
		Extractor: p.d.Extractor,
		Ranker:    p.d.Ranker,
		Retry:     p.d.Retry,
		Logger:    p.log,
		Progress: func(pct int) {
			// Single-window scans emit 0; keep the bar at the stage floor.
			if pct < 5 {
				pct = 5
			}
			p.d.Registry.SetProgress(taskID, pct, "Searching the transcript")
		},
	}, search.Params{
		VideoID:      videoID,
		ChunkLength:  chunkLen,
		WindowLength: windowLen,
		Target:       target,
		Query:        query,
	})
	if err != nil {
		return nil, err
	}

	p.d.Registry.SetProgress(taskID, 95, "Extracting clips")
	if err := p.d.Lib.ResetClipsDir(videoID); err != nil {
		return nil, err
	}

	results := make([]types.RankedResult, 0, len(ranges))
	for _, r := range ranges {
		start := int(math.Floor(r.Start))
		end := int(math.Ceil(r.End))
		if end <= start {
			end = start + 1
		}
		clipPath := p.d.Lib.ClipPath(videoID, start, end)
		err := p.d.Video.RenderClip(ctx,
			p.d.Lib.VideoPath(videoID),
			time.Duration(start)*time.Second,
			time.Duration(end)*time.Second,
			clipPath,
		)
		if err != nil {
			return nil, err
		}
		if err := p.writeSubtitles(videoID, start, end, chunkLen); err != nil {
			return nil, err
		}
		results = append(results, types.RankedResult{
			Start:   r.Start,
			End:     r.End,
			ClipURL: fmt.Sprintf("/clips/%s/%d_%d.mp4", videoID, start, end),
		})
	}
	return results, nil
}

// writeSubtitles drops an SRT sidecar next to the clip, built from the
// transcript words inside its range. A clip with no words gets no sidecar.
func (p *Pipeline) writeSubtitles(videoID string, start, end, chunkLen int) error {
	words, err := p.d.Lib.ReadWordsInRange(videoID, float64(start), float64(end), chunkLen)
	if err != nil {
		return fmt.Errorf("read clip words: %w", err)
	}
	srt := subtitles.RenderSRT(words, float64(start), float64(end))
	if srt == "" {
		return nil
	}
	return os.WriteFile(p.d.Lib.ClipSubtitlePath(videoID, start, end), []byte(srt), 0o644)
}

// discoverVideos turns the query frame into a search string and asks the
// external video search for candidates, filtered by title relevance.
func (p *Pipeline) discoverVideos(ctx context.Context, taskID string, frame types.QueryFrame, query string) ([]string, error) {
	p.d.Registry.SetProgress(taskID, 5, "Searching for candidate videos")

	var searchStr string
	err := p.d.Retry.Do(ctx, func(ctx context.Context) error {
		var bErr error
		searchStr, bErr = p.d.Analyzer.BuildSearchString(ctx, frame)
		return bErr
	})
	if err != nil {
		return nil, fmt.Errorf("build search string: %w", err)
	}
	p.log.Info("video search", "search_string", searchStr, "query", query)

	hits, err := p.d.Videos.Search(ctx, searchStr)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, nil
	}

	err = p.d.Retry.Do(ctx, func(ctx context.Context) error {
		var fErr error
		hits, fErr = p.d.Filter.FilterHits(ctx, hits, query)
		return fErr
	})
	if err != nil {
		return nil, fmt.Errorf("filter video hits: %w", err)
	}

	if len(hits) > p.cfg.MaxAnalyzeVideos {
		hits = hits[:p.cfg.MaxAnalyzeVideos]
	}
	refs := make([]string, 0, len(hits))
	for _, h := range hits {
		refs = append(refs, h.URL)
	}
	return refs, nil
}

func (p *Pipeline) extractFrame(ctx context.Context, query string) (types.QueryFrame, error) {
	var frame types.QueryFrame
	err := p.d.Retry.Do(ctx, func(ctx context.Context) error {
		var fErr error
		frame, fErr = p.d.Analyzer.ExtractFrame(ctx, query)
		return fErr
	})
	if err != nil {
		return types.QueryFrame{}, fmt.Errorf("extract query frame: %w", err)
	}
	return frame, nil
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
