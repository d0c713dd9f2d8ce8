package types

// Word is a single transcribed word with absolute (video-relative) offsets in
// seconds. Transcript chunk files store rows in this shape.
type Word struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// VideoMeta identifies a downloaded video. Its presence on disk
// (metadata.json) marks the fetch stage as completed for that id.
type VideoMeta struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// QueryFrame is the 4W1H decomposition of a free-text query.
type QueryFrame struct {
	Who   string `json:"Who"`
	What  string `json:"What"`
	When  string `json:"When"`
	Where string `json:"Where"`
	How   string `json:"How"`
}

// Candidate is one window-local match pending ranking. Start/End are absolute
// seconds within the video.
type Candidate struct {
	Content string  `json:"content"`
	Info    string  `json:"info"`
	Start   float64 `json:"start_time"`
	End     float64 `json:"end_time"`
}

// TimeRange is a merged, ranked interval returned by the ranking collaborator.
type TimeRange struct {
	Start float64 `json:"start_time"`
	End   float64 `json:"end_time"`
}

// RankedResult is the output unit of the search stage: a merged range plus
// the URL of the clip cut for it.
type RankedResult struct {
	Start   float64 `json:"start_time"`
	End     float64 `json:"end_time"`
	ClipURL string  `json:"clip_url"`
}

// VideoHit is one external video-search result.
type VideoHit struct {
	ID    string `json:"video_id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}
