// Package youtubeapi searches videos through the YouTube Data API v3.
package youtubeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Morris88826/YouClipAI/internal/types"
)

const defaultBaseURL = "https://www.googleapis.com/youtube/v3/search"

type Adapter struct {
	key        string
	baseURL    string
	maxResults int
	// duration limits hits to the API's bucket names: short, medium, long.
	duration string
	client   *http.Client
}

func New(apiKey string) *Adapter {
	return &Adapter{
		key:        apiKey,
		baseURL:    defaultBaseURL,
		maxResults: 5,
		duration:   "medium",
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (a *Adapter) Search(ctx context.Context, query string) ([]types.VideoHit, error) {
	params := url.Values{
		"part":          {"snippet"},
		"type":          {"video"},
		"q":             {query},
		"key":           {a.key},
		"maxResults":    {strconv.Itoa(a.maxResults)},
		"videoDuration": {a.duration},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("youtube search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("youtube search status %d: %s", resp.StatusCode, string(b))
	}

	var raw struct {
		Items []struct {
			ID struct {
				VideoID string `json:"videoId"`
			} `json:"id"`
			Snippet struct {
				Title string `json:"title"`
			} `json:"snippet"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse youtube search response: %w", err)
	}

	hits := make([]types.VideoHit, 0, len(raw.Items))
	for _, it := range raw.Items {
		if it.ID.VideoID == "" {
			continue
		}
		hits = append(hits, types.VideoHit{
			ID:    it.ID.VideoID,
			Title: it.Snippet.Title,
			URL:   "https://www.youtube.com/watch?v=" + it.ID.VideoID,
		})
	}
	return hits, nil
}
