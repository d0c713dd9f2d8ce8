// Package openaillm implements the language-model collaborators on top of
// the OpenAI chat-completions API: 4W1H query framing, search-string
// generation, window extraction, candidate ranking/merging and video-hit
// filtering. The prompts pin the JSON shapes the methods parse.
package openaillm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Morris88826/YouClipAI/internal/types"
)

const (
	defaultModel   = "gpt-4o-mini"
	requestTimeout = 90 * time.Second
	maxTokens      = 512
)

// noMatch is the sentinel the extraction prompt demands for empty windows.
const noMatch = "None"

type Adapter struct {
	cli   *openai.Client
	model string
}

func New(apiKey, model, baseURL string) *Adapter {
	if model == "" {
		model = defaultModel
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Adapter{cli: openai.NewClientWithConfig(cfg), model: model}
}

// complete runs one user-prompt chat completion and returns the raw content.
func (a *Adapter) complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := a.cli.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (a *Adapter) ExtractFrame(ctx context.Context, query string) (types.QueryFrame, error) {
	out, err := a.complete(ctx, framePrompt(query))
	if err != nil {
		return types.QueryFrame{}, err
	}
	obj, err := extractJSONObject(out)
	if err != nil {
		return types.QueryFrame{}, err
	}
	var frame types.QueryFrame
	if err := json.Unmarshal([]byte(obj), &frame); err != nil {
		return types.QueryFrame{}, fmt.Errorf("parse 4W1H frame: %w", err)
	}
	return frame, nil
}

func (a *Adapter) BuildSearchString(ctx context.Context, frame types.QueryFrame) (string, error) {
	out, err := a.complete(ctx, searchStringPrompt(frame))
	if err != nil {
		return "", err
	}
	s := strings.TrimSpace(strings.Trim(strings.TrimSpace(out), `"`))
	if s == "" {
		return "", fmt.Errorf("empty search string")
	}
	return s, nil
}

func (a *Adapter) ExtractWindow(ctx context.Context, words []types.Word, target string) (types.Candidate, bool, error) {
	out, err := a.complete(ctx, windowPrompt(words, target))
	if err != nil {
		return types.Candidate{}, false, err
	}
	obj, err := extractJSONObject(out)
	if err != nil {
		return types.Candidate{}, false, err
	}

	var raw struct {
		Content   string `json:"content"`
		Info      string `json:"info"`
		StartTime any    `json:"start_time"`
		EndTime   any    `json:"end_time"`
	}
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return types.Candidate{}, false, fmt.Errorf("parse window extraction: %w", err)
	}

	start, okStart := parseSeconds(raw.StartTime)
	end, okEnd := parseSeconds(raw.EndTime)
	if !okStart || !okEnd {
		// The sentinel means the window holds no match; anything else
		// unparseable is also treated as no match rather than a failure.
		return types.Candidate{}, false, nil
	}
	return types.Candidate{
		Content: raw.Content,
		Info:    raw.Info,
		Start:   start,
		End:     end,
	}, true, nil
}

func (a *Adapter) RankAndMerge(ctx context.Context, cands []types.Candidate, query string) ([]types.TimeRange, error) {
	if len(cands) == 0 {
		return nil, nil
	}
	cb, err := json.Marshal(cands)
	if err != nil {
		return nil, fmt.Errorf("marshal candidates: %w", err)
	}
	out, err := a.complete(ctx, rankingPrompt(string(cb), query))
	if err != nil {
		return nil, err
	}
	obj, err := extractJSONObject(out)
	if err != nil {
		return nil, err
	}

	var raw struct {
		RankedResults []struct {
			StartTime any `json:"start_time"`
			EndTime   any `json:"end_time"`
		} `json:"ranked_results"`
	}
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return nil, fmt.Errorf("parse ranked results: %w", err)
	}
	ranges := make([]types.TimeRange, 0, len(raw.RankedResults))
	for i, r := range raw.RankedResults {
		start, okStart := parseSeconds(r.StartTime)
		end, okEnd := parseSeconds(r.EndTime)
		if !okStart || !okEnd {
			return nil, fmt.Errorf("ranked result %d: non-numeric time range", i)
		}
		if end <= start {
			continue
		}
		ranges = append(ranges, types.TimeRange{Start: start, End: end})
	}
	return ranges, nil
}

func (a *Adapter) FilterHits(ctx context.Context, hits []types.VideoHit, query string) ([]types.VideoHit, error) {
	if len(hits) == 0 {
		return nil, nil
	}
	hb, err := json.Marshal(hits)
	if err != nil {
		return nil, fmt.Errorf("marshal hits: %w", err)
	}
	out, err := a.complete(ctx, filterHitsPrompt(string(hb), query))
	if err != nil {
		return nil, err
	}
	obj, err := extractJSONObject(out)
	if err != nil {
		return nil, err
	}

	var raw struct {
		RankedResults []struct {
			VideoID    string `json:"video_id"`
			VideoTitle string `json:"video_title"`
		} `json:"ranked_results"`
	}
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return nil, fmt.Errorf("parse filtered hits: %w", err)
	}

	byID := make(map[string]types.VideoHit, len(hits))
	for _, h := range hits {
		byID[h.ID] = h
	}
	filtered := make([]types.VideoHit, 0, len(raw.RankedResults))
	for _, r := range raw.RankedResults {
		if h, ok := byID[r.VideoID]; ok {
			filtered = append(filtered, h)
		}
	}
	if len(filtered) == 0 {
		// A model that answers with ids we never offered is useless; keep the
		// original ordering instead of returning nothing.
		return hits, nil
	}
	return filtered, nil
}
