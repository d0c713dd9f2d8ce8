package openaillm

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Morris88826/YouClipAI/internal/types"
)

const transcriptionTimeout = 2 * time.Minute

// Transcriber runs Whisper through the OpenAI audio API with word-level
// timestamps. One call per audio chunk; offsets are chunk-local.
type Transcriber struct {
	cli   *openai.Client
	model string
}

func NewTranscriber(apiKey, model, baseURL string) *Transcriber {
	if model == "" {
		model = openai.Whisper1
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Transcriber{cli: openai.NewClientWithConfig(cfg), model: model}
}

func (t *Transcriber) Transcribe(ctx context.Context, wavPath string) ([]types.Word, error) {
	ctx, cancel := context.WithTimeout(ctx, transcriptionTimeout)
	defer cancel()

	resp, err := t.cli.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: wavPath,
		Format:   openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []openai.TranscriptionTimestampGranularity{
			openai.TranscriptionTimestampGranularityWord,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("whisper transcription: %w", err)
	}

	words := make([]types.Word, 0, len(resp.Words))
	for _, w := range resp.Words {
		words = append(words, types.Word{Word: w.Word, Start: w.Start, End: w.End})
	}
	return words, nil
}
