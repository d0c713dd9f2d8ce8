// Package whispercpp transcribes audio with a local whisper.cpp binary.
// It is the offline alternative to the OpenAI audio API: same port, no
// network, token-level timestamps from the full JSON output.
package whispercpp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/Morris88826/YouClipAI/internal/types"
)

type Adapter struct {
	bin   string
	model string
}

func New(binPath, modelPath string) *Adapter {
	return &Adapter{bin: binPath, model: modelPath}
}

// output mirrors whisper.cpp's -ojf JSON. Offsets are milliseconds from the
// start of the input file.
type output struct {
	Transcription []segment `json:"transcription"`
}

type segment struct {
	Text    string  `json:"text"`
	Offsets offsets `json:"offsets"`
	Tokens  []token `json:"tokens"`
}

type token struct {
	Text    string  `json:"text"`
	Offsets offsets `json:"offsets"`
}

type offsets struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

// Transcribe runs whisper.cpp over one audio chunk and returns its words
// with chunk-local timestamps.
func (a *Adapter) Transcribe(ctx context.Context, wavPath string) ([]types.Word, error) {
	tmp, err := os.MkdirTemp("", "whispercpp")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmp)

	outPrefix := filepath.Join(tmp, "whisper")
	args := []string{
		"-m", a.model,
		"-f", wavPath,
		"-ojf",
		"-of", outPrefix,
		"-np",
	}
	cmd := exec.CommandContext(ctx, a.bin, args...)
	if b, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("whisper.cpp failed: %w\n%s", err, string(b))
	}

	jb, err := os.ReadFile(outPrefix + ".json")
	if err != nil {
		return nil, err
	}
	var out output
	if err := json.Unmarshal(jb, &out); err != nil {
		return nil, fmt.Errorf("parse whisper.cpp output: %w", err)
	}
	return flatten(out), nil
}

// flatten turns segments into a word list, preferring token-level timing.
// Segments without usable tokens fall back to one entry spanning the
// whole segment.
func flatten(out output) []types.Word {
	var words []types.Word
	for _, seg := range out.Transcription {
		n := len(words)
		for _, tok := range seg.Tokens {
			text := strings.TrimSpace(tok.Text)
			if text == "" || strings.HasPrefix(text, "[_") {
				continue
			}
			if tok.Offsets.To <= tok.Offsets.From {
				continue
			}
			words = append(words, types.Word{
				Word:  text,
				Start: float64(tok.Offsets.From) / 1000,
				End:   float64(tok.Offsets.To) / 1000,
			})
		}
		if len(words) > n {
			continue
		}
		text := strings.TrimSpace(seg.Text)
		if text == "" || seg.Offsets.To <= seg.Offsets.From {
			continue
		}
		words = append(words, types.Word{
			Word:  text,
			Start: float64(seg.Offsets.From) / 1000,
			End:   float64(seg.Offsets.To) / 1000,
		})
	}
	return words
}
