// Package subtitles renders SRT caption sidecars for extracted clips from
// the word-level transcript.
package subtitles

import (
	"fmt"
	"strings"
	"time"

	"github.com/Morris88826/YouClipAI/internal/types"
)

type line struct {
	start time.Duration
	end   time.Duration
	words []string
}

// RenderSRT builds an SRT document for a clip covering [clipStart, clipEnd]
// seconds of the source video. Word timestamps are absolute; cue times come
// out clip-local. Words outside the clip are ignored, ones straddling its
// edges are clamped.
func RenderSRT(words []types.Word, clipStart, clipEnd float64) string {
	lines := packWords(clip(words, clipStart, clipEnd))
	if len(lines) == 0 {
		return ""
	}

	var b strings.Builder
	for i, ln := range lines {
		fmt.Fprintf(&b, "%d\n", i+1)
		b.WriteString(srtTime(ln.start))
		b.WriteString(" --> ")
		b.WriteString(srtTime(ln.end))
		b.WriteString("\n")
		b.WriteString(strings.Join(ln.words, " "))
		b.WriteString("\n\n")
	}
	return b.String()
}

type timedWord struct {
	start time.Duration
	end   time.Duration
	text  string
}

func clip(words []types.Word, clipStart, clipEnd float64) []timedWord {
	var out []timedWord
	for _, w := range words {
		if w.End <= clipStart || w.Start >= clipEnd {
			continue
		}
		text := strings.TrimSpace(w.Word)
		if text == "" {
			continue
		}
		ws, we := w.Start, w.End
		if ws < clipStart {
			ws = clipStart
		}
		if we > clipEnd {
			we = clipEnd
		}
		out = append(out, timedWord{
			start: dur(ws - clipStart),
			end:   dur(we - clipStart),
			text:  text,
		})
	}
	return out
}

// packWords groups words into cue lines. Budgets keep each cue readable; a
// long silence starts a fresh cue so captions do not linger over dead air.
func packWords(words []timedWord) []line {
	const (
		charBudget = 42
		wordBudget = 9
		maxSilence = time.Second
	)

	var out []line
	var cur line
	curLen := 0
	flush := func() {
		if len(cur.words) > 0 {
			out = append(out, cur)
		}
		cur = line{}
		curLen = 0
	}

	for _, w := range words {
		wl := len([]rune(w.text))
		nextLen := curLen + wl
		if curLen > 0 {
			nextLen++
		}
		if len(cur.words) >= wordBudget || nextLen > charBudget ||
			(len(cur.words) > 0 && w.start-cur.end > maxSilence) {
			flush()
		}
		if len(cur.words) == 0 {
			cur.start = w.start
			curLen = wl
		} else {
			curLen += wl + 1
		}
		cur.words = append(cur.words, w.text)
		cur.end = w.end
	}
	flush()
	return out
}

func srtTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d / time.Hour)
	d -= time.Duration(h) * time.Hour
	m := int(d / time.Minute)
	d -= time.Duration(m) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	ms := int(d / time.Millisecond)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

func dur(sec float64) time.Duration { return time.Duration(sec * float64(time.Second)) }
