package openaillm

import (
	"strings"
	"testing"

	"github.com/Morris88826/YouClipAI/internal/types"
)

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		name, in, want string
		wantErr        bool
	}{
		{name: "bare object", in: `{"a":1}`, want: `{"a":1}`},
		{name: "fenced", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "prose around", in: "Sure! Here you go: {\"a\":1} Hope that helps.", want: `{"a":1}`},
		{name: "empty", in: "  ", wantErr: true},
		{name: "no object", in: "cannot comply", wantErr: true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := extractJSONObject(c.in)
			if c.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("extractJSONObject: %v", err)
			}
			if got != c.want {
				t.Fatalf("got %q, want %q", got, c.want)
			}
		})
	}
}

func TestParseSeconds(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want float64
		ok   bool
	}{
		{name: "number", in: 62.5, want: 62.5, ok: true},
		{name: "numeric string", in: "62.5", want: 62.5, ok: true},
		{name: "suffixed string", in: "62.5s", want: 62.5, ok: true},
		{name: "sentinel", in: "None", ok: false},
		{name: "sentinel embedded", in: "'None'", ok: false},
		{name: "empty string", in: "", ok: false},
		{name: "null", in: nil, ok: false},
		{name: "garbage", in: "around a minute", ok: false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := parseSeconds(c.in)
			if ok != c.ok {
				t.Fatalf("ok = %v, want %v", ok, c.ok)
			}
			if ok && got != c.want {
				t.Fatalf("got %v, want %v", got, c.want)
			}
		})
	}
}

func TestFormatWindow(t *testing.T) {
	words := []types.Word{
		{Word: "hello", Start: 240, End: 240.4},
		{Word: "media", Start: 241.5, End: 241.9},
	}
	got := formatWindow(words)
	want := "(hello,240,240.4)(media,241.5,241.9)"
	if got != want {
		t.Fatalf("formatWindow = %q, want %q", got, want)
	}
}

func TestWindowPromptCarriesTuplesAndSentinel(t *testing.T) {
	p := windowPrompt([]types.Word{{Word: "dunk", Start: 3, End: 3.5}}, "a dunk highlight")
	if !strings.Contains(p, "(dunk,3,3.5)") {
		t.Fatalf("prompt missing transcript tuple: %s", p)
	}
	if !strings.Contains(p, noMatch) {
		t.Fatal("prompt missing no-match sentinel")
	}
	if !strings.Contains(p, "a dunk highlight") {
		t.Fatal("prompt missing target description")
	}
}
