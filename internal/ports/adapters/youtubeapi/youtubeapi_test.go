package youtubeapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearchParsesHits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("q") != "austin reaves media day" {
			t.Errorf("unexpected query: %q", q.Get("q"))
		}
		if q.Get("videoDuration") != "medium" {
			t.Errorf("unexpected duration filter: %q", q.Get("videoDuration"))
		}
		if q.Get("key") != "test-key" {
			t.Errorf("api key not forwarded")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"items": [
				{"id": {"videoId": "abc"}, "snippet": {"title": "Media Day 2024"}},
				{"id": {}, "snippet": {"title": "channel result, no video id"}},
				{"id": {"videoId": "def"}, "snippet": {"title": "Interview"}}
			]
		}`))
	}))
	defer srv.Close()

	a := New("test-key")
	a.baseURL = srv.URL

	hits, err := a.Search(context.Background(), "austin reaves media day")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d: %+v", len(hits), hits)
	}
	if hits[0].ID != "abc" || hits[0].Title != "Media Day 2024" {
		t.Fatalf("unexpected first hit: %+v", hits[0])
	}
	if hits[1].URL != "https://www.youtube.com/watch?v=def" {
		t.Fatalf("unexpected watch url: %q", hits[1].URL)
	}
}

func TestSearchSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": {"message": "quota exceeded"}}`, http.StatusForbidden)
	}))
	defer srv.Close()

	a := New("test-key")
	a.baseURL = srv.URL

	_, err := a.Search(context.Background(), "anything")
	if err == nil {
		t.Fatal("expected error on non-200 response")
	}
}
