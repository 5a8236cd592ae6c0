package wattpad

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	ts := httptest.NewServer(handler)
	client := NewClient(ClientOptions{BaseURL: ts.URL, Timeout: 5 * time.Second})
	return client, ts
}

func TestGetStory_ParsesMetadata(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/stories/123", func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("fields"), "parts")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": 123,
			"title": "My Story",
			"description": "About things.",
			"cover": "https://img.example/cover.jpg",
			"user": {"name": "Jane Doe", "username": "janedoe"},
			"parts": [
				{"id": 11, "title": "Beginnings", "length": 1200},
				{"id": 12, "title": "Endings"}
			]
		}`))
	})
	client, ts := newTestClient(mux)
	defer ts.Close()

	story, err := client.GetStory(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, "123", story.ID)
	assert.Equal(t, "My Story", story.Title)
	assert.Equal(t, "Jane Doe", story.Author)
	assert.Equal(t, "https://img.example/cover.jpg", story.CoverURL)
	require.Len(t, story.Chapters, 2)
	assert.Equal(t, 1, story.Chapters[0].Index)
	assert.Equal(t, "11", story.Chapters[0].ID)
	assert.Equal(t, "Beginnings", story.Chapters[0].Title)
	assert.Equal(t, 1200, story.Chapters[0].Length)
	assert.Equal(t, 2, story.Chapters[1].Index)
	assert.Equal(t, 0, story.Chapters[1].Length)
}

func TestGetStory_UsernameFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/stories/123", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":123,"title":"T","user":{"username":"janedoe"},"parts":[{"id":1,"title":"P"}]}`))
	})
	client, ts := newTestClient(mux)
	defer ts.Close()

	story, err := client.GetStory(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, "janedoe", story.Author)
}

func TestGetStory_FallsBackToScraping(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/stories/456", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "wp_id", Value: "abc"})
	})
	mux.HandleFunc("/story/456", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<h1>Scraped Story</h1>
			<a href="/user/janedoe">Jane Doe</a>
			<div class="story-parts">
				<a href="/111-part-one"><span>Part One</span></a>
				<a href="/112-part-two"><span>Part Two</span></a>
			</div>
		</body></html>`))
	})
	client, ts := newTestClient(mux)
	defer ts.Close()

	story, err := client.GetStory(context.Background(), "456")
	require.NoError(t, err)
	assert.Equal(t, "Scraped Story", story.Title)
	assert.Equal(t, "Jane Doe", story.Author)
	require.Len(t, story.Chapters, 2)
	assert.Equal(t, "111", story.Chapters[0].ID)
	assert.Equal(t, "Part One", story.Chapters[0].Title)
	assert.Equal(t, "112", story.Chapters[1].ID)
}

func TestGetStory_NotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	client, ts := newTestClient(mux)
	defer ts.Close()

	_, err := client.GetStory(context.Background(), "999")
	assert.Error(t, err)
}

func TestGetCover(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/cover.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte{0xFF, 0xD8, 0xFF})
	})
	client, ts := newTestClient(mux)
	defer ts.Close()

	raw, err := client.GetCover(context.Background(), ts.URL+"/cover.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xD8, 0xFF}, raw)
}
