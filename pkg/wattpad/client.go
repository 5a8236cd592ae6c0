package wattpad

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bawanisandunika/wattpad-downloader/pkg/data"
	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

const DefaultBaseURL = "https://www.wattpad.com"

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

const storyFields = "id,title,description,cover,user(name,username),parts(id,title,length)"

// ClientOptions configures a Client. Zero values get sensible defaults.
type ClientOptions struct {
	BaseURL string
	Timeout time.Duration
	Retries int // extra per-chapter fetch attempts
}

// Client talks to the content host. It owns the visitor session and the
// chapter fetcher and satisfies the orchestrator's Source interface.
type Client struct {
	http    *resty.Client
	session *Session
	fetcher *Fetcher
}

func NewClient(opts ClientOptions) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Retries == 0 {
		opts.Retries = 2
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseURL)
	client.SetTimeout(opts.Timeout)
	client.SetHeader("user-agent", userAgent)
	// The session manager is the only holder of the credential. A transport
	// jar would replay handshake cookies on its own, surviving Invalidate.
	client.SetCookieJar(nil)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	session := NewSession(client)
	return &Client{
		http:    client,
		session: session,
		fetcher: NewFetcher(client, session, opts.Retries),
	}
}

// Session exposes the shared session for its lifecycle operations.
func (c *Client) Session() *Session {
	return c.session
}

// FetchChapter delegates to the session-gated fetcher. Never fails.
func (c *Client) FetchChapter(ctx context.Context, chapter data.Chapter) data.NormalizedChapter {
	return c.fetcher.FetchChapter(ctx, chapter)
}

// storyResponse mirrors the v3 story endpoint. IDs arrive as numbers.
type storyResponse struct {
	ID          json.Number `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Cover       string      `json:"cover"`
	User        struct {
		Name     string `json:"name"`
		Username string `json:"username"`
	} `json:"user"`
	Parts []struct {
		ID     json.Number `json:"id"`
		Title  string      `json:"title"`
		Length int         `json:"length"`
	} `json:"parts"`
}

func (r *storyResponse) toStory() *data.Story {
	author := r.User.Name
	if author == "" {
		author = r.User.Username
	}
	story := &data.Story{
		ID:          r.ID.String(),
		Title:       r.Title,
		Author:      author,
		Description: r.Description,
		CoverURL:    r.Cover,
		Chapters:    make([]data.Chapter, len(r.Parts)),
	}
	for i, part := range r.Parts {
		story.Chapters[i] = data.Chapter{
			Index:  i + 1,
			ID:     part.ID.String(),
			Title:  part.Title,
			Length: part.Length,
		}
	}
	return story
}

// GetStory retrieves a story's metadata and ordered chapter list. When the
// JSON API refuses, it falls back to scraping the story page.
func (c *Client) GetStory(ctx context.Context, id string) (*data.Story, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParam("fields", storyFields).
		Get("/api/v3/stories/" + id)
	if err != nil {
		return nil, fmt.Errorf("story metadata request: %w", err)
	}
	if res.IsError() {
		return c.scrapeStory(ctx, id)
	}

	var parsed storyResponse
	if err := json.Unmarshal(res.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("story metadata parse: %w", err)
	}
	if parsed.Title == "" || len(parsed.Parts) == 0 {
		return nil, fmt.Errorf("story %s has no readable parts", id)
	}
	return parsed.toStory(), nil
}

// scrapeStory recovers title, author and the part list from the story page
// markup. Used only when the metadata API is unavailable.
func (c *Client) scrapeStory(ctx context.Context, id string) (*data.Story, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("Cookie", c.session.Acquire(ctx)).
		Get("/story/" + id)
	if err != nil {
		return nil, fmt.Errorf("story page request: %w", err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("story page returned %s", res.Status())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return nil, fmt.Errorf("story page parse: %w", err)
	}

	story := &data.Story{
		ID:     id,
		Title:  strings.TrimSpace(doc.Find("h1").First().Text()),
		Author: strings.TrimSpace(doc.Find(`a[href^="/user/"]`).First().Text()),
	}
	doc.Find(".story-parts a, .table-of-contents a").Each(func(i int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		partID := strings.SplitN(strings.TrimPrefix(href, "/"), "-", 2)[0]
		if partID == "" {
			return
		}
		story.Chapters = append(story.Chapters, data.Chapter{
			Index: len(story.Chapters) + 1,
			ID:    partID,
			Title: strings.TrimSpace(sel.Text()),
		})
	})
	if story.Title == "" || len(story.Chapters) == 0 {
		return nil, fmt.Errorf("story %s not found", id)
	}
	return story, nil
}

// GetCover downloads the raw cover image.
func (c *Client) GetCover(ctx context.Context, url string) ([]byte, error) {
	res, err := c.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("cover request: %w", err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("cover returned %s", res.Status())
	}
	return res.Body(), nil
}
