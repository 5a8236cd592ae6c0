package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bawanisandunika/wattpad-downloader/pkg/data"
	"github.com/bawanisandunika/wattpad-downloader/pkg/integrations"
	"golang.org/x/sync/errgroup"
)

// Source is the upstream the downloader drives.
type Source interface {
	GetStory(ctx context.Context, id string) (*data.Story, error)
	FetchChapter(ctx context.Context, chapter data.Chapter) data.NormalizedChapter
	GetCover(ctx context.Context, url string) ([]byte, error)
}

// Progress reports the state of one chapter fetch.
type Progress struct {
	StoryTitle   string
	ChapterIndex int
	ChapterTitle string
	Done         int
	Total        int
	Status       string // "fetching", "done"
}

// Downloader drives chapter fetches over an ordered chapter list. With a
// batch size of 1 it runs sequentially with a politeness delay between
// chapters; otherwise it fetches fixed-size contiguous batches concurrently,
// waiting for each batch before starting the next.
type Downloader struct {
	source    Source
	batchSize int
	delay     time.Duration
	progress  chan Progress
}

func NewDownloader(source Source, batchSize int, delay time.Duration) *Downloader {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Downloader{
		source:    source,
		batchSize: batchSize,
		delay:     delay,
		progress:  make(chan Progress, 100),
	}
}

// Progress returns the channel carrying per-chapter progress updates.
func (d *Downloader) Progress() <-chan Progress {
	return d.progress
}

// Close releases the progress channel. Call once no more downloads will run.
func (d *Downloader) Close() {
	close(d.progress)
}

// DownloadStory retrieves a story's metadata, cover and every chapter, and
// returns the bundle ready for assembly. Only metadata retrieval can fail;
// chapter and cover failures degrade to placeholders and a missing cover.
func (d *Downloader) DownloadStory(ctx context.Context, storyID string) (*data.Bundle, error) {
	story, err := d.source.GetStory(ctx, storyID)
	if err != nil {
		return nil, fmt.Errorf("story metadata: %w", err)
	}
	slog.Info("downloading story", "id", story.ID, "title", story.Title, "chapters", len(story.Chapters))

	bundle := &data.Bundle{
		Title:       story.Title,
		Author:      story.Author,
		Description: story.Description,
	}

	if story.CoverURL != "" {
		raw, err := d.source.GetCover(ctx, story.CoverURL)
		if err == nil {
			if cover, err := integrations.NormalizeCover(raw); err == nil {
				bundle.Cover = cover
			}
		}
		if bundle.Cover == nil {
			slog.Warn("cover unavailable, continuing without one", "story", story.ID)
		}
	}

	bundle.Chapters = d.FetchAll(ctx, story, story.Chapters)
	return bundle, nil
}

// FetchAll retrieves every chapter, preserving input order. The result always
// has the same length as the input: chapters that fail or are cut off by the
// context deadline carry placeholder bodies, and one chapter's failure never
// affects its siblings.
func (d *Downloader) FetchAll(ctx context.Context, story *data.Story, chapters []data.Chapter) []data.NormalizedChapter {
	results := make([]data.NormalizedChapter, len(chapters))
	if d.batchSize == 1 {
		d.fetchSequential(ctx, story, chapters, results)
	} else {
		d.fetchBatched(ctx, story, chapters, results)
	}
	return results
}

func (d *Downloader) fetchSequential(ctx context.Context, story *data.Story, chapters []data.Chapter, results []data.NormalizedChapter) {
	for i, chapter := range chapters {
		if ctx.Err() != nil {
			results[i] = timedOut(chapter)
			continue
		}
		d.send(story, chapter, i, len(chapters), "fetching")
		results[i] = d.source.FetchChapter(ctx, chapter)
		d.send(story, chapter, i+1, len(chapters), "done")

		if d.delay > 0 && i < len(chapters)-1 {
			select {
			case <-time.After(d.delay):
			case <-ctx.Done():
			}
		}
	}
}

func (d *Downloader) fetchBatched(ctx context.Context, story *data.Story, chapters []data.Chapter, results []data.NormalizedChapter) {
	done := 0
	for start := 0; start < len(chapters); start += d.batchSize {
		end := min(start+d.batchSize, len(chapters))

		var group errgroup.Group
		for i := start; i < end; i++ {
			if ctx.Err() != nil {
				results[i] = timedOut(chapters[i])
				continue
			}
			i := i
			group.Go(func() error {
				d.send(story, chapters[i], done, len(chapters), "fetching")
				results[i] = d.source.FetchChapter(ctx, chapters[i])
				return nil
			})
		}
		group.Wait()

		done = end
		d.send(story, chapters[end-1], done, len(chapters), "done")
	}
}

func timedOut(chapter data.Chapter) data.NormalizedChapter {
	return data.NormalizedChapter{
		Title: chapter.Title,
		Body:  data.PlaceholderBody("download timed out before this chapter"),
	}
}

// send emits a progress update without ever blocking a fetch.
func (d *Downloader) send(story *data.Story, chapter data.Chapter, done, total int, status string) {
	update := Progress{
		StoryTitle:   story.Title,
		ChapterIndex: chapter.Index,
		ChapterTitle: chapter.Title,
		Done:         done,
		Total:        total,
		Status:       status,
	}
	select {
	case d.progress <- update:
	default:
	}
}
