package wattpad

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bawanisandunika/wattpad-downloader/pkg/data"
	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
)

// accessDenied is the exact body the text endpoint returns when no valid
// session cookie accompanies the request. Only the literal value counts;
// case or whitespace variants have never been observed.
const accessDenied = "Array"

// ErrAccessDenied marks a fetch rejected by the host for lack of a session.
var ErrAccessDenied = errors.New("access denied by host")

// Fetcher retrieves chapter text under the shared session. A denial response
// invalidates the session as a side effect, so concurrently in-flight fetches
// re-acquire on their next attempt.
type Fetcher struct {
	http    *resty.Client
	session *Session
	retries int // extra attempts after the first

	// newBackoff builds the wait schedule for transport-level retries.
	// Replaced in tests to avoid real delays.
	newBackoff func() backoff.BackOff
}

func NewFetcher(client *resty.Client, session *Session, retries int) *Fetcher {
	if retries < 0 {
		retries = 0
	}
	return &Fetcher{
		http:       client,
		session:    session,
		retries:    retries,
		newBackoff: defaultBackoff,
	}
}

func defaultBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	return b
}

// FetchChapter retrieves and normalizes one chapter. It never fails: when the
// retry budget is exhausted, the returned body is a readable placeholder
// carrying the last failure reason.
func (f *Fetcher) FetchChapter(ctx context.Context, chapter data.Chapter) data.NormalizedChapter {
	body, err := f.fetchText(ctx, chapter.ID)

	var text string
	if err == nil {
		text = Normalize(body)
	}
	if text == "" {
		reason := "chapter text was empty"
		if err != nil {
			reason = err.Error()
			slog.Warn("chapter fetch failed", "chapter", chapter.ID, "error", err)
		}
		text = data.PlaceholderBody(reason)
	}
	return data.NormalizedChapter{Title: chapter.Title, Body: text}
}

// fetchText requests the raw chapter body. The response is kept as raw bytes
// so the denial sentinel can be checked before any parsing happens.
func (f *Fetcher) fetchText(ctx context.Context, id string) ([]byte, error) {
	wait := f.newBackoff()
	var lastErr error

	for attempt := 0; attempt <= f.retries; attempt++ {
		credential := f.session.Acquire(ctx)

		res, err := f.http.R().
			SetContext(ctx).
			SetHeader("Cookie", credential).
			SetQueryParam("id", id).
			Get("/apiv2/storytext")
		switch {
		case err != nil:
			lastErr = err
		case res.IsError():
			lastErr = fmt.Errorf("storytext returned %s", res.Status())
		case string(res.Body()) == accessDenied:
			lastErr = ErrAccessDenied
			slog.Debug("session rejected, dropping credential", "chapter", id, "attempt", attempt+1)
			// The host has refused this credential; no other fetch should
			// keep presenting it. Denial is not a transport problem, so
			// retry without backoff.
			f.session.Invalidate()
			continue
		default:
			return res.Body(), nil
		}

		if attempt < f.retries {
			select {
			case <-time.After(wait.NextBackOff()):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, lastErr
}
