package wattpad

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
)

func newTestSession(handler http.Handler) (*Session, *httptest.Server) {
	ts := httptest.NewServer(handler)
	client := resty.New()
	client.SetBaseURL(ts.URL)
	client.SetCookieJar(nil)
	return NewSession(client), ts
}

func TestSession_AcquireCollectsCookies(t *testing.T) {
	session, ts := newTestSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "wp_id", Value: "abc"})
		http.SetCookie(w, &http.Cookie{Name: "wp_token", Value: "xyz"})
	}))
	defer ts.Close()

	credential := session.Acquire(context.Background())
	assert.Equal(t, "wp_id=abc; wp_token=xyz", credential)
	assert.Equal(t, SessionValid, session.State())
}

func TestSession_ValidStateCostsNoNetworkCall(t *testing.T) {
	var calls int64
	session, ts := newTestSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		http.SetCookie(w, &http.Cookie{Name: "wp_id", Value: "abc"})
	}))
	defer ts.Close()

	first := session.Acquire(context.Background())
	second := session.Acquire(context.Background())

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
}

func TestSession_ConcurrentAcquiresShareOneHandshake(t *testing.T) {
	var calls int64
	session, ts := newTestSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		time.Sleep(50 * time.Millisecond)
		http.SetCookie(w, &http.Cookie{Name: "wp_id", Value: "abc"})
	}))
	defer ts.Close()

	var wg sync.WaitGroup
	credentials := make([]string, 2)
	for i := range credentials {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			credentials[i] = session.Acquire(context.Background())
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
	assert.Equal(t, "wp_id=abc", credentials[0])
	assert.Equal(t, credentials[0], credentials[1])
}

func TestSession_HandshakeFailureLeavesAbsent(t *testing.T) {
	session, ts := newTestSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	assert.Equal(t, "", session.Acquire(context.Background()))
	assert.Equal(t, SessionAbsent, session.State())
}

func TestSession_HandshakeWithoutCookiesFails(t *testing.T) {
	session, ts := newTestSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	assert.Equal(t, "", session.Acquire(context.Background()))
	assert.Equal(t, SessionAbsent, session.State())
}

func TestSession_InvalidateIsIdempotent(t *testing.T) {
	session, ts := newTestSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "wp_id", Value: "abc"})
	}))
	defer ts.Close()

	session.Acquire(context.Background())
	assert.Equal(t, SessionValid, session.State())

	session.Invalidate()
	assert.Equal(t, SessionAbsent, session.State())
	session.Invalidate()
	assert.Equal(t, SessionAbsent, session.State())
}
