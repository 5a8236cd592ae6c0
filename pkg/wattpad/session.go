package wattpad

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/singleflight"
)

// SessionState tracks the credential lifecycle.
type SessionState int

const (
	SessionAbsent SessionState = iota
	SessionAcquiring
	SessionValid
)

func (s SessionState) String() string {
	switch s {
	case SessionAcquiring:
		return "acquiring"
	case SessionValid:
		return "valid"
	default:
		return "absent"
	}
}

// Session owns the anonymous visitor credential the host hands out to plain
// browsers. The credential is the joined cookie pairs of a handshake against
// the landing page; it is never empty while the session is valid.
type Session struct {
	http  *resty.Client
	group singleflight.Group

	mu         sync.RWMutex
	credential string
	acquiring  bool
}

func NewSession(client *resty.Client) *Session {
	return &Session{http: client}
}

// State reports the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.credential != "":
		return SessionValid
	case s.acquiring:
		return SessionAcquiring
	default:
		return SessionAbsent
	}
}

// Acquire returns the current credential, performing the handshake when none
// is held. A valid session costs no network call. Concurrent callers while
// absent share a single in-flight handshake. A failed handshake leaves the
// session absent and returns an empty credential: fetching without one is
// degraded but not fatal, so the error is logged rather than surfaced.
func (s *Session) Acquire(ctx context.Context) string {
	s.mu.RLock()
	credential := s.credential
	s.mu.RUnlock()
	if credential != "" {
		return credential
	}

	v, err, _ := s.group.Do("handshake", func() (any, error) {
		s.setAcquiring(true)
		defer s.setAcquiring(false)
		return s.handshake(ctx)
	})
	if err != nil {
		slog.Warn("session handshake failed", "error", err)
		return ""
	}
	return v.(string)
}

// Invalidate drops the credential unconditionally. Idempotent.
func (s *Session) Invalidate() {
	s.mu.Lock()
	s.credential = ""
	s.mu.Unlock()
}

func (s *Session) handshake(ctx context.Context) (string, error) {
	res, err := s.http.R().SetContext(ctx).Get("/")
	if err != nil {
		return "", err
	}
	if res.IsError() {
		return "", fmt.Errorf("handshake returned %s", res.Status())
	}

	cookies := res.Cookies()
	pairs := make([]string, 0, len(cookies))
	for _, c := range cookies {
		pairs = append(pairs, c.Name+"="+c.Value)
	}
	if len(pairs) == 0 {
		return "", fmt.Errorf("handshake set no cookies")
	}
	credential := strings.Join(pairs, "; ")

	s.mu.Lock()
	s.credential = credential
	s.mu.Unlock()
	slog.Debug("session acquired", "cookies", len(cookies))
	return credential, nil
}

func (s *Session) setAcquiring(v bool) {
	s.mu.Lock()
	s.acquiring = v
	s.mu.Unlock()
}
