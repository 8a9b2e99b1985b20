package service

import (
	"sync"
	"sync/atomic"

	"browser-harness/internal/application/port/output"
)

var _ output.SessionPort = (*Session)(nil)

// Session owns one browser for the lifetime of a trajectory. Close is safe
// to call from every exit path; the browser is released exactly once.
type Session struct {
	browser output.BrowserPort
	once    sync.Once
	closed  atomic.Bool
	err     error
}

func NewSession(browser output.BrowserPort) *Session {
	return &Session{browser: browser}
}

func (s *Session) Browser() output.BrowserPort {
	return s.browser
}

func (s *Session) Closed() bool {
	return s.closed.Load()
}

func (s *Session) Close() error {
	s.once.Do(func() {
		s.closed.Store(true)
		s.err = s.browser.Close()
	})
	return s.err
}
