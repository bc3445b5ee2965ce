package core

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// SessionConfig configures a single in-flight authorization session.
type SessionConfig struct {
	// RedirectURL is the expected callback prefix; URLs that do not begin
	// with it (case-insensitively) are not for this session.
	RedirectURL string
	// ExpectedState enables anti-forgery state checking when non-empty.
	ExpectedState string
	Grant         GrantHandler
	Completion    CompletionFunc
	// BrowserHandle is a non-owning reference to the presented authorization
	// browser, used by the orchestrator for close/dismiss bookkeeping.
	BrowserHandle string
}

// Session owns one in-flight authorization flow. It matches redirect URLs,
// validates state, delegates to the grant handler, and reports exactly one
// terminal outcome. Sessions compare by reference identity.
type Session struct {
	redirectURL   string
	expectedState string
	grant         GrantHandler
	completion    CompletionFunc
	browserHandle string

	once sync.Once
}

func NewSession(cfg SessionConfig) (*Session, error) {
	redirectURL := strings.TrimSpace(cfg.RedirectURL)
	if redirectURL == "" {
		return nil, fmt.Errorf("core: session redirect url is required")
	}
	if cfg.Grant == nil {
		return nil, fmt.Errorf("core: session grant handler is required")
	}
	if cfg.Completion == nil {
		return nil, fmt.Errorf("core: session completion is required")
	}
	return &Session{
		redirectURL:   redirectURL,
		expectedState: cfg.ExpectedState,
		grant:         cfg.Grant,
		completion:    cfg.Completion,
		browserHandle: cfg.BrowserHandle,
	}, nil
}

func (s *Session) BrowserHandle() string {
	if s == nil {
		return ""
	}
	return s.browserHandle
}

// Matches reports whether rawURL belongs to this session's callback space.
func (s *Session) Matches(rawURL string) bool {
	if s == nil {
		return false
	}
	return strings.HasPrefix(strings.ToLower(rawURL), strings.ToLower(s.redirectURL))
}

// Resume attempts to consume a redirect callback URL. It returns false when
// the URL is not for this session (wrong prefix, or state mismatch), letting
// other URL handlers in the host application inspect it. It returns true when
// the URL was claimed, in which case exactly one terminal outcome is (or will
// be) delivered: parse failures deliver an invalid-response error, an `error`
// parameter delivers a server error, and anything else is handed to the grant
// handler whose eventual result is forwarded.
func (s *Session) Resume(ctx context.Context, rawURL string) bool {
	if s == nil {
		return false
	}
	if !s.Matches(rawURL) {
		return false
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		s.deliver(nil, NewInvalidResponseError([]byte(rawURL)))
		return true
	}
	values, err := ParseCallbackValues(parsed)
	if err != nil {
		s.deliver(nil, NewInvalidResponseError([]byte(rawURL)))
		return true
	}

	// A state mismatch is a silent no-match: stale or foreign redirects fall
	// through without tearing down the pending flow.
	if s.expectedState != "" && values["state"] != s.expectedState {
		return false
	}

	if code, found := values["error"]; found {
		description, hasDescription := values["error_description"]
		if !hasDescription {
			s.deliver(nil, NewInvalidResponseError([]byte(rawURL)))
			return true
		}
		s.deliver(nil, NewServerError(code, description, extraValues(values)))
		return true
	}

	go s.exchange(ctx, values)
	return true
}

// Cancel delivers a cancellation outcome. Safe to call at any point in the
// session's lifetime; only the first terminal delivery wins.
func (s *Session) Cancel() {
	if s == nil {
		return
	}
	s.deliver(nil, NewCancelledError())
}

func (s *Session) exchange(ctx context.Context, values map[string]string) {
	creds, err := s.grant.Exchange(ctx, values)
	if err != nil {
		s.deliver(nil, err)
		return
	}
	s.deliver(creds, nil)
}

func (s *Session) deliver(creds *Credentials, err error) {
	s.once.Do(func() {
		s.completion(creds, err)
	})
}

func extraValues(values map[string]string) map[string]any {
	extras := map[string]any{}
	for key, value := range values {
		switch key {
		case "error", "error_description", "state":
			continue
		}
		extras[key] = value
	}
	return extras
}
