package webauth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-webauth/browser"
	"github.com/goliatone/go-webauth/core"
)

type fakeController struct {
	mu      sync.Mutex
	closed  bool
	dismiss browser.DismissFunc
}

func (c *fakeController) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *fakeController) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeController) OnDismiss(fn browser.DismissFunc) {
	c.mu.Lock()
	c.dismiss = fn
	c.mu.Unlock()
}

func (c *fakeController) Dismiss() {
	c.mu.Lock()
	fn := c.dismiss
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

type fakeLauncher struct {
	mu          sync.Mutex
	lastURL     string
	controllers []*fakeController
	err         error
}

func (l *fakeLauncher) Open(_ context.Context, authorizeURL string) (browser.Controller, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	l.lastURL = authorizeURL
	controller := &fakeController{}
	l.controllers = append(l.controllers, controller)
	return controller, nil
}

func (l *fakeLauncher) LastURL() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastURL
}

func (l *fakeLauncher) Controller(index int) *fakeController {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.controllers[index]
}

type outcome struct {
	creds *core.Credentials
	err   error
}

func newOutcomeChan() (chan outcome, CompletionFunc) {
	outcomes := make(chan outcome, 4)
	return outcomes, func(creds *core.Credentials, err error) {
		outcomes <- outcome{creds: creds, err: err}
	}
}

func awaitOutcome(t *testing.T, outcomes chan outcome) outcome {
	t.Helper()
	select {
	case got := <-outcomes:
		return got
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for completion")
		return outcome{}
	}
}

func assertNoOutcome(t *testing.T, outcomes chan outcome) {
	t.Helper()
	select {
	case got := <-outcomes:
		t.Fatalf("unexpected completion: %+v", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func testConfig() core.Config {
	return core.Config{
		ClientID:      "cid",
		Domain:        "app.example",
		BundleID:      "com.app",
		UniversalLink: true,
	}
}

func newTestClient(t *testing.T, cfg core.Config, options ...Option) (*WebAuth, *fakeLauncher) {
	t.Helper()
	launcher := &fakeLauncher{}
	options = append([]Option{WithLauncher(launcher)}, options...)
	client, err := New(cfg, options...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(client.Close)
	return client, launcher
}

func TestNewResolvesEndpointDefaults(t *testing.T) {
	client, _ := newTestClient(t, testConfig())
	cfg := client.Config()
	if cfg.AuthorizeEndpoint != "/authorize" || cfg.TokenEndpoint != "/oauth/token" {
		t.Fatalf("expected endpoint defaults, got %+v", cfg)
	}
}

func TestNewRejectsIncompleteConfig(t *testing.T) {
	if _, err := New(core.Config{ClientID: "cid"}); err == nil {
		t.Fatalf("expected domain requirement")
	}
}

func TestStartFailsSynchronouslyWithoutBundleID(t *testing.T) {
	cfg := testConfig()
	cfg.BundleID = ""
	client, launcher := newTestClient(t, cfg)

	var got outcome
	client.Start(context.Background(), LoginOptions{}, func(creds *core.Credentials, err error) {
		got = outcome{creds: creds, err: err}
	})

	if !core.IsRequestFailed(got.err) {
		t.Fatalf("expected synchronous request failure, got %+v", got)
	}
	if launcher.LastURL() != "" {
		t.Fatalf("no browser must be shown when the app identity is missing")
	}
}

func TestStartFailsWhenBrowserCannotOpen(t *testing.T) {
	client, launcher := newTestClient(t, testConfig())
	launcher.err = io.ErrUnexpectedEOF

	var got outcome
	client.Start(context.Background(), LoginOptions{}, func(creds *core.Credentials, err error) {
		got = outcome{creds: creds, err: err}
	})
	if !core.IsRequestFailed(got.err) {
		t.Fatalf("expected request failure, got %+v", got)
	}
}

func TestStartBuildsOrderedPKCEAuthorizeURL(t *testing.T) {
	client, launcher := newTestClient(t, testConfig())
	outcomes, completion := newOutcomeChan()

	client.Start(context.Background(), LoginOptions{
		State:      "s1",
		Connection: "google-oauth2",
		Scope:      "openid profile",
	}, completion)
	defer assertNoOutcome(t, outcomes)

	authorizeURL := launcher.LastURL()
	if !strings.HasPrefix(authorizeURL, "https://app.example/authorize?client_id=cid&redirect_uri=") {
		t.Fatalf("unexpected url prefix: %s", authorizeURL)
	}

	parsed, err := url.Parse(authorizeURL)
	if err != nil {
		t.Fatalf("parse authorize url: %v", err)
	}
	query := parsed.Query()
	if query.Get("redirect_uri") != "https://app.example/ios/com.app/callback" {
		t.Fatalf("unexpected redirect_uri %q", query.Get("redirect_uri"))
	}
	if query.Get("response_type") != "code" {
		t.Fatalf("expected pkce flow by default, got %q", query.Get("response_type"))
	}
	if query.Get("code_challenge") == "" || query.Get("code_challenge_method") != "S256" {
		t.Fatalf("expected pkce challenge parameters in %s", authorizeURL)
	}
	if query.Get("connection") != "google-oauth2" || query.Get("scope") != "openid profile" {
		t.Fatalf("expected login parameters in %s", authorizeURL)
	}
	if query.Get("state") != "s1" {
		t.Fatalf("unexpected state %q", query.Get("state"))
	}
}

func TestImplicitFlowDeliversCredentials(t *testing.T) {
	client, launcher := newTestClient(t, testConfig())
	outcomes, completion := newOutcomeChan()

	client.Start(context.Background(), LoginOptions{Grant: GrantTypeImplicit, State: "xyz"}, completion)
	if !strings.Contains(launcher.LastURL(), "response_type=token") {
		t.Fatalf("expected implicit authorize url, got %s", launcher.LastURL())
	}

	claimed := client.ResumeAuth(
		"https://app.example/ios/com.app/callback#access_token=abc&token_type=Bearer&state=xyz",
	)
	if !claimed {
		t.Fatalf("expected redirect to be claimed")
	}

	got := awaitOutcome(t, outcomes)
	if got.err != nil {
		t.Fatalf("unexpected error: %v", got.err)
	}
	if got.creds.AccessToken != "abc" || got.creds.TokenType != "Bearer" {
		t.Fatalf("unexpected credentials %+v", got.creds)
	}
	if !launcher.Controller(0).Closed() {
		t.Fatalf("browser must be closed before delivering a non-cancelled outcome")
	}
}

func TestResumeAuthStateMismatchIsUnclaimed(t *testing.T) {
	client, _ := newTestClient(t, testConfig())
	outcomes, completion := newOutcomeChan()

	client.Start(context.Background(), LoginOptions{Grant: GrantTypeImplicit, State: "xyz"}, completion)

	claimed := client.ResumeAuth(
		"https://app.example/ios/com.app/callback#access_token=abc&state=other",
	)
	if claimed {
		t.Fatalf("mismatched state must leave the url unclaimed")
	}
	assertNoOutcome(t, outcomes)

	// the flow is still pending and accepts the genuine redirect
	if !client.ResumeAuth("https://app.example/ios/com.app/callback#access_token=abc&state=xyz") {
		t.Fatalf("expected genuine redirect to be claimed")
	}
	got := awaitOutcome(t, outcomes)
	if got.err != nil || got.creds.AccessToken != "abc" {
		t.Fatalf("unexpected outcome %+v", got)
	}
}

type scriptedDoer struct {
	mu       sync.Mutex
	requests []map[string]string
	status   int
	body     string
}

func (d *scriptedDoer) Do(req *http.Request) (*http.Response, error) {
	payload := map[string]string{}
	if req.Body != nil {
		defer req.Body.Close()
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			return nil, err
		}
	}
	d.mu.Lock()
	d.requests = append(d.requests, payload)
	d.mu.Unlock()

	status := d.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(d.body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}, nil
}

func (d *scriptedDoer) Request(index int) map[string]string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.requests[index]
}

func TestPKCEFlowExchangesCodeForCredentials(t *testing.T) {
	doer := &scriptedDoer{body: `{"access_token": "tok", "token_type": "Bearer", "expires_in": 3600}`}
	client, launcher := newTestClient(t, testConfig(), WithHTTPClient(doer))
	outcomes, completion := newOutcomeChan()

	client.Start(context.Background(), LoginOptions{State: "xyz"}, completion)

	claimed := client.ResumeAuth("https://app.example/ios/com.app/callback?code=auth_code&state=xyz")
	if !claimed {
		t.Fatalf("expected redirect to be claimed")
	}

	got := awaitOutcome(t, outcomes)
	if got.err != nil {
		t.Fatalf("unexpected error: %v", got.err)
	}
	if got.creds.AccessToken != "tok" {
		t.Fatalf("unexpected credentials %+v", got.creds)
	}

	request := doer.Request(0)
	if request["grant_type"] != "authorization_code" || request["code"] != "auth_code" {
		t.Fatalf("unexpected token request %+v", request)
	}

	// the verifier sent to the token endpoint must pair with the challenge
	// advertised in the authorize URL
	parsed, err := url.Parse(launcher.LastURL())
	if err != nil {
		t.Fatalf("parse authorize url: %v", err)
	}
	challenge := parsed.Query().Get("code_challenge")
	if core.Challenge(request["code_verifier"]) != challenge {
		t.Fatalf("verifier %q does not pair with challenge %q", request["code_verifier"], challenge)
	}
}

func TestStartingSecondFlowCancelsFirst(t *testing.T) {
	client, launcher := newTestClient(t, testConfig())
	firstOutcomes, firstCompletion := newOutcomeChan()
	secondOutcomes, secondCompletion := newOutcomeChan()

	client.Start(context.Background(), LoginOptions{Grant: GrantTypeImplicit, State: "first"}, firstCompletion)
	client.Start(context.Background(), LoginOptions{Grant: GrantTypeImplicit, State: "second"}, secondCompletion)

	got := awaitOutcome(t, firstOutcomes)
	if !core.IsCancelled(got.err) {
		t.Fatalf("expected first flow to be cancelled, got %+v", got)
	}

	if !client.ResumeAuth("https://app.example/ios/com.app/callback#access_token=abc&state=second") {
		t.Fatalf("expected second flow to remain pending")
	}
	second := awaitOutcome(t, secondOutcomes)
	if second.err != nil || second.creds.AccessToken != "abc" {
		t.Fatalf("unexpected outcome for second flow %+v", second)
	}
	if !launcher.Controller(1).Closed() {
		t.Fatalf("second browser must close on success")
	}
}

func TestBrowserDismissalCancelsFlowOnce(t *testing.T) {
	client, launcher := newTestClient(t, testConfig())
	outcomes, completion := newOutcomeChan()

	client.Start(context.Background(), LoginOptions{Grant: GrantTypeImplicit, State: "xyz"}, completion)
	controller := launcher.Controller(0)

	controller.Dismiss()
	got := awaitOutcome(t, outcomes)
	if !core.IsCancelled(got.err) {
		t.Fatalf("expected cancellation, got %+v", got)
	}
	if controller.Closed() {
		t.Fatalf("a user-dismissed browser must not be closed again")
	}

	controller.Dismiss()
	assertNoOutcome(t, outcomes)

	if client.ResumeAuth("https://app.example/ios/com.app/callback#access_token=late&state=xyz") {
		t.Fatalf("a cancelled flow must not claim late redirects")
	}
}

func TestCancelAuthEndsPendingFlow(t *testing.T) {
	client, _ := newTestClient(t, testConfig())
	outcomes, completion := newOutcomeChan()

	client.Start(context.Background(), LoginOptions{Grant: GrantTypeImplicit, State: "xyz"}, completion)
	client.CancelAuth()

	got := awaitOutcome(t, outcomes)
	if !core.IsCancelled(got.err) {
		t.Fatalf("expected cancellation, got %+v", got)
	}
	// idempotent without a pending flow
	client.CancelAuth()
	assertNoOutcome(t, outcomes)
}

func TestStartRejectsUnknownGrantType(t *testing.T) {
	client, launcher := newTestClient(t, testConfig())

	var got outcome
	client.Start(context.Background(), LoginOptions{Grant: GrantType("saml")}, func(creds *core.Credentials, err error) {
		got = outcome{creds: creds, err: err}
	})
	if !core.IsRequestFailed(got.err) {
		t.Fatalf("expected request failure, got %+v", got)
	}
	if launcher.LastURL() != "" {
		t.Fatalf("no browser must be shown for an unsupported grant")
	}
}
