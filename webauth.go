package webauth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-webauth/browser"
	"github.com/goliatone/go-webauth/core"
	"github.com/goliatone/go-webauth/dispatch"
	"github.com/goliatone/go-webauth/grant"
)

// CompletionFunc receives the single terminal outcome of a flow.
type CompletionFunc = core.CompletionFunc

// WebAuth orchestrates browser-based authorization flows. One instance holds
// at most one pending flow; starting another cancels the first.
type WebAuth struct {
	cfg      core.Config
	logger   core.Logger
	metrics  core.MetricsRecorder
	sessions *core.SessionRegistry
	browsers *browser.Registry
	launcher browser.Launcher
	queue    *dispatch.Queue
	http     core.HTTPDoer
	random   func() (string, error)
}

func New(cfg core.Config, options ...Option) (*WebAuth, error) {
	builder := defaultClientBuilder(cfg)
	for _, option := range options {
		if option == nil {
			continue
		}
		option(&builder)
	}

	provider, logger := glog.Resolve("webauth", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("webauth"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	defaults := core.DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, err
	}
	resolved, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, err
	}

	if builder.sessions == nil {
		builder.sessions = core.NewSessionRegistry()
	}
	if builder.browsers == nil {
		builder.browsers = browser.NewRegistry()
	}
	if builder.launcher == nil {
		builder.launcher = browser.SystemLauncher{}
	}
	if builder.queue == nil {
		builder.queue = dispatch.NewQueue()
	}
	if builder.httpClient == nil {
		builder.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if builder.randomState == nil {
		builder.randomState = core.RandomState
	}

	return &WebAuth{
		cfg:      resolved,
		logger:   logger,
		metrics:  builder.metricsRecorder,
		sessions: builder.sessions,
		browsers: builder.browsers,
		launcher: builder.launcher,
		queue:    builder.queue,
		http:     builder.httpClient,
		random:   builder.randomState,
	}, nil
}

// Start launches an authorization flow: it builds the authorize URL for the
// selected grant, presents the authorization browser, and registers the
// pending session. completion fires exactly once; cancellations are passed
// through as-is, any other outcome first closes the browser. Local
// precondition failures (missing app identity, browser launch failure)
// invoke completion synchronously, with no session created.
func (w *WebAuth) Start(ctx context.Context, login LoginOptions, completion CompletionFunc) {
	if w == nil || completion == nil {
		return
	}
	startedAt := time.Now()

	redirectURI, err := w.cfg.CallbackURL()
	if err != nil {
		w.observeFlow(ctx, startedAt, "flow_start", err, nil)
		completion(nil, core.NewRequestFailedError(err))
		return
	}

	state := login.State
	if state == "" {
		state, err = w.random()
		if err != nil {
			w.observeFlow(ctx, startedAt, "flow_start", err, nil)
			completion(nil, core.NewRequestFailedError(err))
			return
		}
	}

	grantHandler, err := w.grantFor(login, redirectURI)
	if err != nil {
		w.observeFlow(ctx, startedAt, "flow_start", err, nil)
		completion(nil, core.NewRequestFailedError(err))
		return
	}

	authorizeURL, err := core.BuildAuthorizeURL(
		w.cfg.AuthorizeURL(),
		w.cfg.ClientID,
		redirectURI,
		state,
		grantHandler.Defaults(),
		login.params(),
	)
	if err != nil {
		w.observeFlow(ctx, startedAt, "flow_start", err, nil)
		completion(nil, core.NewRequestFailedError(err))
		return
	}

	controller, err := w.launcher.Open(ctx, authorizeURL)
	if err != nil {
		w.observeFlow(ctx, startedAt, "flow_start", err, nil)
		completion(nil, core.NewRequestFailedError(err))
		return
	}
	handle := w.browsers.Present(controller)

	wrapped := func(creds *core.Credentials, deliveryErr error) {
		w.queue.Async(func() {
			if core.IsCancelled(deliveryErr) {
				w.browsers.Forget(handle)
			} else {
				w.browsers.Close(handle)
			}
			completion(creds, deliveryErr)
			w.observeFlow(ctx, startedAt, "flow_complete", terminalError(deliveryErr), map[string]any{
				"grant": string(grantTypeOf(login)),
			})
		})
	}

	session, err := core.NewSession(core.SessionConfig{
		RedirectURL:   redirectURI,
		ExpectedState: state,
		Grant:         grantHandler,
		Completion:    wrapped,
		BrowserHandle: string(handle),
	})
	if err != nil {
		w.browsers.Close(handle)
		w.observeFlow(ctx, startedAt, "flow_start", err, nil)
		completion(nil, core.NewRequestFailedError(err))
		return
	}

	if notifier, ok := controller.(browser.DismissNotifier); ok {
		notifier.OnDismiss(func() {
			w.browsers.Forget(handle)
			w.sessions.Cancel(session)
		})
	}

	w.sessions.Store(session)
	w.observeFlow(ctx, startedAt, "flow_start", nil, map[string]any{
		"grant":    string(grantTypeOf(login)),
		"redirect": redirectURI,
	})
}

// ResumeAuth is the host application's URL-open hook. It reports whether the
// URL was claimed by the pending flow; unclaimed URLs stay available for
// other handlers in the host.
func (w *WebAuth) ResumeAuth(rawURL string) bool {
	return w.ResumeAuthContext(context.Background(), rawURL)
}

func (w *WebAuth) ResumeAuthContext(ctx context.Context, rawURL string) bool {
	if w == nil {
		return false
	}
	claimed := w.sessions.Resume(ctx, rawURL)
	w.recordCounter(ctx, "webauth.resume.total", map[string]string{
		"claimed": fmt.Sprintf("%t", claimed),
	})
	return claimed
}

// CancelAuth ends the pending flow, if any, delivering a cancellation.
func (w *WebAuth) CancelAuth() {
	if w == nil {
		return
	}
	w.sessions.Cancel(w.sessions.Current())
}

// Close cancels any pending flow and drains the dispatch queue.
func (w *WebAuth) Close() {
	if w == nil {
		return
	}
	w.CancelAuth()
	w.queue.Close()
}

// Config returns the resolved configuration.
func (w *WebAuth) Config() core.Config {
	if w == nil {
		return core.Config{}
	}
	return w.cfg
}

func (w *WebAuth) grantFor(login LoginOptions, redirectURI string) (core.GrantHandler, error) {
	switch grantTypeOf(login) {
	case GrantTypeImplicit:
		return grant.NewImplicit(), nil
	case GrantTypePKCE:
		return grant.NewPKCE(grant.PKCEConfig{
			ClientID:    w.cfg.ClientID,
			RedirectURI: redirectURI,
			TokenURL:    w.cfg.TokenURL(),
			HTTPClient:  w.http,
		})
	default:
		return nil, fmt.Errorf("webauth: unsupported grant type %q", login.Grant)
	}
}

func grantTypeOf(login LoginOptions) GrantType {
	if login.Grant == "" {
		return GrantTypePKCE
	}
	return login.Grant
}

// terminalError keeps cancellations out of the error column of flow metrics;
// a cancelled flow completed the way the user asked it to.
func terminalError(err error) error {
	if core.IsCancelled(err) {
		return nil
	}
	return err
}
