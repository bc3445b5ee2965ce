package webauth

import (
	"github.com/goliatone/go-webauth/browser"
	"github.com/goliatone/go-webauth/core"
	"github.com/goliatone/go-webauth/dispatch"
)

// GrantType selects the authorization grant for a flow.
type GrantType string

const (
	GrantTypePKCE     GrantType = "pkce"
	GrantTypeImplicit GrantType = "implicit"
)

// LoginOptions configures a single flow. The zero value requests a PKCE flow
// with no extra parameters.
type LoginOptions struct {
	// Connection names the upstream identity provider connection.
	Connection string
	// Scope requests specific grants, space separated.
	Scope string
	// Audience identifies the API the issued tokens target.
	Audience string
	// State overrides the generated anti-forgery token. Leave empty in
	// production use.
	State string
	// Grant picks the strategy; PKCE when empty.
	Grant GrantType
	// Parameters are appended verbatim to the authorize URL and may override
	// any earlier parameter by key.
	Parameters []core.Param
}

func (o LoginOptions) params() []core.Param {
	params := make([]core.Param, 0, len(o.Parameters)+3)
	if o.Connection != "" {
		params = append(params, core.Param{Key: "connection", Value: o.Connection})
	}
	if o.Scope != "" {
		params = append(params, core.Param{Key: "scope", Value: o.Scope})
	}
	if o.Audience != "" {
		params = append(params, core.Param{Key: "audience", Value: o.Audience})
	}
	return append(params, o.Parameters...)
}

type clientBuilder struct {
	runtimeConfig   core.Config
	logger          core.Logger
	loggerProvider  core.LoggerProvider
	metricsRecorder core.MetricsRecorder
	configProvider  core.ConfigProvider
	optionsResolver core.OptionsResolver
	httpClient      core.HTTPDoer
	launcher        browser.Launcher
	browsers        *browser.Registry
	sessions        *core.SessionRegistry
	queue           *dispatch.Queue
	randomState     func() (string, error)
}

type Option func(*clientBuilder)

func WithLogger(logger core.Logger) Option {
	return func(b *clientBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider core.LoggerProvider) Option {
	return func(b *clientBuilder) {
		b.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder core.MetricsRecorder) Option {
	return func(b *clientBuilder) {
		b.metricsRecorder = recorder
	}
}

func WithConfigProvider(provider core.ConfigProvider) Option {
	return func(b *clientBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver core.OptionsResolver) Option {
	return func(b *clientBuilder) {
		b.optionsResolver = resolver
	}
}

func WithHTTPClient(client core.HTTPDoer) Option {
	return func(b *clientBuilder) {
		b.httpClient = client
	}
}

func WithLauncher(launcher browser.Launcher) Option {
	return func(b *clientBuilder) {
		b.launcher = launcher
	}
}

func WithBrowserRegistry(registry *browser.Registry) Option {
	return func(b *clientBuilder) {
		b.browsers = registry
	}
}

func WithSessionRegistry(registry *core.SessionRegistry) Option {
	return func(b *clientBuilder) {
		b.sessions = registry
	}
}

func WithDispatchQueue(queue *dispatch.Queue) Option {
	return func(b *clientBuilder) {
		b.queue = queue
	}
}

func WithStateGenerator(generate func() (string, error)) Option {
	return func(b *clientBuilder) {
		b.randomState = generate
	}
}

func defaultClientBuilder(runtime core.Config) clientBuilder {
	return clientBuilder{
		runtimeConfig:   runtime,
		metricsRecorder: core.NopMetricsRecorder{},
		configProvider:  core.NewCfgxConfigProvider(nil),
		optionsResolver: core.GoOptionsResolver{},
		randomState:     core.RandomState,
	}
}
