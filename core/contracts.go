package core

import (
	"context"
	"net/http"

	glog "github.com/goliatone/go-logger/glog"
)

// Param is a single authorize-URL query parameter. Order matters when
// composing the final URL, so parameters travel as slices rather than maps.
type Param struct {
	Key   string
	Value string
}

// CompletionFunc receives the single terminal outcome of an authorization
// flow: credentials on success, or one of the taxonomy errors otherwise.
type CompletionFunc func(creds *Credentials, err error)

// GrantHandler is implemented by grant strategies. Defaults contributes the
// grant-specific authorize-URL parameters; Exchange turns the redirect
// callback payload into credentials.
type GrantHandler interface {
	Defaults() []Param
	Exchange(ctx context.Context, values map[string]string) (*Credentials, error)
}

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}
