// Package browser defines the authorization browser surface: an opaque
// component the flow orchestrator can present with an authorize URL and later
// tell to close. Presented browsers are tracked through non-owning handles in
// a registry, never through direct references held by sessions.
package browser

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Controller is a presented authorization browser. Close tears the browser
// down programmatically; a user closing it instead surfaces through
// DismissNotifier.
type Controller interface {
	Close()
}

// Launcher opens an authorization browser for a URL.
type Launcher interface {
	Open(ctx context.Context, authorizeURL string) (Controller, error)
}

type DismissFunc func()

// DismissNotifier is implemented by controllers that can report the user
// dismissing the browser. The orchestrator subscribes the pending session's
// cancellation to it.
type DismissNotifier interface {
	OnDismiss(fn DismissFunc)
}

// Handle identifies a presented browser without owning it.
type Handle string

// Registry tracks currently presented browsers by handle.
type Registry struct {
	mu      sync.Mutex
	entries map[Handle]Controller
}

func NewRegistry() *Registry {
	return &Registry{entries: map[Handle]Controller{}}
}

// Present records a controller and returns its handle.
func (r *Registry) Present(controller Controller) Handle {
	if r == nil || controller == nil {
		return ""
	}
	handle := Handle(uuid.NewString())
	r.mu.Lock()
	r.entries[handle] = controller
	r.mu.Unlock()
	return handle
}

// Close closes and forgets the browser behind handle. Closing an unknown or
// already-dismissed handle is a no-op.
func (r *Registry) Close(handle Handle) bool {
	controller := r.remove(handle)
	if controller == nil {
		return false
	}
	controller.Close()
	return true
}

// Forget drops the handle without closing the browser, used when the user
// already dismissed it.
func (r *Registry) Forget(handle Handle) bool {
	return r.remove(handle) != nil
}

// Active reports whether handle still refers to a presented browser.
func (r *Registry) Active(handle Handle) bool {
	if r == nil || handle == "" {
		return false
	}
	r.mu.Lock()
	_, ok := r.entries[handle]
	r.mu.Unlock()
	return ok
}

func (r *Registry) remove(handle Handle) Controller {
	if r == nil || handle == "" {
		return nil
	}
	r.mu.Lock()
	controller, ok := r.entries[handle]
	if ok {
		delete(r.entries, handle)
	}
	r.mu.Unlock()
	return controller
}
