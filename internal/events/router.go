// Package events implements the Event Router: the single subscription
// point for OS window-visibility/focus/destroy notifications, gated by a
// pause flag so atomic operations (workspace switch, setup) don't observe
// intermediate state (spec.md §4.6).
package events

import "github.com/codexwm/codex/internal/state"

// Kind identifies the class of OS window event being routed.
type Kind int

const (
	WindowVisible Kind = iota
	WindowNotVisible
	WindowDestroyed
	WindowFocused
	FullscreenChanged
)

// Handler reacts to one event kind for one window.
type Handler func(w state.Window)

// Router fans out OS events to registered handlers, dropping them while
// Paused.
type Router struct {
	paused   bool
	handlers map[Kind][]Handler
}

// New returns an empty, unpaused Router.
func New() *Router {
	return &Router{handlers: make(map[Kind][]Handler)}
}

// Subscribe registers fn to run whenever kind fires.
func (r *Router) Subscribe(kind Kind, fn Handler) {
	r.handlers[kind] = append(r.handlers[kind], fn)
}

// Dispatch runs every handler subscribed to kind for w, unless the router
// is paused.
func (r *Router) Dispatch(kind Kind, w state.Window) {
	if r.paused {
		return
	}
	for _, fn := range r.handlers[kind] {
		fn(w)
	}
}

// Pause suppresses all dispatches until Resume is called.
func (r *Router) Pause() { r.paused = true }

// Resume re-enables dispatch.
func (r *Router) Resume() { r.paused = false }

// Paused reports the current gate state.
func (r *Router) Paused() bool { return r.paused }

// WithPaused runs fn with dispatch suppressed, always restoring the prior
// pause state afterward (even if fn panics), per the setup/switch protocol
// in spec.md §4.5: "pause events ... resume events".
func (r *Router) WithPaused(fn func()) {
	prev := r.paused
	r.paused = true
	defer func() { r.paused = prev }()
	fn()
}
