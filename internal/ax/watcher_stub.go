//go:build !darwin

package ax

import "github.com/codexwm/codex/internal/state"

type noopWatcher struct{}

func (noopWatcher) Start() {}
func (noopWatcher) Stop()  {}

// NewWatcherFactory returns a state.WatcherFactory whose watchers are
// inert off darwin, matching NewDarwinBackend's stub behavior.
func NewWatcherFactory(onChange func(wid state.WinID)) state.WatcherFactory {
	return func(state.Window) state.Watcher { return noopWatcher{} }
}
