// Package engine wires the State Store, Tiling Engine, Window Lifecycle,
// Event Router, AX Transport, and Workspace Manager into one running
// system. Grounded on the teacher's internal/app/os.go (the "OS" struct
// as the one place that owns every subsystem) and
// funkycode-marwind/wm/wm.go's WM struct / New / Init / Run shape.
package engine

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/codexwm/codex/internal/ax"
	"github.com/codexwm/codex/internal/config"
	"github.com/codexwm/codex/internal/events"
	"github.com/codexwm/codex/internal/lifecycle"
	"github.com/codexwm/codex/internal/state"
	"github.com/codexwm/codex/internal/tiling"
	"github.com/codexwm/codex/internal/workspace"
)

// Deps bundles every external collaborator Engine needs beyond the
// workspace config and tiling policy: screen geometry, OS focus,
// scheduling, title matching, and the AX backend. Backend and Logger are
// optional.
type Deps struct {
	Space      state.Space
	Policy     tiling.Policy
	Screens    lifecycle.ScreenProvider
	Scheduler  lifecycle.Scheduler
	Focuser    lifecycle.Focuser
	MatchTitle func(pattern, title string) bool
	// Backend overrides the AX backend (for tests/non-darwin hosts). Nil
	// uses ax.NewDarwinBackend(), the cgo backend on darwin and an
	// always-erroring stub elsewhere.
	Backend ax.Backend
	Logger  *log.Logger
}

// Engine owns the full dependency graph for one managed screen/space: the
// State Store, AX Transport, Window Lifecycle, Event Router, and
// Workspace Manager.
type Engine struct {
	cfg       *config.WorkspaceConfig
	store     *state.Store
	transport *ax.Transport
	lc        *lifecycle.Lifecycle
	router    *events.Router
	mgr       *workspace.Manager
	logger    *log.Logger
	watcher   *config.Watcher
}

// New builds an Engine bound to cfg. cfg is mutated in place (not
// replaced) by WatchConfig's reload callback, so the pointer the caller
// already holds stays valid for the engine's lifetime.
func New(cfg *config.WorkspaceConfig, deps Deps) *Engine {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	store := state.NewStore()

	backend := deps.Backend
	if backend == nil {
		backend = ax.NewDarwinBackend()
	}
	transport := ax.New(backend, logger.With("component", "ax"))

	watcherFactory := ax.NewWatcherFactory(func(wid state.WinID) {
		logger.Debug("ui watcher fired", "wid", wid)
	})

	lc := lifecycle.New(store, deps.Policy, transport, transport, deps.Screens, watcherFactory, deps.Scheduler)

	router := events.New()

	mgr := workspace.New(cfg, workspace.Deps{
		Space:      deps.Space,
		Store:      store,
		Lifecycle:  lc,
		Router:     router,
		Transport:  transport,
		Screens:    deps.Screens,
		Scheduler:  deps.Scheduler,
		Focuser:    deps.Focuser,
		MatchTitle: deps.MatchTitle,
		Logger:     logger.With("component", "workspace"),
	})

	return &Engine{
		cfg:       cfg,
		store:     store,
		transport: transport,
		lc:        lc,
		router:    router,
		mgr:       mgr,
		logger:    logger,
	}
}

// Setup performs the one-time startup partition (spec.md §4.5 "Setup").
// existing is every window the host's window_filter currently reports.
func (e *Engine) Setup(existing []workspace.Window) {
	e.mgr.Setup(existing)
}

// Manager returns the Workspace Manager, the primary surface for
// host-driven operations: SwitchTo, MoveWindowTo, JumpToApp, ToggleJump,
// and the OnWindow* event hooks.
func (e *Engine) Manager() *workspace.Manager { return e.mgr }

// Lifecycle returns the Window Lifecycle, for host-driven single-window
// operations outside workspace switching (add/remove/focus/swap/slurp/
// barf/refresh/move).
func (e *Engine) Lifecycle() *lifecycle.Lifecycle { return e.lc }

// Store returns the State Store, mostly for introspection/debugging.
func (e *Engine) Store() *state.Store { return e.store }

// Transport returns the AX Transport, for callers that need to issue raw
// moves or frame reads outside the Lifecycle/Workspace layers (e.g. a
// host's resize/drag handler).
func (e *Engine) Transport() *ax.Transport { return e.transport }

// WatchConfig starts hot-reloading the on-disk config at path, applying
// changes in place so the Workspace Manager's already-bound cfg pointer
// picks them up without re-wiring (spec.md §6: the config file is the
// only persisted artifact; tiling/window state never is). It establishes
// the filesystem watch synchronously, then reloads in the background
// until ctx is cancelled.
func (e *Engine) WatchConfig(ctx context.Context, path string) error {
	w, err := config.NewWatcher(path, e.logger.With("component", "config"))
	if err != nil {
		return err
	}
	w.OnReload = func(next *config.WorkspaceConfig) {
		*e.cfg = *next
	}
	e.watcher = w
	go w.Run(ctx)
	return nil
}
