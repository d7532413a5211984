// Package workspace implements the Workspace Manager: N virtual
// workspaces layered over a single physical macOS space via off-screen
// window parking instead of Mission Control space switching (spec.md
// §4.5). It owns workspace membership, jump targets, and the switch_to
// state machine; it drives internal/state, internal/tiling, and
// internal/lifecycle, all scoped to the one physical space it manages.
package workspace

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/codexwm/codex/internal/config"
	"github.com/codexwm/codex/internal/events"
	"github.com/codexwm/codex/internal/geom"
	"github.com/codexwm/codex/internal/lifecycle"
	"github.com/codexwm/codex/internal/state"
	"github.com/codexwm/codex/internal/tiling"
)

// Name identifies a virtual workspace, e.g. "main", "work", "scratch".
type Name string

// Window extends state.Window with the OS metadata the Workspace Manager
// needs to route new windows to a workspace and filter them from tiling.
type Window interface {
	state.Window
	AppName() string
	Title() string
	Maximizable() bool
	// Tabbed reports whether this window is one of several tabs inside an
	// app's single AX window (spec.md §4.4: "tab windows confuse the
	// grid").
	Tabbed() bool
}

// Transport is the subset of internal/ax.Transport the Workspace Manager
// needs: synchronous and async batch moves, and a batched frame read.
type Transport interface {
	MoveWindows(ops []tiling.MoveOp) error
	MoveWindowsAsync(ops []tiling.MoveOp)
	ReadFrames(queries []tiling.FrameQuery) (map[state.WinID]geom.Frame, error)
}

// Launcher spawns or focuses an application by name — the external
// collaborator for jumpToApp's launch fallback (spec.md §4.5, §1 Non-goals:
// process launching is a host concern).
type Launcher interface {
	Launch(cmd []string) error
	LaunchOrFocus(appName string) error
}

type pendingWindow struct {
	wid state.WinID
	w   Window
}

type jumpPoint struct {
	workspace Name
	windowID  state.WinID
}

type jumpCacheKey struct {
	category  string
	workspace Name
}

type jumpCacheEntry struct {
	w            Window
	titlePattern string
}

// Manager is the Workspace Manager. All of its operations are scoped to a
// single physical macOS space; workspaces are a purely in-memory overlay
// realized by moving windows on and off that space's visible grid.
type Manager struct {
	space state.Space

	store *state.Store
	lc    *lifecycle.Lifecycle
	router *events.Router
	transport Transport
	screens   lifecycle.ScreenProvider
	scheduler lifecycle.Scheduler
	focuser   lifecycle.Focuser
	matchTitle func(pattern, title string) bool
	logger     *log.Logger

	cfg *config.WorkspaceConfig

	current       Name
	switching     bool
	screenChanged bool

	windows map[Name]map[state.WinID]Window
	pending map[Name][]pendingWindow
	winWS   map[state.WinID]Name
	winPID  map[state.WinID]state.PID
	frames  map[state.WinID]geom.Frame

	snapshots map[Name]state.Snapshot
	focused   map[Name]state.WinID

	prevJump  *jumpPoint
	jumpCache map[jumpCacheKey]jumpCacheEntry
}

// Deps bundles every collaborator Manager needs. All fields are required
// except Logger (defaults to a discarding logger).
type Deps struct {
	Space      state.Space
	Store      *state.Store
	Lifecycle  *lifecycle.Lifecycle
	Router     *events.Router
	Transport  Transport
	Screens    lifecycle.ScreenProvider
	Scheduler  lifecycle.Scheduler
	Focuser    lifecycle.Focuser
	MatchTitle func(pattern, title string) bool
	Logger     *log.Logger
}

// New constructs a Manager bound to cfg and deps. Setup must be called
// before the manager is usable.
func New(cfg *config.WorkspaceConfig, deps Deps) *Manager {
	m := &Manager{
		space:      deps.Space,
		store:      deps.Store,
		lc:         deps.Lifecycle,
		router:     deps.Router,
		transport:  deps.Transport,
		screens:    deps.Screens,
		scheduler:  deps.Scheduler,
		focuser:    deps.Focuser,
		matchTitle: deps.MatchTitle,
		logger:     deps.Logger,
		cfg:        cfg,
		windows:    make(map[Name]map[state.WinID]Window),
		pending:    make(map[Name][]pendingWindow),
		winWS:      make(map[state.WinID]Name),
		winPID:     make(map[state.WinID]state.PID),
		frames:     make(map[state.WinID]geom.Frame),
		snapshots:  make(map[Name]state.Snapshot),
		focused:    make(map[Name]state.WinID),
		jumpCache:  make(map[jumpCacheKey]jumpCacheEntry),
	}
	if m.logger == nil {
		m.logger = log.New(io.Discard)
	}
	return m
}

func newTaskID() string { return uuid.NewString() }

// Current returns the active workspace name.
func (m *Manager) Current() Name { return m.current }

// Stats is an operational snapshot for introspection/debugging (spec
// SPEC_FULL.md §D supplemented feature), grounded on the teacher's
// lightweight counter-alongside-the-model pattern.
type Stats struct {
	Workspace Name
	Windows   int
	Pending   int
	Hidden    int
	Floating  int
}

// Stats reports per-workspace counts for every known workspace.
func (m *Manager) Stats() []Stats {
	out := make([]Stats, 0, len(m.windows))
	for name, ws := range m.windows {
		hidden, floating := 0, 0
		for wid := range ws {
			if m.store.IsHidden(wid) {
				hidden++
			}
			if m.store.IsFloating(wid) {
				floating++
			}
		}
		out = append(out, Stats{
			Workspace: name,
			Windows:   len(ws),
			Pending:   len(m.pending[name]),
			Hidden:    hidden,
			Floating:  floating,
		})
	}
	return out
}

// ensureWorkspace lazily creates the membership tables for name.
func (m *Manager) ensureWorkspace(name Name) {
	if m.windows[name] == nil {
		m.windows[name] = make(map[state.WinID]Window)
	}
}

func (m *Manager) resolveWorkspace(w Window) Name {
	ws := m.cfg.ResolveWorkspace(w.AppName(), w.Title(), m.matchTitle)
	if ws == "" {
		return m.current
	}
	return Name(ws)
}

func (m *Manager) eligible(w state.Window) bool {
	ww, ok := w.(Window)
	if !ok {
		return true
	}
	if !ww.Maximizable() {
		return false
	}
	if ww.Tabbed() {
		return false
	}
	return true
}
